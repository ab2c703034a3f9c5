// Package template implements the command template mini-language: escape
// and path-quoting utilities, the recursive bracket matcher, the variable
// list grammar, the layered variable resolver and the four-pass expansion
// engine.
//
// A template is evaluated in one of two modes. Top-level evaluation always
// produces a single string; sub-template evaluation (the inside of a (...)
// or [...] group) may produce a multi-valued sequence that the enclosing
// group fans out over. The four passes rewrite the input in order: (...)
// groups, [...] path groups, ${name} single-value variables and finally
// $${...} multi-value variables.
package template
