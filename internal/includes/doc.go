// Package includes computes, for a translation unit, the minimal subset of
// enlisted include directories its transitive #include graph actually
// needs, so compile commands can drop unused -I entries.
//
// The scanner is a static over-approximation: preprocessor conditionals
// are ignored, so headers guarded by #if 0 still count, and #include
// directives synthesised by macros are invisible. Path comparisons are
// case-sensitive even on case-insensitive filesystems.
package includes
