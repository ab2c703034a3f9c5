// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev
//
// Package model provides the Go struct representation of a cppbuild
// workspace: the build-steps configuration file, the subset of the C/C++
// properties file the tool reads, and the variable environment the template
// engine evaluates against.
//
// # Core Concepts
//
// The model is built around a few key structures:
//
//   - Value: the variant carried by every variable. A Value is either a
//     single string or an ordered sequence of strings; the distinction
//     matters because sequences fan out inside templates.
//
//   - Scope / ScopeStack: a layered name-to-value environment. Later scopes
//     shadow earlier ones, and an inner scope may extend an outer value by
//     referring to its own name.
//
//   - GlobalConfiguration / BuildConfiguration / BuildType / BuildStep: the
//     decoded shape of the build-steps JSON file. A step carries a command
//     template plus at most one of filePattern, directoryPattern or
//     fileList, which decides how the command fans out.
//
//   - CppProperties: the subset of a c_cpp_properties.json configuration
//     (includePath, forcedInclude, defines) that seeds the variable
//     environment.
//
// Why a separate model package?
//
// The structs here are the post-validation contract between the JSON loader
// and the rest of the application. Structural rules (unique configuration
// names, mutually exclusive step options, outputFile requiring filePattern)
// are checked once, by Validate, so downstream packages can assume a
// well-formed document and never re-check shape.
package model
