// Package app contains the core application logic: it loads the build and
// properties files, composes the variable scope stack for the requested
// configuration and build type, runs the steps in order and prints the
// per-step and whole-build summaries. It is decoupled from any specific
// entrypoint like a CLI.
package app
