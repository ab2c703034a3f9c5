// Package config loads the two on-disk configuration documents: the
// build-steps file and the C/C++ properties file. The Loader interface
// abstracts the file format from the driver; the JSON implementation in
// this package is the only one shipped.
//
// Structural validation lives on the model types; the loader runs it once
// so downstream packages can assume a valid document.
package config
