// Package errors defines error types for the stdio transport.
//
// This package provides structured error types that wrap the different
// failure scenarios of running a child process and exchanging
// newline-delimited JSON with it. All error types support unwrapping and
// can be checked using errors.Is, errors.As, and errors.AsType.
package errors
