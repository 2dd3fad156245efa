// Package types defines the task model, tag normalization, configuration,
// and the standard error types shared by the store, the persistence engine,
// and the command-line front end.
package types
