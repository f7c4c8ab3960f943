// Package cli implements the interactive FitSync client: a REPL over the
// auth session manager, the training-session controller and the data
// services. It owns stdin/stdout; the services stay I/O-free.
package cli
