// Package app contains the core application logic. It defines the main App
// struct, its configuration, and the run lifecycle: loading the chain,
// starting the worker group and reporting progress, decoupled from any
// specific entrypoint like a CLI.
package app
