// Package cli parses command-line arguments, checks that the input file,
// chain file and output directory exist, and maps each failure to a fixed
// process exit code. It translates CLI flags into the application's
// configuration.
package cli
