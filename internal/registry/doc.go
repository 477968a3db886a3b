// Package registry provides the central "glue" for the stage system.
//
// The Registry maps the string identifiers used in chain files (e.g.
// "timeseries_field_corrections") to factories that build a fresh stage
// instance. Every stage compiled into the binary is registered once at
// startup through a Module, and a chain definition is validated against the
// registry before any worker starts, so an unknown identifier is reported
// before any output is written.
package registry
