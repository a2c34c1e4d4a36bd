// Package cmd implements the periscope command-line interface.
//
// The root command wires the subcommands together; the report
// subcommand drives a full collection run and is where all the
// interesting flags live.
package cmd
