// Package command defines the redikv-cli application using urfave/cli/v2.
//
// With arguments the CLI sends them as a single command and prints the
// reply; without arguments it starts the interactive REPL.
package command
