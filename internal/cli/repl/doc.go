// Package repl provides the interactive mode of redikv-cli.
//
//   - repl.go: prompt loop that sends each line to the server
//   - args.go: splits a line into arguments, honouring quotes
//   - history.go: command history persisted to ~/.redikv_history
package repl
