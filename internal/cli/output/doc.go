// Package output renders RESP replies for redikv-cli.
//
// The default format mirrors redis-cli on a terminal: quoted bulk
// strings, "(nil)", "(integer) n", "(error) ..." and numbered arrays.
// raw prints values unadorned, one per line; json and yaml emit a
// structured document.
package output
