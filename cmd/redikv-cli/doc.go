// Package main provides the entry point for redikv-cli.
//
// Usage:
//
//	redikv-cli [-h host] [-p port] [--raw] command [arg ...]
//	redikv-cli -p 6380
//
// Without a command the CLI starts an interactive session.
package main
