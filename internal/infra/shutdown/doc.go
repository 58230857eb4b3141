// Package shutdown provides graceful shutdown handling for redikv-server.
package shutdown
