// Package connection provides the RESP client used by redikv-cli.
package connection
