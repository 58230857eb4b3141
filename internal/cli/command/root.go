package command

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/redikv/internal/cli/connection"
	"github.com/yndnr/redikv/internal/cli/output"
	"github.com/yndnr/redikv/internal/cli/repl"
	"github.com/yndnr/redikv/internal/infra/buildinfo"
	"github.com/yndnr/redikv/internal/protocol/resp"
)

// Defaults for the connection flags.
const (
	DefaultHost    = "127.0.0.1"
	DefaultPort    = 6379
	DefaultTimeout = 5 * time.Second
)

// App creates the CLI application.
func App() *cli.App {
	// -h selects the host, as in redis-cli.
	cli.HelpFlag = &cli.BoolFlag{Name: "help", Usage: "show help"}

	return &cli.App{
		Name:            "redikv-cli",
		Usage:           "command-line client for redikv",
		UsageText:       "redikv-cli [options] [command [arg ...]]",
		Version:         buildinfo.String(),
		Flags:           globalFlags(),
		HideHelpCommand: true,
		Action:          run,
	}
}

func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "host",
			Aliases: []string{"h"},
			Usage:   "server hostname",
			EnvVars: []string{"REDIKV_HOST"},
			Value:   DefaultHost,
		},
		&cli.IntFlag{
			Name:    "port",
			Aliases: []string{"p"},
			Usage:   "server port",
			EnvVars: []string{"REDIKV_PORT"},
			Value:   DefaultPort,
		},
		&cli.DurationFlag{
			Name:  "timeout",
			Usage: "per-command round-trip timeout, 0 to disable",
			Value: DefaultTimeout,
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "output format: redis, raw, json, yaml",
			Value:   string(output.FormatRedis),
		},
		&cli.BoolFlag{
			Name:  "raw",
			Usage: "shorthand for --output raw",
		},
	}
}

// GlobalFlags holds the parsed global flags.
type GlobalFlags struct {
	Host    string
	Port    int
	Timeout time.Duration
	Format  output.Format
}

// ParseGlobalFlags extracts and validates the global flags.
func ParseGlobalFlags(c *cli.Context) (*GlobalFlags, error) {
	format, err := output.ParseFormat(c.String("output"))
	if err != nil {
		return nil, err
	}
	if c.Bool("raw") {
		format = output.FormatRaw
	}
	port := c.Int("port")
	if port < 1 || port > 65535 {
		return nil, fmt.Errorf("invalid port %d", port)
	}
	return &GlobalFlags{
		Host:    c.String("host"),
		Port:    port,
		Timeout: c.Duration("timeout"),
		Format:  format,
	}, nil
}

func run(c *cli.Context) error {
	flags, err := ParseGlobalFlags(c)
	if err != nil {
		return cli.Exit(err.Error(), 2)
	}

	client := connection.NewClient(flags.Host, flags.Port, flags.Timeout)
	defer client.Close()

	if c.NArg() == 0 {
		return repl.New(client, flags.Format, repl.WithIO(c.App.Reader, c.App.Writer)).Run(c.Context)
	}

	args := c.Args().Slice()
	reply, err := client.Do(c.Context, args...)
	if err != nil {
		return cli.Exit(fmt.Sprintf("could not reach %s: %v", client.Addr(), err), 1)
	}
	if err := output.Write(c.App.Writer, output.ForCommand(flags.Format, args[0]), reply); err != nil {
		return err
	}
	if reply.Type == resp.TypeError {
		return cli.Exit("", 1)
	}
	return nil
}
