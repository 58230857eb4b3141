package command

import (
	"bufio"
	"bytes"
	"errors"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/redikv/internal/protocol/resp"
)

// startServer answers PING, GET and INFO; everything else is an error.
func startServer(t *testing.T) int {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { ln.Close() })

	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go func() {
				defer conn.Close()
				br := bufio.NewReader(conn)
				for {
					req, err := resp.ReadReply(br)
					if err != nil {
						return
					}
					var out resp.Response
					switch strings.ToUpper(string(req.Elems[0].Bulk)) {
					case "PING":
						out = resp.Pong{}
					case "GET":
						out = resp.Bulk("bar")
					case "INFO":
						out = resp.InfoReply{Role: resp.RoleSlave}
					default:
						out = resp.Error{Message: resp.ErrUnknownCommand}
					}
					if _, err := conn.Write(resp.Encode(out)); err != nil {
						return
					}
				}
			}()
		}
	}()
	return ln.Addr().(*net.TCPAddr).Port
}

type result struct {
	out      string
	err      error
	exitCode int
}

func runApp(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var out bytes.Buffer
	res := result{exitCode: -1}
	app := App()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &out
	app.ExitErrHandler = func(_ *cli.Context, err error) {
		var ec cli.ExitCoder
		if errors.As(err, &ec) {
			res.exitCode = ec.ExitCode()
		}
	}
	res.err = app.Run(append([]string{"redikv-cli"}, args...))
	res.out = out.String()
	return res
}

func TestApp(t *testing.T) {
	app := App()
	if app.Name != "redikv-cli" {
		t.Errorf("Name = %q, want redikv-cli", app.Name)
	}
	names := make(map[string]bool)
	for _, f := range app.Flags {
		for _, n := range f.Names() {
			names[n] = true
		}
	}
	for _, n := range []string{"host", "h", "port", "p", "timeout", "output", "o", "raw"} {
		if !names[n] {
			t.Errorf("missing flag %q", n)
		}
	}
	for _, n := range cli.HelpFlag.Names() {
		if n == "h" {
			t.Error("help flag must not claim -h")
		}
	}
}

func TestApp_OneShot(t *testing.T) {
	port := strconv.Itoa(startServer(t))

	res := runApp(t, "", "-h", "127.0.0.1", "-p", port, "PING")
	if res.err != nil {
		t.Fatalf("Run() error: %v", res.err)
	}
	if res.out != "PONG\n" {
		t.Errorf("output = %q, want PONG", res.out)
	}

	res = runApp(t, "", "-p", port, "GET", "foo")
	if res.out != "\"bar\"\n" {
		t.Errorf("GET output = %q", res.out)
	}

	res = runApp(t, "", "-p", port, "--raw", "GET", "foo")
	if res.out != "bar\n" {
		t.Errorf("raw GET output = %q", res.out)
	}

	res = runApp(t, "", "-p", port, "-o", "json", "GET", "foo")
	if res.out != "\"bar\"\n" {
		t.Errorf("json GET output = %q", res.out)
	}

	res = runApp(t, "", "-p", port, "INFO")
	if res.out != "role:slave\n" {
		t.Errorf("INFO output = %q", res.out)
	}
}

func TestApp_ErrorReplyExitCode(t *testing.T) {
	port := strconv.Itoa(startServer(t))

	res := runApp(t, "", "-p", port, "FLUSHALL")
	if res.out != "(error) ERR unknown command\n" {
		t.Errorf("output = %q", res.out)
	}
	if res.exitCode != 1 {
		t.Errorf("exit code = %d, want 1", res.exitCode)
	}
}

func TestApp_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := strconv.Itoa(ln.Addr().(*net.TCPAddr).Port)
	ln.Close()

	res := runApp(t, "", "-p", port, "PING")
	if res.exitCode != 1 {
		t.Errorf("exit code = %d, want 1", res.exitCode)
	}
	if res.err == nil || !strings.Contains(res.err.Error(), "could not reach") {
		t.Errorf("error = %v", res.err)
	}
}

func TestApp_InvalidFlags(t *testing.T) {
	res := runApp(t, "", "-o", "table", "PING")
	if res.exitCode != 2 {
		t.Errorf("bad format exit code = %d, want 2", res.exitCode)
	}
	res = runApp(t, "", "-p", "70000", "PING")
	if res.exitCode != 2 {
		t.Errorf("bad port exit code = %d, want 2", res.exitCode)
	}
}

func TestApp_REPL(t *testing.T) {
	port := startServer(t)
	t.Setenv("HOME", t.TempDir())

	res := runApp(t, "PING\nGET foo\nquit\n", "-p", strconv.Itoa(port))
	if res.err != nil {
		t.Fatalf("Run() error: %v", res.err)
	}
	prompt := "127.0.0.1:" + strconv.Itoa(port) + "> "
	want := prompt + "PONG\n" + prompt + "\"bar\"\n" + prompt
	if res.out != want {
		t.Errorf("output = %q, want %q", res.out, want)
	}
}
