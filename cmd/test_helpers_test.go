package cmd

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"flag"
	"io"
	"net"
	"os"
	"strings"
	"testing"

	"github.com/urfave/cli"
	"github.com/warpdl/warpvpn/common"
	"github.com/warpdl/warpvpn/pkg/warpcli"
)

// captureOutput captures stdout and stderr while f runs.
func captureOutput(f func()) (stdout, stderr string) {
	oldStdout, oldStderr := os.Stdout, os.Stderr
	rOut, wOut, _ := os.Pipe()
	rErr, wErr, _ := os.Pipe()
	os.Stdout, os.Stderr = wOut, wErr

	outCh := make(chan string)
	errCh := make(chan string)
	go func() { var b bytes.Buffer; _, _ = io.Copy(&b, rOut); outCh <- b.String() }()
	go func() { var b bytes.Buffer; _, _ = io.Copy(&b, rErr); errCh <- b.String() }()

	f()

	wOut.Close()
	wErr.Close()
	os.Stdout, os.Stderr = oldStdout, oldStderr
	return <-outCh, <-errCh
}

func assertContains(t *testing.T, output, expected string) {
	t.Helper()
	if !strings.Contains(output, expected) {
		t.Errorf("expected output to contain %q, got:\n%s", expected, output)
	}
}

// newContext creates a CLI context for name with flags applied to args.
func newContext(t *testing.T, name string, flags []cli.Flag, args ...string) *cli.Context {
	t.Helper()
	set := flag.NewFlagSet(name, flag.ContinueOnError)
	for _, f := range flags {
		f.Apply(set)
	}
	if err := set.Parse(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	app := cli.NewApp()
	app.Name = "warpvpn"
	app.HelpName = "warpvpn"
	ctx := cli.NewContext(app, set, nil)
	ctx.Command = cli.Command{Name: name}
	return ctx
}

type reply struct {
	utype   common.UpdateType
	message string
	err     string
}

// fakeDaemon answers framed requests on an in-memory connection and
// installs it as the command client. Received requests are returned on
// the channel.
func fakeDaemon(t *testing.T, answer func(warpcli.Request) reply) <-chan warpcli.Request {
	t.Helper()
	t.Setenv(warpcli.VersionCheckEnv, "1")
	reqs := make(chan warpcli.Request, 16)
	c1, c2 := net.Pipe()
	old := newClient
	newClient = func() (*warpcli.Client, error) {
		return warpcli.NewClientForTesting(c1), nil
	}
	t.Cleanup(func() {
		newClient = old
		c2.Close()
	})
	go func() {
		for {
			buf, err := warpcli.ReadForTesting(c2)
			if err != nil {
				return
			}
			var req warpcli.Request
			_ = json.Unmarshal(buf, &req)
			reqs <- req
			r := answer(req)
			res := warpcli.Response{Ok: r.err == "", Error: r.err}
			if r.err == "" {
				res.Update = &warpcli.Update{Type: r.utype, Message: json.RawMessage(r.message)}
			}
			b, _ := json.Marshal(res)
			head := make([]byte, 4)
			binary.LittleEndian.PutUint32(head, uint32(len(b)))
			if _, err := c2.Write(append(head, b...)); err != nil {
				return
			}
		}
	}()
	return reqs
}
