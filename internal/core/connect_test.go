package core

import (
	"bytes"
	"context"
	"io"
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sshconsole/sshclient"
)

func TestConnectMode_AgainstServer(t *testing.T) {
	ts := startServer(t, nil)
	host, portStr, err := net.SplitHostPort(ts.addr)
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	t.Setenv("SSH_AUTH_SOCK", "")
	t.Setenv("HOME", t.TempDir())

	client := sshclient.New(&sshclient.Config{
		User:        "ops",
		Host:        host,
		Port:        port,
		ConnTimeout: 5 * time.Second,
	}, quietLogger())

	// The pipe stays open so only the server's quit ends the relay.
	pr, pw := io.Pipe()
	defer pw.Close()
	go func() {
		io.WriteString(pw, "ping\rquit\r") //nolint:errcheck
	}()

	var out bytes.Buffer
	mode := &ConnectMode{Client: client, Logger: quietLogger(), Stdin: pr, Stdout: &out}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, mode.Run(ctx))

	assert.Equal(t, greeting+"> ping\r\n> quit\r\n", out.String())
	assert.False(t, client.IsAlive())
}

func TestConnectMode_Unreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	mode := &ConnectMode{
		Client: sshclient.New(&sshclient.Config{
			User:        "ops",
			Host:        "127.0.0.1",
			Port:        port,
			ConnTimeout: time.Second,
		}, quietLogger()),
		Logger: quietLogger(),
		Stdin:  bytes.NewReader(nil),
		Stdout: io.Discard,
	}
	assert.Error(t, mode.Run(context.Background()))
}
