package telnet

import (
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// pipeConn returns a Conn reading whatever is written to the returned client end.
func pipeConn(t *testing.T) (*Conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	t.Cleanup(func() {
		server.Close()
		client.Close()
	})
	return NewConn(server, time.Second, time.Second), client
}

func feed(client net.Conn, data []byte) {
	go func() { _, _ = client.Write(data) }()
}

func TestReadLine_CRLF(t *testing.T) {
	c, client := pipeConn(t)
	feed(client, []byte("dig 1 2\r\nstart 0 0\n"))

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "dig 1 2", line)

	line, err = c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "start 0 0", line)
}

func TestReadLine_FiltersCommands(t *testing.T) {
	c, client := pipeConn(t)
	data := []byte{IAC, DO, OptEcho, 'd', IAC, SB, 24, 0, 'x', IAC, SE, 'i', 0x07, 'g', '\r', '\n'}
	feed(client, data)

	line, err := c.ReadLine()
	require.NoError(t, err)
	assert.Equal(t, "dig", line)
}

func TestReadLine_TooLong(t *testing.T) {
	c, client := pipeConn(t)
	feed(client, []byte(strings.Repeat("a", MaxLineLength+1)+"\n"))

	_, err := c.ReadLine()
	assert.ErrorIs(t, err, ErrLineTooLong)
}

func TestReadLine_EOF(t *testing.T) {
	c, client := pipeConn(t)
	feed(client, []byte("partial"))
	go func() {
		time.Sleep(20 * time.Millisecond)
		client.Close()
	}()

	line, err := c.ReadLine()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "partial", line)
}

func TestWriteLine(t *testing.T) {
	c, client := pipeConn(t)
	go func() { _ = c.WriteLine("hello") }()

	buf := make([]byte, 16)
	n, err := io.ReadFull(client, buf[:7])
	require.NoError(t, err)
	assert.Equal(t, "hello\r\n", string(buf[:n]))
}

func TestNegotiate(t *testing.T) {
	c, client := pipeConn(t)
	go func() { _ = c.Negotiate() }()

	buf := make([]byte, 3)
	_, err := io.ReadFull(client, buf)
	require.NoError(t, err)
	assert.Equal(t, []byte{IAC, WILL, OptSuppressGoAhead}, buf)
}

func TestPropertyReadLinePrintable(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		text := rapid.StringMatching(`[ -~]{0,80}`).Draw(rt, "text")
		server, client := net.Pipe()
		defer server.Close()
		defer client.Close()
		c := NewConn(server, time.Second, time.Second)
		go func() { _, _ = client.Write([]byte(text + "\r\n")) }()

		line, err := c.ReadLine()
		if err != nil {
			rt.Fatalf("ReadLine: %v", err)
		}
		if line != text {
			rt.Fatalf("ReadLine = %q, want %q", line, text)
		}
	})
}
