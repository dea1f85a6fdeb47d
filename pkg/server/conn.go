package server

import (
	"bufio"
	"io"
	"net"
	"strings"

	"github.com/conversa-chat/conversa/pkg/protocol"
)

// LineConn is the transport contract the core relies on: deliver complete
// lines in arrival order, signal end-of-stream exactly once. TCP sockets and
// WebSocket connections both satisfy it through thin adapters.
type LineConn interface {
	ReadLine() (string, error)
	WriteLine(line string) error
	Close() error
	RemoteAddr() string
}

// tcpLineConn adapts a net.Conn to LineConn using newline framing.
type tcpLineConn struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

// NewTCPLineConn wraps a TCP connection as a LineConn.
func NewTCPLineConn(conn net.Conn) LineConn {
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 0, 1024), protocol.MaxLineLength)
	return &tcpLineConn{conn: conn, scanner: sc}
}

func (c *tcpLineConn) ReadLine() (string, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimRight(c.scanner.Text(), "\r"), nil
}

func (c *tcpLineConn) WriteLine(line string) error {
	_, err := c.conn.Write([]byte(line + "\n"))
	return err
}

func (c *tcpLineConn) Close() error {
	return c.conn.Close()
}

func (c *tcpLineConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}

func isClosedErr(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "use of closed network connection")
}
