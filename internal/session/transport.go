package session

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"
)

// Transport is a reliable ordered byte stream.
//
// Receive waits at most timeout for data. (0, nil) means nothing arrived in
// time; any error means the stream is gone.
type Transport interface {
	Receive(p []byte, timeout time.Duration) (int, error)
	Send(p []byte) error
	Close() error
}

// Dial connects to addr over TCP within cfg.ConnectTimeout.
func Dial(ctx context.Context, addr string, cfg Config) (Transport, error) {
	cfg = cfg.WithDefaults()
	dialer := net.Dialer{Timeout: cfg.ConnectTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, classifyDialErr(addr, err)
	}
	return NewConnTransport(conn, cfg.WriteTimeout), nil
}

func classifyDialErr(addr string, err error) error {
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return fmt.Errorf("%w: %s: %w", ErrConnectTimeout, addr, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrConnect, addr, err)
}

// ConnTransport adapts a net.Conn using read and write deadlines.
type ConnTransport struct {
	conn         net.Conn
	writeTimeout time.Duration
}

func NewConnTransport(conn net.Conn, writeTimeout time.Duration) *ConnTransport {
	return &ConnTransport{conn: conn, writeTimeout: writeTimeout}
}

func (t *ConnTransport) Receive(p []byte, timeout time.Duration) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, err
	}
	n, err := t.conn.Read(p)
	if err != nil {
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return n, nil
		}
		return n, err
	}
	return n, nil
}

func (t *ConnTransport) Send(p []byte) error {
	if t.writeTimeout > 0 {
		if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
			return err
		}
	}
	_, err := t.conn.Write(p)
	return err
}

func (t *ConnTransport) Close() error {
	return t.conn.Close()
}
