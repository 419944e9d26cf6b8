package session

import (
	"context"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/danmuck/stressbot/internal/testutil/testlog"
)

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassifyDialErr(t *testing.T) {
	testlog.Start(t)
	if err := classifyDialErr("h:1", timeoutErr{}); !errors.Is(err, ErrConnectTimeout) {
		t.Fatalf("expected ErrConnectTimeout, got %v", err)
	}
	if err := classifyDialErr("h:1", errors.New("refused")); !errors.Is(err, ErrConnect) || errors.Is(err, ErrConnectTimeout) {
		t.Fatalf("expected ErrConnect, got %v", err)
	}
}

func TestDialRefused(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	if _, err := Dial(context.Background(), addr, Config{ConnectTimeout: time.Second}); !errors.Is(err, ErrConnect) {
		t.Fatalf("expected ErrConnect, got %v", err)
	}
}

func TestConnTransportReceiveTimeoutAndLoss(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err != nil {
			return
		}
		accepted <- c
	}()

	tr, err := Dial(context.Background(), ln.Addr().String(), DefaultConfig())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer tr.Close()
	server := <-accepted

	buf := make([]byte, 64)
	n, err := tr.Receive(buf, 20*time.Millisecond)
	if n != 0 || err != nil {
		t.Fatalf("timeout read: n=%d err=%v", n, err)
	}

	if _, err := server.Write([]byte("PU\n#")); err != nil {
		t.Fatalf("server write: %v", err)
	}
	n, err = tr.Receive(buf, time.Second)
	if err != nil || string(buf[:n]) != "PU\n#" {
		t.Fatalf("read: %q err=%v", buf[:n], err)
	}

	if err := tr.Send([]byte("MOVE 0 0 1 0#")); err != nil {
		t.Fatalf("send: %v", err)
	}
	got := make([]byte, 13)
	if _, err := io.ReadFull(server, got); err != nil || string(got) != "MOVE 0 0 1 0#" {
		t.Fatalf("server read: %q err=%v", got, err)
	}

	_ = server.Close()
	if _, err := tr.Receive(buf, time.Second); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after close, got %v", err)
	}
}
