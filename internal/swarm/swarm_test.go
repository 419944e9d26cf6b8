package swarm

import (
	"context"
	"errors"
	"net"
	"sort"
	"testing"
	"time"

	"github.com/danmuck/stressbot/internal/session"
	"github.com/danmuck/stressbot/internal/testutil/fakeserver"
	"github.com/danmuck/stressbot/internal/testutil/testlog"
)

func testConfig(addr string, clients int) Config {
	cfg := DefaultConfig()
	cfg.Address = addr
	cfg.EmailPrefix = "dummy"
	cfg.Clients = clients
	cfg.Ramp.InitialDelay = time.Millisecond
	cfg.Session.ReadTimeout = 50 * time.Millisecond
	return cfg
}

func startServer(t *testing.T, opts fakeserver.Options) *fakeserver.Server {
	t.Helper()
	srv, err := fakeserver.Start(opts)
	if err != nil {
		t.Fatalf("start fake server: %v", err)
	}
	t.Cleanup(func() { _ = srv.Close() })
	return srv
}

func TestRunAllClientsPlayUntilDeath(t *testing.T) {
	testlog.Start(t)
	for _, compressed := range []bool{false, true} {
		srv := startServer(t, fakeserver.Options{DieAfter: 3, CompressUpdates: compressed})
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		report, err := Run(ctx, testConfig(srv.Addr(), 4))
		cancel()
		if err != nil {
			t.Fatalf("compressed=%v run: %v", compressed, err)
		}
		if report.Total != 4 || report.Dead != 4 {
			t.Fatalf("compressed=%v report=%+v", compressed, report)
		}
		if report.MovesSent != 12 {
			t.Fatalf("compressed=%v moves=%d", compressed, report.MovesSent)
		}
		for i, res := range report.Results {
			if res.State != session.Dead || !res.Entity.ID.Bound {
				t.Fatalf("client %d result=%+v", i, res)
			}
		}

		logins := srv.Logins()
		sort.Strings(logins)
		want := []string{"dummy0@dummy.com", "dummy1@dummy.com", "dummy2@dummy.com", "dummy3@dummy.com"}
		if len(logins) != len(want) {
			t.Fatalf("logins=%q", logins)
		}
		for i := range want {
			if logins[i] != want[i] {
				t.Fatalf("logins=%q", logins)
			}
		}
	}
}

func TestRunReportsLostConnections(t *testing.T) {
	testlog.Start(t)
	srv := startServer(t, fakeserver.Options{DropAfterLogin: true})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	report, err := Run(ctx, testConfig(srv.Addr(), 2))
	if !errors.Is(err, ErrSessionsFailed) {
		t.Fatalf("expected ErrSessionsFailed, got %v", err)
	}
	if report.Disconnected != 2 || report.Dead != 0 {
		t.Fatalf("report=%+v", report)
	}
}

func TestRunConnectFailure(t *testing.T) {
	testlog.Start(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	_ = ln.Close()

	report, err := Run(context.Background(), testConfig(addr, 3))
	if !errors.Is(err, ErrSessionsFailed) {
		t.Fatalf("expected ErrSessionsFailed, got %v", err)
	}
	if report.ConnectFailed != 3 {
		t.Fatalf("report=%+v", report)
	}
}

func TestRunValidatesConfig(t *testing.T) {
	testlog.Start(t)
	if _, err := Run(context.Background(), Config{EmailPrefix: "dummy"}); !errors.Is(err, ErrAddressRequired) {
		t.Fatalf("expected ErrAddressRequired, got %v", err)
	}
	if _, err := Run(context.Background(), Config{Address: "127.0.0.1:1"}); !errors.Is(err, ErrPrefixRequired) {
		t.Fatalf("expected ErrPrefixRequired, got %v", err)
	}
}

func TestEmails(t *testing.T) {
	testlog.Start(t)
	single := Config{EmailPrefix: "bot", Clients: 1}.Emails()
	if len(single) != 1 || single[0] != "bot@dummy.com" {
		t.Fatalf("single=%q", single)
	}
	many := Config{EmailPrefix: "bot", Clients: 3}.Emails()
	if len(many) != 3 || many[0] != "bot0@dummy.com" || many[2] != "bot2@dummy.com" {
		t.Fatalf("many=%q", many)
	}
}

func TestLaunchOffsetsAreSeeded(t *testing.T) {
	testlog.Start(t)
	cfg := DefaultConfig()
	cfg.Clients = 5
	cfg.Seed = 99
	a := cfg.LaunchOffsets()
	b := cfg.LaunchOffsets()
	if a[0] != 0 {
		t.Fatalf("first client must start immediately, got %v", a[0])
	}
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("offset %d differs: %v != %v", i, a[i], b[i])
		}
		if i > 0 && a[i] <= a[i-1] {
			t.Fatalf("offsets must increase: %v", a)
		}
	}
}
