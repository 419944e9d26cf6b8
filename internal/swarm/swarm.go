// Package swarm runs many independent sessions against one server.
package swarm

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	logs "github.com/danmuck/smplog"
	"github.com/danmuck/stressbot/internal/protocol"
	"github.com/danmuck/stressbot/internal/session"
)

var (
	ErrAddressRequired = errors.New("swarm: server address required")
	ErrPrefixRequired  = errors.New("swarm: email prefix required")
	ErrSessionsFailed  = errors.New("swarm: sessions failed")
)

type Config struct {
	Address     string
	EmailPrefix string
	Clients     int
	Password1   string
	Password2   string
	Session     session.Config
	// Ramp spaces client launches; attempt N is the gap before client N.
	Ramp session.BackoffConfig
	Seed int64
}

func DefaultConfig() Config {
	return Config{
		Clients:   1,
		Password1: "aaaa",
		Password2: "aaaa",
		Session:   session.DefaultConfig(),
		Ramp: session.BackoffConfig{
			InitialDelay: 50 * time.Millisecond,
			Multiplier:   1.0,
			Jitter:       true,
		},
		Seed: 1,
	}
}

// Report tallies session outcomes.
type Report struct {
	Total         int
	Dead          int
	Disconnected  int
	ConnectFailed int
	MovesSent     int
	Results       []session.Result
}

type outcome struct {
	index int
	res   session.Result
	dial  bool
}

// Emails returns the login address for each client.
func (c Config) Emails() []string {
	out := make([]string, c.Clients)
	for i := range out {
		prefix := c.EmailPrefix
		if c.Clients > 1 {
			prefix += strconv.Itoa(i)
		}
		out[i] = protocol.Email(prefix)
	}
	return out
}

// LaunchOffsets returns each client's delay from swarm start. The same
// seed always yields the same offsets.
func (c Config) LaunchOffsets() []time.Duration {
	rng := rand.New(rand.NewSource(c.Seed))
	out := make([]time.Duration, c.Clients)
	var at time.Duration
	for i := range out {
		if i > 0 {
			at += session.NextBackoffDelay(c.Ramp, i, rng)
		}
		out[i] = at
	}
	return out
}

func (c Config) validate() error {
	if strings.TrimSpace(c.Address) == "" {
		return ErrAddressRequired
	}
	if strings.TrimSpace(c.EmailPrefix) == "" {
		return ErrPrefixRequired
	}
	return nil
}

// Run starts every client and waits for all sessions to end. The error is
// ErrSessionsFailed when any client failed to connect or lost its connection.
func Run(ctx context.Context, cfg Config) (Report, error) {
	if cfg.Clients <= 0 {
		cfg.Clients = 1
	}
	if err := cfg.validate(); err != nil {
		return Report{}, err
	}
	cfg.Session = cfg.Session.WithDefaults()

	emails := cfg.Emails()
	offsets := cfg.LaunchOffsets()
	outcomes := make(chan outcome, cfg.Clients)

	logs.Zerolog().Info().
		Str("addr", cfg.Address).
		Int("clients", cfg.Clients).
		Int64("seed", cfg.Seed).
		Msg("swarm starting")

	var wg sync.WaitGroup
	for i := 0; i < cfg.Clients; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes <- runClient(ctx, cfg, i, emails[i], offsets[i])
		}(i)
	}
	wg.Wait()
	close(outcomes)

	report := Report{Total: cfg.Clients, Results: make([]session.Result, cfg.Clients)}
	for o := range outcomes {
		report.Results[o.index] = o.res
		report.MovesSent += o.res.MovesSent
		switch {
		case o.dial:
			report.ConnectFailed++
		case o.res.State == session.Dead:
			report.Dead++
		default:
			report.Disconnected++
		}
	}

	logs.Zerolog().Info().
		Int("dead", report.Dead).
		Int("disconnected", report.Disconnected).
		Int("connect_failed", report.ConnectFailed).
		Int("moves", report.MovesSent).
		Msg("swarm finished")

	if report.Disconnected > 0 || report.ConnectFailed > 0 {
		return report, fmt.Errorf("%w: disconnected=%d connect_failed=%d",
			ErrSessionsFailed, report.Disconnected, report.ConnectFailed)
	}
	return report, nil
}

func runClient(ctx context.Context, cfg Config, i int, email string, delay time.Duration) outcome {
	label := "client" + strconv.Itoa(i)
	o := outcome{index: i, res: session.Result{Label: label, State: session.Disconnected}}
	if err := sleep(ctx, delay); err != nil {
		return o
	}

	tr, err := session.Dial(ctx, cfg.Address, cfg.Session)
	if err != nil {
		logs.Zerolog().Error().Str("client", label).Err(err).Msg("connect failed")
		o.dial = true
		return o
	}
	defer tr.Close()

	s, err := session.New(tr, session.Identity{
		Label:     label,
		Email:     email,
		Password1: cfg.Password1,
		Password2: cfg.Password2,
	}, cfg.Session)
	if err != nil {
		logs.Zerolog().Error().Str("client", label).Err(err).Msg("session setup failed")
		return o
	}
	o.res, _ = s.Run(ctx)
	return o
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
