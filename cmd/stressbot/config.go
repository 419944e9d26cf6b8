package main

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/stressbot/internal/swarm"
)

type fileConfig struct {
	Server            string `toml:"server"`
	Port              int    `toml:"port"`
	EmailPrefix       string `toml:"email_prefix"`
	Clients           int    `toml:"clients"`
	Password          string `toml:"password"`
	Password2         string `toml:"password2"`
	ConnectTimeout    string `toml:"connect_timeout"`
	ReadTimeout       string `toml:"read_timeout"`
	WindowReadTimeout string `toml:"window_read_timeout"`
	MaxIdleReads      int    `toml:"max_idle_reads"`
	MaxDrainBytes     int    `toml:"max_drain_bytes"`
	Ramp              string `toml:"ramp"`
	RampJitter        bool   `toml:"ramp_jitter"`
	Seed              int64  `toml:"seed"`
	MetricsAddr       string `toml:"metrics_addr"`
}

// runConfig is everything the root command needs.
type runConfig struct {
	Server      string
	Port        int
	Swarm       swarm.Config
	MetricsAddr string
}

const defaultPort = 8005

func defaultRunConfig() runConfig {
	return runConfig{
		Port:  defaultPort,
		Swarm: swarm.DefaultConfig(),
	}
}

func (c runConfig) address() string {
	return net.JoinHostPort(c.Server, strconv.Itoa(c.Port))
}

func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runConfig{}, fmt.Errorf("load stressbot config: %w", err)
	}

	if meta.IsDefined("server") {
		cfg.Server = strings.TrimSpace(raw.Server)
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("email_prefix") {
		cfg.Swarm.EmailPrefix = strings.TrimSpace(raw.EmailPrefix)
	}
	if meta.IsDefined("clients") {
		cfg.Swarm.Clients = raw.Clients
	}
	if meta.IsDefined("password") {
		cfg.Swarm.Password1 = raw.Password
		cfg.Swarm.Password2 = raw.Password
	}
	if meta.IsDefined("password2") {
		cfg.Swarm.Password2 = raw.Password2
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"connect_timeout", raw.ConnectTimeout, &cfg.Swarm.Session.ConnectTimeout},
		{"read_timeout", raw.ReadTimeout, &cfg.Swarm.Session.ReadTimeout},
		{"window_read_timeout", raw.WindowReadTimeout, &cfg.Swarm.Session.WindowReadTimeout},
		{"ramp", raw.Ramp, &cfg.Swarm.Ramp.InitialDelay},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return runConfig{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if meta.IsDefined("max_idle_reads") {
		cfg.Swarm.Session.MaxIdleReads = raw.MaxIdleReads
	}
	if meta.IsDefined("max_drain_bytes") {
		cfg.Swarm.Session.MaxDrainBytes = raw.MaxDrainBytes
	}
	if meta.IsDefined("ramp_jitter") {
		cfg.Swarm.Ramp.Jitter = raw.RampJitter
	}
	if meta.IsDefined("seed") {
		cfg.Swarm.Seed = raw.Seed
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	return cfg, nil
}

// applyArgs overlays the positional form: server port email_prefix [num_clients].
func (c *runConfig) applyArgs(args []string) error {
	if len(args) > 0 {
		c.Server = strings.TrimSpace(args[0])
	}
	if len(args) > 1 {
		port, err := strconv.Atoi(args[1])
		if err != nil || port <= 0 || port > 65535 {
			return fmt.Errorf("invalid port %q", args[1])
		}
		c.Port = port
	}
	if len(args) > 2 {
		c.Swarm.EmailPrefix = strings.TrimSpace(args[2])
	}
	if len(args) > 3 {
		n, err := strconv.Atoi(args[3])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid num_clients %q", args[3])
		}
		c.Swarm.Clients = n
	}
	return nil
}

func (c runConfig) validate() error {
	if c.Server == "" {
		return fmt.Errorf("server address required")
	}
	if c.Swarm.EmailPrefix == "" {
		return fmt.Errorf("email prefix required")
	}
	if c.Swarm.Clients <= 0 {
		return fmt.Errorf("clients must be positive, got %d", c.Swarm.Clients)
	}
	return nil
}
