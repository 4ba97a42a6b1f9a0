package shmreg

import (
	"sync/atomic"
	"time"
)

// Config holds the tunable knobs for the process-wide registry: Verifier
// Pool parallelism and the Janitor's sweep period. Defaults apply to any
// field left at its zero value.
type Config struct {
	// WorkerCount bounds how many goroutines VerifyFiles spawns. Defaults to
	// 4 when <= 0.
	WorkerCount int

	// SweepInterval is the Janitor's sweep period. Defaults to 5 seconds
	// when <= 0.
	SweepInterval time.Duration
}

const (
	defaultWorkerCount   = 4
	defaultSweepInterval = 5 * time.Second
)

func (c Config) withDefaults() Config {
	if c.WorkerCount <= 0 {
		c.WorkerCount = defaultWorkerCount
	}

	if c.SweepInterval <= 0 {
		c.SweepInterval = defaultSweepInterval
	}

	return c
}

var activeConfig atomic.Pointer[Config]

// Configure installs the process-wide configuration used by VerifyFiles and
// every Janitor started after this call. Fields left at their zero value
// fall back to package defaults. Configure is safe to call concurrently with
// registry operations; it only affects parallelism and sweep timing, never
// correctness.
func Configure(cfg Config) {
	cfg = cfg.withDefaults()
	activeConfig.Store(&cfg)
}

func currentConfig() Config {
	p := activeConfig.Load()
	if p == nil {
		return Config{}.withDefaults()
	}

	return *p
}
