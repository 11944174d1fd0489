package main

import (
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config carries the environment-tunable knobs that don't deserve flags.
type Config struct {
	// Perf is the perf binary to drive.
	Perf string `env:"FUNCLOCK_PERF" env-default:"perf"`
	// DataFile is where perf record writes the trace.
	DataFile string `env:"FUNCLOCK_DATA" env-default:"perf.data"`
	// ReorderWindow bounds the cross-CPU clock skew the pipeline corrects.
	ReorderWindow time.Duration `env:"FUNCLOCK_REORDER_WINDOW" env-default:"10ms"`
}

func loadConfig() (Config, error) {
	var cfg Config
	err := cleanenv.ReadEnv(&cfg)
	return cfg, err
}
