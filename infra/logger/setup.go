package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the process-wide log level and outputs.
type Options struct {
	// Level is one of trace, debug, info, warn, error. Defaults to info.
	Level string `json:"level"`
	// File enables a rotating JSON log file in addition to stdout.
	File       string `json:"file"`
	MaxSizeMB  int    `json:"max_size_mb"`
	MaxBackups int    `json:"max_backups"`
	MaxAgeDays int    `json:"max_age_days"`
	Compress   bool   `json:"compress"`
}

// SetDefaults applies sane defaults.
func (o *Options) SetDefaults() {
	if o.Level == "" {
		o.Level = "info"
	}
	if o.File != "" && o.MaxSizeMB <= 0 {
		o.MaxSizeMB = 50
	}
}

// Validate checks the level name.
func (o Options) Validate() error {
	if _, err := zerolog.ParseLevel(strings.ToLower(o.Level)); err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	if o.MaxSizeMB < 0 || o.MaxBackups < 0 || o.MaxAgeDays < 0 {
		return fmt.Errorf("log rotation settings must be >= 0")
	}
	return nil
}

var (
	outMu  sync.RWMutex
	output io.Writer = os.Stdout
	file   *lumberjack.Logger
)

// Setup applies the options globally. Loggers created afterwards write to the
// configured outputs. The returned function closes the log file, if any.
func Setup(o Options) (func() error, error) {
	o.SetDefaults()
	if err := o.Validate(); err != nil {
		return nil, err
	}
	lvl, _ := zerolog.ParseLevel(strings.ToLower(o.Level))
	zerolog.SetGlobalLevel(lvl)

	outMu.Lock()
	defer outMu.Unlock()
	if file != nil {
		_ = file.Close()
		file = nil
	}
	output = os.Stdout
	if o.File != "" {
		file = &lumberjack.Logger{
			Filename:   o.File,
			MaxSize:    o.MaxSizeMB,
			MaxBackups: o.MaxBackups,
			MaxAge:     o.MaxAgeDays,
			Compress:   o.Compress,
		}
		output = io.MultiWriter(os.Stdout, file)
	}
	lj := file
	return func() error {
		if lj == nil {
			return nil
		}
		return lj.Close()
	}, nil
}

func writer() io.Writer {
	outMu.RLock()
	defer outMu.RUnlock()
	return output
}
