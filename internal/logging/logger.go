// Package logging provides config-driven categorized logging for docent.
// Each subsystem gets a named child of one root zap logger; categories can be
// switched off individually and the level can be changed while running.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"docent/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot       Category = "boot"       // Boot/initialization
	CategoryBus        Category = "bus"        // Domain event delivery
	CategoryNavigation Category = "navigation" // Stack transitions, coordinator calls
	CategorySession    Category = "session"    // Credential checks, forced logout
	CategoryNarration  Category = "narration"  // Script loading, playback tracking
	CategoryStore      Category = "store"      // SQLite repository
	CategoryConfig     Category = "config"     // Config loading and hot reload
	CategoryUI         Category = "ui"         // Terminal UI loop
)

// Logger owns the root zap logger and hands out per-category children.
type Logger struct {
	root  *zap.Logger
	level zap.AtomicLevel
	file  *os.File

	mu         sync.RWMutex
	categories map[string]bool
	children   map[Category]*zap.Logger
}

// New builds a Logger from the logging section of the config.
// An empty File writes to stderr.
func New(cfg config.LoggingConfig) (*Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	level := zap.NewAtomicLevelAt(lvl)

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	var enc zapcore.Encoder
	if cfg.Format == "json" {
		enc = zapcore.NewJSONEncoder(encCfg)
	} else {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	}

	var (
		sink zapcore.WriteSyncer
		file *os.File
	)
	if cfg.File == "" {
		sink = zapcore.Lock(os.Stderr)
	} else {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0700); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err = os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		sink = zapcore.AddSync(file)
	}

	return &Logger{
		root:       zap.New(zapcore.NewCore(enc, sink, level)),
		level:      level,
		file:       file,
		categories: cfg.Categories,
		children:   make(map[Category]*zap.Logger),
	}, nil
}

// Wrap adopts an existing zap logger (tests pass zaptest/observer loggers here).
func Wrap(root *zap.Logger) *Logger {
	if root == nil {
		root = zap.NewNop()
	}
	return &Logger{
		root:     root,
		level:    zap.NewAtomicLevel(),
		children: make(map[Category]*zap.Logger),
	}
}

// ParseLevel maps a config level name onto a zap level.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "", "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// Get returns (or creates) the logger for a category.
// Disabled categories get a no-op logger.
func (l *Logger) Get(category Category) *zap.Logger {
	l.mu.RLock()
	if child, ok := l.children[category]; ok {
		l.mu.RUnlock()
		return child
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock
	if child, ok := l.children[category]; ok {
		return child
	}

	child := zap.NewNop()
	if l.isEnabledLocked(category) {
		child = l.root.Named(string(category))
	}
	l.children[category] = child
	return child
}

func (l *Logger) isEnabledLocked(category Category) bool {
	if l.categories == nil {
		return true
	}
	enabled, exists := l.categories[string(category)]
	return !exists || enabled
}

// Root returns the uncategorized logger.
func (l *Logger) Root() *zap.Logger {
	return l.root
}

// SetLevel changes the level of every category at runtime.
func (l *Logger) SetLevel(level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.level.SetLevel(lvl)
	return nil
}

// Level returns the current level.
func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

// Close flushes buffered entries and closes the log file if one was opened.
func (l *Logger) Close() error {
	_ = l.root.Sync()
	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
