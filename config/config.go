// Package config holds host configuration for a LedgerFS catalog: storage
// paths, upload limits, retention defaults and remote content endpoints.
// The file format is one key=value pair per line; blank lines and lines
// starting with '#' are ignored, unknown keys are skipped.
package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Config is the host configuration for one catalog instance.
type Config struct {
	// DataDir is the root directory for blob storage, the snapshot
	// database and the config file itself.
	DataDir string

	// MaxFileSize caps upload payload size in bytes.
	MaxFileSize int64

	// AllowedMimeTypes restricts uploads to the listed MIME types.
	// Empty allows everything.
	AllowedMimeTypes []string

	// DefaultRetentionDays applies to uploads that name no retention.
	DefaultRetentionDays int

	// RecordCapacity is the single-record payload threshold in bytes.
	RecordCapacity int

	// Endpoints lists remote content base URLs for read-side fallback.
	Endpoints []string

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

// DefaultConfig returns the configuration used when no config file exists.
func DefaultConfig() Config {
	dataDir := ".ledgerfs"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".ledgerfs")
	}
	return Config{
		DataDir:              dataDir,
		MaxFileSize:          100 * 1024 * 1024,
		DefaultRetentionDays: 30,
		RecordCapacity:       96 * 1024,
		LogLevel:             "info",
	}
}

// ConfigPath returns the config file path under a data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, "ledgerfs.conf")
}

// LoadConfig reads a config file, applying file values over the defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return cfg, fmt.Errorf("config: open: %w", err)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, found := strings.Cut(line, "=")
		if !found {
			return cfg, fmt.Errorf("%w: line %d: %q", ErrInvalidConfigLine, lineNo, line)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		switch key {
		case "datadir":
			cfg.DataDir = value
		case "maxfilesize":
			n, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return cfg, fmt.Errorf("%w: line %d: maxfilesize: %q", ErrInvalidConfigLine, lineNo, value)
			}
			cfg.MaxFileSize = n
		case "allowedmimetypes":
			cfg.AllowedMimeTypes = splitList(value)
		case "retentiondays":
			n, err := strconv.Atoi(value)
			if err != nil {
				return cfg, fmt.Errorf("%w: line %d: retentiondays: %q", ErrInvalidConfigLine, lineNo, value)
			}
			cfg.DefaultRetentionDays = n
		case "recordcapacity":
			n, err := strconv.Atoi(value)
			if err != nil {
				return cfg, fmt.Errorf("%w: line %d: recordcapacity: %q", ErrInvalidConfigLine, lineNo, value)
			}
			cfg.RecordCapacity = n
		case "endpoints":
			cfg.Endpoints = splitList(value)
		case "loglevel":
			cfg.LogLevel = value
		default:
			// Unknown keys are ignored for forward compatibility.
		}
	}
	if err := scanner.Err(); err != nil {
		return cfg, fmt.Errorf("config: read: %w", err)
	}

	return cfg, nil
}

// SaveConfig writes the configuration to path, creating parent
// directories as needed.
func SaveConfig(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("config: create directory: %w", err)
	}

	var b strings.Builder
	b.WriteString("# LedgerFS configuration\n")
	fmt.Fprintf(&b, "datadir=%s\n", cfg.DataDir)
	fmt.Fprintf(&b, "maxfilesize=%d\n", cfg.MaxFileSize)
	if len(cfg.AllowedMimeTypes) > 0 {
		fmt.Fprintf(&b, "allowedmimetypes=%s\n", strings.Join(cfg.AllowedMimeTypes, ","))
	}
	fmt.Fprintf(&b, "retentiondays=%d\n", cfg.DefaultRetentionDays)
	fmt.Fprintf(&b, "recordcapacity=%d\n", cfg.RecordCapacity)
	if len(cfg.Endpoints) > 0 {
		fmt.Fprintf(&b, "endpoints=%s\n", strings.Join(cfg.Endpoints, ","))
	}
	fmt.Fprintf(&b, "loglevel=%s\n", cfg.LogLevel)

	if err := os.WriteFile(path, []byte(b.String()), 0600); err != nil {
		return fmt.Errorf("config: write: %w", err)
	}
	return nil
}

func splitList(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
