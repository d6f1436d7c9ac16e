package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	BasePath          string        `mapstructure:"base_path" yaml:"base_path"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	RoomBuffer        int           `mapstructure:"room_buffer" yaml:"room_buffer"`
	MaxMessageChars   int           `mapstructure:"max_message_chars" yaml:"max_message_chars"`
	MaxFrameBytes     int64         `mapstructure:"max_frame_bytes" yaml:"max_frame_bytes"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:              ":8000",
		BasePath:          "/19",
		LogLevel:          "info",
		ReadHeaderTimeout: 5 * time.Second,
		ShutdownTimeout:   5 * time.Second,
		RoomBuffer:        100,
		MaxMessageChars:   128,
		MaxFrameBytes:     32 << 10,
	}
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.BasePath != "" {
		c.BasePath = other.BasePath
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.RoomBuffer != 0 {
		c.RoomBuffer = other.RoomBuffer
	}
	if other.MaxMessageChars != 0 {
		c.MaxMessageChars = other.MaxMessageChars
	}
	if other.MaxFrameBytes != 0 {
		c.MaxFrameBytes = other.MaxFrameBytes
	}
}

// Validate reports settings the server cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Addr == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if err := validateBasePath(c.BasePath); err != nil {
		errs = append(errs, err)
	}
	if c.RoomBuffer < 1 {
		errs = append(errs, errors.New("room_buffer must be positive"))
	}
	if c.MaxMessageChars < 1 {
		errs = append(errs, errors.New("max_message_chars must be positive"))
	}
	if c.MaxFrameBytes < 1 {
		errs = append(errs, errors.New("max_frame_bytes must be positive"))
	}
	return errors.Join(errs...)
}

// validateBasePath accepts "" or a path like "/19": a leading slash, no trailing
// slash, and nothing the ServeMux would read as a wildcard.
func validateBasePath(p string) error {
	if p == "" {
		return nil
	}
	if !strings.HasPrefix(p, "/") || strings.HasSuffix(p, "/") {
		return fmt.Errorf("base_path %q must start with / and must not end with /", p)
	}
	if strings.ContainsAny(p, "{} \t") {
		return fmt.Errorf("base_path %q contains a wildcard or whitespace", p)
	}
	return nil
}
