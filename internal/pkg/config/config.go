// Package config reads application settings. Values are looked up on every
// call, so a reloaded file takes effect without restarting.
package config

import (
	"io"
	"time"
)

// TimeConfig reads integer settings as durations in the unit named by the method.
type TimeConfig interface {
	GetMillisecond(key string) time.Duration
	GetSecond(key string) time.Duration
	GetMinute(key string) time.Duration
}

// Config retrieves typed configuration values. Missing keys yield the
// registered default or the zero value.
type Config interface {
	io.Closer
	TimeConfig

	// IsSet reports whether key has a value, including a default.
	IsSet(key string) bool

	GetBool(key string) bool
	GetString(key string) string
	GetInt(key string) int
	GetInt32(key string) int32
	GetInt64(key string) int64
	GetUint64(key string) uint64
	GetFloat64(key string) float64

	// GetArray reads a list or splits a "<a>,<b>,..." value, dropping
	// blank elements.
	GetArray(key string) []string
}
