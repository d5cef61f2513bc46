package workload

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvalidConfig is wrapped by every Config.Validate failure.
var ErrInvalidConfig = errors.New("workload: invalid config")

// Key modes.
const (
	// KeysUint64 churns random non-negative 63-bit keys and values.
	KeysUint64 = "uint64"
	// KeysReadState churns readstate.ReadState values under their
	// "<user>:<channel>" keys in a synchronized cache.
	KeysReadState = "readstate"
)

const (
	DefaultCapacity  = 20_000_000
	DefaultBurstSize = 20_000
	DefaultInterval  = 100 * time.Millisecond
)

// Config shapes the load. None of it affects the cache's contract.
type Config struct {
	// Capacity is the maximum number of resident entries.
	Capacity int
	// BurstSize is the number of puts issued back to back.
	BurstSize int
	// Interval is the idle time between bursts.
	Interval time.Duration
	// Workers splits each burst across this many goroutines sharing a
	// synchronized cache. One worker owns an unsynchronized cache.
	Workers int
	// Seed fixes the key/value sequence. Zero seeds from crypto/rand.
	Seed int64
	// MaxBursts stops Run after that many bursts. Zero runs until the
	// context is cancelled.
	MaxBursts int
	// Keys selects the key/value shape: KeysUint64 or KeysReadState.
	Keys string
}

// DefaultConfig returns the stock load shape.
func DefaultConfig() Config {
	return Config{
		Capacity:  DefaultCapacity,
		BurstSize: DefaultBurstSize,
		Interval:  DefaultInterval,
		Workers:   1,
		Keys:      KeysUint64,
	}
}

// Validate reports the first field that cannot drive a run.
func (c Config) Validate() error {
	switch {
	case c.Capacity <= 0:
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	case c.BurstSize <= 0:
		return fmt.Errorf("%w: burst size must be positive, got %d", ErrInvalidConfig, c.BurstSize)
	case c.Interval < 0:
		return fmt.Errorf("%w: interval must not be negative, got %s", ErrInvalidConfig, c.Interval)
	case c.Workers <= 0:
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidConfig, c.Workers)
	case c.Workers > c.BurstSize:
		return fmt.Errorf("%w: %d workers cannot split a burst of %d", ErrInvalidConfig, c.Workers, c.BurstSize)
	case c.MaxBursts < 0:
		return fmt.Errorf("%w: max bursts must not be negative, got %d", ErrInvalidConfig, c.MaxBursts)
	case c.Keys != KeysUint64 && c.Keys != KeysReadState:
		return fmt.Errorf("%w: unknown key mode %q", ErrInvalidConfig, c.Keys)
	}
	return nil
}
