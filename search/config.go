// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package search

import (
	"fmt"
	"runtime"

	"github.com/poiesic/sift/core"
)

// Config holds tuning for a Searcher.
type Config struct {
	// DefaultMode applies to searches whose Options.Mode is empty.
	// Default: greedy
	DefaultMode core.Mode

	// PoolSize is the number of workers evaluating items concurrently.
	// Zero disables the worker pool and evaluates items on the caller's goroutine.
	// Default: runtime.NumCPU()
	PoolSize int

	// ParallelThreshold is the smallest collection evaluated on the pool.
	// Smaller collections are evaluated sequentially.
	// Default: 512
	ParallelThreshold int
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithDefaultMode sets the mode used when a search does not name one.
func WithDefaultMode(mode core.Mode) ConfigOption {
	return func(c *Config) {
		c.DefaultMode = mode
	}
}

// WithPoolSize sets the worker pool size. Zero disables the pool.
func WithPoolSize(size int) ConfigOption {
	return func(c *Config) {
		c.PoolSize = size
	}
}

// WithParallelThreshold sets the smallest collection evaluated concurrently.
func WithParallelThreshold(n int) ConfigOption {
	return func(c *Config) {
		c.ParallelThreshold = n
	}
}

// DefaultConfig returns a Config with one worker per CPU.
func DefaultConfig() *Config {
	return &Config{
		DefaultMode:       core.DefaultMode,
		PoolSize:          runtime.NumCPU(),
		ParallelThreshold: 512,
	}
}

// NewConfig creates a Config with the default values and applies the provided options.
//
// Example:
//   cfg := NewConfig(
//       WithDefaultMode(core.ModeFuzzy),
//       WithPoolSize(4),
//   )
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if !c.DefaultMode.Valid() {
		return fmt.Errorf("%w: %w: %q", ErrInvalidConfig, core.ErrInvalidMode, c.DefaultMode)
	}
	if c.PoolSize < 0 {
		return fmt.Errorf("%w: PoolSize must not be negative", ErrInvalidConfig)
	}
	if c.ParallelThreshold < 1 {
		return fmt.Errorf("%w: ParallelThreshold must be at least 1", ErrInvalidConfig)
	}
	return nil
}
