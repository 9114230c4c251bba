package core

import (
	"fmt"
	"strings"
)

// Mode selects how keywords combine when deciding whether an item matches.
type Mode string

const (
	// ModeEagle requires every keyword to match at least one field.
	ModeEagle Mode = "eagle"
	// ModeFuzzy accepts an item once any keyword matches any field.
	ModeFuzzy Mode = "fuzzy"
	// ModeGreedy requires every keyword to match, and the matched fields
	// across all keywords to be at least as many as the keywords.
	ModeGreedy Mode = "greedy"
)

// DefaultMode is used when no mode is given.
const DefaultMode = ModeGreedy

// Modes lists the supported modes.
var Modes = []Mode{ModeEagle, ModeFuzzy, ModeGreedy}

// OrDefault returns m, or DefaultMode when m is empty.
func (m Mode) OrDefault() Mode {
	if m == "" {
		return DefaultMode
	}
	return m
}

// Valid reports whether m is a known mode. The empty mode is valid.
func (m Mode) Valid() bool {
	switch m {
	case "", ModeEagle, ModeFuzzy, ModeGreedy:
		return true
	}
	return false
}

// ParseMode converts a mode name into a Mode.
// An empty name yields DefaultMode.
func ParseMode(name string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(name)))
	if !m.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMode, name)
	}
	return m.OrDefault(), nil
}
