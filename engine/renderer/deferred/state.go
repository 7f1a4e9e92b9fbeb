package deferred

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotReady is returned by Record and Resize when the pipeline is not in StateReady.
var ErrNotReady = errors.New("deferred: pipeline not ready")

// ErrInvalidSize is returned when a resize asks for an empty output.
var ErrInvalidSize = errors.New("deferred: output size must be positive")

// State is the lifecycle state of a Pipeline.
type State int

const (
	// StateUninitialized means resolution-bound resources do not exist.
	StateUninitialized State = iota
	// StateReady means a frame can be recorded.
	StateReady
	// StateRecording means a frame is being recorded.
	StateRecording
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateReady:
		return "ready"
	case StateRecording:
		return "recording"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// LightingMode selects the lighting stage.
type LightingMode int

const (
	// LightingIndirect runs SSGI: direct light plus one screen-space bounce.
	LightingIndirect LightingMode = iota
	// LightingDirect runs shadow-mapped direct light only.
	LightingDirect
)

func (m LightingMode) String() string {
	if m == LightingDirect {
		return "direct"
	}
	return "ssgi"
}

// ParseLightingMode accepts "ssgi" (or "indirect") and "direct".
func ParseLightingMode(name string) (LightingMode, error) {
	switch strings.ToLower(name) {
	case "ssgi", "indirect", "":
		return LightingIndirect, nil
	case "direct":
		return LightingDirect, nil
	}
	return LightingIndirect, fmt.Errorf("unknown lighting mode %q, want ssgi or direct", name)
}

// Toggle returns the other lighting mode.
func (m LightingMode) Toggle() LightingMode {
	if m == LightingDirect {
		return LightingIndirect
	}
	return LightingDirect
}
