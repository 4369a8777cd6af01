package hdc

import (
	"context"
	"fmt"
	"log/slog"
)

// Mandatory event ids, present on every feature (spec.md §6.3).
const (
	EvtLog                     uint8 = 0xF0
	EvtFeatureStateTransition  uint8 = 0xF1
)

// LogLevel mirrors Python's logging module numeric levels, as the
// original HDC driver does (spec.md §4.5).
type LogLevel uint8

const (
	LogLevelDebug    LogLevel = 10
	LogLevelInfo     LogLevel = 20
	LogLevelWarning  LogLevel = 30
	LogLevelError    LogLevel = 40
	LogLevelCritical LogLevel = 50
)

// messageEvent is the MessageType tag for Event messages (spec.md §3).
const messageEvent uint8 = 0xF3

// EmitEvent composes an Event message
// [0xF3, FeatureID, EventID, prefix..., suffix...] (spec.md §4.5).
func (d *Device) EmitEvent(f *Feature, eventID uint8, prefix, suffix []byte) {
	d.composer.BeginMessage()
	d.composer.Append([]byte{messageEvent, f.ID, eventID})
	d.composer.Append(prefix)
	d.composer.Append(suffix)
	d.composer.EndMessage()
	if d.metrics != nil {
		d.metrics.EventEmitted(f.ID, eventID)
	}
}

// EmitLog raises a Log event (spec.md §6.3). feature defaults to the Core
// feature when nil. The event is dropped (not placed on the wire) when
// level is below the feature's LogEventThreshold, but is always also
// routed through the Go logger so host-less operation remains observable.
func (d *Device) EmitLog(feature *Feature, level LogLevel, text string) {
	f := feature
	if f == nil {
		f = d.core
	}

	d.logger.Log(context.Background(), slogLevel(level), text, slog.String("feature", f.Name))

	if uint8(level) < f.LogThreshold() {
		return
	}

	payload := append([]byte{uint8(level)}, text...)
	d.EmitEvent(f, EvtLog, payload, nil)
}

func slogLevel(l LogLevel) slog.Level {
	switch {
	case l >= LogLevelCritical:
		return slog.LevelError + 4
	case l >= LogLevelError:
		return slog.LevelError
	case l >= LogLevelWarning:
		return slog.LevelWarn
	case l >= LogLevelInfo:
		return slog.LevelInfo
	default:
		return slog.LevelDebug
	}
}

// FeatureStateTransition atomically updates f's FeatureState and emits a
// FeatureStateTransition event, unless newState equals the current state
// (spec.md §4.5, §8 invariant 5). If f declares any States, newState must
// be one of them or this is a no-op reported as a Go-level fatal error
// (a descriptor-bug, per the Open Question resolved in SPEC_FULL.md §6).
func (d *Device) FeatureStateTransition(f *Feature, newState uint8) {
	if len(f.states) > 0 {
		if _, ok := f.stateByID[newState]; !ok && newState != FeatureStateError {
			d.reportFatal(errUndeclaredState(f, newState))
			return
		}
	}

	f.mu.Lock()
	prev := f.state
	if prev == newState {
		f.mu.Unlock()
		return
	}
	f.state = newState
	f.mu.Unlock()

	if d.metrics != nil {
		d.metrics.StateTransition(f.ID, prev, newState)
	}
	d.EmitEvent(f, EvtFeatureStateTransition, []byte{prev, newState}, nil)
}

func errUndeclaredState(f *Feature, newState uint8) error {
	return fmt.Errorf("hdc: feature %q has no declared state 0x%02X", f.Name, newState)
}
