package radar

import (
	"encoding/binary"
	"fmt"
	"time"
)

// TargetStatus classifies what the radar currently sees.
type TargetStatus byte

// Target statuses reported in telemetry frames.
const (
	NoTarget     TargetStatus = 0
	MovingTarget TargetStatus = 1
	StaticTarget TargetStatus = 2
	BothTargets  TargetStatus = 3
	ErrorFrame   TargetStatus = 4
)

// String implements fmt.Stringer.
func (s TargetStatus) String() string {
	switch s {
	case NoTarget:
		return "none"
	case MovingTarget:
		return "moving"
	case StaticTarget:
		return "static"
	case BothTargets:
		return "both"
	case ErrorFrame:
		return "error"
	}
	return fmt.Sprintf("unknown(%d)", byte(s))
}

// Mode is the telemetry format the radar is streaming in.
type Mode byte

// Telemetry modes.
const (
	ModeNormal      Mode = 0
	ModeEngineering Mode = 1
)

// String implements fmt.Stringer.
func (m Mode) String() string {
	if m == ModeEngineering {
		return "engineering"
	}
	return "normal"
}

// EngineeringData is the extended per-gate detail present only in
// engineering-mode frames.
type EngineeringData struct {
	MovingGatePower  [9]byte `json:"moving_gate_power"`
	StaticGatePower  [9]byte `json:"static_gate_power"`
	PhotoSensitivity byte    `json:"photo_sensitivity"`
}

// Reading is one decoded telemetry snapshot. It is immutable once
// constructed; ownership moves from the ingest loop through the queue
// to the consumer.
type Reading struct {
	Target           TargetStatus     `json:"target"`
	MovingDistanceMM uint16           `json:"moving_distance_mm"`
	MovingPower      byte             `json:"moving_power"`
	StaticDistanceMM uint16           `json:"static_distance_mm"`
	StaticPower      byte             `json:"static_power"`
	Mode             Mode             `json:"mode"`
	Time             time.Time        `json:"time"`
	Engineering      *EngineeringData `json:"engineering,omitempty"`
}

const (
	// readingMarker is the fixed byte following the mode byte in every
	// well-formed telemetry frame.
	readingMarker = 0xaa

	// minReadingFrame is the on-wire size of a normal-mode frame.
	minReadingFrame = 23
	// engReadingFrame is the minimum size covering the engineering block.
	engReadingFrame = 38
)

// MarkerError indicates a structurally framed but semantically invalid
// telemetry payload.
type MarkerError struct {
	Got byte
}

// Error implements error.
func (e *MarkerError) Error() string {
	return fmt.Sprintf("bad telemetry marker 0x%02x", e.Got)
}

// ShortFrameError indicates a telemetry frame too short to decode.
type ShortFrameError struct {
	Len int
}

// Error implements error.
func (e *ShortFrameError) Error() string {
	return fmt.Sprintf("telemetry frame too short: %d bytes", e.Len)
}

// DecodeReading decodes a synchronized telemetry frame into a Reading
// stamped with the capture time. Engineering detail is populated only
// for engineering-mode frames long enough to contain it, never
// synthesized.
func DecodeReading(frame []byte, captured time.Time) (*Reading, error) {
	if len(frame) < minReadingFrame {
		return nil, &ShortFrameError{Len: len(frame)}
	}
	if frame[7] != readingMarker {
		return nil, &MarkerError{Got: frame[7]}
	}
	r := &Reading{
		Mode:             Mode(frame[6]),
		Target:           TargetStatus(frame[8]),
		MovingDistanceMM: binary.LittleEndian.Uint16(frame[9:11]),
		MovingPower:      frame[11],
		StaticDistanceMM: binary.LittleEndian.Uint16(frame[12:14]),
		StaticPower:      frame[14],
		Time:             captured,
	}
	if r.Mode == ModeEngineering && len(frame) >= engReadingFrame {
		eng := &EngineeringData{PhotoSensitivity: frame[37]}
		copy(eng.MovingGatePower[:], frame[19:28])
		copy(eng.StaticGatePower[:], frame[28:37])
		r.Engineering = eng
	}
	return r, nil
}
