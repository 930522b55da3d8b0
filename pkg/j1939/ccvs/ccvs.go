package ccvs

import (
	"encoding/binary"
	"errors"
)

// Wheel-based vehicle speed from the J1939 Cruise Control/Vehicle Speed message (PGN 65265).
// The signal is a 16-bit little endian word in protocol bytes 2 and 3 (1-indexed), where one bit
// represents 1/256 km/h. The operating range is 0 to 250.996 km/h.

const (
	PGN = 65265

	SpeedOffset = 1 // zero-indexed start of the speed word
	SpeedWidth  = 2
	MinLength   = SpeedOffset + SpeedWidth

	Resolution     = 1.0 / 256 // km/h per bit
	MaxKPH         = 250.996
	KPHToMPHFactor = 0.6213712

	// NotAvailable is the all-bits-set pattern (0xFFFF) read as a signed word.
	NotAvailable int16 = -1
)

// MaxMPH is the largest speed Decode can ever return.
const MaxMPH = MaxKPH * KPHToMPHFactor

var (
	ErrTooShort     = errors.New("message too short")
	ErrNotAvailable = errors.New("speed not available")
	ErrNegative     = errors.New("negative speed")
	ErrOutOfRange   = errors.New("speed out of range")
)

// Decode returns the vehicle speed in mph. ok is false whenever the message does not carry a
// valid speed, regardless of the reason.
func Decode(msg []byte) (mph float64, ok bool) {
	mph, err := Parse(msg)
	if err != nil {
		return 0, false
	}
	return mph, true
}

// DecodeValue is Decode for loosely typed inputs. Anything that is not a byte payload yields no value.
func DecodeValue(v any) (float64, bool) {
	switch msg := v.(type) {
	case []byte:
		return Decode(msg)
	case [8]byte:
		return Decode(msg[:])
	case string:
		return Decode([]byte(msg))
	default:
		return 0, false
	}
}

// Parse works like Decode but reports why a message was rejected.
func Parse(msg []byte) (float64, error) {
	raw, err := RawSpeed(msg)
	if err != nil {
		return 0, err
	}
	switch {
	case raw == NotAvailable:
		return 0, ErrNotAvailable
	case raw < 0:
		return 0, ErrNegative
	}

	kph := float64(raw) * Resolution
	if !InRange(kph) {
		return 0, ErrOutOfRange
	}
	return KPHToMPH(kph), nil
}

// RawSpeed extracts the signed speed word without any validation of its value.
func RawSpeed(msg []byte) (int16, error) {
	if len(msg) < MinLength {
		return 0, ErrTooShort
	}
	return int16(binary.LittleEndian.Uint16(msg[SpeedOffset:MinLength])), nil
}

// InRange reports whether kph lies within the operating range.
// A signed word tops out at 127.996 km/h, so the upper bound only guards against changes to the scaling.
func InRange(kph float64) bool {
	return kph >= 0 && kph <= MaxKPH
}

// KPHToMPH converts km/h to mph.
func KPHToMPH(kph float64) float64 {
	return kph * KPHToMPHFactor
}
