// Package decode turns a DHT22 capture into a humidity and temperature reading.
//
// Only falling edges are used. Each data bit starts with a falling edge, so the
// time between consecutive falling edges is the bit's low period plus its high
// period: about 78µs for a 0 and 120µs for a 1. The sensor ends a frame with one
// more falling edge, so the last 41 falling edges of a capture span the 40 bits.
package decode

import (
	"errors"
	"fmt"
	"time"

	"github.com/sweeney/dht-sensor/internal/capture"
)

const (
	frameBits  = 40
	frameEdges = frameBits + 1

	minPulse     = 40 * time.Microsecond
	maxPulse     = 200 * time.Microsecond
	oneThreshold = 100 * time.Microsecond
)

var (
	ErrTooFewEdges = errors.New("decode: too few edges")
	ErrPulseWidth  = errors.New("decode: pulse width out of range")
	ErrChecksum    = errors.New("decode: checksum mismatch")
)

// Reading is a decoded sensor frame.
type Reading struct {
	Humidity    float64 // relative humidity, percent
	Temperature float64 // degrees Celsius
}

// Decode extracts a reading from the falling edges of a capture.
func Decode(edges []capture.Edge) (Reading, error) {
	falling := make([]uint64, 0, len(edges))
	for _, e := range edges {
		if e.Kind == capture.Falling {
			falling = append(falling, e.Timestamp)
		}
	}
	if len(falling) < frameEdges {
		return Reading{}, fmt.Errorf("%w: got %d, need %d", ErrTooFewEdges, len(falling), frameEdges)
	}

	data, err := bits(falling[len(falling)-frameEdges:])
	if err != nil {
		return Reading{}, err
	}
	if sum := data[0] + data[1] + data[2] + data[3]; sum != data[4] {
		return Reading{}, fmt.Errorf("%w: sum %#02x, frame %#02x", ErrChecksum, sum, data[4])
	}
	return fromFrame(data), nil
}

func bits(ts []uint64) ([5]byte, error) {
	var data [5]byte
	for i := 0; i < frameBits; i++ {
		if ts[i+1] < ts[i] {
			return data, fmt.Errorf("%w: bit %d goes back in time", ErrPulseWidth, i)
		}
		w := time.Duration(ts[i+1] - ts[i])
		if w < minPulse || w > maxPulse {
			return data, fmt.Errorf("%w: bit %d is %v", ErrPulseWidth, i, w)
		}
		data[i/8] <<= 1
		if w > oneThreshold {
			data[i/8] |= 1
		}
	}
	return data, nil
}

func fromFrame(data [5]byte) Reading {
	rh := uint16(data[0])<<8 | uint16(data[1])
	raw := uint16(data[2])<<8 | uint16(data[3])
	temp := float64(raw&0x7fff) / 10
	if raw&0x8000 != 0 {
		temp = -temp
	}
	return Reading{Humidity: float64(rh) / 10, Temperature: temp}
}

func (r Reading) String() string {
	return fmt.Sprintf("humidity=%.1f%% temperature=%.1fC", r.Humidity, r.Temperature)
}
