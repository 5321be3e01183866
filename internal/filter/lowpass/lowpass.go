// Package lowpass implements the one-pole low-pass filter that audioeq
// exposes as a node with its own ports.
package lowpass

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"

	"github.com/david-sim0niants/audio-eq/internal/log"
)

// Audible cutoff range accepted by SetCutoff.
const (
	MinCutoff = 16.0
	MaxCutoff = 20000.0
)

// MaxChannels is the largest supported channel count.
const MaxChannels = 2

var (
	ErrInvalidCutoff     = errors.New("invalid cutoff frequency")
	ErrInvalidSampleRate = errors.New("non-positive sample rate")
)

// Alpha returns the smoothing factor dt/(dt+rc) for a cutoff fc in Hz, where
// dt is the sample period and rc = 1/(2*pi*fc).
func Alpha(cutoff float32, sampleRate int) (float32, error) {
	if sampleRate <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidSampleRate, sampleRate)
	}
	if cutoff <= 0 || math.IsNaN(float64(cutoff)) {
		return 0, fmt.Errorf("%w: non-positive %g", ErrInvalidCutoff, cutoff)
	}
	dt := 1.0 / float64(sampleRate)
	rc := 1.0 / (2 * math.Pi * float64(cutoff))
	return float32(dt / (dt + rc)), nil
}

// ValidateCutoff checks that hz lies in the audible range.
func ValidateCutoff(hz float32) error {
	switch {
	case math.IsNaN(float64(hz)):
		return fmt.Errorf("%w: not a number", ErrInvalidCutoff)
	case hz < MinCutoff:
		return fmt.Errorf("%w: %g Hz is too low (min %g)", ErrInvalidCutoff, hz, MinCutoff)
	case hz > MaxCutoff:
		return fmt.Errorf("%w: %g Hz is too high (max %g)", ErrInvalidCutoff, hz, MaxCutoff)
	}
	return nil
}

// Filter is a per-channel one-pole low-pass: y[n] = a*x[n] + (1-a)*y[n-1].
//
// SetCutoff may be called from any goroutine while Process runs; Process
// itself must not be called concurrently with another Process or Reset.
type Filter struct {
	sampleRate int
	channels   int

	alpha  atomic.Uint32 // float32 bits
	cutoff atomic.Uint32 // float32 bits

	mu    sync.Mutex
	state []float32 // y[n-1] per channel
}

// New creates a filter. channels is clamped to 0..MaxChannels.
func New(cutoff float32, sampleRate, channels int) (*Filter, error) {
	alpha, err := Alpha(cutoff, sampleRate)
	if err != nil {
		return nil, err
	}
	channels = min(max(channels, 0), MaxChannels)

	f := &Filter{
		sampleRate: sampleRate,
		channels:   channels,
		state:      make([]float32, channels),
	}
	f.alpha.Store(math.Float32bits(alpha))
	f.cutoff.Store(math.Float32bits(cutoff))
	return f, nil
}

// SetCutoff changes the cutoff frequency. Values outside MinCutoff..MaxCutoff
// are rejected and leave the filter unchanged.
func (f *Filter) SetCutoff(hz float32) error {
	if err := ValidateCutoff(hz); err != nil {
		return err
	}
	alpha, err := Alpha(hz, f.sampleRate)
	if err != nil {
		return err
	}
	f.alpha.Store(math.Float32bits(alpha))
	f.cutoff.Store(math.Float32bits(hz))
	log.Info(log.CatFilter, "cutoff changed", "hz", hz, "alpha", alpha)
	return nil
}

// Cutoff returns the current cutoff frequency in Hz.
func (f *Filter) Cutoff() float32 {
	return math.Float32frombits(f.cutoff.Load())
}

// Alpha returns the current smoothing factor.
func (f *Filter) Alpha() float32 {
	return math.Float32frombits(f.alpha.Load())
}

// Channels returns the clamped channel count.
func (f *Filter) Channels() int {
	return f.channels
}

// SampleRate returns the sample rate in Hz.
func (f *Filter) SampleRate() int {
	return f.sampleRate
}

// Process filters one block per channel from in to out. A channel with a
// missing buffer on either side is skipped and keeps its state. When buffer
// lengths differ, only the common prefix is processed.
func (f *Filter) Process(in, out [][]float32) {
	alpha := f.Alpha()

	f.mu.Lock()
	defer f.mu.Unlock()

	for ch := 0; ch < f.channels; ch++ {
		if ch >= len(in) || ch >= len(out) || in[ch] == nil || out[ch] == nil {
			continue
		}
		src, dst := in[ch], out[ch]
		n := min(len(src), len(dst))

		y := f.state[ch]
		for i := 0; i < n; i++ {
			y = alpha*src[i] + (1-alpha)*y
			dst[i] = y
		}
		f.state[ch] = y
	}
}

// Reset clears the per-channel history.
func (f *Filter) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	clear(f.state)
}

// PortNames returns the names of the filter's input and output ports.
func (f *Filter) PortNames() (inputs, outputs []string) {
	switch f.channels {
	case 1:
		return []string{"lp-in"}, []string{"lp-out"}
	case 2:
		return []string{"lp-in_L", "lp-in_R"}, []string{"lp-out_L", "lp-out_R"}
	default:
		return nil, nil
	}
}
