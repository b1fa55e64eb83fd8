package block

import "fmt"

// Block wraps interleaved multichannel samples with reuse-friendly
// semantics. Frame i of channel c lives at samples[i*channels+c].
type Block struct {
	samples  []float64
	channels int
}

// New returns a zero-filled Block with the given channel count and frame
// count. Channel counts below 1 are treated as 1, negative frame counts
// as 0.
func New(channels, frames int) *Block {
	if channels < 1 {
		channels = 1
	}
	if frames < 0 {
		frames = 0
	}
	return &Block{
		samples:  make([]float64, channels*frames),
		channels: channels,
	}
}

// FromInterleaved wraps an existing interleaved slice without copying.
// Mutations to the slice are visible through the Block and vice versa.
// The slice length must be a whole number of frames.
func FromInterleaved(samples []float64, channels int) (*Block, error) {
	if channels < 1 {
		return nil, fmt.Errorf("block channel count must be >= 1: %d", channels)
	}
	if len(samples)%channels != 0 {
		return nil, fmt.Errorf("block sample count %d is not divisible by %d channels",
			len(samples), channels)
	}
	return &Block{samples: samples, channels: channels}, nil
}

// Samples returns the underlying interleaved slice.
func (b *Block) Samples() []float64 {
	return b.samples
}

// Channels returns the channel count.
func (b *Block) Channels() int {
	return b.channels
}

// Frames returns the number of frames (samples per channel).
func (b *Block) Frames() int {
	return len(b.samples) / b.channels
}

// Frame returns the interleaved samples of frame i as a view into the
// block. Mutating the returned slice mutates the block.
func (b *Block) Frame(i int) []float64 {
	return b.samples[i*b.channels : (i+1)*b.channels]
}

// Clone returns a deep copy of the block.
func (b *Block) Clone() *Block {
	s := make([]float64, len(b.samples))
	copy(s, b.samples)
	return &Block{samples: s, channels: b.channels}
}

// Resize sets the frame count to n, reusing existing capacity when
// possible. Frames beyond the previous length are zeroed.
func (b *Block) Resize(n int) {
	if n < 0 {
		n = 0
	}
	want := n * b.channels
	oldLen := len(b.samples)
	if want <= cap(b.samples) {
		b.samples = b.samples[:want]
	} else {
		s := make([]float64, want)
		copy(s, b.samples)
		b.samples = s
	}
	// Zero any newly exposed elements that may have stale data from
	// previous use of the backing array.
	if want > oldLen {
		for i := oldLen; i < want; i++ {
			b.samples[i] = 0
		}
	}
}

// Zero sets all samples to 0.
func (b *Block) Zero() {
	for i := range b.samples {
		b.samples[i] = 0
	}
}
