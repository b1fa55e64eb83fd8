package block

import "fmt"

// Deinterleave copies the block into per-channel slices. dst is reused when
// it has the right shape; otherwise fresh slices are allocated. The planar
// slices are returned.
func (b *Block) Deinterleave(dst [][]float64) [][]float64 {
	frames := b.Frames()
	if len(dst) != b.channels {
		dst = make([][]float64, b.channels)
	}
	for c := range dst {
		if len(dst[c]) != frames {
			dst[c] = make([]float64, frames)
		}
	}
	for i := 0; i < frames; i++ {
		base := i * b.channels
		for c := 0; c < b.channels; c++ {
			dst[c][i] = b.samples[base+c]
		}
	}
	return dst
}

// Interleave builds a Block from planar channel data. All channels must
// have equal length.
func Interleave(src [][]float64) (*Block, error) {
	if len(src) == 0 {
		return nil, fmt.Errorf("block interleave needs at least one channel")
	}
	frames := len(src[0])
	for c, ch := range src {
		if len(ch) != frames {
			return nil, fmt.Errorf("block interleave channel %d has %d frames, want %d",
				c, len(ch), frames)
		}
	}

	b := New(len(src), frames)
	for i := 0; i < frames; i++ {
		base := i * b.channels
		for c := range src {
			b.samples[base+c] = src[c][i]
		}
	}
	return b, nil
}

// CopyInterleaved copies planar channel data back into the block.
// The planar shape must match the block's channel and frame counts.
func (b *Block) CopyInterleaved(src [][]float64) error {
	if len(src) != b.channels {
		return fmt.Errorf("block copy has %d channels, want %d", len(src), b.channels)
	}
	frames := b.Frames()
	for c, ch := range src {
		if len(ch) != frames {
			return fmt.Errorf("block copy channel %d has %d frames, want %d",
				c, len(ch), frames)
		}
	}
	for i := 0; i < frames; i++ {
		base := i * b.channels
		for c := range src {
			b.samples[base+c] = src[c][i]
		}
	}
	return nil
}
