// Package wavio bridges WAV files and interleaved float64 sample blocks.
// Samples are normalized to [-1, 1) on read and quantized with rounding and
// clipping on write.
package wavio

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-compress/dsp/block"
	"github.com/cwbudde/algo-compress/dsp/core"
)

// File holds decoded WAV content as a normalized float64 block.
type File struct {
	Block      *block.Block
	SampleRate int
	BitDepth   int
}

// ReadFile decodes a PCM WAV file into a normalized interleaved block.
func ReadFile(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("wavio: open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	dec := wav.NewDecoder(f)
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("wavio: %s is not a valid WAV file", path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("wavio: decode %s: %w", path, err)
	}

	bitDepth := int(dec.BitDepth)
	if bitDepth < 8 || bitDepth > 32 {
		return nil, fmt.Errorf("wavio: %s has unsupported bit depth %d", path, bitDepth)
	}

	// 8-bit WAV PCM is unsigned with silence at 128; deeper formats are
	// signed two's complement centred on zero.
	var offset float64
	if bitDepth == 8 {
		offset = 128
	}
	scale := 1 / float64(uint64(1)<<(bitDepth-1))
	samples := make([]float64, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = (float64(v) - offset) * scale
	}

	blk, err := block.FromInterleaved(samples, buf.Format.NumChannels)
	if err != nil {
		return nil, fmt.Errorf("wavio: %s: %w", path, err)
	}

	return &File{
		Block:      blk,
		SampleRate: buf.Format.SampleRate,
		BitDepth:   bitDepth,
	}, nil
}

// WriteFile encodes a normalized interleaved block as a PCM WAV file.
// Samples outside [-1, 1] are clipped.
func WriteFile(path string, blk *block.Block, sampleRate, bitDepth int) error {
	switch bitDepth {
	case 16, 24, 32:
	default:
		return fmt.Errorf("wavio: unsupported bit depth %d (want 16, 24 or 32)", bitDepth)
	}
	if sampleRate <= 0 {
		return fmt.Errorf("wavio: sample rate must be positive: %d", sampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("wavio: create %s: %w", path, err)
	}

	enc := wav.NewEncoder(f, sampleRate, bitDepth, blk.Channels(), 1)

	maxVal := float64(uint64(1) << (bitDepth - 1))
	data := make([]int, len(blk.Samples()))
	for i, v := range blk.Samples() {
		scaled := math.Round(v * maxVal)
		data[i] = int(core.Clamp(scaled, -maxVal, maxVal-1))
	}

	buf := &audio.IntBuffer{
		Data: data,
		Format: &audio.Format{
			NumChannels: blk.Channels(),
			SampleRate:  sampleRate,
		},
		SourceBitDepth: bitDepth,
	}

	if err := enc.Write(buf); err != nil {
		_ = f.Close()
		return fmt.Errorf("wavio: write %s: %w", path, err)
	}
	if err := enc.Close(); err != nil {
		_ = f.Close()
		return fmt.Errorf("wavio: finalize %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("wavio: close %s: %w", path, err)
	}
	return nil
}
