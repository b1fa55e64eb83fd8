// Package block provides an interleaved multichannel sample container for
// DSP processing. Processing code accepts raw []float64 slices where the
// channel layout does not matter; Block carries the channel count alongside
// the interleaved data so that per-frame operations and planar conversion
// stay explicit and allocation-friendly.
package block
