// Package dynamics implements dynamic-range processing.
//
// SidechainCompressor continuously attenuates a primary signal based on the
// smoothed envelope of a detector signal. The detector may be the primary
// signal itself (classic compressor) or an independent sidechain signal
// (ducking, de-essing with an external filter, and similar setups). The
// static transfer curve works in the natural-log domain with a cubic
// Hermite soft knee, so gain changes stay free of audible kinks across the
// knee boundaries.
package dynamics
