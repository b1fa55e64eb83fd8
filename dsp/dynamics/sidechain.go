package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-compress/dsp/block"
	"github.com/cwbudde/algo-compress/dsp/core"
)

const (
	// Default compressor parameters
	defaultThreshold = 0.125
	defaultRatio     = 2.0
	defaultAttackMs  = 20.0
	defaultReleaseMs = 250.0
	defaultMakeup    = 2.0
	defaultKnee      = 2.82843
	defaultMix       = 1.0

	// Parameter validation ranges
	minThreshold = 0.000976563 // about -60 dB
	maxThreshold = 1.0
	minRatio     = 1.0
	maxRatio     = 20.0
	minAttackMs  = 0.01
	maxAttackMs  = 2000.0
	minReleaseMs = 0.01
	maxReleaseMs = 9000.0
	minMakeup    = 1.0
	maxMakeup    = 64.0
	minKnee      = 1.0
	maxKnee      = 8.0
)

// LinkMode selects how multiple detector channels are combined into one
// scalar magnitude per frame.
type LinkMode int

const (
	// LinkAverage uses the mean absolute value across channels.
	LinkAverage LinkMode = iota
	// LinkMaximum uses the largest absolute value across channels.
	LinkMaximum
)

// String returns the mode name.
func (m LinkMode) String() string {
	switch m {
	case LinkAverage:
		return "average"
	case LinkMaximum:
		return "maximum"
	}
	return fmt.Sprintf("LinkMode(%d)", int(m))
}

// DetectionMode selects how the linked magnitude is shaped before envelope
// smoothing.
type DetectionMode int

const (
	// DetectionPeak tracks the linked magnitude directly.
	DetectionPeak DetectionMode = iota
	// DetectionRMS tracks the squared magnitude. The square root is folded
	// into the gain computation by halving the log slope, so no explicit
	// windowed RMS is ever taken.
	DetectionRMS
)

// String returns the mode name.
func (m DetectionMode) String() string {
	switch m {
	case DetectionPeak:
		return "peak"
	case DetectionRMS:
		return "rms"
	}
	return fmt.Sprintf("DetectionMode(%d)", int(m))
}

// SidechainCompressor implements a soft-knee dynamic-range compressor with
// natural-log-domain gain calculation and an independent detector input.
//
// The envelope follower is an asymmetric one-pole filter: each frame the
// smoothing coefficient is chosen by comparing the new linked magnitude to
// the current envelope, which is what makes attack and release times
// independently tunable. The static transfer curve is identity below the
// knee, a cubic Hermite blend inside the knee and a plain log-domain
// compression line above it, so the curve stays C¹-continuous across both
// knee boundaries.
//
// Primary and detector blocks may carry different channel counts, but must
// carry the same frame count per call. The envelope persists across calls;
// frames must therefore be processed strictly in time order.
//
// This implementation is single-threaded and not thread-safe. Parameter
// changes apply between processing calls, never mid-block, and preserve the
// envelope so a control change does not click.
type SidechainCompressor struct {
	// User-configurable parameters
	threshold float64
	ratio     Ratio
	attackMs  float64
	releaseMs float64
	makeup    float64
	knee      float64
	link      LinkMode
	detection DetectionMode
	mix       float64

	// Sample rate
	sampleRate float64

	// Computed coefficients (cached, recomputed on parameter change)
	thres              float64 // ln(threshold)
	kneeStart          float64 // ln(threshold / sqrt(knee)), lower knee bound
	kneeStop           float64 // ln(threshold * sqrt(knee)), upper knee bound
	linKneeStart       float64 // threshold / sqrt(knee), linear domain
	compressedKneeStop float64 // compressed curve value at kneeStop
	attackCoeff        float64
	releaseCoeff       float64

	// Envelope follower state
	linSlope float64

	// Scratch gain vector for the planar path
	gains []float64
}

// NewSidechainCompressor creates a compressor with musically useful
// defaults.
//
// Sample rate must be positive and finite.
//
// Default parameters:
//   - Threshold: 0.125 (about -18 dB)
//   - Ratio: 2:1
//   - Attack: 20 ms
//   - Release: 250 ms
//   - Makeup: 2x
//   - Knee: 2.82843
//   - Link: average
//   - Detection: rms
//   - Mix: 1 (fully wet)
func NewSidechainCompressor(sampleRate float64) (*SidechainCompressor, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("compressor sample rate must be positive and finite: %f", sampleRate)
	}

	c := &SidechainCompressor{
		threshold:  defaultThreshold,
		ratio:      NewRatio(defaultRatio),
		attackMs:   defaultAttackMs,
		releaseMs:  defaultReleaseMs,
		makeup:     defaultMakeup,
		knee:       defaultKnee,
		link:       LinkAverage,
		detection:  DetectionRMS,
		mix:        defaultMix,
		sampleRate: sampleRate,
	}

	c.updateStaticCurve()
	return c, nil
}

// SetThreshold sets the compression threshold as linear amplitude.
// Range: 0.000976563 (about -60 dB) to 1.0. Detector levels above the
// threshold are compressed.
func (c *SidechainCompressor) SetThreshold(threshold float64) error {
	if threshold < minThreshold || threshold > maxThreshold ||
		math.IsNaN(threshold) {
		return fmt.Errorf("compressor threshold must be in [%f, %f]: %f",
			minThreshold, maxThreshold, threshold)
	}
	c.threshold = threshold
	c.updateStaticCurve()
	return nil
}

// SetRatio sets the compression ratio.
// Finite range: 1.0 to 20.0
//   - 1:1 = no compression
//   - 4:1 = musical compression
//   - inf:1 = hard ceiling at the threshold
func (c *SidechainCompressor) SetRatio(ratio Ratio) error {
	if !ratio.Infinite() {
		v := ratio.Value()
		if v < minRatio || v > maxRatio || math.IsNaN(v) {
			return fmt.Errorf("compressor ratio must be in [%f, %f] or infinite: %f",
				minRatio, maxRatio, v)
		}
	}
	c.ratio = ratio
	c.updateStaticCurve()
	return nil
}

// SetAttack sets the attack time in milliseconds.
// Range: 0.01 to 2000 ms. Faster attack = quicker envelope rise.
func (c *SidechainCompressor) SetAttack(ms float64) error {
	if ms < minAttackMs || ms > maxAttackMs || math.IsNaN(ms) {
		return fmt.Errorf("compressor attack must be in [%f, %f]: %f",
			minAttackMs, maxAttackMs, ms)
	}
	c.attackMs = ms
	c.updateTimeConstants()
	return nil
}

// SetRelease sets the release time in milliseconds.
// Range: 0.01 to 9000 ms. Slower release = smoother gain recovery.
func (c *SidechainCompressor) SetRelease(ms float64) error {
	if ms < minReleaseMs || ms > maxReleaseMs || math.IsNaN(ms) {
		return fmt.Errorf("compressor release must be in [%f, %f]: %f",
			minReleaseMs, maxReleaseMs, ms)
	}
	c.releaseMs = ms
	c.updateTimeConstants()
	return nil
}

// SetMakeup sets the linear makeup gain. Range: 1.0 to 64.0.
func (c *SidechainCompressor) SetMakeup(makeup float64) error {
	if makeup < minMakeup || makeup > maxMakeup || math.IsNaN(makeup) {
		return fmt.Errorf("compressor makeup must be in [%f, %f]: %f",
			minMakeup, maxMakeup, makeup)
	}
	c.makeup = makeup
	return nil
}

// SetKnee sets the knee width as a multiplicative band around the
// threshold. Range: 1.0 (hard knee) to 8.0.
func (c *SidechainCompressor) SetKnee(knee float64) error {
	if knee < minKnee || knee > maxKnee || math.IsNaN(knee) {
		return fmt.Errorf("compressor knee must be in [%f, %f]: %f",
			minKnee, maxKnee, knee)
	}
	c.knee = knee
	c.updateStaticCurve()
	return nil
}

// SetLink sets the channel linking mode for the detector signal.
func (c *SidechainCompressor) SetLink(link LinkMode) error {
	if link != LinkAverage && link != LinkMaximum {
		return fmt.Errorf("compressor link mode unknown: %d", int(link))
	}
	c.link = link
	return nil
}

// SetDetection sets the level detection mode.
func (c *SidechainCompressor) SetDetection(detection DetectionMode) error {
	if detection != DetectionPeak && detection != DetectionRMS {
		return fmt.Errorf("compressor detection mode unknown: %d", int(detection))
	}
	c.detection = detection
	return nil
}

// SetMix sets the dry/wet blend. Range: 0.0 (bypassed) to 1.0 (fully wet).
func (c *SidechainCompressor) SetMix(mix float64) error {
	if mix < 0 || mix > 1 || math.IsNaN(mix) {
		return fmt.Errorf("compressor mix must be in [0, 1]: %f", mix)
	}
	c.mix = mix
	return nil
}

// SetSampleRate updates the sample rate and recalculates time constants.
// The envelope is preserved.
func (c *SidechainCompressor) SetSampleRate(sampleRate float64) error {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return fmt.Errorf("compressor sample rate must be positive and finite: %f", sampleRate)
	}
	c.sampleRate = sampleRate
	c.updateTimeConstants()
	return nil
}

// Threshold returns the current threshold as linear amplitude.
func (c *SidechainCompressor) Threshold() float64 { return c.threshold }

// Ratio returns the current compression ratio.
func (c *SidechainCompressor) Ratio() Ratio { return c.ratio }

// Attack returns the current attack time in milliseconds.
func (c *SidechainCompressor) Attack() float64 { return c.attackMs }

// Release returns the current release time in milliseconds.
func (c *SidechainCompressor) Release() float64 { return c.releaseMs }

// Makeup returns the current linear makeup gain.
func (c *SidechainCompressor) Makeup() float64 { return c.makeup }

// Knee returns the current knee width.
func (c *SidechainCompressor) Knee() float64 { return c.knee }

// Link returns the current channel linking mode.
func (c *SidechainCompressor) Link() LinkMode { return c.link }

// Detection returns the current detection mode.
func (c *SidechainCompressor) Detection() DetectionMode { return c.detection }

// Mix returns the current dry/wet blend.
func (c *SidechainCompressor) Mix() float64 { return c.mix }

// SampleRate returns the current sample rate in Hz.
func (c *SidechainCompressor) SampleRate() float64 { return c.sampleRate }

// Envelope returns the current envelope follower value in the linear
// domain (squared magnitude when detection is rms). Useful for metering.
func (c *SidechainCompressor) Envelope() float64 { return c.linSlope }

// Reset clears the envelope follower.
func (c *SidechainCompressor) Reset() {
	c.linSlope = 0
}

// Process compresses primary in place, driving the gain computation from
// detector. Passing a nil detector uses primary as its own detector
// (single-input compression). Primary and detector may carry different
// channel counts but must carry the same frame count.
func (c *SidechainCompressor) Process(primary, detector *block.Block) error {
	if detector == nil {
		detector = primary
	}
	if primary.Frames() != detector.Frames() {
		return fmt.Errorf("compressor primary has %d frames, detector %d: frame counts must match",
			primary.Frames(), detector.Frames())
	}

	samples := primary.Samples()
	scsrc := detector.Samples()
	channels := primary.Channels()
	scChannels := detector.Channels()
	frames := primary.Frames()
	makeup := c.makeup
	mix := c.mix

	for i := 0; i < frames; i++ {
		gain := c.advance(c.linkFrame(scsrc[i*scChannels : (i+1)*scChannels]))

		g := gain*makeup*mix + (1 - mix)
		base := i * channels
		for ch := 0; ch < channels; ch++ {
			samples[base+ch] *= g
		}
	}

	return nil
}

// ProcessBlock compresses primary in place using it as its own detector.
func (c *SidechainCompressor) ProcessBlock(primary *block.Block) error {
	return c.Process(primary, nil)
}

// ProcessPlanar compresses planar channel data in place. The per-frame
// channel gain is computed once into an internal scratch vector and applied
// to every primary channel as a vectorized block multiply. Passing a nil
// detector uses primary as its own detector. All channels of a signal must
// have equal length; primary and detector must have the same frame count.
func (c *SidechainCompressor) ProcessPlanar(primary, detector [][]float64) error {
	if len(primary) == 0 {
		return fmt.Errorf("compressor primary needs at least one channel")
	}
	if detector == nil {
		detector = primary
	}
	if len(detector) == 0 {
		return fmt.Errorf("compressor detector needs at least one channel")
	}

	frames := len(primary[0])
	for ch, s := range primary {
		if len(s) != frames {
			return fmt.Errorf("compressor primary channel %d has %d frames, want %d",
				ch, len(s), frames)
		}
	}
	for ch, s := range detector {
		if len(s) != frames {
			return fmt.Errorf("compressor primary has %d frames, detector channel %d has %d: frame counts must match",
				frames, ch, len(s))
		}
	}

	c.gains = core.EnsureLen(c.gains, frames)
	makeup := c.makeup
	mix := c.mix

	for i := 0; i < frames; i++ {
		gain := c.advance(c.linkPlanar(detector, i))
		c.gains[i] = gain*makeup*mix + (1 - mix)
	}

	for _, ch := range primary {
		vecmath.MulBlockInPlace(ch, c.gains)
	}

	return nil
}

// StaticGain returns the steady-state gain multiplier (before makeup and
// mix) for a detector magnitude held long enough for the envelope to
// converge. This exposes the static transfer curve for visualization and
// verification.
func (c *SidechainCompressor) StaticGain(magnitude float64) float64 {
	magnitude = math.Abs(magnitude)
	if c.detection == DetectionRMS {
		magnitude *= magnitude
	}
	if magnitude <= 0 || magnitude <= c.linKneeStart {
		return 1
	}
	return c.outputGain(magnitude)
}

// linkFrame reduces one interleaved detector frame to a single shaped
// magnitude.
func (c *SidechainCompressor) linkFrame(frame []float64) float64 {
	mag := math.Abs(frame[0])

	if c.link == LinkMaximum {
		for _, s := range frame[1:] {
			if a := math.Abs(s); a > mag {
				mag = a
			}
		}
	} else {
		for _, s := range frame[1:] {
			mag += math.Abs(s)
		}
		mag /= float64(len(frame))
	}

	if c.detection == DetectionRMS {
		mag *= mag
	}
	return mag
}

// linkPlanar reduces frame i of planar detector channels to a single
// shaped magnitude.
func (c *SidechainCompressor) linkPlanar(detector [][]float64, i int) float64 {
	mag := math.Abs(detector[0][i])

	if c.link == LinkMaximum {
		for _, ch := range detector[1:] {
			if a := math.Abs(ch[i]); a > mag {
				mag = a
			}
		}
	} else {
		for _, ch := range detector[1:] {
			mag += math.Abs(ch[i])
		}
		mag /= float64(len(detector))
	}

	if c.detection == DetectionRMS {
		mag *= mag
	}
	return mag
}

// advance feeds one shaped magnitude into the envelope follower and
// returns the raw gain multiplier for the current frame.
func (c *SidechainCompressor) advance(mag float64) float64 {
	if mag > c.linSlope {
		// Attack phase
		c.linSlope += (mag - c.linSlope) * c.attackCoeff
	} else {
		// Release phase
		c.linSlope += (mag - c.linSlope) * c.releaseCoeff
		c.linSlope = core.FlushDenormals(c.linSlope)
	}

	if c.linSlope > 0 && c.linSlope > c.linKneeStart {
		return c.outputGain(c.linSlope)
	}
	return 1
}

// outputGain maps an envelope value above the knee onset to a gain
// multiplier via the static transfer curve.
func (c *SidechainCompressor) outputGain(linSlope float64) float64 {
	slope := mathLog(linSlope)

	if c.detection == DetectionRMS {
		// Undo the detector squaring: sqrt in the linear domain is a
		// halving in the log domain.
		slope *= 0.5
	}

	var gain, delta float64
	if c.ratio.Infinite() {
		gain = c.thres
		delta = 0
	} else {
		gain = (slope-c.thres)/c.ratio.Value() + c.thres
		delta = 1 / c.ratio.Value()
	}

	if c.knee > 1 && slope < c.kneeStop {
		gain = hermite(slope, c.kneeStart, c.kneeStop,
			c.kneeStart, c.compressedKneeStop, 1, delta)
	}

	return mathExp(gain - slope)
}

// updateStaticCurve recalculates the log-domain transfer curve constants.
func (c *SidechainCompressor) updateStaticCurve() {
	c.thres = math.Log(c.threshold)
	c.linKneeStart = c.threshold / math.Sqrt(c.knee)
	c.kneeStart = math.Log(c.linKneeStart)
	c.kneeStop = math.Log(c.threshold * math.Sqrt(c.knee))

	if c.ratio.Infinite() {
		// The compressed curve is flat above the threshold.
		c.compressedKneeStop = c.thres
	} else {
		c.compressedKneeStop = (c.kneeStop-c.thres)/c.ratio.Value() + c.thres
	}

	c.updateTimeConstants()
}

// updateTimeConstants recalculates attack and release coefficients.
// Clamping to 1 lets very short times or very low sample rates degenerate
// to an unsmoothed follower instead of an unstable filter.
func (c *SidechainCompressor) updateTimeConstants() {
	c.attackCoeff = math.Min(1, 1/(c.attackMs*c.sampleRate/4000))
	c.releaseCoeff = math.Min(1, 1/(c.releaseMs*c.sampleRate/4000))
}
