// Command acompress applies dynamic-range compression to a WAV file,
// optionally driven by an independent sidechain WAV.
//
// Usage:
//
//	acompress [flags] -in main.wav -out compressed.wav
//
// Examples:
//
//	acompress -in drums.wav -out drums_comp.wav -ratio 4 -attack 5
//	acompress -in music.wav -sidechain voice.wav -out ducked.wav -ratio inf
//	acompress -in mix.wav -out mix_comp.wav -threshold-db -18 -detection peak
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/cwbudde/algo-compress/dsp/block"
	"github.com/cwbudde/algo-compress/dsp/core"
	"github.com/cwbudde/algo-compress/dsp/dynamics"
	"github.com/cwbudde/algo-compress/internal/wavio"
)

func main() {
	var (
		inPath      = flag.String("in", "", "input WAV file (required)")
		scPath      = flag.String("sidechain", "", "sidechain WAV file (optional, same sample rate as input)")
		outPath     = flag.String("out", "", "output WAV file (required)")
		threshold   = flag.Float64("threshold", 0.125, "threshold as linear amplitude (0.000976563 to 1)")
		thresholdDB = flag.Float64("threshold-db", 0, "threshold in dBFS, overrides -threshold when set")
		ratio       = flag.String("ratio", "2", "compression ratio n:1 (1 to 20, or \"inf\")")
		attack      = flag.Float64("attack", 20, "attack time in ms (0.01 to 2000)")
		release     = flag.Float64("release", 250, "release time in ms (0.01 to 9000)")
		makeup      = flag.Float64("makeup", 1, "linear makeup gain (1 to 64)")
		knee        = flag.Float64("knee", 2.82843, "knee width (1 = hard knee, up to 8)")
		link        = flag.String("link", "average", "channel linking: average or maximum")
		detection   = flag.String("detection", "rms", "level detection: peak or rms")
		mix         = flag.Float64("mix", 1, "dry/wet blend (0 = bypass, 1 = fully wet)")
		bitDepth    = flag.Int("bit-depth", 0, "output bit depth (16, 24 or 32; 0 = same as input)")
		verbose     = flag.Bool("v", false, "verbose output")
	)
	flag.Parse()

	if *inPath == "" || *outPath == "" {
		flag.Usage()
		os.Exit(2)
	}

	var thresholdDBSet bool
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "threshold-db" {
			thresholdDBSet = true
		}
	})
	if thresholdDBSet {
		*threshold = core.DBToLinear(*thresholdDB)
	}

	if err := run(*inPath, *scPath, *outPath, *threshold, *ratio, *attack, *release,
		*makeup, *knee, *link, *detection, *mix, *bitDepth, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "acompress: %v\n", err)
		os.Exit(1)
	}
}

func run(inPath, scPath, outPath string, threshold float64, ratio string,
	attack, release, makeup, knee float64, link, detection string,
	mix float64, bitDepth int, verbose bool,
) error {
	in, err := wavio.ReadFile(inPath)
	if err != nil {
		return err
	}
	if verbose {
		log.Printf("input: %d Hz, %d channels, %d-bit, %d frames",
			in.SampleRate, in.Block.Channels(), in.BitDepth, in.Block.Frames())
		log.Printf("threshold %g (%.1f dBFS), ratio %s:1",
			threshold, core.LinearToDB(threshold), ratio)
	}

	primary := in.Block
	var detector *block.Block

	if scPath != "" {
		sc, err := wavio.ReadFile(scPath)
		if err != nil {
			return err
		}
		if sc.SampleRate != in.SampleRate {
			return fmt.Errorf("sample rate mismatch: input %d Hz, sidechain %d Hz",
				in.SampleRate, sc.SampleRate)
		}
		if verbose {
			log.Printf("sidechain: %d channels, %d frames", sc.Block.Channels(), sc.Block.Frames())
		}

		// Align to the shorter signal, like a two-input filter graph would.
		if frames := min(primary.Frames(), sc.Block.Frames()); frames < primary.Frames() || frames < sc.Block.Frames() {
			if verbose {
				log.Printf("truncating to %d common frames", frames)
			}
			primary, err = truncated(primary, frames)
			if err != nil {
				return err
			}
			detector, err = truncated(sc.Block, frames)
			if err != nil {
				return err
			}
		} else {
			detector = sc.Block
		}
	}

	comp, err := configure(float64(in.SampleRate), threshold, ratio, attack, release,
		makeup, knee, link, detection, mix)
	if err != nil {
		return err
	}

	if err := comp.Process(primary, detector); err != nil {
		return err
	}

	if bitDepth == 0 {
		bitDepth = in.BitDepth
	}
	if err := wavio.WriteFile(outPath, primary, in.SampleRate, bitDepth); err != nil {
		return err
	}
	if verbose {
		log.Printf("wrote %s: %d frames at %d-bit", outPath, primary.Frames(), bitDepth)
	}
	return nil
}

// configure builds a compressor from CLI flag values.
func configure(sampleRate, threshold float64, ratio string,
	attack, release, makeup, knee float64, link, detection string, mix float64,
) (*dynamics.SidechainCompressor, error) {
	comp, err := dynamics.NewSidechainCompressor(sampleRate)
	if err != nil {
		return nil, err
	}

	r, err := parseRatio(ratio)
	if err != nil {
		return nil, err
	}

	var linkMode dynamics.LinkMode
	switch link {
	case "average":
		linkMode = dynamics.LinkAverage
	case "maximum":
		linkMode = dynamics.LinkMaximum
	default:
		return nil, fmt.Errorf("unknown link mode %q (want average or maximum)", link)
	}

	var detectionMode dynamics.DetectionMode
	switch detection {
	case "peak":
		detectionMode = dynamics.DetectionPeak
	case "rms":
		detectionMode = dynamics.DetectionRMS
	default:
		return nil, fmt.Errorf("unknown detection mode %q (want peak or rms)", detection)
	}

	for _, step := range []error{
		comp.SetThreshold(threshold),
		comp.SetRatio(r),
		comp.SetAttack(attack),
		comp.SetRelease(release),
		comp.SetMakeup(makeup),
		comp.SetKnee(knee),
		comp.SetLink(linkMode),
		comp.SetDetection(detectionMode),
		comp.SetMix(mix),
	} {
		if step != nil {
			return nil, step
		}
	}
	return comp, nil
}

// parseRatio accepts a finite "n" form or "inf".
func parseRatio(s string) (dynamics.Ratio, error) {
	if s == "inf" {
		return dynamics.InfiniteRatio(), nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return dynamics.Ratio{}, fmt.Errorf("invalid ratio %q: %w", s, err)
	}
	return dynamics.NewRatio(v), nil
}

// truncated returns a view of the first n frames of b.
func truncated(b *block.Block, n int) (*block.Block, error) {
	return block.FromInterleaved(b.Samples()[:n*b.Channels()], b.Channels())
}
