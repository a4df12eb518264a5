package capture

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// SpectrumWindow is how many leading samples of a block are transformed.
	SpectrumWindow = 256

	speechBinLow  = 5
	speechBinHigh = 45

	speechRatioThreshold   = 0.4
	highFreqRatioThreshold = 0.2
)

// Features describes one block of audio.
type Features struct {
	Level         float64
	SpeechRatio   float64
	HighFreqRatio float64
	SpeechLike    bool
	CallAudio     bool
}

// Level is the mean absolute amplitude over every sample of block.
func Level(block []float32) float64 {
	if len(block) == 0 {
		return 0
	}
	var sum float64
	for _, s := range block {
		sum += math.Abs(float64(s))
	}
	return sum / float64(len(block))
}

// Analyze computes the level of an interleaved block and the spectral ratios
// of the first window frames of its first channel. Blocks shorter than the
// window are never speech-like.
func Analyze(block []float32, channels, window int) Features {
	f := Features{Level: Level(block)}
	if channels < 1 {
		channels = 1
	}
	if window <= speechBinHigh || len(block)/channels < window {
		return f
	}

	seq := make([]float64, window)
	for i := range seq {
		seq[i] = float64(block[i*channels])
	}
	coeffs := fourier.NewFFT(window).Coefficients(nil, seq)
	if len(coeffs) <= speechBinHigh {
		return f
	}

	var total, speech, high float64
	for i, c := range coeffs {
		mag := math.Hypot(real(c), imag(c))
		total += mag
		switch {
		case i >= speechBinLow && i < speechBinHigh:
			speech += mag
		case i >= speechBinHigh:
			high += mag
		}
	}
	if total <= 0 {
		return f
	}

	f.SpeechRatio = speech / total
	f.HighFreqRatio = high / total
	f.SpeechLike = f.SpeechRatio > speechRatioThreshold
	f.CallAudio = f.SpeechLike && f.HighFreqRatio < highFreqRatioThreshold
	return f
}

// Decision is the classifier's verdict on a block.
type Decision struct {
	Enqueue  bool
	Reason   string
	Features Features
}

// Classifier decides which blocks are worth transcribing.
type Classifier struct {
	Channels          int
	Window            int
	OwnVoiceThreshold float64
	FloorLevel        float64
}

func (c Classifier) Classify(block []float32) Decision {
	f := Analyze(block, c.Channels, c.Window)
	d := Decision{Features: f}

	switch {
	case f.Level > c.OwnVoiceThreshold:
		d.Reason = "own voice"
	case f.CallAudio:
		d.Enqueue, d.Reason = true, "call audio"
	case f.SpeechLike:
		d.Enqueue, d.Reason = true, "speech-like"
	case f.Level > c.FloorLevel:
		d.Enqueue, d.Reason = true, "above floor"
	default:
		d.Reason = "below floor"
	}
	return d
}
