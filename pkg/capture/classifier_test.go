package capture

import (
	"math"
	"testing"
)

func sine(freq, amp float64, rate, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amp * math.Sin(2*math.Pi*freq*float64(i)/float64(rate)))
	}
	return out
}

func constant(v float32, n int) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func testClassifier() Classifier {
	return Classifier{Channels: 1, Window: SpectrumWindow, OwnVoiceThreshold: 0.45, FloorLevel: 0.0002}
}

func TestZerosAreNeverEnqueued(t *testing.T) {
	d := testClassifier().Classify(make([]float32, 1024))
	if d.Features.Level != 0 {
		t.Errorf("level = %v, want 0", d.Features.Level)
	}
	if d.Enqueue {
		t.Errorf("silent block enqueued: %+v", d)
	}
}

func TestAnalyzeSpectrum(t *testing.T) {
	tests := []struct {
		name       string
		block      []float32
		speechLike bool
		callAudio  bool
	}{
		// 1 kHz lands in bin 16 of a 256 point transform at 16 kHz.
		{name: "1kHz tone", block: sine(1000, 0.1, 16000, 1024), speechLike: true, callAudio: true},
		{name: "6kHz tone", block: sine(6000, 0.1, 16000, 1024), speechLike: false, callAudio: false},
		{name: "short block", block: sine(1000, 0.1, 16000, 100), speechLike: false, callAudio: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Analyze(tt.block, 1, SpectrumWindow)
			if f.SpeechLike != tt.speechLike || f.CallAudio != tt.callAudio {
				t.Errorf("features = %+v", f)
			}
			if f.SpeechLike && f.HighFreqRatio >= 0.2 {
				t.Errorf("high freq ratio = %v for a speech band tone", f.HighFreqRatio)
			}
		})
	}
}

func TestAnalyzeUsesFirstChannel(t *testing.T) {
	mono := sine(1000, 0.1, 16000, 512)
	stereo := make([]float32, 2*len(mono))
	for i, s := range mono {
		stereo[2*i] = s
		stereo[2*i+1] = 0.05
	}
	f := Analyze(stereo, 2, SpectrumWindow)
	if !f.SpeechLike {
		t.Errorf("features = %+v, want speech-like from left channel", f)
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		block   []float32
		enqueue bool
		reason  string
	}{
		{name: "own voice", block: sine(1000, 0.9, 16000, 1024), enqueue: false, reason: "own voice"},
		{name: "call audio", block: sine(1000, 0.1, 16000, 1024), enqueue: true, reason: "call audio"},
		{name: "quiet hiss", block: sine(6000, 0.0001, 16000, 1024), enqueue: false, reason: "below floor"},
		{name: "loud hiss", block: sine(6000, 0.01, 16000, 1024), enqueue: true, reason: "above floor"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := testClassifier().Classify(tt.block)
			if d.Enqueue != tt.enqueue || d.Reason != tt.reason {
				t.Errorf("decision = %+v, want enqueue=%v reason=%q", d, tt.enqueue, tt.reason)
			}
		})
	}
}
