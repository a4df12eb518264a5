package capture

import (
	"sort"
	"strings"
)

var (
	outputKeywords     = []string{"speaker", "output", "headphone", "hdmi", "audio", "playback", "monitor"}
	callKeywords       = []string{"meet", "call", "virtual", "monitor", "output", "system", "default"}
	microphoneKeywords = []string{"mic", "microphone", "input", "webcam", "camera"}
)

// DeviceInfo is the subset of an audio device that ranking looks at.
type DeviceInfo struct {
	Index             int
	Name              string
	HostAPI           string
	MaxInputChannels  int
	MaxOutputChannels int
	DefaultSampleRate float64
}

func (d DeviceInfo) IsMicrophone() bool {
	return containsAny(strings.ToLower(d.Name), microphoneKeywords)
}

func (d DeviceInfo) IsPulse() bool {
	name := strings.ToLower(d.Name)
	return strings.Contains(name, "pulse") || strings.Contains(name, "pipewire")
}

type RankedDevice struct {
	Device DeviceInfo
	Score  int
}

// ScoreDevice rates how likely a device carries system playback audio.
func ScoreDevice(d DeviceInfo, isDefaultOutput bool) int {
	name := strings.ToLower(d.Name)
	score := 0

	if d.IsMicrophone() {
		score -= 15
	}
	if strings.Contains(name, "monitor") {
		score += 15
	}
	if d.IsPulse() {
		score += 10
	}
	for _, kw := range outputKeywords {
		if strings.Contains(name, kw) {
			score += 2
		}
	}
	for _, kw := range callKeywords {
		if strings.Contains(name, kw) {
			score += 5
		}
	}
	if isDefaultOutput {
		score += 5
	}
	if d.MaxInputChannels <= 1 && d.MaxOutputChannels > 0 {
		score += 3
	}
	if d.MaxInputChannels <= 0 {
		score -= 10
	}
	return score
}

// RankDevices scores every usable device, best first. Microphones are left
// out unless allowMic is set. defaultOutput is an index, or -1 for none.
func RankDevices(devices []DeviceInfo, defaultOutput int, allowMic bool) []RankedDevice {
	ranked := make([]RankedDevice, 0, len(devices))
	for _, d := range devices {
		if d.IsMicrophone() && !allowMic {
			continue
		}
		ranked = append(ranked, RankedDevice{Device: d, Score: ScoreDevice(d, d.Index == defaultOutput)})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

// BestDevice prefers a positively scored monitor source, then the top score.
func BestDevice(ranked []RankedDevice) (DeviceInfo, bool) {
	for _, r := range ranked {
		if r.Score > 0 && strings.Contains(strings.ToLower(r.Device.Name), "monitor") {
			return r.Device, true
		}
	}
	if len(ranked) == 0 {
		return DeviceInfo{}, false
	}
	return ranked[0].Device, true
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
