package capture

import "testing"

func TestScoreDevice(t *testing.T) {
	tests := []struct {
		name      string
		device    DeviceInfo
		isDefault bool
		want      int
	}{
		// monitor +15, output kw monitor +2, call kw monitor +5, min input +3
		{name: "monitor source", device: DeviceInfo{Name: "Monitor of Built-in", MaxInputChannels: 1, MaxOutputChannels: 2}, want: 25},
		// pulse +10, default +5, min input +3
		{name: "pulse default", device: DeviceInfo{Name: "pulse", MaxInputChannels: 0, MaxOutputChannels: 2}, isDefault: true, want: 10 + 5 + 3 - 10},
		// mic -15, input is also a mic keyword only
		{name: "microphone", device: DeviceInfo{Name: "USB Microphone", MaxInputChannels: 2}, want: -15},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ScoreDevice(tt.device, tt.isDefault); got != tt.want {
				t.Errorf("score = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestRankDevices(t *testing.T) {
	devices := []DeviceInfo{
		{Index: 0, Name: "HDA Intel PCH: ALC Analog (hw:0,0)", MaxInputChannels: 2, MaxOutputChannels: 2},
		{Index: 1, Name: "Webcam Mic", MaxInputChannels: 1},
		{Index: 2, Name: "pulse", MaxInputChannels: 32, MaxOutputChannels: 32},
		{Index: 3, Name: "Monitor of Speakers", MaxInputChannels: 2, MaxOutputChannels: 0},
	}

	ranked := RankDevices(devices, 0, false)
	for _, r := range ranked {
		if r.Device.Index == 1 {
			t.Fatal("microphone ranked while blocked")
		}
	}
	best, ok := BestDevice(ranked)
	if !ok || best.Index != 3 {
		t.Errorf("best = %+v, want the monitor source", best)
	}

	withMic := RankDevices(devices, 0, true)
	if len(withMic) != 4 || withMic[len(withMic)-1].Device.Index != 1 {
		t.Errorf("with mic allowed, want microphone ranked last: %+v", withMic)
	}

	if _, ok := BestDevice(nil); ok {
		t.Error("BestDevice(nil) reported a device")
	}
}
