// Package audiodev opens PortAudio input streams for the capture agent.
// Callers must call portaudio.Initialize before using it.
package audiodev

import (
	"errors"
	"fmt"

	"audio2sign/pkg/capture"
	"audio2sign/pkg/config"
	"audio2sign/pkg/logger"

	"github.com/gordonklaus/portaudio"
)

var ErrNoDevice = errors.New("no usable audio input device")

type strategy struct {
	name string
	pick func(devices []*portaudio.DeviceInfo) (*portaudio.DeviceInfo, error)
}

// Open tries each device selection strategy in turn and returns the first
// stream that both opens and starts. A stream that opens but refuses to start
// is closed before the next strategy is tried.
func Open(cfg config.CaptureConfig, callback func(in []float32), log *logger.Logger) (*portaudio.Stream, capture.DeviceInfo, error) {
	devices, err := portaudio.Devices()
	if err != nil {
		return nil, capture.DeviceInfo{}, fmt.Errorf("failed to list devices: %w", err)
	}

	open := func(dev *portaudio.DeviceInfo) (*portaudio.Stream, error) {
		return openStream(dev, cfg, callback)
	}
	stream, dev, name, err := startFirst(devices, strategies(cfg, log), open, log)
	if err != nil {
		return nil, capture.DeviceInfo{}, err
	}
	info := toInfo(indexOf(devices, dev), dev)
	log.Infow("Using device", "strategy", name, "index", info.Index, "name", info.Name,
		"input_channels", info.MaxInputChannels, "output_channels", info.MaxOutputChannels,
		"sample_rate", info.DefaultSampleRate)
	return stream, info, nil
}

type startCloser interface {
	Start() error
	Close() error
}

func startFirst[S startCloser](devices []*portaudio.DeviceInfo, strategies []strategy,
	open func(dev *portaudio.DeviceInfo) (S, error), log *logger.Logger) (S, *portaudio.DeviceInfo, string, error) {
	var zero S
	for _, s := range strategies {
		dev, err := s.pick(devices)
		if err != nil {
			log.Warnw("Device strategy unavailable", "strategy", s.name, "error", err)
			continue
		}
		stream, err := open(dev)
		if err != nil {
			log.Errorw("Device strategy failed", "strategy", s.name, "device", dev.Name, "error", err)
			continue
		}
		if err := stream.Start(); err != nil {
			log.Errorw("Device stream failed to start", "strategy", s.name, "device", dev.Name, "error", err)
			if cerr := stream.Close(); cerr != nil {
				log.Warnw("Failed to close unstarted stream", "device", dev.Name, "error", cerr)
			}
			continue
		}
		return stream, dev, s.name, nil
	}
	return zero, nil, "", ErrNoDevice
}

func strategies(cfg config.CaptureConfig, log *logger.Logger) []strategy {
	return []strategy{
		{name: "explicit", pick: func(devices []*portaudio.DeviceInfo) (*portaudio.DeviceInfo, error) {
			if cfg.Device < 0 {
				return nil, errors.New("no device index given")
			}
			if cfg.Device >= len(devices) {
				return nil, fmt.Errorf("invalid device index %d", cfg.Device)
			}
			return devices[cfg.Device], nil
		}},
		{name: "ranked", pick: func(devices []*portaudio.DeviceInfo) (*portaudio.DeviceInfo, error) {
			ranked := capture.RankDevices(infos(devices), defaultOutputIndex(devices), cfg.AllowMic)
			for _, r := range ranked {
				log.Debugw("Device score", "index", r.Device.Index, "name", r.Device.Name, "score", r.Score)
			}
			best, ok := capture.BestDevice(ranked)
			if !ok {
				return nil, errors.New("no candidate devices")
			}
			return devices[best.Index], nil
		}},
		{name: "pulse", pick: func(devices []*portaudio.DeviceInfo) (*portaudio.DeviceInfo, error) {
			for i, d := range devices {
				if toInfo(i, d).IsPulse() {
					return d, nil
				}
			}
			return nil, errors.New("no PulseAudio/PipeWire device found")
		}},
		{name: "default-input", pick: func([]*portaudio.DeviceInfo) (*portaudio.DeviceInfo, error) {
			d, err := portaudio.DefaultInputDevice()
			if err == nil && !cfg.AllowMic && toInfo(-1, d).IsMicrophone() {
				return nil, errors.New("default input is a microphone")
			}
			return d, err
		}},
		{name: "default-output", pick: func([]*portaudio.DeviceInfo) (*portaudio.DeviceInfo, error) {
			return portaudio.DefaultOutputDevice()
		}},
	}
}

func openStream(dev *portaudio.DeviceInfo, cfg config.CaptureConfig, callback func(in []float32)) (*portaudio.Stream, error) {
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   dev,
			Channels: cfg.Channels,
			Latency:  dev.DefaultLowInputLatency,
		},
		SampleRate:      float64(cfg.SampleRate),
		FramesPerBuffer: cfg.BlockSize,
	}
	return portaudio.OpenStream(params, callback)
}

func defaultOutputIndex(devices []*portaudio.DeviceInfo) int {
	d, err := portaudio.DefaultOutputDevice()
	if err != nil {
		return -1
	}
	return indexOf(devices, d)
}

// indexOf returns the position of d in devices, which is its PortAudio index.
func indexOf(devices []*portaudio.DeviceInfo, d *portaudio.DeviceInfo) int {
	for i, candidate := range devices {
		if candidate == d {
			return i
		}
	}
	for i, candidate := range devices {
		if candidate.Name == d.Name && candidate.HostApi == d.HostApi {
			return i
		}
	}
	return -1
}

func toInfo(index int, d *portaudio.DeviceInfo) capture.DeviceInfo {
	info := capture.DeviceInfo{
		Index:             index,
		Name:              d.Name,
		MaxInputChannels:  d.MaxInputChannels,
		MaxOutputChannels: d.MaxOutputChannels,
		DefaultSampleRate: d.DefaultSampleRate,
	}
	if d.HostApi != nil {
		info.HostAPI = d.HostApi.Name
	}
	return info
}

func infos(devices []*portaudio.DeviceInfo) []capture.DeviceInfo {
	out := make([]capture.DeviceInfo, len(devices))
	for i, d := range devices {
		out[i] = toInfo(i, d)
	}
	return out
}

// List logs every device PortAudio can see.
func List(log *logger.Logger) error {
	devices, err := portaudio.Devices()
	if err != nil {
		return fmt.Errorf("failed to list devices: %w", err)
	}
	log.Info("Available Audio Devices:")
	for i, d := range devices {
		info := toInfo(i, d)
		log.Infow("Device", "index", info.Index, "name", info.Name, "host_api", info.HostAPI,
			"input_channels", info.MaxInputChannels, "output_channels", info.MaxOutputChannels,
			"sample_rate", info.DefaultSampleRate)
	}
	return nil
}
