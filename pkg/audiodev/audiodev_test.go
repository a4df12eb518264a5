package audiodev

import (
	"errors"
	"testing"

	"audio2sign/pkg/logger"

	"github.com/google/go-cmp/cmp"
	"github.com/gordonklaus/portaudio"
)

type fakeStream struct {
	name     string
	startErr error
	started  bool
	closed   bool
}

func (s *fakeStream) Start() error {
	s.started = s.startErr == nil
	return s.startErr
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

func pickIndex(i int) func([]*portaudio.DeviceInfo) (*portaudio.DeviceInfo, error) {
	return func(devices []*portaudio.DeviceInfo) (*portaudio.DeviceInfo, error) {
		return devices[i], nil
	}
}

func TestStartFirst(t *testing.T) {
	devices := []*portaudio.DeviceInfo{{Name: "monitor"}, {Name: "pulse"}, {Name: "default"}}

	tests := []struct {
		name       string
		strategies []strategy
		openErr    map[string]error
		startErr   map[string]error
		want       string
		wantOpened []string
		wantClosed []string
		wantErr    error
	}{
		{
			name:       "first strategy starts",
			strategies: []strategy{{"ranked", pickIndex(0)}, {"pulse", pickIndex(1)}},
			want:       "monitor",
			wantOpened: []string{"monitor"},
		},
		{
			name:       "start failure falls through",
			strategies: []strategy{{"ranked", pickIndex(0)}, {"pulse", pickIndex(1)}},
			startErr:   map[string]error{"monitor": errors.New("device busy")},
			want:       "pulse",
			wantOpened: []string{"monitor", "pulse"},
			wantClosed: []string{"monitor"},
		},
		{
			name: "pick and open failures fall through",
			strategies: []strategy{
				{"explicit", func([]*portaudio.DeviceInfo) (*portaudio.DeviceInfo, error) {
					return nil, errors.New("no device index given")
				}},
				{"ranked", pickIndex(0)},
				{"default-input", pickIndex(2)},
			},
			openErr:    map[string]error{"monitor": errors.New("invalid channel count")},
			want:       "default",
			wantOpened: []string{"monitor", "default"},
		},
		{
			name:       "nothing starts",
			strategies: []strategy{{"ranked", pickIndex(0)}, {"pulse", pickIndex(1)}},
			startErr:   map[string]error{"monitor": errors.New("busy"), "pulse": errors.New("busy")},
			wantOpened: []string{"monitor", "pulse"},
			wantClosed: []string{"monitor", "pulse"},
			wantErr:    ErrNoDevice,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opened []*fakeStream
			open := func(dev *portaudio.DeviceInfo) (*fakeStream, error) {
				s := &fakeStream{name: dev.Name, startErr: tt.startErr[dev.Name]}
				opened = append(opened, s)
				return s, tt.openErr[dev.Name]
			}

			stream, dev, _, err := startFirst(devices, tt.strategies, open, logger.Nop())
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("startFirst() error = %v, want %v", err, tt.wantErr)
			}

			var openedNames, closed []string
			for _, s := range opened {
				openedNames = append(openedNames, s.name)
				if s.closed {
					closed = append(closed, s.name)
				}
			}
			if diff := cmp.Diff(tt.wantOpened, openedNames); diff != "" {
				t.Errorf("opened mismatch (-want +got):\n%s", diff)
			}
			if diff := cmp.Diff(tt.wantClosed, closed); diff != "" {
				t.Errorf("closed mismatch (-want +got):\n%s", diff)
			}

			if tt.wantErr != nil {
				return
			}
			if dev.Name != tt.want || stream.name != tt.want || !stream.started {
				t.Errorf("got device %q stream %+v, want started %q", dev.Name, stream, tt.want)
			}
		})
	}
}
