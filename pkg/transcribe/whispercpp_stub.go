//go:build !whispercpp

package transcribe

import (
	"fmt"

	"audio2sign/pkg/config"
	"audio2sign/pkg/logger"
)

func newWhisperCPP(_ config.WhisperConfig, _ string, _ *logger.Logger) (Engine, error) {
	return nil, fmt.Errorf("binary built without the whispercpp tag: %w", ErrEngineUnavailable)
}
