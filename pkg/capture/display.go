package capture

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"audio2sign/pkg/logger"

	"github.com/gorilla/mux"
)

// Display serves the rendered page directory on a local address.
type Display struct {
	server *http.Server
	done   chan struct{}
	logger *logger.Logger
}

func NewDisplay(addr, dir string, log *logger.Logger) *Display {
	router := mux.NewRouter()
	router.PathPrefix("/").Handler(noCache(http.FileServer(http.Dir(dir))))

	return &Display{
		server: &http.Server{
			Addr:              addr,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: log,
	}
}

// Start binds the listener and serves in the background.
func (d *Display) Start() (net.Addr, error) {
	ln, err := net.Listen("tcp", d.server.Addr)
	if err != nil {
		return nil, fmt.Errorf("display: listen on %s: %w", d.server.Addr, err)
	}
	d.done = make(chan struct{})
	go func() {
		defer close(d.done)
		if err := d.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.logger.Errorw("Display: server error", "error", err)
		}
	}()
	d.logger.Infow("Display: serving page", "url", "http://"+ln.Addr().String()+"/")
	return ln.Addr(), nil
}

func (d *Display) Stop(ctx context.Context) error {
	if d.done == nil {
		return nil
	}
	err := d.server.Shutdown(ctx)
	<-d.done
	return err
}

func noCache(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
