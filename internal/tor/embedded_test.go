package tor

import (
	"errors"
	"testing"
	"time"
)

func TestEmbeddedTorOptions(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		opts []EmbeddedTorOption
		want time.Duration
	}{
		{name: "default startup timeout", want: DefaultStartupTimeout},
		{name: "custom startup timeout", opts: []EmbeddedTorOption{WithStartupTimeout(45 * time.Second)}, want: 45 * time.Second},
		{name: "zero keeps the default", opts: []EmbeddedTorOption{WithStartupTimeout(0)}, want: DefaultStartupTimeout},
		{name: "negative keeps the default", opts: []EmbeddedTorOption{WithStartupTimeout(-time.Minute)}, want: DefaultStartupTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := NewEmbeddedTor(tt.opts...).startupTimeout; got != tt.want {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

// The daemon itself is not started here; these cover the idle state the
// crawl command relies on when --tor is not given or startup failed.
func TestEmbeddedTorBeforeStart(t *testing.T) {
	t.Parallel()

	e := NewEmbeddedTor()

	if e.IsRunning() {
		t.Error("expected not running")
	}
	if e.SocksAddr() != "" || e.ControlAddr() != "" {
		t.Errorf("expected no addresses, got %q %q", e.SocksAddr(), e.ControlAddr())
	}
	if _, err := e.ProxyURL(); !errors.Is(err, ErrNotRunning) {
		t.Errorf("ProxyURL: expected ErrNotRunning, got %v", err)
	}
	if _, err := e.NewClient(time.Second); !errors.Is(err, ErrNotRunning) {
		t.Errorf("NewClient: expected ErrNotRunning, got %v", err)
	}
	for range 2 {
		if err := e.Stop(); err != nil {
			t.Errorf("Stop on idle daemon: %v", err)
		}
	}
}
