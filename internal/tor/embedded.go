package tor

import (
	"context"
	"fmt"
	"time"

	"github.com/nao1215/tornago"
)

// DefaultStartupTimeout bounds Tor's bootstrap.
const DefaultStartupTimeout = 3 * time.Minute

// EmbeddedTor runs a private Tor daemon for the duration of a crawl.
//
// Bootstrapping takes from several seconds to a few minutes depending on
// the network. The daemon listens on ports picked by the OS.
type EmbeddedTor struct {
	process *tornago.TorProcess

	// Both addresses are "" unless the daemon is running.
	socksAddr   string
	controlAddr string

	startupTimeout time.Duration
}

// EmbeddedTorOption configures an EmbeddedTor instance.
type EmbeddedTorOption func(*EmbeddedTor)

// WithStartupTimeout sets the maximum time to wait for Tor to bootstrap.
func WithStartupTimeout(timeout time.Duration) EmbeddedTorOption {
	return func(e *EmbeddedTor) {
		if timeout > 0 {
			e.startupTimeout = timeout
		}
	}
}

// NewEmbeddedTor creates a new embedded Tor manager.
// Call Start to launch the daemon.
func NewEmbeddedTor(opts ...EmbeddedTorOption) *EmbeddedTor {
	e := &EmbeddedTor{
		startupTimeout: DefaultStartupTimeout,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Start launches the daemon and blocks until it has bootstrapped, the
// startup timeout expires, or ctx is canceled.
func (e *EmbeddedTor) Start(ctx context.Context) error {
	launchCfg, err := tornago.NewTorLaunchConfig(
		tornago.WithTorSocksAddr(":0"),
		tornago.WithTorControlAddr(":0"),
		tornago.WithTorStartupTimeout(e.startupTimeout),
	)
	if err != nil {
		return fmt.Errorf("failed to create Tor launch config: %w", err)
	}

	type started struct {
		process *tornago.TorProcess
		err     error
	}
	done := make(chan started, 1)
	go func() {
		p, err := tornago.StartTorDaemon(launchCfg)
		done <- started{p, err}
	}()

	select {
	case <-ctx.Done():
		// Reap the daemon once it comes up.
		go func() {
			if s := <-done; s.process != nil {
				_ = s.process.Stop() //nolint:errcheck // best effort cleanup
			}
		}()
		return ctx.Err()
	case s := <-done:
		if s.err != nil {
			return fmt.Errorf("failed to start embedded Tor daemon: %w", s.err)
		}
		e.process = s.process
	}

	e.socksAddr = e.process.SocksAddr()
	e.controlAddr = e.process.ControlAddr()
	return nil
}

// Stop shuts the daemon down. It is safe to call on an unstarted or
// already stopped instance.
func (e *EmbeddedTor) Stop() error {
	if e.process == nil {
		return nil
	}

	err := e.process.Stop()
	e.process = nil
	e.socksAddr = ""
	e.controlAddr = ""
	return err
}

// SocksAddr returns the SOCKS5 address ("host:port") of the running
// daemon, or "" when it is not running.
func (e *EmbeddedTor) SocksAddr() string {
	return e.socksAddr
}

// ControlAddr returns the control port address, or "" when not running.
func (e *EmbeddedTor) ControlAddr() string {
	return e.controlAddr
}

// IsRunning reports whether the daemon is running.
func (e *EmbeddedTor) IsRunning() bool {
	return e.process != nil
}

// ProxyURL returns the daemon's SOCKS address as a proxy URL for the
// browser.
func (e *EmbeddedTor) ProxyURL() (string, error) {
	if !e.IsRunning() {
		return "", ErrNotRunning
	}
	return "socks5://" + e.socksAddr, nil
}

// NewClient returns a proxy client for the daemon's SOCKS port.
func (e *EmbeddedTor) NewClient(timeout time.Duration) (*Client, error) {
	if !e.IsRunning() {
		return nil, ErrNotRunning
	}
	return NewClient(e.socksAddr, timeout)
}
