package tor

import "errors"

// Proxy check errors.
var (
	// ErrProxyNotSOCKS5 is returned when the proxy address answers but does
	// not speak SOCKS5 without authentication.
	ErrProxyNotSOCKS5 = errors.New("proxy is not a SOCKS5 proxy")

	// ErrProxyCannotConnect is returned when no TCP connection to the proxy
	// can be established.
	ErrProxyCannotConnect = errors.New("cannot connect to proxy")

	// ErrProxyTimeout is returned when the proxy does not answer in time.
	ErrProxyTimeout = errors.New("timeout connecting to proxy")

	// ErrTargetUnreachable is returned when the proxy works but reports that
	// the target host cannot be reached through it.
	ErrTargetUnreachable = errors.New("target not reachable through proxy")

	// ErrInvalidProxyAddress is returned when the proxy address format is invalid.
	// Expected format is "host:port".
	ErrInvalidProxyAddress = errors.New("invalid proxy address format: expected host:port")

	// ErrNotRunning is returned when the embedded daemon is used before Start.
	ErrNotRunning = errors.New("embedded Tor daemon is not running")
)

// ProxyStatus is the result of checking a proxy.
type ProxyStatus int

const (
	// ProxyStatusOK indicates the proxy reached the target.
	ProxyStatusOK ProxyStatus = iota

	// ProxyStatusWrongType indicates the proxy does not speak SOCKS5.
	ProxyStatusWrongType

	// ProxyStatusCannotConnect indicates we could not connect to the proxy.
	ProxyStatusCannotConnect

	// ProxyStatusTimeout indicates the proxy did not answer in time.
	ProxyStatusTimeout

	// ProxyStatusUnreachable indicates the proxy refused or failed the
	// CONNECT to the target.
	ProxyStatusUnreachable
)

// String returns a human-readable description of the proxy status.
func (s ProxyStatus) String() string {
	switch s {
	case ProxyStatusOK:
		return "OK"
	case ProxyStatusWrongType:
		return "wrong type (not SOCKS5)"
	case ProxyStatusCannotConnect:
		return "cannot connect"
	case ProxyStatusTimeout:
		return "timeout"
	case ProxyStatusUnreachable:
		return "target unreachable"
	default:
		return "unknown"
	}
}

// Error returns the appropriate error for this status, or nil if OK.
func (s ProxyStatus) Error() error {
	switch s {
	case ProxyStatusOK:
		return nil
	case ProxyStatusWrongType:
		return ErrProxyNotSOCKS5
	case ProxyStatusCannotConnect:
		return ErrProxyCannotConnect
	case ProxyStatusTimeout:
		return ErrProxyTimeout
	case ProxyStatusUnreachable:
		return ErrTargetUnreachable
	default:
		return errors.New("unknown proxy status")
	}
}
