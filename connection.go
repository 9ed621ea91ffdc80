package sharefs

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/hirochachacha/go-smb2"
)

// Transport selects how the remote host is reached.
type Transport int

const (
	// TransportDirectTCP carries the protocol directly over TCP (port 445).
	TransportDirectTCP Transport = iota

	// TransportNetBIOS carries the protocol over the NetBIOS session
	// service (port 139).
	TransportNetBIOS
)

// Port returns the well-known port for the transport.
func (t Transport) Port() int {
	if t == TransportNetBIOS {
		return 139
	}
	return 445
}

func (t Transport) String() string {
	if t == TransportNetBIOS {
		return "netbios"
	}
	return "direct"
}

// ParseTransport parses a transport name from configuration.
func ParseTransport(s string) (Transport, error) {
	switch s {
	case "", "direct", "tcp":
		return TransportDirectTCP, nil
	case "netbios":
		return TransportNetBIOS, nil
	default:
		return 0, fmt.Errorf("unknown transport %q", s)
	}
}

// Connection is one session bound to one host and one attached share.
// It is owned by a single operation or stream and is never shared; it
// closes exactly once, after every handle it produced has been closed.
type Connection struct {
	host  string
	share string
	sess  Session
	store RemoteStore
	log   *slog.Logger

	once     sync.Once
	closeErr error
}

// Store returns the handle-producing capability for the attached share.
func (c *Connection) Store() RemoteStore {
	return c.store
}

// Close tears the session down. Idempotent.
func (c *Connection) Close() error {
	c.once.Do(func() {
		c.closeErr = c.sess.Logoff()
		if c.closeErr != nil {
			c.log.Debug("session logoff failed",
				"host", c.host, "share", c.share, "error", c.closeErr)
		}
	})
	return c.closeErr
}

// SMBDialer establishes SMB sessions over TCP. It is the production
// Dialer implementation.
type SMBDialer struct {
	// Timeout bounds host resolution and the transport connect.
	Timeout time.Duration
}

// Dial resolves host, connects over the chosen transport, and
// authenticates with cred. Name resolution, transport connect, and
// session setup failures surface as distinct error classes.
func (d *SMBDialer) Dial(ctx context.Context, host string, transport Transport, cred *Credential) (Session, error) {
	timeout := d.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	lookupCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	addrs, err := net.DefaultResolver.LookupHost(lookupCtx, host)
	if err != nil || len(addrs) == 0 {
		return nil, fmt.Errorf("%w: lookup %s: %v", ErrHostResolution, host, err)
	}

	dialer := &net.Dialer{Timeout: timeout}
	addr := net.JoinHostPort(addrs[0], strconv.Itoa(transport.Port()))
	netConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", ErrHostUnreachable, addr, err)
	}

	smbDialer := &smb2.Dialer{
		Initiator: &smb2.NTLMInitiator{
			User:     cred.Username,
			Password: cred.Password,
			Domain:   cred.Domain,
		},
	}

	session, err := smbDialer.Dial(netConn)
	if err != nil {
		netConn.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrSessionSetup, host, err)
	}

	return &smbSession{session: session, conn: netConn, host: host}, nil
}

// smbSession adapts a go-smb2 session to the Session interface.
type smbSession struct {
	session *smb2.Session
	conn    net.Conn
	host    string
}

func (s *smbSession) Attach(share string) (RemoteStore, error) {
	mounted, err := s.session.Mount(share)
	if err != nil {
		return nil, fmt.Errorf(`%w: \\%s\%s: %v`, ErrShareAttach, s.host, share, err)
	}
	return newSMBStore(mounted), nil
}

func (s *smbSession) ListShares() ([]string, error) {
	return s.session.ListSharenames()
}

func (s *smbSession) Logoff() error {
	err := s.session.Logoff()
	if cerr := s.conn.Close(); err == nil {
		err = cerr
	}
	return err
}

var _ Dialer = (*SMBDialer)(nil)
