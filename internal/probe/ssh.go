package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"syscall"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/hamed0406/sshcheck/internal/domain"
)

// defaultProbeUser is sent when the request carries no username. The value
// never authenticates anything; credential-less probes only check that an
// SSH service answers.
const defaultProbeUser = "sshcheck"

// SSHProber probes a host by dialing TCP, then attempting the SSH handshake
// and, when a password was supplied, authentication. The zero value is not
// usable; call NewSSHProber.
type SSHProber struct {
	// HostKeyCallback decides whether to trust the server's host key. The
	// default accepts any key without verification, which is fine for
	// diagnostics on a trusted network and unacceptable anywhere adversarial.
	// Swap in ssh.FixedHostKey or a knownhosts callback for strict checking.
	HostKeyCallback ssh.HostKeyCallback

	// Resolver looks up hostnames. Only the first resolved address is dialed.
	Resolver *net.Resolver
}

func NewSSHProber() *SSHProber {
	return &SSHProber{
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Resolver:        net.DefaultResolver,
	}
}

// Probe runs one attempt against req.Host:req.Port bounded by req.Timeout().
// The elapsed time is recorded on every exit path, the TCP connection is
// released on every exit path, and a recovered panic degrades to StatusError.
func (p *SSHProber) Probe(ctx context.Context, req domain.ProbeRequest) (res domain.ProbeResult) {
	start := time.Now()
	res = domain.ProbeResult{Host: req.Host, Port: req.Port}
	defer func() {
		if r := recover(); r != nil {
			res.Status = domain.StatusError
			res.Message = fmt.Sprintf("unexpected error: %v", r)
		}
		res.ResponseTimeMS = float64(time.Since(start)) / float64(time.Millisecond)
		res.Timestamp = time.Now().UTC()
	}()

	timeout := req.Timeout()
	deadline := start.Add(timeout)
	ctx, cancel := context.WithDeadline(ctx, deadline)
	defer cancel()

	addr, err := p.resolve(ctx, req.Host, req.Port)
	if err != nil {
		res.Status, res.Message = classifyDial(err, req, timeout)
		return res
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		res.Status, res.Message = classifyDial(err, req, timeout)
		return res
	}
	defer conn.Close()

	// Bound the handshake by whatever is left of the overall budget. The
	// handshake itself is not context-aware, so cancellation is translated
	// into an immediate connection deadline.
	_ = conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	cfg := &ssh.ClientConfig{
		User:            req.Username,
		HostKeyCallback: p.HostKeyCallback,
		Timeout:         time.Until(deadline),
	}
	if cfg.User == "" {
		cfg.User = defaultProbeUser
	}
	if req.HasCredentials() {
		cfg.Auth = []ssh.AuthMethod{ssh.Password(req.Password)}
	}

	sconn, chans, reqs, err := ssh.NewClientConn(conn, addr, cfg)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			res.Status, res.Message = domain.StatusError, "probe cancelled"
		} else {
			res.Status, res.Message = classifyHandshake(err, req, timeout)
		}
		return res
	}
	banner := string(sconn.ServerVersion())
	_ = ssh.NewClient(sconn, chans, reqs).Close()

	res.Status = domain.StatusConnected
	if banner == "" {
		banner = "connection successful"
	}
	res.Message = banner
	if req.HasCredentials() {
		res.Message = fmt.Sprintf("%s; authentication succeeded for user %q", banner, cfg.User)
	}
	return res
}

// resolve returns the dial address for host:port. Hostnames resolve through
// p.Resolver and only the first returned address is used, so repeated probes
// of a multi-homed name hit the same endpoint.
func (p *SSHProber) resolve(ctx context.Context, host string, port int) (string, error) {
	if ip := net.ParseIP(host); ip != nil {
		return net.JoinHostPort(host, strconv.Itoa(port)), nil
	}
	addrs, err := p.Resolver.LookupHost(ctx, host)
	if err != nil {
		return "", err
	}
	if len(addrs) == 0 {
		return "", &net.DNSError{Err: "no addresses returned", Name: host, IsNotFound: true}
	}
	return net.JoinHostPort(addrs[0], strconv.Itoa(port)), nil
}

// classifyDial maps resolution and TCP connect errors onto the result
// taxonomy: deadline exhaustion is Timeout, everything the network actively
// told us is Failed.
func classifyDial(err error, req domain.ProbeRequest, timeout time.Duration) (domain.Status, string) {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		if dnsErr.IsTimeout {
			return domain.StatusTimeout, fmt.Sprintf("connection timeout after %v (dns lookup)", timeout)
		}
		return domain.StatusFailed, fmt.Sprintf("dns resolution failed: %v", dnsErr)
	}
	if isTimeout(err) {
		return domain.StatusTimeout, fmt.Sprintf("connection timeout after %v", timeout)
	}
	if errors.Is(err, context.Canceled) {
		return domain.StatusError, "probe cancelled"
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return domain.StatusFailed, fmt.Sprintf("connection refused on port %d", req.Port)
	}
	// no route, network unreachable, etc.
	return domain.StatusFailed, err.Error()
}

// classifyHandshake maps SSH negotiation errors. An auth rejection on a
// credential-less probe still proves an SSH service is listening, so it
// counts as Connected; a rejection of supplied credentials is Failed.
func classifyHandshake(err error, req domain.ProbeRequest, timeout time.Duration) (domain.Status, string) {
	if isTimeout(err) {
		return domain.StatusTimeout, fmt.Sprintf("connection timeout after %v during ssh handshake", timeout)
	}
	if errors.Is(err, context.Canceled) {
		return domain.StatusError, "probe cancelled"
	}
	msg := err.Error()
	if strings.Contains(msg, "unable to authenticate") {
		if req.HasCredentials() {
			user := req.Username
			if user == "" {
				user = defaultProbeUser
			}
			return domain.StatusFailed, fmt.Sprintf("authentication failed for user %q", user)
		}
		return domain.StatusConnected, "ssh service running, authentication required"
	}
	if errors.Is(err, io.EOF) || strings.Contains(msg, "connection reset") {
		return domain.StatusError, fmt.Sprintf("unexpected disconnect during handshake: %v", err)
	}
	return domain.StatusFailed, fmt.Sprintf("ssh handshake failed: %v", err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	// x/crypto/ssh flattens some transport errors into strings.
	return strings.Contains(err.Error(), "i/o timeout")
}
