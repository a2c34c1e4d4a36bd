package getter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"

	"github.com/periscope-tools/periscope/internal/logging"
)

// ExecResult is the raw result of a remote shell command. The ssh
// backend deliberately returns it unnormalized, unlike the other
// backends; see the package documentation.
type ExecResult struct {
	Host     string `json:"host"`
	Command  string `json:"command"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr"`
	ExitCode int    `json:"exit_code"`
}

// SSHGetter runs commands on a remote host over SSH. Authentication is
// ambient: the running agent and the default keys in ~/.ssh, with host
// keys checked against known_hosts.
type SSHGetter struct {
	logger *slog.Logger
	host   string
}

// NewSSHGetter binds a getter to the given address, optionally of the
// form user@host.
func NewSSHGetter(logger *slog.Logger, host string) *SSHGetter {
	return &SSHGetter{
		logger: logging.WithHost(logger, string(HostTypeSSH), host),
		host:   host,
	}
}

func (g *SSHGetter) HostType() HostType {
	return HostTypeSSH
}

func (g *SSHGetter) ReportKey() string {
	return g.host
}

// Get opens a session to the host and runs cmd without echoing it on
// the remote side. A non-zero exit status is not an error: it is
// recorded in the result, and only transport failures are classified
// as errors.
func (g *SSHGetter) Get(ctx context.Context, cmd Command) (any, error) {
	userName, addr := splitUserHost(g.host)

	config, err := clientConfig(userName)
	if err != nil {
		return nil, &BackendError{HostType: HostTypeSSH, Op: "configure", Err: err}
	}

	g.logger.Debug("running remote command", logging.Operation("exec"), slog.String("command", cmd.Shell()))

	conn, err := (&net.Dialer{Timeout: config.Timeout}).DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, &BackendError{HostType: HostTypeSSH, Op: "dial", Err: err}
	}

	clientConn, chans, reqs, err := ssh.NewClientConn(conn, addr, config)
	if err != nil {
		conn.Close()
		return nil, &BackendError{HostType: HostTypeSSH, Op: "handshake", Err: err}
	}
	client := ssh.NewClient(clientConn, chans, reqs)
	defer client.Close()

	session, err := client.NewSession()
	if err != nil {
		return nil, &BackendError{HostType: HostTypeSSH, Op: "open session", Err: err}
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	result := &ExecResult{Host: g.host, Command: cmd.Shell()}
	if err := session.Run(cmd.Shell()); err != nil {
		var exitErr *ssh.ExitError
		if !errors.As(err, &exitErr) {
			return nil, &BackendError{HostType: HostTypeSSH, Op: "run", Err: err}
		}
		result.ExitCode = exitErr.ExitStatus()
	}

	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	return result, nil
}

// splitUserHost separates an optional user@ prefix and defaults the
// port to 22 when the address does not carry one.
func splitUserHost(host string) (userName, addr string) {
	addr = host
	if at := strings.LastIndex(host, "@"); at >= 0 {
		userName = host[:at]
		addr = host[at+1:]
	}
	if _, _, err := net.SplitHostPort(addr); err != nil {
		addr = net.JoinHostPort(addr, "22")
	}
	return userName, addr
}

// clientConfig assembles the ambient SSH configuration: agent identities
// first, then the default private keys, with known_hosts verification.
func clientConfig(userName string) (*ssh.ClientConfig, error) {
	if userName == "" {
		current, err := user.Current()
		if err != nil {
			return nil, fmt.Errorf("resolve local user: %w", err)
		}
		userName = current.Username
	}

	var methods []ssh.AuthMethod
	if sock := os.Getenv("SSH_AUTH_SOCK"); sock != "" {
		if conn, err := net.Dial("unix", sock); err == nil {
			methods = append(methods, ssh.PublicKeysCallback(agent.NewClient(conn).Signers))
		}
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	for _, name := range []string{"id_ed25519", "id_rsa"} {
		data, err := os.ReadFile(filepath.Join(home, ".ssh", name))
		if err != nil {
			continue
		}
		signer, err := ssh.ParsePrivateKey(data)
		if err != nil {
			continue
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if len(methods) == 0 {
		return nil, errors.New("no usable ssh identity: no agent and no default key in ~/.ssh")
	}

	hostKeys, err := knownhosts.New(filepath.Join(home, ".ssh", "known_hosts"))
	if err != nil {
		return nil, fmt.Errorf("load known_hosts: %w", err)
	}

	return &ssh.ClientConfig{
		User:            userName,
		Auth:            methods,
		HostKeyCallback: hostKeys,
		Timeout:         30 * time.Second,
	}, nil
}
