package getter

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"time"

	"github.com/periscope-tools/periscope/internal/logging"
	"github.com/periscope-tools/periscope/internal/normalize"
)

// LocalGetter runs commands on the local machine. It is stateless:
// every operation is process-wide, not instance-bound.
type LocalGetter struct {
	logger *slog.Logger
}

func NewLocalGetter(logger *slog.Logger) *LocalGetter {
	return &LocalGetter{logger: logger}
}

// LocalOptions are pass-through knobs for local execution.
type LocalOptions struct {
	// Timeout bounds the process run; zero means no limit.
	Timeout time.Duration

	// Warn tolerates a non-zero exit status instead of failing.
	Warn bool
}

func (g *LocalGetter) HostType() HostType {
	return HostTypeLocal
}

// ReportKey is the local hostname, resolved at call time rather than
// cached so renames are picked up between calls.
func (g *LocalGetter) ReportKey() string {
	name, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return name
}

// Get runs cmd in a local process with default options.
func (g *LocalGetter) Get(ctx context.Context, cmd Command) (any, error) {
	return g.GetWith(ctx, cmd, LocalOptions{})
}

// GetWith runs cmd in a local process, echoing the command for
// observability, and normalizes the captured stdout.
func (g *LocalGetter) GetWith(ctx context.Context, cmd Command, opts LocalOptions) (any, error) {
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	g.logger.Info("running local command", logging.Operation("exec"), slog.String("command", cmd.Shell()))

	argv := cmd.Vector()
	proc := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	if err := proc.Run(); err != nil {
		var exitErr *exec.ExitError
		if !opts.Warn || !errors.As(err, &exitErr) {
			return nil, &BackendError{HostType: HostTypeLocal, Op: "run", Err: err}
		}
		g.logger.Warn("local command exited non-zero",
			slog.String("command", cmd.Shell()),
			slog.Int("exit_code", exitErr.ExitCode()),
			slog.String("stderr", stderr.String()))
	}

	if stderr.Len() > 0 {
		g.logger.Debug("local command stderr", slog.String("stderr", stderr.String()))
	}
	return normalize.Normalize(stdout.String()), nil
}

// Verify runs the fixed local health probes and returns their
// normalized output keyed by probe name. Currently the helm release
// listing; further local probes hang off the same map.
func (g *LocalGetter) Verify(ctx context.Context) (map[string]any, error) {
	out, err := g.Get(ctx, Command{Line: "helm ls -aA -o json"})
	if err != nil {
		return nil, err
	}
	return map[string]any{"helm": out}, nil
}
