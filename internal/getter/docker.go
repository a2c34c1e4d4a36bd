package getter

import (
	"bytes"
	"context"
	"log/slog"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"

	"github.com/periscope-tools/periscope/internal/logging"
	"github.com/periscope-tools/periscope/internal/normalize"
)

// containerNameFilter is the substring autodiscovery matches against
// container names.
const containerNameFilter = "scheduler"

// shortIDLength matches the daemon's truncated container id form.
const shortIDLength = 12

// DockerAPI is the slice of the daemon client the backend uses.
// Narrowed from client.APIClient so tests can fake it.
type DockerAPI interface {
	ContainerList(ctx context.Context, options container.ListOptions) ([]types.Container, error)
	ContainerExecCreate(ctx context.Context, container string, options container.ExecOptions) (types.IDResponse, error)
	ContainerExecAttach(ctx context.Context, execID string, options container.ExecAttachOptions) (types.HijackedResponse, error)
}

// DockerSession is the shared daemon handle: one client per process,
// created from the local daemon socket and environment.
type DockerSession struct {
	Client DockerAPI
}

// NewDockerSession connects to the local daemon using the ambient
// environment (DOCKER_HOST and friends).
func NewDockerSession() (*DockerSession, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, &BackendError{HostType: HostTypeDocker, Op: "connect to daemon", Err: err}
	}
	return &DockerSession{Client: cli}, nil
}

// ContainerRecord describes one scheduler container found by
// autodiscovery, identified by its short id. The shape is the handoff
// format to getter construction and stays stable for callers that
// persist discovery results between runs.
type ContainerRecord struct {
	ContainerID string `json:"container_id" yaml:"container_id"`
}

// Autodiscover lists running containers whose name matches the
// scheduler filter. Zero matches yields an empty list, not an error.
func (s *DockerSession) Autodiscover(ctx context.Context) ([]ContainerRecord, error) {
	containers, err := s.Client.ContainerList(ctx, container.ListOptions{
		Filters: filters.NewArgs(filters.Arg("name", containerNameFilter)),
	})
	if err != nil {
		return nil, &BackendError{HostType: HostTypeDocker, Op: "list containers", Err: err}
	}

	records := make([]ContainerRecord, 0, len(containers))
	for _, c := range containers {
		records = append(records, ContainerRecord{ContainerID: shortID(c.ID)})
	}
	return records, nil
}

func shortID(id string) string {
	if len(id) > shortIDLength {
		return id[:shortIDLength]
	}
	return id
}

// DockerGetter executes commands inside one container over the shared
// daemon session.
type DockerGetter struct {
	session     *DockerSession
	logger      *slog.Logger
	containerID string
}

// NewDockerGetter binds a getter to the container with the given id.
func NewDockerGetter(session *DockerSession, logger *slog.Logger, containerID string) *DockerGetter {
	return &DockerGetter{
		session:     session,
		logger:      logging.WithHost(logger, string(HostTypeDocker), containerID),
		containerID: containerID,
	}
}

func (g *DockerGetter) HostType() HostType {
	return HostTypeDocker
}

func (g *DockerGetter) ReportKey() string {
	return g.containerID
}

// Get execs cmd inside the container via the daemon API, decodes the
// captured stdout as text and normalizes it.
func (g *DockerGetter) Get(ctx context.Context, cmd Command) (any, error) {
	g.logger.Debug("exec in container", logging.Operation("exec"), slog.String("command", cmd.Shell()))

	created, err := g.session.Client.ContainerExecCreate(ctx, g.containerID, container.ExecOptions{
		Cmd:          cmd.Vector(),
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return nil, &BackendError{HostType: HostTypeDocker, Op: "create exec", Err: err}
	}

	attached, err := g.session.Client.ContainerExecAttach(ctx, created.ID, container.ExecAttachOptions{})
	if err != nil {
		return nil, &BackendError{HostType: HostTypeDocker, Op: "attach exec", Err: err}
	}
	defer attached.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attached.Reader); err != nil {
		return nil, &BackendError{HostType: HostTypeDocker, Op: "read exec output", Err: err}
	}

	if stderr.Len() > 0 {
		g.logger.Debug("exec stderr", slog.String("stderr", stderr.String()))
	}
	return normalize.Normalize(stdout.String()), nil
}
