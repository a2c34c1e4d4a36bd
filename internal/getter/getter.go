package getter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// HostType tags the category of execution environment a Getter talks to.
type HostType string

const (
	HostTypeKubernetes HostType = "kubernetes"
	HostTypeDocker     HostType = "docker"
	HostTypeLocal      HostType = "local"
	HostTypeSSH        HostType = "ssh"
)

// HostTypes returns the closed set of supported host-type tags.
func HostTypes() []HostType {
	return []HostType{HostTypeKubernetes, HostTypeDocker, HostTypeLocal, HostTypeSSH}
}

// Command is an opaque command for a backend. It carries either a shell
// line or an argv vector; the backend decides which form it needs. No
// validation is applied here.
type Command struct {
	Line string
	Argv []string
}

// UnmarshalYAML accepts either a scalar shell line or a sequence of
// argv elements, so probe configs can use whichever form a check needs.
func (c *Command) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&c.Line)
	case yaml.SequenceNode:
		return node.Decode(&c.Argv)
	default:
		return fmt.Errorf("command must be a string or a sequence, got %v", node.Tag)
	}
}

// Shell returns the command as a single shell line.
func (c Command) Shell() string {
	if c.Line != "" {
		return c.Line
	}
	return strings.Join(c.Argv, " ")
}

// Vector returns the command as an argv vector. A shell line is wrapped
// in "/bin/sh -c" so backends that exec argv directly can run it.
func (c Command) Vector() []string {
	if len(c.Argv) > 0 {
		return c.Argv
	}
	return []string{"/bin/sh", "-c", c.Line}
}

func (c Command) String() string {
	return c.Shell()
}

// Getter is the capability set every backend implements.
type Getter interface {
	// Get executes cmd against the host and returns the backend's
	// result. The shape is backend-defined: the kubernetes backend
	// returns a permissively parsed literal value, docker and local
	// return a normalize.Output, and ssh returns a raw *ExecResult.
	// A transport failure is never swallowed; it surfaces as a
	// classified error.
	Get(ctx context.Context, cmd Command) (any, error)

	// ReportKey returns the stable identity string used to tag this
	// host's results in the report. Pure: repeated calls on the same
	// getter return identical values.
	ReportKey() string

	// HostType returns the backend tag of this getter.
	HostType() HostType
}

// Host identifies one target host, as written in a hosts file. Which
// fields apply depends on the host type; the fields are immutable once
// the getter is constructed from them.
type Host struct {
	// Kubernetes fields.
	Name      string `yaml:"name,omitempty"`
	Namespace string `yaml:"namespace,omitempty"`
	Container string `yaml:"container,omitempty"`

	// Docker field.
	ContainerID string `yaml:"container_id,omitempty"`

	// SSH field, optionally user@host.
	Address string `yaml:"host,omitempty"`
}

// Constructor builds a Getter of one backend type from a host entry,
// drawing shared client handles from the Sessions.
type Constructor func(s *Sessions, h Host) (Getter, error)

// Resolve maps a host-type tag to the constructor for that backend.
// Unknown tags fail fast with ErrUnsupportedHostType. Pure lookup, no
// side effects: backend handles are only established when the returned
// constructor runs.
func Resolve(t HostType) (Constructor, error) {
	switch t {
	case HostTypeKubernetes:
		return func(s *Sessions, h Host) (Getter, error) {
			ks, err := s.Kube()
			if err != nil {
				return nil, err
			}
			return NewKubernetesGetter(ks, s.logger(), h.Name, h.Namespace, h.Container), nil
		}, nil
	case HostTypeDocker:
		return func(s *Sessions, h Host) (Getter, error) {
			ds, err := s.Docker()
			if err != nil {
				return nil, err
			}
			return NewDockerGetter(ds, s.logger(), h.ContainerID), nil
		}, nil
	case HostTypeSSH:
		return func(s *Sessions, h Host) (Getter, error) {
			return NewSSHGetter(s.logger(), h.Address), nil
		}, nil
	case HostTypeLocal:
		return func(s *Sessions, h Host) (Getter, error) {
			return NewLocalGetter(s.logger()), nil
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedHostType, t)
	}
}

// Sessions lazily establishes the long-lived, process-wide client
// handle for each backend and shares it across every getter of that
// type. Handles are created on first use and live until the process
// exits; concurrency safety beyond that is whatever the underlying
// client library guarantees.
type Sessions struct {
	// Logger is attached to every getter built through Resolve.
	Logger *slog.Logger

	// Kubeconfig and KubeContext override the ambient kubeconfig
	// resolution for the kubernetes backend.
	Kubeconfig  string
	KubeContext string

	kubeOnce sync.Once
	kube     *KubeSession
	kubeErr  error

	dockerOnce sync.Once
	docker     *DockerSession
	dockerErr  error
}

// Kube returns the shared Kubernetes session, establishing it from the
// ambient (or overridden) kubeconfig on first call.
func (s *Sessions) Kube() (*KubeSession, error) {
	s.kubeOnce.Do(func() {
		s.kube, s.kubeErr = NewKubeSession(s.Kubeconfig, s.KubeContext)
	})
	return s.kube, s.kubeErr
}

// Docker returns the shared Docker session, establishing it from the
// local daemon environment on first call.
func (s *Sessions) Docker() (*DockerSession, error) {
	s.dockerOnce.Do(func() {
		s.docker, s.dockerErr = NewDockerSession()
	})
	return s.docker, s.dockerErr
}

func (s *Sessions) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.Default()
}
