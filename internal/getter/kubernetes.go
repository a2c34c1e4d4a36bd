package getter

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/tools/remotecommand"

	"github.com/periscope-tools/periscope/internal/logging"
	"github.com/periscope-tools/periscope/internal/normalize"
)

const (
	// SchedulerLabelSelector matches the scheduler pods autodiscovery
	// looks for across all namespaces.
	SchedulerLabelSelector = "component=scheduler"

	// DefaultContainer is the container execs target when the host
	// entry does not name one.
	DefaultContainer = "scheduler"
)

// KubeSession is the shared cluster-API handle: one clientset and rest
// config per process, injected into every kubernetes getter.
type KubeSession struct {
	Client kubernetes.Interface
	Config *rest.Config
}

// NewKubeSession establishes the session from the ambient kubeconfig.
// kubeconfigPath and contextName are optional overrides; empty values
// fall back to the standard loading rules (KUBECONFIG, ~/.kube/config)
// and the current context.
func NewKubeSession(kubeconfigPath, contextName string) (*KubeSession, error) {
	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if kubeconfigPath != "" {
		loadingRules.ExplicitPath = kubeconfigPath
	}
	overrides := &clientcmd.ConfigOverrides{CurrentContext: contextName}

	config, err := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(loadingRules, overrides).ClientConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
	}

	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset: %w", err)
	}

	return &KubeSession{Client: clientset, Config: config}, nil
}

// PodRecord describes one scheduler pod found by autodiscovery. The
// shape is the handoff format to getter construction and stays stable
// for callers that persist discovery results between runs.
type PodRecord struct {
	Name      string `json:"name" yaml:"name"`
	Namespace string `json:"namespace" yaml:"namespace"`
	Container string `json:"container" yaml:"container"`
}

// Autodiscover lists scheduler pods across all namespaces. Zero
// matches yields an empty list, not an error.
func (s *KubeSession) Autodiscover(ctx context.Context) ([]PodRecord, error) {
	pods, err := s.Client.CoreV1().Pods(metav1.NamespaceAll).List(ctx, metav1.ListOptions{
		LabelSelector: SchedulerLabelSelector,
	})
	if err != nil {
		return nil, &BackendError{HostType: HostTypeKubernetes, Op: "list pods", Err: err}
	}

	records := make([]PodRecord, 0, len(pods.Items))
	for _, pod := range pods.Items {
		records = append(records, PodRecord{
			Name:      pod.Name,
			Namespace: pod.Namespace,
			Container: DefaultContainer,
		})
	}
	return records, nil
}

// KubernetesGetter executes commands inside one pod container over the
// shared cluster session.
type KubernetesGetter struct {
	session   *KubeSession
	logger    *slog.Logger
	name      string
	namespace string
	container string
}

// NewKubernetesGetter binds a getter to the named pod. An empty
// container defaults to the scheduler container.
func NewKubernetesGetter(session *KubeSession, logger *slog.Logger, name, namespace, container string) *KubernetesGetter {
	if container == "" {
		container = DefaultContainer
	}
	g := &KubernetesGetter{
		session:   session,
		name:      name,
		namespace: namespace,
		container: container,
	}
	g.logger = logging.WithHost(logger, string(HostTypeKubernetes), g.ReportKey())
	return g
}

func (g *KubernetesGetter) HostType() HostType {
	return HostTypeKubernetes
}

func (g *KubernetesGetter) ReportKey() string {
	return g.namespace + "|" + g.name
}

// Get checks the pod is present and past Pending, execs cmd in its
// container, and parses the concatenated stdout with the permissive
// literal parser. Scheduler commands print repr()-style structures, so
// strict JSON decoding is deliberately not required here.
func (g *KubernetesGetter) Get(ctx context.Context, cmd Command) (any, error) {
	if err := g.checkPod(ctx); err != nil {
		return nil, err
	}

	g.logger.Debug("exec in pod", logging.Operation("exec"), slog.String("command", cmd.Shell()))
	stdout, err := g.exec(ctx, cmd.Vector())
	if err != nil {
		return nil, &BackendError{HostType: HostTypeKubernetes, Op: "exec", Err: err}
	}

	value, err := normalize.Literal(stdout)
	if err != nil {
		return nil, fmt.Errorf("parse exec output from pod %s/%s: %w", g.namespace, g.name, err)
	}
	return value, nil
}

// checkPod verifies the target pod exists and is not pending. A 404 on
// the read is tolerated: the pod being replaced or restarting is itself
// an informative signal, and the exec attempt will surface a hard
// failure if the pod is truly gone. Any other API error is fatal.
func (g *KubernetesGetter) checkPod(ctx context.Context) error {
	pod, err := g.session.Client.CoreV1().Pods(g.namespace).Get(ctx, g.name, metav1.GetOptions{})
	if err != nil {
		if apierrors.IsNotFound(err) {
			g.logger.Debug("pod not found on readiness check, continuing")
			return nil
		}
		return &BackendError{HostType: HostTypeKubernetes, Op: "read pod", Err: err}
	}

	if pod.Status.Phase == corev1.PodPending {
		return fmt.Errorf("%w: pod %s/%s is pending", ErrPodUnavailable, g.namespace, g.name)
	}
	return nil
}

func (g *KubernetesGetter) exec(ctx context.Context, command []string) (string, error) {
	req := g.session.Client.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(g.name).
		Namespace(g.namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: g.container,
			Command:   command,
			Stdout:    true,
			Stderr:    true,
		}, scheme.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(g.session.Config, http.MethodPost, req.URL())
	if err != nil {
		return "", fmt.Errorf("failed to create executor: %w", err)
	}

	var stdout, stderr bytes.Buffer
	err = exec.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdout: &stdout,
		Stderr: &stderr,
	})
	if err != nil {
		return "", fmt.Errorf("failed to execute command in pod %s/%s: %w", g.namespace, g.name, err)
	}

	if stderr.Len() > 0 {
		g.logger.Debug("exec stderr", slog.String("stderr", stderr.String()))
	}
	return stdout.String(), nil
}

// Precheck is reserved for backend-specific health probes (database
// reachability, certificate validity) that are not supported yet.
func (g *KubernetesGetter) Precheck(ctx context.Context) error {
	return fmt.Errorf("precheck: %w", ErrNotImplemented)
}
