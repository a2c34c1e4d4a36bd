package getter

import (
	"context"
	"strconv"
	"strings"

	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

// ClusterInfo summarizes cluster capacity for the report. CPU is in
// whole cores, memory in Gi. Provider is empty when the version string
// does not identify a managed offering.
type ClusterInfo struct {
	Version      string  `json:"version"`
	Provider     string  `json:"provider,omitempty"`
	AllocatedCPU float64 `json:"allocated_cpu"`
	AllocatedGB  int64   `json:"allocated_gb"`
	CapacityCPU  float64 `json:"capacity_cpu"`
	CapacityGB   int64   `json:"capacity_gb"`
}

// ClusterInfo aggregates server version, inferred cloud provider, and
// allocatable vs. capacity totals across all nodes.
func (s *KubeSession) ClusterInfo(ctx context.Context) (*ClusterInfo, error) {
	serverVersion, err := s.Client.Discovery().ServerVersion()
	if err != nil {
		return nil, &BackendError{HostType: HostTypeKubernetes, Op: "server version", Err: err}
	}

	nodes, err := s.Client.CoreV1().Nodes().List(ctx, metav1.ListOptions{})
	if err != nil {
		return nil, &BackendError{HostType: HostTypeKubernetes, Op: "list nodes", Err: err}
	}

	info := &ClusterInfo{
		Version:  serverVersion.GitVersion,
		Provider: cloudProvider(serverVersion.GitVersion),
	}

	var allocatedKi, capacityKi int64
	for i := range nodes.Items {
		status := &nodes.Items[i].Status

		cpu, err := parseCPU(status.Allocatable.Cpu().String())
		if err != nil {
			return nil, err
		}
		info.AllocatedCPU += cpu

		cpu, err = parseCPU(status.Capacity.Cpu().String())
		if err != nil {
			return nil, err
		}
		info.CapacityCPU += cpu

		mem, err := parseMem(status.Allocatable.Memory().String())
		if err != nil {
			return nil, err
		}
		allocatedKi += mem

		mem, err = parseMem(status.Capacity.Memory().String())
		if err != nil {
			return nil, err
		}
		capacityKi += mem
	}

	info.AllocatedGB = allocatedKi / (1024 * 1024)
	info.CapacityGB = capacityKi / (1024 * 1024)
	return info, nil
}

// cloudProvider infers the managed offering from substrings the
// providers stamp into their server version strings.
func cloudProvider(version string) string {
	switch {
	case strings.Contains(version, "gke"):
		return "gke"
	case strings.Contains(version, "eks"):
		return "eks"
	case strings.Contains(version, "az"):
		return "aks"
	default:
		return ""
	}
}

// parseCPU converts a node CPU quantity to whole cores: milli-unit
// values carry an "m" suffix, everything else is whole units.
func parseCPU(quantity string) (float64, error) {
	if strings.HasSuffix(quantity, "m") {
		milli, err := strconv.Atoi(strings.TrimSuffix(quantity, "m"))
		if err != nil {
			return 0, &BackendError{HostType: HostTypeKubernetes, Op: "parse cpu quantity " + strconv.Quote(quantity), Err: err}
		}
		return float64(milli) / 1000, nil
	}
	whole, err := strconv.Atoi(quantity)
	if err != nil {
		return 0, &BackendError{HostType: HostTypeKubernetes, Op: "parse cpu quantity " + strconv.Quote(quantity), Err: err}
	}
	return float64(whole), nil
}

// parseMem strips the two-character unit suffix node memory quantities
// always carry (typically Ki) and returns the count. The caller
// converts the Ki sum to Gi.
func parseMem(quantity string) (int64, error) {
	if len(quantity) < 3 {
		return 0, &BackendError{
			HostType: HostTypeKubernetes,
			Op:       "parse memory quantity " + strconv.Quote(quantity),
			Err:      strconv.ErrSyntax,
		}
	}
	count, err := strconv.ParseInt(quantity[:len(quantity)-2], 10, 64)
	if err != nil {
		return 0, &BackendError{HostType: HostTypeKubernetes, Op: "parse memory quantity " + strconv.Quote(quantity), Err: err}
	}
	return count, nil
}
