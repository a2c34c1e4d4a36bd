package getter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/version"
	fakediscovery "k8s.io/client-go/discovery/fake"
	"k8s.io/client-go/kubernetes/fake"
)

func TestParseCPU(t *testing.T) {
	tests := []struct {
		input string
		want  float64
	}{
		{"500m", 0.5},
		{"2", 2},
		{"0", 0},
		{"1500m", 1.5},
	}
	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := parseCPU(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	t.Run("garbage fails", func(t *testing.T) {
		_, err := parseCPU("lots")
		assert.Error(t, err)
	})
}

func TestParseMem(t *testing.T) {
	got, err := parseMem("1048576Ki")
	require.NoError(t, err)
	assert.Equal(t, int64(1048576), got)

	got, err = parseMem("16Gi")
	require.NoError(t, err)
	assert.Equal(t, int64(16), got)

	_, err = parseMem("Ki")
	assert.Error(t, err)
}

func TestCloudProvider(t *testing.T) {
	assert.Equal(t, "gke", cloudProvider("v1.30.1-gke.400"))
	assert.Equal(t, "eks", cloudProvider("v1.29.0-eks-a5df82a"))
	assert.Equal(t, "aks", cloudProvider("v1.28.3-az1"))
	assert.Empty(t, cloudProvider("v1.30.1"))
}

func clusterNode(name, cpu, memory string) *corev1.Node {
	resources := corev1.ResourceList{
		corev1.ResourceCPU:    resource.MustParse(cpu),
		corev1.ResourceMemory: resource.MustParse(memory),
	}
	return &corev1.Node{
		ObjectMeta: metav1.ObjectMeta{Name: name},
		Status: corev1.NodeStatus{
			Allocatable: resources,
			Capacity:    resources,
		},
	}
}

func TestKubeSession_ClusterInfo(t *testing.T) {
	clientset := fake.NewClientset(
		clusterNode("node-a", "500m", "1048576Ki"),
		clusterNode("node-b", "2", "2097152Ki"),
	)
	clientset.Discovery().(*fakediscovery.FakeDiscovery).FakedServerVersion = &version.Info{
		GitVersion: "v1.30.1-gke.400",
	}
	session := &KubeSession{Client: clientset}

	info, err := session.ClusterInfo(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "v1.30.1-gke.400", info.Version)
	assert.Equal(t, "gke", info.Provider)
	assert.Equal(t, 2.5, info.AllocatedCPU)
	assert.Equal(t, 2.5, info.CapacityCPU)
	// 3 Gi of Ki across both nodes
	assert.Equal(t, int64(3), info.AllocatedGB)
	assert.Equal(t, int64(3), info.CapacityGB)
}

func TestKubeSession_ClusterInfo_NoNodes(t *testing.T) {
	clientset := fake.NewClientset()
	clientset.Discovery().(*fakediscovery.FakeDiscovery).FakedServerVersion = &version.Info{
		GitVersion: "v1.30.1",
	}
	session := &KubeSession{Client: clientset}

	info, err := session.ClusterInfo(t.Context())
	require.NoError(t, err)
	assert.Empty(t, info.Provider)
	assert.Zero(t, info.AllocatedCPU)
	assert.Zero(t, info.CapacityGB)
}
