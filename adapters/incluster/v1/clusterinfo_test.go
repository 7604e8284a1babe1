package incluster

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/version"
	fakediscovery "k8s.io/client-go/discovery/fake"
	"k8s.io/client-go/kubernetes/fake"
)

func TestGetCloudProviderFromNode(t *testing.T) {
	tests := []struct {
		name       string
		providerID string
		expected   string
	}{
		{
			name:       "AWS standard format",
			providerID: "aws:///eu-west-1a/i-099ef91944855a3fe",
			expected:   "eks",
		},
		{
			name:       "GCE standard format",
			providerID: "gce://my-project/us-central1-a/my-node",
			expected:   "gke",
		},
		{
			name:       "Azure standard format",
			providerID: "azure:///subscriptions/xxx/resourceGroups/rg/providers/Microsoft.Compute/virtualMachines/vm",
			expected:   "aks",
		},
		{
			name:       "OCI standard format with oci:// prefix",
			providerID: "oci://ocid1.instance.oc1.iad.abcd1234",
			expected:   "oracle",
		},
		{
			name:       "Linode standard format",
			providerID: "linode://12345678",
			expected:   "linode",
		},
		{
			name:       "OCI bare OCID uppercase",
			providerID: "OCID1.INSTANCE.OC1.IAD.ANUWCLJSMLHFDNYCAOHQTKZFRCSIOOV",
			expected:   "oracle",
		},
		{
			name:       "empty providerID",
			providerID: "",
			expected:   "",
		},
		{
			name:       "unknown provider",
			providerID: "somethingelse://12345",
			expected:   "",
		},
		{
			name:       "bare unknown string",
			providerID: "random-string-no-provider",
			expected:   "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			node := &corev1.Node{
				ObjectMeta: metav1.ObjectMeta{Name: "test-node"},
				Spec: corev1.NodeSpec{
					ProviderID: tt.providerID,
				},
			}
			assert.Equal(t, tt.expected, getCloudProviderFromNode(node))
		})
	}
}

func TestGetClusterInfo(t *testing.T) {
	tests := []struct {
		name  string
		nodes []corev1.Node
		want  ClusterInfo
	}{
		{
			name: "provider from the first node",
			nodes: []corev1.Node{{
				ObjectMeta: metav1.ObjectMeta{Name: "node-1"},
				Spec:       corev1.NodeSpec{ProviderID: "gce://project/zone/node-1"},
			}},
			want: ClusterInfo{GitVersion: "v1.29.4", CloudProvider: "gke"},
		},
		{
			name: "no nodes",
			want: ClusterInfo{GitVersion: "v1.29.4"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := fake.NewSimpleClientset()
			for i := range tt.nodes {
				_, err := client.CoreV1().Nodes().Create(context.Background(), &tt.nodes[i], metav1.CreateOptions{})
				assert.NoError(t, err)
			}
			client.Discovery().(*fakediscovery.FakeDiscovery).FakedServerVersion = &version.Info{GitVersion: "v1.29.4"}
			assert.Equal(t, tt.want, GetClusterInfo(context.Background(), client))
		})
	}
}
