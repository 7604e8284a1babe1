package incluster

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kubescape/go-logger"
	"github.com/kubescape/go-logger/helpers"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
)

// ClusterInfo describes the cluster the dashboard is connected to.
type ClusterInfo struct {
	GitVersion    string
	CloudProvider string
}

// cloud providers by providerID scheme
var providers = map[string]string{
	"aws":          "eks",
	"gce":          "gke",
	"azure":        "aks",
	"oci":          "oracle",
	"digitalocean": "digitalocean",
	"openstack":    "openstack",
	"vsphere":      "vsphere",
	"ibm":          "ibm",
	"linode":       "linode",
}

const unknownVersion = "Unknown"

// GetClusterInfo never fails; missing values are logged and left empty.
func GetClusterInfo(ctx context.Context, client kubernetes.Interface) ClusterInfo {
	info := ClusterInfo{GitVersion: unknownVersion}

	cloudProvider, err := getCloudProvider(ctx, client)
	if err != nil {
		logger.L().Ctx(ctx).Warning("failed to detect cloud provider", helpers.Error(err))
	} else {
		info.CloudProvider = cloudProvider
		logger.L().Info("cloud provider", helpers.String("cloudProvider", cloudProvider))
	}

	serverVersion, err := client.Discovery().ServerVersion()
	if err != nil {
		logger.L().Ctx(ctx).Warning("failed to get api server version", helpers.Error(err))
	} else {
		info.GitVersion = serverVersion.GitVersion
		logger.L().Info("cluster api server", helpers.String("GitVersion", info.GitVersion))
	}
	return info
}

func getCloudProvider(ctx context.Context, client kubernetes.Interface) (string, error) {
	// one node is enough, they share the provider
	nodeList, err := client.CoreV1().Nodes().List(ctx, metav1.ListOptions{Limit: 1})
	if err != nil {
		return "", fmt.Errorf("list nodes: %w", err)
	}
	if len(nodeList.Items) == 0 {
		return "", errors.New("no nodes found in the cluster")
	}
	return getCloudProviderFromNode(&nodeList.Items[0]), nil
}

// getCloudProviderFromNode reads spec.providerID, either "<provider>://<details>" or a bare OCI OCID.
func getCloudProviderFromNode(node *corev1.Node) string {
	providerID := strings.ToLower(node.Spec.ProviderID)
	if scheme, _, found := strings.Cut(providerID, "://"); found {
		return providers[scheme]
	}
	if strings.HasPrefix(providerID, "ocid") {
		return providers["oci"]
	}
	return ""
}
