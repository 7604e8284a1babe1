package utils

import (
	"context"
	"encoding/hex"
	"errors"
	"path/filepath"
	"strconv"
	"time"

	"github.com/CloudEngineHub/headlamp/domain"
	"github.com/SergJa/jsonhash"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/client-go/dynamic"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"
	"k8s.io/client-go/util/homedir"
)

func CanonicalHash(in []byte) (string, error) {
	hash, err := jsonhash.CalculateJsonHash(in, []string{
		".status.conditions", // avoid Pod.status.conditions.lastProbeTime: null
	})
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(hash[:]), nil
}

// ContextWithMsgId tags ctx with msgId, generating one when empty.
func ContextWithMsgId(parent context.Context, msgId string) context.Context {
	if msgId == "" {
		msgId = uuid.NewString()
	}
	return context.WithValue(parent, domain.ContextKeyMsgId, msgId)
}

func MsgIdFromContext(ctx context.Context) string {
	if msgId, ok := ctx.Value(domain.ContextKeyMsgId).(string); ok {
		return msgId
	}
	return ""
}

// CompareResourceVersions compares two resource versions when both are numeric.
// ok is false when either version is opaque, in which case no ordering can be assumed.
func CompareResourceVersions(a, b string) (cmp int, ok bool) {
	av, err := strconv.ParseUint(a, 10, 64)
	if err != nil {
		return 0, false
	}
	bv, err := strconv.ParseUint(b, 10, 64)
	if err != nil {
		return 0, false
	}
	switch {
	case av < bv:
		return -1, true
	case av > bv:
		return 1, true
	default:
		return 0, true
	}
}

// RemoveManagedFields drops server side apply bookkeeping, which changes on every write
// and would otherwise defeat checksum based deduplication.
func RemoveManagedFields(obj *unstructured.Unstructured) {
	if obj == nil {
		return
	}
	unstructured.RemoveNestedField(obj.Object, "metadata", "managedFields")
}

// NewBackOff returns the exponential backoff used for reconnections; it never gives up.
func NewBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 30 * time.Second
	b.MaxElapsedTime = 0
	return b
}

// NewClient returns a dynamic client, preferring in-cluster config over kubeconfig.
func NewClient(kubeconfig string) (dynamic.Interface, error) {
	clusterConfig, err := getConfig(kubeconfig)
	if err != nil {
		return nil, err
	}
	dynClient, err := dynamic.NewForConfig(clusterConfig)
	if err != nil {
		return nil, err
	}
	return dynClient, nil
}

// NewClientset returns a typed client, used for discovery and node lookups.
func NewClientset(kubeconfig string) (kubernetes.Interface, error) {
	clusterConfig, err := getConfig(kubeconfig)
	if err != nil {
		return nil, err
	}
	return kubernetes.NewForConfig(clusterConfig)
}

func getConfig(kubeconfig string) (*rest.Config, error) {
	// try in-cluster config first
	clusterConfig, err := rest.InClusterConfig()
	if err == nil {
		return clusterConfig, nil
	}
	// fallback to kubeconfig
	if kubeconfig == "" {
		if home := homedir.HomeDir(); home != "" {
			kubeconfig = filepath.Join(home, ".kube", "config")
		}
	}
	clusterConfig, err = clientcmd.BuildConfigFromFlags("", kubeconfig)
	if err == nil {
		return clusterConfig, nil
	}
	// nothing works
	return nil, errors.New("unable to find config")
}
