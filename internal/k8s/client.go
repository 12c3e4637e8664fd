package k8s

import (
	"context"
	"io"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"
)

// ResourceKind identifies the kinds of cluster objects the gateway can address.
type ResourceKind string

// Supported resource kinds.
const (
	KindPod        ResourceKind = "Pod"
	KindDeployment ResourceKind = "Deployment"
	KindService    ResourceKind = "Service"
)

// String returns the kind name.
func (k ResourceKind) String() string {
	return string(k)
}

// Client defines the cluster operations reachable from a kubectl command.
// Every method performs exactly one logical operation against the API server.
type Client interface {
	// Resource read operations
	ResourceReader

	// Pod operations
	PodManager

	// Deployment mutations
	DeploymentManager
}

// ResourceReader handles read-only resource operations.
type ResourceReader interface {
	// List returns all resources of the given kind in a namespace.
	List(ctx context.Context, kind ResourceKind, namespace string) (runtime.Object, error)

	// Describe returns a single named resource together with its related events.
	Describe(ctx context.Context, kind ResourceKind, namespace, name string) (*ResourceDescription, error)
}

// PodManager handles pod-specific operations.
type PodManager interface {
	// GetLogs retrieves logs from a pod container.
	GetLogs(ctx context.Context, namespace, podName string, opts LogOptions) (io.ReadCloser, error)

	// Exec runs a command inside a pod container and captures its output.
	// It blocks until the remote process exits.
	Exec(ctx context.Context, namespace, podName, containerName string, command []string) (*ExecResult, error)
}

// DeploymentManager handles deployment mutations.
type DeploymentManager interface {
	// Patch applies a patch document to a deployment.
	Patch(ctx context.Context, namespace, name string, patchType types.PatchType, data []byte) (*appsv1.Deployment, error)

	// Scale sets the replica count of a deployment.
	Scale(ctx context.Context, namespace, name string, replicas int32) (*appsv1.Deployment, error)

	// SetEnv replaces the named environment variables on every container of
	// the deployment's pod template.
	SetEnv(ctx context.Context, namespace, name string, env []corev1.EnvVar) (*appsv1.Deployment, error)

	// RolloutRestart triggers a rolling restart of a deployment.
	RolloutRestart(ctx context.Context, namespace, name string) (*appsv1.Deployment, error)
}

// ResourceDescription contains detailed information about a resource.
type ResourceDescription struct {
	Resource runtime.Object `json:"resource"`
	Events   []corev1.Event `json:"events,omitempty"`
}

// LogOptions configures log retrieval.
type LogOptions struct {
	Container string `json:"container,omitempty"`
	TailLines *int64 `json:"tailLines,omitempty"`
}

// ExecResult contains the result of command execution.
type ExecResult struct {
	ExitCode int    `json:"exitCode"`
	Stdout   string `json:"stdout"`
	Stderr   string `json:"stderr,omitempty"`
}
