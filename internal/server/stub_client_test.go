package server

import (
	"context"
	"io"
	"strings"
	"sync"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"

	"github.com/giantswarm/kubectl-gateway/internal/k8s"
)

// stubClient is a k8s.Client that counts calls and fails every call with err
// when set.
type stubClient struct {
	err error

	mu    sync.Mutex
	calls []string
}

func (c *stubClient) record(op string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, op)
	return c.err
}

func (c *stubClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.calls)
}

func (c *stubClient) deployment(namespace, name string) *appsv1.Deployment {
	return &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Namespace: namespace, Name: name}}
}

func (c *stubClient) List(_ context.Context, _ k8s.ResourceKind, namespace string) (runtime.Object, error) {
	if err := c.record("list"); err != nil {
		return nil, err
	}
	return &corev1.PodList{Items: []corev1.Pod{
		{ObjectMeta: metav1.ObjectMeta{Namespace: namespace, Name: "web-0"}},
	}}, nil
}

func (c *stubClient) Describe(_ context.Context, _ k8s.ResourceKind, namespace, name string) (*k8s.ResourceDescription, error) {
	if err := c.record("describe"); err != nil {
		return nil, err
	}
	return &k8s.ResourceDescription{
		Resource: &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Namespace: namespace, Name: name}},
	}, nil
}

func (c *stubClient) GetLogs(context.Context, string, string, k8s.LogOptions) (io.ReadCloser, error) {
	if err := c.record("logs"); err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader("line 1\nline 2\n")), nil
}

func (c *stubClient) Exec(context.Context, string, string, string, []string) (*k8s.ExecResult, error) {
	if err := c.record("exec"); err != nil {
		return nil, err
	}
	return &k8s.ExecResult{Stdout: "ok\n"}, nil
}

func (c *stubClient) Patch(_ context.Context, namespace, name string, _ types.PatchType, _ []byte) (*appsv1.Deployment, error) {
	if err := c.record("patch"); err != nil {
		return nil, err
	}
	return c.deployment(namespace, name), nil
}

func (c *stubClient) Scale(_ context.Context, namespace, name string, _ int32) (*appsv1.Deployment, error) {
	if err := c.record("scale"); err != nil {
		return nil, err
	}
	return c.deployment(namespace, name), nil
}

func (c *stubClient) SetEnv(_ context.Context, namespace, name string, _ []corev1.EnvVar) (*appsv1.Deployment, error) {
	if err := c.record("set-env"); err != nil {
		return nil, err
	}
	return c.deployment(namespace, name), nil
}

func (c *stubClient) RolloutRestart(_ context.Context, namespace, name string) (*appsv1.Deployment, error) {
	if err := c.record("rollout-restart"); err != nil {
		return nil, err
	}
	return c.deployment(namespace, name), nil
}
