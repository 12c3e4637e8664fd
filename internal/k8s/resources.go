package k8s

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/fields"
	"k8s.io/apimachinery/pkg/runtime"

	"github.com/giantswarm/kubectl-gateway/internal/logging"
)

// ResourceReader implementation

// List returns all resources of the given kind in a namespace.
func (c *kubernetesClient) List(ctx context.Context, kind ResourceKind, namespace string) (runtime.Object, error) {
	if err := c.checkAccess(OperationList, namespace); err != nil {
		return nil, err
	}

	c.logOperation(OperationList, namespace, kind, "")
	listStart := time.Now()

	var (
		list runtime.Object
		err  error
	)

	switch kind {
	case KindPod:
		list, err = c.clientset.CoreV1().Pods(namespace).List(ctx, metav1.ListOptions{})
	case KindDeployment:
		list, err = c.clientset.AppsV1().Deployments(namespace).List(ctx, metav1.ListOptions{})
	case KindService:
		list, err = c.clientset.CoreV1().Services(namespace).List(ctx, metav1.ListOptions{})
	default:
		return nil, fmt.Errorf("unsupported resource kind %q", kind)
	}

	if err != nil {
		c.logger.Debug("K8s API list failed",
			logging.ResourceType(kind.String()),
			slog.Duration("elapsed", time.Since(listStart)),
			logging.SanitizedErr(err))
		return nil, fmt.Errorf("failed to list %s in namespace %s: %w", kind, namespace, err)
	}

	c.logger.Debug("K8s API list completed",
		logging.ResourceType(kind.String()),
		slog.Duration("elapsed", time.Since(listStart)))

	return list, nil
}

// Describe returns a single named resource together with its related events.
func (c *kubernetesClient) Describe(ctx context.Context, kind ResourceKind, namespace, name string) (*ResourceDescription, error) {
	if err := c.checkAccess(OperationDescribe, namespace); err != nil {
		return nil, err
	}

	c.logOperation(OperationDescribe, namespace, kind, name)

	var (
		obj runtime.Object
		err error
	)

	switch kind {
	case KindPod:
		obj, err = c.clientset.CoreV1().Pods(namespace).Get(ctx, name, metav1.GetOptions{})
	case KindDeployment:
		obj, err = c.clientset.AppsV1().Deployments(namespace).Get(ctx, name, metav1.GetOptions{})
	case KindService:
		obj, err = c.clientset.CoreV1().Services(namespace).Get(ctx, name, metav1.GetOptions{})
	default:
		return nil, fmt.Errorf("unsupported resource kind %q", kind)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get %s %s/%s: %w", kind, namespace, name, err)
	}

	// Events are best effort, a failure here must not hide the resource
	events, err := c.resourceEvents(ctx, kind, namespace, name)
	if err != nil {
		c.logger.Debug("failed to list events for resource",
			logging.ResourceType(kind.String()),
			logging.ResourceName(name),
			logging.SanitizedErr(err))
	}

	return &ResourceDescription{
		Resource: obj,
		Events:   events,
	}, nil
}

// resourceEvents returns the events whose involved object is the named resource.
func (c *kubernetesClient) resourceEvents(ctx context.Context, kind ResourceKind, namespace, name string) ([]corev1.Event, error) {
	selector := fields.AndSelectors(
		fields.OneTermEqualSelector("involvedObject.name", name),
		fields.OneTermEqualSelector("involvedObject.kind", kind.String()),
	)

	list, err := c.clientset.CoreV1().Events(namespace).List(ctx, metav1.ListOptions{
		FieldSelector: selector.String(),
	})
	if err != nil {
		return nil, err
	}

	// Not every backend honours field selectors
	var events []corev1.Event
	for _, event := range list.Items {
		if event.InvolvedObject.Name == name && event.InvolvedObject.Kind == kind.String() {
			events = append(events, event)
		}
	}

	return events, nil
}
