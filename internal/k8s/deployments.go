package k8s

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/types"
	"k8s.io/client-go/util/retry"
)

// DeploymentManager implementation

// Patch applies a patch document to a deployment. The document is passed to
// the API server verbatim; syntax errors are reported by the server.
func (c *kubernetesClient) Patch(ctx context.Context, namespace, name string, patchType types.PatchType, data []byte) (*appsv1.Deployment, error) {
	if err := c.checkAccess(OperationPatch, namespace); err != nil {
		return nil, err
	}

	c.logOperation(OperationPatch, namespace, KindDeployment, name)

	result, err := c.clientset.AppsV1().Deployments(namespace).Patch(ctx, name, patchType, data,
		metav1.PatchOptions{DryRun: c.dryRunOptions()})
	if err != nil {
		return nil, fmt.Errorf("failed to patch deployment %s/%s: %w", namespace, name, err)
	}

	return result, nil
}

// Scale sets the replica count of a deployment using a merge patch on spec.replicas.
func (c *kubernetesClient) Scale(ctx context.Context, namespace, name string, replicas int32) (*appsv1.Deployment, error) {
	if err := c.checkAccess(OperationScale, namespace); err != nil {
		return nil, err
	}

	c.logOperation(OperationScale, namespace, KindDeployment, name)

	patchData := fmt.Sprintf(`{"spec":{"replicas":%d}}`, replicas)

	result, err := c.clientset.AppsV1().Deployments(namespace).Patch(ctx, name, types.MergePatchType, []byte(patchData),
		metav1.PatchOptions{DryRun: c.dryRunOptions()})
	if err != nil {
		return nil, fmt.Errorf("failed to scale deployment %s/%s: %w", namespace, name, err)
	}

	return result, nil
}

// SetEnv replaces the named environment variables on every container of the
// deployment's pod template. Conflicting writers are retried with a fresh read.
func (c *kubernetesClient) SetEnv(ctx context.Context, namespace, name string, env []corev1.EnvVar) (*appsv1.Deployment, error) {
	if err := c.checkAccess(OperationSetEnv, namespace); err != nil {
		return nil, err
	}

	c.logOperation(OperationSetEnv, namespace, KindDeployment, name)

	deployments := c.clientset.AppsV1().Deployments(namespace)

	var result *appsv1.Deployment
	err := retry.RetryOnConflict(retry.DefaultRetry, func() error {
		deployment, err := deployments.Get(ctx, name, metav1.GetOptions{})
		if err != nil {
			return err
		}

		containers := deployment.Spec.Template.Spec.Containers
		for i := range containers {
			containers[i].Env = mergeEnv(containers[i].Env, env)
		}

		result, err = deployments.Update(ctx, deployment, metav1.UpdateOptions{DryRun: c.dryRunOptions()})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set env on deployment %s/%s: %w", namespace, name, err)
	}

	return result, nil
}

// mergeEnv applies each update in order: any existing variable with the same
// name is removed and the new one appended.
func mergeEnv(current, updates []corev1.EnvVar) []corev1.EnvVar {
	merged := append([]corev1.EnvVar(nil), current...)
	for _, update := range updates {
		kept := merged[:0]
		for _, existing := range merged {
			if existing.Name != update.Name {
				kept = append(kept, existing)
			}
		}
		merged = append(kept, update)
	}
	return merged
}

// RolloutRestart triggers a rolling restart by stamping the pod template with
// the restartedAt annotation, the same way kubectl does.
func (c *kubernetesClient) RolloutRestart(ctx context.Context, namespace, name string) (*appsv1.Deployment, error) {
	if err := c.checkAccess(OperationRestart, namespace); err != nil {
		return nil, err
	}

	c.logOperation(OperationRestart, namespace, KindDeployment, name)

	patch := map[string]interface{}{
		"spec": map[string]interface{}{
			"template": map[string]interface{}{
				"metadata": map[string]interface{}{
					"annotations": map[string]string{
						RestartedAtAnnotation: time.Now().Format(time.RFC3339),
					},
				},
			},
		},
	}
	patchBytes, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("failed to build restart patch: %w", err)
	}

	result, err := c.clientset.AppsV1().Deployments(namespace).Patch(ctx, name, types.StrategicMergePatchType, patchBytes,
		metav1.PatchOptions{DryRun: c.dryRunOptions()})
	if err != nil {
		return nil, fmt.Errorf("failed to restart deployment %s/%s: %w", namespace, name, err)
	}

	return result, nil
}
