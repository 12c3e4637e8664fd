// Package k8s provides the cluster client used by the command interpreter.
//
// The Client interface is deliberately narrow: it exposes exactly the
// operations a supported kubectl command can trigger and nothing else.
//
//   - ResourceReader: list resources of a kind, describe a single resource
//   - PodManager: fetch trailing log lines, exec a command in a container
//   - DeploymentManager: patch, scale, set env, rollout restart
//
// The concrete implementation is built on the client-go typed clientset and
// authenticates either through a kubeconfig or the in-cluster service
// account. Timeouts, QPS and burst limits are applied to the rest config,
// so callers never need to implement their own retry or timeout policy.
//
// Safety settings mirror the server configuration:
//
//	client, err := k8s.NewClient(&k8s.ClientConfig{
//		NonDestructiveMode:   true,
//		DryRun:               true,
//		RestrictedNamespaces: []string{"kube-system"},
//	})
//
// In non-destructive mode mutations are refused unless dry-run is enabled,
// in which case they are sent to the API server with DryRun=All.
package k8s
