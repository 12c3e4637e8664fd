package k8s

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/client-go/kubernetes/scheme"
	"k8s.io/client-go/tools/remotecommand"
	utilexec "k8s.io/client-go/util/exec"
)

// PodManager implementation

// GetLogs retrieves logs from a pod container.
func (c *kubernetesClient) GetLogs(ctx context.Context, namespace, podName string, opts LogOptions) (io.ReadCloser, error) {
	if err := c.checkAccess(OperationLogs, namespace); err != nil {
		return nil, err
	}

	c.logOperation("get-logs", namespace, KindPod, podName)

	logOpts := &corev1.PodLogOptions{
		Container: opts.Container,
	}

	if opts.TailLines != nil {
		logOpts.TailLines = opts.TailLines
	}

	req := c.clientset.CoreV1().Pods(namespace).GetLogs(podName, logOpts)

	logs, err := req.Stream(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get logs for pod %s/%s: %w", namespace, podName, err)
	}

	return logs, nil
}

// Exec executes a command inside a pod container.
func (c *kubernetesClient) Exec(ctx context.Context, namespace, podName, containerName string, command []string) (*ExecResult, error) {
	if err := c.checkAccess(OperationExec, namespace); err != nil {
		return nil, err
	}

	if c.restConfig == nil {
		return nil, fmt.Errorf("exec requires a REST config")
	}

	c.logOperation(OperationExec, namespace, KindPod, podName)

	execReq := c.clientset.CoreV1().RESTClient().Post().
		Resource("pods").
		Name(podName).
		Namespace(namespace).
		SubResource("exec").
		VersionedParams(&corev1.PodExecOptions{
			Container: containerName,
			Command:   command,
			Stdout:    true,
			Stderr:    true,
		}, scheme.ParameterCodec)

	exec, err := remotecommand.NewSPDYExecutor(c.restConfig, http.MethodPost, execReq.URL())
	if err != nil {
		return nil, fmt.Errorf("failed to create executor: %w", err)
	}

	var stdout, stderr bytes.Buffer
	err = exec.StreamWithContext(ctx, remotecommand.StreamOptions{
		Stdout: &stdout,
		Stderr: &stderr,
	})

	return execResult(namespace, podName, stdout.String(), stderr.String(), err)
}

// execResult converts the stream outcome into an ExecResult. A non-zero exit
// of the remote process is a result, not a failure of the operation.
func execResult(namespace, podName, stdout, stderr string, err error) (*ExecResult, error) {
	result := &ExecResult{
		Stdout: stdout,
		Stderr: stderr,
	}

	if err == nil {
		return result, nil
	}

	var exitErr utilexec.CodeExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitStatus()
		return result, nil
	}

	return nil, fmt.Errorf("failed to execute command in pod %s/%s: %w", namespace, podName, err)
}
