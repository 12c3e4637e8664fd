package interpreter

import (
	appsv1 "k8s.io/api/apps/v1"
)

// Payloads returned by Execute for the verbs that do not return API objects
// directly. get returns the API list and describe a *k8s.ResourceDescription.

// LogsResult holds the trailing log lines of a pod.
type LogsResult struct {
	Pod       string `json:"pod"`
	Namespace string `json:"namespace"`
	Container string `json:"container,omitempty"`
	Logs      string `json:"logs"`
}

// ExecResult holds the captured output of a remote command. A non-zero
// ExitCode is still a successful dispatch.
type ExecResult struct {
	Pod       string `json:"pod"`
	Namespace string `json:"namespace"`
	Container string `json:"container,omitempty"`
	Command   string `json:"command"`
	Stdout    string `json:"stdout"`
	Stderr    string `json:"stderr,omitempty"`
	ExitCode  int    `json:"exitCode"`
}

// PatchResult reports a patched deployment.
type PatchResult struct {
	Patched   bool               `json:"patched"`
	Kind      string             `json:"kind"`
	Name      string             `json:"name"`
	Namespace string             `json:"namespace"`
	Result    *appsv1.Deployment `json:"result,omitempty"`
}

// ScaleResult reports a scaled deployment.
type ScaleResult struct {
	Scaled    bool               `json:"scaled"`
	Kind      string             `json:"kind"`
	Name      string             `json:"name"`
	Namespace string             `json:"namespace"`
	Replicas  int32              `json:"replicas"`
	Result    *appsv1.Deployment `json:"result,omitempty"`
}

// SetEnvResult reports the variables written to a deployment.
type SetEnvResult struct {
	SetEnv     bool               `json:"setEnv"`
	Deployment string             `json:"deployment"`
	Namespace  string             `json:"namespace"`
	NewEnv     map[string]string  `json:"newEnv"`
	Result     *appsv1.Deployment `json:"result,omitempty"`
}

// RolloutResult reports a triggered rolling restart.
type RolloutResult struct {
	RolledOut  bool   `json:"rolledOut"`
	Deployment string `json:"deployment"`
	Namespace  string `json:"namespace"`
}

// Envelope is the uniform outcome of one command. Exactly one of Result and
// Error is set.
type Envelope struct {
	Command string `json:"command"`
	Success bool   `json:"success"`
	Result  any    `json:"result,omitempty"`
	Error   string `json:"error,omitempty"`
	Code    Code   `json:"code,omitempty"`
}

// Normalize builds the envelope for a finished command. An error always
// wins over a result.
func Normalize(command string, result any, err error) Envelope {
	if err != nil {
		return Envelope{
			Command: command,
			Success: false,
			Error:   err.Error(),
			Code:    CodeOf(err),
		}
	}

	return Envelope{
		Command: command,
		Success: true,
		Result:  result,
	}
}
