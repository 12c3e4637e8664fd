package k8s

const (
	// Service account paths - default Kubernetes in-cluster locations
	DefaultServiceAccountPath = "/var/run/secrets/kubernetes.io/serviceaccount"
	DefaultTokenPath          = DefaultServiceAccountPath + "/token"
	DefaultCACertPath         = DefaultServiceAccountPath + "/ca.crt"
	DefaultNamespacePath      = DefaultServiceAccountPath + "/namespace"

	// Default performance settings
	DefaultQPSLimit   = 20.0
	DefaultBurstLimit = 30
	DefaultTimeout    = 30 // seconds

	// In-cluster context name
	InClusterContext = "in-cluster"

	// RestartedAtAnnotation is the pod template annotation kubectl bumps on rollout restart.
	RestartedAtAnnotation = "kubectl.kubernetes.io/restartedAt"
)

// Operation names used by the safety checks and in logs.
const (
	OperationList     = "list"
	OperationDescribe = "describe"
	OperationLogs     = "logs"
	OperationExec     = "exec"
	OperationPatch    = "patch"
	OperationScale    = "scale"
	OperationSetEnv   = "set-env"
	OperationRestart  = "rollout-restart"
)

// mutatingOperations are refused in non-destructive mode unless dry-run is enabled.
var mutatingOperations = map[string]bool{
	OperationExec:    true,
	OperationPatch:   true,
	OperationScale:   true,
	OperationSetEnv:  true,
	OperationRestart: true,
}
