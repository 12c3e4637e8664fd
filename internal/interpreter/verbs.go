package interpreter

import "github.com/giantswarm/kubectl-gateway/internal/k8s"

// ProgramName is the mandatory first token of every command.
const ProgramName = "kubectl"

// DefaultNamespace is used when a command does not name one.
const DefaultNamespace = "default"

// DefaultTailLines is the number of log lines returned when --tail is absent.
const DefaultTailLines = 100

// Verb is a supported kubectl verb.
type Verb string

// Supported verbs. set and rollout only accept the env and restart
// sub-actions respectively.
const (
	VerbGet      Verb = "get"
	VerbDescribe Verb = "describe"
	VerbLogs     Verb = "logs"
	VerbExec     Verb = "exec"
	VerbPatch    Verb = "patch"
	VerbScale    Verb = "scale"
	VerbSet      Verb = "set"
	VerbRollout  Verb = "rollout"
)

// Verbs lists every supported verb in help order.
var Verbs = []Verb{
	VerbGet, VerbDescribe, VerbLogs, VerbExec,
	VerbPatch, VerbScale, VerbSet, VerbRollout,
}

// String returns the verb keyword.
func (v Verb) String() string {
	return string(v)
}

// Sub-actions accepted after set and rollout.
const (
	subActionEnv     = "env"
	subActionRestart = "restart"
)

// Resource whitelists per verb, keyed by the spelling accepted on the
// command line.
var (
	getKinds = map[string]k8s.ResourceKind{
		"pods":        k8s.KindPod,
		"deployments": k8s.KindDeployment,
		"services":    k8s.KindService,
	}

	describeKinds = map[string]k8s.ResourceKind{
		"pod":        k8s.KindPod,
		"deployment": k8s.KindDeployment,
	}

	deploymentKinds = map[string]k8s.ResourceKind{
		"deployment":  k8s.KindDeployment,
		"deployments": k8s.KindDeployment,
		"deploy":      k8s.KindDeployment,
	}
)
