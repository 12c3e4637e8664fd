package interpreter

import (
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"

	"github.com/giantswarm/kubectl-gateway/internal/k8s"
)

// Command is a parsed, validated kubectl command. The concrete types below
// are the only implementations.
type Command interface {
	// Verb returns the verb the command was parsed from.
	Verb() Verb

	// ResourceTarget returns the object the command operates on. Name is
	// empty for list commands.
	ResourceTarget() Target
}

// Target identifies a cluster object. Namespace is never empty.
type Target struct {
	Kind      k8s.ResourceKind
	Name      string
	Namespace string
}

func (t Target) ResourceTarget() Target { return t }

// GetCommand lists all resources of a kind.
type GetCommand struct {
	Target
}

// DescribeCommand fetches one named resource.
type DescribeCommand struct {
	Target
}

// LogsCommand fetches the last TailLines lines of a pod's logs.
type LogsCommand struct {
	Target
	Container string
	TailLines int64
}

// ExecCommand runs Args inside a pod container.
type ExecCommand struct {
	Target
	Container string
	Args      []string
}

// PatchCommand applies Body to a deployment. The body is not validated.
type PatchCommand struct {
	Target
	PatchType types.PatchType
	Body      string
}

// ScaleCommand sets the replica count of a deployment.
type ScaleCommand struct {
	Target
	Replicas int32
}

// SetEnvCommand replaces environment variables on every container of a
// deployment. Env holds one entry per key, in first-seen order, carrying
// the last value given for that key.
type SetEnvCommand struct {
	Target
	Env []corev1.EnvVar
}

// RolloutRestartCommand triggers a rolling restart of a deployment.
type RolloutRestartCommand struct {
	Target
}

func (GetCommand) Verb() Verb            { return VerbGet }
func (DescribeCommand) Verb() Verb       { return VerbDescribe }
func (LogsCommand) Verb() Verb           { return VerbLogs }
func (ExecCommand) Verb() Verb           { return VerbExec }
func (PatchCommand) Verb() Verb          { return VerbPatch }
func (ScaleCommand) Verb() Verb          { return VerbScale }
func (SetEnvCommand) Verb() Verb         { return VerbSet }
func (RolloutRestartCommand) Verb() Verb { return VerbRollout }

var (
	_ Command = GetCommand{}
	_ Command = DescribeCommand{}
	_ Command = LogsCommand{}
	_ Command = ExecCommand{}
	_ Command = PatchCommand{}
	_ Command = ScaleCommand{}
	_ Command = SetEnvCommand{}
	_ Command = RolloutRestartCommand{}
)
