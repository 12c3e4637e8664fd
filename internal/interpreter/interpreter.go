package interpreter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"k8s.io/utils/ptr"

	"github.com/giantswarm/kubectl-gateway/internal/k8s"
	"github.com/giantswarm/kubectl-gateway/internal/logging"
)

// Interpreter executes kubectl commands against a cluster client. It keeps
// no per-call state and is safe for concurrent use.
type Interpreter struct {
	client k8s.Client
	logger *slog.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithLogger sets the logger used for debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(i *Interpreter) {
		if logger != nil {
			i.logger = logger
		}
	}
}

// New returns an Interpreter dispatching to client.
func New(client k8s.Client, opts ...Option) *Interpreter {
	i := &Interpreter{
		client: client,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Execute parses raw and performs the single cluster operation it names.
// All failures are returned as *Error.
func (i *Interpreter) Execute(ctx context.Context, raw string) (any, error) {
	cmd, err := Parse(raw)
	if err != nil {
		return nil, err
	}
	return i.Dispatch(ctx, cmd)
}

// Run executes raw and folds the outcome into an Envelope.
func (i *Interpreter) Run(ctx context.Context, raw string) Envelope {
	result, err := i.Execute(ctx, raw)
	return Normalize(raw, result, err)
}

// Dispatch issues exactly one cluster client call for cmd. A panic in the
// client is reported as an upstream failure. A nil cmd is rejected as
// invalid syntax without touching the client.
func (i *Interpreter) Dispatch(ctx context.Context, cmd Command) (result any, err error) {
	if cmd == nil {
		return nil, newError(CodeInvalidSyntax, "no command to dispatch")
	}
	verb := cmd.Verb().String()

	defer func() {
		if r := recover(); r != nil {
			i.logger.Error("cluster client panicked", logging.Verb(verb), slog.Any("panic", r))
			result = nil
			err = upstreamError(fmt.Errorf("cluster client failed unexpectedly: %v", r))
		}
	}()

	target := cmd.ResourceTarget()
	i.logger.Debug("dispatching command",
		logging.Verb(verb),
		logging.ResourceType(target.Kind.String()),
		logging.ResourceName(target.Name),
		logging.Namespace(target.Namespace))

	result, err = i.dispatch(ctx, cmd)
	if err != nil {
		var ierr *Error
		if !errors.As(err, &ierr) {
			err = upstreamError(err)
		}
		return nil, err
	}
	if result == nil {
		return nil, upstreamError(errors.New("cluster client returned no result"))
	}
	return result, nil
}

func (i *Interpreter) dispatch(ctx context.Context, cmd Command) (any, error) {
	switch c := cmd.(type) {
	case GetCommand:
		list, err := i.client.List(ctx, c.Kind, c.Namespace)
		if err != nil || list == nil {
			return nil, err
		}
		return list, nil

	case DescribeCommand:
		desc, err := i.client.Describe(ctx, c.Kind, c.Namespace, c.Name)
		if err != nil || desc == nil {
			return nil, err
		}
		return desc, nil

	case LogsCommand:
		return i.logs(ctx, c)

	case ExecCommand:
		res, err := i.client.Exec(ctx, c.Namespace, c.Name, c.Container, c.Args)
		if err != nil {
			return nil, err
		}
		out := &ExecResult{
			Pod:       c.Name,
			Namespace: c.Namespace,
			Container: c.Container,
			Command:   strings.Join(c.Args, " "),
		}
		if res != nil {
			out.Stdout, out.Stderr, out.ExitCode = res.Stdout, res.Stderr, res.ExitCode
		}
		return out, nil

	case PatchCommand:
		deployment, err := i.client.Patch(ctx, c.Namespace, c.Name, c.PatchType, []byte(c.Body))
		if err != nil {
			return nil, err
		}
		return &PatchResult{
			Patched:   true,
			Kind:      kindLabel(c.Kind),
			Name:      c.Name,
			Namespace: c.Namespace,
			Result:    deployment,
		}, nil

	case ScaleCommand:
		deployment, err := i.client.Scale(ctx, c.Namespace, c.Name, c.Replicas)
		if err != nil {
			return nil, err
		}
		return &ScaleResult{
			Scaled:    true,
			Kind:      kindLabel(c.Kind),
			Name:      c.Name,
			Namespace: c.Namespace,
			Replicas:  c.Replicas,
			Result:    deployment,
		}, nil

	case SetEnvCommand:
		deployment, err := i.client.SetEnv(ctx, c.Namespace, c.Name, c.Env)
		if err != nil {
			return nil, err
		}
		newEnv := make(map[string]string, len(c.Env))
		for _, env := range c.Env {
			newEnv[env.Name] = env.Value
		}
		return &SetEnvResult{
			SetEnv:     true,
			Deployment: c.Name,
			Namespace:  c.Namespace,
			NewEnv:     newEnv,
			Result:     deployment,
		}, nil

	case RolloutRestartCommand:
		if _, err := i.client.RolloutRestart(ctx, c.Namespace, c.Name); err != nil {
			return nil, err
		}
		return &RolloutResult{
			RolledOut:  true,
			Deployment: c.Name,
			Namespace:  c.Namespace,
		}, nil

	default:
		return nil, newError(CodeUnsupportedVerb, "unsupported command %T", cmd)
	}
}

func (i *Interpreter) logs(ctx context.Context, c LogsCommand) (any, error) {
	stream, err := i.client.GetLogs(ctx, c.Namespace, c.Name, k8s.LogOptions{
		Container: c.Container,
		TailLines: ptr.To(c.TailLines),
	})
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	if err != nil {
		return nil, fmt.Errorf("failed to read logs for pod %s/%s: %w", c.Namespace, c.Name, err)
	}

	return &LogsResult{
		Pod:       c.Name,
		Namespace: c.Namespace,
		Container: c.Container,
		Logs:      string(data),
	}, nil
}

// kindLabel returns the lower-case kind as written on the command line.
func kindLabel(kind k8s.ResourceKind) string {
	return strings.ToLower(kind.String())
}
