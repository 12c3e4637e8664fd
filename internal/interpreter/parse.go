package interpreter

import (
	"slices"
	"strconv"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/types"

	"github.com/giantswarm/kubectl-gateway/internal/k8s"
)

// Positions of the fixed tokens. Handlers read positional arguments from
// posKind onward.
const (
	posProgram = 0
	posVerb    = 1
	posKind    = 2
	posName    = 3
)

// execSeparator separates exec options from the remote command.
const execSeparator = "--"

// patchTypes maps --type values to API patch types.
var patchTypes = map[string]types.PatchType{
	"json":      types.JSONPatchType,
	"merge":     types.MergePatchType,
	"strategic": types.StrategicMergePatchType,
}

// Parse tokenizes raw and turns it into a typed Command. It performs no I/O.
func Parse(raw string) (Command, error) {
	tokens := Tokenize(raw)

	if len(tokens) < 2 || tokens[posProgram] != ProgramName {
		return nil, newError(CodeInvalidSyntax, "command must start with %q followed by a verb", ProgramName)
	}

	switch Verb(tokens[posVerb]) {
	case VerbGet:
		return parseGet(tokens)
	case VerbDescribe:
		return parseDescribe(tokens)
	case VerbLogs:
		return parseLogs(tokens)
	case VerbExec:
		return parseExec(tokens)
	case VerbPatch:
		return parsePatch(tokens)
	case VerbScale:
		return parseScale(tokens)
	case VerbSet:
		return parseSetEnv(tokens)
	case VerbRollout:
		return parseRolloutRestart(tokens)
	default:
		return nil, newError(CodeUnsupportedVerb, "unsupported kubectl verb %q (supported: %s)", tokens[posVerb], verbList())
	}
}

func parseGet(tokens []string) (Command, error) {
	kind, err := resourceKind(tokens, VerbGet, getKinds)
	if err != nil {
		return nil, err
	}

	ns, err := namespace(tokens)
	if err != nil {
		return nil, err
	}

	return GetCommand{Target: Target{Kind: kind, Namespace: ns}}, nil
}

func parseDescribe(tokens []string) (Command, error) {
	target, err := namedTarget(tokens, VerbDescribe, describeKinds)
	if err != nil {
		return nil, err
	}
	return DescribeCommand{Target: target}, nil
}

func parseLogs(tokens []string) (Command, error) {
	pod, err := positional(tokens, posKind, "pod name")
	if err != nil {
		return nil, err
	}

	ns, err := namespace(tokens)
	if err != nil {
		return nil, err
	}

	container, err := FindOption(tokens, "-c", "--container", "")
	if err != nil {
		return nil, err
	}

	value, err := FindOption(tokens, "", "--tail", strconv.Itoa(DefaultTailLines))
	if err != nil {
		return nil, err
	}
	tail, err := strconv.ParseInt(value, 10, 64)
	if err != nil || tail < 0 {
		return nil, newError(CodeInvalidOptionValue, "--tail must be a non-negative integer, got %q", value)
	}

	return LogsCommand{
		Target:    Target{Kind: k8s.KindPod, Name: pod, Namespace: ns},
		Container: container,
		TailLines: tail,
	}, nil
}

func parseExec(tokens []string) (Command, error) {
	if !ContainsOption(tokens, execSeparator) {
		return nil, newError(CodeInvalidSyntax, "exec requires the remote command after a %q separator", execSeparator)
	}
	sep := slices.Index(tokens, execSeparator)
	if sep == len(tokens)-1 {
		return nil, newError(CodeInvalidSyntax, "exec separator %q must be followed by a command", execSeparator)
	}

	// Options belong to exec only when they precede the separator
	opts := tokens[:sep]

	pod, err := positional(opts, posKind, "pod name")
	if err != nil {
		return nil, err
	}

	ns, err := namespace(opts)
	if err != nil {
		return nil, err
	}

	container, err := FindOption(opts, "-c", "--container", "")
	if err != nil {
		return nil, err
	}

	return ExecCommand{
		Target:    Target{Kind: k8s.KindPod, Name: pod, Namespace: ns},
		Container: container,
		Args:      slices.Clone(tokens[sep+1:]),
	}, nil
}

func parsePatch(tokens []string) (Command, error) {
	target, err := namedTarget(tokens, VerbPatch, deploymentKinds)
	if err != nil {
		return nil, err
	}

	body, err := ExtractAfter(tokens, "--patch")
	if err != nil {
		return nil, err
	}

	typeName, err := FindOption(tokens, "", "--type", "json")
	if err != nil {
		return nil, err
	}
	patchType, ok := patchTypes[typeName]
	if !ok {
		return nil, newError(CodeInvalidOptionValue, "--type must be one of json, merge or strategic, got %q", typeName)
	}

	return PatchCommand{Target: target, PatchType: patchType, Body: body}, nil
}

func parseScale(tokens []string) (Command, error) {
	target, err := namedTarget(tokens, VerbScale, deploymentKinds)
	if err != nil {
		return nil, err
	}

	value, err := FindOption(tokens, "", "--replicas", "1")
	if err != nil {
		return nil, err
	}
	replicas, err := strconv.ParseInt(value, 10, 32)
	if err != nil || replicas < 0 {
		return nil, newError(CodeInvalidOptionValue, "--replicas must be a non-negative integer, got %q", value)
	}

	return ScaleCommand{Target: target, Replicas: int32(replicas)}, nil
}

func parseSetEnv(tokens []string) (Command, error) {
	action, err := positional(tokens, posKind, "set subcommand")
	if err != nil {
		return nil, err
	}
	if action != subActionEnv {
		return nil, newError(CodeUnsupportedVerb, "unsupported set subcommand %q (supported: %s)", action, subActionEnv)
	}

	target, err := slashTarget(tokens, "set env target")
	if err != nil {
		return nil, err
	}
	kind, ok := deploymentKinds[target.kind]
	if !ok {
		return nil, newError(CodeUnsupportedResource, "set env does not support resource %q (supported: %s)", target.kind, kindList(deploymentKinds))
	}

	ns, err := namespace(tokens)
	if err != nil {
		return nil, err
	}

	env, err := envPairs(tokens[posName+1:])
	if err != nil {
		return nil, err
	}

	return SetEnvCommand{
		Target: Target{Kind: kind, Name: target.name, Namespace: ns},
		Env:    env,
	}, nil
}

func parseRolloutRestart(tokens []string) (Command, error) {
	action, err := positional(tokens, posKind, "rollout subcommand")
	if err != nil {
		return nil, err
	}
	if action != subActionRestart {
		return nil, newError(CodeUnsupportedVerb, "unsupported rollout subcommand %q (supported: %s)", action, subActionRestart)
	}

	target, err := slashTarget(tokens, "rollout target")
	if err != nil {
		return nil, err
	}
	kind, ok := deploymentKinds[target.kind]
	if !ok {
		return nil, newError(CodeUnsupportedVerb, "rollout restart does not support %q targets (supported: deployment/<name>)", target.kind)
	}

	ns, err := namespace(tokens)
	if err != nil {
		return nil, err
	}

	return RolloutRestartCommand{Target: Target{Kind: kind, Name: target.name, Namespace: ns}}, nil
}

// positional returns tokens[idx]. A missing token, or one that is a flag,
// means the argument was not given.
func positional(tokens []string, idx int, what string) (string, error) {
	if idx >= len(tokens) || strings.HasPrefix(tokens[idx], "-") {
		return "", newError(CodeMissingRequiredArgument, "missing %s", what)
	}
	return tokens[idx], nil
}

func namespace(tokens []string) (string, error) {
	return FindOption(tokens, "-n", "--namespace", DefaultNamespace)
}

func resourceKind(tokens []string, verb Verb, allowed map[string]k8s.ResourceKind) (k8s.ResourceKind, error) {
	name, err := positional(tokens, posKind, "resource type")
	if err != nil {
		return "", err
	}

	kind, ok := allowed[name]
	if !ok {
		return "", newError(CodeUnsupportedResource, "%s does not support resource %q (supported: %s)", verb, name, kindList(allowed))
	}
	return kind, nil
}

// namedTarget parses "<kind> <name>" at the fixed positions plus the namespace.
func namedTarget(tokens []string, verb Verb, allowed map[string]k8s.ResourceKind) (Target, error) {
	kind, err := resourceKind(tokens, verb, allowed)
	if err != nil {
		return Target{}, err
	}

	name, err := positional(tokens, posName, "resource name")
	if err != nil {
		return Target{}, err
	}

	ns, err := namespace(tokens)
	if err != nil {
		return Target{}, err
	}

	return Target{Kind: kind, Name: name, Namespace: ns}, nil
}

type kindName struct {
	kind string
	name string
}

// slashTarget parses the "<kind>/<name>" token at posName.
func slashTarget(tokens []string, what string) (kindName, error) {
	token, err := positional(tokens, posName, what)
	if err != nil {
		return kindName{}, err
	}

	kind, name, found := strings.Cut(token, "/")
	if !found || kind == "" || name == "" || strings.Contains(name, "/") {
		return kindName{}, newError(CodeInvalidSyntax, "%s must have the form <kind>/<name>, got %q", what, token)
	}
	return kindName{kind: kind, name: name}, nil
}

// envPairs collects KEY=VALUE tokens. Flags are skipped, as is the value
// following -n or --namespace. A key given twice keeps its first position
// and takes the last value.
func envPairs(tokens []string) ([]corev1.EnvVar, error) {
	var env []corev1.EnvVar
	index := map[string]int{}

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]

		if token == "-n" || token == "--namespace" {
			i++
			continue
		}
		if strings.HasPrefix(token, "-") {
			continue
		}

		key, value, found := strings.Cut(token, "=")
		if !found || key == "" {
			return nil, newError(CodeInvalidSyntax, "environment variable must have the form KEY=VALUE, got %q", token)
		}

		if pos, seen := index[key]; seen {
			env[pos].Value = value
			continue
		}
		index[key] = len(env)
		env = append(env, corev1.EnvVar{Name: key, Value: value})
	}

	if len(env) == 0 {
		return nil, newError(CodeMissingRequiredArgument, "set env requires at least one KEY=VALUE pair")
	}
	return env, nil
}

func verbList() string {
	names := make([]string, len(Verbs))
	for i, verb := range Verbs {
		names[i] = verb.String()
	}
	return strings.Join(names, ", ")
}

func kindList(allowed map[string]k8s.ResourceKind) string {
	names := make([]string, 0, len(allowed))
	for name := range allowed {
		names = append(names, name)
	}
	slices.Sort(names)
	return strings.Join(names, ", ")
}
