// Package interpreter parses kubectl command strings and dispatches them to
// the cluster client.
//
// Only a fixed subset of the kubectl grammar is understood:
//
//	kubectl get pods|deployments|services [-n NS]
//	kubectl describe pod|deployment NAME [-n NS]
//	kubectl logs POD [-n NS] [-c CONTAINER] [--tail N]
//	kubectl exec POD [-n NS] [-c CONTAINER] -- CMD [ARGS...]
//	kubectl patch deployment NAME --patch BODY [--type json|merge|strategic] [-n NS]
//	kubectl scale deployment NAME [--replicas N] [-n NS]
//	kubectl set env deployment/NAME KEY=VALUE... [-n NS]
//	kubectl rollout restart deployment/NAME [-n NS]
//
// Wherever a deployment is named, deploy and deployments are accepted too.
//
// Commands are split on whitespace only. There is no quoting, so a value
// that contains spaces cannot be passed.
//
// Parse turns a command string into a typed Command without touching the
// cluster. Interpreter.Dispatch then performs exactly one client call for
// it. Every failure is an *Error whose Code tells a malformed command apart
// from a failed cluster operation:
//
//	env := interpreter.New(client).Run(ctx, "kubectl get pods -n prod")
//	if !env.Success && env.Code.ClientCaused() {
//		// reject the request
//	}
package interpreter
