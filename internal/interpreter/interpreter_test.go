package interpreter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appsv1 "k8s.io/api/apps/v1"
	corev1 "k8s.io/api/core/v1"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/apimachinery/pkg/runtime"
	"k8s.io/apimachinery/pkg/types"

	"github.com/giantswarm/kubectl-gateway/internal/k8s"
)

// call records one invocation of the fake cluster client.
type call struct {
	method    string
	kind      k8s.ResourceKind
	namespace string
	name      string
	container string
	args      []string
	tail      int64
	patchType types.PatchType
	body      string
	replicas  int32
	env       []corev1.EnvVar
}

type fakeClient struct {
	mu    sync.Mutex
	calls []call

	err        error
	panicWith  any
	logs       string
	execResult *k8s.ExecResult
}

func (f *fakeClient) record(c call) error {
	f.mu.Lock()
	f.calls = append(f.calls, c)
	f.mu.Unlock()

	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.err
}

func (f *fakeClient) List(_ context.Context, kind k8s.ResourceKind, namespace string) (runtime.Object, error) {
	if err := f.record(call{method: "List", kind: kind, namespace: namespace}); err != nil {
		return nil, err
	}
	return &corev1.PodList{Items: []corev1.Pod{{ObjectMeta: metav1.ObjectMeta{Name: "web-1", Namespace: namespace}}}}, nil
}

func (f *fakeClient) Describe(_ context.Context, kind k8s.ResourceKind, namespace, name string) (*k8s.ResourceDescription, error) {
	if err := f.record(call{method: "Describe", kind: kind, namespace: namespace, name: name}); err != nil {
		return nil, err
	}
	return &k8s.ResourceDescription{Resource: &corev1.Pod{ObjectMeta: metav1.ObjectMeta{Name: name}}}, nil
}

func (f *fakeClient) GetLogs(_ context.Context, namespace, podName string, opts k8s.LogOptions) (io.ReadCloser, error) {
	var tail int64
	if opts.TailLines != nil {
		tail = *opts.TailLines
	}
	if err := f.record(call{method: "GetLogs", namespace: namespace, name: podName, container: opts.Container, tail: tail}); err != nil {
		return nil, err
	}
	return io.NopCloser(strings.NewReader(f.logs)), nil
}

func (f *fakeClient) Exec(_ context.Context, namespace, podName, containerName string, command []string) (*k8s.ExecResult, error) {
	if err := f.record(call{method: "Exec", namespace: namespace, name: podName, container: containerName, args: command}); err != nil {
		return nil, err
	}
	if f.execResult != nil {
		return f.execResult, nil
	}
	return &k8s.ExecResult{Stdout: "hi\n"}, nil
}

func (f *fakeClient) Patch(_ context.Context, namespace, name string, patchType types.PatchType, data []byte) (*appsv1.Deployment, error) {
	if err := f.record(call{method: "Patch", namespace: namespace, name: name, patchType: patchType, body: string(data)}); err != nil {
		return nil, err
	}
	return deployment(name, namespace), nil
}

func (f *fakeClient) Scale(_ context.Context, namespace, name string, replicas int32) (*appsv1.Deployment, error) {
	if err := f.record(call{method: "Scale", namespace: namespace, name: name, replicas: replicas}); err != nil {
		return nil, err
	}
	return deployment(name, namespace), nil
}

func (f *fakeClient) SetEnv(_ context.Context, namespace, name string, env []corev1.EnvVar) (*appsv1.Deployment, error) {
	if err := f.record(call{method: "SetEnv", namespace: namespace, name: name, env: env}); err != nil {
		return nil, err
	}
	return deployment(name, namespace), nil
}

func (f *fakeClient) RolloutRestart(_ context.Context, namespace, name string) (*appsv1.Deployment, error) {
	if err := f.record(call{method: "RolloutRestart", namespace: namespace, name: name}); err != nil {
		return nil, err
	}
	return deployment(name, namespace), nil
}

func deployment(name, namespace string) *appsv1.Deployment {
	return &appsv1.Deployment{ObjectMeta: metav1.ObjectMeta{Name: name, Namespace: namespace}}
}

func TestInterpreter_Execute(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected call
		check    func(t *testing.T, result any)
	}{
		{
			name:     "get pods",
			raw:      "kubectl get pods",
			expected: call{method: "List", kind: k8s.KindPod, namespace: "default"},
			check: func(t *testing.T, result any) {
				list, ok := result.(*corev1.PodList)
				require.True(t, ok)
				assert.Len(t, list.Items, 1)
			},
		},
		{
			name:     "describe deployment",
			raw:      "kubectl describe deployment web -n prod",
			expected: call{method: "Describe", kind: k8s.KindDeployment, namespace: "prod", name: "web"},
			check: func(t *testing.T, result any) {
				assert.IsType(t, &k8s.ResourceDescription{}, result)
			},
		},
		{
			name:     "logs",
			raw:      "kubectl logs web-1 --tail 5 -c app",
			expected: call{method: "GetLogs", namespace: "default", name: "web-1", container: "app", tail: 5},
			check: func(t *testing.T, result any) {
				logs, ok := result.(*LogsResult)
				require.True(t, ok)
				assert.Equal(t, "line 1\nline 2\n", logs.Logs)
				assert.Equal(t, "web-1", logs.Pod)
				assert.Equal(t, "app", logs.Container)
			},
		},
		{
			name:     "exec",
			raw:      "kubectl exec mypod -c app -n ns -- echo hi",
			expected: call{method: "Exec", namespace: "ns", name: "mypod", container: "app", args: []string{"echo", "hi"}},
			check: func(t *testing.T, result any) {
				res, ok := result.(*ExecResult)
				require.True(t, ok)
				assert.Equal(t, "echo hi", res.Command)
				assert.Equal(t, "hi\n", res.Stdout)
				assert.Equal(t, 0, res.ExitCode)
			},
		},
		{
			name:     "patch",
			raw:      `kubectl patch deployment web --patch [{"op":"add","path":"/x","value":1}]`,
			expected: call{method: "Patch", namespace: "default", name: "web", patchType: types.JSONPatchType, body: `[{"op":"add","path":"/x","value":1}]`},
			check: func(t *testing.T, result any) {
				res, ok := result.(*PatchResult)
				require.True(t, ok)
				assert.True(t, res.Patched)
				assert.Equal(t, "deployment", res.Kind)
				assert.Equal(t, "web", res.Result.Name)
			},
		},
		{
			name:     "scale",
			raw:      "kubectl scale deployment my-app --replicas 3",
			expected: call{method: "Scale", namespace: "default", name: "my-app", replicas: 3},
			check: func(t *testing.T, result any) {
				res, ok := result.(*ScaleResult)
				require.True(t, ok)
				assert.True(t, res.Scaled)
				assert.Equal(t, int32(3), res.Replicas)
			},
		},
		{
			name: "set env",
			raw:  "kubectl set env deployment/my-app -n ns FOO=bar BAZ=qux -x",
			expected: call{method: "SetEnv", namespace: "ns", name: "my-app", env: []corev1.EnvVar{
				{Name: "FOO", Value: "bar"},
				{Name: "BAZ", Value: "qux"},
			}},
			check: func(t *testing.T, result any) {
				res, ok := result.(*SetEnvResult)
				require.True(t, ok)
				assert.Equal(t, map[string]string{"FOO": "bar", "BAZ": "qux"}, res.NewEnv)
				assert.Equal(t, "my-app", res.Deployment)
				assert.Equal(t, "ns", res.Namespace)
			},
		},
		{
			name:     "rollout restart",
			raw:      "kubectl rollout restart deployment/web",
			expected: call{method: "RolloutRestart", namespace: "default", name: "web"},
			check: func(t *testing.T, result any) {
				res, ok := result.(*RolloutResult)
				require.True(t, ok)
				assert.True(t, res.RolledOut)
				assert.Equal(t, "web", res.Deployment)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{logs: "line 1\nline 2\n"}
			interp := New(client)

			result, err := interp.Execute(context.Background(), tt.raw)
			require.NoError(t, err)
			require.NotNil(t, result)

			require.Len(t, client.calls, 1, "exactly one cluster call per command")
			assert.Equal(t, tt.expected, client.calls[0])
			tt.check(t, result)
		})
	}
}

func TestInterpreter_ParseFailuresMakeNoCalls(t *testing.T) {
	client := &fakeClient{}
	interp := New(client)

	for _, raw := range []string{
		"",
		"get pods",
		"kubectl delete pod web",
		"kubectl logs mypod --tail abc",
		"kubectl exec mypod",
		"kubectl scale deployment my-app --replicas notanumber",
		"kubectl rollout restart service/my-svc",
	} {
		_, err := interp.Execute(context.Background(), raw)
		require.Error(t, err, raw)
		assert.True(t, CodeOf(err).ClientCaused(), raw)
	}

	assert.Empty(t, client.calls)
}

func TestInterpreter_UpstreamFailure(t *testing.T) {
	upstream := errors.New(`deployments.apps "web" not found`)
	client := &fakeClient{err: upstream}
	interp := New(client)

	for _, raw := range []string{
		"kubectl get pods",
		"kubectl describe pod web",
		"kubectl logs web",
		"kubectl exec web -- ls",
		"kubectl patch deployment web --patch {}",
		"kubectl scale deployment web --replicas 2",
		"kubectl set env deployment/web A=b",
		"kubectl rollout restart deployment/web",
	} {
		result, err := interp.Execute(context.Background(), raw)
		require.Error(t, err, raw)
		assert.Nil(t, result, raw)

		assert.Equal(t, CodeUpstreamOperationFailure, CodeOf(err), raw)
		assert.False(t, CodeOf(err).ClientCaused(), raw)
		assert.Equal(t, upstream.Error(), err.Error(), raw)
		assert.ErrorIs(t, err, upstream, raw)
	}
}

func TestInterpreter_PanicIsRecovered(t *testing.T) {
	client := &fakeClient{panicWith: "boom"}
	interp := New(client)

	var (
		result any
		err    error
	)
	require.NotPanics(t, func() {
		result, err = interp.Execute(context.Background(), "kubectl get pods")
	})

	assert.Nil(t, result)
	require.Error(t, err)
	assert.Equal(t, CodeUpstreamOperationFailure, CodeOf(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestInterpreter_DispatchNilCommand(t *testing.T) {
	client := &fakeClient{}

	var (
		result any
		err    error
	)
	require.NotPanics(t, func() {
		result, err = New(client).Dispatch(context.Background(), nil)
	})

	assert.Nil(t, result)
	require.Error(t, err)
	assert.Equal(t, CodeInvalidSyntax, CodeOf(err))
	assert.Empty(t, client.calls)
}

func TestInterpreter_ExecNonZeroExit(t *testing.T) {
	client := &fakeClient{execResult: &k8s.ExecResult{Stdout: "", Stderr: "no such file", ExitCode: 2}}

	env := New(client).Run(context.Background(), "kubectl exec web -- cat /missing")

	require.True(t, env.Success)
	res, ok := env.Result.(*ExecResult)
	require.True(t, ok)
	assert.Equal(t, 2, res.ExitCode)
	assert.Equal(t, "no such file", res.Stderr)
}

func TestInterpreter_ConcurrentUse(t *testing.T) {
	client := &fakeClient{}
	interp := New(client)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			env := interp.Run(context.Background(), "kubectl scale deployment web --replicas 2")
			assert.True(t, env.Success)
		}()
	}
	wg.Wait()

	assert.Len(t, client.calls, 20)
}

func TestRun_Envelope(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		env := New(&fakeClient{}).Run(context.Background(), "kubectl rollout restart deployment/web")

		assert.True(t, env.Success)
		assert.Equal(t, "kubectl rollout restart deployment/web", env.Command)
		assert.NotNil(t, env.Result)
		assert.Empty(t, env.Error)
		assert.Empty(t, env.Code)
	})

	t.Run("client error", func(t *testing.T) {
		env := New(&fakeClient{}).Run(context.Background(), "kubectl delete pod web")

		assert.False(t, env.Success)
		assert.Nil(t, env.Result)
		assert.Equal(t, CodeUnsupportedVerb, env.Code)
		assert.Contains(t, env.Error, "delete")
	})

	t.Run("json shape", func(t *testing.T) {
		env := New(&fakeClient{err: errors.New("forbidden")}).Run(context.Background(), "kubectl get pods")

		data, err := json.Marshal(env)
		require.NoError(t, err)
		assert.JSONEq(t, `{"command":"kubectl get pods","success":false,"error":"forbidden","code":"UpstreamOperationFailure"}`, string(data))
	})
}

func TestNormalize(t *testing.T) {
	env := Normalize("kubectl get pods", "ignored", errors.New("plain"))
	assert.False(t, env.Success)
	assert.Nil(t, env.Result)
	assert.Equal(t, CodeUpstreamOperationFailure, env.Code)

	env = Normalize("kubectl get pods", map[string]int{"a": 1}, nil)
	assert.True(t, env.Success)
	assert.Equal(t, map[string]int{"a": 1}, env.Result)
}

func TestCode_ClientCaused(t *testing.T) {
	for _, code := range []Code{
		CodeInvalidSyntax, CodeUnsupportedVerb, CodeUnsupportedResource,
		CodeMissingRequiredArgument, CodeInvalidOptionValue,
	} {
		assert.True(t, code.ClientCaused(), code)
	}
	assert.False(t, CodeUpstreamOperationFailure.ClientCaused())
}
