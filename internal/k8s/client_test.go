package k8s

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes/fake"
)

func TestNewClient(t *testing.T) {
	tests := []struct {
		name        string
		config      *ClientConfig
		expectError bool
		errorMsg    string
	}{
		{
			name:        "nil config",
			config:      nil,
			expectError: true,
			errorMsg:    "client configuration is required",
		},
		{
			name: "valid config with defaults",
			config: &ClientConfig{
				NonDestructiveMode: true,
			},
		},
		{
			name: "valid config with custom values",
			config: &ClientConfig{
				QPSLimit:             50.0,
				BurstLimit:           100,
				Timeout:              60 * time.Second,
				DryRun:               true,
				AllowedOperations:    []string{OperationList, OperationDescribe},
				RestrictedNamespaces: []string{"kube-system"},
			},
		},
		{
			name: "unknown context",
			config: &ClientConfig{
				Context: "missing-context",
			},
			expectError: true,
			errorMsg:    "does not exist in kubeconfig",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var (
				qps     float32
				burst   int
				timeout time.Duration
			)
			if tt.config != nil {
				tt.config.KubeconfigPath = writeKubeconfig(t)
				qps, burst, timeout = tt.config.QPSLimit, tt.config.BurstLimit, tt.config.Timeout
			}

			client, err := NewClient(tt.config)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				assert.Nil(t, client)
				return
			}

			require.NoError(t, err)
			impl, ok := client.(*kubernetesClient)
			require.True(t, ok)
			assert.Equal(t, "test-context", impl.currentContext)
			assert.NotNil(t, impl.restConfig)

			if qps == 0 {
				assert.Equal(t, float32(DefaultQPSLimit), impl.restConfig.QPS)
			} else {
				assert.Equal(t, qps, impl.restConfig.QPS)
			}
			if burst == 0 {
				assert.Equal(t, DefaultBurstLimit, impl.restConfig.Burst)
			} else {
				assert.Equal(t, burst, impl.restConfig.Burst)
			}
			if timeout == 0 {
				assert.Equal(t, DefaultTimeout*time.Second, impl.restConfig.Timeout)
			} else {
				assert.Equal(t, timeout, impl.restConfig.Timeout)
			}
		})
	}
}

func TestKubernetesClient_SafetyChecks(t *testing.T) {
	tests := []struct {
		name          string
		config        ClientConfig
		operation     string
		namespace     string
		expectError   bool
		errorContains string
	}{
		{
			name:      "read in default mode",
			operation: OperationList,
			namespace: "default",
		},
		{
			name:      "mutation in default mode",
			operation: OperationScale,
			namespace: "default",
		},
		{
			name:          "operation outside allow list",
			config:        ClientConfig{AllowedOperations: []string{OperationList}},
			operation:     OperationDescribe,
			namespace:     "default",
			expectError:   true,
			errorContains: `operation "describe" is not allowed`,
		},
		{
			name:          "mutation in non-destructive mode",
			config:        ClientConfig{NonDestructiveMode: true},
			operation:     OperationPatch,
			namespace:     "default",
			expectError:   true,
			errorContains: "Patch operations are not allowed in non-destructive mode",
		},
		{
			name:      "mutation in non-destructive mode with dry-run",
			config:    ClientConfig{NonDestructiveMode: true, DryRun: true},
			operation: OperationScale,
			namespace: "default",
		},
		{
			name:          "exec is never unlocked by dry-run",
			config:        ClientConfig{NonDestructiveMode: true, DryRun: true},
			operation:     OperationExec,
			namespace:     "default",
			expectError:   true,
			errorContains: "not allowed in non-destructive mode",
		},
		{
			name:      "read in non-destructive mode",
			config:    ClientConfig{NonDestructiveMode: true},
			operation: OperationLogs,
			namespace: "default",
		},
		{
			name:          "restricted namespace",
			config:        ClientConfig{RestrictedNamespaces: []string{"kube-system"}},
			operation:     OperationList,
			namespace:     "kube-system",
			expectError:   true,
			errorContains: `access to namespace "kube-system" is restricted`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := tt.config
			client := newClientWithClientset(fake.NewClientset(), &config)

			err := client.checkAccess(tt.operation, tt.namespace)
			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorContains)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestKubernetesClient_DryRunOptions(t *testing.T) {
	client := newClientWithClientset(fake.NewClientset(), &ClientConfig{})
	assert.Nil(t, client.dryRunOptions())

	client = newClientWithClientset(fake.NewClientset(), &ClientConfig{DryRun: true})
	assert.Equal(t, []string{metav1.DryRunAll}, client.dryRunOptions())
}

func TestNewClientWithClientset_Defaults(t *testing.T) {
	client := newClientWithClientset(fake.NewClientset(), nil)

	assert.NotNil(t, client.logger)
	assert.Equal(t, float32(DefaultQPSLimit), client.config.QPSLimit)
	assert.Equal(t, DefaultBurstLimit, client.config.BurstLimit)
	assert.Equal(t, DefaultTimeout*time.Second, client.config.Timeout)
}

func writeKubeconfig(t testing.TB) string {
	t.Helper()
	kubeconfig := `
apiVersion: v1
kind: Config
clusters:
- cluster:
    server: https://test.example.com
  name: test-cluster
contexts:
- context:
    cluster: test-cluster
    user: test-user
  name: test-context
current-context: test-context
users:
- name: test-user
  user:
    token: test-token
`
	path := filepath.Join(t.TempDir(), "kubeconfig")
	require.NoError(t, os.WriteFile(path, []byte(kubeconfig), 0600))
	return path
}
