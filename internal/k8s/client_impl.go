package k8s

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/giantswarm/kubectl-gateway/internal/logging"
)

// kubernetesClient implements the Client interface using client-go.
type kubernetesClient struct {
	config *ClientConfig
	logger *slog.Logger

	clientset  kubernetes.Interface
	restConfig *rest.Config

	// Context the rest config was built for, informational only.
	currentContext string
}

// ClientConfig holds configuration for the Kubernetes client.
type ClientConfig struct {
	// Kubeconfig settings
	KubeconfigPath string
	Context        string

	// Authentication mode
	InCluster bool // Use in-cluster service account authentication instead of kubeconfig

	// Safety settings
	NonDestructiveMode   bool
	DryRun               bool
	AllowedOperations    []string
	RestrictedNamespaces []string

	// Performance settings
	QPSLimit   float32
	BurstLimit int
	Timeout    time.Duration

	// Logging
	Logger *slog.Logger
}

// NewClient creates a new Kubernetes client with the given configuration.
func NewClient(config *ClientConfig) (Client, error) {
	if config == nil {
		return nil, fmt.Errorf("client configuration is required")
	}

	applyDefaults(config)

	var (
		restConfig     *rest.Config
		currentContext string
		err            error
	)

	if config.InCluster {
		if err := validateInClusterEnvironment(); err != nil {
			return nil, fmt.Errorf("in-cluster authentication not available: %w", err)
		}

		restConfig, err = rest.InClusterConfig()
		if err != nil {
			return nil, fmt.Errorf("failed to create in-cluster rest config: %w", err)
		}
		currentContext = InClusterContext
		config.Logger.Info("using in-cluster authentication")
	} else {
		restConfig, currentContext, err = loadKubeconfig(config)
		if err != nil {
			return nil, fmt.Errorf("failed to load kubeconfig: %w", err)
		}
		config.Logger.Info("using kubeconfig authentication", slog.String("context", currentContext))
	}

	// Apply performance settings
	restConfig.QPS = config.QPSLimit
	restConfig.Burst = config.BurstLimit
	restConfig.Timeout = config.Timeout

	clientset, err := kubernetes.NewForConfig(restConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create clientset for context %q: %w", currentContext, err)
	}

	config.Logger.Debug("kubernetes client ready",
		logging.Host(restConfig.Host),
		slog.Float64("qps", float64(restConfig.QPS)),
		slog.Int("burst", restConfig.Burst),
		slog.Duration("timeout", restConfig.Timeout))

	return &kubernetesClient{
		config:         config,
		logger:         config.Logger,
		clientset:      clientset,
		restConfig:     restConfig,
		currentContext: currentContext,
	}, nil
}

// NewClientForClientset wraps an existing clientset, such as the client-go
// fake. Exec is unavailable because no rest config is attached.
func NewClientForClientset(clientset kubernetes.Interface, config *ClientConfig) Client {
	return newClientWithClientset(clientset, config)
}

// newClientWithClientset wires an existing clientset, used where the rest
// config is not needed (exec is unavailable without one).
func newClientWithClientset(clientset kubernetes.Interface, config *ClientConfig) *kubernetesClient {
	if config == nil {
		config = &ClientConfig{}
	}
	applyDefaults(config)

	return &kubernetesClient{
		config:    config,
		logger:    config.Logger,
		clientset: clientset,
	}
}

func applyDefaults(config *ClientConfig) {
	if config.QPSLimit == 0 {
		config.QPSLimit = DefaultQPSLimit
	}
	if config.BurstLimit == 0 {
		config.BurstLimit = DefaultBurstLimit
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultTimeout * time.Second
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}
}

// validateInClusterEnvironment checks if the required in-cluster authentication files are present.
func validateInClusterEnvironment() error {
	for _, path := range []string{DefaultTokenPath, DefaultCACertPath, DefaultNamespacePath} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return fmt.Errorf("service account file not found at %s", path)
		}
	}
	return nil
}

// loadKubeconfig builds a rest config from the configured path, KUBECONFIG or
// the default loading rules.
func loadKubeconfig(config *ClientConfig) (*rest.Config, string, error) {
	if config.KubeconfigPath == "" {
		kconf := os.Getenv("KUBECONFIG")
		if strings.HasPrefix(kconf, "~/") {
			uhd, _ := os.UserHomeDir()
			kconf = filepath.Join(uhd, kconf[2:])
		}
		config.KubeconfigPath = kconf
	}

	loadingRules := clientcmd.NewDefaultClientConfigLoadingRules()
	if config.KubeconfigPath != "" {
		loadingRules.ExplicitPath = config.KubeconfigPath
	}

	clientConfig := clientcmd.NewNonInteractiveDeferredLoadingClientConfig(
		loadingRules,
		&clientcmd.ConfigOverrides{CurrentContext: config.Context},
	)

	rawConfig, err := clientConfig.RawConfig()
	if err != nil {
		return nil, "", err
	}

	currentContext := config.Context
	if currentContext == "" {
		currentContext = rawConfig.CurrentContext
	}
	if _, exists := rawConfig.Contexts[currentContext]; !exists && currentContext != "" {
		return nil, "", fmt.Errorf("context %q does not exist in kubeconfig", currentContext)
	}

	restConfig, err := clientConfig.ClientConfig()
	if err != nil {
		return nil, "", fmt.Errorf("failed to create rest config for context %q: %w", currentContext, err)
	}

	return restConfig, currentContext, nil
}

// isOperationAllowed checks if an operation is allowed based on configuration.
func (c *kubernetesClient) isOperationAllowed(operation string) error {
	if len(c.config.AllowedOperations) > 0 && !slices.Contains(c.config.AllowedOperations, operation) {
		return fmt.Errorf("operation %q is not allowed", operation)
	}

	if c.config.NonDestructiveMode && mutatingOperations[operation] {
		// exec has no server-side dry-run, so dry-run cannot unlock it
		if !c.config.DryRun || operation == OperationExec {
			return fmt.Errorf("%s operations are not allowed in non-destructive mode",
				cases.Title(language.English).String(operation))
		}
	}

	return nil
}

// isNamespaceRestricted checks if a namespace is restricted.
func (c *kubernetesClient) isNamespaceRestricted(namespace string) error {
	if slices.Contains(c.config.RestrictedNamespaces, namespace) {
		return fmt.Errorf("access to namespace %q is restricted", namespace)
	}
	return nil
}

// checkAccess runs both safety checks for an operation.
func (c *kubernetesClient) checkAccess(operation, namespace string) error {
	if err := c.isOperationAllowed(operation); err != nil {
		return err
	}
	return c.isNamespaceRestricted(namespace)
}

// dryRunOptions returns the server-side dry-run directive for mutations.
func (c *kubernetesClient) dryRunOptions() []string {
	if c.config.DryRun {
		return []string{metav1.DryRunAll}
	}
	return nil
}

// logOperation logs an operation for debugging and audit purposes.
func (c *kubernetesClient) logOperation(operation, namespace string, kind ResourceKind, name string) {
	c.logger.Debug("kubernetes operation",
		logging.Operation(operation),
		logging.Cluster(c.currentContext),
		logging.Namespace(namespace),
		logging.ResourceType(kind.String()),
		logging.ResourceName(name),
	)
}
