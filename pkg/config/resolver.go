package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/shubham184/fabric-deployment-mvp/pkg/deploy"
)

// Defaults is the platform-wide defaults fragment: the architecture defaults
// shared by every customer, plus per-environment-category default layers.
type Defaults struct {
	// Architecture is the default architecture layer.
	Architecture Layer

	// Environments maps environment names to their category defaults.
	Environments map[string]Layer
}

// Resolver loads and composes the configuration layers for customer
// deployments. One instance per process run; the defaults fragment is loaded
// once and cached for the lifetime of the instance.
//
// Directory layout under the configuration root:
//
//	defaults/architecture.yaml
//	defaults/environments.yaml
//	customers/<customer>/base.yaml
//	customers/<customer>/environments/<environment>.yaml
type Resolver struct {
	root    string
	schemas *SchemaRegistry
	logger  zerolog.Logger

	mu       sync.Mutex
	defaults *Defaults
}

// NewResolver creates a resolver rooted at the given configuration directory.
func NewResolver(root string, logger zerolog.Logger) *Resolver {
	return &Resolver{
		root:    root,
		schemas: NewSchemaRegistry(),
		logger:  logger.With().Str("component", "config").Logger(),
	}
}

// LoadDefaults loads and caches the defaults fragment. Subsequent calls
// return the identical cached value. Missing default files are tolerated and
// yield empty fragments: defaults are a convenience, not a requirement.
func (r *Resolver) LoadDefaults() (*Defaults, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.defaults != nil {
		return r.defaults, nil
	}

	architecture, err := r.loadOptionalLayer(filepath.Join(r.root, "defaults", "architecture.yaml"))
	if err != nil {
		return nil, err
	}

	envLayer, err := r.loadOptionalLayer(filepath.Join(r.root, "defaults", "environments.yaml"))
	if err != nil {
		return nil, err
	}
	environments := make(map[string]Layer, len(envLayer))
	for name, value := range envLayer {
		layer, ok := value.(map[string]any)
		if !ok {
			return nil, deploy.NewConfigurationError(
				fmt.Sprintf("environment defaults for %q must be a mapping", name), nil).
				WithCode(deploy.ErrCodeSchemaViolation)
		}
		environments[name] = layer
	}

	r.defaults = &Defaults{
		Architecture: architecture,
		Environments: environments,
	}

	r.logger.Debug().
		Int("architecture_keys", len(architecture)).
		Int("environment_categories", len(environments)).
		Msg("defaults loaded")

	return r.defaults, nil
}

// LoadCustomerBase loads and validates a customer's base layer.
func (r *Resolver) LoadCustomerBase(customer string) (Layer, error) {
	path := filepath.Join(r.root, "customers", customer, "base.yaml")
	layer, err := r.loadLayer(path)
	if err != nil {
		return nil, err
	}
	if err := r.schemas.ValidateCustomerLayer(layer); err != nil {
		return nil, deploy.NewConfigurationError(
			fmt.Sprintf("customer base configuration for %q is invalid", customer), err).
			WithCode(deploy.ErrCodeSchemaViolation).
			WithTarget(customer, "")
	}
	return layer, nil
}

// LoadEnvironmentOverride loads and validates a customer's environment
// override layer.
func (r *Resolver) LoadEnvironmentOverride(customer, environment string) (Layer, error) {
	path := filepath.Join(r.root, "customers", customer, "environments", environment+".yaml")
	layer, err := r.loadLayer(path)
	if err != nil {
		return nil, err
	}
	if err := r.schemas.ValidateEnvironmentLayer(layer); err != nil {
		return nil, deploy.NewConfigurationError(
			fmt.Sprintf("environment override for %q/%q is invalid", customer, environment), err).
			WithCode(deploy.ErrCodeSchemaViolation).
			WithTarget(customer, environment)
	}
	return layer, nil
}

// Resolve composes the configuration layers for a customer/environment pair
// into one effective configuration: defaults, then customer base, then the
// environment-category defaults, then the environment override, each layer
// winning over the previous on overlapping paths. The derived environment
// sub-tree (name and workspace identifier) is injected after the merge; it
// exists in no single layer.
func (r *Resolver) Resolve(ctx context.Context, customer, environment string) (*EffectiveConfig, error) {
	defaults, err := r.LoadDefaults()
	if err != nil {
		return nil, err
	}

	base, err := r.LoadCustomerBase(customer)
	if err != nil {
		return nil, err
	}

	override, err := r.LoadEnvironmentOverride(customer, environment)
	if err != nil {
		return nil, err
	}

	tree := MergeAll(defaults.Architecture, base, defaults.Environments[environment], override)
	tree["environment"] = map[string]any{
		"name":         environment,
		"workspace_id": stringAt(override, "workspace_id"),
	}

	if reasons := completenessProblems(tree); len(reasons) > 0 {
		return nil, deploy.NewConfigurationError("effective configuration is incomplete", nil).
			WithCode(deploy.ErrCodeCompositionInvalid).
			WithTarget(customer, environment).
			WithReasons(reasons...)
	}

	r.logger.Debug().
		Str("customer", customer).
		Str("environment", environment).
		Msg("configuration resolved")

	return &EffectiveConfig{
		Customer:    customer,
		Environment: environment,
		Tree:        tree,
	}, nil
}

// completenessProblems checks the composed configuration and returns every
// problem found, never just the first.
func completenessProblems(tree Layer) []string {
	var reasons []string

	customer := subMap(tree, "customer")
	if customer == nil {
		reasons = append(reasons, "missing required section: customer")
	} else {
		if stringAt(customer, "name") == "" {
			reasons = append(reasons, "customer.name must be a non-empty string")
		}
		if stringAt(customer, "prefix") == "" {
			reasons = append(reasons, "customer.prefix must be a non-empty string")
		}
	}

	if len(subMap(tree, "architecture")) == 0 {
		reasons = append(reasons, "missing required section: architecture")
	}

	capacity := subMap(tree, "capacity")
	if capacity == nil {
		reasons = append(reasons, "missing required section: capacity")
	} else if stringAt(capacity, "fabric_capacity_id") == "" {
		reasons = append(reasons, "capacity.fabric_capacity_id must be a non-empty string")
	}

	return reasons
}

// Validate resolves the pair and reports whether the effective configuration
// is complete and valid. Part of the deploy.ConfigSource contract.
func (r *Resolver) Validate(ctx context.Context, customer, environment string) error {
	_, err := r.Resolve(ctx, customer, environment)
	return err
}

// WorkspaceID returns the workspace identifier from the resolved
// configuration. Part of the deploy.ConfigSource contract.
func (r *Resolver) WorkspaceID(ctx context.Context, customer, environment string) (string, error) {
	cfg, err := r.Resolve(ctx, customer, environment)
	if err != nil {
		return "", err
	}
	return cfg.WorkspaceID(), nil
}

// RenderVariables resolves the pair and projects the effective configuration
// into render variables.
func (r *Resolver) RenderVariables(ctx context.Context, customer, environment string) (*RenderVariables, error) {
	cfg, err := r.Resolve(ctx, customer, environment)
	if err != nil {
		return nil, err
	}
	return PrepareRenderVariables(cfg)
}

// RequiredArtifacts resolves the pair and returns the artifact names its
// enabled architecture layers imply.
func (r *Resolver) RequiredArtifacts(ctx context.Context, customer, environment string) ([]string, error) {
	cfg, err := r.Resolve(ctx, customer, environment)
	if err != nil {
		return nil, err
	}
	return cfg.RequiredArtifacts(), nil
}

// Customers lists the customers that have a base configuration, sorted.
func (r *Resolver) Customers() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(r.root, "customers"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, deploy.NewConfigurationError("failed to list customers", err)
	}

	var customers []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		base := filepath.Join(r.root, "customers", entry.Name(), "base.yaml")
		if _, err := os.Stat(base); err == nil {
			customers = append(customers, entry.Name())
		}
	}
	sort.Strings(customers)
	return customers, nil
}

// Environments lists the environments a customer has overrides for, sorted.
func (r *Resolver) Environments(customer string) ([]string, error) {
	dir := filepath.Join(r.root, "customers", customer, "environments")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, deploy.NewConfigurationError(
			fmt.Sprintf("failed to list environments for %q", customer), err).
			WithTarget(customer, "")
	}

	var environments []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".yaml") {
			continue
		}
		environments = append(environments, strings.TrimSuffix(name, ".yaml"))
	}
	sort.Strings(environments)
	return environments, nil
}

// loadLayer loads a required YAML layer file.
func (r *Resolver) loadLayer(path string) (Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, deploy.NewConfigurationError(
				fmt.Sprintf("configuration file not found: %s", path), err).
				WithCode(deploy.ErrCodeNotFound)
		}
		return nil, deploy.NewConfigurationError(
			fmt.Sprintf("failed to read configuration file: %s", path), err)
	}
	return parseLayer(path, data)
}

// loadOptionalLayer loads a YAML layer file, treating absence as empty.
func (r *Resolver) loadOptionalLayer(path string) (Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Layer{}, nil
		}
		return nil, deploy.NewConfigurationError(
			fmt.Sprintf("failed to read configuration file: %s", path), err)
	}
	return parseLayer(path, data)
}

func parseLayer(path string, data []byte) (Layer, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, deploy.NewConfigurationError(
			fmt.Sprintf("failed to parse configuration file: %s", path), err).
			WithCode(deploy.ErrCodeSchemaViolation)
	}
	if raw == nil {
		return Layer{}, nil
	}
	layer, ok := raw.(map[string]any)
	if !ok {
		return nil, deploy.NewConfigurationError(
			fmt.Sprintf("configuration file must contain a mapping: %s", path), nil).
			WithCode(deploy.ErrCodeSchemaViolation)
	}
	return layer, nil
}
