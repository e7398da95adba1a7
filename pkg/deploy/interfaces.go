package deploy

import (
	"context"
)

// InfrastructureAdapter is the boundary to the external infrastructure
// provisioning tool. The orchestrator treats it as a black box; process
// invocation and output parsing are the adapter's concern.
type InfrastructureAdapter interface {
	// Init initializes the tool for a customer/environment pair.
	Init(ctx context.Context, customer, environment string) (*OpResult, error)

	// Plan computes the infrastructure changes the artifact set implies.
	// Plan never mutates infrastructure.
	Plan(ctx context.Context, customer, environment string, artifacts ArtifactCollection) (*PlanSummary, error)

	// Apply provisions infrastructure and deploys artifacts in one operation.
	Apply(ctx context.Context, customer, environment string, artifacts ArtifactCollection) (*OpResult, error)

	// Destroy tears down all infrastructure for the pair.
	Destroy(ctx context.Context, customer, environment string) (*OpResult, error)

	// Outputs retrieves the tool outputs for the pair.
	Outputs(ctx context.Context, customer, environment string) (map[string]any, error)

	// State describes the tool state for the pair.
	State(ctx context.Context, customer, environment string) (*StateInfo, error)
}

// ArtifactSource supplies the deployable artifacts for a customer/environment
// pair. Implementations own discovery and existence semantics.
type ArtifactSource interface {
	// Discover returns the artifact set for the pair.
	Discover(ctx context.Context, customer, environment string) (ArtifactCollection, error)

	// ValidateExistence reports required-but-missing artifacts.
	ValidateExistence(ctx context.Context, customer, environment string) (ArtifactValidation, error)
}

// ConfigSource is the slice of the configuration resolver the deployment
// engine needs: proof that a customer/environment pair resolves to a valid
// effective configuration, and access to its workspace identifier.
type ConfigSource interface {
	// Validate resolves the pair and returns nil when the effective
	// configuration is complete and valid.
	Validate(ctx context.Context, customer, environment string) error

	// WorkspaceID returns the workspace identifier from the resolved
	// configuration, or empty when none is configured.
	WorkspaceID(ctx context.Context, customer, environment string) (string, error)
}

// EnvironmentProber answers the environment-level readiness facts that do not
// depend on configuration or artifacts.
type EnvironmentProber interface {
	// ToolAvailable reports whether the infrastructure tool can be invoked.
	ToolAvailable(ctx context.Context) bool

	// WorkspaceReachable reports whether the target workspace is reachable.
	WorkspaceReachable(ctx context.Context, customer, environment string) bool

	// CredentialsValid reports whether cloud credentials are present.
	CredentialsValid(ctx context.Context) bool
}
