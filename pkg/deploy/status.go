package deploy

import (
	"encoding/json"
	"fmt"
)

// Status represents the deployment status of a customer/environment pair.
//
// Transitions: not_deployed -> deploying -> {deployed, failed};
// deployed -> destroying -> not_deployed (or failed on destroy error).
// Status is derived on demand from infrastructure state; the orchestrator
// persists nothing itself.
type Status string

const (
	// StatusNotDeployed indicates no infrastructure exists for the pair.
	StatusNotDeployed Status = "not_deployed"

	// StatusDeploying indicates a deployment attempt is in progress.
	StatusDeploying Status = "deploying"

	// StatusDeployed indicates infrastructure exists and the last attempt succeeded.
	StatusDeployed Status = "deployed"

	// StatusFailed indicates the last attempt failed.
	StatusFailed Status = "failed"

	// StatusDestroying indicates a destroy attempt is in progress.
	StatusDestroying Status = "destroying"
)

// IsTerminal returns true if the status represents a settled state.
func (s Status) IsTerminal() bool {
	return s == StatusNotDeployed || s == StatusDeployed || s == StatusFailed
}

// Validate checks if the status is valid.
func (s Status) Validate() error {
	switch s {
	case StatusNotDeployed, StatusDeploying, StatusDeployed, StatusFailed, StatusDestroying:
		return nil
	default:
		return fmt.Errorf("invalid deployment status: %s", s)
	}
}

// MarshalJSON implements custom JSON marshaling for type-safe enum serialization.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(string(s))
}

// UnmarshalJSON implements custom JSON unmarshaling with validation.
func (s *Status) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}
	*s = Status(str)
	return s.Validate()
}

// Phase represents one of the five ordered stages of a deployment attempt.
type Phase string

const (
	// PhaseValidation is the readiness validation phase.
	PhaseValidation Phase = "validation"

	// PhasePlanning is the artifact discovery and infrastructure planning phase.
	PhasePlanning Phase = "planning"

	// PhaseInfrastructure is the infrastructure provisioning phase.
	PhaseInfrastructure Phase = "infrastructure"

	// PhaseArtifacts is the artifact deployment phase. It shares its outcome
	// with the infrastructure phase: both are applied by one tool invocation.
	PhaseArtifacts Phase = "artifacts"

	// PhaseVerification is the best-effort post-deployment verification phase.
	PhaseVerification Phase = "verification"
)

// Phases lists all deployment phases in execution order.
func Phases() []Phase {
	return []Phase{PhaseValidation, PhasePlanning, PhaseInfrastructure, PhaseArtifacts, PhaseVerification}
}

// Validate checks if the phase is valid.
func (p Phase) Validate() error {
	switch p {
	case PhaseValidation, PhasePlanning, PhaseInfrastructure, PhaseArtifacts, PhaseVerification:
		return nil
	default:
		return fmt.Errorf("invalid deployment phase: %s", p)
	}
}

// ExitCode maps deployment outcomes onto process exit codes for CLI and
// pipeline integration.
type ExitCode int

const (
	ExitSuccess             ExitCode = 0
	ExitValidationFailed    ExitCode = 1
	ExitDeploymentFailed    ExitCode = 2
	ExitInfrastructureError ExitCode = 3
	ExitConfigurationError  ExitCode = 4
	ExitArtifactError       ExitCode = 5
	ExitUnknownError        ExitCode = 99
)

// ExitCodeForError maps a classified error onto an exit code.
func ExitCodeForError(err error) ExitCode {
	switch {
	case err == nil:
		return ExitSuccess
	case IsValidation(err):
		return ExitValidationFailed
	case IsInfrastructure(err):
		return ExitInfrastructureError
	case IsConfiguration(err):
		return ExitConfigurationError
	case IsArtifact(err):
		return ExitArtifactError
	default:
		return ExitUnknownError
	}
}

// ExitCodeForResult maps a deployment result onto an exit code. A result with
// no errors maps to success; otherwise the first recorded error determines the
// code, falling back to a generic deployment failure.
func (r *DeploymentResult) ExitCode() ExitCode {
	if r.Success {
		return ExitSuccess
	}
	if len(r.Errors) == 0 {
		return ExitUnknownError
	}
	return ExitDeploymentFailed
}
