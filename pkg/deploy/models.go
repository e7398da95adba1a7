package deploy

import (
	"time"
)

// ArtifactCollection is the set of deployable artifacts discovered for one
// customer/environment pair. Artifact entries are opaque identifiers owned by
// the artifact source.
type ArtifactCollection struct {
	// Customer is the customer the artifacts belong to.
	Customer string `json:"customer"`

	// Environment is the target environment.
	Environment string `json:"environment"`

	// Lakehouses lists lakehouse definition identifiers.
	Lakehouses []string `json:"lakehouses,omitempty"`

	// Pipelines lists pipeline definition identifiers.
	Pipelines []string `json:"pipelines,omitempty"`

	// Notebooks lists notebook identifiers.
	Notebooks []string `json:"notebooks,omitempty"`
}

// TotalCount returns the total number of artifacts in the collection.
func (c ArtifactCollection) TotalCount() int {
	return len(c.Lakehouses) + len(c.Pipelines) + len(c.Notebooks)
}

// All returns all artifacts as a flat list, lakehouses first.
func (c ArtifactCollection) All() []string {
	all := make([]string, 0, c.TotalCount())
	all = append(all, c.Lakehouses...)
	all = append(all, c.Pipelines...)
	all = append(all, c.Notebooks...)
	return all
}

// ArtifactValidation is the result of artifact existence validation.
type ArtifactValidation struct {
	// Missing lists required artifacts that were not found.
	Missing []string `json:"missing,omitempty"`

	// Found lists the artifacts that were located.
	Found []string `json:"found,omitempty"`
}

// AllPresent returns true if no required artifacts are missing.
func (v ArtifactValidation) AllPresent() bool {
	return len(v.Missing) == 0
}

// ValidationResult is the outcome of a set of validation checks.
//
// Success always equals len(Errors) == 0; construct results through
// NewValidationResult and mutate them through AddError/AddWarning so the
// invariant holds on every path. Warnings never affect Success.
type ValidationResult struct {
	// Success indicates whether validation passed (no errors).
	Success bool `json:"success"`

	// Errors lists the validation errors found.
	Errors []string `json:"errors,omitempty"`

	// Warnings lists non-fatal findings.
	Warnings []string `json:"warnings,omitempty"`

	// ChecksPerformed lists the names of the checks that ran.
	ChecksPerformed []string `json:"checks_performed,omitempty"`
}

// NewValidationResult creates a validation result, deriving Success from the
// error list.
func NewValidationResult(errors, warnings, checks []string) *ValidationResult {
	return &ValidationResult{
		Success:         len(errors) == 0,
		Errors:          errors,
		Warnings:        warnings,
		ChecksPerformed: checks,
	}
}

// AddError appends an error and clears Success.
func (r *ValidationResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Success = false
}

// AddWarning appends a warning. Warnings do not affect Success.
func (r *ValidationResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// AddCheck records that a named check was performed.
func (r *ValidationResult) AddCheck(name string) {
	r.ChecksPerformed = append(r.ChecksPerformed, name)
}

// Merge folds another result into this one, preserving the Success invariant.
func (r *ValidationResult) Merge(other *ValidationResult) {
	if other == nil {
		return
	}
	r.Errors = append(r.Errors, other.Errors...)
	r.Warnings = append(r.Warnings, other.Warnings...)
	r.ChecksPerformed = append(r.ChecksPerformed, other.ChecksPerformed...)
	r.Success = len(r.Errors) == 0
}

// Canonical prerequisite check names, in reporting order.
const (
	CheckToolAvailable       = "terraform_available"
	CheckConfigurationValid  = "configuration_valid"
	CheckArtifactsPresent    = "artifacts_present"
	CheckWorkspaceAccessible = "workspace_accessible"
	CheckCredentialsValid    = "credentials_valid"
)

// PrerequisiteCheck holds five independent environment-readiness facts.
// Every check runs regardless of earlier failures, so the value always
// reflects the complete environment state.
type PrerequisiteCheck struct {
	// ToolAvailable indicates the infrastructure tool is on the PATH.
	ToolAvailable bool `json:"terraform_available"`

	// ConfigurationValid indicates the customer configuration resolves.
	ConfigurationValid bool `json:"configuration_valid"`

	// ArtifactsPresent indicates required artifacts exist.
	ArtifactsPresent bool `json:"artifacts_present"`

	// WorkspaceAccessible indicates the target workspace is reachable.
	WorkspaceAccessible bool `json:"workspace_accessible"`

	// CredentialsValid indicates cloud credentials are present.
	CredentialsValid bool `json:"credentials_valid"`
}

// AllMet returns true if every prerequisite holds.
func (p PrerequisiteCheck) AllMet() bool {
	return p.ToolAvailable && p.ConfigurationValid && p.ArtifactsPresent &&
		p.WorkspaceAccessible && p.CredentialsValid
}

// FailedChecks returns the names of unmet prerequisites in canonical order.
func (p PrerequisiteCheck) FailedChecks() []string {
	checks := []struct {
		name string
		met  bool
	}{
		{CheckToolAvailable, p.ToolAvailable},
		{CheckConfigurationValid, p.ConfigurationValid},
		{CheckArtifactsPresent, p.ArtifactsPresent},
		{CheckWorkspaceAccessible, p.WorkspaceAccessible},
		{CheckCredentialsValid, p.CredentialsValid},
	}

	var failed []string
	for _, c := range checks {
		if !c.met {
			failed = append(failed, c.name)
		}
	}
	return failed
}

// OpResult is the outcome of one infrastructure tool operation.
type OpResult struct {
	// Success indicates whether the operation succeeded.
	Success bool `json:"success"`

	// Command is the tool operation that ran (init, apply, destroy).
	Command string `json:"command"`

	// Diagnostics is the captured diagnostic text from the tool.
	Diagnostics string `json:"diagnostics,omitempty"`

	// Duration is the elapsed operation time.
	Duration time.Duration `json:"duration"`

	// Outputs are the tool outputs captured after apply.
	Outputs map[string]any `json:"outputs,omitempty"`

	// Errors lists operation errors.
	Errors []string `json:"errors,omitempty"`
}

// PlanSummary summarizes an infrastructure tool plan.
type PlanSummary struct {
	// Customer is the customer the plan targets.
	Customer string `json:"customer"`

	// Environment is the target environment.
	Environment string `json:"environment"`

	// HasChanges indicates whether the plan would change infrastructure.
	HasChanges bool `json:"has_changes"`

	// AddCount is the number of resources the plan would create.
	AddCount int `json:"add_count"`

	// ChangeCount is the number of resources the plan would modify.
	ChangeCount int `json:"change_count"`

	// DestroyCount is the number of resources the plan would destroy.
	DestroyCount int `json:"destroy_count"`

	// ResourceNames lists the addresses of affected resources.
	ResourceNames []string `json:"resource_names,omitempty"`
}

// StateInfo describes the infrastructure tool state for a pair.
type StateInfo struct {
	// Exists indicates whether state exists at all.
	Exists bool `json:"exists"`

	// ResourceCount is the number of resources recorded in state.
	ResourceCount int `json:"resource_count"`
}

// DeploymentPlan is an immutable snapshot of a planned deployment. Created
// fresh per planning call and never mutated.
type DeploymentPlan struct {
	// Customer is the customer the plan targets.
	Customer string `json:"customer"`

	// Environment is the target environment.
	Environment string `json:"environment"`

	// Artifacts is the resolved artifact set.
	Artifacts ArtifactCollection `json:"artifacts"`

	// ToolPlan is the infrastructure tool plan summary.
	ToolPlan PlanSummary `json:"tool_plan"`

	// Validation is the embedded prerequisite validation outcome.
	Validation *ValidationResult `json:"validation"`

	// EstimatedDuration is a linear estimate: a fixed base plus a fixed
	// per-artifact cost. It is not a measured value.
	EstimatedDuration time.Duration `json:"estimated_duration"`

	// FailedPrerequisites lists unmet prerequisite names, canonical order.
	FailedPrerequisites []string `json:"failed_prerequisites,omitempty"`
}

// DeploymentResult accumulates the outcome of one deployment attempt.
//
// Lifecycle: created at the start of DeployCustomer, mutated through each
// phase, finalized (timestamps and elapsed time) exactly once at return.
// AddError always also clears Success and sets the status to failed.
type DeploymentResult struct {
	// ID uniquely identifies this deployment attempt.
	ID string `json:"id"`

	// Customer is the customer that was deployed.
	Customer string `json:"customer"`

	// Environment is the target environment.
	Environment string `json:"environment"`

	// Status is the deployment status after the attempt.
	Status Status `json:"status"`

	// Success indicates whether the attempt succeeded.
	Success bool `json:"success"`

	// PhasesCompleted lists completed phases in execution order, append-only.
	PhasesCompleted []Phase `json:"phases_completed,omitempty"`

	// ArtifactsDeployed lists the artifacts that were deployed.
	ArtifactsDeployed []string `json:"artifacts_deployed,omitempty"`

	// WorkspaceID is the deployed workspace identifier, when known.
	WorkspaceID string `json:"workspace_id,omitempty"`

	// Outputs are the infrastructure tool outputs after a successful apply.
	Outputs map[string]any `json:"outputs,omitempty"`

	// Errors lists deployment errors, append-only.
	Errors []string `json:"errors,omitempty"`

	// Warnings lists non-fatal findings, append-only.
	Warnings []string `json:"warnings,omitempty"`

	// StartedAt is when the attempt began.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the attempt finished.
	CompletedAt time.Time `json:"completed_at"`

	// Elapsed is the total attempt duration.
	Elapsed time.Duration `json:"elapsed"`

	finalized bool
}

// AddError appends an error, clears Success, and marks the result failed.
// The coupling is an invariant of the result, not a caller convention.
func (r *DeploymentResult) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Success = false
	r.Status = StatusFailed
}

// AddWarning appends a warning without affecting Success.
func (r *DeploymentResult) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// CompletePhase records a phase as completed.
func (r *DeploymentResult) CompletePhase(p Phase) {
	r.PhasesCompleted = append(r.PhasesCompleted, p)
}

// finalize stamps the completion time and elapsed duration. Subsequent calls
// are no-ops so the result is finalized exactly once.
func (r *DeploymentResult) finalize() {
	if r.finalized {
		return
	}
	r.finalized = true
	r.CompletedAt = time.Now().UTC()
	r.Elapsed = r.CompletedAt.Sub(r.StartedAt)
}

// BatchResult aggregates deployment results for one customer cohort against
// one environment.
type BatchResult struct {
	// ID uniquely identifies this batch run.
	ID string `json:"id"`

	// Environment is the shared target environment.
	Environment string `json:"environment"`

	// TotalCustomers is the number of customers attempted. It always equals
	// SuccessCount() + FailureCount(); customers skipped after an early stop
	// are listed in Skipped instead.
	TotalCustomers int `json:"total_customers"`

	// Skipped lists customers that were never attempted because the batch
	// stopped on an earlier failure.
	Skipped []string `json:"skipped,omitempty"`

	// Successful lists results for customers that deployed successfully.
	// Under parallel execution the order is completion order, which is
	// non-deterministic.
	Successful []*DeploymentResult `json:"successful,omitempty"`

	// Failed lists results for customers whose deployment failed.
	Failed []*DeploymentResult `json:"failed,omitempty"`

	// StartedAt is when the batch began.
	StartedAt time.Time `json:"started_at"`

	// CompletedAt is when the batch finished.
	CompletedAt time.Time `json:"completed_at"`
}

// SuccessCount returns the number of successful deployments.
func (b *BatchResult) SuccessCount() int {
	return len(b.Successful)
}

// FailureCount returns the number of failed deployments.
func (b *BatchResult) FailureCount() int {
	return len(b.Failed)
}

// AttemptedCount returns the number of deployments that were attempted.
func (b *BatchResult) AttemptedCount() int {
	return len(b.Successful) + len(b.Failed)
}

// OverallSuccess returns true when no deployment failed.
func (b *BatchResult) OverallSuccess() bool {
	return b.FailureCount() == 0
}
