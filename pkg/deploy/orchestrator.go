package deploy

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Duration estimate constants: a deliberately simple linear model.
const (
	estimateBase        = 60 * time.Second
	estimatePerArtifact = 30 * time.Second
)

// MetricsRecorder receives deployment outcome observations. A nil recorder
// disables metrics.
type MetricsRecorder interface {
	// ObserveDeployment records one finished deployment attempt.
	ObserveDeployment(environment string, status Status, elapsed time.Duration)

	// ObserveBatch records one finished batch run.
	ObserveBatch(environment string, succeeded, failed int)
}

// Orchestrator runs the phased deployment state machine for single
// customer/environment pairs. It owns no state of its own: deployment status
// is derived on demand from the infrastructure adapter.
//
// Collaborator failures never escape as errors from DeployCustomer or
// DestroyDeployment; they are converted into errors on the returned result.
type Orchestrator struct {
	adapter   InfrastructureAdapter
	artifacts ArtifactSource
	validator *ReadinessValidator
	metrics   MetricsRecorder
	logger    zerolog.Logger
}

// NewOrchestrator creates a deployment orchestrator. metrics may be nil.
func NewOrchestrator(adapter InfrastructureAdapter, artifacts ArtifactSource, validator *ReadinessValidator, metrics MetricsRecorder, logger zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		adapter:   adapter,
		artifacts: artifacts,
		validator: validator,
		metrics:   metrics,
		logger:    logger.With().Str("component", "orchestrator").Logger(),
	}
}

// DeployCustomer deploys a single customer to the given environment through
// the five ordered phases. Each phase gates the next; a hard failure records
// the error, halts, and returns a finalized failed result. With dryRun set
// the deployment stops after planning and no infrastructure is mutated.
func (o *Orchestrator) DeployCustomer(ctx context.Context, customer, environment string, dryRun bool) (result *DeploymentResult) {
	result = &DeploymentResult{
		ID:          uuid.New().String(),
		Customer:    customer,
		Environment: environment,
		Status:      StatusDeploying,
		StartedAt:   time.Now().UTC(),
	}

	logger := o.logger.With().
		Str("customer", customer).
		Str("environment", environment).
		Bool("dry_run", dryRun).
		Logger()

	defer func() {
		result.finalize()
		if o.metrics != nil {
			o.metrics.ObserveDeployment(environment, result.Status, result.Elapsed)
		}
		logger.Info().
			Bool("success", result.Success).
			Str("status", string(result.Status)).
			Dur("elapsed", result.Elapsed).
			Msg("deployment finished")
	}()
	defer func() {
		if p := recover(); p != nil {
			result.AddError(fmt.Sprintf("deployment panicked: %v", p))
		}
	}()

	logger.Info().Msg("starting deployment")

	// Phase 1: validation.
	validation := o.validator.CheckReadiness(ctx, customer, environment)
	if !validation.Success {
		result.AddError(fmt.Sprintf("validation failed: %s", strings.Join(validation.Errors, "; ")))
		return result
	}
	result.CompletePhase(PhaseValidation)

	// Phase 2: planning.
	plan, err := o.PlanDeployment(ctx, customer, environment)
	if err != nil {
		result.AddError(err.Error())
		return result
	}
	if !plan.Validation.Success {
		result.AddError(fmt.Sprintf("planning failed: %s", strings.Join(plan.Validation.Errors, "; ")))
		return result
	}
	result.CompletePhase(PhasePlanning)

	// Dry run stops here: the one shortcut in the state machine. Planning is
	// always recorded as completed, even for a no-change plan.
	if dryRun {
		result.Success = true
		result.Status = StatusDeployed
		return result
	}

	// Phases 3+4: infrastructure and artifacts are applied by one tool run,
	// so they succeed or fail together.
	if failure := o.applyInfrastructure(ctx, result, plan.Artifacts); failure != "" {
		result.AddError(failure)
		return result
	}
	result.CompletePhase(PhaseInfrastructure)
	result.CompletePhase(PhaseArtifacts)

	result.Success = true
	result.Status = StatusDeployed
	result.ArtifactsDeployed = plan.Artifacts.All()

	// Phase 5: verification is best effort. The deployment already succeeded;
	// a verification failure only downgrades to a warning.
	outputs, err := o.adapter.Outputs(ctx, customer, environment)
	if err != nil {
		result.AddWarning(fmt.Sprintf("failed to read outputs: %v", err))
		return result
	}
	result.Outputs = outputs
	if id, ok := outputs["workspace_id"].(string); ok {
		result.WorkspaceID = id
	}
	result.CompletePhase(PhaseVerification)

	return result
}

// applyInfrastructure runs init then apply, returning a non-empty failure
// message when either operation fails.
func (o *Orchestrator) applyInfrastructure(ctx context.Context, result *DeploymentResult, artifacts ArtifactCollection) string {
	initRes, err := o.adapter.Init(ctx, result.Customer, result.Environment)
	if err != nil {
		return fmt.Sprintf("infrastructure init failed: %v", err)
	}
	if !initRes.Success {
		return fmt.Sprintf("infrastructure init failed: %s", opFailure(initRes))
	}

	applyRes, err := o.adapter.Apply(ctx, result.Customer, result.Environment, artifacts)
	if err != nil {
		return fmt.Sprintf("infrastructure apply failed: %v", err)
	}
	if !applyRes.Success {
		return fmt.Sprintf("infrastructure apply failed: %s", opFailure(applyRes))
	}

	if len(applyRes.Outputs) > 0 {
		result.Outputs = applyRes.Outputs
		if id, ok := applyRes.Outputs["workspace_id"].(string); ok {
			result.WorkspaceID = id
		}
	}
	return ""
}

func opFailure(op *OpResult) string {
	if len(op.Errors) > 0 {
		return strings.Join(op.Errors, "; ")
	}
	return op.Diagnostics
}

// PlanDeployment composes artifact discovery, the prerequisite check, and an
// infrastructure plan into an immutable snapshot. It never mutates
// infrastructure state.
func (o *Orchestrator) PlanDeployment(ctx context.Context, customer, environment string) (*DeploymentPlan, error) {
	artifacts, err := o.artifacts.Discover(ctx, customer, environment)
	if err != nil {
		return nil, NewArtifactError("artifact discovery failed", err).
			WithCode(ErrCodeDiscoveryFailed).
			WithTarget(customer, environment)
	}

	prereq := o.validator.CheckPrerequisites(ctx, customer, environment)
	validation := NewValidationResult(nil, nil, []string{"prerequisites"})
	if !prereq.AllMet() {
		validation.AddError(fmt.Sprintf("prerequisites not met: %s",
			strings.Join(prereq.FailedChecks(), ", ")))
	}

	toolPlan, err := o.adapter.Plan(ctx, customer, environment, artifacts)
	if err != nil {
		return nil, NewInfrastructureError("plan failed", err).
			WithCode(ErrCodeToolFailed).
			WithTarget(customer, environment)
	}

	o.logger.Debug().
		Str("customer", customer).
		Str("environment", environment).
		Int("artifacts", artifacts.TotalCount()).
		Bool("has_changes", toolPlan.HasChanges).
		Msg("planning complete")

	return &DeploymentPlan{
		Customer:            customer,
		Environment:         environment,
		Artifacts:           artifacts,
		ToolPlan:            *toolPlan,
		Validation:          validation,
		EstimatedDuration:   estimateBase + time.Duration(artifacts.TotalCount())*estimatePerArtifact,
		FailedPrerequisites: prereq.FailedChecks(),
	}, nil
}

// DestroyDeployment tears down a customer deployment in a single phase.
// Adapter diagnostics are copied into the result errors verbatim.
func (o *Orchestrator) DestroyDeployment(ctx context.Context, customer, environment string) (result *DeploymentResult) {
	result = &DeploymentResult{
		ID:          uuid.New().String(),
		Customer:    customer,
		Environment: environment,
		Status:      StatusDestroying,
		StartedAt:   time.Now().UTC(),
	}
	defer result.finalize()
	defer func() {
		if p := recover(); p != nil {
			result.AddError(fmt.Sprintf("destroy panicked: %v", p))
		}
	}()

	o.logger.Info().
		Str("customer", customer).
		Str("environment", environment).
		Msg("starting destroy")

	op, err := o.adapter.Destroy(ctx, customer, environment)
	if err != nil {
		result.AddError(fmt.Sprintf("destroy failed: %v", err))
		return result
	}

	if !op.Success {
		result.Errors = append(result.Errors, op.Errors...)
		result.Success = false
		result.Status = StatusFailed
		return result
	}

	result.Success = true
	result.Status = StatusNotDeployed
	return result
}

// Status derives the current deployment status from infrastructure state.
// State that exists with at least one resource means deployed; anything else,
// including a state lookup failure, means not deployed.
func (o *Orchestrator) Status(ctx context.Context, customer, environment string) Status {
	state, err := o.adapter.State(ctx, customer, environment)
	if err != nil {
		o.logger.Warn().Err(err).
			Str("customer", customer).
			Str("environment", environment).
			Msg("failed to read infrastructure state")
		return StatusNotDeployed
	}
	if state.Exists && state.ResourceCount > 0 {
		return StatusDeployed
	}
	return StatusNotDeployed
}
