package deploy

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
)

// AllowedEnvironments is the fixed set of deployable environment names.
var AllowedEnvironments = []string{"dev", "test", "prod"}

var customerNamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// ValidCustomerName reports whether a customer name has the accepted format:
// 2-50 characters from [a-zA-Z0-9_-].
func ValidCustomerName(name string) bool {
	if len(name) < 2 || len(name) > 50 {
		return false
	}
	return customerNamePattern.MatchString(name)
}

// ValidEnvironment reports whether the environment name is deployable.
func ValidEnvironment(environment string) bool {
	for _, e := range AllowedEnvironments {
		if environment == e {
			return true
		}
	}
	return false
}

// ReadinessValidator checks environment readiness independent of any specific
// deployment attempt. Checks never short-circuit: every check runs so results
// always reflect the complete state. Business-rule failures are reported as
// soft result values, never as errors.
type ReadinessValidator struct {
	configs   ConfigSource
	artifacts ArtifactSource
	prober    EnvironmentProber
	logger    zerolog.Logger
}

// NewReadinessValidator creates a readiness validator.
func NewReadinessValidator(configs ConfigSource, artifacts ArtifactSource, prober EnvironmentProber, logger zerolog.Logger) *ReadinessValidator {
	return &ReadinessValidator{
		configs:   configs,
		artifacts: artifacts,
		prober:    prober,
		logger:    logger.With().Str("component", "readiness").Logger(),
	}
}

// CheckPrerequisites performs the five independent prerequisite checks.
func (v *ReadinessValidator) CheckPrerequisites(ctx context.Context, customer, environment string) PrerequisiteCheck {
	check := PrerequisiteCheck{
		ToolAvailable:       v.prober.ToolAvailable(ctx),
		ConfigurationValid:  v.configs.Validate(ctx, customer, environment) == nil,
		ArtifactsPresent:    v.artifactsPresent(ctx, customer, environment),
		WorkspaceAccessible: v.prober.WorkspaceReachable(ctx, customer, environment),
		CredentialsValid:    v.prober.CredentialsValid(ctx),
	}

	v.logger.Debug().
		Str("customer", customer).
		Str("environment", environment).
		Bool("all_met", check.AllMet()).
		Strs("failed", check.FailedChecks()).
		Msg("prerequisite check complete")

	return check
}

// CheckReadiness validates that a deployment may proceed, aggregating every
// failure rather than stopping at the first one.
func (v *ReadinessValidator) CheckReadiness(ctx context.Context, customer, environment string) *ValidationResult {
	result := NewValidationResult(nil, nil, nil)

	if !ValidCustomerName(customer) {
		result.AddError(fmt.Sprintf("invalid customer name format: %q", customer))
	}
	result.AddCheck("customer_name_format")

	if !ValidEnvironment(environment) {
		result.AddError(fmt.Sprintf("invalid environment: %q, must be one of %s",
			environment, strings.Join(AllowedEnvironments, ", ")))
	}
	result.AddCheck("environment_name")

	if err := v.configs.Validate(ctx, customer, environment); err != nil {
		result.AddError(err.Error())
	}
	result.AddCheck("configuration_valid")

	validation, err := v.artifacts.ValidateExistence(ctx, customer, environment)
	switch {
	case err != nil:
		result.AddError(fmt.Sprintf("artifact validation failed: %v", err))
	case !validation.AllPresent():
		for _, missing := range validation.Missing {
			result.AddError(fmt.Sprintf("required artifact missing: %s", missing))
		}
	}
	result.AddCheck("artifact_existence")

	prereq := v.CheckPrerequisites(ctx, customer, environment)
	for _, failed := range prereq.FailedChecks() {
		result.AddError(fmt.Sprintf("prerequisite failed: %s", failed))
	}
	result.AddCheck("prerequisites")

	v.logger.Debug().
		Str("customer", customer).
		Str("environment", environment).
		Bool("success", result.Success).
		Int("errors", len(result.Errors)).
		Int("warnings", len(result.Warnings)).
		Msg("readiness validation complete")

	return result
}

// CheckBatchReadiness validates readiness for a batch of customers against
// one environment. Per-customer failures are prefixed with the customer name;
// prefix conflicts and oversized batches are reported as warnings.
func (v *ReadinessValidator) CheckBatchReadiness(ctx context.Context, customers []string, environment string) *ValidationResult {
	result := NewValidationResult(nil, nil, nil)

	for _, customer := range customers {
		cr := v.CheckReadiness(ctx, customer, environment)
		for _, e := range cr.Errors {
			result.AddError(fmt.Sprintf("customer %q: %s", customer, e))
		}
		for _, w := range cr.Warnings {
			result.AddWarning(fmt.Sprintf("customer %q: %s", customer, w))
		}
	}
	result.AddCheck("individual_customer_validation")

	if hasDuplicatePrefixes(customers) {
		result.AddWarning("potential resource naming conflicts detected between customers")
	}
	result.AddCheck("resource_conflicts")

	if len(customers) > maxRecommendedBatchSize {
		result.AddWarning(fmt.Sprintf("batch of %d customers exceeds the recommended maximum of %d",
			len(customers), maxRecommendedBatchSize))
	}
	result.AddCheck("batch_capacity")

	return result
}

const maxRecommendedBatchSize = 10

func hasDuplicatePrefixes(customers []string) bool {
	seen := make(map[string]bool, len(customers))
	for _, customer := range customers {
		prefix := customer
		if len(prefix) > 4 {
			prefix = prefix[:4]
		}
		if seen[prefix] {
			return true
		}
		seen[prefix] = true
	}
	return false
}

func (v *ReadinessValidator) artifactsPresent(ctx context.Context, customer, environment string) bool {
	validation, err := v.artifacts.ValidateExistence(ctx, customer, environment)
	if err != nil {
		return false
	}
	return validation.AllPresent()
}
