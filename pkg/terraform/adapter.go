// Package terraform adapts the Terraform CLI to the deployment engine's
// infrastructure contract. State is isolated per customer/environment pair
// through backend keys, so customers never share a blast radius.
package terraform

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/hashicorp/terraform-exec/tfexec"
	tfjson "github.com/hashicorp/terraform-json"
	"github.com/rs/zerolog"

	"github.com/shubham184/fabric-deployment-mvp/pkg/config"
	"github.com/shubham184/fabric-deployment-mvp/pkg/deploy"
)

// Backend selects where Terraform state is stored.
type Backend string

const (
	BackendLocal   Backend = "local"
	BackendAzureRM Backend = "azurerm"
	BackendS3      Backend = "s3"
)

// VariableSource supplies the render variables Terraform runs are fed from.
type VariableSource interface {
	RenderVariables(ctx context.Context, customer, environment string) (*config.RenderVariables, error)
}

// Adapter implements deploy.InfrastructureAdapter by driving the Terraform
// CLI through terraform-exec.
type Adapter struct {
	workingDir string
	execPath   string
	backend    Backend
	vars       VariableSource
	logger     zerolog.Logger
}

// NewAdapter creates a Terraform adapter rooted at the module directory.
// execPath empty means resolve terraform from PATH on first use.
func NewAdapter(workingDir, execPath string, backend Backend, vars VariableSource, logger zerolog.Logger) *Adapter {
	if backend == "" {
		backend = BackendLocal
	}
	return &Adapter{
		workingDir: workingDir,
		execPath:   execPath,
		backend:    backend,
		vars:       vars,
		logger:     logger.With().Str("component", "terraform").Logger(),
	}
}

// Init initializes Terraform for a customer/environment pair, pointing the
// backend at the pair's own state key.
func (a *Adapter) Init(ctx context.Context, customer, environment string) (*deploy.OpResult, error) {
	tf, err := a.session()
	if err != nil {
		return nil, err
	}

	opts := []tfexec.InitOption{tfexec.Upgrade(false)}
	for key, value := range a.backendConfig(customer, environment) {
		opts = append(opts, tfexec.BackendConfig(fmt.Sprintf("%s=%s", key, value)))
	}

	started := time.Now()
	if err := tf.Init(ctx, opts...); err != nil {
		return failedOp("init", started, err), nil
	}

	a.logger.Debug().
		Str("customer", customer).
		Str("environment", environment).
		Msg("terraform initialized")

	return &deploy.OpResult{
		Success:  true,
		Command:  "init",
		Duration: time.Since(started),
	}, nil
}

// Plan computes the changes the artifact set implies without mutating
// infrastructure. The plan file is written per pair so a later apply can
// execute exactly what was planned.
func (a *Adapter) Plan(ctx context.Context, customer, environment string, artifacts deploy.ArtifactCollection) (*deploy.PlanSummary, error) {
	tf, err := a.session()
	if err != nil {
		return nil, err
	}

	vars, err := a.planVars(ctx, customer, environment, artifacts)
	if err != nil {
		return nil, err
	}

	planPath := a.planFile(customer, environment)
	opts := []tfexec.PlanOption{tfexec.Out(planPath)}
	for _, v := range vars {
		opts = append(opts, tfexec.Var(v))
	}

	hasChanges, err := tf.Plan(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("terraform plan: %w", err)
	}

	summary := &deploy.PlanSummary{
		Customer:    customer,
		Environment: environment,
		HasChanges:  hasChanges,
	}

	plan, err := tf.ShowPlanFile(ctx, planPath)
	if err != nil {
		return nil, fmt.Errorf("terraform show plan: %w", err)
	}
	summarizeChanges(plan, summary)

	a.logger.Debug().
		Str("customer", customer).
		Str("environment", environment).
		Bool("has_changes", summary.HasChanges).
		Int("add", summary.AddCount).
		Int("change", summary.ChangeCount).
		Int("destroy", summary.DestroyCount).
		Msg("terraform plan complete")

	return summary, nil
}

// Apply provisions infrastructure and deploys artifacts in one run. A plan
// file from an earlier Plan call is applied verbatim when present.
func (a *Adapter) Apply(ctx context.Context, customer, environment string, artifacts deploy.ArtifactCollection) (*deploy.OpResult, error) {
	tf, err := a.session()
	if err != nil {
		return nil, err
	}

	started := time.Now()

	planPath := a.planFile(customer, environment)
	if _, statErr := os.Stat(planPath); statErr == nil {
		err = tf.Apply(ctx, tfexec.DirOrPlan(planPath))
	} else {
		vars, varErr := a.planVars(ctx, customer, environment, artifacts)
		if varErr != nil {
			return nil, varErr
		}
		opts := make([]tfexec.ApplyOption, 0, len(vars))
		for _, v := range vars {
			opts = append(opts, tfexec.Var(v))
		}
		err = tf.Apply(ctx, opts...)
	}
	if err != nil {
		return failedOp("apply", started, err), nil
	}

	outputs, err := a.Outputs(ctx, customer, environment)
	if err != nil {
		// Outputs are read best effort; apply already succeeded.
		a.logger.Warn().Err(err).Msg("failed to read outputs after apply")
		outputs = nil
	}

	return &deploy.OpResult{
		Success:  true,
		Command:  "apply",
		Duration: time.Since(started),
		Outputs:  outputs,
	}, nil
}

// Destroy tears down all infrastructure for the pair.
func (a *Adapter) Destroy(ctx context.Context, customer, environment string) (*deploy.OpResult, error) {
	tf, err := a.session()
	if err != nil {
		return nil, err
	}

	vars, err := a.baseVars(ctx, customer, environment)
	if err != nil {
		return nil, err
	}
	opts := make([]tfexec.DestroyOption, 0, len(vars))
	for _, v := range vars {
		opts = append(opts, tfexec.Var(v))
	}

	started := time.Now()
	if err := tf.Destroy(ctx, opts...); err != nil {
		return failedOp("destroy", started, err), nil
	}

	return &deploy.OpResult{
		Success:  true,
		Command:  "destroy",
		Duration: time.Since(started),
	}, nil
}

// Outputs retrieves the Terraform outputs for the pair.
func (a *Adapter) Outputs(ctx context.Context, customer, environment string) (map[string]any, error) {
	tf, err := a.session()
	if err != nil {
		return nil, err
	}

	metas, err := tf.Output(ctx)
	if err != nil {
		return nil, fmt.Errorf("terraform output: %w", err)
	}

	outputs := make(map[string]any, len(metas))
	for name, meta := range metas {
		var value any
		if err := json.Unmarshal(meta.Value, &value); err != nil {
			value = string(meta.Value)
		}
		outputs[name] = value
	}
	return outputs, nil
}

// State describes the Terraform state for the pair. Absent or empty state is
// reported, not an error.
func (a *Adapter) State(ctx context.Context, customer, environment string) (*deploy.StateInfo, error) {
	tf, err := a.session()
	if err != nil {
		return nil, err
	}

	state, err := tf.Show(ctx)
	if err != nil {
		return nil, fmt.Errorf("terraform show: %w", err)
	}
	if state == nil || state.Values == nil || state.Values.RootModule == nil {
		return &deploy.StateInfo{Exists: false}, nil
	}

	return &deploy.StateInfo{
		Exists:        true,
		ResourceCount: countResources(state.Values.RootModule),
	}, nil
}

func (a *Adapter) session() (*tfexec.Terraform, error) {
	execPath := a.execPath
	if execPath == "" {
		found, err := exec.LookPath("terraform")
		if err != nil {
			return nil, deploy.NewInfrastructureError("terraform executable not found", err).
				WithCode(deploy.ErrCodeToolFailed)
		}
		execPath = found
	}

	tf, err := tfexec.NewTerraform(a.workingDir, execPath)
	if err != nil {
		return nil, deploy.NewInfrastructureError("failed to create terraform session", err).
			WithCode(deploy.ErrCodeToolFailed)
	}
	return tf, nil
}

// backendConfig returns the per-pair backend settings. The local backend
// needs none; remote backends key state by customer and environment.
func (a *Adapter) backendConfig(customer, environment string) map[string]string {
	key := fmt.Sprintf("%s/%s/terraform.tfstate", customer, environment)
	switch a.backend {
	case BackendAzureRM:
		return map[string]string{
			"resource_group_name":  envOr("TF_BACKEND_RESOURCE_GROUP", "terraform-state"),
			"storage_account_name": envOr("TF_BACKEND_STORAGE_ACCOUNT", "terraformstate"),
			"container_name":       envOr("TF_BACKEND_CONTAINER", "tfstate"),
			"key":                  key,
		}
	case BackendS3:
		return map[string]string{
			"bucket": envOr("TF_BACKEND_BUCKET", "terraform-state"),
			"key":    key,
			"region": envOr("TF_BACKEND_REGION", "us-east-1"),
		}
	default:
		return nil
	}
}

func (a *Adapter) planFile(customer, environment string) string {
	return filepath.Join(a.workingDir, fmt.Sprintf("%s-%s.tfplan", customer, environment))
}

// baseVars builds the Terraform variables every operation needs.
func (a *Adapter) baseVars(ctx context.Context, customer, environment string) ([]string, error) {
	rv, err := a.vars.RenderVariables(ctx, customer, environment)
	if err != nil {
		return nil, err
	}

	vars := []string{
		tfVar("customer_name", rv.Deployment.Customer),
		tfVar("customer_prefix", rv.Customer["prefix"]),
		tfVar("environment", environment),
		tfVar("workspace_id", rv.Environment["workspace_id"]),
		tfVar("fabric_capacity_id", rv.Capacity["fabric_capacity_id"]),
	}
	if len(rv.Tags) > 0 {
		vars = append(vars, tfVar("tags", rv.Tags))
	}
	return vars, nil
}

// planVars extends the base variables with the artifact lists.
func (a *Adapter) planVars(ctx context.Context, customer, environment string, artifacts deploy.ArtifactCollection) ([]string, error) {
	vars, err := a.baseVars(ctx, customer, environment)
	if err != nil {
		return nil, err
	}
	vars = append(vars,
		tfVar("notebooks", nonNil(artifacts.Notebooks)),
		tfVar("pipelines", nonNil(artifacts.Pipelines)),
	)
	return vars, nil
}

// tfVar formats one -var assignment. Non-string values are JSON encoded,
// which Terraform accepts for lists and maps.
func tfVar(name string, value any) string {
	if s, ok := value.(string); ok {
		return fmt.Sprintf("%s=%s", name, s)
	}
	encoded, err := json.Marshal(value)
	if err != nil {
		return fmt.Sprintf("%s=%v", name, value)
	}
	return fmt.Sprintf("%s=%s", name, encoded)
}

func nonNil(list []string) []string {
	if list == nil {
		return []string{}
	}
	return list
}

func summarizeChanges(plan *tfjson.Plan, summary *deploy.PlanSummary) {
	for _, rc := range plan.ResourceChanges {
		if rc.Change == nil {
			continue
		}
		actions := rc.Change.Actions
		switch {
		case actions.Create():
			summary.AddCount++
		case actions.Delete():
			summary.DestroyCount++
		case actions.Update(), actions.Replace():
			summary.ChangeCount++
		default:
			continue
		}
		summary.ResourceNames = append(summary.ResourceNames, rc.Address)
	}
	if summary.AddCount+summary.ChangeCount+summary.DestroyCount > 0 {
		summary.HasChanges = true
	}
}

func countResources(module *tfjson.StateModule) int {
	count := len(module.Resources)
	for _, child := range module.ChildModules {
		count += countResources(child)
	}
	return count
}

func failedOp(command string, started time.Time, err error) *deploy.OpResult {
	return &deploy.OpResult{
		Success:     false,
		Command:     command,
		Diagnostics: err.Error(),
		Duration:    time.Since(started),
		Errors:      []string{err.Error()},
	}
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
