// Package commands implements the fabdeploy CLI.
package commands

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/shubham184/fabric-deployment-mvp/pkg/artifacts"
	"github.com/shubham184/fabric-deployment-mvp/pkg/config"
	"github.com/shubham184/fabric-deployment-mvp/pkg/deploy"
	"github.com/shubham184/fabric-deployment-mvp/pkg/report"
	"github.com/shubham184/fabric-deployment-mvp/pkg/telemetry"
	"github.com/shubham184/fabric-deployment-mvp/pkg/terraform"
)

var (
	// Global flags
	configsDir   string
	artifactsDir string
	terraformDir string
	outputDir    string
	backendName  string
	verbose      bool
	jsonOutput   bool
)

// ExitError carries the process exit code a command resolved to. Cobra
// treats it as an ordinary error; main translates it into os.Exit.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d", e.Code)
}

func exitWith(code deploy.ExitCode) error {
	if code == deploy.ExitSuccess {
		return nil
	}
	return &ExitError{Code: int(code)}
}

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "fabdeploy",
		Short: "Per-customer Fabric data platform deployment",
		Long: `fabdeploy deploys per-customer Microsoft Fabric data platforms.

It resolves layered customer configuration (defaults, customer base,
environment override), validates deployment readiness, and drives
Terraform through a five-phase workflow: validation, planning,
infrastructure, artifacts, verification.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configsDir, "configs", "configs", "configuration directory")
	rootCmd.PersistentFlags().StringVar(&artifactsDir, "artifacts", "predefined-artifacts", "artifact directory")
	rootCmd.PersistentFlags().StringVar(&terraformDir, "terraform-dir", "terraform", "terraform module directory")
	rootCmd.PersistentFlags().StringVar(&outputDir, "output", "outputs", "report output directory")
	rootCmd.PersistentFlags().StringVar(&backendName, "backend", "local", "terraform state backend (local, azurerm, s3)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newDeployCommand())
	rootCmd.AddCommand(newDestroyCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newBatchCommand())
	rootCmd.AddCommand(newStatusCommand())
	rootCmd.AddCommand(newListCommand())

	return rootCmd
}

// app wires the engine components for one command invocation.
type app struct {
	logger       zerolog.Logger
	resolver     *config.Resolver
	orchestrator *deploy.Orchestrator
	batch        *deploy.BatchCoordinator
	validator    *deploy.ReadinessValidator
	reports      *report.Generator
}

func newApp() (*app, error) {
	cfg := telemetry.DefaultLoggingConfig()
	if verbose {
		cfg.Level = "debug"
	}
	if !jsonOutput {
		cfg.Format = "console"
	}
	logger, err := telemetry.NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	resolver := config.NewResolver(configsDir, logger)
	source := artifacts.NewManager(artifactsDir, resolver, logger)
	adapter := terraform.NewAdapter(terraformDir, "", terraform.Backend(backendName), resolver, logger)
	prober := terraform.NewProber("", resolver, logger)
	validator := deploy.NewReadinessValidator(resolver, source, prober, logger)
	metrics := telemetry.NewMetrics("fabdeploy")
	orchestrator := deploy.NewOrchestrator(adapter, source, validator, metrics, logger)
	batch := deploy.NewBatchCoordinator(orchestrator, deploy.DefaultPoolSize, metrics, logger)

	return &app{
		logger:       logger,
		resolver:     resolver,
		orchestrator: orchestrator,
		batch:        batch,
		validator:    validator,
		reports:      report.NewGenerator(outputDir, logger),
	}, nil
}

// printReport emits a deployment report on stdout, as JSON or Markdown.
func (a *app) printReport(r report.DeploymentReport) error {
	if jsonOutput {
		out, err := report.ToJSON(r)
		if err != nil {
			return err
		}
		fmt.Println(out)
		return nil
	}
	fmt.Print(report.ToMarkdown(r))
	return nil
}
