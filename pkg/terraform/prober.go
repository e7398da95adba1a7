package terraform

import (
	"context"
	"os"
	"os/exec"

	"github.com/rs/zerolog"

	"github.com/shubham184/fabric-deployment-mvp/pkg/deploy"
)

// Prober answers environment-level readiness probes for the Terraform
// toolchain and Azure credentials. Implements deploy.EnvironmentProber.
type Prober struct {
	execPath string
	configs  deploy.ConfigSource
	logger   zerolog.Logger
}

// NewProber creates a prober. execPath empty means probe for terraform on
// the PATH.
func NewProber(execPath string, configs deploy.ConfigSource, logger zerolog.Logger) *Prober {
	return &Prober{
		execPath: execPath,
		configs:  configs,
		logger:   logger.With().Str("component", "prober").Logger(),
	}
}

// ToolAvailable reports whether the terraform executable can be invoked.
func (p *Prober) ToolAvailable(ctx context.Context) bool {
	if p.execPath != "" {
		info, err := os.Stat(p.execPath)
		return err == nil && !info.IsDir()
	}
	_, err := exec.LookPath("terraform")
	return err == nil
}

// WorkspaceReachable reports whether the pair resolves to a workspace
// identifier. Resolvability is the strongest check available without calling
// the workspace API.
func (p *Prober) WorkspaceReachable(ctx context.Context, customer, environment string) bool {
	id, err := p.configs.WorkspaceID(ctx, customer, environment)
	if err != nil {
		p.logger.Debug().Err(err).
			Str("customer", customer).
			Str("environment", environment).
			Msg("workspace probe failed")
		return false
	}
	return id != ""
}

// CredentialsValid reports whether an Azure auth mechanism is present:
// either the service principal environment variables or the Azure CLI.
func (p *Prober) CredentialsValid(ctx context.Context) bool {
	principal := os.Getenv("AZURE_CLIENT_ID") != "" &&
		os.Getenv("AZURE_CLIENT_SECRET") != "" &&
		os.Getenv("AZURE_TENANT_ID") != ""
	if principal {
		return true
	}
	_, err := exec.LookPath("az")
	return err == nil
}
