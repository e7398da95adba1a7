// Package report renders deployment and batch outcomes as JSON and Markdown
// documents for operators and CI pipelines.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/shubham184/fabric-deployment-mvp/pkg/deploy"
)

// Generator writes deployment reports to an output directory.
type Generator struct {
	outputDir string
	logger    zerolog.Logger
}

// NewGenerator creates a report generator writing into outputDir.
func NewGenerator(outputDir string, logger zerolog.Logger) *Generator {
	return &Generator{
		outputDir: outputDir,
		logger:    logger.With().Str("component", "report").Logger(),
	}
}

// DeploymentReport is the serializable view of one deployment attempt.
type DeploymentReport struct {
	Customer          string         `json:"customer"`
	Environment       string         `json:"environment"`
	Success           bool           `json:"success"`
	Status            deploy.Status  `json:"status"`
	PhasesCompleted   []deploy.Phase `json:"phases_completed,omitempty"`
	ArtifactsDeployed []string       `json:"artifacts_deployed,omitempty"`
	WorkspaceID       string         `json:"workspace_id,omitempty"`
	Errors            []string       `json:"errors,omitempty"`
	Warnings          []string       `json:"warnings,omitempty"`
	ElapsedSeconds    float64        `json:"elapsed_seconds"`
	GeneratedAt       string         `json:"generated_at"`
}

// BatchReport is the serializable view of one batch run.
type BatchReport struct {
	Environment    string             `json:"environment"`
	TotalCustomers int                `json:"total_customers"`
	Succeeded      int                `json:"succeeded"`
	Failed         int                `json:"failed"`
	Skipped        []string           `json:"skipped,omitempty"`
	OverallSuccess bool               `json:"overall_success"`
	Deployments    []DeploymentReport `json:"deployments"`
	GeneratedAt    string             `json:"generated_at"`
}

// ForDeployment builds a report from a deployment result.
func ForDeployment(result *deploy.DeploymentResult) DeploymentReport {
	return DeploymentReport{
		Customer:          result.Customer,
		Environment:       result.Environment,
		Success:           result.Success,
		Status:            result.Status,
		PhasesCompleted:   result.PhasesCompleted,
		ArtifactsDeployed: result.ArtifactsDeployed,
		WorkspaceID:       result.WorkspaceID,
		Errors:            result.Errors,
		Warnings:          result.Warnings,
		ElapsedSeconds:    result.Elapsed.Seconds(),
		GeneratedAt:       time.Now().UTC().Format(time.RFC3339),
	}
}

// ForBatch builds a report from a batch result, embedding per-deployment
// reports in result order.
func ForBatch(result *deploy.BatchResult) BatchReport {
	report := BatchReport{
		Environment:    result.Environment,
		TotalCustomers: result.TotalCustomers,
		Succeeded:      result.SuccessCount(),
		Failed:         result.FailureCount(),
		Skipped:        result.Skipped,
		OverallSuccess: result.OverallSuccess(),
		GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	for _, r := range result.Successful {
		report.Deployments = append(report.Deployments, ForDeployment(r))
	}
	for _, r := range result.Failed {
		report.Deployments = append(report.Deployments, ForDeployment(r))
	}
	return report
}

// ToJSON renders any report as indented JSON.
func ToJSON(report any) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode report: %w", err)
	}
	return string(data), nil
}

// ToMarkdown renders a deployment report as a Markdown document.
func ToMarkdown(report DeploymentReport) string {
	var b strings.Builder

	b.WriteString("# Deployment Report\n\n")
	fmt.Fprintf(&b, "**Customer:** %s\n", report.Customer)
	fmt.Fprintf(&b, "**Environment:** %s\n", report.Environment)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", report.GeneratedAt)
	fmt.Fprintf(&b, "**Status:** %s\n\n", statusBadge(report.Success))

	if len(report.PhasesCompleted) > 0 {
		b.WriteString("## Phases Completed\n")
		for _, phase := range report.PhasesCompleted {
			fmt.Fprintf(&b, "- %s\n", phase)
		}
		b.WriteString("\n")
	}

	if len(report.ArtifactsDeployed) > 0 {
		b.WriteString("## Artifacts Deployed\n")
		for _, artifact := range report.ArtifactsDeployed {
			fmt.Fprintf(&b, "- %s\n", artifact)
		}
		b.WriteString("\n")
	}

	writeFindings(&b, report.Errors, report.Warnings)

	fmt.Fprintf(&b, "**Elapsed:** %.2fs\n", report.ElapsedSeconds)
	return b.String()
}

// BatchToMarkdown renders a batch report as a Markdown document.
func BatchToMarkdown(report BatchReport) string {
	var b strings.Builder

	b.WriteString("# Batch Deployment Report\n\n")
	fmt.Fprintf(&b, "**Environment:** %s\n", report.Environment)
	fmt.Fprintf(&b, "**Generated:** %s\n\n", report.GeneratedAt)
	fmt.Fprintf(&b, "**Status:** %s\n\n", statusBadge(report.OverallSuccess))

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- **Attempted:** %d\n", report.TotalCustomers)
	fmt.Fprintf(&b, "- **Succeeded:** %d\n", report.Succeeded)
	fmt.Fprintf(&b, "- **Failed:** %d\n", report.Failed)
	if len(report.Skipped) > 0 {
		fmt.Fprintf(&b, "- **Skipped:** %s\n", strings.Join(report.Skipped, ", "))
	}
	b.WriteString("\n")

	if len(report.Deployments) > 0 {
		b.WriteString("## Deployments\n")
		b.WriteString("| Customer | Status | Elapsed | Errors |\n")
		b.WriteString("|----------|--------|---------|--------|\n")
		for _, d := range report.Deployments {
			fmt.Fprintf(&b, "| %s | %s | %.2fs | %d |\n",
				d.Customer, d.Status, d.ElapsedSeconds, len(d.Errors))
		}
		b.WriteString("\n")
	}

	return b.String()
}

// Save writes a report to the output directory in the requested formats
// ("json", "md") and returns the written paths.
func (g *Generator) Save(report DeploymentReport, basename string, formats ...string) ([]string, error) {
	if len(formats) == 0 {
		formats = []string{"json"}
	}
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	var written []string
	for _, format := range formats {
		var content string
		switch format {
		case "json":
			jsonContent, err := ToJSON(report)
			if err != nil {
				return written, err
			}
			content = jsonContent
		case "md":
			content = ToMarkdown(report)
		default:
			return written, fmt.Errorf("unsupported report format: %s", format)
		}

		path := filepath.Join(g.outputDir, basename+"."+format)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return written, fmt.Errorf("failed to write report: %w", err)
		}
		written = append(written, path)
	}

	g.logger.Debug().Strs("paths", written).Msg("report saved")
	return written, nil
}

// SaveBatch writes a batch report to the output directory in the requested
// formats and returns the written paths.
func (g *Generator) SaveBatch(report BatchReport, basename string, formats ...string) ([]string, error) {
	if len(formats) == 0 {
		formats = []string{"json"}
	}
	if err := os.MkdirAll(g.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create report directory: %w", err)
	}

	var written []string
	for _, format := range formats {
		var content string
		switch format {
		case "json":
			jsonContent, err := ToJSON(report)
			if err != nil {
				return written, err
			}
			content = jsonContent
		case "md":
			content = BatchToMarkdown(report)
		default:
			return written, fmt.Errorf("unsupported report format: %s", format)
		}

		path := filepath.Join(g.outputDir, basename+"."+format)
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return written, fmt.Errorf("failed to write report: %w", err)
		}
		written = append(written, path)
	}

	g.logger.Debug().Strs("paths", written).Msg("batch report saved")
	return written, nil
}

func statusBadge(success bool) string {
	if success {
		return "SUCCESS"
	}
	return "FAILED"
}

func writeFindings(b *strings.Builder, errors, warnings []string) {
	if len(errors) > 0 {
		b.WriteString("## Errors\n")
		for _, e := range errors {
			fmt.Fprintf(b, "- %s\n", e)
		}
		b.WriteString("\n")
	}
	if len(warnings) > 0 {
		b.WriteString("## Warnings\n")
		for _, w := range warnings {
			fmt.Fprintf(b, "- %s\n", w)
		}
		b.WriteString("\n")
	}
}
