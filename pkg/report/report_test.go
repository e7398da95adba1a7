package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/shubham184/fabric-deployment-mvp/pkg/deploy"
)

func sampleResult() *deploy.DeploymentResult {
	now := time.Now().UTC()
	return &deploy.DeploymentResult{
		ID:          "dep-1",
		Customer:    "contoso",
		Environment: "dev",
		Status:      deploy.StatusDeployed,
		Success:     true,
		PhasesCompleted: []deploy.Phase{
			deploy.PhaseValidation, deploy.PhasePlanning,
			deploy.PhaseInfrastructure, deploy.PhaseArtifacts,
		},
		ArtifactsDeployed: []string{"bronze-processing.ipynb"},
		WorkspaceID:       "w-1",
		Warnings:          []string{"verification skipped"},
		StartedAt:         now.Add(-90 * time.Second),
		CompletedAt:       now,
		Elapsed:           90 * time.Second,
	}
}

func TestForDeployment(t *testing.T) {
	r := ForDeployment(sampleResult())

	if r.Customer != "contoso" || r.Environment != "dev" || !r.Success {
		t.Errorf("report header = %+v", r)
	}
	if r.ElapsedSeconds != 90 {
		t.Errorf("ElapsedSeconds = %v", r.ElapsedSeconds)
	}
	if r.GeneratedAt == "" {
		t.Error("GeneratedAt must be stamped")
	}
}

func TestForBatch(t *testing.T) {
	failed := &deploy.DeploymentResult{Customer: "fabrikam", Environment: "dev", Status: deploy.StatusFailed}
	failed.AddError("boom")

	batch := &deploy.BatchResult{
		Environment:    "dev",
		TotalCustomers: 2,
		Successful:     []*deploy.DeploymentResult{sampleResult()},
		Failed:         []*deploy.DeploymentResult{failed},
		Skipped:        []string{"adventure"},
	}

	r := ForBatch(batch)

	if r.Succeeded != 1 || r.Failed != 1 || r.OverallSuccess {
		t.Errorf("batch summary = %+v", r)
	}
	if len(r.Deployments) != 2 {
		t.Errorf("embedded deployments = %d", len(r.Deployments))
	}
	if len(r.Skipped) != 1 {
		t.Errorf("Skipped = %v", r.Skipped)
	}
}

func TestToJSONRoundTrips(t *testing.T) {
	out, err := ToJSON(ForDeployment(sampleResult()))
	if err != nil {
		t.Fatalf("ToJSON() error: %v", err)
	}

	var decoded DeploymentReport
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("report JSON does not parse: %v", err)
	}
	if decoded.Customer != "contoso" || decoded.Status != deploy.StatusDeployed {
		t.Errorf("decoded = %+v", decoded)
	}
}

func TestToMarkdown(t *testing.T) {
	md := ToMarkdown(ForDeployment(sampleResult()))

	for _, want := range []string{
		"# Deployment Report", "contoso", "dev", "SUCCESS",
		"## Phases Completed", "## Artifacts Deployed", "## Warnings",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
	if strings.Contains(md, "## Errors") {
		t.Error("successful report must not carry an errors section")
	}
}

func TestBatchToMarkdown(t *testing.T) {
	failed := &deploy.DeploymentResult{Customer: "fabrikam", Environment: "dev"}
	failed.AddError("boom")
	batch := &deploy.BatchResult{
		Environment: "dev",
		Successful:  []*deploy.DeploymentResult{sampleResult()},
		Failed:      []*deploy.DeploymentResult{failed},
	}
	batch.TotalCustomers = batch.AttemptedCount()

	md := BatchToMarkdown(ForBatch(batch))

	for _, want := range []string{"# Batch Deployment Report", "FAILED", "| contoso |", "| fabrikam |"} {
		if !strings.Contains(md, want) {
			t.Errorf("markdown missing %q", want)
		}
	}
}

func TestGeneratorSave(t *testing.T) {
	dir := t.TempDir()
	g := NewGenerator(dir, zerolog.Nop())

	paths, err := g.Save(ForDeployment(sampleResult()), "contoso-dev", "json", "md")
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if len(paths) != 2 {
		t.Fatalf("paths = %v", paths)
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("read %s: %v", path, err)
		}
		if len(data) == 0 {
			t.Errorf("report file %s is empty", path)
		}
	}

	if _, err := g.Save(ForDeployment(sampleResult()), "contoso-dev", "xml"); err == nil {
		t.Error("expected unsupported format error")
	}

	if _, err := os.Stat(filepath.Join(dir, "contoso-dev.json")); err != nil {
		t.Errorf("expected json report on disk: %v", err)
	}
}
