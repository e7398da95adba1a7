package deploy

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestValidCustomerName(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{"simple", "contoso", true},
		{"mixed characters", "Customer_42-a", true},
		{"minimum length", "ab", true},
		{"too short", "a", false},
		{"too long", strings.Repeat("a", 51), false},
		{"fifty chars", strings.Repeat("a", 50), true},
		{"illegal space", "bad name", false},
		{"illegal dot", "bad.name", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidCustomerName(tt.value); got != tt.want {
				t.Errorf("ValidCustomerName(%q) = %v, want %v", tt.value, got, tt.want)
			}
		})
	}
}

func TestValidEnvironment(t *testing.T) {
	for _, env := range AllowedEnvironments {
		if !ValidEnvironment(env) {
			t.Errorf("ValidEnvironment(%q) = false", env)
		}
	}
	for _, env := range []string{"staging", "production", "", "DEV"} {
		if ValidEnvironment(env) {
			t.Errorf("ValidEnvironment(%q) = true", env)
		}
	}
}

func newValidator(configs ConfigSource, source *mockArtifactSource, prober *mockProber) *ReadinessValidator {
	return NewReadinessValidator(configs, source, prober, zerolog.Nop())
}

func TestCheckPrerequisitesRunsEveryCheck(t *testing.T) {
	prober := newMockProber()
	prober.tool = false
	prober.credentials = false
	source := newMockArtifactSource()
	source.validation = ArtifactValidation{Missing: []string{"bronze-processing"}}

	v := newValidator(&mockConfigSource{}, source, prober)
	check := v.CheckPrerequisites(context.Background(), "acme", "dev")

	// A failed early check must not stop the later ones from reporting.
	if check.ToolAvailable || check.ArtifactsPresent || check.CredentialsValid {
		t.Errorf("expected failed checks recorded, got %+v", check)
	}
	if !check.ConfigurationValid || !check.WorkspaceAccessible {
		t.Errorf("expected passing checks recorded, got %+v", check)
	}
}

func TestCheckReadinessAggregatesAllFailures(t *testing.T) {
	prober := newMockProber()
	prober.credentials = false
	source := newMockArtifactSource()
	source.validation = ArtifactValidation{Missing: []string{"bronze-processing", "gold-lakehouse"}}
	configs := &mockConfigSource{validateErr: errors.New("composition invalid")}

	v := newValidator(configs, source, prober)
	result := v.CheckReadiness(context.Background(), "x", "staging")

	if result.Success {
		t.Fatal("expected validation failure")
	}

	// Name, environment, configuration, two missing artifacts, and the
	// prerequisite failures must all be present at once.
	if len(result.Errors) < 5 {
		t.Errorf("expected every failure aggregated, got %d: %v", len(result.Errors), result.Errors)
	}
	assertAnyContains(t, result.Errors, "invalid customer name")
	assertAnyContains(t, result.Errors, "invalid environment")
	assertAnyContains(t, result.Errors, "composition invalid")
	assertAnyContains(t, result.Errors, "bronze-processing")
	assertAnyContains(t, result.Errors, "prerequisite failed")

	if len(result.ChecksPerformed) != 5 {
		t.Errorf("expected 5 checks recorded, got %v", result.ChecksPerformed)
	}
}

func TestCheckReadinessPasses(t *testing.T) {
	v := newValidator(&mockConfigSource{workspaceID: "w-1"}, newMockArtifactSource(), newMockProber())
	result := v.CheckReadiness(context.Background(), "acme", "dev")

	if !result.Success {
		t.Errorf("expected success, errors: %v", result.Errors)
	}
}

func TestCheckBatchReadiness(t *testing.T) {
	configs := &mockConfigSource{validateErr: errors.New("broken config")}
	v := newValidator(configs, newMockArtifactSource(), newMockProber())

	// Eleven customers sharing a 4-character prefix: per-customer errors plus
	// both batch warnings.
	customers := []string{
		"cust01", "cust02", "cust03", "cust04", "cust05", "cust06",
		"cust07", "cust08", "cust09", "cust10", "cust11",
	}
	result := v.CheckBatchReadiness(context.Background(), customers, "dev")

	if result.Success {
		t.Fatal("expected batch validation failure")
	}
	assertAnyContains(t, result.Errors, `customer "cust01"`)
	assertAnyContains(t, result.Warnings, "naming conflicts")
	assertAnyContains(t, result.Warnings, "recommended maximum")
}

func assertAnyContains(t *testing.T, list []string, substr string) {
	t.Helper()
	for _, s := range list {
		if strings.Contains(s, substr) {
			return
		}
	}
	t.Errorf("no entry contains %q in %v", substr, list)
}
