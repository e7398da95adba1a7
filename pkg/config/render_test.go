package config

import (
	"errors"
	"testing"

	"github.com/shubham184/fabric-deployment-mvp/pkg/deploy"
)

func effectiveForRender() *EffectiveConfig {
	return &EffectiveConfig{
		Customer:    "acme",
		Environment: "dev",
		Tree: Layer{
			"customer": map[string]any{
				"name":   "Acme",
				"prefix": "acme",
			},
			"environment": map[string]any{
				"name":         "dev",
				"workspace_id": "w-1",
			},
			"architecture": map[string]any{
				"medallion": map[string]any{
					"bronze_layer": true,
					"silver_layer": false,
				},
			},
			"capacity": map[string]any{
				"fabric_capacity_id": "F64",
			},
			"capacity_settings": map[string]any{
				"sku": "F2",
			},
			"advanced": map[string]any{
				"custom_tags": map[string]any{
					"team": "data",
					"env":  "customer-says",
				},
			},
			"environment_tags": map[string]any{
				"env": "dev",
			},
			"debug_mode": true,
		},
	}
}

func TestPrepareRenderVariables(t *testing.T) {
	vars, err := PrepareRenderVariables(effectiveForRender())
	if err != nil {
		t.Fatalf("PrepareRenderVariables() error: %v", err)
	}

	if vars.Customer["name"] != "Acme" {
		t.Errorf("customer.name = %v", vars.Customer["name"])
	}
	if vars.Environment["name"] != "dev" || vars.Environment["workspace_id"] != "w-1" {
		t.Errorf("environment section = %v", vars.Environment)
	}
	if vars.Environment["debug_mode"] != true {
		t.Errorf("expected debug_mode carried into environment, got %v", vars.Environment["debug_mode"])
	}

	// Medallion settings are flattened into the architecture section.
	if vars.Architecture["bronze_layer"] != true {
		t.Errorf("architecture = %v, want flattened medallion settings", vars.Architecture)
	}

	// Capacity merges the base section with the environment scaling settings.
	if vars.Capacity["fabric_capacity_id"] != "F64" || vars.Capacity["sku"] != "F2" {
		t.Errorf("capacity = %v", vars.Capacity)
	}

	// Environment tags win over customer tags on collision.
	if vars.Tags["env"] != "dev" || vars.Tags["team"] != "data" {
		t.Errorf("tags = %v", vars.Tags)
	}

	if vars.Deployment.Version != "1.0.0" {
		t.Errorf("deployment.version = %q", vars.Deployment.Version)
	}
	if vars.Deployment.Customer != "Acme" || vars.Deployment.Environment != "dev" {
		t.Errorf("deployment metadata = %+v", vars.Deployment)
	}
	if vars.Deployment.Timestamp == "" {
		t.Error("deployment.timestamp must be set")
	}
}

func TestPrepareRenderVariablesShapeInvalid(t *testing.T) {
	cfg := effectiveForRender()
	delete(cfg.Tree, "customer")
	delete(cfg.Tree, "capacity")
	delete(cfg.Tree, "capacity_settings")

	_, err := PrepareRenderVariables(cfg)
	if err == nil {
		t.Fatal("expected shape validation failure")
	}

	var derr *deploy.Error
	if !errors.As(err, &derr) || derr.Code != deploy.ErrCodeShapeInvalid {
		t.Fatalf("expected SHAPE_INVALID, got %v", err)
	}
	// Both missing sections are reported, not just the first.
	if len(derr.Reasons) < 2 {
		t.Errorf("expected every missing section reported, got %v", derr.Reasons)
	}
}
