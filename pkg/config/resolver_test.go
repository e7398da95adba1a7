package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/shubham184/fabric-deployment-mvp/pkg/deploy"
)

const validBase = `
customer:
  name: Acme
  prefix: acme
architecture:
  medallion:
    bronze_layer: true
    silver_layer: true
    gold_layer: false
capacity:
  fabric_capacity_id: F64
advanced:
  custom_tags:
    team: data
`

const validOverride = `
workspace_id: w-1
capacity_settings:
  sku: F64
environment_tags:
  env: dev
`

func writeConfigTree(t *testing.T, base, override string) string {
	t.Helper()
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "defaults", "architecture.yaml"),
		"architecture:\n  medallion:\n    bronze_layer: true\nretention_days: 7\n")
	writeFile(t, filepath.Join(root, "defaults", "environments.yaml"),
		"dev:\n  retention_days: 1\n  debug_mode: true\nprod:\n  retention_days: 30\n")

	if base != "" {
		writeFile(t, filepath.Join(root, "customers", "acme", "base.yaml"), base)
	}
	if override != "" {
		writeFile(t, filepath.Join(root, "customers", "acme", "environments", "dev.yaml"), override)
	}
	return root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func newTestResolver(root string) *Resolver {
	return NewResolver(root, zerolog.Nop())
}

func TestResolveComposesLayers(t *testing.T) {
	root := writeConfigTree(t, validBase, validOverride)
	r := newTestResolver(root)

	cfg, err := r.Resolve(context.Background(), "acme", "dev")
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	if got := cfg.CustomerName(); got != "Acme" {
		t.Errorf("customer.name = %q, want Acme", got)
	}
	if got := cfg.WorkspaceID(); got != "w-1" {
		t.Errorf("environment.workspace_id = %q, want w-1", got)
	}
	medallion := subMap(cfg.Architecture(), "medallion")
	if medallion["bronze_layer"] != true {
		t.Errorf("architecture.medallion.bronze_layer = %v, want true", medallion["bronze_layer"])
	}

	// Environment-category defaults override the global default; the derived
	// environment sub-tree names the environment.
	if cfg.Tree["retention_days"] != 1 {
		t.Errorf("retention_days = %v, want environment-category value 1", cfg.Tree["retention_days"])
	}
	env := subMap(cfg.Tree, "environment")
	if env["name"] != "dev" {
		t.Errorf("environment.name = %v, want dev", env["name"])
	}
}

func TestResolveIsIdempotent(t *testing.T) {
	root := writeConfigTree(t, validBase, validOverride)
	r := newTestResolver(root)

	first, err := r.Resolve(context.Background(), "acme", "dev")
	if err != nil {
		t.Fatalf("first Resolve() error: %v", err)
	}
	second, err := r.Resolve(context.Background(), "acme", "dev")
	if err != nil {
		t.Fatalf("second Resolve() error: %v", err)
	}

	if !reflect.DeepEqual(first.Tree, second.Tree) {
		t.Error("resolving the same pair twice produced different trees")
	}
}

func TestLoadCustomerBaseNotFound(t *testing.T) {
	root := writeConfigTree(t, "", validOverride)
	r := newTestResolver(root)

	_, err := r.LoadCustomerBase("acme")
	if err == nil {
		t.Fatal("expected error for missing base file")
	}
	var derr *deploy.Error
	if !errors.As(err, &derr) || derr.Code != deploy.ErrCodeNotFound {
		t.Errorf("expected NOT_FOUND configuration error, got %v", err)
	}
}

func TestLoadCustomerBaseSchemaViolation(t *testing.T) {
	missingCapacity := `
customer:
  name: Acme
  prefix: acme
architecture:
  medallion:
    bronze_layer: true
`
	root := writeConfigTree(t, missingCapacity, validOverride)
	r := newTestResolver(root)

	_, err := r.LoadCustomerBase("acme")
	if err == nil {
		t.Fatal("expected schema violation for missing capacity identifier")
	}
	var derr *deploy.Error
	if !errors.As(err, &derr) || derr.Code != deploy.ErrCodeSchemaViolation {
		t.Errorf("expected SCHEMA_VIOLATION, got %v", err)
	}

	// resolve must fail the same way and never reach the merge step.
	if _, err := r.Resolve(context.Background(), "acme", "dev"); err == nil {
		t.Error("expected Resolve to propagate the schema violation")
	}
}

func TestLoadCustomerBaseRejectsBadPrefix(t *testing.T) {
	badPrefix := `
customer:
  name: Acme
  prefix: ACME_PROD
architecture:
  medallion:
    bronze_layer: true
capacity:
  fabric_capacity_id: F64
`
	root := writeConfigTree(t, badPrefix, validOverride)
	r := newTestResolver(root)

	if _, err := r.LoadCustomerBase("acme"); err == nil {
		t.Error("expected schema violation for uppercase prefix")
	}
}

func TestLoadEnvironmentOverrideRequiresWorkspaceID(t *testing.T) {
	root := writeConfigTree(t, validBase, "capacity_settings:\n  sku: F2\n")
	r := newTestResolver(root)

	_, err := r.LoadEnvironmentOverride("acme", "dev")
	if err == nil {
		t.Fatal("expected schema violation for missing workspace_id")
	}
	var derr *deploy.Error
	if !errors.As(err, &derr) || derr.Code != deploy.ErrCodeSchemaViolation {
		t.Errorf("expected SCHEMA_VIOLATION, got %v", err)
	}
}

func TestLoadDefaultsIsMemoized(t *testing.T) {
	root := writeConfigTree(t, validBase, validOverride)
	r := newTestResolver(root)

	first, err := r.LoadDefaults()
	if err != nil {
		t.Fatalf("LoadDefaults() error: %v", err)
	}

	// Removing the files must not affect later calls: the cache holds.
	if err := os.RemoveAll(filepath.Join(root, "defaults")); err != nil {
		t.Fatalf("remove defaults: %v", err)
	}

	second, err := r.LoadDefaults()
	if err != nil {
		t.Fatalf("second LoadDefaults() error: %v", err)
	}
	if first != second {
		t.Error("expected the identical cached defaults value")
	}
}

func TestResolveValidatesComposition(t *testing.T) {
	// Each layer passes its own schema, but the override clears the capacity
	// identifier so the composed result is incomplete.
	overrideClearingCapacity := `
workspace_id: w-1
capacity:
  fabric_capacity_id: ""
`
	root := writeConfigTree(t, validBase, overrideClearingCapacity)
	r := newTestResolver(root)

	_, err := r.Resolve(context.Background(), "acme", "dev")
	if err == nil {
		t.Fatal("expected composition validation failure")
	}
	var derr *deploy.Error
	if !errors.As(err, &derr) || derr.Code != deploy.ErrCodeCompositionInvalid {
		t.Fatalf("expected COMPOSITION_INVALID, got %v", err)
	}
	if len(derr.Reasons) == 0 {
		t.Error("expected the composition error to list its reasons")
	}
}

func TestRequiredArtifacts(t *testing.T) {
	root := writeConfigTree(t, validBase, validOverride)
	r := newTestResolver(root)

	required, err := r.RequiredArtifacts(context.Background(), "acme", "dev")
	if err != nil {
		t.Fatalf("RequiredArtifacts() error: %v", err)
	}

	want := []string{
		"bronze-processing", "bronze-lakehouse", "bronze-pipeline",
		"silver-processing", "silver-lakehouse", "silver-pipeline",
	}
	if !reflect.DeepEqual(required, want) {
		t.Errorf("RequiredArtifacts() = %v, want %v", required, want)
	}
}

func TestCustomersAndEnvironments(t *testing.T) {
	root := writeConfigTree(t, validBase, validOverride)
	writeFile(t, filepath.Join(root, "customers", "acme", "environments", "prod.yaml"), validOverride)
	writeFile(t, filepath.Join(root, "customers", "zeta", "base.yaml"), validBase)
	r := newTestResolver(root)

	customers, err := r.Customers()
	if err != nil {
		t.Fatalf("Customers() error: %v", err)
	}
	if !reflect.DeepEqual(customers, []string{"acme", "zeta"}) {
		t.Errorf("Customers() = %v", customers)
	}

	environments, err := r.Environments("acme")
	if err != nil {
		t.Fatalf("Environments() error: %v", err)
	}
	if !reflect.DeepEqual(environments, []string{"dev", "prod"}) {
		t.Errorf("Environments() = %v", environments)
	}
}
