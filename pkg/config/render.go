package config

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/shubham184/fabric-deployment-mvp/pkg/deploy"
)

// renderVersion stamps the render variable format carried into templates.
const renderVersion = "1.0.0"

// DeploymentMeta is the deployment metadata section of the render variables.
type DeploymentMeta struct {
	// Timestamp is the preparation time, RFC 3339 UTC.
	Timestamp string `json:"timestamp" validate:"required"`

	// Version is the render variable format version.
	Version string `json:"version" validate:"required"`

	// Customer is the customer display name.
	Customer string `json:"customer" validate:"required"`

	// Environment is the target environment.
	Environment string `json:"environment" validate:"required"`
}

// RenderVariables is the fixed five-section projection of an effective
// configuration handed to template rendering.
type RenderVariables struct {
	// Customer is the customer section of the configuration.
	Customer map[string]any `json:"customer" validate:"required,min=1"`

	// Environment is the derived environment section.
	Environment map[string]any `json:"environment" validate:"required,min=1"`

	// Architecture is the flattened architecture settings.
	Architecture map[string]any `json:"architecture" validate:"required"`

	// Capacity is the capacity section merged with environment scaling.
	Capacity map[string]any `json:"capacity" validate:"required,min=1"`

	// Tags is the merged customer and environment tag set.
	Tags map[string]string `json:"tags"`

	// Deployment is the deployment metadata.
	Deployment DeploymentMeta `json:"deployment"`
}

var renderValidate = validator.New(validator.WithRequiredStructEnabled())

// PrepareRenderVariables projects an effective configuration into render
// variables. Tags merge customer-level custom tags with environment-level
// tags, the environment winning on key collision. Shape problems are
// collected in full and reported as one error.
func PrepareRenderVariables(cfg *EffectiveConfig) (*RenderVariables, error) {
	tree := cfg.Tree

	environment := Merge(nil, subMap(tree, "environment"))
	environment["name"] = cfg.Environment
	if _, ok := tree["debug_mode"]; ok {
		environment["debug_mode"] = tree["debug_mode"]
	}

	// The medallion group carries the per-layer toggles templates consume;
	// flatten it so templates address layers directly.
	architecture := subMap(subMap(tree, "architecture"), "medallion")
	if architecture == nil {
		architecture = subMap(tree, "architecture")
	}

	capacity := Merge(subMap(tree, "capacity"), subMap(tree, "capacity_settings"))

	tags := MergeTags(
		stringTags(subMap(subMap(tree, "advanced"), "custom_tags")),
		stringTags(subMap(tree, "environment_tags")),
	)

	vars := &RenderVariables{
		Customer:     subMap(tree, "customer"),
		Environment:  environment,
		Architecture: architecture,
		Capacity:     capacity,
		Tags:         tags,
		Deployment: DeploymentMeta{
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
			Version:     renderVersion,
			Customer:    cfg.CustomerName(),
			Environment: cfg.Environment,
		},
	}

	if err := renderValidate.Struct(vars); err != nil {
		return nil, deploy.NewConfigurationError("render variables have an invalid shape", nil).
			WithCode(deploy.ErrCodeShapeInvalid).
			WithTarget(cfg.Customer, cfg.Environment).
			WithReasons(shapeReasons(err)...)
	}

	return vars, nil
}

// shapeReasons converts validator violations into one reason per field.
func shapeReasons(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	reasons := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "RenderVariables.")
		switch fe.Tag() {
		case "required", "min":
			reasons = append(reasons, "missing or empty section: "+field)
		default:
			reasons = append(reasons, "invalid section "+field+": "+fe.Tag())
		}
	}
	return reasons
}
