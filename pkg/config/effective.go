package config

// EffectiveConfig is the composed configuration for one customer/environment
// pair: the deep-merge of all layers plus the derived environment sub-tree.
// It is a snapshot; re-resolving produces a new value.
type EffectiveConfig struct {
	// Customer is the customer identifier the configuration was resolved for.
	Customer string `json:"customer"`

	// Environment is the environment the configuration was resolved for.
	Environment string `json:"environment"`

	// Tree is the composed configuration tree.
	Tree Layer `json:"tree"`
}

// WorkspaceID returns the workspace identifier from the derived environment
// sub-tree, or empty when none is configured.
func (c *EffectiveConfig) WorkspaceID() string {
	return stringAt(subMap(c.Tree, "environment"), "workspace_id")
}

// CustomerName returns the configured customer display name.
func (c *EffectiveConfig) CustomerName() string {
	return stringAt(subMap(c.Tree, "customer"), "name")
}

// CustomerPrefix returns the configured customer resource-name prefix.
func (c *EffectiveConfig) CustomerPrefix() string {
	return stringAt(subMap(c.Tree, "customer"), "prefix")
}

// Architecture returns the architecture section of the configuration.
func (c *EffectiveConfig) Architecture() map[string]any {
	return subMap(c.Tree, "architecture")
}

// Capacity returns the capacity section of the configuration.
func (c *EffectiveConfig) Capacity() map[string]any {
	return subMap(c.Tree, "capacity")
}

// RequiredArtifacts returns the artifact names implied by the enabled
// medallion layers, in bronze/silver/gold order.
func (c *EffectiveConfig) RequiredArtifacts() []string {
	medallion := subMap(c.Architecture(), "medallion")

	var required []string
	for _, layer := range []string{"bronze", "silver", "gold"} {
		if enabled, _ := medallion[layer+"_layer"].(bool); enabled {
			required = append(required,
				layer+"-processing", layer+"-lakehouse", layer+"-pipeline")
		}
	}
	return required
}
