package config

import (
	"fmt"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
)

// SchemaRegistry manages the CUE schemas that gate configuration layers.
type SchemaRegistry struct {
	ctx     *cue.Context
	schemas map[string]cue.Value
	mu      sync.RWMutex
}

// NewSchemaRegistry creates a registry with the built-in layer schemas.
func NewSchemaRegistry() *SchemaRegistry {
	sr := &SchemaRegistry{
		ctx:     cuecontext.New(),
		schemas: make(map[string]cue.Value),
	}

	// Built-in schemas are compile-time constants; registration cannot fail.
	_ = sr.RegisterSchema("customer", builtinCustomerSchema)
	_ = sr.RegisterSchema("environment", builtinEnvironmentSchema)

	return sr
}

// RegisterSchema compiles and registers a CUE schema with the given name.
func (sr *SchemaRegistry) RegisterSchema(name, schema string) error {
	sr.mu.Lock()
	defer sr.mu.Unlock()

	val := sr.ctx.CompileString(schema)
	if err := val.Err(); err != nil {
		return fmt.Errorf("failed to compile schema %s: %w", name, err)
	}

	sr.schemas[name] = val
	return nil
}

// GetSchema retrieves a schema by name.
func (sr *SchemaRegistry) GetSchema(name string) (cue.Value, bool) {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	val, ok := sr.schemas[name]
	return val, ok
}

// ListSchemas returns all registered schema names.
func (sr *SchemaRegistry) ListSchemas() []string {
	sr.mu.RLock()
	defer sr.mu.RUnlock()

	names := make([]string, 0, len(sr.schemas))
	for name := range sr.schemas {
		names = append(names, name)
	}
	return names
}

// ValidateAgainstSchema validates a layer against a named schema. The
// returned error carries every violation CUE found, not just the first.
func (sr *SchemaRegistry) ValidateAgainstSchema(schemaName string, data Layer) error {
	schema, ok := sr.GetSchema(schemaName)
	if !ok {
		return fmt.Errorf("schema %s not found", schemaName)
	}

	// Convert data to CUE value
	dataVal := sr.ctx.Encode(data)
	if err := dataVal.Err(); err != nil {
		return fmt.Errorf("failed to encode data: %w", err)
	}

	// Unify with schema (validates)
	unified := schema.Unify(dataVal)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return fmt.Errorf("validation failed: %s", cueerrors.Details(err, nil))
	}

	return nil
}

// ValidateCustomerLayer validates a customer base layer. Beyond the schema,
// the architecture section must declare at least one component group.
func (sr *SchemaRegistry) ValidateCustomerLayer(layer Layer) error {
	if err := sr.ValidateAgainstSchema("customer", layer); err != nil {
		return err
	}
	if len(subMap(layer, "architecture")) == 0 {
		return fmt.Errorf("validation failed: architecture must declare at least one component group")
	}
	return nil
}

// ValidateEnvironmentLayer validates an environment override layer.
func (sr *SchemaRegistry) ValidateEnvironmentLayer(layer Layer) error {
	return sr.ValidateAgainstSchema("environment", layer)
}

// Built-in schema definitions. The schemas are open structs: layers may carry
// extra sections, the schema pins down only what the platform depends on.

const builtinCustomerSchema = `
customer: {
	// Name is the customer display name
	name: string & !=""

	// Prefix is the short identifier embedded in resource names
	prefix: =~"^[a-z][a-z0-9-]{1,11}$"

	...
}

// Architecture declares the component groups enabled for this customer
architecture: {[string]: {...}}

capacity: {
	// FabricCapacityID is the capacity workspaces are assigned to
	fabric_capacity_id: string & !=""

	...
}

...
`

const builtinEnvironmentSchema = `
// WorkspaceID is the workspace this environment deploys into
workspace_id: string & !=""

// CapacitySettings holds per-environment capacity scaling
capacity_settings?: {...}

...
`
