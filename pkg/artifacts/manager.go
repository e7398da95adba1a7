// Package artifacts discovers and validates the deployable artifacts
// (notebooks, pipeline definitions) generated per customer and environment.
package artifacts

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/shubham184/fabric-deployment-mvp/pkg/deploy"
)

// Manager discovers artifacts on the local filesystem.
//
// Layout under the artifact root:
//
//	<customer>/<environment>/notebooks/*.ipynb   (or directly in the pair dir)
//	<customer>/<environment>/pipelines/*.json
//
// Lakehouses have no file representation; they are created by the
// infrastructure tool from configuration alone.
type Manager struct {
	root    string
	configs ConfigReader
	logger  zerolog.Logger
}

// ConfigReader is the slice of the configuration resolver the artifact
// manager needs to derive which artifacts a customer requires.
type ConfigReader interface {
	// RequiredArtifacts returns the artifact names the customer's enabled
	// architecture layers imply for the environment.
	RequiredArtifacts(ctx context.Context, customer, environment string) ([]string, error)
}

// NewManager creates an artifact manager rooted at the given directory.
func NewManager(root string, configs ConfigReader, logger zerolog.Logger) *Manager {
	return &Manager{
		root:    root,
		configs: configs,
		logger:  logger.With().Str("component", "artifacts").Logger(),
	}
}

// Discover returns the artifact set for a customer/environment pair. Part of
// the deploy.ArtifactSource contract.
func (m *Manager) Discover(ctx context.Context, customer, environment string) (deploy.ArtifactCollection, error) {
	pairDir := filepath.Join(m.root, customer, environment)
	if _, err := os.Stat(pairDir); err != nil {
		return deploy.ArtifactCollection{}, deploy.NewArtifactError(
			fmt.Sprintf("artifact directory not found: %s", pairDir), err).
			WithCode(deploy.ErrCodeNotFound).
			WithTarget(customer, environment)
	}

	// Notebooks live in a notebooks/ subdirectory when one exists, otherwise
	// directly in the pair directory.
	notebookDir := filepath.Join(pairDir, "notebooks")
	if _, err := os.Stat(notebookDir); err != nil {
		notebookDir = pairDir
	}
	notebooks := globNames(notebookDir, "*.ipynb")

	pipelines := globNames(filepath.Join(pairDir, "pipelines"), "*.json")

	collection := deploy.ArtifactCollection{
		Customer:    customer,
		Environment: environment,
		Pipelines:   pipelines,
		Notebooks:   notebooks,
	}

	m.logger.Debug().
		Str("customer", customer).
		Str("environment", environment).
		Int("notebooks", len(notebooks)).
		Int("pipelines", len(pipelines)).
		Msg("artifacts discovered")

	return collection, nil
}

// ValidateExistence reports required artifacts that have no matching
// discovered artifact. Part of the deploy.ArtifactSource contract.
func (m *Manager) ValidateExistence(ctx context.Context, customer, environment string) (deploy.ArtifactValidation, error) {
	required, err := m.configs.RequiredArtifacts(ctx, customer, environment)
	if err != nil {
		return deploy.ArtifactValidation{}, err
	}

	collection, err := m.Discover(ctx, customer, environment)
	if err != nil {
		return deploy.ArtifactValidation{}, err
	}
	found := collection.All()

	var missing []string
	for _, name := range required {
		if !anyContains(found, name) {
			missing = append(missing, name)
		}
	}

	return deploy.ArtifactValidation{
		Missing: missing,
		Found:   found,
	}, nil
}

// ContentValidation reports which notebooks have structurally valid content.
type ContentValidation struct {
	// Valid lists notebooks that parsed cleanly.
	Valid []string `json:"valid,omitempty"`

	// Invalid lists notebooks that failed validation.
	Invalid []string `json:"invalid,omitempty"`

	// Problems maps each invalid notebook to its failure.
	Problems map[string]string `json:"problems,omitempty"`
}

// IsValid returns true when every notebook validated.
func (v ContentValidation) IsValid() bool {
	return len(v.Invalid) == 0
}

// ValidateContent checks every discovered notebook for structural validity.
// A notebook must be JSON with cells, metadata, and nbformat fields.
func (m *Manager) ValidateContent(ctx context.Context, collection deploy.ArtifactCollection) ContentValidation {
	validation := ContentValidation{Problems: map[string]string{}}

	notebookDir := filepath.Join(m.root, collection.Customer, collection.Environment, "notebooks")
	if _, err := os.Stat(notebookDir); err != nil {
		notebookDir = filepath.Join(m.root, collection.Customer, collection.Environment)
	}

	for _, name := range collection.Notebooks {
		if err := validateNotebook(filepath.Join(notebookDir, name)); err != nil {
			validation.Invalid = append(validation.Invalid, name)
			validation.Problems[name] = err.Error()
			continue
		}
		validation.Valid = append(validation.Valid, name)
	}

	return validation
}

// DeploymentPhases is the canonical artifact deployment order.
var DeploymentPhases = []string{"lakehouses", "pipelines", "notebooks"}

// OrganizeByPhase groups a collection's artifacts by deployment phase, in
// canonical phase order.
func OrganizeByPhase(collection deploy.ArtifactCollection) map[string][]string {
	return map[string][]string{
		"lakehouses": collection.Lakehouses,
		"pipelines":  collection.Pipelines,
		"notebooks":  collection.Notebooks,
	}
}

func validateNotebook(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read notebook: %w", err)
	}

	var content map[string]json.RawMessage
	if err := json.Unmarshal(data, &content); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	for _, field := range []string{"cells", "metadata", "nbformat"} {
		if _, ok := content[field]; !ok {
			return fmt.Errorf("missing required field: %s", field)
		}
	}

	var cells []json.RawMessage
	if err := json.Unmarshal(content["cells"], &cells); err != nil {
		return fmt.Errorf("cells must be a list: %w", err)
	}

	return nil
}

// globNames returns the sorted base names matching a pattern in a directory.
// Missing directories yield no matches.
func globNames(dir, pattern string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(matches))
	for _, match := range matches {
		names = append(names, filepath.Base(match))
	}
	sort.Strings(names)
	return names
}

func anyContains(haystack []string, needle string) bool {
	for _, s := range haystack {
		if strings.Contains(s, needle) {
			return true
		}
	}
	return false
}
