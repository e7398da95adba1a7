package deploy

import (
	"context"
	"sync"

	"github.com/rs/zerolog"
)

// Mock implementations shared across the package tests.

type mockAdapter struct {
	mu sync.Mutex

	initErr    error
	initResult *OpResult

	planErr    error
	planResult *PlanSummary

	applyErr    error
	applyResult *OpResult

	destroyErr    error
	destroyResult *OpResult

	outputsErr error
	outputs    map[string]any

	stateErr error
	state    *StateInfo

	calls []string
}

func newMockAdapter() *mockAdapter {
	return &mockAdapter{
		initResult:    &OpResult{Success: true, Command: "init"},
		planResult:    &PlanSummary{HasChanges: true, AddCount: 3},
		applyResult:   &OpResult{Success: true, Command: "apply", Outputs: map[string]any{"workspace_id": "w-1"}},
		destroyResult: &OpResult{Success: true, Command: "destroy"},
		outputs:       map[string]any{"workspace_id": "w-1"},
		state:         &StateInfo{Exists: true, ResourceCount: 4},
	}
}

func (m *mockAdapter) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *mockAdapter) called(call string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.calls {
		if c == call {
			return true
		}
	}
	return false
}

func (m *mockAdapter) Init(ctx context.Context, customer, environment string) (*OpResult, error) {
	m.record("init")
	return m.initResult, m.initErr
}

func (m *mockAdapter) Plan(ctx context.Context, customer, environment string, artifacts ArtifactCollection) (*PlanSummary, error) {
	m.record("plan")
	if m.planErr != nil {
		return nil, m.planErr
	}
	summary := *m.planResult
	summary.Customer = customer
	summary.Environment = environment
	return &summary, nil
}

func (m *mockAdapter) Apply(ctx context.Context, customer, environment string, artifacts ArtifactCollection) (*OpResult, error) {
	m.record("apply")
	return m.applyResult, m.applyErr
}

func (m *mockAdapter) Destroy(ctx context.Context, customer, environment string) (*OpResult, error) {
	m.record("destroy")
	return m.destroyResult, m.destroyErr
}

func (m *mockAdapter) Outputs(ctx context.Context, customer, environment string) (map[string]any, error) {
	m.record("outputs")
	return m.outputs, m.outputsErr
}

func (m *mockAdapter) State(ctx context.Context, customer, environment string) (*StateInfo, error) {
	m.record("state")
	return m.state, m.stateErr
}

type mockArtifactSource struct {
	collection  ArtifactCollection
	discoverErr error

	validation  ArtifactValidation
	validateErr error
}

func newMockArtifactSource() *mockArtifactSource {
	return &mockArtifactSource{
		collection: ArtifactCollection{
			Notebooks: []string{"bronze-processing.ipynb", "silver-processing.ipynb"},
			Pipelines: []string{"bronze-pipeline.json"},
		},
	}
}

func (m *mockArtifactSource) Discover(ctx context.Context, customer, environment string) (ArtifactCollection, error) {
	if m.discoverErr != nil {
		return ArtifactCollection{}, m.discoverErr
	}
	c := m.collection
	c.Customer = customer
	c.Environment = environment
	return c, nil
}

func (m *mockArtifactSource) ValidateExistence(ctx context.Context, customer, environment string) (ArtifactValidation, error) {
	return m.validation, m.validateErr
}

type mockConfigSource struct {
	validateErr error
	workspaceID string
}

func (m *mockConfigSource) Validate(ctx context.Context, customer, environment string) error {
	return m.validateErr
}

func (m *mockConfigSource) WorkspaceID(ctx context.Context, customer, environment string) (string, error) {
	return m.workspaceID, nil
}

type mockProber struct {
	tool        bool
	workspace   bool
	credentials bool
}

func newMockProber() *mockProber {
	return &mockProber{tool: true, workspace: true, credentials: true}
}

func (m *mockProber) ToolAvailable(ctx context.Context) bool {
	return m.tool
}

func (m *mockProber) WorkspaceReachable(ctx context.Context, customer, environment string) bool {
	return m.workspace
}

func (m *mockProber) CredentialsValid(ctx context.Context) bool {
	return m.credentials
}

// newTestOrchestrator wires an orchestrator from healthy mocks.
func newTestOrchestrator(adapter *mockAdapter, source *mockArtifactSource) *Orchestrator {
	validator := NewReadinessValidator(&mockConfigSource{workspaceID: "w-1"}, source, newMockProber(), zerolog.Nop())
	return NewOrchestrator(adapter, source, validator, nil, zerolog.Nop())
}
