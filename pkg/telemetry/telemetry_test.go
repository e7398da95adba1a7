package telemetry

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/shubham184/fabric-deployment-mvp/pkg/deploy"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"fatal", zerolog.FatalLevel},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := parseLogLevel(tt.input); got != tt.want {
			t.Errorf("parseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy.log")

	logger, err := NewLogger(LoggingConfig{Level: "debug", Format: "json", Output: path})
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	logger.Info().Str("customer", "contoso").Msg("deployment started")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), `"customer":"contoso"`) {
		t.Errorf("log output missing structured field: %s", data)
	}
}

func TestNewLoggerRespectsLevel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "deploy.log")

	logger, err := NewLogger(LoggingConfig{Level: "warn", Output: path})
	if err != nil {
		t.Fatalf("NewLogger() error: %v", err)
	}
	logger.Info().Msg("filtered out")
	logger.Warn().Msg("kept")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if strings.Contains(string(data), "filtered out") {
		t.Error("info event emitted below the configured level")
	}
	if !strings.Contains(string(data), "kept") {
		t.Error("warn event missing")
	}
}

func TestMetricsObserveAndExpose(t *testing.T) {
	m := NewMetrics("fabdeploy")

	m.ObserveDeployment("dev", deploy.StatusDeployed, 90*time.Second)
	m.ObserveDeployment("dev", deploy.StatusFailed, 10*time.Second)
	m.ObserveBatch("dev", 2, 1)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	for _, want := range []string{
		"fabdeploy_deployments_completed_total",
		"fabdeploy_deployment_duration_seconds",
		"fabdeploy_batches_completed_total",
		"fabdeploy_batch_customers_total",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics output missing %s", want)
		}
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics

	// Must not panic.
	m.ObserveDeployment("dev", deploy.StatusDeployed, time.Second)
	m.ObserveBatch("dev", 1, 0)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("nil metrics handler status = %d, want 404", rec.Code)
	}
}
