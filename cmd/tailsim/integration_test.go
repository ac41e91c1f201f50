//go:build integration

package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"
)

func TestCommandVersionOutput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	binaryPath := buildTailsimBinary(t)

	output, err := exec.Command(binaryPath, "version").CombinedOutput()
	if err != nil {
		t.Fatalf("version command failed: %v\nOutput: %s", err, output)
	}
	if !strings.Contains(string(output), "tailsim") {
		t.Errorf("version output should contain 'tailsim', got: %s", output)
	}
}

func TestValidateExitStatus(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	binaryPath := buildTailsimBinary(t)

	tests := []struct {
		name     string
		file     string
		wantCode int
	}{
		{name: "valid", file: "testdata/policies.yaml", wantCode: 0},
		{name: "duplicate names", file: "testdata/duplicate.yaml", wantCode: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output, err := exec.Command(binaryPath, "validate", tt.file).CombinedOutput()

			code := 0
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				code = exitErr.ExitCode()
			} else if err != nil {
				t.Fatalf("validate failed to run: %v", err)
			}
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d\nOutput: %s", code, tt.wantCode, output)
			}
		})
	}
}

func TestSimulateAuditPipeline(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "tailsim.yaml")
	createTestConfig(t, configFile, fmt.Sprintf(`
engine:
  policies_file: %q
audit:
  enabled: true
  path: %q
telemetry:
  logging:
    level: "warn"
    format: "json"
`, absPath(t, "testdata/policies.yaml"), filepath.Join(tmpDir, "decisions.db")))

	binaryPath := buildTailsimBinary(t)

	t.Log("Step 1: Simulating traces...")
	simulate := exec.Command(binaryPath, "simulate", "--config", configFile, "-o", "json", absPath(t, "testdata/traces"))
	output, err := simulate.Output()
	if err != nil {
		t.Fatalf("simulate failed: %v\nOutput: %s", err, output)
	}

	var report struct {
		Summary map[string]int `json:"summary"`
	}
	if err := json.Unmarshal(output, &report); err != nil {
		t.Fatalf("failed to parse simulate output: %v\nOutput: %s", err, output)
	}
	if report.Summary["sampled"] != 1 || report.Summary["not_sampled"] != 1 {
		t.Errorf("summary = %v", report.Summary)
	}

	t.Log("Step 2: Querying the audit log...")
	list := exec.Command(binaryPath, "audit", "list", "--config", configFile, "--format", "json", "--decision", "sampled")
	output, err = list.Output()
	if err != nil {
		t.Fatalf("audit list failed: %v\nOutput: %s", err, output)
	}

	var records []map[string]any
	if err := json.Unmarshal(output, &records); err != nil {
		t.Fatalf("failed to parse audit output: %v\nOutput: %s", err, output)
	}
	if len(records) != 1 || records[0]["trace_id"] != "a3c2f0e1d4b5a6978877665544332211" {
		t.Errorf("records = %v", records)
	}
}

func TestWatchServesHealth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	tmpDir := t.TempDir()
	configFile := filepath.Join(tmpDir, "tailsim.yaml")
	createTestConfig(t, configFile, fmt.Sprintf(`
engine:
  policies_file: %q
telemetry:
  logging:
    level: "info"
  metrics:
    enabled: true
    listen: "127.0.0.1:18091"
`, absPath(t, "testdata/policies.yaml")))

	binaryPath := buildTailsimBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath, "simulate", "--config", configFile, "--watch", absPath(t, "testdata/traces"))
	cmd.Stdout = io.Discard
	cmd.Stderr = io.Discard
	if err := cmd.Start(); err != nil {
		t.Fatalf("failed to start watch: %v", err)
	}
	defer func() {
		if cmd.ProcessState == nil {
			cmd.Process.Kill()
		}
	}()

	if !waitForHealthy("http://127.0.0.1:18091/readyz", 10*time.Second) {
		t.Fatal("watch never became ready")
	}

	resp, err := http.Get("http://127.0.0.1:18091/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "tailsim_sampling_final_decisions_total") {
		t.Errorf("metrics output missing final decisions:\n%s", body)
	}

	if err := cmd.Process.Signal(syscall.SIGINT); err != nil {
		t.Fatalf("failed to interrupt watch: %v", err)
	}
	if err := cmd.Wait(); err != nil {
		t.Errorf("watch did not exit cleanly: %v", err)
	}
}

// Helper functions

// buildTailsimBinary builds the tailsim binary for testing
func buildTailsimBinary(t *testing.T) string {
	t.Helper()

	binaryPath := "../../bin/tailsim"
	if _, err := os.Stat(binaryPath); err == nil {
		return binaryPath
	}

	t.Log("Building tailsim binary...")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("failed to build tailsim: %v\nOutput: %s", err, output)
	}

	return binaryPath
}

// waitForHealthy waits for a health endpoint to return 200
func waitForHealthy(url string, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 1 * time.Second}

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil && resp.StatusCode == http.StatusOK {
			resp.Body.Close()
			return true
		}
		if resp != nil {
			resp.Body.Close()
		}
		time.Sleep(100 * time.Millisecond)
	}
	return false
}

// createTestConfig creates a test configuration file
func createTestConfig(t *testing.T, path, content string) {
	t.Helper()

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to create config file: %v", err)
	}
}

func absPath(t *testing.T, path string) string {
	t.Helper()
	abs, err := filepath.Abs(path)
	if err != nil {
		t.Fatal(err)
	}
	return abs
}
