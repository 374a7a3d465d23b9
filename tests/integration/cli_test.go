// Package integration provides integration tests for fg commands.
package integration

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
)

var (
	fgBinary     string
	fgBinaryOnce sync.Once
	fgBinaryErr  error
)

// getFGBinary builds the fg binary once and returns its path.
func getFGBinary(t *testing.T) string {
	t.Helper()
	fgBinaryOnce.Do(func() {
		// Get module root directory
		_, filename, _, ok := runtime.Caller(0)
		if !ok {
			fgBinaryErr = os.ErrInvalid
			return
		}
		moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(filename)))

		tmpDir, err := os.MkdirTemp("", "fg-test-*")
		if err != nil {
			fgBinaryErr = err
			return
		}
		fgBinary = filepath.Join(tmpDir, "fg")

		cmd := exec.Command("go", "build", "-o", fgBinary, "./cmd/fg")
		cmd.Dir = moduleRoot
		if output, err := cmd.CombinedOutput(); err != nil {
			fgBinaryErr = &buildError{output: string(output), err: err}
			return
		}
	})
	if fgBinaryErr != nil {
		t.Fatalf("failed to build fg: %v", fgBinaryErr)
	}
	return fgBinary
}

type buildError struct {
	output string
	err    error
}

func (e *buildError) Error() string {
	return e.err.Error() + ": " + e.output
}

const networkJSON = `[
  {"id": "F1", "type": "feeder", "name": "North Feeder", "next_nodes": ["T1"], "x_meters": 0, "y_meters": 0},
  {"id": "T1", "type": "transformer", "prev_nodes": ["F1"], "next_nodes": ["H1", "H2"], "x_meters": 10, "y_meters": 0},
  {"id": "H1", "type": "house", "prev_nodes": ["T1"], "HouseID": 101, "predicted_phase": "A"},
  {"id": "H2", "type": "house", "prev_node": "T1", "predicted_phase": "c"},
  {"id": "S1", "type": "street", "net_node_id": "T1", "connected_nodes": ["S2"]},
  {"id": "S2", "type": "street", "net_node_id": "T1", "removed": true},
  {"id": "H3", "type": "house", "prev_nodes": ["T9"]}
]`

// setupTestEnv writes a dataset and a config file pointing at it.
// Returns the working directory; its config/ subdirectory is XDG_CONFIG_HOME.
func setupTestEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "network.json"), []byte(networkJSON), 0644); err != nil {
		t.Fatal(err)
	}

	metrics := `{"house_id": 101, "metric": "import_power", "month_01": 12.5, "month_07": 3}
{"house_id": 101, "metric": "export_power", "month_07": 8}
`
	if err := os.WriteFile(filepath.Join(dir, "monthly.jsonl"), []byte(metrics), 0644); err != nil {
		t.Fatal(err)
	}

	configDir := filepath.Join(dir, "config", "fg")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	cfg := "datasets:\n  - " + filepath.Join(dir, "network.json") + "\nmetrics_db: " + filepath.Join(dir, "metrics.db") + "\nlog_level: error\n"
	if err := os.WriteFile(filepath.Join(configDir, "config.yml"), []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

// runFG executes fg with args and returns stdout, stderr and the exit code.
func runFG(t *testing.T, dir string, args ...string) (string, string, int) {
	t.Helper()
	cmd := exec.Command(getFGBinary(t), args...)
	cmd.Dir = dir

	env := []string{"XDG_CONFIG_HOME=" + filepath.Join(dir, "config")}
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "FG_") || strings.HasPrefix(kv, "XDG_CONFIG_HOME=") {
			continue
		}
		env = append(env, kv)
	}
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()

	code := 0
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		code = exitErr.ExitCode()
	} else if err != nil {
		t.Fatalf("running fg: %v", err)
	}
	return stdout.String(), stderr.String(), code
}

func TestLoad(t *testing.T) {
	dir := setupTestEnv(t)

	out, stderr, code := runFG(t, dir, "load")
	if code != 0 {
		t.Fatalf("load exited %d\nstderr: %s", code, stderr)
	}

	var result struct {
		Nodes  int      `json:"nodes"`
		Links  int      `json:"links"`
		Roots  []string `json:"roots"`
		Report struct {
			RemovedStreets int `json:"removed_streets"`
			AutoHouseIDs   int `json:"auto_house_ids"`
			DroppedRefs    int `json:"dropped_refs"`
		} `json:"report"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nOutput: %s", err, out)
	}

	if result.Nodes != 6 {
		t.Errorf("nodes = %d, want 6 (removed street skipped)", result.Nodes)
	}
	if result.Links != 3 {
		t.Errorf("links = %d, want 3", result.Links)
	}
	if len(result.Roots) != 1 || result.Roots[0] != "F1" {
		t.Errorf("roots = %v, want [F1]", result.Roots)
	}
	if result.Report.RemovedStreets != 1 {
		t.Errorf("removed_streets = %d, want 1", result.Report.RemovedStreets)
	}
	if result.Report.AutoHouseIDs != 2 {
		t.Errorf("auto_house_ids = %d, want 2", result.Report.AutoHouseIDs)
	}
	// H3 -> T9 is dangling, S1 -> S2 points at a removed street
	if result.Report.DroppedRefs != 2 {
		t.Errorf("dropped_refs = %d, want 2", result.Report.DroppedRefs)
	}
}

func TestDownstream(t *testing.T) {
	dir := setupTestEnv(t)

	out, stderr, code := runFG(t, dir, "downstream", "T1")
	if code != 0 {
		t.Fatalf("downstream exited %d\nstderr: %s", code, stderr)
	}

	var result struct {
		Count int `json:"count"`
		Nodes []struct {
			ID string `json:"id"`
		} `json:"nodes"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nOutput: %s", err, out)
	}

	var ids []string
	for _, n := range result.Nodes {
		ids = append(ids, n.ID)
	}
	want := []string{"T1", "H1", "H2", "S1"}
	if strings.Join(ids, ",") != strings.Join(want, ",") {
		t.Errorf("downstream ids = %v, want %v", ids, want)
	}
	if result.Count != len(want) {
		t.Errorf("count = %d, want %d", result.Count, len(want))
	}
}

func TestPath(t *testing.T) {
	dir := setupTestEnv(t)

	out, stderr, code := runFG(t, dir, "path", "H2")
	if code != 0 {
		t.Fatalf("path exited %d\nstderr: %s", code, stderr)
	}

	var result struct {
		Complete bool `json:"complete"`
		Stop     string `json:"stop"`
		Nodes    []struct {
			ID string `json:"id"`
		} `json:"nodes"`
		Links []struct {
			Source string `json:"source"`
			Target string `json:"target"`
		} `json:"links"`
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nOutput: %s", err, out)
	}

	if len(result.Nodes) != 3 || result.Nodes[0].ID != "H2" || result.Nodes[2].ID != "F1" {
		t.Errorf("path nodes = %+v, want H2 T1 F1", result.Nodes)
	}
	if len(result.Links) != 2 {
		t.Errorf("path links = %d, want 2", len(result.Links))
	}
	if !result.Complete || result.Stop != "feeder" {
		t.Errorf("complete = %v, stop = %q", result.Complete, result.Stop)
	}

	// H3's only predecessor was dangling and dropped at load time
	out, _, code = runFG(t, dir, "path", "H3")
	if code != 0 {
		t.Fatalf("path H3 exited %d", code)
	}
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("failed to parse JSON output: %v", err)
	}
	if len(result.Nodes) != 1 || len(result.Links) != 0 {
		t.Errorf("path H3 = %d nodes, %d links; want 1, 0", len(result.Nodes), len(result.Links))
	}
}

func TestNodeNotFound(t *testing.T) {
	dir := setupTestEnv(t)

	for _, cmd := range []string{"downstream", "path"} {
		out, _, code := runFG(t, dir, cmd, "nope")
		if code != 4 {
			t.Errorf("%s nope exited %d, want 4", cmd, code)
		}
		var e struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal([]byte(out), &e); err != nil || !strings.Contains(e.Error, "nope") {
			t.Errorf("%s nope output = %q", cmd, out)
		}
	}
}

func TestDatasetFlagOverridesConfig(t *testing.T) {
	dir := setupTestEnv(t)
	other := filepath.Join(dir, "other.jsonl")
	if err := os.WriteFile(other, []byte(`{"id": "G", "type": "feeder"}`+"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, code := runFG(t, dir, "load", "--dataset", other)
	if code != 0 {
		t.Fatalf("load exited %d", code)
	}
	if !strings.Contains(out, `"nodes": 1`) {
		t.Errorf("load output = %s, want 1 node", out)
	}
}

func TestBadDataset(t *testing.T) {
	dir := setupTestEnv(t)
	bad := filepath.Join(dir, "bad.json")
	if err := os.WriteFile(bad, []byte(`[{"id": "A", "type": "feeder"}, {"id": "A", "type": "house"}]`), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, code := runFG(t, dir, "load", "--dataset", bad)
	if code != 3 {
		t.Errorf("load with duplicate ids exited %d, want 3", code)
	}
	if !strings.Contains(out, "duplicate node id") {
		t.Errorf("output = %s, want duplicate error", out)
	}
}

func TestViz(t *testing.T) {
	dir := setupTestEnv(t)
	outPath := filepath.Join(dir, "network.html")

	out, stderr, code := runFG(t, dir, "viz", "--trace", "H1", "--output", outPath)
	if code != 0 {
		t.Fatalf("viz exited %d\nstderr: %s", code, stderr)
	}
	if !strings.Contains(out, `"written"`) {
		t.Errorf("viz output = %s", out)
	}

	html, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("reading html: %v", err)
	}
	if !strings.Contains(string(html), "cytoscape") || !strings.Contains(string(html), `"classes":"path"`) {
		t.Error("html missing cytoscape elements or path highlight")
	}
}

func TestMetricsImportAndShow(t *testing.T) {
	dir := setupTestEnv(t)

	out, stderr, code := runFG(t, dir, "metrics", "import", "--period", "monthly", filepath.Join(dir, "monthly.jsonl"))
	if code != 0 {
		t.Fatalf("metrics import exited %d\nstderr: %s", code, stderr)
	}
	if !strings.Contains(out, `"count": 2`) {
		t.Errorf("import output = %s, want count 2", out)
	}

	out, stderr, code = runFG(t, dir, "metrics", "show", "101", "--group", "power")
	if code != 0 {
		t.Fatalf("metrics show exited %d\nstderr: %s", code, stderr)
	}

	var series struct {
		Points []struct {
			Label  string             `json:"label"`
			Values map[string]float64 `json:"values"`
		} `json:"points"`
	}
	if err := json.Unmarshal([]byte(out), &series); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nOutput: %s", err, out)
	}
	if len(series.Points) != 12 {
		t.Fatalf("points = %d, want 12", len(series.Points))
	}
	jul := series.Points[6]
	if jul.Label != "Jul" || jul.Values["import_power"] != 3 || jul.Values["export_power"] != 8 {
		t.Errorf("July point = %+v", jul)
	}
}

func TestConfig(t *testing.T) {
	dir := setupTestEnv(t)

	out, _, code := runFG(t, dir, "config")
	if code != 0 {
		t.Fatalf("config exited %d", code)
	}
	var cfg struct {
		Datasets []string `json:"datasets"`
		MaxDepth int      `json:"max_depth"`
	}
	if err := json.Unmarshal([]byte(out), &cfg); err != nil {
		t.Fatalf("failed to parse JSON output: %v\nOutput: %s", err, out)
	}
	if len(cfg.Datasets) != 1 || cfg.MaxDepth != 100 {
		t.Errorf("config = %+v", cfg)
	}
}
