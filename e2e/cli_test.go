package e2e_test

import (
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	projectRoot := findProjectRoot(t)

	binaryPath := filepath.Join(t.TempDir(), "duelctl-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/duelctl")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) run(args ...string) (string, error) {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, args...)

	cmd := exec.Command(r.binaryPath, fullArgs...)
	output, err := cmd.CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// Response types for JSON parsing
type healthResponse struct {
	Status string `json:"status"`
}

type statsResponse struct {
	Connections    int   `json:"connections"`
	CompletedGames int64 `json:"completed_games"`
	RecordedGames  int   `json:"recorded_games"`
}

type resultsResponse struct {
	Results []struct {
		SessionID string `json:"session_id"`
		Round     int    `json:"round"`
		Winner    string `json:"winner"`
		Reason    string `json:"reason"`
	} `json:"results"`
	Total int `json:"total"`
}

type gameRecord struct {
	Game    int    `json:"game"`
	Outcome string `json:"outcome"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// decodeRecords reads the stream of JSON documents printed by play
func decodeRecords(t *testing.T, output string) []gameRecord {
	t.Helper()

	var records []gameRecord
	dec := json.NewDecoder(strings.NewReader(output))
	for {
		var r gameRecord
		err := dec.Decode(&r)
		if err == io.EOF {
			return records
		}
		require.NoError(t, err, "output: %s", output)
		records = append(records, r)
	}
}

func TestCLI_HealthCheck(t *testing.T) {
	ts := startTestServer(t, defaultTestConfig())
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("health")
	require.NoError(t, err, "output: %s", output)

	var resp healthResponse
	require.NoError(t, json.Unmarshal([]byte(output), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestCLI_PlayAndInspect(t *testing.T) {
	ts := startTestServer(t, defaultTestConfig())
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("results")
	require.NoError(t, err, "output: %s", output)
	var empty resultsResponse
	require.NoError(t, json.Unmarshal([]byte(output), &empty))
	assert.Empty(t, empty.Results)

	// Two bots meet in the queue and play two games each
	outputs := make([]string, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range outputs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outputs[i], errs[i] = cli.run("play", "--games", "2", "--delay", "0s")
		}(i)
	}
	wg.Wait()

	var outcomes []string
	for i := range outputs {
		require.NoError(t, errs[i], "output: %s", outputs[i])
		records := decodeRecords(t, outputs[i])
		require.Len(t, records, 2)
		outcomes = append(outcomes, records[0].Outcome)
	}
	assert.ElementsMatch(t, []string{"won", "lost"}, outcomes)

	waitForResults(t, ts.app, 2)

	output, err = cli.run("results", "--limit", "1")
	require.NoError(t, err, "output: %s", output)
	var latest resultsResponse
	require.NoError(t, json.Unmarshal([]byte(output), &latest))
	require.Len(t, latest.Results, 1)
	assert.Equal(t, 2, latest.Total)
	assert.Equal(t, 2, latest.Results[0].Round)
	assert.Equal(t, "win_score", latest.Results[0].Reason)

	output, err = cli.run("results", latest.Results[0].SessionID)
	require.NoError(t, err, "output: %s", output)
	var session resultsResponse
	require.NoError(t, json.Unmarshal([]byte(output), &session))
	assert.Len(t, session.Results, 2)

	output, err = cli.run("stats")
	require.NoError(t, err, "output: %s", output)
	var stats statsResponse
	require.NoError(t, json.Unmarshal([]byte(output), &stats))
	assert.EqualValues(t, 2, stats.CompletedGames)
	assert.Equal(t, 2, stats.RecordedGames)
}

func TestCLI_ResultsLimitRejected(t *testing.T) {
	ts := startTestServer(t, defaultTestConfig())
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("results", "--limit", "500")
	require.Error(t, err)
	assert.Contains(t, output, "INVALID_REQUEST")
}

func TestCLI_UnknownSession(t *testing.T) {
	ts := startTestServer(t, defaultTestConfig())
	defer ts.shutdown()

	cli := newCLIRunner(t, ts.addr)

	output, err := cli.run("results", "no-such-session")
	require.Error(t, err)
	assert.Contains(t, output, "SUMMARY_NOT_FOUND")
}
