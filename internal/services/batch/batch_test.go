package batch

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/sensor_classifier/internal/classifier"
	"github.com/LeonardoBeccarini/sensor_classifier/internal/model"
)

func run(t *testing.T, stdin string, args ...string) (code int, stdout, stderr string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = Run(args, strings.NewReader(stdin), &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestRunArgs(t *testing.T) {
	code, out, errOut := run(t, "", "-name", "temp", "-min", "0", "-max", "100", "--", "-5", "10", "150", "90")
	assert.Equal(t, 0, code)
	assert.Equal(t, "normal\ncritical\n", out)

	lines := strings.Split(strings.TrimSpace(errOut), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "-5")
	assert.Contains(t, lines[0], "0")
	assert.Contains(t, lines[1], "150")
	assert.Contains(t, lines[1], "100")
}

func TestRunStdin(t *testing.T) {
	code, out, errOut := run(t, "10 35\n75\n", "-min", "0", "-max", "100")
	assert.Equal(t, 0, code)
	assert.Equal(t, "normal\nwarning\ncritical\n", out)
	assert.Empty(t, errOut)
}

func TestRunSkipsUnparseable(t *testing.T) {
	code, out, errOut := run(t, "", "-min", "0", "-max", "100", "10", "abc", "50")
	assert.Equal(t, 0, code)
	assert.Equal(t, "normal\nwarning\n", out)
	assert.Contains(t, errOut, `parse "abc"`)
}

func TestClassifyTokensKeepsInputPositions(t *testing.T) {
	sink := &classifier.CollectSink{}
	levels := classifyTokens([]string{"10", "abc", "150", "-5", "90"}, model.NewSensorConfig("temp", 0, 100), sink)
	assert.Equal(t, []model.AlertLevel{model.LevelNormal, model.LevelCritical}, levels)

	diags := sink.Diagnostics()
	require.Len(t, diags, 3)
	assert.Equal(t, 1, diags[0].Index)
	assert.Equal(t, 2, diags[1].Index)
	assert.Equal(t, 150.0, diags[1].Value)
	assert.Equal(t, 3, diags[2].Index)
	assert.Equal(t, -5.0, diags[2].Value)
}

func TestRunStrictConfig(t *testing.T) {
	code, out, _ := run(t, "", "-min", "10", "-max", "10", "-strict-config", "10")
	assert.Equal(t, 1, code)
	assert.Empty(t, out)

	// without the flag the degenerate envelope is classified as-is
	code, out, _ = run(t, "", "-min", "10", "-max", "10", "10")
	assert.Equal(t, 0, code)
	assert.Equal(t, "critical\n", out)
}

func TestRunCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sensors.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`sensors:
  - id: hum-1
    field_id: field1
    name: humidity
    min_value: 20
    max_value: 80
`), 0o600))

	code, out, _ := run(t, "", "-config", path, "-sensor", "hum-1", "20", "50", "80")
	assert.Equal(t, 0, code)
	assert.Equal(t, "normal\nwarning\ncritical\n", out)

	code, _, errOut := run(t, "", "-config", path, "-sensor", "nope", "1")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "unknown sensor")

	code, _, _ = run(t, "", "-config", path, "1")
	assert.Equal(t, 2, code)
}

func TestRunBadFlag(t *testing.T) {
	code, _, _ := run(t, "", "-bogus")
	assert.Equal(t, 2, code)
}
