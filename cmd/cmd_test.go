package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const networkFile = `lines:
  "1": [101, 102, 103, 104, 105]
depots:
  "101": {capacity: 25, available_trains: 18, max_induct_per_hour: 5}
  "102": {capacity: 20, available_trains: 15, max_induct_per_hour: 4}
train_capacity: 1000
hours: [8]
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		pf = planFlags{}
		networkDB, networkFormat = "", "yaml"
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestReadInput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.yaml")
	data := "lines:\n  b: [1, 2]\n  a: [3]\nhours: [7, 8]\nweekday: 2\ndepots:\n  d: {capacity: 3, available_trains: 2, max_induct_per_hour: 1}\ntrain_capacity: 100\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	in, err := readInput(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, in.Lines.IDs())
	assert.Equal(t, []int{7, 8}, in.Hours)
	assert.Equal(t, 2, in.Weekday)
	assert.Equal(t, 100, in.TrainCapacity)

	_, err = readInput(filepath.Join(dir, "in.txt"))
	assert.Error(t, err)
}

func TestNetworkImportAndPlan(t *testing.T) {
	dir := t.TempDir()
	netPath := filepath.Join(dir, "network.yaml")
	dbPath := filepath.Join(dir, "network.db")
	require.NoError(t, os.WriteFile(netPath, []byte(networkFile), 0o644))
	cfgPath := filepath.Join(dir, "config.yaml")
	cfgData := "network:\n  sqlite: " + dbPath + "\nplanner:\n  prediction:\n    jitter: 0\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgData), 0o644))

	out, err := execute(t, "network", "import", netPath, "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 1 lines and 2 depots")

	out, err = execute(t, "network", "show", "--config", cfgPath, "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"train_capacity": 1000`)

	out, err = execute(t, "plan", "--config", cfgPath, "--weekday", "1", "--format", "csv")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "depot_id,hour,trains\n101,8,4\n102,8,0\n"), out)
	assert.Contains(t, out, "line_id,hour,passengers\n1,8,3750\n")
}
