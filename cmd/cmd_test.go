package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	configFile = ""
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestPrintToFile(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "job.prn")
	cfgPath := writeFile(t, dir, "tspl.yaml", "transport: file\ndevice: "+output+"\n")
	labelPath := writeFile(t, dir, "label.yaml", `
elements:
  - type: text
    x: 10
    y: 20
    content: Hello
`)

	out, err := run(t, "--config", cfgPath, "print", labelPath, "--copies", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "Printed")

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	expected := "SIZE 35 mm\r\n" +
		"GAP 5 mm,0 mm\r\n" +
		"SPEED 4\r\n" +
		"DIRECTION 1\r\n" +
		"REFERENCE 0,0\r\n" +
		"CLS\r\n" +
		"TEXT 10,20,\"1\",0,1,1,1,\"Hello\"\r\n" +
		"PRINT 1,3\r\n" +
		"EOP\r\n"
	assert.Equal(t, expected, string(data))
}

func TestPrintInvalidLabel(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "job.prn")
	cfgPath := writeFile(t, dir, "tspl.yaml", "transport: file\ndevice: "+output+"\n")
	labelPath := writeFile(t, dir, "label.yaml", "elements: []\n")

	_, err := run(t, "--config", cfgPath, "print", labelPath)
	assert.Error(t, err)

	// Nothing was opened for an invalid document
	_, statErr := os.Stat(output)
	assert.True(t, os.IsNotExist(statErr))
}

func TestPrintRequiresArgument(t *testing.T) {
	_, err := run(t, "print")
	assert.Error(t, err)
}

func TestPrintBadConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "tspl.yaml", "transport: parallel\n")
	labelPath := writeFile(t, dir, "label.yaml", "elements: [{type: beep}]\n")

	_, err := run(t, "--config", cfgPath, "print", labelPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown transport")
}

func TestDevicesAgentMissing(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "tspl.yaml", "agent:\n  path: "+filepath.Join(dir, "no-agent")+"\n")

	_, err := run(t, "--config", cfgPath, "devices")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to list devices")
}

func TestDevicesKeepsAgentLogsOffStdout(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "tspl.yaml", "agent:\n  path: "+filepath.Join(dir, "no-agent")+"\n")

	configFile = ""
	root := NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs([]string{"--config", cfgPath, "devices"})

	require.Error(t, root.Execute())
	assert.NotContains(t, stdout.String(), "[AGENT]")
	assert.Contains(t, stderr.String(), "[AGENT] Running")
}

func TestCommandTree(t *testing.T) {
	root := NewRootCommand()
	names := []string{}
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"print", "devices", "serve", "api"})
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
}
