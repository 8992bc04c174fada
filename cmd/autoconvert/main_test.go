package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs(args)
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFixtures(t *testing.T) (cfgPath, subPath string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath = filepath.Join(dir, "autoconvert.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("log:\n  level: error\nmetrics:\n  enabled: false\n"), 0o600))
	links := "ss://YWVzLTI1Ni1nY206cGFzc3dvcmQ@example.com:8388#MyNode\ntrojan://pw@zero.example:0#Zero\n"
	subPath = filepath.Join(dir, "sub.txt")
	require.NoError(t, os.WriteFile(subPath, []byte(base64.StdEncoding.EncodeToString([]byte(links))), 0o600))
	return cfgPath, subPath
}

func TestConvertCommandWritesProfiles(t *testing.T) {
	cfgPath, subPath := writeFixtures(t)
	prefix := filepath.Join(t.TempDir(), "out", "profile")

	out, err := execute(t, "--config", cfgPath, "convert", subPath, "-o", prefix, "-f", "both")
	require.NoError(t, err)
	assert.Contains(t, out, "Parsed 2 proxies: 1 valid, 1 excluded, 0 failed, 0 skipped")

	surge, err := os.ReadFile(prefix + ".surge.conf")
	require.NoError(t, err)
	assert.Contains(t, string(surge), "MyNode = ss, example.com, 8388")
	_, err = os.Stat(prefix + ".clash.yaml")
	assert.NoError(t, err)
}

func TestInspectCommandPrintsTable(t *testing.T) {
	cfgPath, subPath := writeFixtures(t)
	out, err := execute(t, "--config", cfgPath, "inspect", subPath)
	require.NoError(t, err)
	assert.Contains(t, out, "MyNode")
	assert.Contains(t, out, "missing port")
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "autoconvert dev")
}
