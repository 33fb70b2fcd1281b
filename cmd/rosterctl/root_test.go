package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sharedhome/backend/internal/service"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("SHAREDHOME_STORE_DRIVER", "memory")
	t.Setenv("SHAREDHOME_LOG_LEVEL", "error")
	t.Setenv("SHAREDHOME_REDIS_ENABLED", "false")

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestCheck_EmptyAnchor(t *testing.T) {
	out, err := runCLI(t, "check")
	require.Error(t, err)
	assert.ErrorIs(t, err, service.ErrAnchorUnhealthy)

	var check service.AnchorCheck
	require.NoError(t, json.Unmarshal([]byte(out), &check))
	assert.False(t, check.Healthy)
	assert.Equal(t, 2024, check.Period.Year)
	assert.Equal(t, 9, check.Period.Month)
}

func TestRepair_InvalidMonth(t *testing.T) {
	out, err := runCLI(t, "repair", "--year", "2025", "--month", "13")
	assert.ErrorIs(t, err, service.ErrInvalidMonth)
	assert.Contains(t, out, `"action": "failed"`)
}

func TestExtend_EmptyStoreReportsFailures(t *testing.T) {
	out, err := runCLI(t, "extend", "--force")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "6 个月续排失败")

	var report struct {
		Months []json.RawMessage `json:"months"`
		Failed []string          `json:"failed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Len(t, report.Months, 6)
	assert.Len(t, report.Failed, 6)
}
