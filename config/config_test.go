package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadFromDir(t, "")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, 2024, cfg.Roster.AnchorYear)
	assert.Equal(t, 9, cfg.Roster.AnchorMonth)
	assert.Equal(t, 8, cfg.Roster.ExpectedMembers)
	assert.Equal(t, 6, cfg.Roster.HorizonMonths)
	assert.Equal(t, 5*time.Second, cfg.Roster.StoreTimeout)
	assert.Equal(t, time.Minute, cfg.Roster.ExtendCooldown)
}

func TestLoad_FileOverrides(t *testing.T) {
	cfg, err := loadFromDir(t, `
store:
  driver: memory
roster:
  anchor_year: 2023
  anchor_month: 3
  horizon_months: 3
  store_timeout: 2s
household:
  roles:
    alice: admin
    bob: member
`)
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, 2023, cfg.Roster.AnchorYear)
	assert.Equal(t, 3, cfg.Roster.AnchorMonth)
	assert.Equal(t, 3, cfg.Roster.HorizonMonths)
	assert.Equal(t, 2*time.Second, cfg.Roster.StoreTimeout)
	assert.Equal(t, "admin", cfg.Household.Roles["alice"])
}

func TestLoad_RolesCaseInsensitive(t *testing.T) {
	cfg, err := loadFromDir(t, `
household:
  roles:
    Alice: Admin
    BOB: member
`)
	require.NoError(t, err)

	assert.Equal(t, "admin", cfg.Household.RoleOf("Alice"))
	assert.Equal(t, "admin", cfg.Household.RoleOf("alice"))
	assert.Equal(t, "member", cfg.Household.RoleOf("Bob"))
	assert.Empty(t, cfg.Household.RoleOf("Carol"))
}

func TestHouseholdConfig_RoleOfUnnormalized(t *testing.T) {
	h := HouseholdConfig{Roles: map[string]string{"Ada": "Admin"}}
	assert.Equal(t, "admin", h.RoleOf("ada"))
	assert.Equal(t, "admin", h.RoleOf(" ADA "))
	assert.Empty(t, (&HouseholdConfig{}).RoleOf("ada"))
}

func TestLoad_InvalidAnchorMonth(t *testing.T) {
	_, err := loadFromDir(t, `
roster:
  anchor_month: 13
`)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "anchor_month")
}

func TestValidate_UnknownDriver(t *testing.T) {
	cfg, err := loadFromDir(t, "")
	require.NoError(t, err)

	cfg.Store.Driver = "sqlite"
	assert.Error(t, cfg.Validate())
}

func TestRosterConfig_Location(t *testing.T) {
	r := RosterConfig{Timezone: "Asia/Shanghai"}
	assert.Equal(t, "Asia/Shanghai", r.Location().String())

	r.Timezone = "Nowhere/Invalid"
	assert.Equal(t, time.UTC, r.Location())
}

// loadFromDir 在临时目录写入 config.yaml 并加载
func loadFromDir(t *testing.T, content string) (*Config, error) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("写入配置文件失败: %v", err)
	}
	return Load(path)
}
