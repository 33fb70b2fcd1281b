package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用全局配置结构体
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"db"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Log       LogConfig       `mapstructure:"log"`
	Store     StoreConfig     `mapstructure:"store"`
	Roster    RosterConfig    `mapstructure:"roster"`
	Household HouseholdConfig `mapstructure:"household"`
}

// ServerConfig HTTP 服务器配置
type ServerConfig struct {
	Port    int        `mapstructure:"port"`
	BaseURL string     `mapstructure:"base_url"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig PostgreSQL 数据库配置
type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 分钟
}

// DSN 生成 PostgreSQL 连接字符串
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis 配置（可选，仅用于自动续排节流）
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// StoreConfig 数据存储配置
type StoreConfig struct {
	Driver string `mapstructure:"driver"` // postgres | memory
}

// RosterConfig 值班表自动续排配置
type RosterConfig struct {
	AnchorYear            int           `mapstructure:"anchor_year"`
	AnchorMonth           int           `mapstructure:"anchor_month"`
	ExpectedMembers       int           `mapstructure:"expected_members"` // 成员表为空时的参考人数
	HorizonMonths         int           `mapstructure:"horizon_months"`   // 含当月
	LookbackMonths        int           `mapstructure:"lookback_months"`
	StoreTimeout          time.Duration `mapstructure:"store_timeout"`
	ExtendCooldown        time.Duration `mapstructure:"extend_cooldown"`
	AcceptFirstAcceptable bool          `mapstructure:"accept_first_acceptable"`
	Timezone              string        `mapstructure:"timezone"`
	ExtendRateLimit       float64       `mapstructure:"extend_rate_limit"` // 每 IP 每秒
	ExtendRateBurst       int           `mapstructure:"extend_rate_burst"`
}

// HouseholdConfig 住户配置
type HouseholdConfig struct {
	// Roles 成员名 → 角色（admin | member）的静态映射
	// viper 会把 map 的键转为小写，成员名按不区分大小写处理
	Roles map[string]string `mapstructure:"roles"`
}

// RoleOf 按成员名查角色（不区分大小写），未登记返回空串
func (h *HouseholdConfig) RoleOf(name string) string {
	name = strings.TrimSpace(name)
	if role, ok := h.Roles[strings.ToLower(name)]; ok {
		return role
	}
	// 未经 Load 归一化的配置（如代码中直接构造）
	for k, role := range h.Roles {
		if strings.EqualFold(k, name) {
			return strings.ToLower(role)
		}
	}
	return ""
}

func (h *HouseholdConfig) normalize() {
	if len(h.Roles) == 0 {
		return
	}
	roles := make(map[string]string, len(h.Roles))
	for name, role := range h.Roles {
		roles[strings.ToLower(strings.TrimSpace(name))] = strings.ToLower(strings.TrimSpace(role))
	}
	h.Roles = roles
}

// Load 从配置文件与环境变量加载配置
// 优先级：环境变量 > 配置文件 > 默认值
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// ── 配置文件 ──
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	// ── 环境变量 ──
	v.SetEnvPrefix("SHAREDHOME")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("读取配置文件失败: %w", err)
		}
		// 配置文件不存在时仅依赖默认值和环境变量
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}
	cfg.Household.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:5173"})

	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "sharedhome")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "Asia/Shanghai")
	v.SetDefault("db.max_open_conns", 10)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", 60)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("store.driver", "postgres")

	v.SetDefault("roster.anchor_year", 2024)
	v.SetDefault("roster.anchor_month", 9)
	v.SetDefault("roster.expected_members", 8)
	v.SetDefault("roster.horizon_months", 6)
	v.SetDefault("roster.lookback_months", 6)
	v.SetDefault("roster.store_timeout", "5s")
	v.SetDefault("roster.extend_cooldown", "1m")
	v.SetDefault("roster.accept_first_acceptable", false)
	v.SetDefault("roster.timezone", "Asia/Shanghai")
	v.SetDefault("roster.extend_rate_limit", 1.0)
	v.SetDefault("roster.extend_rate_burst", 5)
}

// Validate 校验关键配置项
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("配置校验失败: server.port 必须在 1-65535 之间")
	}
	switch c.Store.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("配置校验失败: store.driver 仅支持 postgres | memory，实际 %q", c.Store.Driver)
	}
	r := c.Roster
	if r.AnchorMonth < 1 || r.AnchorMonth > 12 {
		return fmt.Errorf("配置校验失败: roster.anchor_month 必须在 1-12 之间")
	}
	if r.AnchorYear < 2000 {
		return fmt.Errorf("配置校验失败: roster.anchor_year 不能早于 2000")
	}
	if r.ExpectedMembers < 1 {
		return fmt.Errorf("配置校验失败: roster.expected_members 必须大于 0")
	}
	if r.HorizonMonths < 1 || r.HorizonMonths > 24 {
		return fmt.Errorf("配置校验失败: roster.horizon_months 必须在 1-24 之间")
	}
	if r.LookbackMonths < 1 || r.LookbackMonths > 24 {
		return fmt.Errorf("配置校验失败: roster.lookback_months 必须在 1-24 之间")
	}
	if r.StoreTimeout <= 0 {
		return fmt.Errorf("配置校验失败: roster.store_timeout 必须大于 0")
	}
	if _, err := time.LoadLocation(r.Timezone); err != nil {
		return fmt.Errorf("配置校验失败: roster.timezone 无效: %w", err)
	}
	return nil
}

// Location 返回值班表使用的时区，无效时退回 UTC
func (r *RosterConfig) Location() *time.Location {
	loc, err := time.LoadLocation(r.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
