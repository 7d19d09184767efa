package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

// Config keeps runtime settings for the service.
type Config struct {
	Server      ServerConfig   `mapstructure:"server"`
	Timezone    string         `mapstructure:"timezone"`
	DataDir     string         `mapstructure:"data_dir"`
	DatabaseURL string         `mapstructure:"database_url"`
	TasksFile   string         `mapstructure:"tasks_file"`
	ReportTime  string         `mapstructure:"report_time"`
	Log         LogConfig      `mapstructure:"log"`
	Telegram    TelegramConfig `mapstructure:"telegram"`
}

type ServerConfig struct {
	Addr string `mapstructure:"addr"`
	Mode string `mapstructure:"mode"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type TelegramConfig struct {
	Token         string `mapstructure:"token"`
	AllowedUserID int64  `mapstructure:"allowed_user_id"`
}

// Environment variables per key. When several are set the first one wins.
var envBindings = map[string][]string{
	"server.addr":              {"HTTP_ADDR", "ADDR"},
	"server.mode":              {"SERVER_MODE", "GIN_MODE"},
	"timezone":                 {"APP_TZ", "TIMEZONE"},
	"data_dir":                 {"DATA_DIR"},
	"database_url":             {"DATABASE_URL", "DB_PATH", "SQLITE_PATH"},
	"tasks_file":               {"TASKS_FILE", "TASKS_PATH"},
	"report_time":              {"REPORT_TIME"},
	"log.level":                {"LOG_LEVEL"},
	"telegram.token":           {"TELEGRAM_TOKEN"},
	"telegram.allowed_user_id": {"TELEGRAM_ALLOWED_USER_ID"},
}

// Load reads configuration from environment variables, an optional YAML file and
// defaults, in that order of precedence. An empty path falls back to CONFIG_FILE.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("server.addr", ":8000")
	v.SetDefault("server.mode", "release")
	v.SetDefault("timezone", "Europe/Berlin")
	v.SetDefault("data_dir", "data")
	v.SetDefault("log.level", "info")
	v.SetDefault("report_time", "")
	v.SetDefault("telegram.token", "")
	v.SetDefault("telegram.allowed_user_id", 0)

	for key, names := range envBindings {
		if err := v.BindEnv(append([]string{key}, names...)...); err != nil {
			return Config{}, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if path == "" {
		path = strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	}
	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file %q: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.DataDir = strings.TrimSpace(cfg.DataDir)
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = filepath.Join(cfg.DataDir, "app.db")
	}
	cfg.TasksFile = strings.TrimSpace(cfg.TasksFile)
	if cfg.TasksFile == "" {
		cfg.TasksFile = filepath.Join(cfg.DataDir, "tasks.json")
	}
	cfg.Server.Mode = strings.ToLower(strings.TrimSpace(cfg.Server.Mode))
	switch cfg.Server.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	case "":
		cfg.Server.Mode = gin.ReleaseMode
	default:
		return cfg, fmt.Errorf("server mode %q is invalid, expected %s, %s or %s",
			cfg.Server.Mode, gin.DebugMode, gin.ReleaseMode, gin.TestMode)
	}
	cfg.Telegram.Token = strings.TrimSpace(cfg.Telegram.Token)
	cfg.ReportTime = strings.TrimSpace(cfg.ReportTime)

	if strings.TrimSpace(cfg.Timezone) == "" {
		return cfg, fmt.Errorf("timezone is required")
	}
	return cfg, nil
}
