package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// AppConfig 汇总运行服务所需的基础配置。
type AppConfig struct {
	ListenAddr        string `yaml:"listen_addr"`
	Port              string `yaml:"port"`
	DatabasePath      string `yaml:"database_path"`
	SessionSecret     string `yaml:"session_secret"`
	GinMode           string `yaml:"gin_mode"`
	UploadDir         string `yaml:"upload_dir"`
	UploadURLPath     string `yaml:"upload_url_path"`
	LogDir            string `yaml:"log_dir"`
	LogDebug          bool   `yaml:"log_debug"`
	PageSize          int    `yaml:"page_size"`
	RateLimitRPS      int    `yaml:"rate_limit_rps"`
	RateLimitBurst    int    `yaml:"rate_limit_burst"`
	SuperUserEmail    string `yaml:"super_user_email"`
	SuperUserPassword string `yaml:"super_user_password"`
}

// Defaults returns the configuration used when nothing else is supplied.
func Defaults() AppConfig {
	return AppConfig{
		Port:           "8080",
		DatabasePath:   "habits.db",
		SessionSecret:  "habits-dev-secret",
		GinMode:        "release",
		UploadDir:      "media",
		UploadURLPath:  "/media",
		LogDir:         "logs",
		PageSize:       10,
		RateLimitRPS:   5,
		RateLimitBurst: 10,
	}
}

// Load 读取可选的 YAML 配置文件，再用环境变量覆盖，缺失项回退到默认值。
func Load(path string) (AppConfig, error) {
	cfg := Defaults()

	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return AppConfig{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return AppConfig{}, fmt.Errorf("parse config file: %w", err)
		}
	}

	overrideString(&cfg.Port, "PORT")
	overrideString(&cfg.ListenAddr, "LISTEN_ADDR")
	overrideString(&cfg.DatabasePath, "DATABASE_PATH")
	overrideString(&cfg.SessionSecret, "SESSION_SECRET")
	overrideString(&cfg.GinMode, "GIN_MODE")
	overrideString(&cfg.UploadDir, "UPLOAD_DIR")
	overrideString(&cfg.UploadURLPath, "UPLOAD_URL_PATH")
	overrideString(&cfg.LogDir, "LOG_DIR")
	overrideString(&cfg.SuperUserEmail, "SUPER_USER_EMAIL")
	overrideString(&cfg.SuperUserPassword, "SUPER_USER_PASSWORD")

	if err := overrideBool(&cfg.LogDebug, "LOG_DEBUG"); err != nil {
		return AppConfig{}, err
	}
	for key, dst := range map[string]*int{
		"PAGE_SIZE":        &cfg.PageSize,
		"RATE_LIMIT_RPS":   &cfg.RateLimitRPS,
		"RATE_LIMIT_BURST": &cfg.RateLimitBurst,
	} {
		if err := overrideInt(dst, key); err != nil {
			return AppConfig{}, err
		}
	}

	if cfg.Port == "" {
		cfg.Port = "8080"
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = fmt.Sprintf(":%s", cfg.Port)
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 10
	}

	return cfg, nil
}

func overrideString(dst *string, key string) {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		*dst = value
	}
}

func overrideInt(dst *int, key string) error {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("%s must be an integer: %w", key, err)
	}
	*dst = parsed
	return nil
}

func overrideBool(dst *bool, key string) error {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	*dst = parsed
	return nil
}
