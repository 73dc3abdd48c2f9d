package app

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/toddlr/toddlr-backend/internal/logger"
	"github.com/toddlr/toddlr-backend/internal/utils"
)

type Config struct {
	Port           string
	ServiceName    string
	Environment    string
	Version        string
	JWTSecretKey   string
	AccessTokenTTL time.Duration
	CORSOrigins    []string
	RedisAddr      string
}

// fileConfig mirrors Config for the optional YAML overlay. Only fields the
// file actually sets override the environment-derived values.
type fileConfig struct {
	Port           string   `yaml:"port"`
	ServiceName    string   `yaml:"service_name"`
	Environment    string   `yaml:"environment"`
	JWTSecretKey   string   `yaml:"jwt_secret_key"`
	AccessTokenTTL int      `yaml:"access_token_ttl"`
	CORSOrigins    []string `yaml:"cors_origins"`
	RedisAddr      string   `yaml:"redis_addr"`
}

func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Port:           utils.GetEnv("PORT", "8080", log),
		ServiceName:    utils.GetEnv("SERVICE_NAME", "toddlr-backend", log),
		Environment:    utils.GetEnv("ENVIRONMENT", "development", log),
		Version:        utils.GetEnv("SERVICE_VERSION", "dev", log),
		JWTSecretKey:   utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL: time.Duration(utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)) * time.Second,
		RedisAddr:      utils.GetRawEnv("REDIS_ADDR"),
	}
	if raw := utils.GetRawEnv("CORS_ORIGINS"); raw != "" {
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				cfg.CORSOrigins = append(cfg.CORSOrigins, origin)
			}
		}
	}

	path := utils.GetRawEnv("CONFIG_FILE")
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(raw, &fc); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}
	if fc.Port != "" {
		cfg.Port = fc.Port
	}
	if fc.ServiceName != "" {
		cfg.ServiceName = fc.ServiceName
	}
	if fc.Environment != "" {
		cfg.Environment = fc.Environment
	}
	if fc.JWTSecretKey != "" {
		cfg.JWTSecretKey = fc.JWTSecretKey
	}
	if fc.AccessTokenTTL > 0 {
		cfg.AccessTokenTTL = time.Duration(fc.AccessTokenTTL) * time.Second
	}
	if len(fc.CORSOrigins) > 0 {
		cfg.CORSOrigins = fc.CORSOrigins
	}
	if fc.RedisAddr != "" {
		cfg.RedisAddr = fc.RedisAddr
	}
	log.Info("Loaded config overlay", "path", path)
	return cfg, nil
}
