package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// config holds the process configuration. Values come from an optional YAML
// file (WEBCAT_CONFIG) with environment variables taking precedence; the
// result is immutable after load.
type config struct {
	Port     string `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	// ServiceAPIKey protects /api routes (bearer token). Empty disables auth.
	ServiceAPIKey string `yaml:"service_api_key"`

	SerperAPIKey string `yaml:"serper_api_key"`
	TavilyAPIKey string `yaml:"tavily_api_key"`

	MaxContentLength      int `yaml:"max_content_length"`
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
	DefaultSearchResults  int `yaml:"default_search_results"`
	ScrapeConcurrency     int `yaml:"scrape_concurrency"`

	// MCPTransport selects the MCP surface: "" (disabled) or "stdio".
	MCPTransport string `yaml:"mcp_transport"`
}

func defaultConfig() config {
	return config{
		Port:                  "8000",
		LogLevel:              "info",
		MaxContentLength:      1_000_000,
		RequestTimeoutSeconds: 5,
		DefaultSearchResults:  5,
		ScrapeConcurrency:     5,
	}
}

// loadConfig builds the effective configuration: defaults, then the YAML
// file named by WEBCAT_CONFIG (if any), then environment overrides.
func loadConfig() (config, error) {
	cfg := defaultConfig()

	if path := os.Getenv("WEBCAT_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	envString(&cfg.Port, "PORT")
	envString(&cfg.LogLevel, "LOG_LEVEL")
	envString(&cfg.ServiceAPIKey, "WEBCAT_API_KEY")
	envString(&cfg.SerperAPIKey, "SERPER_API_KEY")
	envString(&cfg.TavilyAPIKey, "TAVILY_API_KEY")
	envString(&cfg.MCPTransport, "MCP_TRANSPORT")
	envInt(&cfg.MaxContentLength, "MAX_CONTENT_LENGTH")
	envInt(&cfg.RequestTimeoutSeconds, "REQUEST_TIMEOUT_SECONDS")
	envInt(&cfg.DefaultSearchResults, "DEFAULT_SEARCH_RESULTS")
	envInt(&cfg.ScrapeConcurrency, "SCRAPE_CONCURRENCY")

	return cfg, nil
}

func (c config) requestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func envString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
