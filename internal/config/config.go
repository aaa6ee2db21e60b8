// Package config loads all settings from the environment. A .env file in
// the working directory is applied first so local runs don't need to
// export credentials by hand.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every runtime setting. The three credential/target values
// are required; everything else has a default matching the backoffice's
// observed behavior.
type Config struct {
	// Operator credentials for the backoffice console.
	User     string `env:"BACKOFFICE_USER"`
	Password string `env:"BACKOFFICE_PASSWORD"`

	// Environment is the target environment name used to derive endpoint
	// hostnames (e.g. "staging" -> backoffice-node1.staging.<domain>).
	Environment string `env:"BACKOFFICE_ENV"`

	// Domain is the vendor's cloud domain the endpoint hostnames live under.
	Domain string `env:"BACKOFFICE_DOMAIN" envDefault:"cloud.example.com"`

	// Nodes are the logical endpoints of the environment. Each node gets
	// its own session and worker pool during publish.
	Nodes []string `env:"BACKOFFICE_NODES" envDefault:"node1,node2" envSeparator:","`

	SnapshotPath   string        `env:"SNAPSHOT_PATH" envDefault:"modules.json"`
	WorkersPerNode int           `env:"WORKERS_PER_NODE" envDefault:"3"`
	RetryMax       int           `env:"RETRY_MAX" envDefault:"3"`
	RetryDelay     time.Duration `env:"RETRY_DELAY" envDefault:"0s"`
	NavTimeout     time.Duration `env:"NAV_TIMEOUT" envDefault:"45s"`
	PublishWait    time.Duration `env:"PUBLISH_WAIT" envDefault:"90s"`
	PageDelay      time.Duration `env:"PAGE_DELAY" envDefault:"1s"`

	ScheduleInterval time.Duration `env:"SCHEDULE_INTERVAL" envDefault:"6h"`

	Headless bool   `env:"HEADLESS" envDefault:"true"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

// Load reads .env (if present) and the process environment, then checks
// the required values. A missing credential or target environment is a
// startup error; nothing should touch the network before this passes.
func Load() (*Config, error) {
	// Missing .env is fine; exported variables still apply.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	var missing []string
	if cfg.User == "" {
		missing = append(missing, "BACKOFFICE_USER")
	}
	if cfg.Password == "" {
		missing = append(missing, "BACKOFFICE_PASSWORD")
	}
	if cfg.Environment == "" {
		missing = append(missing, "BACKOFFICE_ENV")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", "))
	}

	if cfg.WorkersPerNode < 1 {
		cfg.WorkersPerNode = 1
	}
	if cfg.RetryMax < 1 {
		cfg.RetryMax = 1
	}

	return cfg, nil
}

// Endpoint is one logical backoffice target.
type Endpoint struct {
	Node    string
	BaseURL string
}

// Endpoints derives the endpoint URLs for the configured environment.
func (c *Config) Endpoints() []Endpoint {
	endpoints := make([]Endpoint, 0, len(c.Nodes))
	for _, node := range c.Nodes {
		node = strings.TrimSpace(node)
		if node == "" {
			continue
		}
		endpoints = append(endpoints, Endpoint{
			Node:    node,
			BaseURL: fmt.Sprintf("https://backoffice-%s.%s.%s", node, c.Environment, c.Domain),
		})
	}
	return endpoints
}

// ScanEndpoint is the single endpoint the scanner runs against. The module
// list is identical across nodes, so scanning the first one is enough.
func (c *Config) ScanEndpoint() Endpoint {
	endpoints := c.Endpoints()
	if len(endpoints) == 0 {
		return Endpoint{Node: "node1", BaseURL: fmt.Sprintf("https://backoffice-node1.%s.%s", c.Environment, c.Domain)}
	}
	return endpoints[0]
}
