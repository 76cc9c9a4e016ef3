package ntpsync

import (
	"fmt"
	"io/ioutil"
	"time"

	yaml "gopkg.in/yaml.v2"
)

var defaultPool = [...]string{
	"ntp.aliyun.com",
	"time.cloudflare.com",
	"pool.ntp.org",
}

// DefaultPool returns the built-in fallback servers in the order they are
// tried.
func DefaultPool() []string {
	pool := make([]string, len(defaultPool))
	copy(pool, defaultPool[:])
	return pool
}

type Config struct {
	// Server is tried before the pool when set.
	Server     string        `yaml:"server"`
	Pool       []string      `yaml:"pool"`
	Samples    int           `yaml:"samples"`
	Timeout    time.Duration `yaml:"timeout"`
	Port       string        `yaml:"port"`
	Nameserver string        `yaml:"nameserver"`
	DryRun     bool          `yaml:"dry_run"`

	// Interval repeats the sync when positive.
	Interval time.Duration `yaml:"interval"`
	Metric   string        `yaml:"metric"`
	Textfile string        `yaml:"textfile"`
}

func NewConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func NewConfigFromFile(path string) (cfg *Config, err error) {
	p, err := ioutil.ReadFile(path)
	if err != nil {
		return
	}
	cfg = &Config{}
	if err = yaml.Unmarshal(p, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.applyDefaults()
	return
}

func (c *Config) applyDefaults() {
	if len(c.Pool) == 0 {
		c.Pool = DefaultPool()
	}
	if c.Samples == 0 {
		c.Samples = MinSamples
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.Port == "" {
		c.Port = DefaultPort
	}
}

// Validate rejects settings the synchronizer cannot run with. The custom
// server is not checked here, an invalid one only skips the first phase.
func (c *Config) Validate() error {
	if c.Samples < MinSamples || c.Samples > MaxSamples {
		return fmt.Errorf("samples must be between %d and %d, got %d",
			MinSamples, MaxSamples, c.Samples)
	}
	for _, host := range c.Pool {
		if err := ValidHostname(host); err != nil {
			return fmt.Errorf("pool: %w", err)
		}
	}
	if c.Interval < 0 {
		return fmt.Errorf("negative interval %s", c.Interval)
	}
	return nil
}
