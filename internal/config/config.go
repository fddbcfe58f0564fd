package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/pelletier/go-toml/v2"
)

type DataConfig struct {
	Dir    string `toml:"dir"`
	Source string `toml:"source"` // "files" (default) or "graph"
}

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

type GenerationConfig struct {
	MaxNewTokens int     `toml:"max_new_tokens"`
	Temperature  float64 `toml:"temperature"`
	TopP         float64 `toml:"top_p"`
	DoSample     bool    `toml:"do_sample"`
}

type PipelineConfig struct {
	NumCandidates    int     `toml:"num_candidates"`
	MaxEntities      int     `toml:"max_entities"`
	Workers          int     `toml:"workers"`
	NoMatchThreshold float64 `toml:"no_match_threshold"`
}

type GraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	KG1Label string `toml:"kg1_label"`
	KG2Label string `toml:"kg2_label"`
}

type OutputConfig struct {
	Dir     string `toml:"dir"`
	LogFile string `toml:"log_file"`
}

type ServerConfig struct {
	Port string `toml:"port"`
}

type Config struct {
	Data       DataConfig       `toml:"data"`
	LLM        LLMConfig        `toml:"llm"`
	Generation GenerationConfig `toml:"generation"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Graph      GraphConfig      `toml:"graph"`
	Output     OutputConfig     `toml:"output"`
	Server     ServerConfig     `toml:"server"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML from '%s': %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// Default returns a configuration usable without a config file, relying on
// flags and environment overrides for the rest.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Data.Source == "" {
		c.Data.Source = "files"
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = "openai"
	}
	if c.Generation.MaxNewTokens == 0 {
		c.Generation.MaxNewTokens = 1024
	}
	if c.Pipeline.NumCandidates == 0 {
		c.Pipeline.NumCandidates = 10
	}
	if c.Pipeline.Workers == 0 {
		c.Pipeline.Workers = 1
	}
	if c.Pipeline.NoMatchThreshold == 0 {
		c.Pipeline.NoMatchThreshold = 0.3
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "outputs"
	}
	if c.Output.LogFile == "" {
		c.Output.LogFile = "run.log"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
}

// ApplyEnv overrides the LLM block from environment variables, so deployments
// can keep credentials out of the config file.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.LLM.TimeoutSeconds = n
		}
	}
}
