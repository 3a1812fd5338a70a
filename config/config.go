package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Deployment selects the branch defaults of a gateway.
type Deployment string

const (
	// DeploymentLocal serves every environment and defaults to development.
	DeploymentLocal Deployment = "local"
	// DeploymentPublic serves released environments only.
	DeploymentPublic Deployment = "public"
)

// Environment branch names.
const (
	BranchDevelopment = "development"
	BranchPreview     = "preview"
	BranchProduction  = "production"
)

// DefaultPort is the local port the gateway binds to.
const DefaultPort = 31310

// Config is the root configuration structure.
type Config struct {
	Server  ServerConfig  `json:"server" yaml:"server"`
	Content ContentConfig `json:"content" yaml:"content"`
	Paging  PagingConfig  `json:"paging" yaml:"paging"`
	History HistoryConfig `json:"history" yaml:"history"`
	Log     LogConfig     `json:"log" yaml:"log"`
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	Host       string     `json:"host" yaml:"host"`
	Port       int        `json:"port" yaml:"port"`
	Deployment Deployment `json:"deployment" yaml:"deployment"`
	Metrics    bool       `json:"metrics" yaml:"metrics"`
}

// Addr returns the host:port the gateway listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ContentConfig locates the content repository and its environments.
type ContentConfig struct {
	RepoPath      string   `json:"repoPath" yaml:"repoPath"`
	DefaultBranch string   `json:"defaultBranch" yaml:"defaultBranch"` // Default: by deployment
	Branches      []string `json:"branches" yaml:"branches"`           // Recognized branch names; by deployment when empty
}

// PagingConfig bounds list pages.
type PagingConfig struct {
	DefaultLimit int `json:"defaultLimit" yaml:"defaultLimit"`
	MaxLimit     int `json:"maxLimit" yaml:"maxLimit"`
}

// HistoryConfig bounds how many commits one history request returns.
type HistoryConfig struct {
	DefaultLimit int `json:"defaultLimit" yaml:"defaultLimit"`
	MaxLimit     int `json:"maxLimit" yaml:"maxLimit"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level   string `json:"level" yaml:"level"`
	Console bool   `json:"console" yaml:"console"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:       "localhost",
			Port:       DefaultPort,
			Deployment: DeploymentLocal,
			Metrics:    true,
		},
		Content: ContentConfig{
			RepoPath: ".",
		},
		Paging: PagingConfig{
			DefaultLimit: 15,
			MaxLimit:     100,
		},
		History: HistoryConfig{
			DefaultLimit: 20,
			MaxLimit:     200,
		},
		Log: LogConfig{
			Level:   "info",
			Console: true,
		},
	}
}

// DeploymentBranches returns the recognized branches and default branch of a
// deployment.
func DeploymentBranches(d Deployment) (branches []string, defaultBranch string) {
	if d == DeploymentPublic {
		return []string{BranchPreview, BranchProduction}, BranchProduction
	}
	return []string{BranchDevelopment, BranchPreview, BranchProduction}, BranchDevelopment
}

// ApplyDeployment fills branch settings left empty from the deployment.
func (c *Config) ApplyDeployment() {
	branches, defaultBranch := DeploymentBranches(c.Server.Deployment)
	if len(c.Content.Branches) == 0 {
		c.Content.Branches = branches
	}
	if c.Content.DefaultBranch == "" {
		c.Content.DefaultBranch = defaultBranch
	}
}

// Validate rejects inconsistent configuration.
func (c *Config) Validate() error {
	switch c.Server.Deployment {
	case DeploymentLocal, DeploymentPublic:
	default:
		return fmt.Errorf("unknown deployment %q (expected local or public)", c.Server.Deployment)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Server.Port)
	}
	if c.Content.RepoPath == "" {
		return fmt.Errorf("content repository path is empty")
	}
	if len(c.Content.Branches) > 0 && !slices.Contains(c.Content.Branches, c.Content.DefaultBranch) {
		return fmt.Errorf("default branch %q is not one of %v", c.Content.DefaultBranch, c.Content.Branches)
	}
	if c.Paging.DefaultLimit < 1 || c.Paging.DefaultLimit > c.Paging.MaxLimit {
		return fmt.Errorf("paging limits invalid: default %d, max %d", c.Paging.DefaultLimit, c.Paging.MaxLimit)
	}
	if c.History.DefaultLimit < 1 || c.History.DefaultLimit > c.History.MaxLimit {
		return fmt.Errorf("history limits invalid: default %d, max %d", c.History.DefaultLimit, c.History.MaxLimit)
	}
	return nil
}

var defaultFileNames = []string{".contentgw.json", ".contentgw.yaml", ".contentgw.yml"}

// LoadConfig loads configuration from a file, merging with defaults.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		// Try default locations
		var dirs []string
		dirs = append(dirs, ".")
		if home, err := os.UserHomeDir(); err == nil && home != "" {
			dirs = append(dirs, home)
		} else if envHome := os.Getenv("HOME"); envHome != "" {
			dirs = append(dirs, envHome)
		}
	search:
		for _, dir := range dirs {
			for _, name := range defaultFileNames {
				p := filepath.Join(dir, name)
				if _, err := os.Stat(p); err == nil {
					path = p
					break search
				}
			}
		}
	}

	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if isYAML(path) {
		err = yaml.Unmarshal(data, cfg)
	} else {
		err = json.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to a file. The extension selects YAML or
// JSON.
func SaveConfig(cfg *Config, path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(cfg)
	} else {
		data, err = json.MarshalIndent(cfg, "", "  ")
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
