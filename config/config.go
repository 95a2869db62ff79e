// Package config loads declarative agent definitions from YAML and builds
// runnable agent graphs from them.
package config

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// AgentDef declares a single agent. Agents with collaborators become
// supervisors; the rest are plain agents.
type AgentDef struct {
	Name          string   `yaml:"name"`
	Instruction   string   `yaml:"instruction"`
	Model         string   `yaml:"model"`
	MaxIterations int      `yaml:"max_iterations"`
	Mode          string   `yaml:"mode"`
	Collaborators []string `yaml:"collaborators"`
}

// Config is the root of a declarative agent file.
type Config struct {
	Agents []AgentDef `yaml:"agents"`
}

// Load parses a configuration document from r.
func Load(r io.Reader) (*Config, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadFile parses the configuration file at path.
func LoadFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	return Load(f)
}

func (c *Config) validate() error {
	seen := make(map[string]bool, len(c.Agents))
	for _, def := range c.Agents {
		if def.Name == "" {
			return fmt.Errorf("agent definition missing name")
		}
		if seen[def.Name] {
			return fmt.Errorf("duplicate agent name %q", def.Name)
		}
		seen[def.Name] = true
		if def.Instruction == "" {
			return fmt.Errorf("agent %q missing instruction", def.Name)
		}
		if def.MaxIterations < 0 {
			return fmt.Errorf("agent %q has negative max_iterations", def.Name)
		}
		switch def.Mode {
		case "", "supervisor", "router":
		default:
			return fmt.Errorf("agent %q has unknown mode %q", def.Name, def.Mode)
		}
		if def.Mode != "" && len(def.Collaborators) == 0 {
			return fmt.Errorf("agent %q declares mode %q without collaborators", def.Name, def.Mode)
		}
	}
	for _, def := range c.Agents {
		for _, ref := range def.Collaborators {
			if !seen[ref] {
				return fmt.Errorf("agent %q references unknown collaborator %q", def.Name, ref)
			}
			if ref == def.Name {
				return fmt.Errorf("agent %q references itself as collaborator", def.Name)
			}
		}
	}
	return nil
}
