// Copyright 2026 Nick White.
// Use of this source code is governed by the GPLv3
// license that can be found in the LICENSE file.

package altotxt

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds the settings shared by the altotxt commands. It is
// built from defaults, then an optional YAML file, then ALTOTXT_*
// environment variables; command line flags are applied last by
// each command.
type Config struct {
	Workers    int      `yaml:"workers"`
	Namespaces []string `yaml:"namespaces"`
	PDF        bool     `yaml:"pdf"`
	Graph      bool     `yaml:"graph"`
	Keep       bool     `yaml:"keep"`
	Storage    string   `yaml:"storage"`
	Region     string   `yaml:"region"`
	Bucket     string   `yaml:"bucket"`
	Queue      string   `yaml:"queue"`
	Upload     string   `yaml:"upload"`
}

// DefaultConfig returns the settings used when nothing else is set
func DefaultConfig() Config {
	return Config{
		Workers: runtime.NumCPU(),
		Storage: "local",
	}
}

// DefaultConfigPath is where the config file is looked for if none
// is given explicitly.
func DefaultConfigPath() string {
	return filepath.Join(os.Getenv("HOME"), ".config", "altotxt", "config.yaml")
}

// LoadConfig builds a Config. If path is empty DefaultConfigPath is
// used, and it is fine for that not to exist; an explicitly given
// path must exist. Any .env file in the working directory is loaded
// into the environment first.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	_ = godotenv.Load()

	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		err = yaml.Unmarshal(b, &cfg)
		if err != nil {
			return cfg, fmt.Errorf("Error parsing config file %s: %w", path, err)
		}
	case explicit || !os.IsNotExist(err):
		return cfg, fmt.Errorf("Error reading config file %s: %w", path, err)
	}

	err = applyEnv(&cfg)
	if err != nil {
		return cfg, err
	}

	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Storage != "local" && cfg.Storage != "aws" {
		return cfg, fmt.Errorf("Unknown storage %q, must be local or aws", cfg.Storage)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v, ok := os.LookupEnv("ALTOTXT_WORKERS"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("Error parsing ALTOTXT_WORKERS: %w", err)
		}
		cfg.Workers = n
	}
	if v, ok := os.LookupEnv("ALTOTXT_NAMESPACES"); ok {
		cfg.Namespaces = nil
		for _, ns := range strings.Split(v, ",") {
			if ns = strings.TrimSpace(ns); ns != "" {
				cfg.Namespaces = append(cfg.Namespaces, ns)
			}
		}
	}
	for _, b := range []struct {
		name string
		v    *bool
	}{
		{"ALTOTXT_PDF", &cfg.PDF},
		{"ALTOTXT_GRAPH", &cfg.Graph},
		{"ALTOTXT_KEEP", &cfg.Keep},
	} {
		v, ok := os.LookupEnv(b.name)
		if !ok {
			continue
		}
		p, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("Error parsing %s: %w", b.name, err)
		}
		*b.v = p
	}
	for _, s := range []struct {
		name string
		v    *string
	}{
		{"ALTOTXT_STORAGE", &cfg.Storage},
		{"ALTOTXT_REGION", &cfg.Region},
		{"ALTOTXT_BUCKET", &cfg.Bucket},
		{"ALTOTXT_QUEUE", &cfg.Queue},
		{"ALTOTXT_UPLOAD", &cfg.Upload},
	} {
		if v, ok := os.LookupEnv(s.name); ok {
			*s.v = v
		}
	}
	return nil
}
