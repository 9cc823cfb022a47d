// Copyright (C) The pandas-genomics Authors. All rights reserved.
//
// SPDX-License-Identifier: AGPL-3.0

package genomics

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"
)

// Config holds defaults for command-line flags. Values come from a
// YAML file (if any), then GENOMICS_* environment variables; flags
// given on the command line take precedence over both.
type Config struct {
	LogLevel    string       `yaml:"log_level" envconfig:"GENOMICS_LOG_LEVEL"`
	Parallelism int          `yaml:"parallelism" envconfig:"GENOMICS_PARALLELISM"`
	VCF         VCFOptions   `yaml:"vcf"`
	Plink       PlinkOptions `yaml:"plink"`
	Filter      filter       `yaml:"filter"`
}

func DefaultConfig() Config {
	return Config{
		LogLevel: "info",
	}
}

// LoadConfig reads the YAML file at path (skipped if path is empty)
// and applies environment overrides.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("failed to open the config file: %w", err)
		}
		if err := yaml.UnmarshalStrict(buf, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse the config file %s: %w", path, err)
		}
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (cfg Config) Validate() error {
	if _, err := logrus.ParseLevel(cfg.LogLevel); err != nil {
		return err
	}
	if cfg.Parallelism < 0 {
		return fmt.Errorf("invalid parallelism %d", cfg.Parallelism)
	}
	if cfg.VCF.MaxVariants < 0 || cfg.Plink.MaxVariants < 0 {
		return fmt.Errorf("invalid max variants")
	}
	if cfg.Filter.MinMAF < 0 || cfg.Filter.MinMAF > 0.5 {
		return fmt.Errorf("invalid min MAF %g, must be in [0, 0.5]", cfg.Filter.MinMAF)
	}
	return nil
}

// Setup applies process-wide settings.
func (cfg Config) Setup() {
	if lvl, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(lvl)
	}
}
