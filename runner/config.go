// Copyright 2025 The stellarhw Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package runner

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pion/logging"
	"github.com/stellarhw/app-stellar-harness/navigation"
	"github.com/stellarhw/app-stellar-harness/reference"
	"github.com/stellarhw/app-stellar-harness/screen"
	"github.com/stellarhw/app-stellar-harness/simulator"
	"github.com/stellarhw/app-stellar-harness/util/errp"
	"github.com/stellarhw/app-stellar-harness/util/semver"
	"gopkg.in/yaml.v3"
)

// Environment variables read by ConfigFromEnv.
const (
	EnvSpeculosCommand = "SPECULOS_CMD"
	EnvELFDir          = "STELLAR_ELF_DIR"
	EnvGoldenDir       = "STELLAR_GOLDEN_DIR"
	EnvUpdateGolden    = "UPDATE_GOLDEN"
	EnvScreenTimeout   = "HARNESS_SCREEN_TIMEOUT"
	EnvParallelism     = "HARNESS_PARALLELISM"
)

// Config configures a Runner.
type Config struct {
	// SpeculosCommand runs Speculos, split on spaces when read from the environment.
	SpeculosCommand []string `yaml:"speculosCommand"`
	ELFDir          string   `yaml:"elfDir"`
	// Seed is the mnemonic of the simulated devices and of the reference signer.
	Seed string `yaml:"seed"`

	// GoldenDir holds the golden snapshots. Snapshots are not compared if empty.
	GoldenDir    string `yaml:"goldenDir"`
	UpdateGolden bool   `yaml:"updateGolden"`
	// MaxGoldenMismatches is the number of differing pixels tolerated per snapshot.
	MaxGoldenMismatches int `yaml:"maxGoldenMismatches"`

	// ScreenTimeout bounds the wait for the screen to change after an input.
	ScreenTimeout time.Duration `yaml:"screenTimeout"`
	// LongTimeout bounds waits for screens that take long to render, like the first review page
	// of a large transaction.
	LongTimeout time.Duration `yaml:"longTimeout"`
	// IdleTimeout bounds the wait for the home screen after start.
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
	PollInterval time.Duration `yaml:"pollInterval"`
	// MaxSteps bounds the number of pages a review is walked through.
	MaxSteps int `yaml:"maxSteps"`
	// Parallelism is the number of cases RunMatrix runs at once.
	Parallelism int `yaml:"parallelism"`
	// MinAppVersion, e.g. "5.0.0", fails the app configuration check of older apps. Any version
	// passes if empty.
	MinAppVersion string `yaml:"minAppVersion"`
	// Models restricts the matrix to these model ids. All models if empty.
	Models []string `yaml:"models"`

	// Layouts defaults to navigation.DefaultTable.
	Layouts       *navigation.Table     `yaml:"-"`
	LoggerFactory logging.LoggerFactory `yaml:"-"`
}

// DefaultConfig returns the configuration used unless overridden.
func DefaultConfig() Config {
	return Config{
		SpeculosCommand: []string{"speculos"},
		ELFDir:          "elfs",
		Seed:            reference.TestMnemonic,
		ScreenTimeout:   screen.DefaultTimeout,
		LongTimeout:     screen.MaxTimeout,
		IdleTimeout:     30 * time.Second,
		PollInterval:    screen.DefaultInterval,
		MaxSteps:        64,
		Parallelism:     4,
	}
}

// LoadConfig reads a YAML configuration file on top of DefaultConfig.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return config, errp.WithStack(err)
	}
	if err := yaml.Unmarshal(data, &config); err != nil {
		return config, errp.WithMessagef(errp.WithStack(err), "invalid config %s", path)
	}
	return config, config.validate()
}

// ConfigFromEnv overlays the environment variables onto config.
func ConfigFromEnv(config Config) (Config, error) {
	if value := os.Getenv(EnvSpeculosCommand); value != "" {
		config.SpeculosCommand = strings.Fields(value)
	}
	if value := os.Getenv(EnvELFDir); value != "" {
		config.ELFDir = value
	}
	if value := os.Getenv(EnvGoldenDir); value != "" {
		config.GoldenDir = value
	}
	if value := os.Getenv(EnvUpdateGolden); value != "" {
		update, err := strconv.ParseBool(value)
		if err != nil {
			return config, errp.WithMessagef(errp.WithStack(err), "invalid %s", EnvUpdateGolden)
		}
		config.UpdateGolden = update
	}
	if value := os.Getenv(EnvScreenTimeout); value != "" {
		timeout, err := time.ParseDuration(value)
		if err != nil {
			return config, errp.WithMessagef(errp.WithStack(err), "invalid %s", EnvScreenTimeout)
		}
		config.ScreenTimeout = timeout
	}
	if value := os.Getenv(EnvParallelism); value != "" {
		parallelism, err := strconv.Atoi(value)
		if err != nil {
			return config, errp.WithMessagef(errp.WithStack(err), "invalid %s", EnvParallelism)
		}
		config.Parallelism = parallelism
	}
	return config, config.validate()
}

func (config Config) validate() error {
	switch {
	case config.ScreenTimeout <= 0 || config.LongTimeout <= 0 || config.IdleTimeout <= 0:
		return errp.New("timeouts must be positive")
	case config.LongTimeout > screen.MaxTimeout:
		return errp.Newf("long timeout %s exceeds %s", config.LongTimeout, screen.MaxTimeout)
	case config.Parallelism <= 0:
		return errp.Newf("parallelism must be positive, got %d", config.Parallelism)
	case config.MaxSteps <= 0:
		return errp.Newf("max steps must be positive, got %d", config.MaxSteps)
	}
	_, err := config.minAppVersion()
	return err
}

func (config Config) minAppVersion() (*semver.SemVer, error) {
	if config.MinAppVersion == "" {
		return nil, nil
	}
	version, err := semver.NewSemVerFromString(config.MinAppVersion)
	if err != nil {
		return nil, errp.WithMessage(err, "invalid minimum app version")
	}
	return version, nil
}

// SimulatorConfig returns the configuration of the Speculos instances.
func (config Config) SimulatorConfig() simulator.Config {
	simulatorConfig := simulator.DefaultConfig()
	if len(config.SpeculosCommand) > 0 {
		simulatorConfig.Command = config.SpeculosCommand
	}
	if config.ELFDir != "" {
		simulatorConfig.ELFDir = config.ELFDir
	}
	if config.Seed != "" {
		simulatorConfig.Seed = config.Seed
	}
	simulatorConfig.LoggerFactory = config.LoggerFactory
	return simulatorConfig
}

func (config Config) golden() *screen.Golden {
	if config.GoldenDir == "" {
		return nil
	}
	return &screen.Golden{
		Dir:           config.GoldenDir,
		Update:        config.UpdateGolden,
		MaxMismatches: config.MaxGoldenMismatches,
	}
}
