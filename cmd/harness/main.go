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

// Package main runs the signing matrix against Speculos.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"regexp"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/pion/logging"
	"github.com/stellarhw/app-stellar-harness/api/common"
	"github.com/stellarhw/app-stellar-harness/fixtures"
	"github.com/stellarhw/app-stellar-harness/runner"
	"github.com/stellarhw/app-stellar-harness/util/errp"
)

type options struct {
	configPath string
	models     string
	filter     string
	update     bool
	reject     bool
	verbose    bool
}

func parseFlags(args []string) (options, error) {
	var opts options
	flags := flag.NewFlagSet("harness", flag.ContinueOnError)
	flags.StringVar(&opts.configPath, "config", "", "YAML configuration file")
	flags.StringVar(&opts.models, "models", "", "comma separated model ids, e.g. nanos,stax (default all)")
	flags.StringVar(&opts.filter, "filter", "", "regular expression selecting fixtures by name")
	flags.BoolVar(&opts.update, "update", false, "rewrite the golden snapshots")
	flags.BoolVar(&opts.reject, "reject", false, "also run every case with the user rejecting")
	flags.BoolVar(&opts.verbose, "v", false, "log every state transition")
	if err := flags.Parse(args); err != nil {
		return opts, errp.WithStack(err)
	}
	if flags.NArg() != 0 {
		return opts, errp.Newf("unexpected arguments %q", flags.Args())
	}
	return opts, nil
}

// loadConfig builds the runner configuration: defaults, then the config file, then the
// environment, then the flags.
func loadConfig(opts options) (runner.Config, error) {
	config := runner.DefaultConfig()
	if opts.configPath != "" {
		var err error
		if config, err = runner.LoadConfig(opts.configPath); err != nil {
			return config, err
		}
	}
	config, err := runner.ConfigFromEnv(config)
	if err != nil {
		return config, err
	}
	if opts.models != "" {
		config.Models = strings.Split(opts.models, ",")
	}
	if opts.update {
		config.UpdateGolden = true
	}
	factory := logging.NewDefaultLoggerFactory()
	if opts.verbose {
		factory.DefaultLogLevel = logging.LogLevelDebug
	}
	config.LoggerFactory = factory
	return config, nil
}

// selectCases builds the matrix of the configured models and the fixtures matching opts.filter.
func selectCases(config runner.Config, opts options) ([]runner.Case, error) {
	models, err := common.ModelsByID(config.Models)
	if err != nil {
		return nil, err
	}
	var filter func(fixtures.Fixture) bool
	if opts.filter != "" {
		pattern, err := regexp.Compile(opts.filter)
		if err != nil {
			return nil, errp.WithMessage(errp.WithStack(err), "invalid filter")
		}
		filter = func(fixture fixtures.Fixture) bool { return pattern.MatchString(fixture.Name) }
	}
	cases := runner.Cases(models, filter)
	if opts.reject {
		for _, c := range cases {
			c.Reject = true
			cases = append(cases, c)
		}
	}
	if len(cases) == 0 {
		return nil, errp.New("no cases selected")
	}
	return cases, nil
}

func report(results []runner.Result) {
	writer := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "CASE\tSTATE\tCLASS\tSTEPS\tDURATION")
	for _, result := range results {
		fmt.Fprintf(writer, "%s\t%s\t%s\t%d\t%s\n",
			result.Name, result.State, result.Class, result.Steps, result.Duration.Round(time.Millisecond))
	}
	_ = writer.Flush()
}

func run(ctx context.Context, args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}
	config, err := loadConfig(opts)
	if err != nil {
		return err
	}
	cases, err := selectCases(config, opts)
	if err != nil {
		return err
	}
	results, err := runner.New(config, nil).RunMatrix(ctx, cases)
	report(results)
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:])
	stop()
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(2)
	}
	if err != nil {
		var matrixErr *runner.MatrixError
		if errors.As(err, &matrixErr) {
			for _, result := range matrixErr.Failed {
				fmt.Fprintf(os.Stderr, "%s: %+v\n", result.Name, result.Err)
			}
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
