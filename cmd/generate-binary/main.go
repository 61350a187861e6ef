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

// Package main writes the payload of every fixture to a .raw file, as input for the app's unit
// tests and fuzzers.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/stellarhw/app-stellar-harness/fixtures"
	"github.com/stellarhw/app-stellar-harness/util/errp"
)

var targets = map[string]string{
	"unit": filepath.Join("tests_unit", "testcases"),
	"fuzz": filepath.Join("fuzz", "testcases"),
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [-root dir | -out dir] unit|fuzz\n", os.Args[0])
	flag.PrintDefaults()
}

// generate writes <dir>/<fixture name>.raw for every fixture, and a copy under each of its unit
// test names, and returns the written paths.
func generate(dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errp.WithStack(err)
	}
	var paths []string
	for _, fixture := range fixtures.List() {
		request, err := fixture.Produce()
		if err != nil {
			return paths, errp.WithMessagef(err, "failed to build %s", fixture.Name)
		}
		payload, err := request.Payload()
		if err != nil {
			return paths, errp.WithMessagef(err, "failed to encode %s", fixture.Name)
		}
		for _, name := range append([]string{fixture.Name}, fixture.UnitTestNames()...) {
			path := filepath.Join(dir, name+".raw")
			if err := os.WriteFile(path, payload, 0o640); err != nil {
				return paths, errp.WithMessagef(errp.WithStack(err), "failed to write %s", name)
			}
			paths = append(paths, path)
		}
	}
	return paths, nil
}

func main() {
	root := flag.String("root", ".", "app repository root")
	out := flag.String("out", "", "output directory, overrides the default one of the type")
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	typ := flag.Arg(0)
	target, ok := targets[typ]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown type: %s\n", typ)
		os.Exit(2)
	}
	dir := filepath.Join(*root, target)
	if *out != "" {
		dir = *out
	}
	fmt.Printf("type: %s\n", typ)
	paths, err := generate(dir)
	for _, path := range paths {
		fmt.Println(path)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
	fmt.Printf("generated %d test cases\n", len(paths))
}
