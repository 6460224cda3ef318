/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

// Command obx exercises the observation engine against a small demo
// object graph: watch a path while the graph is mutated, inspect strategy
// resolution, or time change propagation through chains of growing depth.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/urfave/cli/v3"

	"dirpx.dev/obx"
	"dirpx.dev/obx/apis"
	"dirpx.dev/obx/cache/policy"
	"dirpx.dev/obx/config"
	"dirpx.dev/obx/errsink"
)

const (
	logLevelKey    = "log-level"
	cachePolicyKey = "cache-policy"
	pathKey        = "path"
	skipInitialKey = "skip-initial"
	beforeKey      = "before"
	dumpKey        = "dump"
	depthKey       = "depth"
	itersKey       = "iterations"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "obx",
		Usage: "observe property paths on a demo object graph",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  logLevelKey,
				Usage: "log level (debug, info, warn, error)",
				Value: "info",
			},
			&cli.StringFlag{
				Name:  cachePolicyKey,
				Usage: "cache policy of the analyzer and resolution caches (lru, none)",
				Value: "lru",
			},
		},
		Commands: []*cli.Command{
			watchCommand(),
			inspectCommand(),
			benchCommand(),
		},
	}
}

// output returns the writer reports are printed to.
func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

// newLogger builds the text logger selected by --log-level.
func newLogger(cmd *cli.Command) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cmd.String(logLevelKey))); err != nil {
		return nil, fmt.Errorf("invalid --%s: %w", logLevelKey, err)
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(h), nil
}

// newContext builds an engine context from the global flags.
func newContext(cmd *cli.Command, extra ...obx.Option) (*obx.Context, *slog.Logger, error) {
	logger, err := newLogger(cmd)
	if err != nil {
		return nil, nil, err
	}
	p, err := policy.Parse(cmd.String(cachePolicyKey))
	if err != nil {
		return nil, nil, fmt.Errorf("invalid --%s: %w", cachePolicyKey, err)
	}
	opts := []obx.Option{
		obx.WithLogger(logger),
		obx.WithConfig(config.WithCachePolicy(p)),
		obx.WithErrorSink(errsink.Func(func(err error) {
			logger.Error("obx: unhandled error", "error", err)
		})),
	}
	return obx.New(append(opts, extra...)...), logger, nil
}

// direction renders a notification direction.
func direction(before bool) string {
	if before {
		return "before"
	}
	return "after"
}

// Ensure the demo types expose the capabilities they advertise.
var (
	_ apis.DualNotifier = (*Invoice)(nil)
	_ apis.DualNotifier = (*Customer)(nil)
	_ apis.Notifier     = (*Address)(nil)
)
