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

package main

import (
	"context"
	"fmt"

	"github.com/davecgh/go-spew/spew"
	"github.com/urfave/cli/v3"

	"dirpx.dev/obx"
	"dirpx.dev/obx/chain"
	"dirpx.dev/obx/rx"
)

func watchCommand() *cli.Command {
	return &cli.Command{
		Name:  "watch",
		Usage: "subscribe to a path of the demo invoice and run scripted mutations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  pathKey,
				Usage: "property path below the invoice",
				Value: "Customer.Address.City",
			},
			&cli.BoolFlag{
				Name:  skipInitialKey,
				Usage: "do not emit the value present at subscription time",
			},
			&cli.BoolFlag{
				Name:  beforeKey,
				Usage: "observe pre-change notifications",
			},
			&cli.BoolFlag{
				Name:  dumpKey,
				Usage: "dump every change record",
			},
		},
		Action: watch,
	}
}

func watch(ctx context.Context, cmd *cli.Command) error {
	octx, logger, err := newContext(cmd)
	if err != nil {
		return err
	}
	inv := newInvoice()
	path := cmd.String(pathKey)

	var opts []obx.WatchOption
	if cmd.Bool(skipInitialKey) {
		opts = append(opts, obx.SkipInitial())
	}
	if cmd.Bool(beforeKey) {
		opts = append(opts, obx.BeforeChange())
	}
	src, err := obx.WhenAny[*Invoice, any](octx, inv, path, opts...)
	if err != nil {
		return err
	}

	w := output(cmd)
	dump := cmd.Bool(dumpKey)
	current := "subscribe"
	var failed error
	d := src.Subscribe(rx.NewObserver(
		func(c chain.ObservedChange[*Invoice, any]) {
			v, err := c.GetValue()
			if err != nil {
				logger.Warn("change no longer resolves", "step", current, "path", c.Path(), "error", err)
				return
			}
			logger.Info("emission", "step", current, "path", c.Path(), "value", v)
			if dump {
				fmt.Fprint(w, spew.Sdump(c.Chain, v))
			}
		},
		func(err error) { failed = err },
		nil,
	))
	defer d.Dispose()

	for _, s := range script() {
		if failed != nil || ctx.Err() != nil {
			break
		}
		current = s.name
		s.mutate(inv)
	}
	return failed
}
