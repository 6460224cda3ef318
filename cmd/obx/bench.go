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
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"

	"dirpx.dev/obx"
	"dirpx.dev/obx/metrics"
	"dirpx.dev/obx/rx"
)

var depths = []int{1, 2, 4, 8, 16}

func benchCommand() *cli.Command {
	return &cli.Command{
		Name:  "bench",
		Usage: "time leaf-change propagation through chains of growing depth",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  itersKey,
				Usage: "leaf changes per depth",
				Value: 1000,
			},
			&cli.IntFlag{
				Name:  depthKey,
				Usage: "only run this chain depth (0 runs all)",
			},
		},
		Action: bench,
	}
}

func bench(ctx context.Context, cmd *cli.Command) error {
	reg := prometheus.NewRegistry()
	octx, logger, err := newContext(cmd, obx.WithRecorder(metrics.NewRecorder(reg)))
	if err != nil {
		return err
	}
	iters := int(cmd.Int(itersKey))
	if iters <= 0 {
		return fmt.Errorf("--%s must be positive", itersKey)
	}
	run := depths
	if d := int(cmd.Int(depthKey)); d > 0 {
		run = []int{d}
	}

	tbl := table.NewWriter()
	tbl.SetTitle("Leaf propagation")
	tbl.SetOutputMirror(output(cmd))
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, depth := range run {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		root, leaf, path := newChain(depth)
		src, err := obx.WhenAnyValue[int](octx, root, path, obx.SkipInitial())
		if err != nil {
			return err
		}
		seen := 0
		d := src.Subscribe(rx.NewObserver(func(int) { seen++ }, nil, nil))

		tach := tachymeter.New(&tachymeter.Config{Size: iters})
		for i := 1; i <= iters; i++ {
			start := time.Now()
			leaf.SetValue(i)
			tach.AddTime(time.Since(start))
		}
		d.Dispose()
		if seen != iters {
			logger.Warn("missed emissions", "depth", depth, "want", iters, "got", seen)
		}

		calc := tach.Calc()
		tbl.AppendRow(table.Row{
			fmt.Sprintf("propagate: depth %d", depth),
			calc.Time.Avg,
			calc.Time.Min,
			calc.Time.P75,
			calc.Time.P99,
			calc.Time.Max,
		})
	}
	tbl.Render()

	return report(cmd, reg)
}

// report prints the engine counters gathered during the run.
func report(cmd *cli.Command, reg *prometheus.Registry) error {
	families, err := reg.Gather()
	if err != nil {
		return err
	}
	tbl := table.NewWriter()
	tbl.SetTitle("Engine counters")
	tbl.SetOutputMirror(output(cmd))
	tbl.AppendHeader(table.Row{"counter", "total"})
	for _, mf := range families {
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		tbl.AppendRow(table.Row{mf.GetName(), humanize.Comma(int64(total))})
	}
	tbl.Render()
	return nil
}
