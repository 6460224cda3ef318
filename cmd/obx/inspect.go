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
	"reflect"
	"strconv"

	"github.com/dustin/go-humanize"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

// probes are the (type, property) pairs inspect resolves.
var probes = []struct {
	t        reflect.Type
	property string
}{
	{reflect.TypeOf(&Invoice{}), "Customer"},
	{reflect.TypeOf(&Invoice{}), "Lines[]"},
	{reflect.TypeOf(&Customer{}), "Address"},
	{reflect.TypeOf(&Address{}), "City"},
	{reflect.TypeOf(&Memo{}), "Text"},
}

// paths are analyzed twice to show the analyzer cache at work.
var paths = []string{
	"Customer.Address.City",
	"inv.Customer.Address.City",
	"Customer . Name",
	"Lines[0]",
	"Memo.Text",
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:   "inspect",
		Usage:  "report strategy resolution and analyzer caching for the demo types",
		Action: inspect,
	}
}

func inspect(_ context.Context, cmd *cli.Command) error {
	octx, _, err := newContext(cmd)
	if err != nil {
		return err
	}
	w := output(cmd)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"type", "property", "direction", "strategy", "affinity"})
	for _, p := range probes {
		for _, before := range []bool{false, true} {
			s, err := octx.Resolve(p.t, p.property, before)
			if err != nil {
				table.Append([]string{p.t.String(), p.property, direction(before), "error: " + err.Error(), "-"})
				continue
			}
			table.Append([]string{
				p.t.String(),
				p.property,
				direction(before),
				s.Name(),
				strconv.Itoa(s.Affinity(p.t, p.property, before)),
			})
		}
	}
	table.Render()

	root := newInvoice()
	for i := 0; i < 2; i++ {
		for _, expr := range paths {
			if _, err := octx.Analyze(root, expr); err != nil {
				return err
			}
		}
	}
	st := octx.Analyzer().Stats()

	cache := tablewriter.NewWriter(w)
	cache.SetHeader([]string{"cache", "policy", "entries", "hits", "misses", "evictions"})
	cache.Append([]string{
		"expressions",
		octx.Config().CachePolicy.String(),
		humanize.Comma(int64(octx.Analyzer().Len())),
		humanize.Comma(int64(st.Hits)),
		humanize.Comma(int64(st.Misses)),
		humanize.Comma(int64(st.Evictions)),
	})
	cache.Render()

	fmt.Fprintf(w, "%d strategies registered, small cache limit %s, big cache limit %s\n",
		octx.Registry().Count(),
		humanize.Comma(int64(octx.Config().SmallCacheLimit)),
		humanize.Comma(int64(octx.Config().BigCacheLimit)),
	)
	return nil
}
