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
	"dirpx.dev/obx/notify"
)

// Invoice is the demo root. It notifies before and after changes.
type Invoice struct {
	notify.Source
	customer *Customer
	lines    []string
	memo     *Memo
}

func (i *Invoice) Customer() *Customer { return i.customer }
func (i *Invoice) Lines() []string     { return i.lines }
func (i *Invoice) Memo() *Memo         { return i.memo }

func (i *Invoice) SetCustomer(v *Customer) {
	notify.Set(&i.Source, i, &i.customer, v, "Customer")
}

func (i *Invoice) SetMemo(v *Memo) {
	notify.Set(&i.Source, i, &i.memo, v, "Memo")
}

func (i *Invoice) SetLine(n int, v string) {
	notify.SetIndex(&i.Source, i, i.lines, n, v, "Lines")
}

// AddLine replaces the line list, which raises the bare member name.
func (i *Invoice) AddLine(v string) {
	i.RaiseChanging(i, "Lines")
	i.lines = append(i.lines, v)
	i.RaiseChanged(i, "Lines")
}

// Customer notifies before and after changes.
type Customer struct {
	notify.Source
	name    string
	address *Address
}

func (c *Customer) Name() string      { return c.name }
func (c *Customer) Address() *Address { return c.address }

func (c *Customer) SetName(v string) {
	notify.Set(&c.Source, c, &c.name, v, "Name")
}

func (c *Customer) SetAddress(v *Address) {
	notify.Set(&c.Source, c, &c.address, v, "Address")
}

// Address notifies after changes only.
type Address struct {
	notify.ChangedSource
	city string
}

func (a *Address) City() string { return a.city }

func (a *Address) SetCity(v string) {
	notify.Set(&a.ChangedSource, a, &a.city, v, "City")
}

// Memo has no notification capability.
type Memo struct {
	Text string
}

func newInvoice() *Invoice {
	return &Invoice{
		customer: &Customer{name: "Ada", address: &Address{city: "London"}},
		lines:    []string{"tea"},
		memo:     &Memo{Text: "net 30"},
	}
}

// step is one scripted mutation of the demo graph.
type step struct {
	name   string
	mutate func(*Invoice)
}

// script mutates every level of the demo graph, including breaking and
// healing the customer link.
func script() []step {
	return []step{
		{"rename customer", func(i *Invoice) { i.Customer().SetName("Grace") }},
		{"move customer", func(i *Invoice) { i.Customer().Address().SetCity("Paris") }},
		{"replace address", func(i *Invoice) { i.Customer().SetAddress(&Address{city: "Rome"}) }},
		{"add line", func(i *Invoice) { i.AddLine("scones") }},
		{"edit line", func(i *Invoice) { i.SetLine(1, "jam") }},
		{"edit memo in place", func(i *Invoice) { i.Memo().Text = "net 60" }},
		{"replace memo", func(i *Invoice) { i.SetMemo(&Memo{Text: "due on receipt"}) }},
		{"drop customer", func(i *Invoice) { i.SetCustomer(nil) }},
		{"restore customer", func(i *Invoice) {
			i.SetCustomer(&Customer{name: "Linus", address: &Address{city: "Helsinki"}})
		}},
	}
}

// node is one level of a benchmark chain.
type node struct {
	notify.Source
	next  *node
	value int
}

func (n *node) Next() *node { return n.next }
func (n *node) Value() int  { return n.value }

func (n *node) SetValue(v int) {
	notify.Set(&n.Source, n, &n.value, v, "Value")
}

// newChain links depth nodes and returns the root, the leaf and the path
// from the root to the leaf value.
func newChain(depth int) (*node, *node, string) {
	root := &node{}
	leaf := root
	path := ""
	for i := 1; i < depth; i++ {
		leaf.next = &node{}
		leaf = leaf.next
		path += "Next."
	}
	return root, leaf, path + "Value"
}
