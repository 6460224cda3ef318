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

package apis

import (
	"fmt"
	"strconv"
	"strings"
)

// IndexerSuffix tags property names of indexer changes ("Items[]").
const IndexerSuffix = "[]"

// Link is one property-access step of a Chain: a named member, or an
// indexer applied to a named member (or to the previous step's value when
// Member is empty).
type Link struct {
	// Member is the exported field, getter method or string map key read
	// from the sender.
	Member string
	// Indexer marks an index/key access applied to the member value.
	Indexer bool
	// Key is the index (int) or key (string, int) of an indexer link.
	Key any
}

// Name returns the property name notification sources tag changes of this
// link with: the member name, or the member name plus IndexerSuffix.
func (l Link) Name() string {
	if l.Indexer {
		return l.Member + IndexerSuffix
	}
	return l.Member
}

// Matches reports whether a change tagged with property affects l.
// Indexer links also match their bare member (the collection was replaced).
func (l Link) Matches(property string) bool {
	if property == l.Name() {
		return true
	}
	return l.Indexer && l.Member != "" && property == l.Member
}

// String returns the canonical source form of the link ("Items[2]").
func (l Link) String() string {
	if !l.Indexer {
		return l.Member
	}
	return l.Member + "[" + FormatKey(l.Key) + "]"
}

// FormatKey renders an indexer key in canonical form: integers in base 10,
// strings double-quoted.
func FormatKey(k any) string {
	switch v := k.(type) {
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case string:
		return strconv.Quote(v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Chain is an ordered sequence of links derived from a property path.
// Chains produced by this module always hold at least one link.
type Chain []Link

// Len returns the number of links.
func (c Chain) Len() int { return len(c) }

// Leaf returns the last link. It panics on an empty chain.
func (c Chain) Leaf() Link { return c[len(c)-1] }

// String returns the canonical path ("Owner.Items[2].Name").
func (c Chain) String() string {
	var sb strings.Builder
	for i, l := range c {
		if i > 0 && !(l.Indexer && l.Member == "") {
			sb.WriteByte('.')
		}
		sb.WriteString(l.String())
	}
	return sb.String()
}
