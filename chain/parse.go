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

package chain

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"dirpx.dev/obx/apis"
	uref "dirpx.dev/obx/utils/reflect"
)

// ErrUnsupportedElement is returned for expressions holding anything but
// member and indexer accesses.
var ErrUnsupportedElement = errors.New("obx(chain): unsupported path element")

// Parse turns a property path into a Chain.
//
// Accepted forms:
//
//	Owner.Address.City
//	Items[2].Name
//	Tags["k"]  Tags['k']  Tags[`k`]
//	Grid[1][2]
//	$.Owner   .Owner   (root receiver, dropped)
//
// Whitespace outside key literals is ignored. The chain always holds at
// least one link. A lowercase receiver such as "vm.Owner" is kept as a
// member here; see ParseRooted.
func Parse(expr string) (apis.Chain, error) {
	p := parser{src: expr}
	return p.parse()
}

// ParseRooted is like Parse but also drops a lowercase receiver
// ("vm.Owner") when root has no string keys to collide with it. For a
// nil root, or one normalizing to an interface or a string-keyed map,
// "settings.theme" stays a two-link chain.
func ParseRooted(root reflect.Type, expr string, cfg apis.Config) (apis.Chain, error) {
	p := parser{src: expr, receiver: receiverAllowed(root, cfg)}
	return p.parse()
}

func receiverAllowed(root reflect.Type, cfg apis.Config) bool {
	if root == nil {
		return false
	}
	nt, err := uref.Normalize(root, cfg)
	if err != nil {
		return false
	}
	switch nt.Kind() {
	case reflect.Interface:
		return false
	case reflect.Map:
		return nt.Key().Kind() != reflect.String
	}
	return true
}

// Canonical returns the normalized form of expr, shared by every
// structurally equivalent spelling of the same path.
func Canonical(expr string) (string, error) {
	c, err := Parse(expr)
	if err != nil {
		return "", err
	}
	return c.String(), nil
}

// MustParse is like Parse but panics on error.
func MustParse(expr string) apis.Chain {
	c, err := Parse(expr)
	if err != nil {
		panic(err)
	}
	return c
}

type parser struct {
	src      string
	pos      int
	receiver bool
}

func (p *parser) fail(reason string) error {
	return fmt.Errorf("%w: %q at offset %d: %s", ErrUnsupportedElement, p.src, p.pos, reason)
}

func (p *parser) skipSpace() {
	for p.pos < len(p.src) {
		r, n := utf8.DecodeRuneInString(p.src[p.pos:])
		if !unicode.IsSpace(r) {
			return
		}
		p.pos += n
	}
}

func (p *parser) peek() byte {
	p.skipSpace()
	if p.pos >= len(p.src) {
		return 0
	}
	return p.src[p.pos]
}

func (p *parser) parse() (apis.Chain, error) {
	if strings.TrimSpace(p.src) == "" {
		return nil, p.fail("empty expression")
	}
	p.skipRoot()

	var out apis.Chain
	expectMember := true
	for {
		switch c := p.peek(); {
		case c == 0:
			if expectMember && len(out) > 0 {
				return nil, p.fail("trailing dot")
			}
			if len(out) == 0 {
				return nil, p.fail("no member access")
			}
			return out, nil
		case c == '[':
			key, err := p.key()
			if err != nil {
				return nil, err
			}
			if !expectMember && len(out) > 0 && !out[len(out)-1].Indexer {
				out[len(out)-1].Indexer = true
				out[len(out)-1].Key = key
			} else if expectMember && len(out) > 0 {
				return nil, p.fail("indexer after dot")
			} else {
				out = append(out, apis.Link{Indexer: true, Key: key})
			}
			expectMember = false
		case c == '.':
			if expectMember {
				return nil, p.fail("empty segment")
			}
			p.pos++
			expectMember = true
		case isIdentStart(c):
			if !expectMember {
				return nil, p.fail("missing dot")
			}
			out = append(out, apis.Link{Member: p.ident()})
			expectMember = false
		case c == '(':
			return nil, p.fail("method call")
		default:
			return nil, p.fail(fmt.Sprintf("unexpected %q", c))
		}
	}
}

// skipRoot drops a leading root receiver: "$", "$.", ".", or, when
// p.receiver is set, a lowercase identifier followed by a dot.
func (p *parser) skipRoot() {
	switch c := p.peek(); {
	case c == '$':
		p.pos++
		if p.peek() == '.' {
			p.pos++
		}
	case c == '.':
		p.pos++
	case p.receiver && (c >= 'a' && c <= 'z' || c == '_'):
		save := p.pos
		p.ident()
		if p.peek() == '.' {
			p.pos++
			return
		}
		p.pos = save
	}
}

func isIdentStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= utf8.RuneSelf
}

func (p *parser) ident() string {
	start := p.pos
	for p.pos < len(p.src) {
		r, n := utf8.DecodeRuneInString(p.src[p.pos:])
		if r != '_' && !unicode.IsLetter(r) && !(p.pos > start && unicode.IsDigit(r)) {
			break
		}
		p.pos += n
	}
	return p.src[start:p.pos]
}

// key parses "[<int>]" or "[<quoted string>]".
func (p *parser) key() (any, error) {
	p.pos++ // [
	var key any
	switch c := p.peek(); {
	case c == '"':
		end := p.pos + 1
		for end < len(p.src) && p.src[end] != '"' {
			if p.src[end] == '\\' {
				end++
			}
			end++
		}
		if end >= len(p.src) {
			return nil, p.fail("unterminated string key")
		}
		s, err := strconv.Unquote(p.src[p.pos : end+1])
		if err != nil {
			return nil, p.fail("bad string key")
		}
		key, p.pos = s, end+1
	case c == '\'' || c == '`':
		end := strings.IndexByte(p.src[p.pos+1:], c)
		if end < 0 {
			return nil, p.fail("unterminated string key")
		}
		key = p.src[p.pos+1 : p.pos+1+end]
		p.pos += end + 2
	case c == '-' || c >= '0' && c <= '9':
		start := p.pos
		p.pos++
		for p.pos < len(p.src) && p.src[p.pos] >= '0' && p.src[p.pos] <= '9' {
			p.pos++
		}
		n, err := strconv.Atoi(p.src[start:p.pos])
		if err != nil {
			return nil, p.fail("bad integer key")
		}
		key = n
	case c == ']':
		return nil, p.fail("empty indexer")
	default:
		return nil, p.fail("indexer key must be a literal")
	}
	if p.peek() != ']' {
		return nil, p.fail("unbalanced bracket")
	}
	p.pos++
	return key, nil
}
