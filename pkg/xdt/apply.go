// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package xdt

import (
	"github.com/beevik/etree"
	"gitlab.com/tozd/go/errors"
)

// locate returns the children of p that tc addresses, honouring its Locator.
func (r *run) locate(tc, p *etree.Element) ([]*etree.Element, error) {
	raw := r.xdtAttr(tc, "Locator")
	if raw == "" {
		return sameName(tc, p), nil
	}

	loc, err := parseLocator(raw)
	if err != nil {
		return nil, err
	}

	switch loc.name {
	case "Match":
		var out []*etree.Element
		for _, c := range sameName(tc, p) {
			matches := true
			for _, key := range loc.args {
				want := tc.SelectAttr(key)
				if want == nil {
					return nil, errors.Errorf("Match(%s): attribute %q missing on transform element", loc.arg, key)
				}
				got := c.SelectAttr(key)
				if got == nil || got.Value != want.Value {
					matches = false
					break
				}
			}
			if matches {
				out = append(out, c)
			}
		}
		return out, nil
	case "Condition":
		path, err := etree.CompilePath("./" + tc.FullTag() + "[" + loc.arg + "]")
		if err != nil {
			return nil, errors.Errorf("Condition(%s): %w", loc.arg, err)
		}
		return p.FindElementsPath(path), nil
	default:
		path, err := etree.CompilePath(loc.arg)
		if err != nil {
			return nil, errors.Errorf("XPath(%s): %w", loc.arg, err)
		}
		return r.doc.FindElementsPath(path), nil
	}
}

func sameName(tc, p *etree.Element) []*etree.Element {
	var out []*etree.Element
	for _, c := range p.ChildElements() {
		if c.Tag == tc.Tag && c.Space == tc.Space {
			out = append(out, c)
		}
	}
	return out
}

// clean copies tc without any transform attributes or namespace declarations.
func (r *run) clean(tc *etree.Element) *etree.Element {
	cp := tc.Copy()
	r.strip(cp)
	return cp
}

func (r *run) strip(el *etree.Element) {
	kept := make([]etree.Attr, 0, len(el.Attr))
	for _, a := range el.Attr {
		if r.prefixes[a.Space] || (a.Space == "xmlns" && r.prefixes[a.Key]) {
			continue
		}
		kept = append(kept, a)
	}
	el.Attr = kept
	for _, c := range el.ChildElements() {
		r.strip(c)
	}
}

func (r *run) applying(name string, tc *etree.Element) {
	r.applied++
	r.log.Infof("Applying %s to %s", name, tc.GetPath())
}

func (r *run) insert(tc, p *etree.Element) {
	r.applying("Insert", tc)
	p.AddChild(r.clean(tc))
}

// insertRelative places a copy of tc next to every element the path argument
// selects.
func (r *run) insertRelative(tc *etree.Element, in instruction) {
	path, err := etree.CompilePath(in.arg)
	if err != nil {
		r.fail("%s(%s): %v", in.name, in.arg, err)
		return
	}

	targets := r.doc.FindElementsPath(path)
	if len(targets) == 0 {
		r.log.Warningf("No element in the source document matches '%s'", in.arg)
		return
	}

	r.applying(in.name, tc)
	for _, target := range targets {
		parent := target.Parent()
		idx := target.Index()
		if in.name == "InsertAfter" {
			idx++
		}
		parent.InsertChildAt(idx, r.clean(tc))
	}
}

// transform applies in to the located candidates and reports whether they
// are still in the document for nested instructions.
func (r *run) transform(tc *etree.Element, in instruction, cands []*etree.Element) bool {
	cands = attached(cands)
	if len(cands) == 0 {
		r.log.Warningf("No element in the source document matches '%s'", tc.GetPath())
		return false
	}

	r.applying(in.name, tc)

	switch in.name {
	case "Replace":
		target := cands[0]
		parent := target.Parent()
		parent.InsertChildAt(target.Index(), r.clean(tc))
		parent.RemoveChild(target)
		return false
	case "Remove":
		cands[0].Parent().RemoveChild(cands[0])
		return false
	case "RemoveAll":
		for _, c := range cands {
			c.Parent().RemoveChild(c)
		}
		return false
	case "SetAttributes":
		src := r.clean(tc)
		for _, c := range cands {
			for _, a := range src.Attr {
				if len(in.args) == 0 || contains(in.args, a.FullKey()) {
					c.CreateAttr(a.FullKey(), a.Value)
				}
			}
		}
		return true
	case "RemoveAttributes":
		for _, c := range cands {
			for _, key := range in.args {
				c.RemoveAttr(key)
			}
		}
		return true
	}
	return true
}

// attached drops elements an earlier instruction removed from the document.
func attached(els []*etree.Element) []*etree.Element {
	out := els[:0:0]
	for _, el := range els {
		if el.Parent() != nil {
			out = append(out, el)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
