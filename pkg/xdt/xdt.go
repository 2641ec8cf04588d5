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

// Package xdt applies XML Document Transform instructions to a document.
//
// Only a subset is supported:
//
//	xdt:Transform  Replace, Insert, InsertBefore(path), InsertAfter(path),
//	               Remove, RemoveAll, SetAttributes(a,b), RemoveAttributes(a,b)
//	xdt:Locator    Match(a,b), Condition(expr), XPath(path)
//
// Paths and conditions use the etree path syntax, which covers the common
// forms such as /configuration/appSettings/add[@key='x'].
package xdt

import (
	"context"
	"io"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// Namespace is the XML namespace of transform attributes
const Namespace = "http://schemas.microsoft.com/XML-Document-Transform"

// 📢 Logger receives progress messages while a transform runs
type Logger interface {
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// 🔌 Engine applies a transform document to a parsed source document
type Engine interface {
	// Apply mutates doc in place. The bool is false when any instruction
	// failed; the error is set only when the transform cannot be parsed.
	Apply(ctx context.Context, transform string, doc *etree.Document) (bool, error)
}

// 🔧 Transformer is the etree backed Engine
type Transformer struct {
	log Logger
}

var _ Engine = (*Transformer)(nil)

// 🏭 New creates a Transformer reporting to log
func New(log Logger) *Transformer {
	return &Transformer{log: log}
}

// passthroughCharset accepts any declared charset; input is always a Go string.
func passthroughCharset(label string, input io.Reader) (io.Reader, error) {
	return input, nil
}

// Apply implements Engine.Apply
func (t *Transformer) Apply(ctx context.Context, transform string, doc *etree.Document) (bool, error) {
	tdoc := etree.NewDocument()
	tdoc.ReadSettings.CharsetReader = passthroughCharset
	if err := tdoc.ReadFromString(transform); err != nil {
		return false, errors.Errorf("parsing transform document: %w", err)
	}
	if tdoc.Root() == nil {
		return false, errors.New("transform document has no root element")
	}

	r := &run{
		ctx:      ctx,
		log:      t.log,
		doc:      doc,
		prefixes: transformPrefixes(tdoc),
		ok:       true,
	}
	r.walk(&tdoc.Element, []*etree.Element{&doc.Element})

	zerolog.Ctx(ctx).Debug().Bool("ok", r.ok).Int("applied", r.applied).Msg("transform applied")
	return r.ok, nil
}

// transformPrefixes finds every prefix bound to Namespace in tdoc.
func transformPrefixes(tdoc *etree.Document) map[string]bool {
	prefixes := map[string]bool{}
	var visit func(el *etree.Element)
	visit = func(el *etree.Element) {
		for _, a := range el.Attr {
			if a.Space == "xmlns" && a.Value == Namespace {
				prefixes[a.Key] = true
			}
		}
		for _, c := range el.ChildElements() {
			visit(c)
		}
	}
	visit(tdoc.Root())
	return prefixes
}

// 🏃 run holds the state of one Apply call
type run struct {
	ctx      context.Context
	log      Logger
	doc      *etree.Document
	prefixes map[string]bool
	ok       bool
	applied  int
}

func (r *run) fail(format string, args ...interface{}) {
	r.ok = false
	r.log.Errorf(format, args...)
}

// xdtAttr returns the value of the transform attribute key on el.
func (r *run) xdtAttr(el *etree.Element, key string) string {
	for _, a := range el.Attr {
		if a.Key == key && r.prefixes[a.Space] {
			return a.Value
		}
	}
	return ""
}

// walk matches each child of te under every element in parents, applies its
// transform, and descends into the matches when the transform keeps them.
func (r *run) walk(te *etree.Element, parents []*etree.Element) {
	for _, tc := range te.ChildElements() {
		tr, err := parseInstruction(r.xdtAttr(tc, "Transform"))
		if err != nil {
			r.fail("%s: %v", tc.GetPath(), err)
			continue
		}

		if tr.name == "InsertBefore" || tr.name == "InsertAfter" {
			r.insertRelative(tc, tr)
			continue
		}

		scopes := parents
		if len(parents) > 1 && tr.name != "Insert" && r.documentWide(tc) {
			scopes = parents[:1]
		}

		var matched []*etree.Element
		for _, p := range scopes {
			cands, err := r.locate(tc, p)
			if err != nil {
				r.fail("%s: %v", tc.GetPath(), err)
				continue
			}

			if tr.name == "" {
				matched = append(matched, cands...)
				continue
			}

			if tr.name == "Insert" {
				r.insert(tc, p)
				continue
			}

			if len(cands) == 0 {
				r.log.Warningf("No element in the source document matches '%s'", tc.GetPath())
				continue
			}

			if r.transform(tc, tr, cands) {
				matched = append(matched, cands...)
			}
		}

		if len(matched) > 0 && len(tc.ChildElements()) > 0 {
			r.walk(tc, matched)
		}
	}
}

// documentWide reports whether tc is located by an XPath, whose matches do
// not depend on the parent being searched.
func (r *run) documentWide(tc *etree.Element) bool {
	return parse(r.xdtAttr(tc, "Locator")).name == "XPath"
}
