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

package transform

import (
	"strings"

	"github.com/beevik/etree"
	"gitlab.com/tozd/go/errors"
)

var preservedBreaks = strings.NewReplacer("&#xD;", "\r", "&#xA;", "\n")

// serialize renders doc, indenting it when requested. The XML declaration
// is the one the source carried, if any.
func (t *task) serialize(doc *etree.Document) (string, error) {
	if t.Indent {
		indent(doc, t.indentChars)
	}

	out, err := doc.WriteToString()
	if err != nil {
		return "", errors.Errorf("serializing document: %w", err)
	}

	if t.Indent {
		out = strings.TrimSpace(out)
	}

	if t.PreserveWhitespace {
		out = preservedBreaks.Replace(out)
	}

	return out, nil
}

// indent lays doc out one element per line. Pure space indentation is
// handled by etree directly; anything else is indented with tabs first and
// the indentation tokens are rewritten by retab.
func indent(doc *etree.Document, chars string) {
	if strings.Trim(chars, " ") == "" {
		doc.Indent(len(chars))
		return
	}
	doc.IndentTabs()
	if chars != "\t" {
		retab(&doc.Element, chars)
	}
}

// retab swaps every newline plus tabs token etree inserted for the same
// depth of chars. Text and CDATA content is left alone.
func retab(el *etree.Element, chars string) {
	for i, tok := range el.Child {
		switch v := tok.(type) {
		case *etree.CharData:
			if v.IsCData() {
				continue
			}
			if depth, ok := indentDepth(v.Data); ok {
				el.RemoveChildAt(i)
				el.InsertChildAt(i, etree.NewText("\n"+strings.Repeat(chars, depth)))
			}
		case *etree.Element:
			retab(v, chars)
		}
	}
}

// indentDepth returns n when s is a newline followed by n tabs.
func indentDepth(s string) (int, bool) {
	rest, ok := strings.CutPrefix(s, "\n")
	if !ok || strings.Trim(rest, "\t") != "" {
		return 0, false
	}
	return len(rest), true
}
