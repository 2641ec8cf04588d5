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

package text

import "strings"

// 🔄 Substitution describes one replaced token
type Substitution struct {
	Name       string
	Resolution Resolution
}

// ApplyParameters replaces every {Name} and {Name:Default} placeholder in
// template. A name found in parameters wins, then the inline default, and a
// placeholder with neither is kept exactly as written. \{ and \} produce
// literal braces. Substituted values are never scanned again.
//
// A nil map behaves like an empty one and is never modified.
func ApplyParameters(template string, parameters map[string]string) string {
	out, _ := apply(template, parameters)
	return out
}

// apply is ApplyParameters with a record of every token it met, in order.
func apply(template string, parameters map[string]string) (string, []Substitution) {
	var (
		out  strings.Builder
		subs []Substitution
	)
	out.Grow(len(template))

	sc := newScanner(template)
	for {
		sp, ok := sc.next()
		if !ok {
			break
		}

		if sp.kind == spanLiteral {
			out.WriteString(sp.text)
			continue
		}

		tok := ParseToken(sp.text)
		value, how := Resolve(tok, sp.raw, parameters)
		out.WriteString(value)
		subs = append(subs, Substitution{Name: tok.Name, Resolution: how})
	}

	return out.String(), subs
}
