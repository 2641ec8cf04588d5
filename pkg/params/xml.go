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

package params

import (
	"context"
	"strings"

	"github.com/beevik/etree"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&XMLParser{})
}

// 🔧 XMLParser reads the classic parameters document:
//
//	<parameters>
//	  <param name="ServerName" value="disneyland" />
//	  <param name="Greeting">hello</param>
//	</parameters>
type XMLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *XMLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".xml")
}

// 📝 Parse parses parameters from XML
func (p *XMLParser) Parse(ctx context.Context, data []byte) (map[string]string, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, errors.Errorf("parsing XML: %w", err)
	}

	root := doc.Root()
	if root == nil || root.Tag != "parameters" {
		return nil, errors.Errorf("%w: root element must be <parameters>", ErrUnsupportedFormat)
	}

	out := make(map[string]string)
	for i, el := range root.SelectElements("param") {
		name := el.SelectAttrValue("name", "")
		if name == "" {
			return nil, errors.Errorf("param %d: name is required", i)
		}

		value := el.Text()
		if attr := el.SelectAttr("value"); attr != nil {
			value = attr.Value
		}
		out[name] = value
	}

	return out, nil
}
