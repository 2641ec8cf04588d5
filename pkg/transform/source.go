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
	"os"
	"regexp"
	"strings"

	"github.com/beevik/etree"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"

	"github.com/walteh/ctt/pkg/console"
)

var declEncoding = regexp.MustCompile(`encoding\s*=\s*["']([^"']+)["']`)

// 📄 source is a parsed source document and the encoding its output uses
type source struct {
	doc      *etree.Document
	encoding encoding.Encoding
}

// readSourceBytes returns the raw source from the file or the console.
func (t *task) readSourceBytes() ([]byte, error) {
	if t.fromStdin {
		scope := t.Console.Use(t.Encoding)
		defer scope.Release()
		s, err := t.Console.ReadAll()
		if err != nil {
			return nil, err
		}
		return []byte(s), nil
	}

	data, err := os.ReadFile(t.SourcePath)
	if err != nil {
		return nil, errors.Errorf("reading source file: %w", err)
	}
	return data, nil
}

// readSourceText returns the source decoded with the default encoding.
func (t *task) readSourceText() (string, error) {
	data, err := t.readSourceBytes()
	if err != nil {
		return "", err
	}
	if t.fromStdin {
		return string(data), nil
	}
	return console.Decode(t.Encoding, data)
}

// loadSource parses the source. When the XML declaration names an encoding,
// that encoding is used for the output and the transform file, and the
// source is decoded with it unless a byte order mark says otherwise.
func (t *task) loadSource() (*source, error) {
	data, err := t.readSourceBytes()
	if err != nil {
		return nil, err
	}

	enc := t.Encoding
	if !t.fromStdin {
		enc = detect(data, t.Encoding)
	}

	doc, err := t.parse(data, enc)
	if err != nil {
		return nil, err
	}

	label := declaredEncoding(doc)
	if label == "" {
		return &source{doc: doc, encoding: t.Encoding}, nil
	}

	declared, err := console.Lookup(label)
	if err != nil {
		return nil, errors.Errorf("source declaration: %w", err)
	}

	if !t.fromStdin && !console.HasBOM(data) && !isWide(declared) && !sameEncoding(label, enc) {
		if doc, err = t.parse(data, declared); err != nil {
			return nil, err
		}
	}

	return &source{doc: doc, encoding: declared}, nil
}

func (t *task) parse(data []byte, enc encoding.Encoding) (*etree.Document, error) {
	content := string(data)
	if !t.fromStdin {
		var err error
		if content, err = console.Decode(enc, data); err != nil {
			return nil, err
		}
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = console.CharsetReader
	doc.ReadSettings.PreserveCData = true
	if err := doc.ReadFromString(content); err != nil {
		return nil, errors.Errorf("parsing source document: %w", err)
	}
	if doc.Root() == nil {
		return nil, errors.New("source document has no root element")
	}
	if !t.PreserveWhitespace {
		stripWhitespace(&doc.Element)
	}
	return doc, nil
}

// detect picks the encoding to decode data with. A byte order mark is
// honoured by console.Decode itself. Without one, UTF-16 is recognised from
// the leading '<', and a UTF-16 default is not trusted for 8 bit text.
func detect(data []byte, enc encoding.Encoding) encoding.Encoding {
	if console.HasBOM(data) || len(data) < 2 {
		return enc
	}
	switch {
	case data[0] == '<' && data[1] == 0:
		return unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	case data[0] == 0 && data[1] == '<':
		return unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM)
	case isWide(enc):
		return console.UTF8
	}
	return enc
}

// isWide reports whether enc spends two bytes on ASCII, as UTF-16 does.
func isWide(enc encoding.Encoding) bool {
	b, err := enc.NewEncoder().Bytes([]byte("<"))
	return err == nil && len(b) >= 2
}

// declaredEncoding returns the encoding named by the XML declaration.
func declaredEncoding(doc *etree.Document) string {
	for _, tok := range doc.Child {
		switch v := tok.(type) {
		case *etree.ProcInst:
			if v.Target != "xml" {
				continue
			}
			if m := declEncoding.FindStringSubmatch(v.Inst); m != nil {
				return strings.TrimSpace(m[1])
			}
			return ""
		case *etree.Element:
			return ""
		}
	}
	return ""
}

func normalizeLabel(label string) string {
	return strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(label))
}

func sameEncoding(label string, enc encoding.Encoding) bool {
	return normalizeLabel(label) == normalizeLabel(console.Name(enc))
}

// stripWhitespace drops whitespace only text between elements.
func stripWhitespace(el *etree.Element) {
	for i := len(el.Child) - 1; i >= 0; i-- {
		switch tok := el.Child[i].(type) {
		case *etree.CharData:
			if !tok.IsCData() && strings.TrimSpace(tok.Data) == "" {
				el.RemoveChildAt(i)
			}
		case *etree.Element:
			stripWhitespace(tok)
		}
	}
}
