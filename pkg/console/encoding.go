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

package console

import (
	"io"
	"strings"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrUnknownEncoding is returned by Lookup for names it cannot resolve
var ErrUnknownEncoding = errors.New("unknown encoding")

// UTF8 is the default encoding for files and the console
var UTF8 encoding.Encoding = unicode.UTF8

// Lookup resolves an encoding by name. Besides IANA names it accepts the
// short forms utf8, utf16 (little endian), utf16be and unicode.
func Lookup(name string) (encoding.Encoding, error) {
	short := strings.ToLower(strings.NewReplacer("-", "", "_", "").Replace(strings.TrimSpace(name)))
	switch short {
	case "", "utf8":
		return UTF8, nil
	case "utf16", "utf16le", "unicode":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "utf16be", "bigendianunicode":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil || enc == nil {
		return nil, errors.Errorf("%w: %q", ErrUnknownEncoding, name)
	}
	return enc, nil
}

// Name returns the IANA name of enc, or "unknown".
func Name(enc encoding.Encoding) string {
	if enc == UTF8 {
		return "utf-8"
	}
	name, err := ianaindex.IANA.Name(enc)
	if err != nil {
		return "unknown"
	}
	return strings.ToLower(name)
}

// Decode converts data in enc to a UTF-8 string. A byte order mark, when
// present, overrides enc.
func Decode(enc encoding.Encoding, data []byte) (string, error) {
	out, _, err := transform.Bytes(unicode.BOMOverride(enc.NewDecoder()), data)
	if err != nil {
		return "", errors.Errorf("decoding %s: %w", Name(enc), err)
	}
	return string(out), nil
}

// Encode converts s to enc.
func Encode(enc encoding.Encoding, s string) ([]byte, error) {
	out, err := enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, errors.Errorf("encoding %s: %w", Name(enc), err)
	}
	return out, nil
}

// HasBOM reports whether data starts with a UTF-8 or UTF-16 byte order mark.
func HasBOM(data []byte) bool {
	switch {
	case len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF:
		return true
	case len(data) >= 2 && data[0] == 0xFF && data[1] == 0xFE:
		return true
	case len(data) >= 2 && data[0] == 0xFE && data[1] == 0xFF:
		return true
	}
	return false
}

// CharsetReader hands already decoded input straight back. It lets an XML
// parser accept a declaration naming any charset once the bytes have been
// decoded to UTF-8.
func CharsetReader(label string, input io.Reader) (io.Reader, error) {
	return input, nil
}
