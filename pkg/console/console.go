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
	"os"
	"sync"

	"gitlab.com/tozd/go/errors"
	"golang.org/x/text/encoding"
)

// 🖥️ Console is a process wide pair of input and output streams with a
// switchable encoding
type Console struct {
	mu  sync.Mutex
	in  io.Reader
	out io.Writer
	enc encoding.Encoding
}

// Std is the console backed by os.Stdin and os.Stdout
var Std = New(os.Stdin, os.Stdout)

// 🏭 New creates a console over in and out using UTF-8
func New(in io.Reader, out io.Writer) *Console {
	return &Console{in: in, out: out, enc: UTF8}
}

// Encoding returns the active encoding.
func (c *Console) Encoding() encoding.Encoding {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enc
}

// 🔒 Scope restores the encoding a console had before Use
type Scope struct {
	c    *Console
	prev encoding.Encoding
	once sync.Once
}

// Use installs enc and returns the Scope that undoes it. Callers defer
// Release right away so every exit path restores the previous encoding.
func (c *Console) Use(enc encoding.Encoding) *Scope {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := &Scope{c: c, prev: c.enc}
	c.enc = enc
	return s
}

// Release restores the previous encoding. Calling it more than once is a no-op.
func (s *Scope) Release() {
	s.once.Do(func() {
		s.c.mu.Lock()
		defer s.c.mu.Unlock()
		s.c.enc = s.prev
	})
}

// ReadAll reads the whole input and decodes it with the active encoding.
func (c *Console) ReadAll() (string, error) {
	data, err := io.ReadAll(c.in)
	if err != nil {
		return "", errors.Errorf("reading console input: %w", err)
	}
	return Decode(c.Encoding(), data)
}

// WriteString encodes s with the active encoding and writes it out.
func (c *Console) WriteString(s string) error {
	data, err := Encode(c.Encoding(), s)
	if err != nil {
		return err
	}
	if _, err := c.out.Write(data); err != nil {
		return errors.Errorf("writing console output: %w", err)
	}
	return nil
}
