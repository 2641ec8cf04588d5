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
	"strings"

	"gitlab.com/tozd/go/errors"
)

// ErrUnknownInstruction is returned for a Transform or Locator name this
// package does not implement
var ErrUnknownInstruction = errors.New("unknown instruction")

var transforms = map[string]bool{
	"Replace":          true,
	"Insert":           true,
	"InsertBefore":     true,
	"InsertAfter":      true,
	"Remove":           true,
	"RemoveAll":        true,
	"SetAttributes":    true,
	"RemoveAttributes": true,
}

var locators = map[string]bool{
	"Match":     true,
	"Condition": true,
	"XPath":     true,
}

// 📝 instruction is a parsed Name(arguments) attribute value
type instruction struct {
	name string
	arg  string   // raw text between the parentheses
	args []string // arg split on commas and trimmed
}

func parse(value string) instruction {
	value = strings.TrimSpace(value)
	open := strings.IndexByte(value, '(')
	if open < 0 || !strings.HasSuffix(value, ")") {
		return instruction{name: value}
	}

	in := instruction{
		name: strings.TrimSpace(value[:open]),
		arg:  strings.TrimSpace(value[open+1 : len(value)-1]),
	}
	if in.arg != "" {
		for _, a := range strings.Split(in.arg, ",") {
			if a = strings.TrimSpace(a); a != "" {
				in.args = append(in.args, a)
			}
		}
	}
	return in
}

// parseInstruction parses an xdt:Transform value. An empty value means the
// element only navigates.
func parseInstruction(value string) (instruction, error) {
	in := parse(value)
	if in.name == "" {
		return in, nil
	}
	if !transforms[in.name] {
		return in, errors.Errorf("%w: Transform %q", ErrUnknownInstruction, in.name)
	}
	if (in.name == "InsertBefore" || in.name == "InsertAfter") && in.arg == "" {
		return in, errors.Errorf("%s requires a path argument", in.name)
	}
	return in, nil
}

func parseLocator(value string) (instruction, error) {
	in := parse(value)
	if !locators[in.name] {
		return in, errors.Errorf("%w: Locator %q", ErrUnknownInstruction, in.name)
	}
	if in.arg == "" {
		return in, errors.Errorf("%s requires an argument", in.name)
	}
	return in, nil
}
