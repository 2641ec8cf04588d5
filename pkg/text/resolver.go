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

// 📊 Resolution records how a token was replaced
type Resolution int

const (
	ResolvedParameter   Resolution = iota // Replaced by a caller supplied value
	ResolvedDefault                       // Replaced by its inline default
	ResolvedPassthrough                   // Left exactly as written
)

// String returns a string representation of Resolution
func (r Resolution) String() string {
	switch r {
	case ResolvedParameter:
		return "parameter"
	case ResolvedDefault:
		return "default"
	case ResolvedPassthrough:
		return "passthrough"
	default:
		return "unknown"
	}
}

// Resolve picks the replacement for tok. raw is the token exactly as it
// appeared in the template and is returned untouched when neither a
// parameter nor a default applies. Mapped values are used verbatim.
func Resolve(tok Token, raw string, parameters map[string]string) (string, Resolution) {
	if value, ok := parameters[tok.Name]; ok {
		return value, ResolvedParameter
	}
	if tok.HasDefault {
		return tok.Default, ResolvedDefault
	}
	return raw, ResolvedPassthrough
}
