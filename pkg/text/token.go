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

// 🏷️ Token is a parsed placeholder such as {Name} or {Name:Default}
type Token struct {
	Name       string // Text before the first colon, escapes resolved
	Default    string // Text after the first colon, escapes resolved
	HasDefault bool   // Whether the placeholder carried a colon at all
}

// ParseToken splits raw placeholder content (the text between the braces,
// escapes not yet resolved) into a Token. Only the first colon separates the
// name from the default; later colons stay in the default. The name is not
// trimmed.
func ParseToken(content string) Token {
	idx := strings.IndexByte(content, nameSep)
	if idx < 0 {
		return Token{Name: unescape(content)}
	}

	return Token{
		Name:       unescape(content[:idx]),
		Default:    unescape(content[idx+1:]),
		HasDefault: true,
	}
}
