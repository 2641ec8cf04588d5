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
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&DotenvParser{})
}

// 🔧 DotenvParser reads KEY=value files
type DotenvParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *DotenvParser) CanParse(filename string) bool {
	base := strings.ToLower(filepath.Base(filename))
	return base == ".env" || strings.HasSuffix(base, ".env")
}

// 📝 Parse parses parameters from dotenv syntax
func (p *DotenvParser) Parse(ctx context.Context, data []byte) (map[string]string, error) {
	out, err := godotenv.Unmarshal(string(data))
	if err != nil {
		return nil, errors.Errorf("parsing dotenv: %w", err)
	}
	return out, nil
}
