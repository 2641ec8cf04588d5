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

package config

import (
	"context"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
)

func init() {
	Register(&HCLParser{})
}

// 🔧 HCLParser implements the Parser interface for HCL files
//
//	defaults {
//	  indent = true
//	}
//
//	transformation {
//	  source      = "web.config"
//	  transform   = "web.release.config"
//	  destination = "out/web.config"
//	  parameters  = { Env = "prod" }
//	}
type HCLParser struct{}

// 🔍 CanParse checks if this parser can handle the given file
func (p *HCLParser) CanParse(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".hcl")
}

type hclSettings struct {
	Encoding               string            `hcl:"encoding,optional"`
	Indent                 *bool             `hcl:"indent,optional"`
	IndentChars            string            `hcl:"indent_chars,optional"`
	PreserveWhitespace     *bool             `hcl:"preserve_whitespace,optional"`
	IgnoreMissingTransform *bool             `hcl:"ignore_missing_transform,optional"`
	ForceParameters        *bool             `hcl:"force_parameters,optional"`
	Parameters             map[string]string `hcl:"parameters,optional"`
	ParametersFile         string            `hcl:"parameters_file,optional"`
}

func (s hclSettings) model() Settings {
	return Settings(s)
}

type hclTransformation struct {
	Source      string   `hcl:"source"`
	Transform   string   `hcl:"transform,optional"`
	Destination string   `hcl:"destination"`
	Ignore      []string `hcl:"ignore,optional"`
	Remain      hcl.Body `hcl:",remain"`
}

type hclConfig struct {
	Defaults        *hclSettings        `hcl:"defaults,block"`
	Transformations []hclTransformation `hcl:"transformation,block"`
}

// 📝 Parse parses the config from HCL
func (p *HCLParser) Parse(ctx context.Context, data []byte) (*Config, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, "ctt.hcl")
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{},
	}

	var raw hclConfig
	diags = gohcl.DecodeBody(hclFile.Body, evalCtx, &raw)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}

	cfg := &Config{}
	if raw.Defaults != nil {
		cfg.Defaults = raw.Defaults.model()
	}

	for _, t := range raw.Transformations {
		var s hclSettings
		if diags := gohcl.DecodeBody(t.Remain, evalCtx, &s); diags.HasErrors() {
			return nil, errors.Errorf("decoding transformation %q: %s", t.Source, diags.Error())
		}
		cfg.Transformations = append(cfg.Transformations, Transformation{
			Source:      t.Source,
			Transform:   t.Transform,
			Destination: t.Destination,
			Ignore:      t.Ignore,
			Settings:    s.model(),
		})
	}

	return cfg, nil
}
