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

//go:build tools

// Package tools pins the development tools used to lint, test and release
// ctt. Run them with go run from this module, for example
// go run github.com/golangci/golangci-lint/cmd/golangci-lint run ../...
package tools

import (
	_ "github.com/go-task/task/v3/cmd/task"
	_ "github.com/golangci/golangci-lint/cmd/golangci-lint"
	_ "github.com/google/addlicense"
	_ "github.com/goreleaser/goreleaser/v2"
	_ "github.com/oligot/go-mod-upgrade"
	_ "github.com/vektra/mockery/v2"
	_ "gotest.tools/gotestsum"
)
