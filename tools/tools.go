//go:build tools

package tools

// Tool dependencies: oapi-codegen renders api/openapi.yaml into client
// types, goose runs the embedded migrations out of band.
// Run `go mod tidy` after adding/removing tools here.

import (
	_ "github.com/oapi-codegen/oapi-codegen/v2/cmd/oapi-codegen"
	_ "github.com/pressly/goose/v3/cmd/goose"
)
