package http

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/getkin/kin-openapi/openapi3"
)

//go:embed openapi.yaml
var specYAML []byte

var (
	swaggerOnce sync.Once
	swagger     *openapi3.T
	swaggerErr  error
)

// rawSpec returns the embedded OpenAPI document as served at /openapi.yaml.
func rawSpec() ([]byte, error) {
	if len(specYAML) == 0 {
		return nil, fmt.Errorf("openapi document is empty")
	}
	return specYAML, nil
}

// GetSwagger returns the parsed and validated OpenAPI document.
func GetSwagger() (*openapi3.T, error) {
	swaggerOnce.Do(func() {
		loader := openapi3.NewLoader()
		swagger, swaggerErr = loader.LoadFromData(specYAML)
		if swaggerErr != nil {
			swaggerErr = fmt.Errorf("error loading openapi document: %w", swaggerErr)
			return
		}
		if err := swagger.Validate(context.Background()); err != nil {
			swaggerErr = fmt.Errorf("invalid openapi document: %w", err)
		}
	})
	return swagger, swaggerErr
}

// validateBody checks a JSON request body against a component schema of the document.
func validateBody(schema string, body []byte) error {
	doc, err := GetSwagger()
	if err != nil {
		return err
	}
	ref, ok := doc.Components.Schemas[schema]
	if !ok || ref.Value == nil {
		return fmt.Errorf("unknown schema %q", schema)
	}

	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return ref.Value.VisitJSON(v)
}
