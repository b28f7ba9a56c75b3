// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	stderrors "referwell-matching/internal/common/errors"
)

// LoadRegistry reads and validates an algorithm registry file.
func LoadRegistry(path string) (*AlgorithmRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseRegistry(data)
}

// ParseRegistry validates raw registry JSON against the registry schema
// before decoding it.
func ParseRegistry(data []byte) (*AlgorithmRegistry, error) {
	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, stderrors.NewRegistryInvalidError(fmt.Sprintf("invalid JSON: %v", err))
	}

	schemaLoader := gojsonschema.NewGoLoader(registrySchema)
	documentLoader := gojsonschema.NewGoLoader(doc)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return nil, stderrors.NewRegistryInvalidError(fmt.Sprintf("validation error: %v", err))
	}
	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return nil, stderrors.NewRegistryInvalidError(strings.Join(errs, "; "))
	}

	var reg AlgorithmRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, stderrors.NewRegistryInvalidError(err.Error())
	}
	return &reg, nil
}

// Active returns the first algorithm flagged as active.
func (r *AlgorithmRegistry) Active() (*Algorithm, error) {
	for i := range r.Algorithms {
		if r.Algorithms[i].IsActive {
			return &r.Algorithms[i], nil
		}
	}
	return nil, stderrors.NewAlgorithmNotFoundError("active")
}

// Find returns the algorithm with the given name.
func (r *AlgorithmRegistry) Find(name string) (*Algorithm, error) {
	for i := range r.Algorithms {
		if r.Algorithms[i].Name == name {
			return &r.Algorithms[i], nil
		}
	}
	return nil, stderrors.NewAlgorithmNotFoundError(name)
}
