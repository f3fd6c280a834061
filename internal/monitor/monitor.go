// Package monitor validates JSON documents against contract schemas.
package monitor

import (
	"embed"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// ContractMonitor validates JSON documents against a compiled schema.
// A ContractMonitor is safe for concurrent use.
type ContractMonitor struct {
	name   string
	schema *gojsonschema.Schema
}

// NewContractMonitor loads the schema at schemaPath.
// The path is absolute or relative to the working directory.
func NewContractMonitor(schemaPath string) (*ContractMonitor, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewReferenceLoader("file://" + schemaPath))
	if err != nil {
		return nil, fmt.Errorf("error loading or compiling schema %s: %w", schemaPath, err)
	}
	return &ContractMonitor{name: schemaPath, schema: schema}, nil
}

// NewContractMonitorFromString compiles an inline schema document.
func NewContractMonitorFromString(name, schemaJSON string) (*ContractMonitor, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("error compiling schema %s: %w", name, err)
	}
	return &ContractMonitor{name: name, schema: schema}, nil
}

// Name identifies the schema the monitor was built from.
func (cm *ContractMonitor) Name() string {
	return cm.name
}

// Validate checks body against the schema.
// It returns true if valid, or false and the list of violations. A non-nil
// error means body could not be parsed at all.
func (cm *ContractMonitor) Validate(body []byte) (bool, []string, error) {
	result, err := cm.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return false, nil, fmt.Errorf("error during validation: %w", err)
	}
	if result.Valid() {
		return true, nil, nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, desc.String())
	}
	return false, violations, nil
}

// FormatErrors joins validation errors into a single message.
func FormatErrors(validationErrors []string) string {
	if len(validationErrors) == 0 {
		return ""
	}
	return "Validation errors: " + strings.Join(validationErrors, "; ")
}

var (
	operationRequestOnce    sync.Once
	operationRequestMonitor *ContractMonitor
	resourceOnce            sync.Once
	resourceMonitor         *ContractMonitor
)

// OperationRequestMonitor returns the monitor for inbound operation requests.
func OperationRequestMonitor() *ContractMonitor {
	operationRequestOnce.Do(func() {
		operationRequestMonitor = mustEmbedded("schemas/operation_request.json")
	})
	return operationRequestMonitor
}

// ResourceMonitor returns the monitor for successful remote resource bodies.
func ResourceMonitor() *ContractMonitor {
	resourceOnce.Do(func() {
		resourceMonitor = mustEmbedded("schemas/resource.json")
	})
	return resourceMonitor
}

// mustEmbedded panics because embedded schemas are compiled into the binary.
func mustEmbedded(path string) *ContractMonitor {
	raw, err := schemaFS.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("monitor: missing embedded schema %s: %v", path, err))
	}
	cm, err := NewContractMonitorFromString(path, string(raw))
	if err != nil {
		panic(fmt.Sprintf("monitor: %v", err))
	}
	return cm
}
