// pkg/registry/registry.go
package registry

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed tools.json
var embedded []byte

var activityIDPattern = regexp.MustCompile(`^[a-z]+\.[a-z]+\.[a-z]+$`)

// Default returns the registry compiled into the binary.
func Default() (*Registry, error) {
	return parse(embedded)
}

func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(data)
}

func parse(data []byte) (*Registry, error) {
	var reg Registry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, fmt.Errorf("parse registry: %w", err)
	}
	return &reg, nil
}

// Tool looks up a tool definition by name.
func (r *Registry) Tool(name string) (ToolDefinition, bool) {
	for _, t := range r.Tools {
		if t.Name == name {
			return t, true
		}
	}
	return ToolDefinition{}, false
}

// Activity looks up an activity by task type.
func (r *Registry) Activity(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// Validate checks that names are unique, activity IDs follow
// domain.subdomain.action and every schema compiles.
func (r *Registry) Validate() []error {
	var errs []error

	seen := map[string]bool{}
	for _, t := range r.Tools {
		if seen[t.Name] {
			errs = append(errs, fmt.Errorf("tool %q defined twice", t.Name))
		}
		seen[t.Name] = true
		if _, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(t.InputSchema)); err != nil {
			errs = append(errs, fmt.Errorf("tool %q: invalid input_schema: %w", t.Name, err))
		}
	}

	seen = map[string]bool{}
	for _, a := range r.Activities {
		if seen[a.TaskType] {
			errs = append(errs, fmt.Errorf("task type %q defined twice", a.TaskType))
		}
		seen[a.TaskType] = true
		if !activityIDPattern.MatchString(a.ID) {
			errs = append(errs, fmt.Errorf("activity %q: ID must follow domain.subdomain.action", a.ID))
		}
		if a.InputSchema != nil {
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(a.InputSchema)); err != nil {
				errs = append(errs, fmt.Errorf("activity %q: invalid inputSchema: %w", a.ID, err))
			}
		}
	}

	return errs
}
