// pkg/registry/schema.go
package registry

import "encoding/json"

type Registry struct {
	Version     string           `json:"version"`
	LastUpdated string           `json:"lastUpdated"`
	Tools       []ToolDefinition `json:"tools"`
	Activities  []Activity       `json:"activities"`
}

// ToolDefinition is what the model sees for one research tool.
type ToolDefinition struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema json.RawMessage `json:"input_schema"`
}

// Activity describes a Zeebe task type served by this service.
type Activity struct {
	ID          string                 `json:"id"`
	DisplayName string                 `json:"displayName"`
	Description string                 `json:"description"`
	Category    string                 `json:"category"`
	Version     string                 `json:"version"`
	TaskType    string                 `json:"taskType"`
	InputSchema map[string]interface{} `json:"inputSchema"`
	ErrorCodes  []string               `json:"errorCodes"`
	Timeout     string                 `json:"timeout"`
	Retries     int                    `json:"retries"`
}
