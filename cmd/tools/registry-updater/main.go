// cmd/tools/registry-updater/main.go
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"linkedin-agent/pkg/registry"
)

var registryPath string

func main() {
	listCmd := flag.NewFlagSet("list", flag.ExitOnError)
	updateCmd := flag.NewFlagSet("update", flag.ExitOnError)
	validateCmd := flag.NewFlagSet("validate", flag.ExitOnError)

	for _, fs := range []*flag.FlagSet{listCmd, updateCmd, validateCmd} {
		fs.StringVar(&registryPath, "path", "pkg/registry/tools.json", "Path to registry file")
	}

	// Update command flags
	taskType := updateCmd.String("taskType", "", "Task type of the activity to update (e.g., generate-post)")
	tool := updateCmd.String("tool", "", "Tool to update (e.g., web_search)")
	field := updateCmd.String("field", "", "Field to update (version, description, timeout, retries)")
	value := updateCmd.String("value", "", "New value for the field")

	if len(os.Args) < 2 {
		help()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "list":
		listCmd.Parse(os.Args[2:])
		if err := listRegistry(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	case "update":
		updateCmd.Parse(os.Args[2:])
		if (*taskType == "") == (*tool == "") || *field == "" || *value == "" {
			fmt.Fprintln(os.Stderr, "Error: exactly one of taskType or tool, plus field and value, are required for update.")
			updateCmd.Usage()
			os.Exit(1)
		}
		var err error
		if *tool != "" {
			err = updateTool(*tool, *field, *value)
		} else {
			err = updateActivity(*taskType, *field, *value)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error updating registry: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Updated %s%s, field %s to %s\n", *taskType, *tool, *field, *value)

	case "validate":
		validateCmd.Parse(os.Args[2:])
		if err := validateRegistry(); err != nil {
			fmt.Fprintf(os.Stderr, "Registry validation failed: %v\n", err)
			os.Exit(1)
		}

	case "help":
		fallthrough
	default:
		help()
	}
}

func listRegistry() error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	fmt.Printf("Registry %s (updated %s)\n\nTools:\n", reg.Version, reg.LastUpdated)
	for _, t := range reg.Tools {
		fmt.Printf("  %-16s %s\n", t.Name, t.Description)
	}
	fmt.Println("\nActivities:")
	for _, a := range reg.Activities {
		fmt.Printf("  %-16s %-30s timeout=%s retries=%d\n", a.TaskType, a.ID, a.Timeout, a.Retries)
	}
	return nil
}

func updateActivity(taskType, field, value string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	found := false
	for i := range reg.Activities {
		if reg.Activities[i].TaskType != taskType {
			continue
		}
		found = true
		switch field {
		case "version":
			reg.Activities[i].Version = value
		case "displayName":
			reg.Activities[i].DisplayName = value
		case "description":
			reg.Activities[i].Description = value
		case "timeout":
			if _, err := time.ParseDuration(value); err != nil {
				return fmt.Errorf("invalid timeout value: %w", err)
			}
			reg.Activities[i].Timeout = value
		case "retries":
			retries, err := strconv.Atoi(value)
			if err != nil {
				return fmt.Errorf("invalid retries value: %w", err)
			}
			reg.Activities[i].Retries = retries
		default:
			return fmt.Errorf("unknown field: %s", field)
		}
		break
	}

	if !found {
		return fmt.Errorf("activity with task type %s not found", taskType)
	}
	return saveRegistry(reg, registryPath)
}

func updateTool(name, field, value string) error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}
	if field != "description" {
		return fmt.Errorf("only the description of a tool can be updated")
	}

	for i := range reg.Tools {
		if reg.Tools[i].Name == name {
			reg.Tools[i].Description = value
			return saveRegistry(reg, registryPath)
		}
	}
	return fmt.Errorf("tool %s not found", name)
}

func validateRegistry() error {
	reg, err := registry.LoadRegistry(registryPath)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	if len(reg.Tools) == 0 {
		return fmt.Errorf("registry contains no tools")
	}

	if errs := reg.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "  - %v\n", e)
		}
		return fmt.Errorf("%d problem(s) found", len(errs))
	}

	fmt.Printf("Registry validation passed. Found %d tools and %d activities.\n", len(reg.Tools), len(reg.Activities))
	return nil
}

// saveRegistry handles saving the registry to file
func saveRegistry(reg *registry.Registry, path string) error {
	reg.LastUpdated = time.Now().Format("2006-01-02")

	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}

	// Create directory if it doesn't exist
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}

func help() {
	fmt.Println(`
Usage: registry-updater <command> [flags]

Commands:
  list      List tools and activities
  update    Update a field of an activity or tool
  validate  Validate the registry file
  help      Show this help message

Examples:
  registry-updater list
  registry-updater update -taskType generate-post -field timeout -value 15m
  registry-updater update -tool web_search -field description -value "Searches the web ..."
  registry-updater validate -path pkg/registry/tools.json

Use 'registry-updater <command> -h' for more information about a command.`)
}
