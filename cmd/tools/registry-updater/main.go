package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"prospect-composer/pkg/registry"
)

const defaultRegistryPath = "pkg/registry/activity-registry.json"

func main() {
	if err := rootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd(out io.Writer) *cobra.Command {
	var path string

	root := &cobra.Command{
		Use:           "registry-updater",
		Short:         "Maintain the worker activity registry",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.PersistentFlags().StringVarP(&path, "path", "p", defaultRegistryPath, "registry file")

	root.AddCommand(
		addCmd(&path),
		updateCmd(&path),
		validateCmd(&path),
		checkInputCmd(&path),
	)
	return root
}

func addCmd(path *string) *cobra.Command {
	a := registry.Activity{}

	cmd := &cobra.Command{
		Use:     "add",
		Short:   "Add an activity",
		Example: `  registry-updater add --id send-digest --display-name "Send Digest" --category leads --task-type send-digest`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.TaskType == "" {
				a.TaskType = a.ID
			}
			if err := addActivity(*path, a, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added activity: %s\n", a.ID)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&a.ID, "id", "", "activity ID")
	f.StringVar(&a.DisplayName, "display-name", "", "display name")
	f.StringVar(&a.Description, "description", "", "description")
	f.StringVar(&a.Category, "category", "", "category (prospect, content, assessment, leads)")
	f.StringVar(&a.TaskType, "task-type", "", "Zeebe job type (defaults to --id)")
	f.StringVar(&a.Version, "version", "1.0.0", "version")
	f.StringVar(&a.ImplementationStatus, "status", "planned", "planned, in-progress, completed or verified")
	f.StringVar(&a.Timeout, "timeout", "10s", "job timeout")
	f.IntVar(&a.Retries, "retries", 0, "job retries")
	for _, name := range []string{"id", "display-name", "category"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func updateCmd(path *string) *cobra.Command {
	var id, field, value string

	cmd := &cobra.Command{
		Use:     "update",
		Short:   "Set one field of an activity",
		Example: `  registry-updater update --id render-guide-pdf --field status --value verified`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := updateActivity(*path, id, field, value, time.Now()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated activity %s, field %s to %s\n", id, field, value)
			return nil
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "activity ID")
	cmd.Flags().StringVar(&field, "field", "", "status, version, displayName, description, category, taskType, timeout or retries")
	cmd.Flags().StringVar(&value, "value", "", "new value")
	for _, name := range []string{"id", "field", "value"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func validateCmd(path *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check required fields, duplicate IDs and input schemas",
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if err := reg.Validate(); err != nil {
				return fmt.Errorf("registry validation failed: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registry validation passed. Found %d activities.\n", len(reg.Activities))
			return nil
		},
	}
}

// checkInputCmd runs a variables document through a task's input schema, the
// same check a worker applies before executing a job.
func checkInputCmd(path *string) *cobra.Command {
	var taskType, varsPath string

	cmd := &cobra.Command{
		Use:     "check-input",
		Short:   "Validate process variables against a task's input schema",
		Example: `  registry-updater check-input --task-type capture-lead --vars lead.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			reg, err := registry.LoadRegistry(*path)
			if err != nil {
				return fmt.Errorf("failed to load registry: %w", err)
			}
			if _, ok := reg.Find(taskType); !ok {
				return fmt.Errorf("no activity with task type %s", taskType)
			}
			validator, err := registry.NewValidator(reg)
			if err != nil {
				return err
			}

			data, err := os.ReadFile(varsPath)
			if err != nil {
				return err
			}
			var vars map[string]interface{}
			if err := json.Unmarshal(data, &vars); err != nil {
				return fmt.Errorf("parse %s: %w", varsPath, err)
			}
			if err := validator.ValidateInput(taskType, vars); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Variables are valid for %s\n", taskType)
			return nil
		},
	}
	cmd.Flags().StringVar(&taskType, "task-type", "", "Zeebe job type")
	cmd.Flags().StringVar(&varsPath, "vars", "", "JSON file of process variables")
	_ = cmd.MarkFlagRequired("task-type")
	_ = cmd.MarkFlagRequired("vars")
	return cmd
}

func addActivity(path string, activity registry.Activity, now time.Time) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to load registry: %w", err)
		}
		reg = &registry.ActivityRegistry{Version: "1.0.0"}
	}

	if _, exists := findByID(reg, activity.ID); exists {
		return fmt.Errorf("activity with ID %s already exists", activity.ID)
	}
	if activity.InputSchema == nil {
		activity.InputSchema = map[string]interface{}{"type": "object"}
	}
	if activity.OutputSchema == nil {
		activity.OutputSchema = map[string]interface{}{"type": "object"}
	}
	if activity.ErrorCodes == nil {
		activity.ErrorCodes = []string{}
	}
	if activity.Workflows == nil {
		activity.Workflows = []string{}
	}
	if activity.Tags == nil {
		activity.Tags = []string{}
	}

	reg.Activities = append(reg.Activities, activity)
	if err := reg.Validate(); err != nil {
		return err
	}
	reg.LastUpdated = now.UTC().Format(time.RFC3339)
	return saveRegistry(reg, path)
}

func updateActivity(path, id, field, value string, now time.Time) error {
	reg, err := registry.LoadRegistry(path)
	if err != nil {
		return fmt.Errorf("failed to load registry: %w", err)
	}

	i, ok := findByID(reg, id)
	if !ok {
		return fmt.Errorf("activity with ID %s not found", id)
	}
	a := &reg.Activities[i]

	switch field {
	case "status":
		a.ImplementationStatus = value
	case "version":
		a.Version = value
	case "displayName":
		a.DisplayName = value
	case "description":
		a.Description = value
	case "category":
		a.Category = value
	case "taskType":
		a.TaskType = value
	case "timeout":
		if _, err := time.ParseDuration(value); err != nil {
			return fmt.Errorf("invalid timeout value: %w", err)
		}
		a.Timeout = value
	case "retries":
		retries, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("invalid retries value: %w", err)
		}
		a.Retries = retries
	default:
		return fmt.Errorf("unknown field: %s", field)
	}

	reg.LastUpdated = now.UTC().Format(time.RFC3339)
	return saveRegistry(reg, path)
}

func findByID(reg *registry.ActivityRegistry, id string) (int, bool) {
	for i := range reg.Activities {
		if reg.Activities[i].ID == id {
			return i, true
		}
	}
	return -1, false
}

func saveRegistry(reg *registry.ActivityRegistry, path string) error {
	data, err := json.MarshalIndent(reg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal registry: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	return nil
}
