package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"evalgo.org/bffgate/internal/project"
	"evalgo.org/bffgate/internal/validation"
	"evalgo.org/bffgate/pkg/client"
)

var (
	validateRemote string
	validateAPIKey string
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Validate a project file",
	Long: `Validate a project file: entity shapes, mapping references, request
mapping sources and the security config.

Examples:
  bffgate validate project.yaml
  bffgate validate project.json --remote http://localhost:8080`,
	Args: cobra.MaximumNArgs(1),
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateRemote, "remote", "", "validate on a running gateway instead of locally")
	validateCmd.Flags().StringVar(&validateAPIKey, "api-key", os.Getenv("BFF_ADMIN_API_KEY"), "admin API key for --remote")
}

func runValidate(cmd *cobra.Command, args []string) error {
	filename := cfg.Project.File
	if len(args) == 1 {
		filename = args[0]
	}

	p, err := project.Load(filename)
	if err != nil {
		return err
	}

	var result *validation.ValidationResult
	if validateRemote != "" {
		c, err := client.New(validateRemote, validateAPIKey)
		if err != nil {
			return err
		}
		result, err = c.Validate(context.Background(), p)
		if err != nil {
			return fmt.Errorf("validation error: %w", err)
		}
	} else {
		result = validation.New().ValidateProject(p)
	}

	if result.Valid {
		fmt.Println("✓ Project is valid")
		return nil
	}

	fmt.Println("✗ Validation failed:")
	for _, e := range result.Errors {
		if e.Value != nil {
			fmt.Printf("  - %s: %s (value: %v)\n", e.Field, e.Message, e.Value)
		} else {
			fmt.Printf("  - %s: %s\n", e.Field, e.Message)
		}
	}

	return fmt.Errorf("validation failed")
}
