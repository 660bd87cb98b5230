package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"evalgo.org/bffgate/internal/auth"
	"evalgo.org/bffgate/internal/engine"
	"evalgo.org/bffgate/internal/transport"
	"evalgo.org/bffgate/models"
	"evalgo.org/bffgate/pkg/client"
)

var (
	executeValues      []string
	executeCredentials []string
	executeRemote      string
	executeAPIKey      string
	executeFull        bool
)

var executeCmd = &cobra.Command{
	Use:   "execute [endpoint-id]",
	Short: "Run one aggregation and print its report",
	Long: `Run the aggregation of a public endpoint and print the assembled
response. Values are parsed as JSON when possible and kept as strings
otherwise.

Examples:
  bffgate execute book-details --set book_id=42
  bffgate execute book-details --set book_id=42 --report
  bffgate execute book-details --set book_id=42 --remote http://localhost:8080`,
	Args: cobra.ExactArgs(1),
	RunE: runExecute,
}

func init() {
	executeCmd.Flags().StringArrayVar(&executeValues, "set", nil, "public request field as field-id=value (repeatable)")
	executeCmd.Flags().StringArrayVar(&executeCredentials, "cred", nil, "login credential as name=value (repeatable)")
	executeCmd.Flags().StringVar(&executeRemote, "remote", "", "execute on a running gateway instead of locally")
	executeCmd.Flags().StringVar(&executeAPIKey, "api-key", os.Getenv("BFF_ADMIN_API_KEY"), "admin API key for --remote")
	executeCmd.Flags().BoolVar(&executeFull, "report", false, "print the full execution report")
}

func runExecute(cmd *cobra.Command, args []string) error {
	endpointID := args[0]

	values, err := parseAssignments(executeValues)
	if err != nil {
		return err
	}
	var creds map[string]interface{}
	if len(executeCredentials) > 0 {
		if creds, err = parseAssignments(executeCredentials); err != nil {
			return err
		}
	}

	var report *models.ExecutionReport
	if executeRemote != "" {
		c, err := client.New(executeRemote, executeAPIKey)
		if err != nil {
			return err
		}
		report, err = c.Execute(context.Background(), endpointID, values, creds)
		if err != nil {
			return err
		}
	} else {
		p, err := loadProject()
		if err != nil {
			return err
		}
		eng := engine.New(transport.NewHTTPTransport(cfg.Gateway.CallTimeout), auth.NewIssuerFromConfig(cfg), engine.Options{
			ExecutionTimeout: cfg.Gateway.ExecutionTimeout,
			MaxParallel:      cfg.Gateway.MaxParallel,
			MaxPasses:        cfg.Gateway.MaxPasses,
		})
		report, err = eng.Execute(context.Background(), p, endpointID, engine.Input{Values: values, Credentials: creds})
		if err != nil && report == nil {
			return err
		}
		if err != nil && !errors.Is(err, engine.ErrDeadlineExceeded) {
			return err
		}
	}

	out := interface{}(report.Response)
	if executeFull {
		out = report
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return err
	}

	if !executeFull {
		for _, issue := range report.Issues {
			fmt.Fprintf(os.Stderr, "%s: %s %s %s\n", issue.Severity, issue.Kind, issue.EndpointID, issue.Message)
		}
	}
	if report.TimedOut {
		return engine.ErrDeadlineExceeded
	}
	return nil
}

// parseAssignments turns name=value pairs into a map. Values that parse as
// JSON keep their JSON type.
func parseAssignments(pairs []string) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("invalid assignment %q (expected name=value)", pair)
		}

		var v interface{}
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			v = raw
		}
		out[name] = v
	}
	return out, nil
}
