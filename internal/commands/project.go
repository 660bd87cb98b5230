package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"evalgo.org/bffgate/internal/fixtures"
	"evalgo.org/bffgate/internal/project"
	"evalgo.org/bffgate/pkg/client"
)

var (
	projectServer  string
	projectAPIKey  string
	projectBaseURL string
	projectForce   bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Create and synchronize project files",
}

var projectInitCmd = &cobra.Command{
	Use:   "init [file]",
	Short: "Write a sample project",
	Long: `Write a sample bookstore project with three upstream APIs, one chained
call and an auth provider.

Examples:
  bffgate project init
  bffgate project init project.json --base-url http://localhost:9000`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProjectInit,
}

var projectPullCmd = &cobra.Command{
	Use:   "pull [file]",
	Short: "Download the project of a running gateway",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProjectPull,
}

var projectPushCmd = &cobra.Command{
	Use:   "push [file]",
	Short: "Replace the project of a running gateway",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runProjectPush,
}

func init() {
	projectInitCmd.Flags().StringVar(&projectBaseURL, "base-url", "", "base URL for every upstream API")
	projectInitCmd.Flags().BoolVar(&projectForce, "force", false, "overwrite an existing file")

	for _, c := range []*cobra.Command{projectPullCmd, projectPushCmd} {
		c.Flags().StringVar(&projectServer, "server", "http://localhost:8080", "gateway URL")
		c.Flags().StringVar(&projectAPIKey, "api-key", os.Getenv("BFF_ADMIN_API_KEY"), "admin API key")
	}

	projectCmd.AddCommand(projectInitCmd)
	projectCmd.AddCommand(projectPullCmd)
	projectCmd.AddCommand(projectPushCmd)
}

func projectFile(args []string) string {
	if len(args) == 1 {
		return args[0]
	}
	return cfg.Project.File
}

func runProjectInit(cmd *cobra.Command, args []string) error {
	path := projectFile(args)
	if _, err := os.Stat(path); err == nil && !projectForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	if err := project.Save(path, fixtures.Bookstore(projectBaseURL)); err != nil {
		return err
	}

	fmt.Printf("✓ Created %s\n", path)
	return nil
}

func runProjectPull(cmd *cobra.Command, args []string) error {
	c, err := client.New(projectServer, projectAPIKey)
	if err != nil {
		return err
	}

	resp, err := c.GetProject(context.Background())
	if err != nil {
		return err
	}

	path := projectFile(args)
	if err := project.Save(path, resp.Project); err != nil {
		return err
	}

	fmt.Printf("✓ Saved version %d to %s\n", resp.Version, path)
	return nil
}

func runProjectPush(cmd *cobra.Command, args []string) error {
	path := projectFile(args)
	p, err := project.Load(path)
	if err != nil {
		return err
	}

	c, err := client.New(projectServer, projectAPIKey)
	if err != nil {
		return err
	}

	resp, err := c.ReplaceProject(context.Background(), p)
	if err != nil {
		return err
	}

	fmt.Printf("✓ %s (version %d)\n", resp.Message, resp.Version)
	for _, issue := range resp.Issues {
		fmt.Printf("  - %s\n", issue)
	}
	return nil
}
