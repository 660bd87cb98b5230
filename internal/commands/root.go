// Package commands implements the bffgate command line.
package commands

import (
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"evalgo.org/bffgate/internal/config"
	"evalgo.org/bffgate/internal/logging"
	"evalgo.org/bffgate/internal/project"
	"evalgo.org/bffgate/internal/version"
	"evalgo.org/bffgate/models"
)

var (
	cfgFile   string
	cfg       *config.Config
	logCloser io.Closer
)

var rootCmd = &cobra.Command{
	Use:   "bffgate",
	Short: "Backend-for-frontend gateway built from mappings",
	Long: `bffgate serves public endpoints whose responses are assembled from
several upstream APIs. Mappings describe where every public field comes
from; the gateway derives the call order, runs independent calls in
parallel and issues JWTs from an auth endpoint's response.`,
	Version: version.Version,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			_ = logCloser.Close()
		}
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "", "log format (json, text)")
	rootCmd.PersistentFlags().StringP("project", "p", "", "project file (YAML or JSON)")

	// These should never fail as flags are defined above
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))   //nolint:errcheck
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format")) //nolint:errcheck
	_ = viper.BindPFlag("project.file", rootCmd.PersistentFlags().Lookup("project"))      //nolint:errcheck

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(planCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(executeCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(projectCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "%s" .Version}}
`)
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// flags bound above live in the global viper instance
	if v := viper.GetString("logging.level"); v != "" {
		cfg.Logging.Level = v
	}
	if v := viper.GetString("logging.format"); v != "" {
		cfg.Logging.Format = v
	}
	if v := viper.GetString("project.file"); v != "" {
		cfg.Project.File = v
	}

	logCloser, err = logging.Setup(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting up logging: %v\n", err)
		os.Exit(1)
	}
}

// loadProject reads the configured project file.
func loadProject() (*models.Project, error) {
	if cfg.Project.File == "" {
		return nil, fmt.Errorf("no project file configured (use --project or project.file)")
	}
	p, err := project.Load(cfg.Project.File)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{
		"file":             cfg.Project.File,
		"public_endpoints": len(p.PublicEndpoints),
		"upstream_apis":    len(p.UpstreamApis),
	}).Debug("Project loaded")
	return p, nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		info := version.Get()
		fmt.Println(info.String())

		if cmd.Flag("verbose").Changed {
			fmt.Printf("\nDetails:\n")
			fmt.Printf("  Version:    %s\n", info.Version)
			fmt.Printf("  Git Commit: %s\n", info.GitCommit)
			fmt.Printf("  Built:      %s\n", info.BuildTime)
			fmt.Printf("  Go Version: %s\n", info.GoVersion)
			fmt.Printf("  Platform:   %s\n", info.Platform)
		}
	},
}

func init() {
	versionCmd.Flags().BoolP("verbose", "v", false, "verbose version output")
}
