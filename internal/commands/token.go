package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"evalgo.org/bffgate/internal/auth"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Manage tokens and admin API keys",
	Long:  `Generate admin API keys and issue tokens signed with the gateway secret`,
}

var generateKeyCmd = &cobra.Command{
	Use:   "generate-key",
	Short: "Generate an admin API key",
	Long: `Generate a random admin API key and its bcrypt hash.

Put the hash into security.admin_api_keys and hand the key to the client.

Examples:
  bffgate token generate-key`,
	Args: cobra.NoArgs,
	RunE: runGenerateKey,
}

var hashKeyCmd = &cobra.Command{
	Use:   "hash-key [key]",
	Short: "Hash an existing admin API key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := auth.HashAPIKey(args[0])
		if err != nil {
			return err
		}
		fmt.Println(hash)
		return nil
	},
}

var issueTokenCmd = &cobra.Command{
	Use:   "issue",
	Short: "Issue a token with explicit claims",
	Long: `Issue a JWT signed with security.jwt_secret, the same way POST /login does.
Useful for calling protected public endpoints during development.

Examples:
  # Token for user 42 valid for one hour
  bffgate token issue --claim sub=42 --claim role=admin --ttl 1h

  # Use custom secret (overrides config)
  bffgate token issue --claim sub=42 --secret "my-custom-secret"`,
	Args: cobra.NoArgs,
	RunE: runIssueToken,
}

var (
	tokenClaims []string
	tokenTTL    time.Duration
	tokenSecret string
)

func init() {
	issueTokenCmd.Flags().StringArrayVar(&tokenClaims, "claim", nil, "claim as name=value (repeatable)")
	issueTokenCmd.Flags().DurationVar(&tokenTTL, "ttl", time.Hour, "token lifetime")
	issueTokenCmd.Flags().StringVar(&tokenSecret, "secret", "", "signing secret (default: from config file)")

	tokenCmd.AddCommand(generateKeyCmd)
	tokenCmd.AddCommand(hashKeyCmd)
	tokenCmd.AddCommand(issueTokenCmd)
}

func runGenerateKey(cmd *cobra.Command, args []string) error {
	key, err := auth.GenerateAPIKey()
	if err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}
	hash, err := auth.HashAPIKey(key)
	if err != nil {
		return fmt.Errorf("failed to hash key: %w", err)
	}

	fmt.Println("API key (give to the client):")
	fmt.Printf("  %s\n\n", key)
	fmt.Println("Hash (add to security.admin_api_keys):")
	fmt.Printf("  %s\n", hash)
	return nil
}

func runIssueToken(cmd *cobra.Command, args []string) error {
	secret := tokenSecret
	if secret == "" && cfg != nil {
		secret = cfg.Security.JWTSecret
	}
	if secret == "" {
		return fmt.Errorf("no signing secret configured (set security.jwt_secret or use --secret)")
	}

	claims, err := parseAssignments(tokenClaims)
	if err != nil {
		return err
	}
	if len(claims) == 0 {
		return fmt.Errorf("at least one --claim is required")
	}

	issuerName := "bffgate"
	if cfg != nil && cfg.Security.Issuer != "" {
		issuerName = cfg.Security.Issuer
	}

	tok, err := auth.NewIssuer(secret, issuerName).Issue(claims, tokenTTL)
	if err != nil {
		return fmt.Errorf("failed to issue token: %w", err)
	}

	fmt.Println(tok.AccessToken)
	fmt.Printf("\nExpires: %s\n", tok.ExpiresAt.Format(time.RFC3339))
	return nil
}
