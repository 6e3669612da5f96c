package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/amirhosseinghanipour/provisioner/internal/domain"
	infraauth "github.com/amirhosseinghanipour/provisioner/internal/infrastructure/auth"
)

var (
	tokenSubject string
	tokenRole    string
	tokenExpiry  int64
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token signed with JWT_PRIVATE_KEY_PATH",
	Long: `Mint a bearer token for a caller. The subject is the caller's email; callers
without the admin role act only on projects granted to that email.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if tokenSubject == "" {
			return fmt.Errorf("--subject is required")
		}
		pemBytes, err := cfg.LoadJWTPrivateKey()
		if err != nil {
			return err
		}
		privateKey, err := infraauth.LoadRSAPrivateKeyFromPEM(pemBytes)
		if err != nil {
			return fmt.Errorf("parse JWT private key: %w", err)
		}
		expiry := tokenExpiry
		if expiry <= 0 {
			expiry = cfg.JWT.AccessExpiry
		}
		token, err := infraauth.NewTokenIssuer(privateKey, cfg.JWT.Issuer, cfg.JWT.Audience).IssueAccessToken(tokenSubject, tokenRole, expiry)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "caller email")
	tokenCmd.Flags().StringVar(&tokenRole, "role", domain.RoleAdmin, "caller role")
	tokenCmd.Flags().Int64Var(&tokenExpiry, "expires-in", 0, "lifetime in seconds (default JWT_ACCESS_EXPIRY)")
}
