package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/chitfund-portal/internal/auth"
)

var (
	tokenRole   string
	tokenUserID string
	tokenUCFSIN string
	tokenEmail  string
	tokenTTL    time.Duration
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a bearer token signed with the configured secret",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		role, ok := auth.ParseRole(tokenRole)
		if !ok {
			log.Fatalf("unknown role %q (admin, foreman, user)", tokenRole)
		}
		if tokenUserID == "" {
			log.Fatal("--user-id is required")
		}

		payload := auth.TokenPayload{
			UserID: tokenUserID,
			Role:   role,
			UCFSIN: tokenUCFSIN,
			Email:  tokenEmail,
		}
		if tokenTTL > 0 {
			payload.ExpiresAt = time.Now().Add(tokenTTL)
		}

		manager := auth.NewJWTTokenManager(cfg.Security.JWTSecret, cfg.Security.TokenTTL, cfg.Security.Issuer)
		token, err := manager.Issue(payload)
		if err != nil {
			log.Fatalf("failed to sign token: %v", err)
		}
		fmt.Println(token)
	},
}

func init() {
	tokenCmd.Flags().StringVar(&tokenRole, "role", "admin", "role claim (admin, foreman, user)")
	tokenCmd.Flags().StringVar(&tokenUserID, "user-id", "", "user id claim")
	tokenCmd.Flags().StringVar(&tokenUCFSIN, "ucfsin", "", "optional UCFSIN claim")
	tokenCmd.Flags().StringVar(&tokenEmail, "email", "", "optional email claim")
	tokenCmd.Flags().DurationVar(&tokenTTL, "ttl", 0, "lifetime (defaults to security.token_ttl)")
}
