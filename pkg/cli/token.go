package cli

import (
	"fmt"

	"github.com/platinummonkey/launchpad/pkg/auth"
)

func newTokenCommand(env *Env) *Command {
	cmd := &Command{
		Name:        "token",
		Description: "Mint a bearer token for local development",
		Flags:       newFlagSet("token"),
	}
	userID := cmd.Flags.Int64("user", 0, "User id placed in the token")
	email := cmd.Flags.String("email", "", "Optional email claim")
	secret := cmd.Flags.String("secret", "", "Signing secret (default $LAUNCHPAD_JWT_SECRET)")
	issuer := cmd.Flags.String("issuer", "", "Token issuer (default $LAUNCHPAD_JWT_ISSUER or launchpad)")
	ttl := cmd.Flags.Duration("ttl", auth.DefaultTTL, "Token lifetime")

	cmd.Run = func(args []string) error {
		if err := cmd.Flags.Parse(args); err != nil {
			return err
		}
		if *userID <= 0 {
			return fmt.Errorf("-user is required")
		}

		key := *secret
		if key == "" {
			key = env.env("LAUNCHPAD_JWT_SECRET", "")
		}
		iss := *issuer
		if iss == "" {
			iss = env.env("LAUNCHPAD_JWT_ISSUER", auth.DefaultIssuer)
		}

		tokens, err := auth.NewTokenManager(key, iss, auth.WithTTL(*ttl))
		if err != nil {
			return err
		}
		token, err := tokens.Issue(*userID, *email)
		if err != nil {
			return err
		}

		env.Logger.WithFields(map[string]interface{}{
			"user_id": *userID,
			"issuer":  iss,
			"ttl":     ttl.String(),
		}).Debug("Token issued")
		fmt.Fprintln(env.Out, token)
		return nil
	}
	return cmd
}
