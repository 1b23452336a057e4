package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JeanGrijp/go-csrfguard/csrf"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "csrfguard",
		Short:         "Session-bound CSRF token tooling",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newTokenCmd(), newDigestsCmd(), newServeCmd())
	return root
}

// newTokenCmd reproduces the token a guard configured with a secret would
// expect for a session, e.g. to debug a rejected form post.
func newTokenCmd() *cobra.Command {
	var secret, digest, session string

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Derive the authenticity token for a session id",
		Example: "  csrfguard token --secret pony --session abc123\n" +
			"  csrfguard token --secret pony --digest SHA256 --session abc123",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return fmt.Errorf("--secret is required")
			}
			if session == "" {
				return fmt.Errorf("--session is required")
			}
			tok, err := csrf.HMACToken(digest, secret, session)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), tok)
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", "", "Application secret")
	cmd.Flags().StringVar(&digest, "digest", csrf.DefaultDigest, "Digest algorithm")
	cmd.Flags().StringVar(&session, "session", "", "Session id")
	return cmd
}

func newDigestsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "digests",
		Short: "List supported digest algorithms",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(csrf.Digests(), "\n"))
		},
	}
}
