package cli

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/identity"
	"github.com/spf13/cobra"
)

func (r *root) tokenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Identity tokens",
	}
	cmd.AddCommand(r.tokenIssueCmd())
	return cmd
}

func (r *root) tokenIssueCmd() *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:         "issue",
		Short:       "Issue an HS256 token for --principal and --email",
		Args:        cobra.NoArgs,
		Annotations: map[string]string{annotationNoApp: "true"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			if r.cfg.PrincipalID == "" {
				return fmt.Errorf("%w: --principal is required", common.ErrorNoPrincipal)
			}
			token, err := identity.GenerateToken(r.cfg.PrincipalID, r.cfg.PrincipalEmail, []byte(r.cfg.TokenSecret), ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token validity")
	return cmd
}
