package cli

import (
	"fmt"
	"io"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/services"
	"github.com/spf13/cobra"
)

func (r *root) accessCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "access",
		Short: "Manage folder access grants",
	}
	cmd.AddCommand(r.accessGrantCmd(), r.accessRevokeCmd(), r.accessLsCmd(), r.accessCheckCmd())
	return cmd
}

func (r *root) accessGrantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant <folder-id> <user-id> <read|write|admin>",
		Short: "Grant or change a user's access to a folder",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := r.app.principal(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := r.authorizeFolder(cmd.Context(), principal, args[0], models.AccessLevel.CanAdmin); err != nil {
				return err
			}
			if err := r.app.access.Grant(cmd.Context(), args[0], args[1], models.AccessLevel(args[2]), principal); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s granted %s %s on %s\n", uiSuccess.Sprint("✓"), uiHighlight.Sprint(args[1]), args[2], args[0])
			return nil
		},
	}
}

func (r *root) accessRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <folder-id> <user-id>",
		Short: "Revoke a user's access to a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := r.adminFolder(cmd, args[0]); err != nil {
				return err
			}
			if err := r.app.access.Revoke(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s revoked %s on %s\n", uiSuccess.Sprint("✓"), uiHighlight.Sprint(args[1]), args[0])
			return nil
		},
	}
}

func (r *root) accessLsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls <folder-id>",
		Short: "List the grants of a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := r.app.principal(cmd.Context())
			if err != nil {
				return err
			}
			if _, err := r.authorizeFolder(cmd.Context(), principal, args[0], models.AccessLevel.CanRead); err != nil {
				return err
			}
			list, err := r.app.access.List(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(w, uiMuted.Sprint("no grants"))
				return nil
			}
			for _, g := range list {
				by := common.StrVal(g.GrantedBy)
				if by == "" {
					by = "-"
				}
				fmt.Fprintf(w, "%-24s  %-5s  granted by %s\n", g.UserID, g.AccessLevel, by)
			}
			return nil
		},
	}
}

func (r *root) accessCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <folder-id> <user-id>",
		Short: "Print the access level a user holds on a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			level, err := r.app.access.Check(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if level == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "none")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), *level)
			return nil
		},
	}
}

func (r *root) workspaceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workspace",
		Short: "Grant or revoke access on every folder linked to a workspace",
	}
	cmd.AddCommand(r.workspaceGrantCmd(), r.workspaceRevokeCmd())
	return cmd
}

func (r *root) workspaceGrantCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "grant <workspace-id> <user-id> <read|write|admin>",
		Short: "Grant a user access to the workspace folder and all linked channel folders",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, err := r.app.principal(cmd.Context())
			if err != nil {
				return err
			}
			report, err := r.app.access.GrantWorkspace(cmd.Context(), args[0], args[1], models.AccessLevel(args[2]), principal)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), "granted", report)
		},
	}
}

func (r *root) workspaceRevokeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "revoke <workspace-id> <user-id>",
		Short: "Revoke a user's access on the workspace folder and all linked channel folders",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			report, err := r.app.access.RevokeWorkspace(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), "revoked", report)
		},
	}
}

// printReport lists per-folder outcomes and fails the command when any
// folder failed.
func printReport(w io.Writer, verb string, report *services.FanOutReport) error {
	for _, id := range report.Succeeded {
		fmt.Fprintf(w, "%s %s on %s\n", uiSuccess.Sprint("✓"), verb, id)
	}
	for _, f := range report.Failed {
		fmt.Fprintf(w, "%s %s: %v\n", uiWarning.Sprint("!"), f.FolderID, f.Err)
	}
	if len(report.Succeeded)+len(report.Failed) == 0 {
		fmt.Fprintln(w, uiMuted.Sprint("no linked folders"))
	}
	return report.Err()
}
