package cli

import (
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/spf13/cobra"
)

func (r *root) folderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "folder",
		Short: "Organise folders and their workspace links",
	}
	cmd.AddCommand(
		r.folderCreateCmd(),
		r.folderRenameCmd(),
		r.folderMoveCmd(),
		r.folderReorderCmd(),
		r.folderRmCmd(),
		r.folderLsCmd(),
		r.folderLinkCmd(),
		r.folderUnlinkCmd(),
	)
	return cmd
}

// adminFolder resolves the principal and checks admin rights on folderID.
func (r *root) adminFolder(cmd *cobra.Command, folderID string) (*models.Folder, error) {
	principal, err := r.app.principal(cmd.Context())
	if err != nil {
		return nil, err
	}
	return r.authorizeFolder(cmd.Context(), principal, folderID, models.AccessLevel.CanAdmin)
}

func (r *root) folderCreateCmd() *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create a folder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			principal, err := r.app.principal(ctx)
			if err != nil {
				return err
			}
			owner := principal
			if parent != "" {
				p, err := r.authorizeFolder(ctx, principal, parent, models.AccessLevel.CanWrite)
				if err != nil {
					return err
				}
				owner = p.OwnerID
			}

			f, err := r.app.folders.Create(ctx, owner, args[0], common.StrPtr(parent))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s created folder %s as %s\n", uiSuccess.Sprint("✓"), uiHighlight.Sprint(f.Name), f.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "parent folder id")
	return cmd
}

func (r *root) folderRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <folder-id> <name>",
		Short: "Rename a folder",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := r.adminFolder(cmd, args[0]); err != nil {
				return err
			}
			if err := r.app.folders.Rename(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s renamed %s to %s\n", uiSuccess.Sprint("✓"), args[0], uiHighlight.Sprint(args[1]))
			return nil
		},
	}
}

func (r *root) folderMoveCmd() *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "move <folder-id>",
		Short: "Move a folder under --parent (or to the top level)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := r.adminFolder(cmd, args[0]); err != nil {
				return err
			}
			if parent != "" {
				if _, err := r.adminFolder(cmd, parent); err != nil {
					return err
				}
			}
			if err := r.app.folders.Move(cmd.Context(), args[0], common.StrPtr(parent)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s moved %s to %s\n", uiSuccess.Sprint("✓"), args[0], folderLabel(common.StrPtr(parent)))
			return nil
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "new parent folder id")
	return cmd
}

func (r *root) folderReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder <folder-id> <position>",
		Short: "Set the display position of a folder among its siblings",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("position must be a number: %w", err)
			}
			if _, err := r.adminFolder(cmd, args[0]); err != nil {
				return err
			}
			return r.app.folders.Reorder(cmd.Context(), args[0], pos)
		},
	}
}

func (r *root) folderRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <folder-id>",
		Short: "Delete a folder with its subfolders, files, secrets and grants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := r.adminFolder(cmd, args[0])
			if err != nil {
				return err
			}
			if err := r.app.folders.Delete(cmd.Context(), f.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s deleted folder %s\n", uiSuccess.Sprint("✓"), uiHighlight.Sprint(f.Name))
			return nil
		},
	}
}

func (r *root) folderLsCmd() *cobra.Command {
	var parent string

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List folders at the top level or under --parent",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			principal, err := r.app.principal(ctx)
			if err != nil {
				return err
			}
			owner, err := r.listOwner(ctx, principal, parent)
			if err != nil {
				return err
			}
			list, err := r.app.folders.List(ctx, owner, common.StrPtr(parent))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(w, uiMuted.Sprint("no folders"))
				return nil
			}
			for _, f := range list {
				fmt.Fprintf(w, "%-36s  %3d  %s\n", f.ID, f.DisplayOrder, f.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&parent, "parent", "", "parent folder id")
	return cmd
}

func (r *root) folderLinkCmd() *cobra.Command {
	var kind string

	cmd := &cobra.Command{
		Use:   "link <folder-id> <workspace-id>",
		Short: "Link a folder to a workspace or one of its channels",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := r.adminFolder(cmd, args[0]); err != nil {
				return err
			}
			if err := r.app.folders.LinkWorkspace(cmd.Context(), args[0], args[1], models.LinkKind(kind)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s linked %s to %s %s\n", uiSuccess.Sprint("✓"), args[0], kind, uiHighlight.Sprint(args[1]))
			return nil
		},
	}
	cmd.Flags().StringVar(&kind, "kind", string(models.LinkChannel), "link kind: workspace or channel")
	return cmd
}

func (r *root) folderUnlinkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <folder-id> <workspace-id>",
		Short: "Remove a workspace link",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := r.adminFolder(cmd, args[0]); err != nil {
				return err
			}
			if err := r.app.folders.Unlink(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s unlinked %s from %s\n", uiSuccess.Sprint("✓"), args[0], uiHighlight.Sprint(args[1]))
			return nil
		},
	}
}
