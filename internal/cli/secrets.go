package cli

import (
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/services"
	"github.com/spf13/cobra"
)

func (r *root) secretCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "secret",
		Short: "Store and reveal passwords and API keys",
	}
	cmd.AddCommand(r.secretPutCmd(), r.secretGetCmd(), r.secretMoveCmd(), r.secretRmCmd(), r.secretLsCmd())
	return cmd
}

func (r *root) secretPutCmd() *cobra.Command {
	var folder, value string

	cmd := &cobra.Command{
		Use:   "put <password|apikey> <name>",
		Short: "Encrypt and store a secret; the value is prompted for unless --value is given",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kind, err := models.ParseSecretKind(args[0])
			if err != nil {
				return err
			}
			principal, err := r.app.principal(ctx)
			if err != nil {
				return err
			}

			owner := principal
			if folder != "" {
				f, err := r.authorizeFolder(ctx, principal, folder, models.AccessLevel.CanWrite)
				if err != nil {
					return err
				}
				owner = f.OwnerID
			}

			if !cmd.Flags().Changed("value") {
				value, err = readSecretValue(cmd.InOrStdin(), cmd.ErrOrStderr())
				if err != nil {
					return err
				}
			}

			secret, err := r.app.vault.StoreSecret(ctx, services.SecretRequest{
				OwnerID:  owner,
				Kind:     kind,
				Name:     args[1],
				Value:    value,
				FolderID: common.StrPtr(folder),
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s stored %s %s as %s\n", uiSuccess.Sprint("✓"), kind, uiHighlight.Sprint(secret.Name), secret.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "folder id; the secret is encrypted with the folder key")
	cmd.Flags().StringVar(&value, "value", "", "secret value (visible in shell history, prefer the prompt)")
	return cmd
}

func (r *root) loadSecret(cmd *cobra.Command, id string, allowed func(models.AccessLevel) bool) (*models.Secret, string, error) {
	ctx := cmd.Context()
	principal, err := r.app.principal(ctx)
	if err != nil {
		return nil, "", err
	}
	secret, err := r.app.vault.GetSecret(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if err := r.app.access.Authorize(ctx, principal, secret.OwnerID, secret.FolderID, allowed); err != nil {
		return nil, "", err
	}
	return secret, principal, nil
}

func (r *root) secretGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <secret-id>",
		Short: "Print a decrypted secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, principal, err := r.loadSecret(cmd, args[0], models.AccessLevel.CanRead)
			if err != nil {
				return err
			}
			value, err := r.app.vault.RevealSecret(cmd.Context(), secret, principal)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), value)
			return nil
		},
	}
}

func (r *root) secretMoveCmd() *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "move <secret-id>",
		Short: "Move a secret to another folder without re-encrypting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, principal, err := r.loadSecret(cmd, args[0], models.AccessLevel.CanWrite)
			if err != nil {
				return err
			}
			if folder != "" {
				if _, err := r.authorizeFolder(cmd.Context(), principal, folder, models.AccessLevel.CanWrite); err != nil {
					return err
				}
			}
			if err := r.app.vault.MoveSecret(cmd.Context(), secret.ID, common.StrPtr(folder)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s moved %s to %s\n", uiSuccess.Sprint("✓"), secret.ID, folderLabel(common.StrPtr(folder)))
			return nil
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "target folder id (empty moves to the top level)")
	return cmd
}

func (r *root) secretRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <secret-id>",
		Short: "Delete a secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, _, err := r.loadSecret(cmd, args[0], models.AccessLevel.CanWrite)
			if err != nil {
				return err
			}
			if err := r.app.vault.DeleteSecret(cmd.Context(), secret.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s deleted %s\n", uiSuccess.Sprint("✓"), uiHighlight.Sprint(secret.Name))
			return nil
		},
	}
}

func (r *root) secretLsCmd() *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List secrets (names only) at the top level or in --folder",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			principal, err := r.app.principal(ctx)
			if err != nil {
				return err
			}
			owner, err := r.listOwner(ctx, principal, folder)
			if err != nil {
				return err
			}
			list, err := r.app.vault.ListSecrets(ctx, owner, common.StrPtr(folder))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(w, uiMuted.Sprint("no secrets"))
				return nil
			}
			for _, s := range list {
				fmt.Fprintf(w, "%-36s  %-8s  %s\n", s.ID, s.Kind, s.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "folder id")
	return cmd
}
