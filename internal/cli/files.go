package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/services"
	"github.com/spf13/cobra"
)

func (r *root) fileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file",
		Short: "Upload, download and manage encrypted files",
	}
	cmd.AddCommand(r.fileUploadCmd(), r.fileDownloadCmd(), r.fileMoveCmd(), r.fileRmCmd(), r.fileLsCmd())
	return cmd
}

func (r *root) fileUploadCmd() *cobra.Command {
	var name, folder, mimeType string

	cmd := &cobra.Command{
		Use:   "upload <path>",
		Short: "Encrypt a local file and store it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			principal, err := r.app.principal(ctx)
			if err != nil {
				return err
			}

			content, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			defer common.WipeByteArray(content)

			if name == "" {
				name = filepath.Base(args[0])
			}
			if mimeType == "" {
				mimeType = mime.TypeByExtension(filepath.Ext(name))
			}

			owner := principal
			if folder != "" {
				f, err := r.authorizeFolder(ctx, principal, folder, models.AccessLevel.CanWrite)
				if err != nil {
					return err
				}
				owner = f.OwnerID
			}

			stop := startSpinner(cmd.ErrOrStderr(), "Encrypting and uploading...")
			file, err := r.app.vault.Upload(ctx, services.UploadRequest{
				OwnerID:  owner,
				Name:     name,
				MimeType: mimeType,
				Content:  content,
				FolderID: common.StrPtr(folder),
			})
			stop()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s uploaded %s as %s\n", uiSuccess.Sprint("✓"), uiHighlight.Sprint(file.Name), file.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "stored file name (defaults to the base name of <path>)")
	cmd.Flags().StringVar(&folder, "folder", "", "folder id; the file is encrypted with the folder key")
	cmd.Flags().StringVar(&mimeType, "mime", "", "MIME type (guessed from the extension by default)")
	return cmd
}

// loadFile fetches file metadata and checks the principal may act on it.
func (r *root) loadFile(cmd *cobra.Command, id string, allowed func(models.AccessLevel) bool) (*models.File, string, error) {
	ctx := cmd.Context()
	principal, err := r.app.principal(ctx)
	if err != nil {
		return nil, "", err
	}
	file, err := r.app.vault.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if err := r.app.access.Authorize(ctx, principal, file.OwnerID, file.FolderID, allowed); err != nil {
		return nil, "", err
	}
	return file, principal, nil
}

func (r *root) fileDownloadCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "download <file-id>",
		Short: "Decrypt a stored file to stdout or --output",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, principal, err := r.loadFile(cmd, args[0], models.AccessLevel.CanRead)
			if err != nil {
				return err
			}
			stop := startSpinner(cmd.ErrOrStderr(), "Downloading and decrypting...")
			content, err := r.app.vault.Download(cmd.Context(), file, principal)
			stop()
			if err != nil {
				return err
			}
			defer common.WipeByteArray(content)

			if output == "" {
				_, err = cmd.OutOrStdout().Write(content)
				return err
			}
			if err := os.WriteFile(output, content, 0o600); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%s wrote %d bytes to %s\n", uiSuccess.Sprint("✓"), len(content), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to this path instead of stdout")
	return cmd
}

func (r *root) fileMoveCmd() *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "move <file-id>",
		Short: "Move a file to another folder without re-encrypting it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, principal, err := r.loadFile(cmd, args[0], models.AccessLevel.CanWrite)
			if err != nil {
				return err
			}
			if folder != "" {
				if _, err := r.authorizeFolder(cmd.Context(), principal, folder, models.AccessLevel.CanWrite); err != nil {
					return err
				}
			}
			if err := r.app.vault.Move(cmd.Context(), file.ID, common.StrPtr(folder)); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s moved %s to %s\n", uiSuccess.Sprint("✓"), file.ID, folderLabel(common.StrPtr(folder)))
			return nil
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "target folder id (empty moves to the top level)")
	return cmd
}

func (r *root) fileRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <file-id>",
		Short: "Delete a file and its blob",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, _, err := r.loadFile(cmd, args[0], models.AccessLevel.CanWrite)
			if err != nil {
				return err
			}
			if err := r.app.vault.Delete(cmd.Context(), file); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s deleted %s\n", uiSuccess.Sprint("✓"), uiHighlight.Sprint(file.Name))
			return nil
		},
	}
}

func (r *root) fileLsCmd() *cobra.Command {
	var folder string

	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List files at the top level or in --folder",
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
			list, err := r.app.vault.List(ctx, owner, common.StrPtr(folder))
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if len(list) == 0 {
				fmt.Fprintln(w, uiMuted.Sprint("no files"))
				return nil
			}
			for _, f := range list {
				fmt.Fprintf(w, "%-36s  %10d  %s  %s\n", f.ID, f.Size, f.CreatedAt.Format("2006-01-02 15:04"), f.Name)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&folder, "folder", "", "folder id")
	return cmd
}
