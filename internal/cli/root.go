package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophvault/internal/config"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/spf13/cobra"
)

// Commands annotated with noApp run on configuration alone.
const annotationNoApp = "vaultctl/no-app"

type root struct {
	factory AppFactory
	cfg     *config.Config
	app     *App
}

// NewRootCommand builds the vaultctl command tree. factory is called once
// per invocation, after flags are parsed.
func NewRootCommand(factory AppFactory) *cobra.Command {
	r := &root{factory: factory}

	cmd := &cobra.Command{
		Use:   "vaultctl",
		Short: "Client-side encrypted vault for files, passwords and API keys",
		Long: `vaultctl encrypts files and secrets before they leave the machine.

Blobs go to the object store, metadata to PostgreSQL. Folders can be shared
with other principals through access grants and workspace links.`,
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  r.setup,
		PersistentPostRunE: r.teardown,
	}
	config.RegisterFlags(cmd.PersistentFlags())

	cmd.AddCommand(
		r.migrateCmd(),
		r.fileCmd(),
		r.secretCmd(),
		r.folderCmd(),
		r.accessCmd(),
		r.workspaceCmd(),
		r.tokenCmd(),
	)
	return cmd
}

func (r *root) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return err
	}
	r.cfg = cfg

	if cmd.Annotations[annotationNoApp] != "" {
		return nil
	}
	app, err := r.factory(cmd.Context(), cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	r.app = app
	return nil
}

func (r *root) teardown(*cobra.Command, []string) error {
	if r.app == nil {
		return nil
	}
	err := r.app.Close()
	r.app = nil
	return err
}

// Execute runs vaultctl with the process arguments and returns the exit code.
func Execute(ctx context.Context) int {
	cmd := NewRootCommand(NewApp)
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), uiError.Sprint("error:"), err)
		return 1
	}
	return 0
}

func (r *root) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply metadata store migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := r.app.repos.RunMigrations(cmd.Context(), r.app.db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), uiSuccess.Sprint("✓"), "migrations applied")
			return nil
		},
	}
}

// authorizeFolder checks principalID against the grants of folderID; the
// folder's owner always passes.
func (r *root) authorizeFolder(ctx context.Context, principalID, folderID string,
	allowed func(models.AccessLevel) bool) (*models.Folder, error) {
	f, err := r.app.folders.Get(ctx, folderID)
	if err != nil {
		return nil, err
	}
	if err := r.app.access.Authorize(ctx, principalID, f.OwnerID, &f.ID, allowed); err != nil {
		return nil, err
	}
	return f, nil
}

// listOwner resolves whose items a listing shows: the principal's own at the
// top level, the folder owner's inside a readable folder.
func (r *root) listOwner(ctx context.Context, principalID, folderID string) (string, error) {
	if folderID == "" {
		return principalID, nil
	}
	f, err := r.authorizeFolder(ctx, principalID, folderID, models.AccessLevel.CanRead)
	if err != nil {
		return "", err
	}
	return f.OwnerID, nil
}

func folderLabel(id *string) string {
	if id == nil {
		return uiMuted.Sprint("root")
	}
	return *id
}
