package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/repositories/access"
	"github.com/dmitrijs2005/gophvault/internal/repositories/files"
	"github.com/dmitrijs2005/gophvault/internal/repositories/folders"
	"github.com/dmitrijs2005/gophvault/internal/repositories/links"
	"github.com/dmitrijs2005/gophvault/internal/repositories/secrets"
)

// RepositoryManager vends repositories bound to either the pool or a
// transaction, so services can compose several of them inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Files(db dbx.DBTX) files.Repository
	Secrets(db dbx.DBTX) secrets.Repository
	Folders(db dbx.DBTX) folders.Repository
	Access(db dbx.DBTX) access.Repository
	Links(db dbx.DBTX) links.Repository
}
