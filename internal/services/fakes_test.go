package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/gophvault/internal/common"
	"github.com/dmitrijs2005/gophvault/internal/dbx"
	"github.com/dmitrijs2005/gophvault/internal/logging"
	"github.com/dmitrijs2005/gophvault/internal/models"
	"github.com/dmitrijs2005/gophvault/internal/objectstore"
	"github.com/dmitrijs2005/gophvault/internal/repositories/access"
	"github.com/dmitrijs2005/gophvault/internal/repositories/files"
	"github.com/dmitrijs2005/gophvault/internal/repositories/folders"
	"github.com/dmitrijs2005/gophvault/internal/repositories/links"
	"github.com/dmitrijs2005/gophvault/internal/repositories/repomanager"
	"github.com/dmitrijs2005/gophvault/internal/repositories/secrets"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// -------- in-memory metadata store --------

// memMeta mimics the PostgreSQL schema closely enough for service tests:
// foreign keys, cascades, the sibling-name index and grant upserts.
type memMeta struct {
	files   map[string]*models.File
	secrets map[string]*models.Secret
	folders map[string]*models.Folder
	grants  map[[2]string]*models.FolderAccess
	links   []*models.FolderLink

	fileCreateErr error
	fileDeleteErr error
	upsertErr     map[string]error // by folder id
	countLinksErr error
}

func newMemMeta() *memMeta {
	return &memMeta{
		files:     map[string]*models.File{},
		secrets:   map[string]*models.Secret{},
		folders:   map[string]*models.Folder{},
		grants:    map[[2]string]*models.FolderAccess{},
		upsertErr: map[string]error{},
	}
}

func (m *memMeta) folderExists(id *string) error {
	if id == nil {
		return nil
	}
	if _, ok := m.folders[*id]; !ok {
		return fmt.Errorf("%w: folder %s", common.ErrorNotFound, *id)
	}
	return nil
}

func (m *memMeta) subtree(root string) map[string]bool {
	out := map[string]bool{root: true}
	for changed := true; changed; {
		changed = false
		for id, f := range m.folders {
			if f.ParentID != nil && out[*f.ParentID] && !out[id] {
				out[id] = true
				changed = true
			}
		}
	}
	return out
}

func sameFolder(a, b *string) bool {
	return common.StrVal(a) == common.StrVal(b) && (a == nil) == (b == nil)
}

type memManager struct{ m *memMeta }

func (mm memManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (mm memManager) Files(dbx.DBTX) files.Repository              { return memFiles{mm.m} }
func (mm memManager) Secrets(dbx.DBTX) secrets.Repository          { return memSecrets{mm.m} }
func (mm memManager) Folders(dbx.DBTX) folders.Repository          { return memFolders{mm.m} }
func (mm memManager) Access(dbx.DBTX) access.Repository            { return memAccess{mm.m} }
func (mm memManager) Links(dbx.DBTX) links.Repository              { return memLinks{mm.m} }

var _ repomanager.RepositoryManager = memManager{}

type memFiles struct{ m *memMeta }

func (r memFiles) Create(_ context.Context, f *models.File) error {
	if r.m.fileCreateErr != nil {
		return r.m.fileCreateErr
	}
	if err := r.m.folderExists(f.FolderID); err != nil {
		return err
	}
	if _, ok := r.m.files[f.ID]; ok {
		return common.ErrConstraintViolation
	}
	c := *f
	r.m.files[f.ID] = &c
	return nil
}

func (r memFiles) Get(_ context.Context, id string) (*models.File, error) {
	f, ok := r.m.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *f
	return &c, nil
}

func (r memFiles) List(_ context.Context, ownerID string, folderID *string) ([]*models.File, error) {
	var out []*models.File
	for _, f := range r.m.files {
		if f.OwnerID == ownerID && sameFolder(f.FolderID, folderID) {
			c := *f
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memFiles) UpdateFolder(_ context.Context, id string, folderID *string) error {
	if err := r.m.folderExists(folderID); err != nil {
		return err
	}
	f, ok := r.m.files[id]
	if !ok {
		return common.ErrorNotFound
	}
	f.FolderID = folderID
	return nil
}

func (r memFiles) Delete(_ context.Context, id string) error {
	if r.m.fileDeleteErr != nil {
		return r.m.fileDeleteErr
	}
	if _, ok := r.m.files[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.files, id)
	return nil
}

func (r memFiles) StoragePathsInTree(_ context.Context, folderID string) ([]string, error) {
	tree := r.m.subtree(folderID)
	var out []string
	for _, f := range r.m.files {
		if f.FolderID != nil && tree[*f.FolderID] {
			out = append(out, f.StoragePath)
		}
	}
	sort.Strings(out)
	return out, nil
}

type memSecrets struct{ m *memMeta }

func (r memSecrets) Create(_ context.Context, s *models.Secret) error {
	if err := r.m.folderExists(s.FolderID); err != nil {
		return err
	}
	c := *s
	r.m.secrets[s.ID] = &c
	return nil
}

func (r memSecrets) Get(_ context.Context, id string) (*models.Secret, error) {
	s, ok := r.m.secrets[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *s
	return &c, nil
}

func (r memSecrets) List(_ context.Context, ownerID string, folderID *string) ([]*models.Secret, error) {
	var out []*models.Secret
	for _, s := range r.m.secrets {
		if s.OwnerID == ownerID && sameFolder(s.FolderID, folderID) {
			c := *s
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r memSecrets) UpdateFolder(_ context.Context, id string, folderID *string) error {
	if err := r.m.folderExists(folderID); err != nil {
		return err
	}
	s, ok := r.m.secrets[id]
	if !ok {
		return common.ErrorNotFound
	}
	s.FolderID = folderID
	return nil
}

func (r memSecrets) Delete(_ context.Context, id string) error {
	if _, ok := r.m.secrets[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.m.secrets, id)
	return nil
}

type memFolders struct{ m *memMeta }

func (r memFolders) Create(ctx context.Context, f *models.Folder) error {
	if err := r.m.folderExists(f.ParentID); err != nil {
		return err
	}
	taken, _ := r.NameTaken(ctx, f.OwnerID, f.ParentID, f.Name, "")
	if taken {
		return common.ErrConstraintViolation
	}
	c := *f
	r.m.folders[f.ID] = &c
	return nil
}

func (r memFolders) Get(_ context.Context, id string) (*models.Folder, error) {
	f, ok := r.m.folders[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *f
	return &c, nil
}

func (r memFolders) List(_ context.Context, ownerID string, parentID *string) ([]*models.Folder, error) {
	var out []*models.Folder
	for _, f := range r.m.folders {
		if f.OwnerID == ownerID && sameFolder(f.ParentID, parentID) {
			c := *f
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, nil
}

func (r memFolders) NameTaken(_ context.Context, ownerID string, parentID *string, name, excludeID string) (bool, error) {
	for id, f := range r.m.folders {
		if id != excludeID && f.OwnerID == ownerID && sameFolder(f.ParentID, parentID) && strings.EqualFold(f.Name, name) {
			return true, nil
		}
	}
	return false, nil
}

func (r memFolders) NextDisplayOrder(_ context.Context, ownerID string, parentID *string) (int, error) {
	next := 1
	for _, f := range r.m.folders {
		if f.OwnerID == ownerID && sameFolder(f.ParentID, parentID) && f.DisplayOrder >= next {
			next = f.DisplayOrder + 1
		}
	}
	return next, nil
}

func (r memFolders) Rename(_ context.Context, id, name string) error {
	f, ok := r.m.folders[id]
	if !ok {
		return common.ErrorNotFound
	}
	f.Name = name
	return nil
}

func (r memFolders) SetParent(_ context.Context, id string, parentID *string) error {
	if err := r.m.folderExists(parentID); err != nil {
		return err
	}
	f, ok := r.m.folders[id]
	if !ok {
		return common.ErrorNotFound
	}
	f.ParentID = parentID
	return nil
}

func (r memFolders) SetDisplayOrder(_ context.Context, id string, order int) error {
	f, ok := r.m.folders[id]
	if !ok {
		return common.ErrorNotFound
	}
	f.DisplayOrder = order
	return nil
}

func (r memFolders) IsInSubtree(_ context.Context, rootID, candidateID string) (bool, error) {
	return r.m.subtree(rootID)[candidateID], nil
}

func (r memFolders) Delete(_ context.Context, id string) error {
	if _, ok := r.m.folders[id]; !ok {
		return common.ErrorNotFound
	}
	tree := r.m.subtree(id)
	for _, l := range r.m.links {
		if tree[l.FolderID] {
			return common.ErrConstraintViolation
		}
	}
	for fid := range tree {
		delete(r.m.folders, fid)
	}
	for k, f := range r.m.files {
		if f.FolderID != nil && tree[*f.FolderID] {
			delete(r.m.files, k)
		}
	}
	for k, s := range r.m.secrets {
		if s.FolderID != nil && tree[*s.FolderID] {
			delete(r.m.secrets, k)
		}
	}
	for k := range r.m.grants {
		if tree[k[0]] {
			delete(r.m.grants, k)
		}
	}
	return nil
}

type memAccess struct{ m *memMeta }

func (r memAccess) Upsert(_ context.Context, g *models.FolderAccess) error {
	if err := r.m.upsertErr[g.FolderID]; err != nil {
		return err
	}
	if err := r.m.folderExists(&g.FolderID); err != nil {
		return err
	}
	key := [2]string{g.FolderID, g.UserID}
	if cur, ok := r.m.grants[key]; ok {
		cur.AccessLevel = g.AccessLevel
		cur.GrantedBy = g.GrantedBy
		cur.UpdatedAt = g.UpdatedAt
		return nil
	}
	c := *g
	r.m.grants[key] = &c
	return nil
}

func (r memAccess) Delete(_ context.Context, folderID, userID string) error {
	delete(r.m.grants, [2]string{folderID, userID})
	return nil
}

func (r memAccess) List(_ context.Context, folderID string) ([]*models.FolderAccess, error) {
	var out []*models.FolderAccess
	for k, g := range r.m.grants {
		if k[0] == folderID {
			c := *g
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out, nil
}

func (r memAccess) Get(_ context.Context, folderID, userID string) (*models.FolderAccess, error) {
	g, ok := r.m.grants[[2]string{folderID, userID}]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *g
	return &c, nil
}

type memLinks struct{ m *memMeta }

func (r memLinks) Create(_ context.Context, l *models.FolderLink) error {
	if err := r.m.folderExists(&l.FolderID); err != nil {
		return err
	}
	for _, cur := range r.m.links {
		if cur.FolderID == l.FolderID && cur.WorkspaceID == l.WorkspaceID {
			cur.Kind = l.Kind
			return nil
		}
	}
	c := *l
	r.m.links = append(r.m.links, &c)
	return nil
}

func (r memLinks) Delete(_ context.Context, folderID, workspaceID string) error {
	for i, l := range r.m.links {
		if l.FolderID == folderID && l.WorkspaceID == workspaceID {
			r.m.links = append(r.m.links[:i], r.m.links[i+1:]...)
			return nil
		}
	}
	return common.ErrorNotFound
}

func (r memLinks) ListByWorkspace(_ context.Context, workspaceID string) ([]*models.FolderLink, error) {
	var out []*models.FolderLink
	for _, l := range r.m.links {
		if l.WorkspaceID == workspaceID {
			c := *l
			out = append(out, &c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Kind == models.LinkWorkspace && out[j].Kind != models.LinkWorkspace
	})
	return out, nil
}

func (r memLinks) CountInTree(_ context.Context, folderID string) (int, error) {
	if r.m.countLinksErr != nil {
		return 0, r.m.countLinksErr
	}
	tree := r.m.subtree(folderID)
	n := 0
	for _, l := range r.m.links {
		if tree[l.FolderID] {
			n++
		}
	}
	return n, nil
}

// -------- object store with fault injection --------

type flakyStore struct {
	*objectstore.MemoryStore
	putErr    error
	getErr    error
	deleteErr error
	deleted   []string
}

func newFlakyStore() *flakyStore {
	return &flakyStore{MemoryStore: objectstore.NewMemoryStore()}
}

func (s *flakyStore) Put(ctx context.Context, path string, data []byte) error {
	if s.putErr != nil {
		return s.putErr
	}
	return s.MemoryStore.Put(ctx, path, data)
}

func (s *flakyStore) Get(ctx context.Context, path string) ([]byte, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.MemoryStore.Get(ctx, path)
}

func (s *flakyStore) Delete(ctx context.Context, path string) error {
	s.deleted = append(s.deleted, path)
	if s.deleteErr != nil {
		return s.deleteErr
	}
	return s.MemoryStore.Delete(ctx, path)
}

// -------- logger --------

type logEntry struct {
	level string
	msg   string
	args  []any
}

type recLogger struct {
	mu      sync.Mutex
	entries []logEntry
}

func (l *recLogger) add(level, msg string, args []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, logEntry{level, msg, args})
}

func (l *recLogger) Debug(_ context.Context, msg string, args ...any) { l.add("debug", msg, args) }
func (l *recLogger) Info(_ context.Context, msg string, args ...any)  { l.add("info", msg, args) }
func (l *recLogger) Warn(_ context.Context, msg string, args ...any)  { l.add("warn", msg, args) }
func (l *recLogger) Error(_ context.Context, msg string, args ...any) { l.add("error", msg, args) }
func (l *recLogger) With(...any) logging.Logger                       { return l }

func (l *recLogger) has(level, msg string) bool {
	return l.hasAttr(level, msg, "", nil)
}

// hasAttr reports whether an entry with level and msg was logged; a non-empty
// key also requires the attribute key=value on that entry.
func (l *recLogger) hasAttr(level, msg, key string, value any) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if e.level != level || e.msg != msg {
			continue
		}
		if key == "" {
			return true
		}
		for i := 0; i+1 < len(e.args); i += 2 {
			if e.args[i] == key && e.args[i+1] == value {
				return true
			}
		}
	}
	return false
}

// -------- helpers --------

// newTxDB returns a real *sql.DB so dbx.WithTx can begin and commit; the
// fakes above ignore the handle they are given.
func newTxDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func addFolder(m *memMeta, id, owner, name string, parent *string) *models.Folder {
	f := &models.Folder{ID: id, OwnerID: owner, Name: name, ParentID: parent}
	m.folders[id] = f
	return f
}
