package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/dbx"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/files"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/folders"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/otps"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/sessions"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/users"
)

// memStore is an in-memory stand-in for the database shared by all fake
// repositories. Transactions are not modelled.
type memStore struct {
	mu       sync.Mutex
	seq      int
	users    map[string]*models.User // by email
	sessions []models.Session
	otps     map[string]*models.OTP
	folders  map[string]*models.Folder
	files    map[string]*models.File

	// hooks to inject failures
	createFileErr error
	deleteFileErr error

	// hooks run before the operation takes the lock, to interleave
	// concurrent writers
	beforeDeleteIfEmpty func(folderID string)
	beforeCreateFile    func(f *models.File)
}

func newMemStore() *memStore {
	return &memStore{
		users:   map[string]*models.User{},
		otps:    map[string]*models.OTP{},
		folders: map[string]*models.Folder{},
		files:   map[string]*models.File{},
	}
}

func (m *memStore) nextID(prefix string) string {
	m.seq++
	return fmt.Sprintf("%s-%d", prefix, m.seq)
}

// --- users ---

type memUsers struct{ *memStore }

func (r memUsers) Create(ctx context.Context, u *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.Email]; ok {
		return nil, common.ErrDuplicateEmail
	}
	cp := *u
	cp.ID = r.nextID("user")
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.users[u.Email] = &cp
	out := cp
	return &out, nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *u
	return &out, nil
}

func (r memUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.ID == id {
			out := *u
			return &out, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (r memUsers) SetVerified(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return common.ErrorNotFound
	}
	u.Verified = true
	return nil
}

func (r memUsers) UpdatePassword(ctx context.Context, email, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[email]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

// --- sessions ---

type memSessions struct{ *memStore }

func (r memSessions) Create(ctx context.Context, s *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.ID = r.nextID("session")
	s.CreatedAt = time.Now()
	r.sessions = append(r.sessions, *s)
	return nil
}

func (r memSessions) ListByUser(ctx context.Context, userID string) ([]models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.Session{}
	for _, s := range r.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r memSessions) Prune(ctx context.Context, userID string, olderThan time.Time, keep int) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var mine, other []models.Session
	for _, s := range r.sessions {
		if s.UserID == userID {
			mine = append(mine, s)
		} else {
			other = append(other, s)
		}
	}
	var kept []models.Session
	for i, s := range mine {
		if s.CreatedAt.Before(olderThan) || i < len(mine)-keep {
			continue
		}
		kept = append(kept, s)
	}
	r.sessions = append(other, kept...)
	return int64(len(mine) - len(kept)), nil
}

// --- otps ---

type memOTPs struct{ *memStore }

func (r memOTPs) Upsert(ctx context.Context, email, code string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.otps[email] = &models.OTP{Email: email, VerificationCode: code, CreatedAt: time.Now()}
	return nil
}

func (r memOTPs) Get(ctx context.Context, email string) (*models.OTP, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.otps[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *o
	return &out, nil
}

func (r memOTPs) MarkVerified(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.otps[email]
	if !ok {
		return common.ErrorNotFound
	}
	now := time.Now()
	o.VerifiedAt = &now
	return nil
}

func (r memOTPs) Delete(ctx context.Context, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.otps, email)
	return nil
}

// --- folders ---

type memFolders struct{ *memStore }

func (r memFolders) byName(name string) *models.Folder {
	for _, f := range r.folders {
		if strings.EqualFold(f.Name, name) {
			return f
		}
	}
	return nil
}

func (r memFolders) Create(ctx context.Context, name string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byName(name) != nil {
		return nil, common.ErrDuplicateName
	}
	now := time.Now()
	f := &models.Folder{ID: r.nextID("folder"), Name: name, LastUpdated: now, CreatedAt: now, UpdatedAt: now}
	r.folders[f.ID] = f
	out := *f
	return &out, nil
}

func (r memFolders) GetByID(ctx context.Context, id string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *f
	return &out, nil
}

func (r memFolders) GetByName(ctx context.Context, name string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f := r.byName(name)
	if f == nil {
		return nil, common.ErrorNotFound
	}
	out := *f
	return &out, nil
}

func (r memFolders) List(ctx context.Context) ([]*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.Folder{}
	for _, f := range r.folders {
		cp := *f
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memFolders) Rename(ctx context.Context, id, name string) (*models.Folder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.folders[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if other := r.byName(name); other != nil && other.ID != id {
		return nil, common.ErrDuplicateName
	}
	f.Name = name
	f.LastUpdated = time.Now()
	out := *f
	return &out, nil
}

func (r memFolders) DeleteIfEmpty(ctx context.Context, id string) (bool, error) {
	if r.beforeDeleteIfEmpty != nil {
		r.beforeDeleteIfEmpty(id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.folders[id]; !ok {
		return false, nil
	}
	for _, f := range r.files {
		if f.FolderID == id {
			return false, nil
		}
	}
	delete(r.folders, id)
	return true, nil
}

// --- files ---

type memFiles struct{ *memStore }

// Create only inserts into an existing folder.
func (r memFiles) Create(ctx context.Context, f *models.File) error {
	if r.beforeCreateFile != nil {
		r.beforeCreateFile(f)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createFileErr != nil {
		return r.createFileErr
	}
	if _, ok := r.folders[f.FolderID]; !ok {
		return common.ErrorNotFound
	}
	f.ID = r.nextID("file")
	f.CreatedAt = time.Now()
	f.UpdatedAt = f.CreatedAt
	cp := *f
	r.files[f.ID] = &cp
	return nil
}

func (r memFiles) GetByID(ctx context.Context, id string) (*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.files[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	out := *f
	return &out, nil
}

func (r memFiles) ListByFolder(ctx context.Context, folderID string) ([]*models.File, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []*models.File{}
	for _, f := range r.files {
		if f.FolderID == folderID {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r memFiles) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteFileErr != nil {
		return r.deleteFileErr
	}
	if _, ok := r.files[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.files, id)
	return nil
}

func (m *memStore) fileCount(folderID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, f := range m.files {
		if f.FolderID == folderID {
			n++
		}
	}
	return n
}

// fakeRepoManager hands out the same in-memory repositories for any DBTX.
type fakeRepoManager struct{ store *memStore }

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository            { return memUsers{m.store} }
func (m *fakeRepoManager) Sessions(dbx.DBTX) sessions.Repository      { return memSessions{m.store} }
func (m *fakeRepoManager) OTPs(dbx.DBTX) otps.Repository              { return memOTPs{m.store} }
func (m *fakeRepoManager) Folders(dbx.DBTX) folders.Repository        { return memFolders{m.store} }
func (m *fakeRepoManager) Files(dbx.DBTX) files.Repository            { return memFiles{m.store} }

// fakeRunner runs the unit of work without a real transaction.
func fakeRunner(ctx context.Context, fn dbx.TxFunc) error { return fn(ctx, nil) }

// fakeMailer records the last code per address.
type fakeMailer struct {
	mu    sync.Mutex
	codes map[string]string
	sent  int
	err   error
}

func newFakeMailer() *fakeMailer { return &fakeMailer{codes: map[string]string{}} }

func (m *fakeMailer) SendOTP(ctx context.Context, email, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.codes[email] = code
	m.sent++
	return nil
}

func (m *fakeMailer) code(email string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[email]
}

// memBlobs is an in-memory blobstore.Store with failure injection.
type memBlobs struct {
	mu        sync.Mutex
	data      map[string][]byte
	deleteErr map[string]error
	putErr    error
	block     bool
}

func newMemBlobs() *memBlobs {
	return &memBlobs{data: map[string][]byte{}, deleteErr: map[string]error{}}
}

func (b *memBlobs) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	if b.block {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	if b.putErr != nil {
		return 0, b.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = data
	return int64(len(data)), nil
}

func (b *memBlobs) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.data[key]
	if !ok {
		return nil, common.ErrBlobMissing
	}
	return io.NopCloser(bytes.NewReader(d)), nil
}

func (b *memBlobs) Delete(ctx context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.deleteErr[key]; err != nil {
		return err
	}
	delete(b.data, key)
	return nil
}

func (b *memBlobs) Exists(ctx context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.data[key]
	return ok, nil
}

func (b *memBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.data)
}

var errBoom = errors.New("boom")
