package services

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/dmitrijs2005/filevault/internal/server/blobstore"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/folders"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
	"github.com/zeebo/blake3"
)

// FileService stores uploaded files: content in the blob store, metadata
// in the database.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	blobs       blobstore.Store
	log         logging.Logger
	opTimeout   time.Duration
	now         func() time.Time
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, blobs blobstore.Store, opTimeout time.Duration, log logging.Logger) *FileService {
	return &FileService{
		db:          db,
		repomanager: m,
		blobs:       blobs,
		log:         log.With("module", "files"),
		opTimeout:   opTimeout,
		now:         time.Now,
	}
}

// Upload stores content under a fresh blob key and records it in folderID,
// or in the Home folder when folderID is empty. The blob is removed again
// if the record cannot be written.
func (s *FileService) Upload(ctx context.Context, folderID, name string, content io.Reader) (*models.File, error) {
	if content == nil {
		return nil, common.ErrNoFile
	}

	folder, err := s.targetFolder(ctx, folderID)
	if err != nil {
		return nil, err
	}

	key, token := blobstore.NewKey(s.now())
	h := blake3.New()
	size, err := boundedValue(ctx, s.opTimeout, func(ctx context.Context) (int64, error) {
		return s.blobs.Put(ctx, key, io.TeeReader(content, h))
	})
	if err != nil {
		return nil, fmt.Errorf("store blob: %w", err)
	}

	file := &models.File{
		Name:     name,
		FolderID: folder.ID,
		Filename: token,
		BlobKey:  key,
		Size:     size,
		Checksum: hex.EncodeToString(h.Sum(nil)),
	}
	repo := s.repomanager.Files(s.db)
	if err := bounded(ctx, s.opTimeout, func(ctx context.Context) error {
		return repo.Create(ctx, file)
	}); err != nil {
		s.discardBlob(ctx, key)
		return nil, err
	}

	s.log.Info(ctx, "file uploaded", "user_id", auth.UserIDFromContext(ctx),
		"file_id", file.ID, "folder_id", folder.ID, "size", size)
	return file, nil
}

func (s *FileService) targetFolder(ctx context.Context, folderID string) (*models.Folder, error) {
	repo := s.repomanager.Folders(s.db)
	if folderID != "" {
		return boundedValue(ctx, s.opTimeout, func(ctx context.Context) (*models.Folder, error) {
			return repo.GetByID(ctx, folderID)
		})
	}
	return s.ensureHome(ctx, repo)
}

// ensureHome finds or creates the Home folder. Losing a concurrent create
// surfaces as ErrDuplicateName, after which the winner's folder is read.
func (s *FileService) ensureHome(ctx context.Context, repo folders.Repository) (*models.Folder, error) {
	get := func(ctx context.Context) (*models.Folder, error) {
		return repo.GetByName(ctx, common.HomeFolderName)
	}

	home, err := boundedValue(ctx, s.opTimeout, get)
	if err == nil {
		return home, nil
	}
	if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	home, err = boundedValue(ctx, s.opTimeout, func(ctx context.Context) (*models.Folder, error) {
		return repo.Create(ctx, common.HomeFolderName)
	})
	if errors.Is(err, common.ErrDuplicateName) {
		return boundedValue(ctx, s.opTimeout, get)
	}
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "home folder created", "folder_id", home.ID)
	return home, nil
}

func (s *FileService) discardBlob(ctx context.Context, key string) {
	ctx = context.WithoutCancel(ctx)
	if err := bounded(ctx, s.opTimeout, func(ctx context.Context) error {
		return s.blobs.Delete(ctx, key)
	}); err != nil {
		s.log.Error(ctx, "orphan blob left behind", "blob_key", key, "error", err)
	}
}

// ListInFolder lists the files of folderID. An unknown folder has no files.
func (s *FileService) ListInFolder(ctx context.Context, folderID string) ([]*models.File, error) {
	repo := s.repomanager.Files(s.db)
	return boundedValue(ctx, s.opTimeout, func(ctx context.Context) ([]*models.File, error) {
		return repo.ListByFolder(ctx, folderID)
	})
}

// Delete removes the blob and then the record. If the blob cannot be
// removed the record stays.
func (s *FileService) Delete(ctx context.Context, id string) error {
	file, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.remove(ctx, file); err != nil {
		return err
	}
	s.log.Info(ctx, "file deleted", "user_id", auth.UserIDFromContext(ctx), "file_id", id)
	return nil
}

// remove deletes one file's blob, then its record. A missing blob counts
// as deleted.
func (s *FileService) remove(ctx context.Context, file *models.File) error {
	if err := bounded(ctx, s.opTimeout, func(ctx context.Context) error {
		return s.blobs.Delete(ctx, file.BlobKey)
	}); err != nil {
		if errors.Is(err, common.ErrTimeout) {
			return err
		}
		return fmt.Errorf("%w: %w", common.ErrBlobDelete, err)
	}

	repo := s.repomanager.Files(s.db)
	return bounded(ctx, s.opTimeout, func(ctx context.Context) error {
		return repo.Delete(ctx, file.ID)
	})
}

// Download returns the record and an open reader on its content. The
// caller closes the reader.
func (s *FileService) Download(ctx context.Context, id string) (*models.File, io.ReadCloser, error) {
	file, err := s.get(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	ok, err := boundedValue(ctx, s.opTimeout, func(ctx context.Context) (bool, error) {
		return s.blobs.Exists(ctx, file.BlobKey)
	})
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		s.log.Warn(ctx, "blob missing for file record", "file_id", id, "blob_key", file.BlobKey)
		return nil, nil, common.ErrBlobMissing
	}

	// The stream outlives a single operation timeout; it is bound to ctx.
	rc, err := s.blobs.Open(ctx, file.BlobKey)
	if err != nil {
		return nil, nil, err
	}
	return file, rc, nil
}

func (s *FileService) get(ctx context.Context, id string) (*models.File, error) {
	repo := s.repomanager.Files(s.db)
	return boundedValue(ctx, s.opTimeout, func(ctx context.Context) (*models.File, error) {
		return repo.GetByID(ctx, id)
	})
}
