package services

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/filevault/internal/common"
	"github.com/dmitrijs2005/filevault/internal/logging"
	"github.com/dmitrijs2005/filevault/internal/server/auth"
	"github.com/dmitrijs2005/filevault/internal/server/models"
	"github.com/dmitrijs2005/filevault/internal/server/repositories/repomanager"
)

const (
	folderNameMin = 3
	folderNameMax = 50

	// maxCascadeAttempts bounds how often delete re-lists files that were
	// uploaded while the folder was being emptied.
	maxCascadeAttempts = 3
)

var (
	folderNameRe        = regexp.MustCompile(`^[A-Za-z0-9 _-]+$`)
	reservedFolderNames = []string{"admin", "system", "root", "null", "undefined"}

	errFolderNotEmpty = errors.New("files were added to the folder during delete")
)

// ValidateFolderName trims name and checks it. The result is the name to store.
func ValidateFolderName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", common.NewValidationError("name", "Folder name is required")
	}
	if n := len(name); n < folderNameMin || n > folderNameMax {
		return "", common.NewValidationError("name", "Folder name must be between 3 and 50 characters")
	}
	if !folderNameRe.MatchString(name) {
		return "", common.NewValidationError("name", "Folder name contains invalid characters")
	}
	if slices.Contains(reservedFolderNames, strings.ToLower(name)) {
		return "", common.NewValidationError("name", "This folder name is reserved and cannot be used")
	}
	return name, nil
}

// FolderService manages folders. Name uniqueness ignores letter case.
type FolderService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	files       *FileService
	log         logging.Logger
	opTimeout   time.Duration
}

func NewFolderService(db *sql.DB, m repomanager.RepositoryManager, files *FileService, opTimeout time.Duration, log logging.Logger) *FolderService {
	return &FolderService{
		db:          db,
		repomanager: m,
		files:       files,
		log:         log.With("module", "folders"),
		opTimeout:   opTimeout,
	}
}

func (s *FolderService) Create(ctx context.Context, name string) (*models.Folder, error) {
	name, err := ValidateFolderName(name)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Folders(s.db)
	if _, err := boundedValue(ctx, s.opTimeout, func(ctx context.Context) (*models.Folder, error) {
		return repo.GetByName(ctx, name)
	}); err == nil {
		return nil, common.ErrDuplicateName
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, err
	}

	folder, err := boundedValue(ctx, s.opTimeout, func(ctx context.Context) (*models.Folder, error) {
		return repo.Create(ctx, name)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "folder created", "user_id", auth.UserIDFromContext(ctx), "folder_id", folder.ID)
	return folder, nil
}

// Edit renames folder id. Keeping its own name (in any case) is allowed.
func (s *FolderService) Edit(ctx context.Context, id, name string) (*models.Folder, error) {
	name, err := ValidateFolderName(name)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Folders(s.db)
	existing, err := boundedValue(ctx, s.opTimeout, func(ctx context.Context) (*models.Folder, error) {
		return repo.GetByName(ctx, name)
	})
	switch {
	case err == nil && existing.ID != id:
		return nil, common.ErrDuplicateName
	case err != nil && !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	folder, err := boundedValue(ctx, s.opTimeout, func(ctx context.Context) (*models.Folder, error) {
		return repo.Rename(ctx, id, name)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "folder renamed", "user_id", auth.UserIDFromContext(ctx), "folder_id", id)
	return folder, nil
}

func (s *FolderService) List(ctx context.Context) ([]*models.Folder, error) {
	repo := s.repomanager.Folders(s.db)
	return boundedValue(ctx, s.opTimeout, func(ctx context.Context) ([]*models.Folder, error) {
		return repo.List(ctx)
	})
}

func (s *FolderService) Get(ctx context.Context, id string) (*models.Folder, error) {
	repo := s.repomanager.Folders(s.db)
	return boundedValue(ctx, s.opTimeout, func(ctx context.Context) (*models.Folder, error) {
		return repo.GetByID(ctx, id)
	})
}

// Delete removes every file of the folder and then the folder. If a file
// cannot be removed the folder is kept and a *common.CascadeError lists
// the files still present; calling Delete again resumes.
func (s *FolderService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	folders := s.repomanager.Folders(s.db)
	var remaining []string
	for attempt := 0; attempt < maxCascadeAttempts; attempt++ {
		files, err := s.files.ListInFolder(ctx, id)
		if err != nil {
			return err
		}

		remaining = remaining[:0]
		var cause error
		for _, f := range files {
			if err := s.files.remove(ctx, f); err != nil && !errors.Is(err, common.ErrorNotFound) {
				s.log.Error(ctx, "cascade file delete failed", "folder_id", id, "file_id", f.ID, "error", err)
				remaining = append(remaining, f.ID)
				if cause == nil {
					cause = err
				}
			}
		}
		if len(remaining) > 0 {
			return &common.CascadeError{FolderID: id, Remaining: remaining, Err: cause}
		}

		deleted, err := boundedValue(ctx, s.opTimeout, func(ctx context.Context) (bool, error) {
			return folders.DeleteIfEmpty(ctx, id)
		})
		if err != nil {
			return err
		}
		if deleted {
			s.log.Info(ctx, "folder deleted", "user_id", auth.UserIDFromContext(ctx),
				"folder_id", id, "files", len(files))
			return nil
		}

		// Not deleted: either a file arrived or someone else removed the folder.
		if _, err := s.Get(ctx, id); errors.Is(err, common.ErrorNotFound) {
			return nil
		} else if err != nil {
			return err
		}
	}

	files, err := s.files.ListInFolder(ctx, id)
	if err != nil {
		return err
	}
	for _, f := range files {
		remaining = append(remaining, f.ID)
	}
	return &common.CascadeError{FolderID: id, Remaining: remaining, Err: errFolderNotEmpty}
}
