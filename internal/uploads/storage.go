package uploads

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jeromedesantos12/app-circle/pkg/errors"
	"github.com/jeromedesantos12/app-circle/pkg/logger"
)

// MaxImageSize caps uploaded images at 5 MiB.
const MaxImageSize = 5 << 20

// Kind selects the storage subdirectory for an upload.
type Kind string

const (
	KindThread Kind = "thread"
	KindReply  Kind = "reply"
	KindUser   Kind = "user"
)

// Storage writes uploaded images to local disk under a root directory, one
// subdirectory per kind. Stored names are random so uploads never collide and
// client names never reach the filesystem.
type Storage struct {
	root string
}

// NewStorage creates the root directory and its per-kind subdirectories.
func NewStorage(root string) (*Storage, error) {
	if root == "" {
		return nil, fmt.Errorf("uploads: root directory must be provided")
	}
	for _, kind := range []Kind{KindThread, KindReply, KindUser} {
		if err := os.MkdirAll(filepath.Join(root, string(kind)), 0o755); err != nil {
			return nil, fmt.Errorf("uploads: create %s dir: %w", kind, err)
		}
	}
	return &Storage{root: root}, nil
}

// Root reports the storage root, used to mount the static file route.
func (s *Storage) Root() string {
	return s.root
}

// Save validates and persists an uploaded image, returning its public path
// relative to the uploads mount (for example "thread/9f3a….png").
func (s *Storage) Save(kind Kind, file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", errors.NewBadRequest("No file uploaded!")
	}
	if file.Size > MaxImageSize {
		return "", errors.NewBadRequest("Image must be smaller than 5 MB!")
	}
	if ct := file.Header.Get("Content-Type"); !strings.HasPrefix(ct, "image/") {
		return "", errors.NewBadRequest("Only image uploads are allowed!")
	}

	src, err := file.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer src.Close()

	name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	relative := filepath.Join(string(kind), name)

	dst, err := os.Create(filepath.Join(s.root, relative))
	if err != nil {
		return "", errors.Wrap(err, "create upload file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		_ = os.Remove(dst.Name())
		return "", errors.Wrap(err, "write upload file")
	}

	return filepath.ToSlash(relative), nil
}

// Remove deletes a stored image by its public path. Removal is best effort: a
// missing file is not an error and failures are logged, never surfaced.
func (s *Storage) Remove(relative string) {
	if relative == "" {
		return
	}

	// Keep deletions inside the storage root.
	clean := filepath.Clean(relative)
	if strings.HasPrefix(clean, "..") || filepath.IsAbs(clean) {
		logger.WithModule("uploads").Warn("refusing to remove path outside root",
			zap.String("path", relative))
		return
	}

	if err := os.Remove(filepath.Join(s.root, clean)); err != nil && !os.IsNotExist(err) {
		logger.WithModule("uploads").Warn("remove upload failed",
			zap.String("path", relative), zap.Error(err))
	}
}

// List returns the public paths of every stored image, used by the orphan sweeper.
func (s *Storage) List() ([]string, error) {
	var paths []string
	for _, kind := range []Kind{KindThread, KindReply, KindUser} {
		entries, err := os.ReadDir(filepath.Join(s.root, string(kind)))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("uploads: list %s dir: %w", kind, err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			paths = append(paths, filepath.ToSlash(filepath.Join(string(kind), entry.Name())))
		}
	}
	return paths, nil
}
