package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/tuanvumaihuynh/product-catalog/internal/config"
)

//nolint:staticcheck
var (
	ErrUnsupportedType = errors.New("Seules les images (JPEG, PNG) sont autorisées")
	ErrFileTooLarge    = errors.New("Fichier trop volumineux")
)

var allowedTypes = []string{"image/jpeg", "image/png"}

var extRegex = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// maxNameAttempts bounds the search for a free timestamp-based file name.
const maxNameAttempts = 16

// File is an image received from a client.
type File struct {
	Filename string
	// Size is the size declared by the client, or -1 when unknown.
	Size    int64
	Content io.Reader
}

// StoredFile is an image persisted by an Uploader.
type StoredFile struct {
	Name        string
	Path        string
	ContentType string
	Size        int64
}

// Uploader validates and persists uploaded images.
type Uploader interface {
	// Store validates the file and persists it. It returns ErrUnsupportedType
	// or ErrFileTooLarge when the file is rejected.
	Store(ctx context.Context, file File) (StoredFile, error)
	// Remove deletes a stored file. Removing a missing file is not an error.
	Remove(ctx context.Context, file StoredFile) error
}

var _ Uploader = (*DiskUploader)(nil)

// DiskUploader stores images in a local directory served under a public path.
type DiskUploader struct {
	dir        string
	publicPath string
	maxSize    int64
	now        func() time.Time
}

func NewDiskUploader(cfg config.Upload) (*DiskUploader, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	return &DiskUploader{
		dir:        cfg.Dir,
		publicPath: cfg.PublicPath,
		maxSize:    cfg.MaxSize,
		now:        time.Now,
	}, nil
}

func (u *DiskUploader) Store(ctx context.Context, file File) (StoredFile, error) {
	if file.Size > u.maxSize {
		return StoredFile{}, ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(file.Content, u.maxSize+1))
	if err != nil {
		return StoredFile{}, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > u.maxSize {
		return StoredFile{}, ErrFileTooLarge
	}

	mtype := mimetype.Detect(data)
	if !mimetype.EqualsAny(mtype.String(), allowedTypes...) {
		return StoredFile{}, ErrUnsupportedType
	}

	if err := ctx.Err(); err != nil {
		return StoredFile{}, err
	}

	ext := strings.ToLower(filepath.Ext(filepath.Base(file.Filename)))
	if !extRegex.MatchString(ext) {
		ext = mtype.Extension()
	}

	name, err := u.write(data, ext)
	if err != nil {
		return StoredFile{}, err
	}

	return StoredFile{
		Name:        name,
		Path:        path.Join(u.publicPath, name),
		ContentType: mtype.String(),
		Size:        int64(len(data)),
	}, nil
}

// write persists data under "<unix millis><ext>", moving to the next
// millisecond when the name is taken.
func (u *DiskUploader) write(data []byte, ext string) (string, error) {
	base := u.now().UnixMilli()
	for attempt := range int64(maxNameAttempts) {
		name := strconv.FormatInt(base+attempt, 10) + ext
		location := filepath.Join(u.dir, name)

		f, err := os.OpenFile(location, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create file: %w", err)
		}

		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			_ = os.Remove(location)
			return "", fmt.Errorf("write file: %w", err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(location)
			return "", fmt.Errorf("close file: %w", err)
		}

		return name, nil
	}

	return "", fmt.Errorf("no free file name after %d attempts", maxNameAttempts)
}

func (u *DiskUploader) Remove(_ context.Context, file StoredFile) error {
	if file.Name == "" {
		return nil
	}

	err := os.Remove(filepath.Join(u.dir, filepath.Base(file.Name)))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove file: %w", err)
	}

	return nil
}
