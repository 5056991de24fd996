package widget

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/daikurogo/ipywidgets/tool"
	"github.com/daikurogo/ipywidgets/types"
)

var (
	ErrReadFailed  = errors.New("read error")
	ErrReadAborted = errors.New("read aborted")
)

// File is one entry of a selection. Metadata must be cheap and must not depend on Read.
type File interface {
	Metadata() types.FileMetadata
	Read(ctx context.Context) ([]byte, error)
}

// ReadError reports the file that failed a batch. Err wraps ErrReadFailed or ErrReadAborted.
type ReadError struct {
	Index int
	Name  string
	Err   error
}

func (e *ReadError) Error() string {
	kind := ErrReadFailed
	if errors.Is(e.Err, ErrReadAborted) {
		kind = ErrReadAborted
	}
	return fmt.Sprintf("failed to read %q: %v", e.Name, kind)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// classifyReadError maps a raw read error onto the two failure kinds.
func classifyReadError(err error) error {
	if errors.Is(err, ErrReadAborted) || errors.Is(err, ErrReadFailed) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrReadAborted, err)
	}
	return fmt.Errorf("%w: %v", ErrReadFailed, err)
}

// LocalFile is a file on disk. Its metadata is captured when it is opened.
type LocalFile struct {
	path string
	meta types.FileMetadata
}

func OpenLocalFile(path string) (*LocalFile, error) {
	meta, err := tool.GetFileMetadataFromPath(path)
	if err != nil {
		return nil, err
	}
	return &LocalFile{path: path, meta: meta}, nil
}

func (f *LocalFile) Metadata() types.FileMetadata {
	return f.meta
}

func (f *LocalFile) Read(ctx context.Context) ([]byte, error) {
	fh, err := os.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", f.path, err)
	}
	defer func() {
		if err := fh.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close %s: %v", f.path, err)
		}
	}()
	return tool.ReadAllWithContext(ctx, fh, f.meta.Size)
}

// MemoryFile holds its content in memory.
type MemoryFile struct {
	Meta    types.FileMetadata
	Content []byte
}

func (f *MemoryFile) Metadata() types.FileMetadata {
	return f.Meta
}

func (f *MemoryFile) Read(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]byte{}, f.Content...), nil
}

// FormFile is a part of a multipart upload. The part is opened lazily by Read.
type FormFile struct {
	header *multipart.FileHeader
	meta   types.FileMetadata
}

// NewFormFile describes fh. lastModified is in milliseconds since the epoch; 0 means unknown.
func NewFormFile(fh *multipart.FileHeader, lastModified int64) *FormFile {
	mimeType := fh.Header.Get("Content-Type")
	if mimeType == "" || mimeType == tool.DefaultMIMEType {
		if t := mime.TypeByExtension(filepath.Ext(fh.Filename)); t != "" {
			mimeType = t
		}
	}
	if mimeType == "" {
		mimeType = tool.DefaultMIMEType
	}
	return &FormFile{
		header: fh,
		meta: types.FileMetadata{
			Name:         filepath.Base(fh.Filename),
			Type:         mimeType,
			Size:         fh.Size,
			LastModified: lastModified,
		},
	}
}

func (f *FormFile) Metadata() types.FileMetadata {
	return f.meta
}

func (f *FormFile) Read(ctx context.Context) ([]byte, error) {
	part, err := f.header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open form file %s: %w", f.meta.Name, err)
	}
	defer func() {
		if err := part.Close(); err != nil {
			tool.DefaultLogger.Errorf("Failed to close form file %s: %v", f.meta.Name, err)
		}
	}()
	return tool.ReadAllWithContext(ctx, part, f.meta.Size)
}

// MatchAccept applies an HTML accept filter: a comma separated list of extensions
// (".png"), wildcard types ("image/*") or exact MIME types. An empty filter accepts all.
func MatchAccept(accept, name, mimeType string) bool {
	accept = strings.TrimSpace(accept)
	if accept == "" {
		return true
	}
	ext := strings.ToLower(filepath.Ext(name))
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = strings.TrimSpace(mimeType[:i])
	}
	for _, token := range strings.Split(accept, ",") {
		token = strings.ToLower(strings.TrimSpace(token))
		switch {
		case token == "":
			continue
		case strings.HasPrefix(token, "."):
			if ext == token {
				return true
			}
		case strings.HasSuffix(token, "/*"):
			if strings.HasPrefix(mimeType, strings.TrimSuffix(token, "*")) {
				return true
			}
		case mimeType == token:
			return true
		}
	}
	return false
}
