package tool

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"

	"github.com/daikurogo/ipywidgets/types"
)

const DefaultMIMEType = "application/octet-stream"

// GetFileMetadataFromPath stats filePath and returns the metadata a browser would report for it.
func GetFileMetadataFromPath(filePath string) (types.FileMetadata, error) {
	fileInfo, err := os.Stat(filePath)
	if err != nil {
		return types.FileMetadata{}, fmt.Errorf("failed to stat file: %w", err)
	}
	if fileInfo.IsDir() {
		return types.FileMetadata{}, fmt.Errorf("path is a directory, not a file")
	}
	return types.FileMetadata{
		Name:         filepath.Base(filePath),
		Type:         DetectMIMEType(filePath),
		Size:         fileInfo.Size(),
		LastModified: fileInfo.ModTime().UnixMilli(),
	}, nil
}

// DetectMIMEType guesses from the extension first, then sniffs the content.
func DetectMIMEType(filePath string) string {
	if t := mime.TypeByExtension(filepath.Ext(filePath)); t != "" {
		return t
	}
	m, err := mimetype.DetectFile(filePath)
	if err != nil {
		DefaultLogger.Debugf("MIME sniffing failed for %s: %v", filePath, err)
		return DefaultMIMEType
	}
	return m.String()
}
