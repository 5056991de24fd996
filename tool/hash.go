package tool

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// GenerateModelID returns a comm-style model id (uuid without dashes).
func GenerateModelID() string {
	id := uuid.New()
	return hex.EncodeToString(id[:])
}
