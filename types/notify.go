package types

// Notification represents a notification message structure
type Notification struct {
	Type    string         `json:"type,omitempty"`    // e.g. "upload_committed", "upload_failed"
	Title   string         `json:"title,omitempty"`   // Notification title
	Message string         `json:"message,omitempty"` // Notification message/content
	Data    map[string]any `json:"data,omitempty"`    // Additional data fields
}

const (
	NotifyTypeUploadCommitted = "upload_committed"
	NotifyTypeUploadFailed    = "upload_failed"
	NotifyTypeInfo            = "info"
)
