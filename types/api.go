package types

// CreateControlRequest is the body of POST /api/widget/v1/widgets. Unset config fields fall
// back to config.yaml.
type CreateControlRequest struct {
	ID     string            `json:"id,omitempty"`
	Config UploadConfigPatch `json:"config"`
}

// UploadResponse reports the outcome of a selection submitted over HTTP.
type UploadResponse struct {
	ModelID   string         `json:"modelId"`
	Counter   int64          `json:"counter"`
	FileCount int            `json:"fileCount"`
	Files     []FileMetadata `json:"files"`
}
