package types

// ConfigResponse is the JSON shape for GET/PATCH /api/widget/v1/config. Certificates are never exposed.
type ConfigResponse struct {
	Port               int    `json:"port"`
	Protocol           string `json:"protocol"`
	PublicURL          string `json:"public_url"`
	PickDir            string `json:"pick_dir"`
	Accept             string `json:"accept"`
	Multiple           bool   `json:"multiple"`
	Description        string `json:"description"`
	Icon               string `json:"icon"`
	ButtonStyle        string `json:"button_style"`
	Tooltip            string `json:"tooltip"`
	MaxConcurrentReads int    `json:"max_concurrent_reads"`
	MaxUploadBytes     int64  `json:"max_upload_bytes"`
	UploadRatePerSec   int    `json:"upload_rate_per_sec"`
	RemoteSyncURL      string `json:"remote_sync_url"`
	SkipNotify         bool   `json:"skip_notify"`
}

// ConfigPatchRequest is the JSON body for PATCH /api/widget/v1/config (partial update, all fields optional).
// Changes apply to controls created afterwards; port and protocol need a restart.
type ConfigPatchRequest struct {
	PublicURL          *string `json:"public_url"`
	PickDir            *string `json:"pick_dir"`
	Accept             *string `json:"accept"`
	Multiple           *bool   `json:"multiple"`
	Description        *string `json:"description"`
	Icon               *string `json:"icon"`
	ButtonStyle        *string `json:"button_style"`
	Tooltip            *string `json:"tooltip"`
	MaxConcurrentReads *int    `json:"max_concurrent_reads"`
	MaxUploadBytes     *int64  `json:"max_upload_bytes"`
	RemoteSyncURL      *string `json:"remote_sync_url"`
}
