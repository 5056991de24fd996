package types

import "fmt"

// Attribute names exposed to remote observers.
const (
	AttrCounter     = "counter"
	AttrFileCount   = "_file_count"
	AttrData        = "_data"
	AttrMetadata    = "_metadata"
	AttrAccept      = "accept"
	AttrDescription = "description"
	AttrDisabled    = "disabled"
	AttrIcon        = "icon"
	AttrButtonStyle = "button_style"
	AttrMultiple    = "multiple"
	AttrError       = "error"
	AttrTooltip     = "tooltip"
)

// FileMetadata describes one selected file. LastModified is in milliseconds since the epoch.
type FileMetadata struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Size         int64  `json:"size"`
	LastModified int64  `json:"last_modified"`
}

type ButtonStyle string

const (
	ButtonStyleNone    ButtonStyle = ""
	ButtonStylePrimary ButtonStyle = "primary"
	ButtonStyleSuccess ButtonStyle = "success"
	ButtonStyleInfo    ButtonStyle = "info"
	ButtonStyleWarning ButtonStyle = "warning"
	ButtonStyleDanger  ButtonStyle = "danger"
)

// ParseButtonStyle validates s against the enumerated styles.
func ParseButtonStyle(s string) (ButtonStyle, error) {
	switch ButtonStyle(s) {
	case ButtonStyleNone, ButtonStylePrimary, ButtonStyleSuccess, ButtonStyleInfo, ButtonStyleWarning, ButtonStyleDanger:
		return ButtonStyle(s), nil
	}
	return ButtonStyleNone, fmt.Errorf("invalid button_style %q", s)
}

// UploadState is the full record of one upload control.
type UploadState struct {
	Counter     int64          `json:"counter"`
	FileCount   int            `json:"_file_count"`
	Metadata    []FileMetadata `json:"_metadata"`
	Data        [][]byte       `json:"-"`
	Error       string         `json:"error"`
	Accept      string         `json:"accept"`
	Multiple    bool           `json:"multiple"`
	Disabled    bool           `json:"disabled"`
	Description string         `json:"description"`
	Icon        string         `json:"icon"`
	ButtonStyle ButtonStyle    `json:"button_style"`
	Tooltip     string         `json:"tooltip"`
}

// UploadPatch is a partial record; nil fields are left unchanged by a merge.
type UploadPatch struct {
	Counter     *int64          `json:"counter,omitempty"`
	FileCount   *int            `json:"_file_count,omitempty"`
	Metadata    *[]FileMetadata `json:"_metadata,omitempty"`
	Data        *[][]byte       `json:"-"`
	Error       *string         `json:"error,omitempty"`
	Accept      *string         `json:"accept,omitempty"`
	Multiple    *bool           `json:"multiple,omitempty"`
	Disabled    *bool           `json:"disabled,omitempty"`
	Description *string         `json:"description,omitempty"`
	Icon        *string         `json:"icon,omitempty"`
	ButtonStyle *ButtonStyle    `json:"button_style,omitempty"`
	Tooltip     *string         `json:"tooltip,omitempty"`
}

// Keys lists the attribute names the patch sets, in a stable order.
func (p UploadPatch) Keys() []string {
	var keys []string
	add := func(set bool, key string) {
		if set {
			keys = append(keys, key)
		}
	}
	add(p.Counter != nil, AttrCounter)
	add(p.FileCount != nil, AttrFileCount)
	add(p.Metadata != nil, AttrMetadata)
	add(p.Data != nil, AttrData)
	add(p.Error != nil, AttrError)
	add(p.Accept != nil, AttrAccept)
	add(p.Multiple != nil, AttrMultiple)
	add(p.Disabled != nil, AttrDisabled)
	add(p.Description != nil, AttrDescription)
	add(p.Icon != nil, AttrIcon)
	add(p.ButtonStyle != nil, AttrButtonStyle)
	add(p.Tooltip != nil, AttrTooltip)
	return keys
}

// Ptr returns a pointer to v, for building patches.
func Ptr[T any](v T) *T {
	return &v
}

// UploadConfigPatch is the body of a configuration update.
type UploadConfigPatch struct {
	Accept      *string `json:"accept,omitempty"`
	Multiple    *bool   `json:"multiple,omitempty"`
	Disabled    *bool   `json:"disabled,omitempty"`
	Description *string `json:"description,omitempty"`
	Icon        *string `json:"icon,omitempty"`
	ButtonStyle *string `json:"button_style,omitempty"`
	Tooltip     *string `json:"tooltip,omitempty"`
}

// BatchSummary is the metadata-only view of a committed batch.
type BatchSummary struct {
	ModelID   string         `json:"modelId"`
	Counter   int64          `json:"counter"`
	FileCount int            `json:"fileCount"`
	TotalSize int64          `json:"totalSize"`
	Files     []FileMetadata `json:"files"`
}
