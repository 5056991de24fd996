package tool

import (
	"github.com/daikurogo/ipywidgets/types"
)

const (
	Version               = "0.1.0"
	WidgetProtocolVersion = "2.1.0"
	ControlsModule        = "@jupyter-widgets/controls"
	ControlsModuleVersion = "2.0.0"
)

// BuildModelInfo describes the upload control to front ends.
func BuildModelInfo() *types.ModelInfo {
	return &types.ModelInfo{
		ModelName:       "FileUploadModel",
		ModelModule:     ControlsModule,
		ViewName:        "FileUploadView",
		ViewModule:      ControlsModule,
		ModuleVersion:   ControlsModuleVersion,
		ProtocolVersion: WidgetProtocolVersion,
		Version:         Version,
	}
}
