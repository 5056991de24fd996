package types

// ModelInfo identifies the widget model and view classes a front end must instantiate.
type ModelInfo struct {
	ModelName       string `json:"_model_name"`
	ModelModule     string `json:"_model_module"`
	ViewName        string `json:"_view_name"`
	ViewModule      string `json:"_view_module"`
	ModuleVersion   string `json:"_model_module_version"`
	ProtocolVersion string `json:"protocol_version"`
	Version         string `json:"version"`
}
