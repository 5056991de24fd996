package widget

import (
	"github.com/daikurogo/ipywidgets/types"
)

// FileUpload bundles the state record, its ingestion pipeline and the rendered button.
type FileUpload struct {
	Model    *Model
	Pipeline *Pipeline
	View     *View
}

func NewFileUpload(id string, opts ...PipelineOption) *FileUpload {
	model := NewModel(id)
	return &FileUpload{
		Model:    model,
		Pipeline: NewPipeline(model, opts...),
		View:     NewView(model),
	}
}

// NewFileUploadFromConfig creates a control whose configuration attributes come from cfg.
func NewFileUploadFromConfig(id string, cfg types.AppConfig, opts ...PipelineOption) (*FileUpload, error) {
	patch, err := PatchFromConfig(types.UploadConfigPatch{
		Accept:      &cfg.Accept,
		Multiple:    &cfg.Multiple,
		Description: &cfg.Description,
		Icon:        &cfg.Icon,
		ButtonStyle: &cfg.ButtonStyle,
		Tooltip:     &cfg.Tooltip,
	})
	if err != nil {
		return nil, err
	}
	if cfg.PickDir != "" {
		opts = append([]PipelineOption{WithPicker(DirPicker{Dir: cfg.PickDir})}, opts...)
	}
	if cfg.MaxConcurrentReads > 0 {
		opts = append([]PipelineOption{WithMaxConcurrentReads(cfg.MaxConcurrentReads)}, opts...)
	}
	fu := NewFileUpload(id, opts...)
	fu.Model.Set(patch)
	return fu, nil
}

// Close detaches the view from the model.
func (f *FileUpload) Close() {
	f.View.Close()
}
