package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/daikurogo/ipywidgets/api/models"
	"github.com/daikurogo/ipywidgets/tool"
	"github.com/daikurogo/ipywidgets/types"
	"github.com/daikurogo/ipywidgets/widget"
)

// UploadFormField is the multipart field carrying the selected files.
const UploadFormField = "files"

// LastModifiedFormField optionally carries one millisecond timestamp per file, in order.
const LastModifiedFormField = "last_modified"

// lookupControl resolves :id and answers 404 itself when it is unknown.
func lookupControl(c *gin.Context) (*models.Control, bool) {
	id := c.Param("id")
	ctl, err := models.GetControl(id)
	if err != nil {
		c.JSON(http.StatusNotFound, tool.FastReturnError("Control not found: "+id))
		return nil, false
	}
	return ctl, true
}

// writePipelineError maps ingestion errors onto HTTP statuses.
func writePipelineError(c *gin.Context, err error) {
	var readErr *widget.ReadError
	switch {
	case errors.Is(err, widget.ErrDisabled):
		c.JSON(http.StatusForbidden, tool.FastReturnError(err.Error()))
	case errors.Is(err, widget.ErrNoPicker), errors.Is(err, widget.ErrSuperseded):
		c.JSON(http.StatusConflict, tool.FastReturnError(err.Error()))
	case errors.As(err, &readErr):
		c.JSON(http.StatusUnprocessableEntity, tool.FastReturnErrorWithData(err.Error(), map[string]any{
			"index": readErr.Index,
			"name":  readErr.Name,
		}))
	default:
		c.JSON(http.StatusInternalServerError, tool.FastReturnError(err.Error()))
	}
}

func uploadResponse(ctl *models.Control) types.UploadResponse {
	st := ctl.Model.State()
	return types.UploadResponse{
		ModelID:   ctl.Model.ID(),
		Counter:   st.Counter,
		FileCount: st.FileCount,
		Files:     st.Metadata,
	}
}

// WidgetList returns the registered control ids.
// GET /api/widget/v1/widgets
func WidgetList(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"data":    models.ListControlIDs(),
		"default": models.DefaultControlID(),
	})
}

// WidgetCreate creates a control from config.yaml overlaid with the request config.
// POST /api/widget/v1/widgets
func WidgetCreate(c *gin.Context) {
	var body types.CreateControlRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
			return
		}
	}
	id := body.ID
	if id == "" {
		id = tool.GenerateModelID()
	}
	if _, err := models.GetControl(id); err == nil {
		c.JSON(http.StatusConflict, tool.FastReturnError("Control already exists: "+id))
		return
	}
	patch, err := widget.PatchFromConfig(body.Config)
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}

	fu, err := widget.NewFileUploadFromConfig(id, *tool.GetCurrentConfig(), widget.WithMetrics(widget.DefaultMetrics()))
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError(err.Error()))
		return
	}
	fu.Model.Set(patch)
	models.RegisterControl(fu)

	c.JSON(http.StatusCreated, gin.H{
		"id":    id,
		"state": fu.Model.State(),
	})
}

// WidgetDelete forgets a control and its batch history.
// DELETE /api/widget/v1/widgets/:id
func WidgetDelete(c *gin.Context) {
	ctl, ok := lookupControl(c)
	if !ok {
		return
	}
	id := ctl.Model.ID()
	models.RemoveControl(id)
	models.ForgetBatches(id)
	c.JSON(http.StatusOK, tool.FastReturnSuccess())
}

// WidgetState returns the state record without byte payloads.
// GET /api/widget/v1/widgets/:id/state
func WidgetState(c *gin.Context) {
	ctl, ok := lookupControl(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"state":    ctl.Model.State(),
		"pipeline": ctl.Pipeline.State().String(),
	})
}

// WidgetData returns the bytes of one file of the current batch.
// GET /api/widget/v1/widgets/:id/data/:index
func WidgetData(c *gin.Context) {
	ctl, ok := lookupControl(c)
	if !ok {
		return
	}
	idx, err := strconv.Atoi(c.Param("index"))
	if err != nil || idx < 0 {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid index: "+c.Param("index")))
		return
	}
	st := ctl.Model.State()
	if idx >= len(st.Data) || idx >= len(st.Metadata) {
		c.JSON(http.StatusNotFound, tool.FastReturnError(fmt.Sprintf("No file at index %d", idx)))
		return
	}
	meta := st.Metadata[idx]
	contentType := meta.Type
	if contentType == "" {
		contentType = tool.DefaultMIMEType
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", meta.Name))
	c.Data(http.StatusOK, contentType, st.Data[idx])
}

// WidgetConfigPatch sets configuration attributes in one update and syncs it.
// PATCH /api/widget/v1/widgets/:id/config
func WidgetConfigPatch(c *gin.Context) {
	ctl, ok := lookupControl(c)
	if !ok {
		return
	}
	var body types.UploadConfigPatch
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid request body: "+err.Error()))
		return
	}
	patch, err := widget.PatchFromConfig(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}
	changed := ctl.Model.Set(patch)
	if len(changed) > 0 {
		if err := ctl.Model.Flush(c.Request.Context()); err != nil {
			tool.DefaultLogger.Warnf("[Widget %s] sync after config change failed: %v", ctl.Model.ID(), err)
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"changed": changed,
		"state":   ctl.Model.State(),
	})
}

// WidgetClick activates the control; the configured directory picker supplies the files.
// POST /api/widget/v1/widgets/:id/click
func WidgetClick(c *gin.Context) {
	ctl, ok := lookupControl(c)
	if !ok {
		return
	}
	if err := ctl.Pipeline.Click(c.Request.Context()); err != nil {
		writePipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, uploadResponse(ctl))
}

// WidgetUpload submits a selection as multipart form data and waits for its commit.
// POST /api/widget/v1/widgets/:id/upload
func WidgetUpload(c *gin.Context) {
	ctl, ok := lookupControl(c)
	if !ok {
		return
	}
	st := ctl.Model.State()
	if st.Disabled {
		writePipelineError(c, widget.ErrDisabled)
		return
	}

	if limit := tool.GetCurrentConfig().MaxUploadBytes; limit > 0 {
		if c.Request.ContentLength > limit {
			c.JSON(http.StatusRequestEntityTooLarge, tool.FastReturnError("Upload exceeds the size limit"))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	form, err := c.MultipartForm()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			c.JSON(http.StatusRequestEntityTooLarge, tool.FastReturnError("Upload exceeds the size limit"))
			return
		}
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid multipart form: "+err.Error()))
		return
	}
	headers := form.File[UploadFormField]
	if len(headers) > 1 && !st.Multiple {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Multiple files are not allowed"))
		return
	}

	stamps := form.Value[LastModifiedFormField]
	files := make([]widget.File, len(headers))
	for i, fh := range headers {
		var lastModified int64
		if i < len(stamps) {
			lastModified, _ = strconv.ParseInt(stamps[i], 10, 64)
		}
		files[i] = widget.NewFormFile(fh, lastModified)
	}

	if err := ctl.Pipeline.Select(c.Request.Context(), files); err != nil {
		writePipelineError(c, err)
		return
	}
	c.JSON(http.StatusOK, uploadResponse(ctl))
}

// WidgetView returns what the button currently shows.
// GET /api/widget/v1/widgets/:id/view
func WidgetView(c *gin.Context) {
	ctl, ok := lookupControl(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ctl.View.Rendered())
}

// WidgetBatches lists the recently committed batches.
// GET /api/widget/v1/widgets/:id/batches
func WidgetBatches(c *gin.Context) {
	ctl, ok := lookupControl(c)
	if !ok {
		return
	}
	batches := models.ListBatches(ctl.Model.ID())
	if batches == nil {
		batches = []types.BatchSummary{}
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(batches))
}

// WidgetBatch returns the batch whose commit left the counter at :counter.
// GET /api/widget/v1/widgets/:id/batches/:counter
func WidgetBatch(c *gin.Context) {
	ctl, ok := lookupControl(c)
	if !ok {
		return
	}
	counter, err := strconv.ParseInt(c.Param("counter"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Invalid counter: "+c.Param("counter")))
		return
	}
	batch, found := models.LookupBatch(ctl.Model.ID(), counter)
	if !found {
		c.JSON(http.StatusNotFound, tool.FastReturnError("Batch not found or expired"))
		return
	}
	c.JSON(http.StatusOK, tool.FastReturnSuccessWithData(batch))
}
