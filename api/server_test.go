package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daikurogo/ipywidgets/api/models"
	"github.com/daikurogo/ipywidgets/tool"
	"github.com/daikurogo/ipywidgets/widget"
)

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	tool.CurrentConfig = tool.DefaultConfig()
	models.ResetControls()
	t.Cleanup(models.ResetControls)
	models.RegisterControl(widget.NewFileUpload("main"))
	return NewRouter()
}

func serve(r http.Handler, method, path, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = remote
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRoutes(t *testing.T) {
	r := newTestRouter(t)

	w := serve(r, http.MethodGet, "/api/widget/v1/status", "10.0.0.5:1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "FileUploadModel")

	w = serve(r, http.MethodGet, "/api/widget/v1/widgets/main/view", "10.0.0.5:1")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(r, http.MethodGet, "/metrics", "10.0.0.5:1")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestConfigRoutesAreLocalOnly(t *testing.T) {
	r := newTestRouter(t)

	w := serve(r, http.MethodPost, "/api/widget/v1/widgets/main/click", "10.0.0.5:1")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = serve(r, http.MethodPost, "/api/widget/v1/widgets/main/click", "127.0.0.1:1")
	assert.Equal(t, http.StatusConflict, w.Code) // no picker configured
}

func TestUploadRouteIsRateLimited(t *testing.T) {
	tool.CurrentConfig = tool.DefaultConfig()
	tool.CurrentConfig.UploadRatePerSec = 1
	models.ResetControls()
	t.Cleanup(models.ResetControls)
	models.RegisterControl(widget.NewFileUpload("main"))
	r := NewRouter()

	first := serve(r, http.MethodPost, "/api/widget/v1/widgets/main/upload", "10.0.0.9:1")
	assert.NotEqual(t, http.StatusTooManyRequests, first.Code)
	second := serve(r, http.MethodPost, "/api/widget/v1/widgets/main/upload", "10.0.0.9:1")
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
}
