package controllers

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/daikurogo/ipywidgets/tool"
	"github.com/daikurogo/ipywidgets/types"
)

func TestConfigPatchPersists(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tool.CurrentConfig = tool.DefaultConfig()
	path := filepath.Join(t.TempDir(), "config.yaml")
	oldPath := tool.ConfigPath
	tool.ConfigPath = path
	t.Cleanup(func() { tool.ConfigPath = oldPath })

	router := gin.New()
	router.GET("/config", ConfigGet)
	router.PATCH("/config", ConfigPatch)

	w := doJSON(t, router, http.MethodPatch, "/config", types.ConfigPatchRequest{
		Accept:      types.Ptr("image/*"),
		ButtonStyle: types.Ptr("info"),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var saved types.AppConfig
	require.NoError(t, yaml.Unmarshal(data, &saved))
	assert.Equal(t, "image/*", saved.Accept)
	assert.Equal(t, "info", saved.ButtonStyle)

	w = doJSON(t, router, http.MethodGet, "/config", nil)
	var resp types.ConfigResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "image/*", resp.Accept)
	assert.Equal(t, "Upload", resp.Description)

	w = doJSON(t, router, http.MethodPatch, "/config", types.ConfigPatchRequest{ButtonStyle: types.Ptr("neon")})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
