package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daikurogo/ipywidgets/api/models"
	"github.com/daikurogo/ipywidgets/notify"
	"github.com/daikurogo/ipywidgets/tool"
)

// WidgetStatus reports whether the server runs and how it is configured.
// GET /api/widget/v1/status
func WidgetStatus(c *gin.Context) {
	cfg := tool.GetCurrentConfig()
	c.JSON(http.StatusOK, gin.H{
		"running":        true,
		"model":          tool.BuildModelInfo(),
		"controls":       len(models.ListControlIDs()),
		"notify_enabled": notify.UseNotify,
		"remote_sync":    cfg.RemoteSyncURL != "",
	})
}
