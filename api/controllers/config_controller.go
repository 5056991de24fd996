package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/daikurogo/ipywidgets/notify"
	"github.com/daikurogo/ipywidgets/tool"
	"github.com/daikurogo/ipywidgets/types"
)

func configResponse(cfg *types.AppConfig) types.ConfigResponse {
	return types.ConfigResponse{
		Port:               cfg.Port,
		Protocol:           cfg.Protocol,
		PublicURL:          cfg.PublicURL,
		PickDir:            cfg.PickDir,
		Accept:             cfg.Accept,
		Multiple:           cfg.Multiple,
		Description:        cfg.Description,
		Icon:               cfg.Icon,
		ButtonStyle:        cfg.ButtonStyle,
		Tooltip:            cfg.Tooltip,
		MaxConcurrentReads: cfg.MaxConcurrentReads,
		MaxUploadBytes:     cfg.MaxUploadBytes,
		UploadRatePerSec:   cfg.UploadRatePerSec,
		RemoteSyncURL:      cfg.RemoteSyncURL,
		SkipNotify:         !notify.UseNotify,
	}
}

// ConfigGet returns the control defaults from config.yaml.
// GET /api/widget/v1/config
func ConfigGet(c *gin.Context) {
	c.JSON(http.StatusOK, configResponse(tool.GetCurrentConfig()))
}

// ConfigPatch accepts a partial config and persists it to config.yaml.
// PATCH /api/widget/v1/config
func ConfigPatch(c *gin.Context) {
	var body types.ConfigPatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
		return
	}

	cfg := *tool.GetCurrentConfig()

	if body.PublicURL != nil {
		cfg.PublicURL = *body.PublicURL
	}
	if body.PickDir != nil {
		cfg.PickDir = *body.PickDir
	}
	if body.Accept != nil {
		cfg.Accept = *body.Accept
	}
	if body.Multiple != nil {
		cfg.Multiple = *body.Multiple
	}
	if body.Description != nil {
		cfg.Description = *body.Description
	}
	if body.Icon != nil {
		cfg.Icon = *body.Icon
	}
	if body.ButtonStyle != nil {
		if _, err := types.ParseButtonStyle(*body.ButtonStyle); err != nil {
			c.JSON(http.StatusBadRequest, tool.FastReturnError(err.Error()))
			return
		}
		cfg.ButtonStyle = *body.ButtonStyle
	}
	if body.Tooltip != nil {
		cfg.Tooltip = *body.Tooltip
	}
	if body.MaxConcurrentReads != nil {
		if *body.MaxConcurrentReads < 0 {
			c.JSON(http.StatusBadRequest, tool.FastReturnError("max_concurrent_reads must be >= 0"))
			return
		}
		cfg.MaxConcurrentReads = *body.MaxConcurrentReads
	}
	if body.MaxUploadBytes != nil {
		cfg.MaxUploadBytes = *body.MaxUploadBytes
	}
	if body.RemoteSyncURL != nil {
		cfg.RemoteSyncURL = *body.RemoteSyncURL
	}

	if err := tool.SaveConfig(cfg); err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, configResponse(tool.GetCurrentConfig()))
}
