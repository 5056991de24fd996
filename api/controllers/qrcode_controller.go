package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/skip2/go-qrcode"

	"github.com/daikurogo/ipywidgets/tool"
)

const (
	defaultQRSize = 200
	maxQRSize     = 512
)

// GenerateQRCode returns a PNG QR code image. Compatible with api.qrserver.com create-qr-code API:
// GET ?size=200x200&data=<url-encoded-content>
func GenerateQRCode(c *gin.Context) {
	data := c.Query("data")
	if data == "" {
		c.JSON(http.StatusBadRequest, tool.FastReturnError("Missing required parameter: data"))
		return
	}
	writeQRCode(c, data)
}

// WidgetQRCode encodes the upload URL of a control, so a phone can open it.
// GET /api/widget/v1/widgets/:id/qrcode?size=200
func WidgetQRCode(c *gin.Context) {
	ctl, ok := lookupControl(c)
	if !ok {
		return
	}
	target, err := UploadURL(c, ctl.Model.ID())
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError(err.Error()))
		return
	}
	writeQRCode(c, target)
}

// UploadURL is the upload endpoint of a control, rooted at the configured public URL or
// at a reachable form of the host the request was addressed to.
func UploadURL(c *gin.Context, id string) (string, error) {
	base := tool.GetCurrentConfig().PublicURL
	if base == "" {
		scheme := "http"
		if c.Request.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + tool.ReachableHost(c.Request.Host)
	}
	return tool.BuildControlURL(base, id, "upload")
}

func writeQRCode(c *gin.Context, data string) {
	size := parseSize(c.Query("size"))
	if size <= 0 {
		size = defaultQRSize
	}
	if size > maxQRSize {
		size = maxQRSize
	}

	png, err := qrcode.Encode(data, qrcode.Medium, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, tool.FastReturnError("Failed to encode QR code: "+err.Error()))
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}

// parseSize parses size from "200x200" or "200" and returns the pixel dimension.
func parseSize(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if idx := strings.Index(s, "x"); idx > 0 {
		s = strings.TrimSpace(s[:idx])
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0
	}
	return n
}
