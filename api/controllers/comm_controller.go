package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/daikurogo/ipywidgets/api/commhub"
)

// WidgetCommWS attaches an observer to the control's sync hub.
// GET /api/widget/v1/widgets/:id/comm-ws
func WidgetCommWS(c *gin.Context) {
	ctl, ok := lookupControl(c)
	if !ok {
		return
	}
	commhub.HandleCommWS(ctl.Hub, ctl.Model)(c)
}
