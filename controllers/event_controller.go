// controllers/event_controller.go
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"toolhub/app"
	"toolhub/db"

	"github.com/gin-gonic/gin"
)

type EventController struct{ *Srv }

func NewEventController(s *Srv) *EventController { return &EventController{Srv: s} }

// 全局事件日志/日历视图。?from=&to= 用 RFC3339。
func (ec *EventController) List(c *gin.Context) {
	q := db.EventQuery{ToolID: c.Query("toolId")}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "50"))

	if v := c.Query("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.From = &t
		}
	}
	if v := c.Query("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			q.To = &t
		}
	}

	res, err := ec.Repo.QueryEvents(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// 损坏/丢失成本归账
func (ec *EventController) DamageCosts(c *gin.Context) {
	rows, err := ec.Repo.DamageCosts(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"rows": rows})
}
