// controllers/request_controller.go
package controllers

import (
	"net/http"
	"strconv"

	"toolhub/app"
	"toolhub/db"
	"toolhub/models"

	"github.com/gin-gonic/gin"
)

type RequestController struct{ *Srv }

func NewRequestController(s *Srv) *RequestController { return &RequestController{Srv: s} }

func (qc *RequestController) Create(c *gin.Context) {
	var in struct {
		Type       models.RequestType `json:"type" binding:"required"`
		ToolID     *string            `json:"toolId"`
		ToolName   string             `json:"toolName"`
		LocationID string             `json:"locationId"`
		Notes      string             `json:"notes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	act := actor(c)

	// 非管理员只能选自己有授权的地点；一个都没有就是 NoDestination
	if !act.IsAdmin {
		locs, err := qc.Repo.AuthorizedLocationIDs(c.Request.Context(), act.UserID)
		if err != nil {
			fail(c, err)
			return
		}
		if len(locs) == 0 {
			fail(c, db.ErrNoDestination)
			return
		}
		allowed := false
		for _, id := range locs {
			if id == in.LocationID {
				allowed = true
				break
			}
		}
		if !allowed {
			fail(c, db.ErrNoDestination)
			return
		}
	}

	req, err := qc.Repo.CreateRequest(c.Request.Context(), db.CreateRequestInput{
		Type:       in.Type,
		ToolID:     in.ToolID,
		ToolName:   in.ToolName,
		LocationID: in.LocationID,
		Notes:      in.Notes,
	}, act)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (qc *RequestController) List(c *gin.Context) {
	act := actor(c)
	f := db.RequestFilter{Status: models.RequestStatus(c.Query("status"))}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))
	if act.IsAdmin {
		f.RequesterID = c.Query("requesterId")
	} else {
		f.RequesterID = act.UserID
	}

	res, err := qc.Repo.ListRequests(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// 申请人撤回 pending 的申请
func (qc *RequestController) Cancel(c *gin.Context) {
	act := actor(c)
	req, err := qc.Repo.FindRequestByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	if req.RequesterID != act.UserID && !act.IsAdmin {
		c.JSON(http.StatusForbidden, app.H{"error": "forbidden"})
		return
	}
	if err := qc.Repo.CancelRequest(c.Request.Context(), req.ID); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (qc *RequestController) Approve(c *gin.Context) {
	req, err := qc.Repo.ApproveRequest(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (qc *RequestController) Reject(c *gin.Context) {
	req, err := qc.Repo.RejectRequest(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (qc *RequestController) Fulfill(c *gin.Context) {
	req, err := qc.Repo.FulfillRequest(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, req)
}
