// controllers/return_controller.go
package controllers

import (
	"net/http"

	"toolhub/app"
	"toolhub/db"
	"toolhub/models"

	"github.com/gin-gonic/gin"
)

type ReturnController struct{ *Srv }

func NewReturnController(s *Srv) *ReturnController { return &ReturnController{Srv: s} }

// 发起归还申请。管理员当场生效，普通用户进入待审批。
func (rc *ReturnController) RequestReturn(c *gin.Context) {
	var in struct {
		Condition        models.ReturnCondition `json:"condition" binding:"required"`
		ReturnLocationID *string                `json:"returnLocationId"`
		Notes            string                 `json:"notes"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	act := actor(c)

	a, err := rc.Repo.FindAssignmentByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	ok, err := rc.Repo.CanReturnTool(c.Request.Context(), a, act)
	if err != nil {
		fail(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusForbidden, app.H{"error": "forbidden"})
		return
	}

	out, err := rc.Repo.RequestReturn(c.Request.Context(), a.ID, db.ReturnRequestInput{
		Condition:        in.Condition,
		ReturnLocationID: in.ReturnLocationID,
		Notes:            in.Notes,
	}, act)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// 审批通过（仅管理员路由）
func (rc *ReturnController) ApproveReturn(c *gin.Context) {
	a, err := rc.Repo.ApproveReturn(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// 驳回（仅管理员路由）
func (rc *ReturnController) RejectReturn(c *gin.Context) {
	a, err := rc.Repo.RejectReturn(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}
