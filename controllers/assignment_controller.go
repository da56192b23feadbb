// controllers/assignment_controller.go
package controllers

import (
	"net/http"
	"strconv"

	"toolhub/app"
	"toolhub/db"
	"toolhub/models"

	"github.com/gin-gonic/gin"
)

type AssignmentController struct{ *Srv }

func NewAssignmentController(s *Srv) *AssignmentController { return &AssignmentController{Srv: s} }

// 管理员发放工具
func (ac *AssignmentController) Create(c *gin.Context) {
	var in struct {
		ToolID     string  `json:"toolId" binding:"required"`
		PersonID   *string `json:"personId"`
		LocationID *string `json:"locationId"`
		UserID     *string `json:"userId"`
		Note       string  `json:"note"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	a, err := ac.Repo.CreateAssignment(c.Request.Context(), db.CreateAssignmentInput{
		ToolID:     in.ToolID,
		PersonID:   in.PersonID,
		LocationID: in.LocationID,
		UserID:     in.UserID,
		Note:       in.Note,
	}, actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// 列表。非管理员强制只看自己的和已授权地点的，范围在边界收口
func (ac *AssignmentController) List(c *gin.Context) {
	act := actor(c)
	f := db.AssignmentFilter{
		ToolID: c.Query("toolId"),
		Status: models.ReturnStatus(c.Query("status")),
	}
	f.OnlyOpen = c.Query("open") == "true"
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	if act.IsAdmin {
		f.UserID = c.Query("userId")
		f.PersonID = c.Query("personId")
		if loc := c.Query("locationId"); loc != "" {
			f.LocationIDs = []string{loc}
		}
	} else {
		locs, err := ac.Repo.AuthorizedLocationIDs(c.Request.Context(), act.UserID)
		if err != nil {
			fail(c, err)
			return
		}
		f.UserID = act.UserID
		f.LocationIDs = locs
	}

	res, err := ac.Repo.ListAssignments(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// 我手上正在保管的
func (ac *AssignmentController) ListMine(c *gin.Context) {
	act := actor(c)
	f := db.AssignmentFilter{UserID: act.UserID, OnlyOpen: true}
	f.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	f.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := ac.Repo.ListAssignments(c.Request.Context(), f)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Dashboard 自助归还（个人持有，不走审批流）
func (ac *AssignmentController) SelfReturn(c *gin.Context) {
	act := actor(c)
	a, err := ac.Repo.FindAssignmentByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	// 归属校验在边界做：本人（含关联人员条目）或管理员代办
	mine := a.UserID != nil && *a.UserID == act.UserID
	if !mine && a.PersonID != nil {
		if u, err := ac.Repo.FindUserByID(c.Request.Context(), act.UserID); err == nil {
			mine = u.PersonID != nil && *u.PersonID == *a.PersonID
		}
	}
	if !mine && !act.IsAdmin {
		c.JSON(http.StatusForbidden, app.H{"error": "forbidden"})
		return
	}
	out, err := ac.Repo.SelfReturn(c.Request.Context(), a.ID, act)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
