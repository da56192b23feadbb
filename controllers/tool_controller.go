// controllers/tool_controller.go
package controllers

import (
	"net/http"
	"strconv"
	"time"

	"toolhub/app"
	"toolhub/db"
	"toolhub/models"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type ToolController struct{ *Srv }

func NewToolController(s *Srv) *ToolController { return &ToolController{Srv: s} }

// 管理员建档一件工具
func (tc *ToolController) CreateTool(c *gin.Context) {
	var in struct {
		Name          string           `json:"name" binding:"required"`
		Serial        *string          `json:"serial"`
		PurchaseDate  *time.Time       `json:"purchaseDate"`
		PurchasePrice *decimal.Decimal `json:"purchasePrice"`
		LocationID    *string          `json:"locationId"`
		PersonID      *string          `json:"personId"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	t := &models.Tool{
		Name:          in.Name,
		Serial:        in.Serial,
		PurchaseDate:  in.PurchaseDate,
		PurchasePrice: in.PurchasePrice,
		LocationID:    in.LocationID,
		PersonID:      in.PersonID,
	}
	out, err := tc.Repo.CreateTool(c.Request.Context(), t, actor(c).UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

func (tc *ToolController) UpdateTool(c *gin.Context) {
	var in struct {
		Name          *string          `json:"name"`
		Serial        *string          `json:"serial"`
		PurchaseDate  *time.Time       `json:"purchaseDate"`
		PurchasePrice *decimal.Decimal `json:"purchasePrice"`
		Note          string           `json:"note"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	t, err := tc.Repo.UpdateTool(c.Request.Context(), c.Param("id"), db.UpdateToolInput{
		Name: in.Name, Serial: in.Serial,
		PurchaseDate: in.PurchaseDate, PurchasePrice: in.PurchasePrice,
		Note: in.Note,
	}, actor(c).UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

func (tc *ToolController) GetTool(c *gin.Context) {
	t, err := tc.Repo.FindToolByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	custody, err := tc.Repo.CurrentCustody(c.Request.Context(), t.ID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"tool": t, "custody": custody})
}

func (tc *ToolController) ListTools(c *gin.Context) {
	q := db.ToolsQuery{
		Q:      c.Query("q"),
		Status: c.Query("status"),
	}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "20"))

	res, err := tc.Repo.ListTools(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// 管理员改状态（维修、报废等）
func (tc *ToolController) SetStatus(c *gin.Context) {
	var in struct {
		Status models.ToolStatus `json:"status" binding:"required"`
		Note   string            `json:"note"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	t, err := tc.Repo.SetStatus(c.Request.Context(), c.Param("id"), in.Status, actor(c), in.Note)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// 维修完成重新上架
func (tc *ToolController) ReturnToService(c *gin.Context) {
	t, err := tc.Repo.ReturnToService(c.Request.Context(), c.Param("id"), actor(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// 管理员调度位置（地点/个人二选一）
func (tc *ToolController) Relocate(c *gin.Context) {
	var in struct {
		LocationID *string `json:"locationId"`
		PersonID   *string `json:"personId"`
		Note       string  `json:"note"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	t, err := tc.Repo.Relocate(c.Request.Context(), c.Param("id"), in.LocationID, in.PersonID, actor(c), in.Note)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// 单工具事件历史
func (tc *ToolController) ListToolEvents(c *gin.Context) {
	q := db.EventQuery{ToolID: c.Param("id")}
	q.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	q.Size, _ = strconv.Atoi(c.DefaultQuery("size", "50"))

	res, err := tc.Repo.QueryEvents(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// 使用率
func (tc *ToolController) Usage(c *gin.Context) {
	pct, err := tc.Repo.UsagePercentage(c.Request.Context(), c.Param("id"), time.Now().UTC())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"toolId": c.Param("id"), "usagePercentage": pct})
}
