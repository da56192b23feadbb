// controllers/user_controller.go
package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"toolhub/app"
	"toolhub/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type UserController struct{ *Srv }

func GetUserController(s *Srv) *UserController { return &UserController{Srv: s} }

// Login 身份接入点：按用户名签发会话。真正的身份校验在会话
// 提供方（上游网关/SSO）做，引擎只吃 userID + isAdmin。
func (uc *UserController) Login(c *gin.Context) {
	var in struct {
		Username string `json:"username" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	u, err := uc.Repo.FindUserByUsername(c.Request.Context(), in.Username)
	if err != nil {
		fail(c, err)
		return
	}
	_ = uc.Repo.TouchUserLogin(c.Request.Context(), u.ID)

	id := uuid.NewString()
	if err := uc.AppSess.Create(c.Request.Context(), id, u.ID); err != nil {
		fail(c, err)
		return
	}
	secure := strings.HasPrefix(uc.Cfg.WebOrigin, "https://")
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(app.AppSessionCookie, id, int(uc.Cfg.SessionTTL.Seconds()), "/", "", secure, true)
	c.JSON(http.StatusOK, app.H{"token": id, "user": u})
}

func (uc *UserController) Logout(c *gin.Context) {
	if ck, err := c.Request.Cookie(app.AppSessionCookie); err == nil && ck.Value != "" {
		_ = uc.AppSess.Delete(c.Request.Context(), ck.Value)
	}
	c.SetCookie(app.AppSessionCookie, "", -1, "/", "", false, true)
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (uc *UserController) WhoAmI(c *gin.Context) {
	v, _ := c.Get("userID")
	uid, _ := v.(string)
	u, err := uc.Repo.FindUserByID(c.Request.Context(), uid)
	if err != nil {
		fail(c, err)
		return
	}
	locs, _ := uc.Repo.AuthorizedLocationIDs(c.Request.Context(), uid)
	c.JSON(http.StatusOK, app.H{"user": u, "authorizedLocations": locs})
}

func (uc *UserController) ListUsers(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	res, err := uc.Repo.ListUsers(c.Request.Context(), c.Query("q"), page, size)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (uc *UserController) CreateLocation(c *gin.Context) {
	var in struct {
		Name            string `json:"name" binding:"required"`
		Address         string `json:"address"`
		IsBaseWarehouse bool   `json:"isBaseWarehouse"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	l := &models.Location{
		ID:              uuid.NewString(),
		Name:            in.Name,
		Address:         in.Address,
		IsBaseWarehouse: in.IsBaseWarehouse,
	}
	if err := uc.Repo.CreateLocation(c.Request.Context(), l); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (uc *UserController) ListLocations(c *gin.Context) {
	ls, err := uc.Repo.ListLocations(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"locations": ls})
}

// 地点授权的发放/回收
func (uc *UserController) GrantLocation(c *gin.Context) {
	if err := uc.Repo.GrantLocation(c.Request.Context(), c.Param("id"), c.Param("locationId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (uc *UserController) RevokeLocation(c *gin.Context) {
	if err := uc.Repo.RevokeLocation(c.Request.Context(), c.Param("id"), c.Param("locationId")); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"ok": true})
}

func (uc *UserController) CreatePerson(c *gin.Context) {
	var in struct {
		Name  string `json:"name" binding:"required"`
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
		return
	}
	p := &models.Person{ID: uuid.NewString(), Name: in.Name, Email: in.Email}
	if err := uc.Repo.CreatePerson(c.Request.Context(), p); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

func (uc *UserController) ListPeople(c *gin.Context) {
	ps, err := uc.Repo.ListPeople(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, app.H{"people": ps})
}
