// controllers/srv.go
package controllers

import (
	"errors"
	"net/http"

	"toolhub/app"
	"toolhub/db"
	"toolhub/session"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type Srv struct {
	Repo    *db.Repo
	AppSess *session.AppSessionStore
	Cfg     app.Config
}

func GetSrv(a *app.App) *Srv {
	return &Srv{
		Repo:    db.NewRepo(a.DB),
		AppSess: a.AppSessions(),
		Cfg:     a.Config,
	}
}

// actor 从中间件塞进 Context 的身份拼出引擎入参
func actor(c *gin.Context) db.Actor {
	uid, _ := c.Get("userID")
	adm, _ := c.Get("isAdmin")
	id, _ := uid.(string)
	isAdmin, _ := adm.(bool)
	return db.Actor{UserID: id, IsAdmin: isAdmin}
}

// fail 错误种类 → HTTP 状态码。持久层原始错误一律不外漏。
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, app.H{"error": "not found"})
	case errors.Is(err, db.ErrInvalidTarget),
		errors.Is(err, db.ErrNotesRequired):
		c.JSON(http.StatusBadRequest, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrNoDestination):
		c.JSON(http.StatusUnprocessableEntity, app.H{"error": err.Error()})
	case errors.Is(err, db.ErrToolUnavailable),
		errors.Is(err, db.ErrInvalidTransition),
		errors.Is(err, db.ErrInvalidState):
		c.JSON(http.StatusConflict, app.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, app.H{"error": "internal error"})
	}
}
