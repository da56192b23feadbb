package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"toolhub/db"
	"toolhub/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// stubAuth 绕过会话层，直接注入身份（引擎只认 userID/isAdmin）
func stubAuth(u *models.User) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", u.ID)
		c.Set("username", u.Username)
		c.Set("isAdmin", u.IsAdmin)
		c.Next()
	}
}

type flowEnv struct {
	repo   *db.Repo
	admin  *models.User
	worker *models.User
}

func newFlowEnv(t *testing.T) *flowEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	repo := db.NewRepo(gdb)
	admin := &models.User{ID: uuid.NewString(), Username: "admin", DisplayName: "admin", IsAdmin: true}
	worker := &models.User{ID: uuid.NewString(), Username: "worker", DisplayName: "worker"}
	require.NoError(t, repo.CreateUser(context.Background(), admin))
	require.NoError(t, repo.CreateUser(context.Background(), worker))
	return &flowEnv{repo: repo, admin: admin, worker: worker}
}

func (e *flowEnv) router(u *models.User) *gin.Engine {
	s := &Srv{Repo: e.repo}
	asgCtl := NewAssignmentController(s)
	retCtl := NewReturnController(s)

	r := gin.New()
	g := r.Group("", stubAuth(u))
	g.POST("/api/assignments", asgCtl.Create)
	g.POST("/api/assignments/:id/return-request", retCtl.RequestReturn)
	g.POST("/api/assignments/:id/approve-return", retCtl.ApproveReturn)
	g.POST("/api/assignments/:id/reject-return", retCtl.RejectReturn)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// Scenario C 全流程走 HTTP：申请 → 审批，外加一次并发审批冲突
func TestReturnFlowOverHTTP(t *testing.T) {
	e := newFlowEnv(t)
	ctx := context.Background()

	loc := &models.Location{ID: uuid.NewString(), Name: "site A"}
	require.NoError(t, e.repo.CreateLocation(ctx, loc))
	require.NoError(t, e.repo.GrantLocation(ctx, e.worker.ID, loc.ID))

	tool, err := e.repo.CreateTool(ctx, &models.Tool{Name: "generator"}, e.admin.ID)
	require.NoError(t, err)

	adminR := e.router(e.admin)
	workerR := e.router(e.worker)

	// 管理员发放到地点
	w := doJSON(t, adminR, http.MethodPost, "/api/assignments", map[string]any{
		"toolId": tool.ID, "locationId": loc.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var asg models.Assignment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &asg))

	// 授权用户申请破损归还
	w = doJSON(t, workerR, http.MethodPost, "/api/assignments/"+asg.ID+"/return-request", map[string]any{
		"condition": "damaged", "notes": "cracked housing",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err := e.repo.FindToolByID(ctx, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ToolInUse, got.Status)

	// 无授权用户连申请都发不出去
	stranger := &models.User{ID: uuid.NewString(), Username: "stranger", DisplayName: "stranger"}
	require.NoError(t, e.repo.CreateUser(ctx, stranger))
	w = doJSON(t, e.router(stranger), http.MethodPost, "/api/assignments/"+asg.ID+"/return-request", map[string]any{
		"condition": "good",
	})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// 管理员审批
	w = doJSON(t, adminR, http.MethodPost, "/api/assignments/"+asg.ID+"/approve-return", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	got, err = e.repo.FindToolByID(ctx, tool.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ToolDamaged, got.Status)

	// 晚到的第二次审批返回 409
	w = doJSON(t, adminR, http.MethodPost, "/api/assignments/"+asg.ID+"/approve-return", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestRejectFlowOverHTTP(t *testing.T) {
	e := newFlowEnv(t)
	ctx := context.Background()

	loc := &models.Location{ID: uuid.NewString(), Name: "site B"}
	require.NoError(t, e.repo.CreateLocation(ctx, loc))
	require.NoError(t, e.repo.GrantLocation(ctx, e.worker.ID, loc.ID))
	tool, err := e.repo.CreateTool(ctx, &models.Tool{Name: "saw"}, e.admin.ID)
	require.NoError(t, err)

	adminR := e.router(e.admin)
	workerR := e.router(e.worker)

	w := doJSON(t, adminR, http.MethodPost, "/api/assignments", map[string]any{
		"toolId": tool.ID, "locationId": loc.ID,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var asg models.Assignment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &asg))

	w = doJSON(t, workerR, http.MethodPost, "/api/assignments/"+asg.ID+"/return-request", map[string]any{
		"condition": "maintenance", "notes": "blade dull",
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, adminR, http.MethodPost, "/api/assignments/"+asg.ID+"/reject-return", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var out models.Assignment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	assert.Equal(t, models.ReturnActive, out.ReturnStatus)
	assert.Nil(t, out.ReturnCondition)
	assert.Empty(t, out.ReturnNotes)

	// 缺备注的申请被挡在 400
	w = doJSON(t, workerR, http.MethodPost, "/api/assignments/"+asg.ID+"/return-request", map[string]any{
		"condition": "damaged",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
