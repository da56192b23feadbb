package routes

import (
	"time"

	"toolhub/app"
	"toolhub/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	// 控制器与依赖
	s := controllers.GetSrv(a)
	uc := controllers.GetUserController(s)
	toolCtl := controllers.NewToolController(s)
	asgCtl := controllers.NewAssignmentController(s)
	retCtl := controllers.NewReturnController(s)
	reqCtl := controllers.NewRequestController(s)
	evCtl := controllers.NewEventController(s)

	// 复用的中间件
	authMW := app.AuthRequired(a.AppSessions(), s.Repo)
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, 5*time.Minute)

	// ------------------------------
	// 会话（公开 + 受保护）
	// ------------------------------
	r.POST("/api/session", uc.Login)
	auth := r.Group("", authMW, seenMW)
	{
		auth.POST("/api/session/logout", uc.Logout)
		auth.GET("/api/whoami", uc.WhoAmI)
	}

	// ------------------------------
	// 工具（浏览对所有登录用户开放，写操作仅管理员）
	// ------------------------------
	tools := r.Group("/api/tools", authMW, seenMW)
	{
		tools.GET("", toolCtl.ListTools)
		tools.GET("/:id", toolCtl.GetTool)
		tools.GET("/:id/events", toolCtl.ListToolEvents)
		tools.GET("/:id/usage", toolCtl.Usage)
	}
	toolsAdmin := r.Group("/api/tools", authMW, adminMW)
	{
		toolsAdmin.POST("", toolCtl.CreateTool)
		toolsAdmin.PUT("/:id", toolCtl.UpdateTool)
		toolsAdmin.POST("/:id/status", toolCtl.SetStatus)
		toolsAdmin.POST("/:id/relocate", toolCtl.Relocate)
		toolsAdmin.POST("/:id/return-to-service", toolCtl.ReturnToService)
	}

	// ------------------------------
	// 保管与归还
	// ------------------------------
	asg := r.Group("/api/assignments", authMW, seenMW)
	{
		asg.GET("", asgCtl.List)
		asg.GET("/mine", asgCtl.ListMine)
		asg.POST("/:id/self-return", asgCtl.SelfReturn)
		asg.POST("/:id/return-request", retCtl.RequestReturn) // 可归还性在 controller 里判
	}
	asgAdmin := r.Group("/api/assignments", authMW, adminMW)
	{
		asgAdmin.POST("", asgCtl.Create)
		asgAdmin.POST("/:id/approve-return", retCtl.ApproveReturn)
		asgAdmin.POST("/:id/reject-return", retCtl.RejectReturn)
	}

	// ------------------------------
	// 工具申请队列
	// ------------------------------
	reqs := r.Group("/api/requests", authMW, seenMW)
	{
		reqs.POST("", reqCtl.Create)
		reqs.GET("", reqCtl.List)
		reqs.POST("/:id/cancel", reqCtl.Cancel)
	}
	reqsAdmin := r.Group("/api/requests", authMW, adminMW)
	{
		reqsAdmin.POST("/:id/approve", reqCtl.Approve)
		reqsAdmin.POST("/:id/reject", reqCtl.Reject)
		reqsAdmin.POST("/:id/fulfill", reqCtl.Fulfill)
	}

	// ------------------------------
	// 事件日志与统计
	// ------------------------------
	events := r.Group("/api/events", authMW, seenMW)
	{
		events.GET("", evCtl.List)
	}
	analytics := r.Group("/api/analytics", authMW, adminMW)
	{
		analytics.GET("/damage-costs", evCtl.DamageCosts)
	}

	// ------------------------------
	// 用户 / 人员 / 地点管理（仅管理员，浏览除外）
	// ------------------------------
	dir := r.Group("/api", authMW, seenMW)
	{
		dir.GET("/locations", uc.ListLocations)
		dir.GET("/people", uc.ListPeople)
	}
	dirAdmin := r.Group("/api", authMW, adminMW)
	{
		dirAdmin.GET("/users", uc.ListUsers)
		dirAdmin.POST("/locations", uc.CreateLocation)
		dirAdmin.POST("/people", uc.CreatePerson)
		dirAdmin.POST("/users/:id/locations/:locationId", uc.GrantLocation)
		dirAdmin.DELETE("/users/:id/locations/:locationId", uc.RevokeLocation)
	}
}
