package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupRouter(h *Handler) *gin.Engine {
	r := gin.New()

	r.Use(RecoveryMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api/v1")
	{
		users := api.Group("/users")
		{
			users.POST("/register", h.Register)
			users.GET("/:email", h.GetUser)
		}

		sess := api.Group("/session")
		{
			sess.GET("", h.GetSession)
			sess.POST("/login", h.Login)
			sess.POST("/logout", h.Logout)
		}

		tasks := api.Group("/tasks")
		{
			tasks.GET("", h.ListTasks)
			tasks.POST("/:id/complete", h.CompleteTask)
		}

		api.POST("/withdrawals", h.RequestWithdrawal)
		api.POST("/deposits", h.RequestDeposit)

		txs := api.Group("/transactions")
		{
			txs.GET("", h.ListTransactions)
			txs.GET("/:id", h.GetTransaction)
		}

		api.GET("/announcements", h.ListAnnouncements)

		admin := api.Group("/admin", RequireAdmin(h.engine))
		{
			admin.GET("/users", h.ListUsers)
			admin.DELETE("/users/:email", h.DeleteUser)
			admin.POST("/users/:email/adjust", h.AdjustBalance)

			admin.GET("/withdrawals", h.ListWithdrawals)
			admin.POST("/withdrawals/:id/approve", h.ApproveWithdrawal)
			admin.POST("/withdrawals/:id/reject", h.RejectWithdrawal)

			admin.GET("/deposits", h.ListDeposits)
			admin.POST("/deposits/:id/approve", h.ApproveDeposit)
			admin.POST("/deposits/:id/reject", h.RejectDeposit)

			admin.POST("/tasks", h.AddTask)
			admin.DELETE("/tasks/:id", h.DeleteTask)

			admin.POST("/announcements", h.AddAnnouncement)
			admin.DELETE("/announcements/:id", h.DeleteAnnouncement)
		}
	}

	return r
}
