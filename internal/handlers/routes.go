package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/sjperalta/sacco-api/internal/middleware"
)

// RegisterRoutes mounts the API on v1. Officers run the day-to-day desk;
// bulk sends, reminders, job status and the audit trail are admin only.
// The gateway webhook authenticates with its own key instead of a token.
func RegisterRoutes(v1 *gin.RouterGroup, h *Handlers, tokens middleware.TokenParser, gatewayKey string) {
	// Health check (public)
	v1.GET("/health", h.Health.Check)

	// Gateway webhook
	v1.POST("/whatsapp/events", middleware.GatewayKey(gatewayKey), h.WhatsApp.Events)

	protected := v1.Group("")
	protected.Use(middleware.Auth(tokens))
	{
		protected.GET("/auth/me", h.Auth.Me)
		protected.POST("/auth/refresh", h.Auth.Refresh)

		members := protected.Group("/members")
		{
			members.GET("", h.Member.Index)
			members.POST("", h.Member.Create)
			members.GET("/:id", h.Member.Show)
			members.PUT("/:id", h.Member.Update)
			members.DELETE("/:id", middleware.RequireAdmin(), h.Member.Delete)
			members.GET("/:id/loans", h.Member.Loans)
			members.GET("/:id/transactions", h.Member.Transactions)
			members.GET("/:id/contributions", h.Member.Contributions)
			members.GET("/:id/messages", h.Member.Messages)
			members.GET("/:id/summary", h.Member.Summary)
			members.POST("/:id/message", h.Member.SendMessage)
		}

		transactions := protected.Group("/transactions")
		{
			transactions.GET("", h.Transaction.Index)
			transactions.POST("", h.Transaction.Create)
			transactions.GET("/:id", h.Transaction.Show)
		}

		contributions := protected.Group("/contributions")
		{
			contributions.GET("", h.Contribution.Index)
			contributions.POST("", h.Contribution.Create)
			contributions.GET("/:id", h.Contribution.Show)
		}

		// Static route first so "reminders" is not matched as :id
		loans := protected.Group("/loans")
		{
			loans.GET("", h.Loan.Index)
			loans.POST("", h.Loan.Create)
			loans.POST("/reminders", middleware.RequireAdmin(), h.Loan.Reminders)
			loans.GET("/:id", h.Loan.Show)
			loans.PUT("/:id", h.Loan.Update)
			loans.POST("/:id/payments", h.Loan.RecordPayment)
			loans.GET("/:id/schedule", h.Loan.Schedule)
			loans.GET("/:id/schedule.xlsx", h.Loan.ScheduleXLSX)
			loans.GET("/:id/statement.pdf", h.Loan.StatementPDF)
			loans.GET("/:id/statement/archived", h.Loan.ArchivedStatement)
			loans.GET("/:id/reminder", h.Loan.ReminderPreview)
		}

		messages := protected.Group("/messages")
		{
			messages.GET("", h.Message.Index)
			messages.POST("", h.Message.Create)
			messages.GET("/:id", h.Message.Show)
		}

		whatsapp := protected.Group("/whatsapp")
		{
			whatsapp.GET("/qr", h.WhatsApp.QR)
			whatsapp.GET("/status", h.WhatsApp.Status)
			whatsapp.GET("/stream", h.WhatsApp.Stream)
			whatsapp.POST("/send", h.WhatsApp.Send)
			whatsapp.POST("/bulk", middleware.RequireAdmin(), h.WhatsApp.Bulk)
		}

		protected.GET("/reports/transactions.csv", h.Transaction.ExportCSV)

		admin := protected.Group("")
		admin.Use(middleware.RequireAdmin())
		{
			admin.GET("/audits", h.Audit.Index)
			admin.GET("/jobs/status", h.Job.Status)
		}
	}
}
