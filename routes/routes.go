package routes

import (
	"github.com/bellapacxx/bingo-hall/controllers"
	"github.com/bellapacxx/bingo-hall/services"
	"github.com/gin-gonic/gin"
)

// Handlers groups the controllers mounted by SetupRoutes.
type Handlers struct {
	Hall    *services.Hall
	Tables  *controllers.TableHandler
	Cards   *controllers.CardHandler
	Reports *controllers.ReportHandler
}

func SetupRoutes(r *gin.Engine, h Handlers) {
	api := r.Group("/api")

	// ----------------------
	// Table routes
	// ----------------------
	api.GET("/patterns", h.Tables.Patterns)
	api.GET("/tables", h.Tables.List)
	tables := api.Group("/tables/:table")
	tables.POST("", h.Tables.Open)
	tables.GET("", h.Tables.State)
	tables.POST("/configure", h.Tables.Configure)
	tables.POST("/start", h.Tables.Start)
	tables.POST("/draw", h.Tables.Draw)
	tables.POST("/pause", h.Tables.Pause)
	tables.POST("/stop", h.Tables.Pause)
	tables.POST("/resume", h.Tables.Resume)
	tables.POST("/claim", h.Tables.Claim)
	tables.POST("/reset", h.Tables.Reset)
	tables.GET("/cards/:card/check", h.Tables.Check)

	// ----------------------
	// Card routes
	// ----------------------
	cards := api.Group("/owners/:owner/cards")
	cards.POST("", h.Cards.Create)
	cards.POST("/bulk", h.Cards.CreateBulk)
	cards.POST("/generate", h.Cards.Generate)
	cards.GET("", h.Cards.List)
	cards.GET("/:card", h.Cards.Get)
	cards.PUT("/:card", h.Cards.Correct)
	cards.DELETE("/:card", h.Cards.Delete)

	// ----------------------
	// Report routes
	// ----------------------
	reports := api.Group("/reports")
	reports.GET("/cashiers/:cashier", h.Reports.ByCashier)
	reports.GET("/houses/:house", h.Reports.ByHouse)
	reports.GET("/houses/:house/monthly", h.Reports.Monthly)
	reports.GET("/agents/:agent", h.Reports.ByAgent)

	// WebSocket table screens
	r.GET("/ws/:table", h.Hall.HandleWebSocket)
}
