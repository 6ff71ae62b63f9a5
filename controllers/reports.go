package controllers

import (
	"net/http"
	"time"

	"github.com/bellapacxx/bingo-hall/services"
	"github.com/gin-gonic/gin"
)

// ReportHandler serves the aggregation queries over finished games.
type ReportHandler struct {
	reports *services.Reports
}

func NewReportHandler(reports *services.Reports) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// ByCashier returns a cashier's games, limited to one day when ?date=
// (YYYY-MM-DD) is given.
func (h *ReportHandler) ByCashier(c *gin.Context) {
	cashier := c.Param("cashier")
	if date := c.Query("date"); date != "" {
		day, err := time.Parse(time.DateOnly, date)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid date, want YYYY-MM-DD"})
			return
		}
		rep, err := h.reports.ByDateAndUser(c.Request.Context(), day, cashier)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, rep)
		return
	}
	rep, err := h.reports.ByUser(c.Request.Context(), cashier)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *ReportHandler) ByHouse(c *gin.Context) {
	rep, err := h.reports.ByHouse(c.Request.Context(), c.Param("house"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

func (h *ReportHandler) ByAgent(c *gin.Context) {
	rep, err := h.reports.ByAgent(c.Request.Context(), c.Param("agent"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}

// Monthly takes ?month=YYYY-MM and defaults to the current month.
func (h *ReportHandler) Monthly(c *gin.Context) {
	month := time.Now().UTC()
	if m := c.Query("month"); m != "" {
		parsed, err := time.Parse("2006-01", m)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid month, want YYYY-MM"})
			return
		}
		month = parsed
	}
	rep, err := h.reports.MonthlyStats(c.Request.Context(), c.Param("house"), month.Year(), month.Month())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rep)
}
