package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/bellapacxx/bingo-hall/game"
	"github.com/bellapacxx/bingo-hall/services"
	"github.com/gin-gonic/gin"
)

// TableHandler drives table sessions: the cashier's console actions.
type TableHandler struct {
	hall  *services.Hall
	cards *game.CardStore
}

func NewTableHandler(hall *services.Hall, cards *game.CardStore) *TableHandler {
	return &TableHandler{hall: hall, cards: cards}
}

type openTableRequest struct {
	HouseID   string `json:"house_id" binding:"required"`
	AgentID   string `json:"agent_id"`
	CashierID string `json:"cashier_id" binding:"required"`
}

// Open creates the table if needed and returns its state.
func (h *TableHandler) Open(c *gin.Context) {
	var req openTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	t, err := h.hall.Open(c.Param("table"), game.Identity{
		HouseID:   req.HouseID,
		AgentID:   req.AgentID,
		CashierID: req.CashierID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t.State())
}

func (h *TableHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tables": h.hall.Snapshots()})
}

func (h *TableHandler) table(c *gin.Context) (*services.Table, bool) {
	t, err := h.hall.Table(c.Param("table"))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return t, true
}

func (h *TableHandler) State(c *gin.Context) {
	t, ok := h.table(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, t.State())
}

func (h *TableHandler) Configure(c *gin.Context) {
	t, ok := h.table(c)
	if !ok {
		return
	}
	var req game.Settings
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := t.Configure(req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t.State())
}

type autoRequest struct {
	Auto bool `json:"auto"`
}

// bindAuto reads the optional {"auto": bool} body. An empty body means a
// manual round; a malformed one is answered with 400 and reported false.
func bindAuto(c *gin.Context) (auto, ok bool) {
	var req autoRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return false, false
		}
	}
	return req.Auto, true
}

func (h *TableHandler) Start(c *gin.Context) {
	t, ok := h.table(c)
	if !ok {
		return
	}
	auto, ok := bindAuto(c)
	if !ok {
		return
	}
	if err := t.Start(auto); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t.State())
}

func (h *TableHandler) Draw(c *gin.Context) {
	t, ok := h.table(c)
	if !ok {
		return
	}
	n, err := t.Draw()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"number":     n,
		"letter":     string(game.ColumnLetter(game.ColumnOf(n))),
		"call_count": t.Session().CallCount(),
	})
}

// Pause also serves the stop button.
func (h *TableHandler) Pause(c *gin.Context) {
	t, ok := h.table(c)
	if !ok {
		return
	}
	if err := t.Pause(); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t.State())
}

func (h *TableHandler) Resume(c *gin.Context) {
	t, ok := h.table(c)
	if !ok {
		return
	}
	auto, ok := bindAuto(c)
	if !ok {
		return
	}
	if err := t.Resume(auto); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, t.State())
}

type claimRequest struct {
	CardID string `json:"card_id" binding:"required"`
}

// Claim submits a win claim. A card that does not satisfy the pattern gets
// 200 with winner=false; the round continues.
func (h *TableHandler) Claim(c *gin.Context) {
	t, ok := h.table(c)
	if !ok {
		return
	}
	var req claimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := t.Claim(c.Request.Context(), req.CardID)
	if err != nil {
		if statusFor(err) == http.StatusOK {
			c.JSON(http.StatusOK, gin.H{"winner": false, "reason": err.Error()})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"winner": true, "claim": res.Claim, "record": res.Record})
}

func (h *TableHandler) Reset(c *gin.Context) {
	t, ok := h.table(c)
	if !ok {
		return
	}
	t.Reset()
	c.JSON(http.StatusOK, t.State())
}

// Check shows how a card stands against the table's calls without making a
// claim.
func (h *TableHandler) Check(c *gin.Context) {
	t, ok := h.table(c)
	if !ok {
		return
	}
	s := t.Session()
	card, err := h.cards.Get(c.Request.Context(), s.Identity().HouseID, c.Param("card"))
	if err != nil {
		respondError(c, err)
		return
	}
	pattern := s.Pattern()
	if pattern.IsZero() {
		respondError(c, game.ErrNotConfigured)
		return
	}
	calls := s.History()
	c.JSON(http.StatusOK, gin.H{
		"card_id":      card.ID,
		"pattern":      pattern.Name(),
		"wins":         game.CheckWin(card, calls, pattern),
		"completed_at": game.CompletedAt(card, calls, pattern),
		"marked":       game.MarkedCells(card, calls),
		"call_count":   len(calls),
	})
}

// Patterns lists the configured win patterns with their cells.
func (h *TableHandler) Patterns(c *gin.Context) {
	lib := h.hall.Patterns()
	type patternView struct {
		Name   string     `json:"name"`
		Shapes [][]string `json:"shapes"`
	}
	out := make([]patternView, 0)
	for _, name := range lib.Names() {
		p, _ := lib.Get(name)
		view := patternView{Name: name}
		for _, shape := range p.Shapes() {
			cells := make([]string, 0, len(shape))
			for _, cell := range shape {
				cells = append(cells, cell.String())
			}
			view.Shapes = append(view.Shapes, cells)
		}
		out = append(out, view)
	}
	c.JSON(http.StatusOK, gin.H{"patterns": out})
}
