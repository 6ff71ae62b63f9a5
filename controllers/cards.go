package controllers

import (
	"net/http"
	"strconv"

	"github.com/bellapacxx/bingo-hall/game"
	"github.com/gin-gonic/gin"
)

// CardHandler manages an owner's cards. Every write goes through the card
// store's validation.
type CardHandler struct {
	store *game.CardStore
}

func NewCardHandler(store *game.CardStore) *CardHandler {
	return &CardHandler{store: store}
}

type cardRequest struct {
	ID   string    `json:"id"`
	Grid game.Grid `json:"grid" binding:"required"`
}

func (h *CardHandler) Create(c *gin.Context) {
	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	card, err := h.store.Create(c.Request.Context(), c.Param("owner"), req.ID, req.Grid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, card)
}

type bulkRequest struct {
	Cards []game.CardInput `json:"cards" binding:"required,min=1"`
}

func (h *CardHandler) CreateBulk(c *gin.Context) {
	var req bulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cards, err := h.store.CreateBulk(c.Request.Context(), c.Param("owner"), req.Cards)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": len(cards), "cards": cards})
}

type generateRequest struct {
	Count int `json:"count" binding:"required,min=1,max=1000"`
	Start int `json:"start"`
}

// Generate creates count random cards numbered from start (default 1).
func (h *CardHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Start <= 0 {
		req.Start = 1
	}
	inputs := make([]game.CardInput, req.Count)
	for i := range inputs {
		inputs[i] = game.CardInput{ID: strconv.Itoa(req.Start + i), Grid: game.GenerateGrid(nil)}
	}
	cards, err := h.store.CreateBulk(c.Request.Context(), c.Param("owner"), inputs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": len(cards), "cards": cards})
}

func (h *CardHandler) List(c *gin.Context) {
	cards, err := h.store.ListByOwner(c.Request.Context(), c.Param("owner"))
	if err != nil {
		respondError(c, err)
		return
	}
	if cards == nil {
		cards = []game.Card{}
	}
	c.JSON(http.StatusOK, gin.H{"cards": cards})
}

func (h *CardHandler) Get(c *gin.Context) {
	card, err := h.store.Get(c.Request.Context(), c.Param("owner"), c.Param("card"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

type correctRequest struct {
	Grid game.Grid `json:"grid" binding:"required"`
}

// Correct is the administrative fix of a misprinted card.
func (h *CardHandler) Correct(c *gin.Context) {
	var req correctRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	card, err := h.store.Correct(c.Request.Context(), c.Param("owner"), c.Param("card"), req.Grid)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

func (h *CardHandler) Delete(c *gin.Context) {
	if err := h.store.Delete(c.Request.Context(), c.Param("owner"), c.Param("card")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
