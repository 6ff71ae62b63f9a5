package controllers

import (
	"errors"
	"net/http"

	"github.com/bellapacxx/bingo-hall/game"
	"github.com/bellapacxx/bingo-hall/services"
	"github.com/bellapacxx/bingo-hall/utils/logger"
	"github.com/gin-gonic/gin"
)

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrTableNotFound),
		errors.Is(err, game.ErrCardNotFound),
		errors.Is(err, game.ErrPatternNotFound):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidCard),
		errors.Is(err, game.ErrInvalidSettings),
		errors.Is(err, game.ErrInvalidPattern):
		return http.StatusUnprocessableEntity
	case errors.Is(err, game.ErrNotAWinner):
		return http.StatusOK
	case errors.Is(err, game.ErrEmptyPool),
		errors.Is(err, game.ErrNotPlaying),
		errors.Is(err, game.ErrInvalidState),
		errors.Is(err, game.ErrIllegalTransition),
		errors.Is(err, game.ErrNotConfigured),
		errors.Is(err, game.ErrAlreadyWon),
		errors.Is(err, game.ErrCardLocked),
		errors.Is(err, game.ErrDuplicateCard),
		errors.Is(err, services.ErrTableConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("[API] %s %s: %v", c.Request.Method, c.FullPath(), err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
