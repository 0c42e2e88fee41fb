package handlers

import (
	"net/http"

	"gym_club_backend/internal/sweeper"

	"github.com/gin-gonic/gin"
)

// AdminHandler exposes operational endpoints for administrators.
type AdminHandler struct {
	sweeper *sweeper.Sweeper
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(sw *sweeper.Sweeper) *AdminHandler {
	return &AdminHandler{sweeper: sw}
}

// RunSweeps triggers a maintenance pass immediately instead of waiting for
// the next scheduled tick.
func (h *AdminHandler) RunSweeps(c *gin.Context) {
	result := h.sweeper.RunOnce()
	c.JSON(http.StatusOK, result)
}
