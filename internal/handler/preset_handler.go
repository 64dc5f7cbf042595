package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rmarek/headshot-service/internal/preset"
)

// PresetHandler serves the published preset catalog.
type PresetHandler struct{}

// NewPresetHandler creates a new PresetHandler.
func NewPresetHandler() *PresetHandler {
	return &PresetHandler{}
}

// List returns the available preset names and the default.
// Route: GET /api/v1/presets
func (h *PresetHandler) List(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"default": preset.DefaultName,
		"presets": preset.Names(),
	})
}

// Show returns the full resolved configuration for one preset, useful for
// clients building override payloads.
// Route: GET /api/v1/presets/:name
func (h *PresetHandler) Show(c *gin.Context) {
	name := c.Param("name")
	if !preset.Exists(name) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "unknown preset: " + name,
		})
		return
	}
	c.JSON(http.StatusOK, preset.Get(name))
}
