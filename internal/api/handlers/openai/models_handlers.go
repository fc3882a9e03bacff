package openai

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/lzA6/noupe2api/internal/registry"
)

// ModelsResponse is the OpenAI model-list envelope.
type ModelsResponse struct {
	Object string           `json:"object"`
	Data   []registry.Model `json:"data"`
}

// Models handles GET /v1/models with the configured model list.
func (h *OpenAIAPIHandler) Models(c *gin.Context) {
	_, _, models := h.Snapshot()
	c.JSON(http.StatusOK, ModelsResponse{
		Object: "list",
		Data:   models.List(),
	})
}
