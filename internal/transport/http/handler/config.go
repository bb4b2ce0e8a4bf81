package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/debarghya18/local-RAG/internal/app"
	"github.com/debarghya18/local-RAG/internal/transport/http/response"
)

type ConfigHandler struct {
	ragService *app.RAGService
}

func NewConfigHandler(ragService *app.RAGService) *ConfigHandler {
	return &ConfigHandler{ragService: ragService}
}

func (h *ConfigHandler) GetConfig(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	cfg, err := h.ragService.EnsureConfig(userID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch configuration failed")
		return
	}
	response.OK(c, cfg)
}

// ProviderStatus reports which embedding provider currently serves queries.
func (h *ConfigHandler) ProviderStatus(c *gin.Context) {
	status, err := h.ragService.ProviderStatus(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusServiceUnavailable, response.CodeProviderUnavailable, "embedding provider unavailable")
		return
	}
	response.OK(c, status)
}

// UpdateConfig takes a partial JSON object; only recognized keys are applied.
func (h *ConfigHandler) UpdateConfig(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid token payload")
		return
	}

	var updates map[string]interface{}
	if err := c.ShouldBindJSON(&updates); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	cfg, err := h.ragService.UpdateConfig(userID, updates)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "update configuration failed")
		}
		return
	}
	response.OK(c, cfg)
}
