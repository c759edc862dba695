package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignatzorin/escrow-backend/internal/dto"
	"github.com/ignatzorin/escrow-backend/internal/http/handlers/common"
	"github.com/ignatzorin/escrow-backend/internal/service"
)

// RevisionHandler предоставляет HTTP слой сдач работы и запросов правок.
type RevisionHandler struct {
	revisions *service.RevisionService
}

// NewRevisionHandler создаёт хэндлер.
func NewRevisionHandler(revisions *service.RevisionService) *RevisionHandler {
	return &RevisionHandler{revisions: revisions}
}

// Submit обрабатывает POST /jobs/:id/revisions — сдачу работы фрилансером.
func (h *RevisionHandler) Submit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req dto.SubmitRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	rev, err := h.revisions.Submit(c.Request.Context(), service.SubmitInput{
		JobID:          jobID,
		ActorID:        userID,
		ArtifactHash:   req.ArtifactHash,
		ArtifactCommit: req.ArtifactCommit,
		Notes:          req.Notes,
	})
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"revision": rev})
}

// Request обрабатывает POST /jobs/:id/revisions/request — запрос правки.
func (h *RevisionHandler) Request(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req dto.RequestRevisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.revisions.RequestRevision(c.Request.Context(), jobID, userID, req.Notes)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": job})
}

// List обрабатывает GET /jobs/:id/revisions.
func (h *RevisionHandler) List(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	revisions, err := h.revisions.ListRevisions(c.Request.Context(), jobID, userID)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"revisions": revisions})
}
