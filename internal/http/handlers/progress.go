package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillforge-backend/internal/http/response"
	"github.com/yungbote/skillforge-backend/internal/services"
)

type ProgressHandler struct {
	progress services.ProgressService
}

func NewProgressHandler(progress services.ProgressService) *ProgressHandler {
	return &ProgressHandler{progress: progress}
}

// GET /api/progress
func (h *ProgressHandler) GetProgress(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	snap, err := h.progress.GetProgress(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"progress": snap})
}

type recordActivityReq struct {
	Source string `json:"source"`
}

// POST /api/progress/activity
func (h *ProgressHandler) RecordActivity(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	var req recordActivityReq
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}
	out, err := h.progress.RecordActivity(c.Request.Context(), userID, services.ActivityInput{
		Source:         req.Source,
		IdempotencyKey: idempotencyKey(c),
	})
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"activity": out})
}

type awardXPReq struct {
	Amount *int `json:"amount"`
}

// POST /api/progress/xp
func (h *ProgressHandler) AwardXP(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	var req awardXPReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	if req.Amount == nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", errMissingField("amount"))
		return
	}
	out, err := h.progress.AwardXP(c.Request.Context(), userID, *req.Amount)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": out})
}

// POST /api/achievements/evaluate
func (h *ProgressHandler) EvaluateAchievements(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	out, err := h.progress.EvaluateAchievements(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"result": out})
}

// GET /api/achievements
func (h *ProgressHandler) ListAchievements(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	list, err := h.progress.ListAchievements(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	earned := 0
	for _, a := range list {
		if a.Earned {
			earned++
		}
	}
	response.RespondOK(c, gin.H{"achievements": list, "earned": earned, "total": len(list)})
}
