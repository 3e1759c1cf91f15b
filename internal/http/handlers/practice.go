package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/http/response"
	"github.com/yungbote/skillforge-backend/internal/services"
)

type PracticeHandler struct {
	practice services.PracticeService
	maxBody  int64
}

func NewPracticeHandler(practice services.PracticeService, maxPhotoBytes int64) *PracticeHandler {
	if maxPhotoBytes <= 0 {
		maxPhotoBytes = services.DefaultPhotoServiceConfig().MaxBytes
	}
	return &PracticeHandler{practice: practice, maxBody: maxPhotoBytes/3*4 + 1<<20}
}

type completeSessionReq struct {
	Skill           string     `json:"skill"`
	Category        string     `json:"category"`
	Priority        string     `json:"priority"`
	DurationMinutes float64    `json:"duration_minutes"`
	StartedAt       *time.Time `json:"started_at"`
	EndedAt         *time.Time `json:"ended_at"`
	Photo           string     `json:"photo"`
}

// POST /api/practice/sessions
func (h *PracticeHandler) CompleteSession(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBody)
	var req completeSessionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}
	in := services.SessionInput{
		Skill:           req.Skill,
		Category:        req.Category,
		Priority:        req.Priority,
		DurationMinutes: req.DurationMinutes,
		IdempotencyKey:  idempotencyKey(c),
	}
	if req.StartedAt != nil {
		in.StartedAt = *req.StartedAt
	}
	if req.EndedAt != nil {
		in.EndedAt = *req.EndedAt
	}
	if req.Photo != "" {
		in.Photo = []byte(req.Photo)
	}

	out, err := h.practice.CompleteSession(c.Request.Context(), userID, in)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	payload := gin.H{
		"session":  out.Activity.Session,
		"activity": out.Activity,
	}
	if out.Photo != nil {
		payload["photo"] = out.Photo.Photo
	}
	if out.Activity.Replayed {
		response.RespondOK(c, payload)
		return
	}
	response.RespondCreated(c, payload)
}

// GET /api/practice/sessions?limit=50&offset=0
func (h *PracticeHandler) ListSessions(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	limit, offset := pageParams(c)
	sessions, err := h.practice.ListSessions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	if sessions == nil {
		sessions = []*types.PracticeSession{}
	}
	stats, err := h.practice.Stats(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"sessions": sessions, "stats": stats})
}
