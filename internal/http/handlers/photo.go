package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	types "github.com/yungbote/skillforge-backend/internal/domain"
	"github.com/yungbote/skillforge-backend/internal/http/response"
	"github.com/yungbote/skillforge-backend/internal/pkg/logger"
	"github.com/yungbote/skillforge-backend/internal/services"
)

type PhotoHandler struct {
	log      *logger.Logger
	photos   services.PhotoService
	practice services.PracticeService
	maxBytes int64
}

type PhotoHandlerDeps struct {
	Log      *logger.Logger
	Photos   services.PhotoService
	Practice services.PracticeService
	// MaxBytes caps the decoded image; request bodies may be larger to fit base64.
	MaxBytes int64
}

func NewPhotoHandler(deps PhotoHandlerDeps) *PhotoHandler {
	maxBytes := deps.MaxBytes
	if maxBytes <= 0 {
		maxBytes = services.DefaultPhotoServiceConfig().MaxBytes
	}
	return &PhotoHandler{
		log:      deps.Log.With("handler", "PhotoHandler"),
		photos:   deps.Photos,
		practice: deps.Practice,
		maxBytes: maxBytes,
	}
}

type uploadPhotoReq struct {
	ImageData    string         `json:"image_data"`
	TaskName     string         `json:"task_name"`
	TaskCategory string         `json:"task_category"`
	TaskPriority string         `json:"task_priority"`
	Extra        map[string]any `json:"extra"`
}

// bodyLimit leaves room for base64 expansion and form overhead.
func (h *PhotoHandler) bodyLimit() int64 {
	return h.maxBytes/3*4 + 1<<20
}

// POST /api/photos (JSON image_data or multipart file)
func (h *PhotoHandler) Upload(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.bodyLimit())

	var (
		raw  []byte
		meta types.TaskMetadata
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		fh, err := c.FormFile("file")
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
			return
		}
		f, err := fh.Open()
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
			return
		}
		raw, err = io.ReadAll(io.LimitReader(f, h.maxBytes+1))
		_ = f.Close()
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_multipart_form", err)
			return
		}
		meta = types.TaskMetadata{
			Name:     strings.TrimSpace(c.PostForm("task_name")),
			Category: strings.TrimSpace(c.PostForm("task_category")),
			Priority: strings.TrimSpace(c.PostForm("task_priority")),
		}
	} else {
		var req uploadPhotoReq
		if err := c.ShouldBindJSON(&req); err != nil {
			status := http.StatusBadRequest
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			response.RespondError(c, status, "invalid_request", err)
			return
		}
		raw = []byte(req.ImageData)
		meta = types.TaskMetadata{
			Name:     strings.TrimSpace(req.TaskName),
			Category: strings.TrimSpace(req.TaskCategory),
			Priority: strings.TrimSpace(req.TaskPriority),
			Extra:    req.Extra,
		}
	}
	if len(raw) == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_argument", errMissingField("image_data"))
		return
	}

	out, err := h.practice.CapturePhoto(c.Request.Context(), userID, raw, meta, idempotencyKey(c))
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	payload := gin.H{
		"photo":     out.Photo.Photo,
		"duplicate": out.Photo.Duplicate,
	}
	if out.Activity != nil {
		payload["activity"] = out.Activity
	}
	if out.ActivityError != "" {
		payload["activity_error"] = out.ActivityError
	}
	if out.Photo.Duplicate {
		response.RespondOK(c, payload)
		return
	}
	response.RespondCreated(c, payload)
}

// GET /api/photos?limit=50&offset=0
func (h *PhotoHandler) List(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	limit, offset := pageParams(c)
	photos, err := h.photos.ListByOwner(c.Request.Context(), userID, limit, offset)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	total, err := h.photos.CountByOwner(c.Request.Context(), userID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	if photos == nil {
		photos = []*types.Photo{}
	}
	response.RespondOK(c, gin.H{"photos": photos, "total": total})
}

// DELETE /api/photos/:id
func (h *PhotoHandler) Delete(c *gin.Context) {
	userID, ok := requestUserID(c)
	if !ok {
		return
	}
	photoID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_photo_id", err)
		return
	}
	deleted, err := h.photos.DeleteByOwnerAndID(c.Request.Context(), userID, photoID)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	response.RespondOK(c, gin.H{"deleted": deleted})
}

// GET /uploads/photos/:filename
func (h *PhotoHandler) Serve(c *gin.Context) {
	filename := strings.TrimSpace(c.Param("filename"))
	if filename == "" || strings.ContainsAny(filename, `/\`) {
		response.RespondError(c, http.StatusBadRequest, "invalid_filename", nil)
		return
	}
	rc, photo, err := h.photos.Open(c.Request.Context(), filename)
	if err != nil {
		response.RespondServiceError(c, err)
		return
	}
	defer rc.Close()
	// Stored bytes never change under a filename.
	c.DataFromReader(http.StatusOK, photo.SizeBytes, photo.ContentType, rc, map[string]string{
		"Cache-Control":          "public, max-age=31536000, immutable",
		"X-Content-Type-Options": "nosniff",
	})
}
