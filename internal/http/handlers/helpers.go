package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/skillforge-backend/internal/http/response"
	"github.com/yungbote/skillforge-backend/internal/pkg/ctxutil"
)

const (
	headerIdempotencyKey = "Idempotency-Key"

	defaultPageSize = 50
	maxPageSize     = 200
)

// requestUserID writes a 401 and returns false when the request carries no user.
func requestUserID(c *gin.Context) (uuid.UUID, bool) {
	rd := ctxutil.GetRequestData(c.Request.Context())
	if rd == nil || rd.UserID == uuid.Nil {
		response.RespondError(c, http.StatusUnauthorized, "unauthorized", nil)
		return uuid.Nil, false
	}
	return rd.UserID, true
}

// GET ...?limit=50&offset=0
func pageParams(c *gin.Context) (limit, offset int) {
	limit = defaultPageSize
	if v := strings.TrimSpace(c.Query("limit")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if v := strings.TrimSpace(c.Query("offset")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			offset = n
		}
	}
	return limit, offset
}

func idempotencyKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(headerIdempotencyKey))
}

func errMissingField(name string) error {
	return fmt.Errorf("%s is required", name)
}
