package api

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/latifiss/oak/internal/models"
	"github.com/latifiss/oak/internal/storage"
)

const maxImageBytes = 8 << 20

// respondData writes a single-entity envelope.
func respondData(c *gin.Context, status int, data any, cached bool) {
	c.JSON(status, gin.H{
		"status": "success",
		"cached": cached,
		"data":   data,
	})
}

// respondList writes a listing envelope. The page also appears under "data"
// so listing and single-entity consumers can read the same member.
func respondList(c *gin.Context, results any, total int64, totalPages, currentPage int, cached bool) {
	c.JSON(http.StatusOK, gin.H{
		"status":      "success",
		"cached":      cached,
		"results":     results,
		"total":       total,
		"totalPages":  totalPages,
		"currentPage": currentPage,
		"data":        gin.H{"results": results},
	})
}

// respondError maps a service error onto an HTTP status. Client failures
// (4xx) report "fail", server errors report "error"; internal detail is only
// exposed in debug mode.
func (r *Router) respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		status = http.StatusBadRequest
		message = verr.Error()
	case errors.Is(err, models.ErrInvalidID):
		status = http.StatusBadRequest
		message = "invalid id format"
	case errors.Is(err, models.ErrNoFieldsToUpdate):
		status = http.StatusBadRequest
		message = "at least one field must be provided"
	case errors.Is(err, storage.ErrUnsupportedMimeType):
		status = http.StatusBadRequest
		message = "unsupported image type"
	case errors.Is(err, models.ErrNotFound):
		status = http.StatusNotFound
		message = "not found"
	case errors.Is(err, models.ErrAlreadyExists):
		status = http.StatusConflict
		message = "already exists"
	case errors.Is(err, models.ErrArticleLive):
		status = http.StatusConflict
		message = "article is in live coverage"
	case errors.Is(err, models.ErrWasLive):
		status = http.StatusConflict
		message = "article has already ended live coverage"
	default:
		if r.debug {
			message = err.Error()
		}
	}

	statusWord := "fail"
	if status >= http.StatusInternalServerError {
		statusWord = "error"
		c.Error(err)
	}
	c.JSON(status, gin.H{
		"status": statusWord,
		"error":  message,
	})
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{
		"status": "fail",
		"error":  msg,
	})
}

// readImage extracts the optional "image" upload from a multipart form.
// Returns nil when the request carries no image.
func readImage(c *gin.Context) (*storage.Upload, error) {
	header, err := c.FormFile("image")
	if err != nil {
		return nil, nil
	}
	if header.Size > maxImageBytes {
		return nil, models.Invalid("image", "image exceeds the size limit")
	}

	file, err := header.Open()
	if err != nil {
		return nil, models.Invalid("image", "unreadable image upload")
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return nil, models.Invalid("image", "unreadable image upload")
	}
	if len(data) > maxImageBytes {
		return nil, models.Invalid("image", "image exceeds the size limit")
	}

	return &storage.Upload{
		Data:     data,
		MimeType: header.Header.Get("Content-Type"),
	}, nil
}

func pageParams(c *gin.Context) (page, limit int) {
	page = intQuery(c, "page", models.DefaultPage)
	limit = intQuery(c, "limit", models.DefaultLimit)
	return page, limit
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
