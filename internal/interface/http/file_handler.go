package handlers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhub/internal/application"
	"github.com/oksasatya/taskhub/pkg/response"
)

type FileHandler struct {
	Files    *application.FileService
	MaxBytes int64
	Logger   *logrus.Logger
}

func NewFileHandler(files *application.FileService, maxBytes int64, logger *logrus.Logger) *FileHandler {
	return &FileHandler{Files: files, MaxBytes: maxBytes, Logger: logger}
}

type upload struct {
	application.Upload
	file multipart.File
}

func (u upload) close() { _ = u.file.Close() }

// formFile opens the multipart field, capping the request body at maxBytes
// plus a little room for the multipart framing.
func formFile(c *gin.Context, field string, maxBytes int64) (upload, bool) {
	if maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+1<<20)
	}
	fh, err := c.FormFile(field)
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			response.Error[any](c, http.StatusRequestEntityTooLarge, application.ErrFileTooLarge.Error(), nil)
			return upload{}, false
		}
		response.Error[any](c, http.StatusBadRequest, "invalid payload", map[string]string{field: "is required"})
		return upload{}, false
	}
	if maxBytes > 0 && fh.Size > maxBytes {
		response.Error[any](c, http.StatusRequestEntityTooLarge, application.ErrFileTooLarge.Error(), nil)
		return upload{}, false
	}
	f, err := fh.Open()
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "unreadable file", nil)
		return upload{}, false
	}
	return upload{
		Upload: application.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Size:        fh.Size,
			Body:        f,
		},
		file: f,
	}, true
}

// Upload POST /api/files (multipart field "file")
func (h *FileHandler) Upload(c *gin.Context) {
	up, ok := formFile(c, "file", h.MaxBytes)
	if !ok {
		return
	}
	defer up.close()
	att, err := h.Files.Upload(c.Request.Context(), actorOf(c), up.Upload)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, att, "file uploaded", nil)
}

// AttachToTask POST /api/tasks/:id/attachments
func (h *FileHandler) AttachToTask(c *gin.Context) {
	up, ok := formFile(c, "file", h.MaxBytes)
	if !ok {
		return
	}
	defer up.close()
	t, err := h.Files.AttachToTask(c.Request.Context(), actorOf(c), c.Param("id"), up.Upload)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusCreated, t, "attachment added", nil)
}
