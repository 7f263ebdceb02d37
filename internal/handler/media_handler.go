package handler

import (
	"io"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"lead-workflow/internal/logger"
	"lead-workflow/internal/services"
)

type MediaHandler struct {
	media    *services.MediaService
	maxBytes int64
	log      logger.Logger
}

func NewMediaHandler(media *services.MediaService, maxBytes int64, log logger.Logger) *MediaHandler {
	return &MediaHandler{media: media, maxBytes: maxBytes, log: log.With("component", "media_handler")}
}

// Upload stores every file of the "files" field. Per-file failures are
// reported in the result list; with strict=true any failure turns the
// response into a 502.
func (h *MediaHandler) Upload(c *gin.Context) {
	if h.maxBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxBytes)
	}
	form, err := c.MultipartForm()
	if err != nil {
		respondMessage(c, http.StatusBadRequest, false, "Invalid multipart form")
		return
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		respondMessage(c, http.StatusBadRequest, false, "No files provided")
		return
	}

	files := make([]services.UploadFile, 0, len(headers))
	for _, fh := range headers {
		files = append(files, uploadFileFromHeader(fh))
	}
	results := h.media.Upload(c.Request.Context(), c.PostForm("folder"), files)

	strict, _ := strconv.ParseBool(c.DefaultQuery("strict", c.PostForm("strict")))
	if strict && !services.AllUploaded(results) {
		c.JSON(http.StatusBadGateway, gin.H{
			"success": false,
			"message": "One or more files failed to upload",
			"files":   results,
		})
		return
	}
	respondOK(c, http.StatusOK, gin.H{"count": len(results), "files": results})
}

func uploadFileFromHeader(fh *multipart.FileHeader) services.UploadFile {
	return services.UploadFile{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Open: func() (io.ReadCloser, error) {
			return fh.Open()
		},
	}
}
