package httpapi

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ironsheep/logo-gallery/internal/features"
	"github.com/ironsheep/logo-gallery/internal/guard"
	"github.com/ironsheep/logo-gallery/internal/models"
	"github.com/ironsheep/logo-gallery/internal/store"
)

// multipartOverhead is allowed on top of the file cap for the other form
// fields and multipart framing.
const multipartOverhead = 64 << 10

// LogoHandler serves the logo routes.
type LogoHandler struct {
	Guard  *guard.Guard
	Store  store.Store
	Logger *zap.Logger
}

// UploadResponse is returned for an accepted upload.
type UploadResponse struct {
	Message string       `json:"message"`
	Logo    *models.Logo `json:"logo"`
}

// ErrorResponse is returned for every failure.
type ErrorResponse struct {
	Error          string                `json:"error"`
	Reason         string                `json:"reason,omitempty"`
	SimilarityInfo *guard.SimilarityInfo `json:"similarityInfo,omitempty"`
}

// Upload handles multipart logo uploads.
func (h *LogoHandler) Upload(c *gin.Context) {
	data, filename, ok := h.readFile(c)
	if !ok {
		return
	}

	up := guard.Upload{
		OwnerID:     c.GetString(ownerKey),
		Filename:    filename,
		Data:        data,
		Title:       c.PostForm("title"),
		Description: c.PostForm("description"),
		Tags:        splitTags(c.PostFormArray("tags")),
		Width:       c.PostForm("width"),
		Height:      c.PostForm("height"),
	}

	logo, err := h.Guard.Submit(c.Request.Context(), up)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, UploadResponse{
		Message: "Logo uploaded successfully",
		Logo:    logo,
	})
}

// Check reports whether the uploaded file would be accepted, without storing it.
func (h *LogoHandler) Check(c *gin.Context) {
	data, _, ok := h.readFile(c)
	if !ok {
		return
	}

	decision, err := h.Guard.Preview(c.Request.Context(), c.GetString(ownerKey), data)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

// GetLogo returns one logo by ID.
func (h *LogoHandler) GetLogo(c *gin.Context) {
	logo, err := h.Store.GetLogo(c.Request.Context(), c.Param("id"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "Logo not found"})
		return
	}
	if err != nil {
		writeError(c, &guard.StorageError{Op: "get logo", Err: err})
		return
	}
	c.JSON(http.StatusOK, logo)
}

// ListLogos returns every logo, or the logos of ?owner= when set.
func (h *LogoHandler) ListLogos(c *gin.Context) {
	var (
		logos []models.Logo
		err   error
	)
	if owner := strings.TrimSpace(c.Query("owner")); owner != "" {
		logos, err = h.Store.ListLogosByOwner(c.Request.Context(), owner)
	} else {
		logos, err = h.Store.ListLogos(c.Request.Context())
	}
	if err != nil {
		writeError(c, &guard.StorageError{Op: "list logos", Err: err})
		return
	}
	if logos == nil {
		logos = []models.Logo{}
	}
	c.JSON(http.StatusOK, gin.H{"logos": logos, "count": len(logos)})
}

// FeaturesResponse is returned by the feature diagnostics route.
type FeaturesResponse struct {
	ContentHash string                  `json:"contentHash"`
	MimeType    string                  `json:"mimeType"`
	Features    *features.ImageFeatures `json:"features"`
}

// Features extracts and returns the features of an uploaded file.
func (h *LogoHandler) Features(c *gin.Context) {
	data, _, ok := h.readFile(c)
	if !ok {
		return
	}

	if limit := h.Guard.Limits().MaxBytes; int64(len(data)) > limit {
		writeError(c, &guard.ValidationError{
			Reason:  guard.ReasonInvalidSize,
			Message: fmt.Sprintf("file exceeds the %d byte limit", limit),
		})
		return
	}

	format := features.SniffFormat(data)
	if format == "" {
		writeError(c, &guard.ValidationError{Reason: guard.ReasonInvalidType, Message: "only PNG, JPEG and SVG images are accepted"})
		return
	}

	f, err := features.ExtractWithLimit(data, h.Guard.Limits().MaxPixels)
	if err != nil {
		reason := guard.ReasonInvalidType
		if errors.Is(err, features.ErrInvalidDimensions) {
			reason = guard.ReasonInvalidDimensions
		}
		writeError(c, &guard.ValidationError{Reason: reason, Message: err.Error(), Cause: err})
		return
	}

	c.JSON(http.StatusOK, FeaturesResponse{
		ContentHash: guard.ContentHash(data),
		MimeType:    guard.MimeType(format),
		Features:    f,
	})
}

// readFile reads the "file" form field, bounded by the upload cap. It writes
// the error response itself and reports false on failure.
func (h *LogoHandler) readFile(c *gin.Context) ([]byte, string, bool) {
	maxBytes := h.Guard.Limits().MaxBytes
	tooLarge := &guard.ValidationError{
		Reason:  guard.ReasonInvalidSize,
		Message: fmt.Sprintf("file exceeds the %d byte limit", maxBytes),
	}
	if c.Request.ContentLength > maxBytes+multipartOverhead {
		writeError(c, tooLarge)
		return nil, "", false
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+multipartOverhead)

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(c, tooLarge)
			return nil, "", false
		}
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "No file uploaded", Reason: string(guard.ReasonInvalidMetadata)})
		return nil, "", false
	}
	defer file.Close()

	// One byte past the cap is enough for the guard to reject the size.
	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "Failed to read uploaded file"})
		return nil, "", false
	}
	return data, header.Filename, true
}

func splitTags(values []string) []string {
	var tags []string
	for _, v := range values {
		for _, tag := range strings.Split(v, ",") {
			if tag = strings.TrimSpace(tag); tag != "" {
				tags = append(tags, tag)
			}
		}
	}
	return tags
}
