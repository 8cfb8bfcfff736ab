package handler

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/idaliopessoa/idDigital/model"
	"github.com/idaliopessoa/idDigital/pkg/logger"
	"github.com/idaliopessoa/idDigital/pkg/sentinel"
	"github.com/idaliopessoa/idDigital/service"
)

// DocumentLoader loads one document record through the cache-first pipeline
type DocumentLoader interface {
	Load(ctx context.Context, documentID string) (*model.DocumentRecord, error)
}

// AssetResolver mints read URLs for mirrored capture images
type AssetResolver interface {
	PresignedURL(ctx context.Context, objectName string) (string, error)
}

type DocumentHandler struct {
	loader DocumentLoader
	assets AssetResolver // optional; nil leaves refs untouched
	store  service.DocumentStore
}

func NewDocumentHandler(loader DocumentLoader, assets AssetResolver, store service.DocumentStore) *DocumentHandler {
	return &DocumentHandler{
		loader: loader,
		assets: assets,
		store:  store,
	}
}

// Get loads a document for the card viewer, fetching from Certfy on first
// sight. Upstream diagnostic detail stays in the logs; the client gets a
// generic message per failure kind.
func (h *DocumentHandler) Get(c *gin.Context) {
	documentID := c.Param("id")
	if documentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Document ID is required"})
		return
	}

	record, err := h.loader.Load(c.Request.Context(), documentID)
	if err != nil {
		logger.Error(c.Request.Context(), "document load failed", "document_id", documentID, "error", err)
		status, message := statusForError(err)
		c.JSON(status, gin.H{"error": message})
		return
	}

	h.resolveAssetURLs(c.Request.Context(), record)

	c.JSON(http.StatusOK, record)
}

// GetCached reports whether a document is already in the cache without
// touching Certfy.
func (h *DocumentHandler) GetCached(c *gin.Context) {
	documentID := c.Param("id")
	if documentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Document ID is required"})
		return
	}

	exists, err := h.store.Exists(c.Request.Context(), documentID)
	if err != nil {
		logger.Error(c.Request.Context(), "cache probe failed", "document_id", documentID, "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Document store is unavailable"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":     documentID,
		"cached": exists,
	})
}

// resolveAssetURLs swaps mirrored object names for presigned read URLs.
// Upstream http(s) refs pass through untouched.
func (h *DocumentHandler) resolveAssetURLs(ctx context.Context, record *model.DocumentRecord) {
	if h.assets == nil {
		return
	}

	for _, ref := range []*string{&record.FaceImage, &record.SignatureImage} {
		if *ref == "" || strings.HasPrefix(*ref, "http") {
			continue
		}
		url, err := h.assets.PresignedURL(ctx, *ref)
		if err != nil {
			logger.Warn(ctx, "failed to presign asset", "object", *ref, "error", err)
			continue
		}
		*ref = url
	}
}

func statusForError(err error) (int, string) {
	switch {
	case errors.Is(err, sentinel.ErrNotFoundUpstream):
		return http.StatusNotFound, "Document not found in the source system"
	case errors.Is(err, sentinel.ErrStoreUnavailable):
		return http.StatusServiceUnavailable, "Document store is unavailable, please try again"
	case errors.Is(err, sentinel.ErrAuthFailure), errors.Is(err, sentinel.ErrFetchFailure):
		return http.StatusBadGateway, "Failed to fetch document from the source system"
	case errors.Is(err, sentinel.ErrInconsistentCache):
		return http.StatusInternalServerError, "Document store returned inconsistent results"
	default:
		return http.StatusInternalServerError, "Failed to load document"
	}
}
