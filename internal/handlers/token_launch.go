package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"tokenlaunch/internal/launch"
	"tokenlaunch/internal/models"
	"tokenlaunch/pkg/config"
)

// MaxLogoBytes bounds the uploaded logo.
const MaxLogoBytes = 5 << 20

// Launcher runs one launch intent.
type Launcher interface {
	Launch(ctx context.Context, intent launch.Intent) (*launch.Result, error)
}

// LaunchStore reads persisted launches.
type LaunchStore interface {
	FindByMint(ctx context.Context, mint string) (*models.TokenLaunch, error)
	List(ctx context.Context, q launch.ListQuery) ([]models.TokenLaunch, int64, error)
}

// QueuePublisher enqueues launches for the worker.
type QueuePublisher interface {
	Publish(queueName string, message interface{}) error
}

// TokenLaunchHandler serves the token launch endpoints. Queue may be nil,
// in which case async submission is refused.
type TokenLaunchHandler struct {
	Launcher Launcher
	Store    LaunchStore
	Queue    QueuePublisher
}

// sanitizeString removes null bytes and invalid UTF-8.
func sanitizeString(s string) string {
	s = strings.ReplaceAll(s, "\x00", "")
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, " ")
	}
	return strings.TrimSpace(s)
}

// statusForKind maps a launch failure onto an HTTP status.
func statusForKind(kind launch.Kind) int {
	switch kind {
	case launch.KindConfiguration:
		return http.StatusBadRequest
	case launch.KindPrecondition, launch.KindInsufficientFunds, launch.KindSimulationFailed:
		return http.StatusUnprocessableEntity
	case launch.KindUpload:
		return http.StatusBadGateway
	case launch.KindCancelled:
		return http.StatusConflict
	case launch.KindNetworkCongestion:
		return http.StatusServiceUnavailable
	case launch.KindConfirmation:
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (h *TokenLaunchHandler) parseIntentRequest(c *gin.Context) (*launch.IntentRequest, error) {
	var req launch.IntentRequest
	raw := c.PostForm("intent")
	if raw == "" {
		return nil, errors.New("intent field is required")
	}
	if err := json.Unmarshal([]byte(raw), &req); err != nil {
		return nil, fmt.Errorf("invalid intent: %w", err)
	}

	for _, field := range []*string{
		&req.Name, &req.Symbol, &req.Description, &req.Website, &req.Twitter,
		&req.Telegram, &req.Discord, &req.CreatorName, &req.CreatorWebsite,
	} {
		*field = sanitizeString(*field)
	}

	file, err := c.FormFile("logo")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return &req, nil
		}
		return nil, fmt.Errorf("invalid logo: %w", err)
	}
	if file.Size > MaxLogoBytes {
		return nil, fmt.Errorf("logo must be at most %d bytes", MaxLogoBytes)
	}

	f, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to read logo: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, MaxLogoBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read logo: %w", err)
	}
	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	req.Logo = &launch.Logo{FileName: file.Filename, ContentType: contentType, Data: data}
	return &req, nil
}

// CreateTokenLaunch launches a token from a multipart form holding a JSON
// "intent" field and a "logo" file. With async=true the launch is queued.
func (h *TokenLaunchHandler) CreateTokenLaunch(c *gin.Context) {
	req, err := h.parseIntentRequest(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	intent, err := req.ToIntent()
	if err == nil {
		err = launch.Validate(intent)
	}
	if err != nil {
		h.writeLaunchError(c, err)
		return
	}

	if c.Query("async") == "true" {
		h.enqueue(c, *req)
		return
	}

	result, err := h.Launcher.Launch(c.Request.Context(), intent)
	if err != nil {
		h.writeLaunchError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *TokenLaunchHandler) enqueue(c *gin.Context, req launch.IntentRequest) {
	if h.Queue == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Async launches are not enabled"})
		return
	}

	msg := launch.QueuedRequest{
		RequestID:   uuid.NewString(),
		Intent:      req,
		SubmittedAt: time.Now().UTC(),
	}
	if err := h.Queue.Publish(config.LaunchRequestQueue, msg); err != nil {
		log.WithError(err).Error("Failed to enqueue token launch")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue token launch"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status":     "queued",
		"request_id": msg.RequestID,
	})
}

func (h *TokenLaunchHandler) writeLaunchError(c *gin.Context, err error) {
	kind := launch.KindOf(err)
	c.JSON(statusForKind(kind), gin.H{
		"error":     err.Error(),
		"kind":      kind,
		"retryable": kind.Retryable(),
	})
}

// ListTokenLaunches returns a page of launches.
func (h *TokenLaunchHandler) ListTokenLaunches(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	q := launch.ListQuery{
		Page:       page,
		PageSize:   pageSize,
		OrderField: c.DefaultQuery("order_field", "created_at"),
		OrderType:  c.DefaultQuery("order_type", "desc"),
		Protocol:   c.Query("protocol"),
		Network:    c.Query("network"),
		Payer:      c.Query("payer"),
	}.Normalize()

	rows, totalCount, err := h.Store.List(c.Request.Context(), q)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	totalPages := int(math.Ceil(float64(totalCount) / float64(q.PageSize)))
	c.JSON(http.StatusOK, gin.H{
		"data": rows,
		"pagination": gin.H{
			"page":        q.Page,
			"page_size":   q.PageSize,
			"total_count": totalCount,
			"total_pages": totalPages,
			"has_next":    q.Page < totalPages,
			"has_prev":    q.Page > 1,
		},
		"sorting": gin.H{
			"order_field": q.OrderField,
			"order_type":  q.OrderType,
		},
	})
}

// GetTokenLaunch returns the launch of one mint.
func (h *TokenLaunchHandler) GetTokenLaunch(c *gin.Context) {
	row, err := h.Store.FindByMint(c.Request.Context(), c.Param("mint"))
	if errors.Is(err, launch.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Token launch not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, row)
}
