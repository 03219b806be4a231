package handlers

import (
	"bytes"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	sheetqueue "github.com/ideamans/go-sheetqueue"
	"github.com/ideamans/go-sheetqueue/adapters/excel"
	"github.com/ideamans/go-sheetqueue/internal/validation"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HandlerConfig groups dependencies for the queue handler.
type HandlerConfig struct {
	Client  *sheetqueue.Client
	Monitor *sheetqueue.Monitor
	Logger  *slog.Logger
}

// RegisterQueueRoutes registers routes for the queue API.
func RegisterQueueRoutes(r *gin.Engine, cfg HandlerConfig) {
	v := validation.New()
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	client := cfg.Client

	r.GET("/queue", func(c *gin.Context) {
		var q validation.QueueQuery
		if err := validation.BindQueryAndValidate(c, &q, v); err != nil {
			return
		}

		items, err := client.Query(q.Filter())
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"items":   items,
			"online":  client.Online(),
			"syncing": client.IsSyncing(),
			"stats":   client.Stats(),
		})
	})

	r.POST("/queue", func(c *gin.Context) {
		var req validation.EnqueueRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			// BindAndValidate already wrote a 400
			return
		}

		id, err := client.AddPendingAppend(c.Request.Context(), sheetqueue.SheetKey(req.SheetKey), req.SheetName, req.RowData)
		if err != nil && id == "" {
			writeError(c, err)
			return
		}

		c.Header("Location", "/queue/"+id)
		if err != nil {
			// Queued in memory but not yet durable
			logger.Warn("queued without persisting", "id", id, "err", err)
			c.JSON(http.StatusCreated, gin.H{"id": id, "warning": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id})
	})

	r.POST("/queue/sync", func(c *gin.Context) {
		if !client.Online() {
			writeError(c, sheetqueue.ErrOffline)
			return
		}
		if err := client.SyncAll(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"stats": client.Stats()})
	})

	r.POST("/queue/:id/sync", func(c *gin.Context) {
		id := c.Param("id")
		if !contains(client.Items(), id) {
			c.JSON(http.StatusNotFound, gin.H{"error": "not_found", "id": id})
			return
		}
		if !client.Online() {
			writeError(c, sheetqueue.ErrOffline)
			return
		}

		if err := client.SyncItem(c.Request.Context(), id); err != nil {
			if errors.Is(err, sheetqueue.ErrClientClosed) || errors.Is(err, sheetqueue.ErrAlreadySyncing) {
				writeError(c, err)
				return
			}
			// The failure is recorded on the operation
			c.JSON(http.StatusBadGateway, gin.H{"error": "sync_failed", "detail": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "synced": true})
	})

	r.DELETE("/queue/:id", func(c *gin.Context) {
		if err := client.RemoveItem(c.Request.Context(), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	r.DELETE("/queue", func(c *gin.Context) {
		if err := client.ClearAll(c.Request.Context()); err != nil {
			writeError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	r.PUT("/connectivity", func(c *gin.Context) {
		var req validation.ConnectivityRequest
		if err := validation.BindAndValidate(c, &req, v); err != nil {
			return
		}
		cfg.Monitor.SetOnline(*req.Online)
		c.JSON(http.StatusOK, gin.H{"online": cfg.Monitor.Online()})
	})

	r.GET("/queue/export.xlsx", func(c *gin.Context) {
		var buf bytes.Buffer
		if err := excel.WriteReport(&buf, client.Items()); err != nil {
			logger.Error("export failed", "err", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "export_failed", "detail": err.Error()})
			return
		}
		c.Header("Content-Disposition", `attachment; filename="pending.xlsx"`)
		c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
	})
}

// writeError maps queue errors to status codes
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, sheetqueue.ErrClientClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "closed", "detail": err.Error()})
	case errors.Is(err, sheetqueue.ErrOffline):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "offline"})
	case errors.Is(err, sheetqueue.ErrAlreadySyncing):
		c.JSON(http.StatusConflict, gin.H{"error": "already_syncing", "detail": err.Error()})
	case errors.Is(err, sheetqueue.ErrUnknownSheetKey):
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_sheet_key", "detail": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal", "detail": err.Error()})
	}
}

func contains(items []sheetqueue.PendingOperation, id string) bool {
	for _, op := range items {
		if op.ID == id {
			return true
		}
	}
	return false
}
