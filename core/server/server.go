package server

import (
	"mediavault/core/logger"
	"mediavault/core/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handler serves the administrative status API: store availability and
// declared-bucket state. It exposes no object data.
type Handler struct {
	cfg    Config
	store  *storage.Resolved
	client storage.Client
	prober *storage.Prober
	log    *zap.Logger
}

// NewHandler wires the status API over the internal client.
func NewHandler(cfg Config, store *storage.Resolved, client storage.Client, prober *storage.Prober, logg *zap.Logger) *Handler {
	if logg == nil {
		logg = zap.NewNop()
	}
	return &Handler{cfg: cfg, store: store, client: client, prober: prober, log: logg}
}

// App builds the Fiber application with middleware and routes.
func (h *Handler) App() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Request ID first so every log line is traceable.
	app.Use(func(c *fiber.Ctx) error {
		rid := c.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Locals("request_id", rid)
		c.Set("X-Request-ID", rid)
		return c.Next()
	})

	app.Use(func(c *fiber.Ctx) error {
		l := logger.WithRequestID(h.log, c)
		l.Info("request started",
			zap.String("method", c.Method()),
			zap.String("path", c.Path()),
			zap.String("ip", c.IP()),
		)
		err := c.Next()
		if err != nil {
			l.Error("request error", zap.Error(err))
		}
		return err
	})

	if h.cfg.ApiKey != "" {
		app.Use(func(c *fiber.Ctx) error {
			if c.Get("X-API-Key") != h.cfg.ApiKey {
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid api key"})
			}
			return c.Next()
		})
	}

	app.Get("/healthz", h.handleHealth)
	app.Get("/buckets", h.handleBuckets)
	return app
}

// handleHealth probes the store and reports availability. A guarded
// store (403) is healthy; connectivity failures are not.
func (h *Handler) handleHealth(c *fiber.Ctx) error {
	status := h.prober.Probe(c.Context())
	body := fiber.Map{
		"available":   status.Available,
		"endpoint":    h.prober.BaseURL(),
		"status_code": status.StatusCode,
	}
	if !status.Available {
		body["details"] = status.Details()
		return c.Status(fiber.StatusServiceUnavailable).JSON(body)
	}
	return c.JSON(body)
}

type bucketStatus struct {
	Name       string `json:"name"`
	Visibility string `json:"visibility"`
	Exists     bool   `json:"exists"`
	Error      string `json:"error,omitempty"`
}

// handleBuckets reports existence and visibility for every declared bucket.
func (h *Handler) handleBuckets(c *fiber.Ctx) error {
	buckets := make([]bucketStatus, 0)
	for _, name := range h.store.Buckets() {
		status := bucketStatus{Name: name, Visibility: "private"}
		if h.store.IsPublic(name) {
			status.Visibility = "public"
		}
		exists, err := h.client.BucketExists(c.Context(), name)
		if err != nil {
			status.Error = err.Error()
		}
		status.Exists = exists
		buckets = append(buckets, status)
	}
	return c.JSON(fiber.Map{"buckets": buckets})
}
