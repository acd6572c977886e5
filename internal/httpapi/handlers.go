package httpapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/avtorres/shortlink/internal"
	"github.com/avtorres/shortlink/internal/clicks"
	"github.com/avtorres/shortlink/internal/shortener"
)

// LinkCreator is the creation service surface.
type LinkCreator interface {
	CreateLink(ctx context.Context, p shortener.CreateParams) (*internal.Link, error)
}

// Resolver answers short-code lookups, cache first.
type Resolver interface {
	Resolve(ctx context.Context, shortCode string) (originalURL string, found bool, err error)
}

// ClickRecorder logs resolutions without blocking the response.
type ClickRecorder interface {
	RecordAsync(event clicks.Event)
}

// Pinger reports durable-store health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	creator   LinkCreator
	resolver  Resolver
	recorder  ClickRecorder
	pinger    Pinger
	appDomain string
}

func NewHandler(creator LinkCreator, resolver Resolver, recorder ClickRecorder, pinger Pinger, appDomain string) *Handler {
	return &Handler{
		creator:   creator,
		resolver:  resolver,
		recorder:  recorder,
		pinger:    pinger,
		appDomain: appDomain,
	}
}

// Register mounts the routes. The catch-all redirect goes last.
func (h *Handler) Register(app *fiber.App) {
	app.Post("/api/links", h.handleCreateLink)
	app.Get("/healthz", h.handleHealth)
	app.Get("/:short_code", h.handleRedirect)
}

type createLinkRequest struct {
	OriginalURL    string `json:"originalUrl"`
	CustomBackHalf string `json:"customBackHalf"`
	ExpiresAt      string `json:"expiresAt"`
}

type createLinkResponse struct {
	internal.Link
	ShortURL string `json:"short_url"`
}

func (h *Handler) handleCreateLink(c *fiber.Ctx) error {
	var req createLinkRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.OriginalURL == "" {
		return errorJSON(c, fiber.StatusBadRequest, "originalUrl is required")
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		ts, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return errorJSON(c, fiber.StatusBadRequest, "expiresAt must be an RFC 3339 timestamp")
		}
		expiresAt = &ts
	}

	link, err := h.creator.CreateLink(c.Context(), shortener.CreateParams{
		OriginalURL:    req.OriginalURL,
		CustomBackHalf: req.CustomBackHalf,
		ExpiresAt:      expiresAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, shortener.ErrInvalidURL), errors.Is(err, shortener.ErrAliasUnavailable):
			return errorJSON(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, shortener.ErrCodeCollision):
			return errorJSON(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, shortener.ErrAllocationUnavailable):
			slog.Error("link creation failed", "err", err)
			return errorJSON(c, fiber.StatusServiceUnavailable, "could not allocate a short code")
		default:
			slog.Error("link creation failed", "err", err)
			return errorJSON(c, fiber.StatusInternalServerError, "could not create short link")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(createLinkResponse{
		Link:     *link,
		ShortURL: fmt.Sprintf("%s/%s", h.appDomain, link.ShortCode),
	})
}

func (h *Handler) handleRedirect(c *fiber.Ctx) error {
	shortCode := c.Params("short_code")

	originalURL, found, err := h.resolver.Resolve(c.Context(), shortCode)
	if err != nil {
		slog.Error("resolution failed", "short_code", shortCode, "err", err)
		return errorJSON(c, fiber.StatusInternalServerError, "could not resolve short link")
	}
	if !found {
		// Missing, expired and inactive all collapse to the same answer.
		return errorJSON(c, fiber.StatusNotFound, "short link not found, expired, or inactive")
	}

	event := clicks.Event{
		ShortCode: shortCode,
		IPAddress: c.IP(),
		UserAgent: c.Get(fiber.HeaderUserAgent),
	}
	if referer := c.Get(fiber.HeaderReferer); referer != "" {
		event.Referer = &referer
	}
	h.recorder.RecordAsync(event)

	return c.Redirect(originalURL, fiber.StatusMovedPermanently)
}

func (h *Handler) handleHealth(c *fiber.Ctx) error {
	if err := h.pinger.Ping(c.Context()); err != nil {
		return errorJSON(c, fiber.StatusServiceUnavailable, "database unreachable")
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

func errorJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"status": "error", "message": msg})
}
