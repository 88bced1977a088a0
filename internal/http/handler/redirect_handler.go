package handler

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sifan077/QuotaLink/internal/app/service"
	"github.com/sifan077/QuotaLink/internal/http/view"
	"go.uber.org/zap"
)

// RedirectDeps groups dependencies required by redirect handlers.
type RedirectDeps struct {
	Logger *zap.Logger
	Links  service.LinkService
}

// RedirectHandler resolves short codes over HTTP.
type RedirectHandler struct {
	logger *zap.Logger
	links  service.LinkService
}

// NewRedirectHandler creates a redirect handler with the provided dependencies.
func NewRedirectHandler(deps RedirectDeps) *RedirectHandler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedirectHandler{
		logger: logger,
		links:  deps.Links,
	}
}

// Register wires redirect routes onto the provided router.
func (h *RedirectHandler) Register(router fiber.Router) {
	router.Get("/", h.Health)
	router.Get("/health", h.Health)
	router.Get("/:code", h.Resolve)
}

// Health is a simple root endpoint so we know the service is running.
func (h *RedirectHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"service": "QuotaLink",
		"status":  "ok",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// Resolve handles GET /:code. Each successful call consumes one click.
func (h *RedirectHandler) Resolve(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "missing link code",
		})
	}

	ctx := c.UserContext()
	if ctx == nil {
		ctx = context.Background()
	}

	res, err := h.links.Open(ctx, code)
	if err != nil {
		h.logger.Error("failed to open link", zap.Error(err), zap.String("code", code))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}

	switch res.Outcome {
	case service.OutcomeOK:
		if res.LastClick {
			return h.renderNotice(c, res)
		}
		h.logger.Debug("redirecting short link", zap.String("code", code))
		return c.Redirect(res.Target, fiber.StatusFound)
	case service.OutcomeNotFound:
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "short link not found",
		})
	case service.OutcomeExpired:
		return c.Status(fiber.StatusGone).JSON(fiber.Map{
			"error": "link expired",
		})
	case service.OutcomeLimitReached:
		return c.Status(fiber.StatusGone).JSON(fiber.Map{
			"error": "link click limit reached",
		})
	default:
		h.logger.Error("unexpected open outcome", zap.Stringer("outcome", res.Outcome), zap.String("code", code))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "internal server error",
		})
	}
}

func (h *RedirectHandler) renderNotice(c *fiber.Ctx, res service.OpenResult) error {
	data := view.NoticePageData{
		Code:      c.Params("code"),
		TargetURL: res.Target,
	}
	if res.Link != nil {
		data.Clicks = res.Link.ClickCount
		data.Limit = res.Link.ClickLimit
	}

	html, err := view.RenderNoticePage(data)
	if err != nil {
		// The click is already spent; fall back to a plain redirect.
		h.logger.Error("failed to render notice page", zap.Error(err))
		return c.Redirect(res.Target, fiber.StatusFound)
	}

	return c.
		Type("html", "utf-8").
		SendString(html)
}
