package api

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"localore/internal/domain/entity"
	"localore/internal/domain/repository"
)

const sessionCookie = "localore_session"

// AdminHandler serves the analytics API behind a password login.
type AdminHandler struct {
	passwordHash []byte
	sessions     repository.SessionStore
	stats        repository.KeywordStats
	log          zerolog.Logger
}

func NewAdminHandler(passwordHash []byte, sessions repository.SessionStore, stats repository.KeywordStats, log zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		passwordHash: passwordHash,
		sessions:     sessions,
		stats:        stats,
		log:          log,
	}
}

// sessionToken pulls the session token from the cookie, or from a bearer
// header for non-browser clients.
func sessionToken(c *fiber.Ctx) string {
	if tok := c.Cookies(sessionCookie); tok != "" {
		return tok
	}
	auth := c.Get(fiber.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// RequireSession guards the analytics routes.
func (h *AdminHandler) RequireSession(c *fiber.Ctx) error {
	ok, err := h.sessions.Validate(c.Context(), sessionToken(c))
	if err != nil {
		h.log.Error().Err(err).Msg("session validation failed")
		return errorJSON(c, fiber.StatusInternalServerError, "internal_error", "session validation failed", "")
	}
	if !ok {
		return errorJSON(c, fiber.StatusUnauthorized, "unauthorized", entity.ErrUnauthorized.Error(), "")
	}
	return c.Next()
}

type loginRequest struct {
	Password string `json:"password"`
}

// HandleLogin serves POST /v1/admin/login.
func (h *AdminHandler) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorJSON(c, fiber.StatusBadRequest, "validation_error",
			"request body must be JSON with a password field", err.Error())
	}

	if bcrypt.CompareHashAndPassword(h.passwordHash, []byte(req.Password)) != nil {
		return errorJSON(c, fiber.StatusUnauthorized, "unauthorized", "wrong password", "")
	}

	token, err := h.sessions.Create(c.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("session creation failed")
		return errorJSON(c, fiber.StatusInternalServerError, "internal_error", "could not create session", "")
	}

	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    token,
		MaxAge:   int((24 * time.Hour).Seconds()),
		HTTPOnly: true,
		SameSite: "Strict",
	})
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"token": token})
}

// HandleLogout serves POST /v1/admin/logout. Destroying the session is best
// effort, the cookie is cleared either way.
func (h *AdminHandler) HandleLogout(c *fiber.Ctx) error {
	if token := sessionToken(c); token != "" {
		if err := h.sessions.Destroy(c.Context(), token); err != nil {
			h.log.Warn().Err(err).Msg("session destroy failed")
		}
	}

	c.Cookie(&fiber.Cookie{
		Name:     sessionCookie,
		Value:    "",
		MaxAge:   -1,
		HTTPOnly: true,
		SameSite: "Strict",
	})
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"status": "logged out"})
}

// HandleKeywords serves GET /v1/admin/keywords.
func (h *AdminHandler) HandleKeywords(c *fiber.Ctx) error {
	period := c.Query("period", entity.PeriodAll)
	if !entity.ValidPeriod(period) {
		return errorJSON(c, fiber.StatusBadRequest, "validation_error",
			"period must be one of today, 7d, 30d, all", "")
	}
	limit := c.QueryInt("limit", 20)
	if limit < 1 || limit > 100 {
		return errorJSON(c, fiber.StatusBadRequest, "validation_error",
			"limit must be between 1 and 100", "")
	}
	genre := c.Query("genre")
	if genre != "" && !entity.KnownGenre(genre) {
		return errorJSON(c, fiber.StatusBadRequest, "validation_error",
			"genre is not part of the taxonomy", "")
	}

	rows, err := h.stats.RankKeywords(c.Context(), period, limit, genre)
	if err != nil {
		h.log.Error().Err(err).Str("period", period).Msg("keyword ranking failed")
		return errorJSON(c, fiber.StatusInternalServerError, "internal_error", "keyword ranking failed", "")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"period": period, "keywords": rows})
}

// HandleDaily serves GET /v1/admin/daily.
func (h *AdminHandler) HandleDaily(c *fiber.Ctx) error {
	days := c.QueryInt("days", 30)
	if days < 1 || days > 100 {
		return errorJSON(c, fiber.StatusBadRequest, "validation_error",
			"days must be between 1 and 100", "")
	}

	rows, err := h.stats.DailyCounts(c.Context(), days)
	if err != nil {
		h.log.Error().Err(err).Int("days", days).Msg("daily counts failed")
		return errorJSON(c, fiber.StatusInternalServerError, "internal_error", "daily counts failed", "")
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"days": rows})
}

// HandleGenres serves GET /v1/admin/genres.
func (h *AdminHandler) HandleGenres(c *fiber.Ctx) error {
	genres, err := h.stats.ListGenres(c.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("genre listing failed")
		return errorJSON(c, fiber.StatusInternalServerError, "internal_error", "genre listing failed", "")
	}
	if genres == nil {
		genres = []string{}
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"genres": genres})
}
