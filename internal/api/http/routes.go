package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/astromitra/horoscope-engine/internal/apperr"
	"github.com/astromitra/horoscope-engine/internal/astro"
	"github.com/astromitra/horoscope-engine/internal/store"
)

var validate = validator.New()

// Pinger is a health probe for one backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Probes are the independently checked backing services, keyed by the name
// reported in the health payload.
type Probes map[string]Pinger

const probeTimeout = 2 * time.Second

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, orch *astro.Orchestrator, sessions astro.SessionStore, probes Probes) {
	app.Post("/compute", func(c *fiber.Ctx) error {
		var req computeRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request data")
		}
		if err := validate.Struct(req); err != nil {
			return badRequest(c, "Invalid request data")
		}

		session, err := orch.Compute(c.Context(), req.toDescriptor())
		if err != nil {
			return computeError(c, session, err)
		}

		return c.JSON(fiber.Map{
			"success":    true,
			"sessionId":  session.ID,
			"summary":    session.Summary,
			"computedAt": time.Now().UTC(),
		})
	})

	app.Get("/compute", func(c *fiber.Ctx) error {
		services := make(fiber.Map, len(probes))
		healthy := true
		for name, p := range probes {
			ctx, cancel := context.WithTimeout(c.Context(), probeTimeout)
			err := p.Ping(ctx)
			cancel()
			if err != nil {
				services[name] = "unavailable"
				healthy = false
			} else {
				services[name] = "ok"
			}
		}

		status := "healthy"
		code := fiber.StatusOK
		if !healthy {
			status = "unhealthy"
			code = fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status":   status,
			"services": services,
		})
	})

	app.Get("/compute/:id", func(c *fiber.Ctx) error {
		session, err := sessions.GetSession(c.Context(), c.Params("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no session with given id")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to load session")
		}
		return c.JSON(session)
	})
}

// computeRequest is the POST /compute body.
type computeRequest struct {
	Name     string `json:"name" validate:"required"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required,datetime=15:04"`
	Location string `json:"location" validate:"required"`
	Ayanamsa int    `json:"ayanamsa" validate:"required,min=1,max=3"`
}

func (r computeRequest) toDescriptor() astro.BirthDescriptor {
	return astro.BirthDescriptor{
		Name:     r.Name,
		Date:     r.Date,
		Time:     r.Time,
		Location: r.Location,
		Ayanamsa: astro.Ayanamsa(r.Ayanamsa),
	}
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"success": false,
		"error":   message,
	})
}

// computeError maps a pipeline failure onto the wire contract. Client-side
// failures come back 400 with a stable message; provider and persistence
// failures come back 500 and still report the session id when one exists.
func computeError(c *fiber.Ctx, session *astro.Session, err error) error {
	code := apperr.CodeOf(err)
	if apperr.HTTPStatus(code) == fiber.StatusBadRequest {
		message := "Invalid request data"
		if code == apperr.CodeLocationNotFound {
			message = "Location not found"
		}
		return badRequest(c, message)
	}

	body := fiber.Map{
		"success": false,
		"error":   "Failed to compute horoscope",
	}
	if session != nil {
		body["sessionId"] = session.ID
	}
	return c.Status(fiber.StatusInternalServerError).JSON(body)
}
