package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/arso-weather-bridge/internal/store"
	"github.com/i474232898/arso-weather-bridge/internal/weather"
	"github.com/i474232898/arso-weather-bridge/internal/weather/providers"
)

var validate = validator.New()

// Deps groups what the handlers need.
type Deps struct {
	Service *weather.Service
	Entries store.EntryRepository
	Logger  *slog.Logger

	// UpdateTimeout bounds a refresh triggered through the API.
	UpdateTimeout time.Duration
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.UpdateTimeout <= 0 {
		deps.UpdateTimeout = 30 * time.Second
	}

	v1 := app.Group("/api/v1")

	v1.Get("/entities", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"entities": deps.Service.ListStates(),
		})
	})

	v1.Get("/entities/:id", func(c *fiber.Ctx) error {
		state, err := deps.Service.GetState(c.Params("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "unknown entity")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read entity state")
		}
		return c.JSON(state)
	})

	v1.Post("/entities/:id/update", func(c *fiber.Ctx) error {
		id := c.Params("id")

		ctx, cancel := context.WithTimeout(c.UserContext(), deps.UpdateTimeout)
		defer cancel()

		updated, err := deps.Service.UpdateEntity(ctx, id)
		if err != nil {
			if errors.Is(err, weather.ErrUnknownEntity) {
				return fiber.NewError(fiber.StatusNotFound, "unknown entity")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to update entity")
		}

		state, err := deps.Service.GetState(id)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read entity state")
		}
		return c.JSON(fiber.Map{
			"updated": updated,
			"state":   state,
		})
	})

	setup := v1.Group("/setup")

	setup.Get("/locations", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"locations": deps.Service.Locations(c.UserContext()),
		})
	})

	setup.Get("/entries", func(c *fiber.Ctx) error {
		entries, err := deps.Entries.List()
		if err != nil {
			deps.Logger.Error("list entries failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list entries")
		}
		if entries == nil {
			entries = []weather.Entry{}
		}
		return c.JSON(fiber.Map{"entries": entries})
	})

	setup.Post("/entries", func(c *fiber.Ctx) error {
		var req entryRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
		}
		if req.Mode == "" {
			req.Mode = weather.PreferenceObservation.Name
		}
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		locations := deps.Service.Locations(c.UserContext())
		if providers.IsPlaceholder(locations) {
			return fiber.NewError(fiber.StatusServiceUnavailable, locations[0])
		}
		if !slices.Contains(locations, req.Location) {
			return fiber.NewError(fiber.StatusBadRequest, "location is not offered by ARSO")
		}

		if ids := deps.Service.Conflicts(weather.Entry{Location: req.Location, Mode: req.Mode}); len(ids) > 0 {
			return fiber.NewError(fiber.StatusConflict, "entity already registered: "+strings.Join(ids, ", "))
		}

		entry, err := deps.Entries.Create(req.Location, req.Mode)
		if err != nil {
			if errors.Is(err, store.ErrEntryExists) {
				return fiber.NewError(fiber.StatusConflict, err.Error())
			}
			deps.Logger.Error("create entry failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to create entry")
		}

		entities, err := deps.Service.AddEntry(entry)
		if err != nil {
			// Lost a race with another registration; undo the persisted entry.
			if delErr := deps.Entries.Delete(entry.ID); delErr != nil {
				deps.Logger.Error("rollback entry failed", "entry_id", entry.ID, "error", delErr)
			}
			return fiber.NewError(fiber.StatusConflict, err.Error())
		}

		// Publish real data right away instead of waiting for the next tick.
		ctx, cancel := context.WithTimeout(c.UserContext(), deps.UpdateTimeout)
		defer cancel()

		ids := make([]string, 0, len(entities))
		for _, e := range entities {
			if _, err := deps.Service.UpdateEntity(ctx, e.ID); err != nil {
				deps.Logger.Warn("initial update failed", "entity_id", e.ID, "error", err)
			}
			ids = append(ids, e.ID)
		}
		deps.Logger.Info("entry created", "entry_id", entry.ID, "location", entry.Location, "mode", entry.Mode)

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"title":    entry.Title(),
			"entry":    entry,
			"entities": ids,
		})
	})

	setup.Delete("/entries/:id", func(c *fiber.Ctx) error {
		id := c.Params("id")
		if err := deps.Entries.Delete(id); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "unknown entry")
			}
			deps.Logger.Error("delete entry failed", "error", err)
			return fiber.NewError(fiber.StatusInternalServerError, "failed to delete entry")
		}
		removed := deps.Service.RemoveEntry(id)
		return c.JSON(fiber.Map{
			"removed_entities": removed,
		})
	})
}

// entryRequest is the body of the setup submission.
type entryRequest struct {
	Location string `json:"location" validate:"required"`
	Mode     string `json:"mode" validate:"oneof=observation snapshot"`
}

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}
