package main

import (
	"context"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"github.com/cygnusgroup/backoffice/core"
)

const (
	opRecentActivity = "recentActivity"

	defaultFeedLimit = 20
	maxFeedLimit     = 100
)

// dashboardEndpoints are mounted next to the login endpoints.
type dashboardEndpoints struct{}

func (dashboardEndpoints) GetEndpoints() []core.Endpoint {
	return []core.Endpoint{
		{
			Path:   "/activity",
			Method: fiber.MethodGet,
			Metadata: core.EndpointMetadata{
				OperationID: opRecentActivity,
				Description: "Newest activity log rows for the dashboard",
				Protected:   true,
			},
		},
	}
}

type activityReader interface {
	RecentActivity(ctx context.Context, limit int) ([]core.Activity, error)
}

func activityFeed(db activityReader) fiber.Handler {
	return func(c fiber.Ctx) error {
		limit := fiber.Query[int](c, "limit", defaultFeedLimit)
		if limit <= 0 || limit > maxFeedLimit {
			limit = defaultFeedLimit
		}

		rows, err := db.RecentActivity(c.Context(), limit)
		if err != nil {
			logger.Error("activity feed failed", zap.Error(err))
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"success": false})
		}
		if rows == nil {
			rows = []core.Activity{}
		}
		return c.JSON(rows)
	}
}
