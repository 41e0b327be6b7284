package handler

import (
	"bufio"
	"context"

	"github.com/gofiber/fiber/v2"

	"booktracker/internal/http/middleware"
	"booktracker/internal/live"
)

// LiveHub is the subscription surface the stream endpoint needs.
type LiveHub interface {
	Connect(userID string) *live.Client
	Disconnect(clientID string)
	Snapshot(ctx context.Context, userID string) (live.Event, error)
}

// StreamBooks serves the caller's book list as server-sent events:
// a snapshot on connect, then a fresh snapshot after every change.
//
// @Summary  Live book list
// @Tags     books
// @Produce  text/event-stream
// @Security BearerAuth
// @Param    access_token query string false "token for clients that cannot set headers"
// @Success  200
// @Router   /books/stream [get]
func StreamBooks(hub LiveHub) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := middleware.UserID(c)

		// Subscribe before loading so no change between the two is lost.
		client := hub.Connect(userID)
		initial, err := hub.Snapshot(c.UserContext(), userID)
		if err != nil {
			hub.Disconnect(client.ID)
			return writeDomainError(c, err)
		}

		c.Set(fiber.HeaderContentType, "text/event-stream")
		c.Set(fiber.HeaderCacheControl, "no-cache")
		c.Set(fiber.HeaderConnection, "keep-alive")
		c.Set("X-Accel-Buffering", "no")

		c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
			defer hub.Disconnect(client.ID)

			if err := writeEvent(w, initial); err != nil {
				return
			}
			for ev := range client.Events {
				if err := writeEvent(w, ev); err != nil {
					return
				}
			}
		})
		return nil
	}
}

// writeEvent fails once the client has gone away.
func writeEvent(w *bufio.Writer, ev live.Event) error {
	if err := ev.Encode(w); err != nil {
		return err
	}
	return w.Flush()
}
