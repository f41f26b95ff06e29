package route

import (
	"context"
	"errors"
	"time"

	"github.com/Yash-Ainapure/walstar-task/internal/match"
	"github.com/Yash-Ainapure/walstar-task/internal/reconstruct"

	"github.com/gofiber/fiber/v2"
)

// RouteBuilder produces a display-ready route for a session's points.
type RouteBuilder interface {
	Reconstruct(ctx context.Context, ownerID, sessionID string, points []match.Point) reconstruct.Route
}

// UserResolver maps a username to a user id, used when a superadmin
// syncs on a driver's behalf.
type UserResolver interface {
	IDByUsername(ctx context.Context, username string) (string, error)
}

type pointPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp string  `json:"timestamp"`
}

type syncRequest struct {
	Route     []pointPayload `json:"route"`
	SessionID string         `json:"sessionId"`
	TripName  string         `json:"tripName"`
	Username  string         `json:"username"`
}

type addSessionRequest struct {
	Date      string         `json:"date"`
	SessionID string         `json:"sessionId"`
	StartTime string         `json:"startTime"`
	EndTime   string         `json:"endTime"`
	Name      string         `json:"name"`
	Locations []pointPayload `json:"locations"`
}

type imageRequest struct {
	URL          string         `json:"url"`
	ThumbnailURL string         `json:"thumbnailUrl"`
	Type         string         `json:"type"`
	Timestamp    string         `json:"timestamp"`
	Location     *ImageLocation `json:"location"`
	Description  string         `json:"description"`
}

type viewMarker struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Type      string  `json:"type"`
	URL       string  `json:"url,omitempty"`
}

func RegisterRoutes(r fiber.Router, store *Store, builder RouteBuilder, resolver UserResolver, authMiddleware fiber.Handler) {
	r.Use(authMiddleware)

	r.Post("/sync", func(c *fiber.Ctx) error {
		var req syncRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if len(req.Route) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "no locations provided")
		}

		ownerID, _ := c.Locals("user_id").(string)
		role, _ := c.Locals("role").(string)
		if role == "superadmin" && req.Username != "" {
			id, err := resolver.IDByUsername(c.Context(), req.Username)
			if err != nil {
				return fiber.NewError(fiber.StatusNotFound, "target user not found")
			}
			ownerID = id
		}

		points, err := parsePoints(req.Route)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		result, err := store.SyncBatch(c.Context(), ownerID, points, req.SessionID, req.TripName)
		if err != nil {
			return storeError(err)
		}
		return c.JSON(fiber.Map{"msg": "Route data synced successfully", "sessionId": result.SessionID, "date": result.Date})
	})

	r.Get("/:userId/dates", func(c *fiber.Ctx) error {
		ownerID, err := targetUser(c)
		if err != nil {
			return err
		}
		dates, err := store.Dates(c.Context(), ownerID)
		if err != nil {
			return storeError(err)
		}
		return c.JSON(fiber.Map{"dates": dates})
	})

	r.Post("/:userId/session", func(c *fiber.Ctx) error {
		ownerID, err := targetUser(c)
		if err != nil {
			return err
		}
		var req addSessionRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if req.Date == "" || req.SessionID == "" || req.StartTime == "" || req.EndTime == "" {
			return fiber.NewError(fiber.StatusBadRequest, "date, sessionId, startTime, endTime required")
		}
		start, err := time.Parse(time.RFC3339, req.StartTime)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid startTime")
		}
		end, err := time.Parse(time.RFC3339, req.EndTime)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid endTime")
		}
		if end.Before(start) {
			return fiber.NewError(fiber.StatusBadRequest, "endTime before startTime")
		}
		points, err := parsePoints(req.Locations)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := store.AddSession(c.Context(), ownerID, req.Date, req.SessionID, start, end, points, req.Name); err != nil {
			return storeError(err)
		}
		return c.JSON(fiber.Map{"msg": "Session added", "sessionId": req.SessionID, "date": req.Date})
	})

	r.Get("/:userId/session/:sessionId", func(c *fiber.Ctx) error {
		ownerID, err := targetUser(c)
		if err != nil {
			return err
		}
		date, sess, err := store.SessionByID(c.Context(), ownerID, c.Params("sessionId"))
		if err != nil {
			return storeError(err)
		}
		return c.JSON(fiber.Map{"date": date, "session": sess})
	})

	r.Get("/:userId/session/:sessionId/view", func(c *fiber.Ctx) error {
		ownerID, err := targetUser(c)
		if err != nil {
			return err
		}
		sessionID := c.Params("sessionId")
		_, sess, err := store.SessionByID(c.Context(), ownerID, sessionID)
		if err != nil {
			return storeError(err)
		}

		route := builder.Reconstruct(c.Context(), ownerID, sessionID, sessionMatchPoints(sess))

		markers := make([]viewMarker, 0, len(sess.Images))
		for _, img := range sess.Images {
			if img.Location == nil {
				continue
			}
			markers = append(markers, viewMarker{
				Latitude:  img.Location.Latitude,
				Longitude: img.Location.Longitude,
				Type:      img.Type,
				URL:       img.URL,
			})
		}

		return c.JSON(fiber.Map{
			"sessionId": sessionID,
			"route":     route,
			"markers":   markers,
		})
	})

	r.Delete("/:userId/session/:sessionId", func(c *fiber.Ctx) error {
		ownerID, err := targetUser(c)
		if err != nil {
			return err
		}
		if err := store.DeleteSession(c.Context(), ownerID, c.Params("sessionId")); err != nil {
			return storeError(err)
		}
		return c.JSON(fiber.Map{"msg": "Session deleted"})
	})

	r.Post("/:userId/session/:sessionId/image", func(c *fiber.Ctx) error {
		ownerID, err := targetUser(c)
		if err != nil {
			return err
		}
		var req imageRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		if req.URL == "" || !ValidImageType(req.Type) {
			return fiber.NewError(fiber.StatusBadRequest, "url and valid type required")
		}
		img := ImageRecord{
			URL:          req.URL,
			ThumbnailURL: req.ThumbnailURL,
			Type:         req.Type,
			Location:     req.Location,
			Description:  req.Description,
		}
		if req.Timestamp != "" {
			ts, err := time.Parse(time.RFC3339, req.Timestamp)
			if err != nil {
				return fiber.NewError(fiber.StatusBadRequest, "invalid timestamp")
			}
			img.TimestampUTC = NewInstant(ts)
		}
		saved, err := store.AddImage(c.Context(), ownerID, c.Params("sessionId"), img)
		if err != nil {
			return storeError(err)
		}
		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"msg": "Image added", "image": saved})
	})

	r.Get("/:userId/session/:sessionId/images", func(c *fiber.Ctx) error {
		ownerID, err := targetUser(c)
		if err != nil {
			return err
		}
		images, err := store.SessionImages(c.Context(), ownerID, c.Params("sessionId"))
		if err != nil {
			return storeError(err)
		}
		return c.JSON(fiber.Map{"images": images})
	})

	r.Post("/:userId/:date/:sessionId/location", func(c *fiber.Ctx) error {
		ownerID, err := targetUser(c)
		if err != nil {
			return err
		}
		var req pointPayload
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid payload")
		}
		points, err := parsePoints([]pointPayload{req})
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := store.AddLocation(c.Context(), ownerID, c.Params("date"), c.Params("sessionId"), points[0]); err != nil {
			return storeError(err)
		}
		return c.JSON(fiber.Map{"msg": "Location added", "sessionId": c.Params("sessionId")})
	})

	r.Get("/:userId/:date", func(c *fiber.Ctx) error {
		ownerID, err := targetUser(c)
		if err != nil {
			return err
		}
		sessions, err := store.SessionsByDate(c.Context(), ownerID, c.Params("date"))
		if err != nil {
			return storeError(err)
		}
		return c.JSON(fiber.Map{"sessions": sessions})
	})
}

// targetUser resolves the :userId path param ("me" allowed) and
// enforces the permission rule: superadmin may act on anyone, a driver
// only on themselves.
func targetUser(c *fiber.Ctx) (string, error) {
	target := c.Params("userId")
	userID, _ := c.Locals("user_id").(string)
	role, _ := c.Locals("role").(string)

	if target == "me" {
		target = userID
	}
	if role != "superadmin" && userID != target {
		return "", fiber.NewError(fiber.StatusForbidden, "no permission")
	}
	return target, nil
}

func parsePoints(payload []pointPayload) ([]RawPoint, error) {
	points := make([]RawPoint, len(payload))
	for i, p := range payload {
		var ts time.Time
		if p.Timestamp != "" {
			parsed, err := time.Parse(time.RFC3339, p.Timestamp)
			if err != nil {
				return nil, errors.New("invalid timestamp: " + p.Timestamp)
			}
			ts = parsed
		}
		points[i] = RawPoint{Latitude: p.Latitude, Longitude: p.Longitude, Timestamp: ts}
	}
	return points, nil
}

func sessionMatchPoints(sess Session) []match.Point {
	points := make([]match.Point, len(sess.Locations))
	for i, l := range sess.Locations {
		points[i] = match.Point{Lat: l.Latitude, Lon: l.Longitude, Time: l.TimestampUTC.Time}
	}
	return points
}

func storeError(err error) error {
	switch {
	case errors.Is(err, ErrEmptyBatch):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, ErrSessionExists):
		return fiber.NewError(fiber.StatusConflict, err.Error())
	default:
		return fiber.NewError(fiber.StatusInternalServerError, err.Error())
	}
}
