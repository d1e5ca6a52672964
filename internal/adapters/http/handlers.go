package http

import (
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/meetpoint/meetpoint/internal/core/domain"
)

type createMemberRequest struct {
	Nickname string `json:"nickname"`
}

type createMeetupRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Capacity    int      `json:"capacity"`
	Lat         *float64 `json:"lat"`
	Lng         *float64 `json:"lng"`
}

type joinRequest struct {
	MemberID int64    `json:"member_id"`
	Lat      *float64 `json:"lat"`
	Lng      *float64 `json:"lng"`
}

type leaveRequest struct {
	MemberID int64 `json:"member_id"`
}

// pathID parses a positive integer path parameter.
func pathID(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return id, nil
}

// requiredFloat reads a float query parameter that must be present.
func requiredFloat(c *fiber.Ctx, key string) (float64, error) {
	raw := c.Query(key)
	if raw == "" {
		return 0, fmt.Errorf("%s is required", key)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%s must be a number", key)
	}
	return v, nil
}

// optionalPoint turns an optional lat/lng pair into a point. Both or
// neither must be set.
func optionalPoint(lat, lng *float64) (*domain.GeoPoint, error) {
	if lat == nil && lng == nil {
		return nil, nil
	}
	if lat == nil || lng == nil {
		return nil, fmt.Errorf("lat and lng must be given together")
	}
	return &domain.GeoPoint{Lat: *lat, Lng: *lng}, nil
}

// CreateMemberHandler registers a member.
func CreateMemberHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createMemberRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		m, err := deps.Members.Register(c.UserContext(), req.Nickname)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

// GetMemberHandler returns a single member by ID.
func GetMemberHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		m, err := deps.Members.GetByID(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(m)
	}
}

// CreateMeetupHandler creates a meetup in RECRUITING state.
func CreateMeetupHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req createMeetupRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Lat == nil || req.Lng == nil {
			return errBadRequest(c, "lat and lng are required")
		}
		m, err := deps.Meetups.Create(c.UserContext(), domain.NewMeetup{
			Title:       req.Title,
			Description: req.Description,
			Capacity:    req.Capacity,
			Location:    domain.GeoPoint{Lat: *req.Lat, Lng: *req.Lng},
		})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(m)
	}
}

// GetMeetupHandler returns meetup detail: status, live count, midpoint and confirmed place.
func GetMeetupHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		m, err := deps.Meetups.GetByID(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(m)
	}
}

// MeetupsInBoundsHandler lists meetups inside a bounding box, newest first.
func MeetupsInBoundsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var b domain.Bounds
		var err error
		if b.MinLat, err = requiredFloat(c, "min_lat"); err != nil {
			return errBadRequest(c, err.Error())
		}
		if b.MinLng, err = requiredFloat(c, "min_lng"); err != nil {
			return errBadRequest(c, err.Error())
		}
		if b.MaxLat, err = requiredFloat(c, "max_lat"); err != nil {
			return errBadRequest(c, err.Error())
		}
		if b.MaxLng, err = requiredFloat(c, "max_lng"); err != nil {
			return errBadRequest(c, err.Error())
		}

		meetups, err := deps.Meetups.InBounds(c.UserContext(), b, c.QueryInt("limit", 0))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"items": meetups})
	}
}

// NearbyMeetupsHandler lists meetups within a radius, nearest first.
func NearbyMeetupsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		lat, err := requiredFloat(c, "lat")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		lng, err := requiredFloat(c, "lng")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		radius := c.QueryFloat("radius_m", 0)

		meetups, err := deps.Meetups.Nearby(c.UserContext(), domain.GeoPoint{Lat: lat, Lng: lng}, radius, c.QueryInt("limit", 0))
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"items": meetups})
	}
}

// ParticipantsHandler lists the live participations of a meetup.
func ParticipantsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		parts, err := deps.Meetups.Participants(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(fiber.Map{"items": parts})
	}
}

// JoinHandler adds a member to a meetup.
func JoinHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		var req joinRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.MemberID <= 0 {
			return errBadRequest(c, "member_id is required")
		}
		loc, err := optionalPoint(req.Lat, req.Lng)
		if err != nil {
			return errBadRequest(c, err.Error())
		}

		res, err := deps.Participation.Join(c.UserContext(), id, req.MemberID, loc)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(res)
	}
}

// LeaveHandler removes a member from a meetup. member_id may come from the
// JSON body or the query string.
func LeaveHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		var req leaveRequest
		if len(c.Body()) > 0 {
			if err := c.BodyParser(&req); err != nil {
				return errBadRequest(c, "invalid request body")
			}
		}
		if req.MemberID == 0 {
			req.MemberID = int64(c.QueryInt("member_id", 0))
		}
		if req.MemberID <= 0 {
			return errBadRequest(c, "member_id is required")
		}

		res, err := deps.Participation.Leave(c.UserContext(), id, req.MemberID)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(res)
	}
}

// ConfirmPlaceHandler fixes the meetup place and moves it to CONFIRMED.
func ConfirmPlaceHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		var choice domain.PlaceChoice
		if err := c.BodyParser(&choice); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		res, err := deps.Status.ConfirmPlace(c.UserContext(), id, choice)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(res)
	}
}

// FinishHandler moves a confirmed meetup to FINISHED.
func FinishHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		res, err := deps.Status.Finish(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(res)
	}
}

// CancelHandler cancels a recruiting meetup.
func CancelHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		res, err := deps.Status.Cancel(c.UserContext(), id)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(res)
	}
}

// PlacesHandler returns places around the meetup midpoint. force=true skips
// the cache and the refresh throttle.
func PlacesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := pathID(c, "id")
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		force := c.QueryBool("force", false)

		res, err := deps.POIs.PlacesForMeetup(c.UserContext(), id, force)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set("X-POI-Source", string(res.Source))
		return c.JSON(res)
	}
}
