package rest

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	"github.com/totegamma/biomap"
	"github.com/totegamma/biomap/internal/domain"
	"github.com/totegamma/biomap/internal/present/rest/presenter"
	"github.com/totegamma/biomap/internal/usecase"
)

// Realtime streams published events until ctx is done.
type Realtime interface {
	Realtime(ctx context.Context, channels []string, output chan<- biomap.Event) error
}

type Handler struct {
	config     domain.Config
	pin        *usecase.PinUsecase
	moderation *usecase.ModerationUsecase
	feed       *usecase.FeedUsecase
	signal     Realtime
}

func NewHandler(
	config domain.Config,
	pin *usecase.PinUsecase,
	moderation *usecase.ModerationUsecase,
	feed *usecase.FeedUsecase,
	signal Realtime,
) *Handler {
	return &Handler{
		config:     config,
		pin:        pin,
		moderation: moderation,
		feed:       feed,
		signal:     signal,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/.well-known/biomap", h.handleWellKnown)
	e.POST("/pins", h.handleCreatePin)
	e.GET("/pins", h.handleListApproved)
	e.GET("/pins/map", h.handleMap)
	e.GET("/pins/pending", h.handleListPending)
	e.GET("/pins/:id", h.handleGetPin)
	e.PUT("/pins/approve/:id", h.handleApprove)
	e.PUT("/pins/reject/:id", h.handleReject)
	e.GET("/geo/circle", h.handleCircle)
	e.GET("/realtime", h.handleRealtime)
}

func (h *Handler) handleWellKnown(c echo.Context) error {
	wellknown := biomap.WellKnown{
		Version: "1.0",
		Domain:  h.config.FQDN,
		Endpoints: map[string]biomap.Endpoint{
			"biomap.pins.create": {
				Template: "/pins",
				Method:   "POST",
			},
			"biomap.pins.approved": {
				Template: "/pins",
				Method:   "GET",
			},
			"biomap.pins.map": {
				Template: "/pins/map",
				Method:   "GET",
			},
			"biomap.pins.pending": {
				Template: "/pins/pending",
				Method:   "GET",
				Admin:    true,
			},
			"biomap.pins.get": {
				Template: "/pins/{id}",
				Method:   "GET",
				Admin:    true,
			},
			"biomap.pins.approve": {
				Template: "/pins/approve/{id}",
				Method:   "PUT",
				Admin:    true,
			},
			"biomap.pins.reject": {
				Template: "/pins/reject/{id}",
				Method:   "PUT",
				Admin:    true,
			},
			"biomap.geo.circle": {
				Template: "/geo/circle",
				Method:   "GET",
				Query:    &[]string{"lat", "long", "radius", "segments"},
			},
			"biomap.realtime": {
				Template: "/realtime",
				Method:   "GET",
			},
		},
	}
	return presenter.OK(c, wellknown)
}

func (h *Handler) handleCreatePin(c echo.Context) error {
	ctx := c.Request().Context()

	input, malformed, err := decodePinInput(json.NewDecoder(c.Request().Body))
	if err != nil {
		return presenter.BadRequestMessage(c, "request body must be a pin object")
	}

	requester := domain.RequesterFromContext(ctx)
	draft := domain.DraftFromInput(requester.ID, input)
	draft.Malformed = malformed
	pin, err := h.pin.Submit(ctx, draft)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.Created(c, pin.View())
}

func (h *Handler) handleListApproved(c echo.Context) error {
	ctx := c.Request().Context()

	pins, err := h.feed.ListApproved(ctx)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, views(pins))
}

func (h *Handler) handleMap(c echo.Context) error {
	ctx := c.Request().Context()

	features, err := h.feed.MapFeatures(ctx)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, features)
}

func (h *Handler) handleListPending(c echo.Context) error {
	ctx := c.Request().Context()

	pins, err := h.moderation.ListPending(ctx, domain.RequesterFromContext(ctx))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, views(pins))
}

func (h *Handler) handleGetPin(c echo.Context) error {
	ctx := c.Request().Context()

	pin, err := h.moderation.Get(ctx, domain.RequesterFromContext(ctx), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, pin.View())
}

func (h *Handler) handleApprove(c echo.Context) error {
	ctx := c.Request().Context()

	pin, err := h.moderation.Approve(ctx, domain.RequesterFromContext(ctx), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, pin.View())
}

func (h *Handler) handleReject(c echo.Context) error {
	ctx := c.Request().Context()

	pin, err := h.moderation.Reject(ctx, domain.RequesterFromContext(ctx), c.Param("id"))
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, pin.View())
}

func (h *Handler) handleCircle(c echo.Context) error {
	ctx := c.Request().Context()

	lat, err := strconv.ParseFloat(c.QueryParam("lat"), 64)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid lat parameter")
	}
	long, err := strconv.ParseFloat(c.QueryParam("long"), 64)
	if err != nil {
		return presenter.BadRequestMessage(c, "invalid long parameter")
	}

	radius := h.config.DefaultRadiusKm
	if radiusStr := c.QueryParam("radius"); radiusStr != "" {
		radius, err = strconv.ParseFloat(radiusStr, 64)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid radius parameter")
		}
	}

	segments := 0
	if segmentsStr := c.QueryParam("segments"); segmentsStr != "" {
		segments, err = strconv.Atoi(segmentsStr)
		if err != nil {
			return presenter.BadRequestMessage(c, "invalid segments parameter")
		}
	}

	ring, err := h.feed.Preview(ctx, domain.Point{Lat: lat, Long: long}, radius, segments)
	if err != nil {
		return presenter.Error(c, err)
	}
	return presenter.OK(c, ring)
}

func views(pins []domain.PinRecord) []biomap.Pin {
	out := make([]biomap.Pin, len(pins))
	for i, pin := range pins {
		out[i] = pin.View()
	}
	return out
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Request is a client frame on the realtime socket.
type Request struct {
	Type string `json:"type"`
}

// handleRealtime streams approvals to everybody and the moderation queue to admins.
func (h *Handler) handleRealtime(c echo.Context) error {
	if h.signal == nil {
		return c.JSON(http.StatusServiceUnavailable, biomap.ErrorResponse{Error: "realtime is not enabled"})
	}

	requester := domain.RequesterFromContext(c.Request().Context())
	channels := []string{domain.ChannelPublic}
	if requester.IsAdmin {
		channels = append(channels, domain.ChannelModeration)
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		slog.Error(
			"Failed to upgrade WebSocket",
			slog.String("error", err.Error()),
			slog.String("module", "socket"),
		)
		return err
	}
	defer func() {
		ws.Close()
	}()

	ctx, cancel := context.WithCancel(c.Request().Context())
	defer cancel()

	output := make(chan biomap.Event)
	go func() {
		err := h.signal.Realtime(ctx, channels, output)
		if err != nil {
			slog.ErrorContext(
				ctx, "realtime subscription failed",
				slog.String("error", err.Error()),
				slog.String("module", "socket"),
			)
			cancel()
		}
	}()

	go func() {
		defer cancel()
		for {
			var req Request
			err := ws.ReadJSON(&req)
			if err != nil {
				wsErr, ok := err.(*websocket.CloseError)
				if ok {
					if !(wsErr.Code == websocket.CloseNormalClosure || wsErr.Code == websocket.CloseGoingAway) {
						slog.DebugContext(
							ctx, "WebSocket closed",
							slog.String("error", wsErr.Error()),
							slog.String("module", "socket"),
						)
					}
				} else if ctx.Err() == nil {
					slog.DebugContext(
						ctx, "Error reading message",
						slog.String("error", err.Error()),
						slog.String("module", "socket"),
					)
				}
				return
			}

			switch req.Type {
			case "h": // heartbeat
			default:
				slog.InfoContext(
					ctx, "Unknown request type",
					slog.String("type", req.Type),
					slog.String("module", "socket"),
				)
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event := <-output:
			ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
			err := ws.WriteJSON(event)
			if err != nil {
				slog.ErrorContext(
					ctx, "Error writing message",
					slog.String("error", err.Error()),
					slog.String("module", "socket"),
				)
				return nil
			}
		}
	}
}
