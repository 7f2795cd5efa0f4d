package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/biomap"
	"github.com/totegamma/biomap/internal/domain"
	"github.com/totegamma/biomap/internal/infra/database"
	"github.com/totegamma/biomap/internal/infra/repository"
	"github.com/totegamma/biomap/internal/present/rest/middleware"
	"github.com/totegamma/biomap/internal/service"
	"github.com/totegamma/biomap/internal/usecase"
	"github.com/totegamma/biomap/policy"
)

type testServer struct {
	e      *echo.Echo
	signal *service.SignalService
	admin  string
	user   string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := database.NewSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	config := domain.Config{FQDN: "biomap.test", Issuer: "auth.biomap.test", SegmentCount: 64, DefaultRadiusKm: 40}
	repo := repository.NewPinRepository(db)
	signal := service.NewSignalService(nil)
	auth := service.NewAuthService(&config, []byte("0123456789abcdef0123456789abcdef"))

	h := NewHandler(
		config,
		usecase.NewPinUsecase(repo, signal, config.DefaultRadiusKm),
		usecase.NewModerationUsecase(repo, policy.NewAuthorizer(policy.ModerationPolicy), signal),
		usecase.NewFeedUsecase(repo, nil, config.SegmentCount),
		signal,
	)

	e := echo.New()
	e.Use(middleware.NewAuthMiddleware(auth).IdentifyIdentity)
	h.RegisterRoutes(e)

	ctx := context.Background()
	admin, err := auth.IssueToken(ctx, domain.Requester{ID: "moderator", IsAdmin: true}, time.Hour)
	require.NoError(t, err)
	user, err := auth.IssueToken(ctx, domain.Requester{ID: "visitor"}, time.Hour)
	require.NoError(t, err)

	return &testServer{e: e, signal: signal, admin: admin, user: user}
}

func (s *testServer) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func frogInput() biomap.PinInput {
	return biomap.PinInput{
		SpeciesCommonName:     "Test Frog",
		SpeciesScientificName: "Testus frogus",
		Type:                  "Animal",
		ConservationStatus:    "Vulnerable",
		Continent:             "Asia",
		ScientificDescription: "A small green frog observed near a slow stream under dense canopy cover.",
		AreaCenter:            &biomap.PointInput{Lat: biomap.Ptr(10.0), Long: biomap.Ptr(20.0)},
		AreaRadiusKm:          biomap.Ptr(40.0),
	}
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestPinLifecycle(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/pins", "", frogInput())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[biomap.Pin](t, rec)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, domain.AnonymousSubmitter, created.SubmitterID)
	assert.Equal(t, time.Now().Year(), created.DiscoveryYear)

	rec = s.do(t, http.MethodGet, "/pins", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]biomap.Pin](t, rec))

	rec = s.do(t, http.MethodPut, "/pins/approve/"+created.ID, "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	rec = s.do(t, http.MethodPut, "/pins/approve/"+created.ID, s.user, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/pins/pending", s.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	pending := decode[[]biomap.Pin](t, rec)
	require.Len(t, pending, 1)
	assert.Equal(t, created.ID, pending[0].ID)

	rec = s.do(t, http.MethodPut, "/pins/approve/"+created.ID, s.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "approved", decode[biomap.Pin](t, rec).Status)

	rec = s.do(t, http.MethodGet, "/pins", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	approved := decode[[]biomap.Pin](t, rec)
	require.Len(t, approved, 1)
	assert.Equal(t, "Test Frog", approved[0].SpeciesCommonName)

	rec = s.do(t, http.MethodPut, "/pins/reject/"+created.ID, s.admin, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = s.do(t, http.MethodGet, "/pins/pending", s.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]biomap.Pin](t, rec))

	rec = s.do(t, http.MethodGet, "/pins/map", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	features := decode[[]biomap.MapFeature](t, rec)
	require.Len(t, features, 1)
	assert.Len(t, features[0].Area, 65)
	assert.Equal(t, features[0].Area[0], features[0].Area[64])
}

func TestRejectedPinStaysHidden(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodPost, "/pins", s.user, frogInput())
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[biomap.Pin](t, rec)
	assert.Equal(t, "visitor", created.SubmitterID)

	rec = s.do(t, http.MethodPut, "/pins/reject/"+created.ID, s.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rejected", decode[biomap.Pin](t, rec).Status)

	rec = s.do(t, http.MethodGet, "/pins", "", nil)
	assert.Empty(t, decode[[]biomap.Pin](t, rec))

	rec = s.do(t, http.MethodGet, "/pins/"+created.ID, s.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "rejected", decode[biomap.Pin](t, rec).Status)
}

func TestCreatePinValidation(t *testing.T) {
	s := newTestServer(t)

	input := frogInput()
	input.SpeciesCommonName = ""
	input.AreaRadiusKm = biomap.Ptr(60.0)
	input.ScientificDescription = "too short"

	rec := s.do(t, http.MethodPost, "/pins", "", input)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, `{"error":"validation failed","fields":{"speciesCommonName":`), body)

	resp := decode[biomap.ErrorResponse](t, rec)
	assert.Contains(t, resp.Fields, "speciesCommonName")
	assert.Contains(t, resp.Fields, "scientificDescription")
	assert.Contains(t, resp.Fields, "areaRadiusKm")
	assert.Len(t, resp.Fields, 3)

	req := httptest.NewRequest(http.MethodPost, "/pins", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec = httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/pins/pending", s.admin, nil)
	assert.Empty(t, decode[[]biomap.Pin](t, rec))
}

func TestCreatePinWrongTypeIsFieldViolation(t *testing.T) {
	s := newTestServer(t)

	body := map[string]any{
		"speciesCommonName":     "",
		"speciesScientificName": "Testus frogus",
		"type":                  "Animal",
		"conservationStatus":    "Vulnerable",
		"continent":             "Asia",
		"scientificDescription": "short",
		"areaCenter":            map[string]any{"lat": "north", "long": 20},
		"areaRadiusKm":          40,
	}
	rec := s.do(t, http.MethodPost, "/pins", "", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())

	resp := decode[biomap.ErrorResponse](t, rec)
	assert.Equal(t, "is required", resp.Fields["speciesCommonName"])
	assert.Contains(t, resp.Fields, "scientificDescription")
	assert.Equal(t, "must be a number", resp.Fields["areaCenter.lat"])
	assert.Len(t, resp.Fields, 3)

	body["areaCenter"] = "10,20"
	body["discoveryYear"] = 1999.5
	rec = s.do(t, http.MethodPost, "/pins", "", body)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	resp = decode[biomap.ErrorResponse](t, rec)
	assert.Contains(t, resp.Fields, "areaCenter")
	assert.Equal(t, "must be an integer", resp.Fields["discoveryYear"])

	rec = s.do(t, http.MethodPost, "/pins", "", []string{"not", "an", "object"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/pins/pending", s.admin, nil)
	assert.Empty(t, decode[[]biomap.Pin](t, rec))
}

func TestGetPinForbiddenBeforeNotFound(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/pins/does-not-exist", "", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodPut, "/pins/approve/does-not-exist", s.user, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = s.do(t, http.MethodGet, "/pins/does-not-exist", s.admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodPut, "/pins/approve/does-not-exist", s.admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCircleEndpoint(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/geo/circle?lat=12.5&long=-45&radius=0&segments=4", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	ring := decode[[][2]float64](t, rec)
	require.Len(t, ring, 5)
	for _, p := range ring {
		assert.Equal(t, [2]float64{-45, 12.5}, p)
	}

	rec = s.do(t, http.MethodGet, "/geo/circle?lat=0&long=0", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[][2]float64](t, rec), 65)

	rec = s.do(t, http.MethodGet, "/geo/circle?lat=abc&long=0", "", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/geo/circle?lat=95&long=0&radius=5000&segments=2", "", nil)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	resp := decode[biomap.ErrorResponse](t, rec)
	assert.Contains(t, resp.Fields, "center")
	assert.Contains(t, resp.Fields, "radius")
	assert.Contains(t, resp.Fields, "segments")
}

func TestWellKnown(t *testing.T) {
	s := newTestServer(t)

	rec := s.do(t, http.MethodGet, "/.well-known/biomap", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	wk := decode[biomap.WellKnown](t, rec)
	assert.Equal(t, "biomap.test", wk.Domain, "domain is the node fqdn, not the token issuer")
	assert.Equal(t, "/pins/approve/{id}", wk.Endpoints["biomap.pins.approve"].Template)
	assert.True(t, wk.Endpoints["biomap.pins.approve"].Admin)
}

func TestRealtimeDeliversModerationEvents(t *testing.T) {
	s := newTestServer(t)
	srv := httptest.NewServer(s.e)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/realtime"

	adminConn, _, err := websocket.DefaultDialer.Dial(wsURL+"?token="+s.admin, nil)
	require.NoError(t, err)
	defer adminConn.Close()

	publicConn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer publicConn.Close()

	require.Eventually(t, func() bool {
		return s.signal.LocalSubscribers(domain.ChannelModeration) == 1 &&
			s.signal.LocalSubscribers(domain.ChannelPublic) == 2
	}, 2*time.Second, 10*time.Millisecond)

	rec := s.do(t, http.MethodPost, "/pins", "", frogInput())
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode[biomap.Pin](t, rec)

	require.NoError(t, adminConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event biomap.Event
	require.NoError(t, adminConn.ReadJSON(&event))
	assert.Equal(t, domain.EventPinSubmitted, event.Type)
	assert.Equal(t, created.ID, event.Pin.ID)

	rec = s.do(t, http.MethodPut, "/pins/approve/"+created.ID, s.admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, publicConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, publicConn.ReadJSON(&event))
	assert.Equal(t, domain.EventPinApproved, event.Type)
	assert.Equal(t, "approved", event.Pin.Status)

	require.NoError(t, adminConn.ReadJSON(&event))
	assert.Equal(t, domain.EventPinApproved, event.Type)
}
