package router

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/discover-nairobi/internal/catalog"
	"github.com/iliyamo/discover-nairobi/internal/config"
	"github.com/iliyamo/discover-nairobi/internal/handler"
	"github.com/iliyamo/discover-nairobi/internal/middleware"
	"github.com/iliyamo/discover-nairobi/internal/payment"
	"github.com/iliyamo/discover-nairobi/internal/repository"
	"github.com/iliyamo/discover-nairobi/internal/service"
	"github.com/iliyamo/discover-nairobi/internal/store"
)

const testSecret = "router-test-secret"

type app struct {
	e        *echo.Echo
	callback *payment.CallbackGateway
}

func newApp(t *testing.T) *app {
	t.Helper()
	cfg := config.Config{
		JWTSecret:      testSecret,
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     bcrypt.MinCost,
	}
	st := store.NewMemoryStore()
	bookings := repository.NewBookingRepo(st)
	organizers := repository.NewOrganizerRepo(st)
	users := repository.NewUserRepo(st)
	profiles := repository.NewProfileRepo(st)

	events := catalog.New(organizers, nil, 0)
	cb := payment.NewCallbackGateway(0)
	payments := payment.NewManager(cb, payment.DefaultTimings())
	pub := service.NopPublisher{}

	e := echo.New()
	paymentH := handler.NewPaymentHandler(payments, cb, "hook-secret")
	RegisterRoutes(e)
	RegisterAuth(e, handler.NewAuthHandler(cfg, users, repository.NewTokenRepo(st)), testSecret)
	cacheCfg := config.CacheConfig{}
	RegisterPublic(e, handler.NewEventsHandler(events), paymentH, middleware.NewRedisCache(cacheCfg, nil))
	RegisterCustomer(e,
		handler.NewBookingHandler(service.NewBookingService(bookings, events, payments, pub), profiles, users),
		paymentH,
		handler.NewProfileHandler(profiles, repository.NewFavoriteRepo(st), users),
		testSecret)
	RegisterOrganizer(e, handler.NewOrganizerHandler(service.NewOrganizerService(organizers, bookings, pub), users), testSecret, middleware.NewCacheBuster(cacheCfg, nil))
	return &app{e: e, callback: cb}
}

func (a *app) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

type session struct {
	UserID  string
	Access  string
	Refresh string
}

func (a *app) register(t *testing.T, email, role string) session {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/auth/register", "",
		`{"email":"`+email+`","password":"secret1","role":"`+role+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var out struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Access struct {
			Token string `json:"token"`
		} `json:"access"`
		Refresh struct {
			Token string `json:"token"`
		} `json:"refresh"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return session{UserID: out.User.ID, Access: out.Access.Token, Refresh: out.Refresh.Token}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func (a *app) createEvent(t *testing.T, org session, body string) string {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/v1/organizer/events", org.Access, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["id"].(string)
}

const freeEvent = `{"title":"Community Clean-up","category":"Community","date":"2030-06-01",
	"time":"09:00","location":"Uhuru Park","neighborhood":"CBD","price":0,"capacity":2}`

func TestHealth(t *testing.T) {
	a := newApp(t)
	rec := a.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthFlow(t *testing.T) {
	a := newApp(t)
	s := a.register(t, "Amina@Example.com", "")

	rec := a.do(t, http.MethodPost, "/v1/auth/register", "", `{"email":"amina@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/auth/register", "", `{"email":"x@example.com","password":"abc"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/auth/login", "", `{"email":"amina@example.com","password":"wrong!"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/auth/login", "", `{"email":"amina@example.com","password":"secret1"}`)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/me", s.Access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	me := decode(t, rec)
	assert.Equal(t, s.UserID, me["user_id"])
	assert.Equal(t, "amina@example.com", me["email"])
	assert.Equal(t, "CUSTOMER", me["role"])

	rec = a.do(t, http.MethodGet, "/v1/me", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/auth/refresh", "", `{"refresh_token":"`+s.Refresh+`"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	// the old refresh token was rotated out
	rec = a.do(t, http.MethodPost, "/v1/auth/refresh", "", `{"refresh_token":"`+s.Refresh+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesAllWithBearer(t *testing.T) {
	a := newApp(t)
	s := a.register(t, "kip@example.com", "CUSTOMER")

	rec := a.do(t, http.MethodPost, "/v1/logout", s.Access, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/auth/refresh-access", "", `{"refresh_token":"`+s.Refresh+`"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/auth/logout", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPublicCatalog(t *testing.T) {
	a := newApp(t)

	rec := a.do(t, http.MethodGet, "/v1/events?page_size=3", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Len(t, body["data"], 3)
	assert.EqualValues(t, 3, body["page_size"])
	assert.EqualValues(t, len(catalog.Samples()), body["total"])

	rec = a.do(t, http.MethodGet, "/v1/events?min_price=abc", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/events/1", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1", decode(t, rec)["id"])

	rec = a.do(t, http.MethodGet, "/v1/events/nope", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/events/facets", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOrganizerRoutesRequireRole(t *testing.T) {
	a := newApp(t)
	cust := a.register(t, "c@example.com", "CUSTOMER")

	rec := a.do(t, http.MethodGet, "/v1/organizer/events", cust.Access, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/organizer/events", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestFreeBookingLifecycle(t *testing.T) {
	a := newApp(t)
	org := a.register(t, "org@example.com", "ORGANIZER")
	cust := a.register(t, "fan@example.com", "CUSTOMER")
	other := a.register(t, "other@example.com", "CUSTOMER")

	rec := a.do(t, http.MethodPost, "/v1/organizer/events", org.Access, `{"title":""}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NotEmpty(t, decode(t, rec)["details"])

	eventID := a.createEvent(t, org, freeEvent)

	// the published event shows up in the public catalog
	rec = a.do(t, http.MethodGet, "/v1/events/"+eventID, "", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/bookings", cust.Access, `{"eventId":"`+eventID+`","quantity":0}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code, "an explicit zero is not defaulted")

	rec = a.do(t, http.MethodPost, "/v1/bookings", cust.Access, `{"eventId":"`+eventID+`","quantity":2}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	booking := decode(t, rec)["booking"].(map[string]any)
	bookingID := booking["id"].(string)
	code := booking["confirmationCode"].(string)
	assert.Regexp(t, `^DN-[A-Z0-9]{6}$`, code)
	assert.EqualValues(t, 0, booking["totalAmount"])

	rec = a.do(t, http.MethodPost, "/v1/bookings", other.Access, `{"eventId":"`+eventID+`"}`)
	assert.Equal(t, http.StatusConflict, rec.Code, "capacity 2 is used up")

	rec = a.do(t, http.MethodGet, "/v1/bookings?scope=upcoming", cust.Access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["total"])

	rec = a.do(t, http.MethodGet, "/v1/bookings?scope=later", cust.Access, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/users/"+cust.UserID+"/bookings", cust.Access, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodGet, "/v1/users/"+cust.UserID+"/bookings", other.Access, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/bookings/"+bookingID, other.Access, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/bookings/"+bookingID+"/ticket", cust.Access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), code)
	assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "attachment")

	rec = a.do(t, http.MethodGet, "/v1/bookings/"+bookingID+"/calendar", cust.Access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "BEGIN:VCALENDAR")

	rec = a.do(t, http.MethodGet, "/v1/bookings/"+bookingID+"/qr", cust.Access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))

	rec = a.do(t, http.MethodGet, "/v1/organizer/checkin/"+code, org.Access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["valid"])

	rec = a.do(t, http.MethodGet, "/v1/organizer/checkin/"+code, org.Access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "already checked in", decode(t, rec)["reason"])

	rec = a.do(t, http.MethodGet, "/v1/organizer/events/"+eventID+"/analytics", org.Access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, decode(t, rec)["totalTicketsSold"])

	rec = a.do(t, http.MethodPost, "/v1/bookings/"+bookingID+"/cancel", cust.Access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "cancelled", decode(t, rec)["status"])

	rec = a.do(t, http.MethodPost, "/v1/bookings/"+bookingID+"/cancel", cust.Access, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	// seats freed by the cancellation can be booked again
	rec = a.do(t, http.MethodPost, "/v1/bookings", other.Access, `{"eventId":"`+eventID+`"}`)
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestOrganizerEventCrud(t *testing.T) {
	a := newApp(t)
	org := a.register(t, "org@example.com", "ORGANIZER")
	rival := a.register(t, "rival@example.com", "ORGANIZER")

	eventID := a.createEvent(t, org, freeEvent)

	rec := a.do(t, http.MethodGet, "/v1/organizer/events/"+eventID, rival.Access, "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = a.do(t, http.MethodPatch, "/v1/organizer/events/"+eventID, org.Access, `{"status":"draft"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "draft", decode(t, rec)["status"])
	assert.Equal(t, "Community Clean-up", decode(t, rec)["title"])

	// drafts leave the public catalog
	rec = a.do(t, http.MethodGet, "/v1/events/"+eventID, "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/organizer/dashboard", org.Access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 1, decode(t, rec)["totalEvents"])

	rec = a.do(t, http.MethodDelete, "/v1/organizer/events/"+eventID, org.Access, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/organizer/events/"+eventID, org.Access, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPut, "/v1/organizer/me", org.Access, `{"name":"Kenya Vibes"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Kenya Vibes", decode(t, rec)["name"])
	assert.Equal(t, "org@example.com", decode(t, rec)["email"])
}

func TestPaidCheckoutWithCallback(t *testing.T) {
	a := newApp(t)
	cust := a.register(t, "payer@example.com", "CUSTOMER")
	other := a.register(t, "nosy@example.com", "CUSTOMER")

	rec := a.do(t, http.MethodPost, "/v1/payments/mpesa", cust.Access, `{"eventId":"1","quantity":2}`)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	snap := decode(t, rec)["payment"].(map[string]any)
	sessionID := snap["id"].(string)
	assert.Equal(t, "phone", snap["step"])
	assert.EqualValues(t, 5000, snap["amount"])

	rec = a.do(t, http.MethodGet, "/v1/payments/"+sessionID, other.Access, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = a.do(t, http.MethodPut, "/v1/payments/"+sessionID+"/phone", cust.Access, `{"phone":"12"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = a.do(t, http.MethodPost, "/v1/payments/"+sessionID+"/submit", cust.Access, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code, "too few digits to send the push")

	rec = a.do(t, http.MethodPost, "/v1/payments/"+sessionID+"/pin", cust.Access, `{"pin":"1234"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = a.do(t, http.MethodPost, "/v1/payments/mpesa/callback", "", `{"sessionId":"`+sessionID+`","success":true}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = a.do(t, http.MethodDelete, "/v1/payments/"+sessionID, cust.Access, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/payments/"+sessionID, cust.Access, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProfileAndFavorites(t *testing.T) {
	a := newApp(t)
	s := a.register(t, "wanjiku@example.com", "CUSTOMER")

	rec := a.do(t, http.MethodGet, "/v1/profile", s.Access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "wanjiku@example.com", decode(t, rec)["email"])

	rec = a.do(t, http.MethodPut, "/v1/profile", s.Access, `{"name":"","email":"w@example.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = a.do(t, http.MethodPut, "/v1/profile", s.Access, `{"name":"Wanjiku","email":"w@example.com","phone":"0712345678"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/v1/profile", s.Access, "")
	assert.Equal(t, "Wanjiku", decode(t, rec)["name"])

	rec = a.do(t, http.MethodPost, "/v1/favorites/3", s.Access, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, decode(t, rec)["favorite"])

	rec = a.do(t, http.MethodGet, "/v1/favorites", s.Access, "")
	assert.Equal(t, []any{"3"}, decode(t, rec)["data"])

	rec = a.do(t, http.MethodPost, "/v1/favorites/3", s.Access, "")
	assert.Equal(t, false, decode(t, rec)["favorite"])
}
