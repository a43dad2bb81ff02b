package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slotbook/handlers"
	"slotbook/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func named(name string) gin.HandlerFunc {
	return func(c *gin.Context) { c.String(http.StatusOK, name) }
}

func testBundle(tokens *utils.TokenManager) *handlers.HandlerBundle {
	return &handlers.HandlerBundle{
		Tokens:            tokens,
		Health:            named("health"),
		ListAvailable:     named("available"),
		ListBooked:        named("booked"),
		CreateBooking:     named("create"),
		GetBooking:        named("get"),
		CancelBooking:     named("cancel"),
		InitializePayment: named("pay"),
		ConfirmPayment:    named("confirm"),
	}
}

func serve(r *gin.Engine, method, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRegisterRoutes(t *testing.T) {
	tokens := utils.NewTokenManager("routes-secret")
	r := gin.New()
	RegisterRoutes(r, testBundle(tokens), nil)

	id := "65f1c0ffee0ddba11ad0beef"
	tests := []struct {
		method, path, want string
	}{
		{http.MethodGet, "/health", "health"},
		{http.MethodGet, "/api/bookings", "available"},
		{http.MethodPost, "/api/bookings/book", "create"},
		{http.MethodGet, "/api/bookings/" + id, "get"},
		{http.MethodPost, "/api/bookings/" + id + "/cancel", "cancel"},
		{http.MethodPost, "/api/bookings/" + id + "/pay", "pay"},
		{http.MethodPost, "/api/bookings/" + id + "/pay/confirm", "confirm"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(r, tt.method, tt.path, "")
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}

	w := serve(r, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"kind":"NOT_FOUND","message":"Route not found"}`, w.Body.String())
}

func TestBookedRouteRequiresAdmin(t *testing.T) {
	tokens := utils.NewTokenManager("routes-secret")
	r := gin.New()
	RegisterRoutes(r, testBundle(tokens), []string{"https://app.example.com"})

	w := serve(r, http.MethodGet, "/api/bookings/booked", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := tokens.GenerateToken("ops", utils.RoleAdmin, time.Hour)
	require.NoError(t, err)
	w = serve(r, http.MethodGet, "/api/bookings/booked", "Bearer "+token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "booked", w.Body.String())
}

func TestBookedRouteDisabledWithoutSecret(t *testing.T) {
	r := gin.New()
	RegisterRoutes(r, testBundle(utils.NewTokenManager("")), nil)

	// Without the admin route, "booked" is matched as a booking id.
	w := serve(r, http.MethodGet, "/api/bookings/booked", "")
	assert.Equal(t, "get", w.Body.String())
}
