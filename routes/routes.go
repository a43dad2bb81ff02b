package routes

import (
	"net/http"
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"slotbook/apperror"
	"slotbook/handlers"
	"slotbook/middleware"
	"slotbook/utils"
)

// RegisterHealthRoute registers a health-check endpoint.
func RegisterHealthRoute(r *gin.Engine, hb *handlers.HandlerBundle) {
	r.GET("/health", hb.Health)
}

// RegisterBookingRoutes sets up the endpoints for the booking engine.
func RegisterBookingRoutes(r *gin.Engine, hb *handlers.HandlerBundle) {
	bookingGroup := r.Group("/api/bookings")
	{
		bookingGroup.GET("", hb.ListAvailable)
		bookingGroup.POST("/book", hb.CreateBooking)
		bookingGroup.GET("/:bookingId", hb.GetBooking)
		bookingGroup.POST("/:bookingId/cancel", hb.CancelBooking)
		bookingGroup.POST("/:bookingId/pay", hb.InitializePayment)
		bookingGroup.POST("/:bookingId/pay/confirm", hb.ConfirmPayment)

		// Static segments take precedence over :bookingId in gin's router.
		if hb.Tokens != nil && hb.Tokens.Enabled() {
			bookingGroup.GET("/booked", middleware.JWTAuthAdminMiddleware(hb.Tokens), hb.ListBooked)
		}
	}
}

// RegisterRoutes centralizes registration of all endpoints and middleware.
func RegisterRoutes(r *gin.Engine, hb *handlers.HandlerBundle, allowOrigins []string) {
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type", utils.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", utils.RequestIDHeader},
		AllowCredentials: !slices.Contains(allowOrigins, "*"),
		MaxAge:           12 * time.Hour,
	}))

	RegisterHealthRoute(r, hb)
	RegisterBookingRoutes(r, hb)

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, utils.ErrorResponse{
			Kind:    apperror.KindNotFound,
			Message: "Route not found",
		})
	})
}
