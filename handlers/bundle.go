package handlers

import (
	"github.com/gin-gonic/gin"

	"slotbook/utils"
)

// HandlerBundle groups the endpoint handlers registered by the routes package.
type HandlerBundle struct {
	// Tokens guards the admin-only endpoints. Admin routes are not registered when
	// no signing secret is configured.
	Tokens *utils.TokenManager

	Health gin.HandlerFunc

	// Booking endpoints
	ListAvailable     gin.HandlerFunc
	ListBooked        gin.HandlerFunc
	CreateBooking     gin.HandlerFunc
	GetBooking        gin.HandlerFunc
	CancelBooking     gin.HandlerFunc
	InitializePayment gin.HandlerFunc
	ConfirmPayment    gin.HandlerFunc
}

// NewHandlerBundle wires a BookingHandler and a health endpoint into a bundle.
func NewHandlerBundle(bh *BookingHandler, health gin.HandlerFunc, tokens *utils.TokenManager) *HandlerBundle {
	return &HandlerBundle{
		Tokens:            tokens,
		Health:            health,
		ListAvailable:     bh.ListAvailable,
		ListBooked:        bh.ListBooked,
		CreateBooking:     bh.Create,
		GetBooking:        bh.Get,
		CancelBooking:     bh.Cancel,
		InitializePayment: bh.InitializePayment,
		ConfirmPayment:    bh.ConfirmPayment,
	}
}
