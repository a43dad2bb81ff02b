package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"slotbook/apperror"
	"slotbook/models"
	"slotbook/services/booking"
	"slotbook/utils"
)

const maxBodyBytes = 1 << 16

// BookingHandler serves the /api/bookings endpoints.
type BookingHandler struct {
	svc    booking.BookingService
	logger *zap.Logger
}

func NewBookingHandler(svc booking.BookingService, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{svc: svc, logger: logger}
}

// ListAvailable handles GET /api/bookings?startDate&endDate.
func (h *BookingHandler) ListAvailable(c *gin.Context) {
	q, err := parseRangeQuery(c)
	if err != nil {
		utils.JSONError(c, h.logger, err)
		return
	}
	slots, err := h.svc.ListAvailableSlots(c.Request.Context(), q)
	if err != nil {
		utils.JSONError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, slots)
}

// ListBooked handles GET /api/bookings/booked?startDate&endDate.
func (h *BookingHandler) ListBooked(c *gin.Context) {
	q, err := parseRangeQuery(c)
	if err != nil {
		utils.JSONError(c, h.logger, err)
		return
	}
	bookings, err := h.svc.ListBookedSlots(c.Request.Context(), q)
	if err != nil {
		utils.JSONError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, bookings)
}

// Create handles POST /api/bookings/book.
func (h *BookingHandler) Create(c *gin.Context) {
	var input models.BookingInput
	if err := decodeStrict(c, &input); err != nil {
		utils.JSONError(c, h.logger, err)
		return
	}
	b, err := h.svc.CreateBooking(c.Request.Context(), input)
	if err != nil {
		utils.JSONError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

// Get handles GET /api/bookings/:bookingId.
func (h *BookingHandler) Get(c *gin.Context) {
	b, err := h.svc.GetBooking(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		utils.JSONError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// Cancel handles POST /api/bookings/:bookingId/cancel.
func (h *BookingHandler) Cancel(c *gin.Context) {
	resp, err := h.svc.CancelBooking(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		utils.JSONError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// InitializePayment handles POST /api/bookings/:bookingId/pay.
func (h *BookingHandler) InitializePayment(c *gin.Context) {
	paymentInit, err := h.svc.InitializePayment(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		utils.JSONError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, paymentInit)
}

// ConfirmPayment handles POST /api/bookings/:bookingId/pay/confirm.
func (h *BookingHandler) ConfirmPayment(c *gin.Context) {
	resp, err := h.svc.ConfirmPayment(c.Request.Context(), c.Param("bookingId"))
	if err != nil {
		utils.JSONError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// decodeStrict decodes a single JSON object and rejects unknown fields.
func decodeStrict(c *gin.Context, dst any) error {
	dec := json.NewDecoder(io.LimitReader(c.Request.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return bodyError(err)
	}
	if dec.More() {
		return apperror.NewValidation([]apperror.FieldError{{Field: "body", Message: "Request body must contain a single JSON object"}})
	}
	return nil
}

func bodyError(err error) error {
	var typeErr *json.UnmarshalTypeError
	var timeErr *time.ParseError
	switch {
	case errors.Is(err, io.EOF):
		return apperror.NewValidation([]apperror.FieldError{{Field: "body", Message: "Request body is required"}})
	case errors.As(err, &typeErr):
		return apperror.NewValidation([]apperror.FieldError{{
			Field:   typeErr.Field,
			Message: fmt.Sprintf("%q has an invalid type", typeErr.Field),
		}})
	case errors.As(err, &timeErr), strings.HasPrefix(err.Error(), "Time.UnmarshalJSON"):
		return apperror.NewValidation([]apperror.FieldError{{Field: "slotStart", Message: `"slotStart" must be an RFC 3339 timestamp`}})
	case strings.HasPrefix(err.Error(), "json: unknown field "):
		field := strings.Trim(strings.TrimPrefix(err.Error(), "json: unknown field "), `"`)
		return apperror.NewValidation([]apperror.FieldError{{Field: field, Message: fmt.Sprintf("%q is not allowed", field)}})
	default:
		return apperror.NewValidation([]apperror.FieldError{{Field: "body", Message: "Request body is not valid JSON"}})
	}
}

var rangeQueryKeys = map[string]struct{}{"startDate": {}, "endDate": {}}

// parseRangeQuery reads startDate and endDate as RFC 3339 timestamps or plain
// dates (UTC midnight). Unknown query keys are rejected.
func parseRangeQuery(c *gin.Context) (models.RangeQuery, error) {
	var fields []apperror.FieldError
	for key := range c.Request.URL.Query() {
		if _, ok := rangeQueryKeys[key]; !ok {
			fields = append(fields, apperror.FieldError{Field: key, Message: fmt.Sprintf("%q is not allowed", key)})
		}
	}

	var q models.RangeQuery
	var ok bool
	if raw := c.Query("startDate"); raw != "" {
		if q.StartDate, ok = parseDate(raw); !ok {
			fields = append(fields, apperror.FieldError{Field: "startDate", Message: `"startDate" must be a valid date`})
		}
	}
	if raw := c.Query("endDate"); raw != "" {
		if q.EndDate, ok = parseDate(raw); !ok {
			fields = append(fields, apperror.FieldError{Field: "endDate", Message: `"endDate" must be a valid date`})
		}
	}
	if len(fields) > 0 {
		return q, apperror.NewValidation(fields)
	}
	// Missing values stay zero and are reported by RangeQuery.Validate.
	return q, nil
}

func parseDate(raw string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
