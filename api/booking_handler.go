package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	bk "github.com/hanksha/garage-booking-backend/booking"
	"github.com/hanksha/garage-booking-backend/calendar"
)

type BookingService interface {
	ListBookings(ctx context.Context) []bk.Booking
	ListEvents(ctx context.Context) []bk.Event
	FindBookingByID(ctx context.Context, id string) (bk.Booking, error)
	CheckConflict(ctx context.Context, start, excludeID string) (bool, error)
	CreateBooking(ctx context.Context, req bk.Request, override bool) (bk.Booking, error)
	ModifyBooking(ctx context.Context, id string, req bk.Request, override bool) (bk.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
	ConfirmBooking(ctx context.Context, id string) error
	CancelBooking(ctx context.Context, id, reason string) error
	Sync(ctx context.Context) (int, error)
	Flush(ctx context.Context) error
}

type BookingHandler struct {
	service    BookingService
	adminToken string
}

func NewBookingHandler(service BookingService, adminToken string) *BookingHandler {
	return &BookingHandler{service: service, adminToken: adminToken}
}

func (h *BookingHandler) Register(rg *gin.RouterGroup) {
	adminOnly := AdminAuth(h.adminToken)
	rg.GET("", h.List)
	rg.GET("/events", h.ListEvents)
	rg.GET("/calendar.ics", h.ExportCalendar)
	rg.GET("/conflict", h.CheckConflict)
	rg.GET("/booking/:id", h.GetByID)
	rg.POST("", h.Create)
	rg.POST("/flush", h.Flush)
	rg.POST("/sync", adminOnly, h.Sync)
	rg.PUT("/:id", adminOnly, h.Modify)
	rg.DELETE("/:id", adminOnly, h.Delete)
	rg.PUT("/:id/confirm", adminOnly, h.Confirm)
	rg.PUT("/:id/cancel", adminOnly, h.Cancel)
}

func (h *BookingHandler) List(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, h.service.ListBookings(c.Request.Context()))
}

func (h *BookingHandler) ListEvents(c *gin.Context) {
	c.IndentedJSON(http.StatusOK, h.service.ListEvents(c.Request.Context()))
}

func (h *BookingHandler) ExportCalendar(c *gin.Context) {
	bookings := h.service.ListBookings(c.Request.Context())
	feed := calendar.Export(bookings, calendar.DefaultProductID, time.Now())

	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}

func (h *BookingHandler) CheckConflict(c *gin.Context) {
	conflict, err := h.service.CheckConflict(c.Request.Context(), c.Query("start"), c.Query("excludeId"))

	if err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "invalid start date/time",
		})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"conflict": conflict})
}

func (h *BookingHandler) GetByID(c *gin.Context) {
	id := c.Param("id")
	booking, err := h.service.FindBookingByID(c.Request.Context(), id)

	if err != nil {
		c.Error(err)
		if errors.Is(err, bk.ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "booking not found",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "failed to fetch booking",
		})
		return
	}

	c.IndentedJSON(http.StatusOK, booking)
}

func (h *BookingHandler) Create(c *gin.Context) {
	var req bk.Request

	if err := c.BindJSON(&req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "failed to parse JSON body",
		})
		return
	}

	override, err := strconv.ParseBool(c.DefaultQuery("override", "false"))

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid override flag"})
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), req, override)

	if err != nil {
		c.Error(err)
		respondError(c, err, "failed to create booking")
		return
	}

	c.JSON(http.StatusCreated, created)
}

func (h *BookingHandler) Modify(c *gin.Context) {
	var req bk.Request
	id := c.Param("id")

	if err := c.BindJSON(&req); err != nil {
		c.Error(err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to parse JSON body"})
		return
	}

	override, err := strconv.ParseBool(c.DefaultQuery("override", "false"))

	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid override flag"})
		return
	}

	updated, err := h.service.ModifyBooking(c.Request.Context(), id, req, override)

	if err != nil {
		c.Error(err)
		respondError(c, err, "failed to modify booking")
		return
	}

	c.IndentedJSON(http.StatusOK, updated)
}

func (h *BookingHandler) Delete(c *gin.Context) {
	err := h.service.DeleteBooking(c.Request.Context(), c.Param("id"))

	if err != nil {
		c.Error(err)
		respondError(c, err, "failed to delete booking")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"message": "booking deleted"})
}

func (h *BookingHandler) Confirm(c *gin.Context) {
	err := h.service.ConfirmBooking(c.Request.Context(), c.Param("id"))

	if err != nil {
		c.Error(err)
		respondError(c, err, "failed to confirm booking")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"message": "booking confirmed"})
}

func (h *BookingHandler) Cancel(c *gin.Context) {
	err := h.service.CancelBooking(c.Request.Context(), c.Param("id"), c.Query("reason"))

	if err != nil {
		c.Error(err)
		respondError(c, err, "failed to cancel booking")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"message": "booking cancelled"})
}

func (h *BookingHandler) Sync(c *gin.Context) {
	count, err := h.service.Sync(c.Request.Context())

	if err != nil {
		c.Error(err)
		respondError(c, err, "failed to sync bookings")
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"bookings": count})
}

func (h *BookingHandler) Flush(c *gin.Context) {
	if err := h.service.Flush(c.Request.Context()); err != nil {
		c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist bookings"})
		return
	}

	c.IndentedJSON(http.StatusOK, gin.H{"message": "bookings persisted"})
}

func respondError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, bk.ErrBookingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "booking not found"})
	case errors.Is(err, bk.ErrSlotConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "slot already requested"})
	case errors.Is(err, bk.ErrMissingContact):
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and phone are required"})
	case errors.Is(err, bk.ErrInvalidStart):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start date/time"})
	case errors.Is(err, bk.ErrInvalidEnd):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end date/time"})
	case errors.Is(err, bk.ErrInvalidBookingState):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid booking state"})
	case errors.Is(err, bk.ErrManagedRemotely):
		c.JSON(http.StatusConflict, gin.H{"error": "booking is managed by the remote backend"})
	case errors.Is(err, bk.ErrStoreUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "booking store unavailable"})
	case errors.Is(err, bk.ErrRemoteNotConfigured):
		c.JSON(http.StatusNotImplemented, gin.H{"error": "remote booking backend not configured"})
	case errors.Is(err, bk.ErrRemoteUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": "remote booking backend unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
	}
}
