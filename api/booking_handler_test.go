package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hanksha/garage-booking-backend/api"
	mock_api "github.com/hanksha/garage-booking-backend/api/mocks"
	bk "github.com/hanksha/garage-booking-backend/booking"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

const adminToken = "admin-secret"

var start = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

var bookings = []bk.Booking{
	{
		ID:      "1",
		Title:   "Appointment: Ana",
		Start:   start,
		End:     start.Add(time.Hour),
		Status:  bk.StatusRequested,
		Contact: bk.Contact{Name: "Ana", Phone: "555-0100"},
		Colors:  bk.DefaultColors,
	},
	{
		ID:      "2",
		Title:   "Appointment: Bo",
		Start:   start.Add(2 * time.Hour),
		End:     start.Add(3 * time.Hour),
		Status:  bk.StatusConfirmed,
		Contact: bk.Contact{Name: "Bo", Phone: "555-0101", Email: "bo@example.com"},
		Colors:  bk.DefaultColors,
	},
}

func setupRouter(t *testing.T) (*gin.Engine, *gomock.Controller, *mock_api.MockBookingService) {
	t.Helper()
	ctrl := gomock.NewController(t)

	gin.SetMode(gin.TestMode)
	router := gin.Default()
	mockService := mock_api.NewMockBookingService(ctrl)
	handler := api.NewBookingHandler(mockService, adminToken)
	handler.Register(router.Group("/api/v1/bookings"))

	return router, ctrl, mockService
}

func TestListBookings(t *testing.T) {
	router, ctrl, mockService := setupRouter(t)
	defer ctrl.Finish()

	bookingsJson, _ := json.MarshalIndent(bookings, "", "    ")
	mockService.EXPECT().ListBookings(gomock.Any()).Return(bookings).Times(1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/bookings", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, string(bookingsJson), w.Body.String())
}

func TestListEvents(t *testing.T) {
	router, ctrl, mockService := setupRouter(t)
	defer ctrl.Finish()

	events := []bk.Event{bk.ToEvent(bookings[0])}
	eventsJson, _ := json.Marshal(events)
	mockService.EXPECT().ListEvents(gomock.Any()).Return(events).Times(1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/bookings/events", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.JSONEq(t, string(eventsJson), w.Body.String())
}

func TestExportCalendar(t *testing.T) {
	router, ctrl, mockService := setupRouter(t)
	defer ctrl.Finish()

	mockService.EXPECT().ListBookings(gomock.Any()).Return(bookings).Times(1)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/api/v1/bookings/calendar.ics", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "text/calendar; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "BEGIN:VCALENDAR")
	assert.Contains(t, w.Body.String(), "SUMMARY:Appointment: Bo")
}

func TestGetByID(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		bJson, _ := json.MarshalIndent(bookings[0], "", "    ")
		mockService.EXPECT().FindBookingByID(gomock.Any(), "1").Return(bookings[0], nil).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings/booking/1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
		assert.JSONEq(t, string(bJson), w.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().FindBookingByID(gomock.Any(), "404").Return(bk.Booking{}, bk.ErrBookingNotFound).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings/booking/404", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 404, w.Code)
		assert.JSONEq(t, `{"error":"booking not found"}`, w.Body.String())
	})

	t.Run("error", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().FindBookingByID(gomock.Any(), "1").Return(bk.Booking{}, assert.AnError).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings/booking/1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 500, w.Code)
		assert.JSONEq(t, `{"error":"failed to fetch booking"}`, w.Body.String())
	})
}

func TestCheckConflict(t *testing.T) {
	t.Run("taken", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().CheckConflict(gomock.Any(), "2025-03-14T09:00", "").Return(true, nil).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings/conflict?start=2025-03-14T09:00", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
		assert.JSONEq(t, `{"conflict":true}`, w.Body.String())
	})

	t.Run("excluding itself", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().CheckConflict(gomock.Any(), "2025-03-14T09:00", "1").Return(false, nil).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings/conflict?start=2025-03-14T09:00&excludeId=1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
		assert.JSONEq(t, `{"conflict":false}`, w.Body.String())
	})

	t.Run("invalid start", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().CheckConflict(gomock.Any(), "", "").Return(false, bk.ErrInvalidStart).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("GET", "/api/v1/bookings/conflict", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 400, w.Code)
		assert.JSONEq(t, `{"error":"invalid start date/time"}`, w.Body.String())
	})
}

func TestCreateBooking(t *testing.T) {
	request := bk.Request{Start: "2025-03-14T09:00", Name: "Ana", Phone: "555-0100"}

	t.Run("success", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().CreateBooking(gomock.Any(), request, false).Return(bookings[0], nil).Times(1)

		body, _ := json.Marshal(request)
		bJson, _ := json.Marshal(bookings[0])

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings", bytes.NewReader(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, 201, w.Code)
		assert.JSONEq(t, string(bJson), w.Body.String())
	})

	t.Run("override", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().CreateBooking(gomock.Any(), request, true).Return(bookings[0], nil).Times(1)

		body, _ := json.Marshal(request)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings?override=true", bytes.NewReader(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, 201, w.Code)
	})

	t.Run("invalid override", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().CreateBooking(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		body, _ := json.Marshal(request)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings?override=maybe", bytes.NewReader(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, 400, w.Code)
	})

	t.Run("invalid json", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().CreateBooking(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings", strings.NewReader("{"))
		router.ServeHTTP(w, req)

		assert.Equal(t, 400, w.Code)
		assert.JSONEq(t, `{"error":"failed to parse JSON body"}`, w.Body.String())
	})

	errorCases := []struct {
		name string
		err  error
		code int
		body string
	}{
		{"conflict", bk.ErrSlotConflict, 409, `{"error":"slot already requested"}`},
		{"missing contact", bk.ErrMissingContact, 400, `{"error":"name and phone are required"}`},
		{"invalid start", bk.ErrInvalidStart, 400, `{"error":"invalid start date/time"}`},
		{"invalid end", bk.ErrInvalidEnd, 400, `{"error":"invalid end date/time"}`},
		{"remote unavailable", bk.ErrRemoteUnavailable, 502, `{"error":"remote booking backend unavailable"}`},
		{"unexpected", assert.AnError, 500, `{"error":"failed to create booking"}`},
	}

	for _, tc := range errorCases {
		t.Run(tc.name, func(t *testing.T) {
			router, ctrl, mockService := setupRouter(t)
			defer ctrl.Finish()

			mockService.EXPECT().CreateBooking(gomock.Any(), request, false).Return(bk.Booking{}, tc.err).Times(1)

			body, _ := json.Marshal(request)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/api/v1/bookings", bytes.NewReader(body))
			router.ServeHTTP(w, req)

			assert.Equal(t, tc.code, w.Code)
			assert.JSONEq(t, tc.body, w.Body.String())
		})
	}
}

func TestModifyBooking(t *testing.T) {
	request := bk.Request{Start: "2025-03-14T10:00", Name: "Ana", Phone: "555-0100"}

	t.Run("success", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().ModifyBooking(gomock.Any(), "1", request, false).Return(bookings[0], nil).Times(1)

		body, _ := json.Marshal(request)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/1", bytes.NewReader(body))
		req.Header.Set("accesstoken", adminToken)
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
	})

	t.Run("invalid state", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().ModifyBooking(gomock.Any(), "2", request, true).Return(bk.Booking{}, bk.ErrInvalidBookingState).Times(1)

		body, _ := json.Marshal(request)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/2?override=true", bytes.NewReader(body))
		req.Header.Set("accesstoken", adminToken)
		router.ServeHTTP(w, req)

		assert.Equal(t, 400, w.Code)
		assert.JSONEq(t, `{"error":"invalid booking state"}`, w.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().ModifyBooking(gomock.Any(), "9", request, false).Return(bk.Booking{}, bk.ErrBookingNotFound).Times(1)

		body, _ := json.Marshal(request)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/9", bytes.NewReader(body))
		req.Header.Set("accesstoken", adminToken)
		router.ServeHTTP(w, req)

		assert.Equal(t, 404, w.Code)
	})

	t.Run("managed by remote backend", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().ModifyBooking(gomock.Any(), "1", request, false).Return(bk.Booking{}, bk.ErrManagedRemotely).Times(1)

		body, _ := json.Marshal(request)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/1", bytes.NewReader(body))
		req.Header.Set("accesstoken", adminToken)
		router.ServeHTTP(w, req)

		assert.Equal(t, 409, w.Code)
		assert.JSONEq(t, `{"error":"booking is managed by the remote backend"}`, w.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().ModifyBooking(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		body, _ := json.Marshal(request)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/1", bytes.NewReader(body))
		router.ServeHTTP(w, req)

		assert.Equal(t, 401, w.Code)
		assert.JSONEq(t, `{"error":"missing authentication"}`, w.Body.String())
	})
}

func TestDeleteBooking(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().DeleteBooking(gomock.Any(), "1").Return(nil).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/v1/bookings/1", nil)
		req.Header.Set("accesstoken", adminToken)
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
		assert.JSONEq(t, `{"message":"booking deleted"}`, w.Body.String())
	})

	t.Run("not found", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().DeleteBooking(gomock.Any(), "9").Return(bk.ErrBookingNotFound).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/v1/bookings/9", nil)
		req.Header.Set("accesstoken", adminToken)
		router.ServeHTTP(w, req)

		assert.Equal(t, 404, w.Code)
	})

	t.Run("store unavailable", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().DeleteBooking(gomock.Any(), "1").Return(bk.ErrStoreUnavailable).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/v1/bookings/1", nil)
		req.Header.Set("accesstoken", adminToken)
		router.ServeHTTP(w, req)

		assert.Equal(t, 503, w.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().DeleteBooking(gomock.Any(), gomock.Any()).Times(0)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/v1/bookings/1", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 401, w.Code)
		assert.JSONEq(t, `{"error":"missing authentication"}`, w.Body.String())
	})

	t.Run("wrong token", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().DeleteBooking(gomock.Any(), gomock.Any()).Times(0)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("DELETE", "/api/v1/bookings/1", nil)
		req.Header.Set("accesstoken", "guess")
		router.ServeHTTP(w, req)

		assert.Equal(t, 401, w.Code)
	})
}

func TestConfirmBooking(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().ConfirmBooking(gomock.Any(), "1").Return(nil).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/1/confirm", nil)
		req.Header.Set("accesstoken", adminToken)
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
		assert.JSONEq(t, `{"message":"booking confirmed"}`, w.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().ConfirmBooking(gomock.Any(), gomock.Any()).Times(0)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/1/confirm", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 401, w.Code)
		assert.JSONEq(t, `{"error":"missing authentication"}`, w.Body.String())
	})

	t.Run("wrong token", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().ConfirmBooking(gomock.Any(), gomock.Any()).Times(0)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/1/confirm", nil)
		req.Header.Set("accesstoken", "guess")
		router.ServeHTTP(w, req)

		assert.Equal(t, 401, w.Code)
		assert.JSONEq(t, `{"error":"invalid authentication"}`, w.Body.String())
	})

	t.Run("invalid state", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().ConfirmBooking(gomock.Any(), "2").Return(bk.ErrInvalidBookingState).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/2/confirm", nil)
		req.Header.Set("accesstoken", adminToken)
		router.ServeHTTP(w, req)

		assert.Equal(t, 400, w.Code)
	})
}

func TestCancelBooking(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().CancelBooking(gomock.Any(), "1", "shop closed").Return(nil).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/1/cancel?reason=shop+closed", nil)
		req.Header.Set("accesstoken", adminToken)
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
		assert.JSONEq(t, `{"message":"booking cancelled"}`, w.Body.String())
	})

	t.Run("admin disabled", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		gin.SetMode(gin.TestMode)
		router := gin.Default()
		mockService := mock_api.NewMockBookingService(ctrl)
		api.NewBookingHandler(mockService, "").Register(router.Group("/api/v1/bookings"))

		mockService.EXPECT().CancelBooking(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("PUT", "/api/v1/bookings/1/cancel", nil)
		req.Header.Set("accesstoken", "")
		router.ServeHTTP(w, req)

		assert.Equal(t, 403, w.Code)
	})
}

func TestSync(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().Sync(gomock.Any()).Return(3, nil).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings/sync", nil)
		req.Header.Set("accesstoken", adminToken)
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
		assert.JSONEq(t, `{"bookings":3}`, w.Body.String())
	})

	t.Run("not configured", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().Sync(gomock.Any()).Return(0, bk.ErrRemoteNotConfigured).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings/sync", nil)
		req.Header.Set("accesstoken", adminToken)
		router.ServeHTTP(w, req)

		assert.Equal(t, 501, w.Code)
	})

	t.Run("missing token", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().Sync(gomock.Any()).Times(0)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings/sync", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 401, w.Code)
	})
}

func TestFlush(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().Flush(gomock.Any()).Return(nil).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings/flush", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 200, w.Code)
	})

	t.Run("write failure", func(t *testing.T) {
		router, ctrl, mockService := setupRouter(t)
		defer ctrl.Finish()

		mockService.EXPECT().Flush(gomock.Any()).Return(assert.AnError).Times(1)

		w := httptest.NewRecorder()
		req, _ := http.NewRequest("POST", "/api/v1/bookings/flush", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, 500, w.Code)
		assert.JSONEq(t, `{"error":"failed to persist bookings"}`, w.Body.String())
	})
}
