package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/airbooking-core/internal/domain"
	"github.com/Domenick1991/airbooking-core/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestFlightHandler_list(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/api/v1/flights", nil)

	flights := []domain.Flight{{ID: 1, FlightNumber: "NA101", FromAirport: "LOS", ToAirport: "ABV", Currency: "NGN"}}
	mockService.On("List", c.Request.Context()).Return(flights, nil)

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var got []domain.Flight
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "NA101", got[0].FlightNumber)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_get(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "1"}}
	c.Request = httptest.NewRequest("GET", "/api/v1/flights/1", nil)

	mockService.On("GetByID", c.Request.Context(), int64(1)).Return(&domain.Flight{ID: 1}, nil)

	handler.get(c)

	assert.Equal(t, http.StatusOK, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_get_NotFound(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "99"}}
	c.Request = httptest.NewRequest("GET", "/api/v1/flights/99", nil)

	mockService.On("GetByID", c.Request.Context(), int64(99)).Return(nil, domain.ErrFlightNotFound)

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFlightHandler_get_InvalidID(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "abc"}}
	c.Request = httptest.NewRequest("GET", "/api/v1/flights/abc", nil)

	handler.get(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestFlightHandler_inventory(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "7"}}
	c.Request = httptest.NewRequest("GET", "/api/v1/flights/7/inventory", nil)

	inv := []domain.FlightInventory{{FlightID: 7, Class: domain.SeatClassEconomy, Total: 10, Held: 2, Confirmed: 3}}
	mockService.On("Availability", c.Request.Context(), int64(7)).Return(inv, nil)

	handler.inventory(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var got []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.EqualValues(t, 5, got[0]["available"])
	assert.Equal(t, "ECONOMY", got[0]["class"])
}

func TestFlightHandler_schedule(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	dep := time.Date(2026, 3, 5, 8, 0, 0, 0, time.UTC)
	body, _ := json.Marshal(map[string]interface{}{
		"flight_number":  "NA101",
		"from_airport":   "LOS",
		"to_airport":     "ABV",
		"departure_time": dep,
		"arrival_time":   dep.Add(time.Hour),
		"currency":       "NGN",
		"classes":        []map[string]interface{}{{"class": "ECONOMY", "total": 120, "fare": 3500000}},
	})
	c.Request = httptest.NewRequest("POST", "/api/v1/flights", bytes.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")

	mockService.On("Schedule", c.Request.Context(), mock.MatchedBy(func(in flights.ScheduleInput) bool {
		return in.Flight.FlightNumber == "NA101" && len(in.Classes) == 1 && in.Classes[0].Total == 120
	})).Return(&domain.Flight{ID: 3, FlightNumber: "NA101"}, []domain.FlightInventory{{FlightID: 3, Class: domain.SeatClassEconomy, Total: 120}}, nil)

	handler.schedule(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var got scheduleFlightResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, int64(3), got.Flight.ID)
	assert.Len(t, got.Inventory, 1)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_schedule_Invalid(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("POST", "/api/v1/flights", bytes.NewReader([]byte(`{"flight_number":"NA101"}`)))
	c.Request.Header.Set("Content-Type", "application/json")

	handler.schedule(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "Schedule", mock.Anything, mock.Anything)
}

func TestFlightHandler_archive_SeatsSold(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "id", Value: "3"}}
	c.Request = httptest.NewRequest("DELETE", "/api/v1/flights/3", nil)

	mockService.On("Archive", c.Request.Context(), int64(3)).Return(nil, domain.ErrConflict)

	handler.archive(c)

	assert.Equal(t, http.StatusConflict, w.Code)
}
