package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	apperrors "voyago/pkg/errors"
	"voyago/pkg/logger"
	"voyago/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockBookingService struct {
	createFunc func(ctx context.Context, userID string, req *model.CreateBookingRequest) (*model.Booking, error)
	cancelFunc func(ctx context.Context, userID, bookingID string) (*model.Booking, error)
}

func (m *mockBookingService) Create(ctx context.Context, userID string, req *model.CreateBookingRequest) (*model.Booking, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, userID, req)
	}
	return &model.Booking{}, nil
}

func (m *mockBookingService) Cancel(ctx context.Context, userID, bookingID string) (*model.Booking, error) {
	if m.cancelFunc != nil {
		return m.cancelFunc(ctx, userID, bookingID)
	}
	return &model.Booking{}, nil
}

func (m *mockBookingService) GetByID(ctx context.Context, userID, bookingID string) (*model.Booking, error) {
	return &model.Booking{}, nil
}

func (m *mockBookingService) GetByReference(ctx context.Context, userID, reference string) (*model.Booking, error) {
	return &model.Booking{}, nil
}

func (m *mockBookingService) GetAllForUser(ctx context.Context, userID string, limit int, offset int64) ([]*model.Booking, int64, error) {
	return []*model.Booking{}, 0, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Config{
		Level:   "error",
		Format:  logger.FormatText,
		Output:  io.Discard,
		Service: "test",
	})
}

func TestCreate_MissingUserHeader(t *testing.T) {
	handler := NewBookingHandler(&mockBookingService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(`{}`))
	w := httptest.NewRecorder()

	handler.Create(w, req, httprouter.Params{})

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, w.Code)
	}
}

func TestCreate_Success(t *testing.T) {
	var receivedUserID string
	var receivedReq *model.CreateBookingRequest

	service := &mockBookingService{
		createFunc: func(ctx context.Context, userID string, req *model.CreateBookingRequest) (*model.Booking, error) {
			receivedUserID = userID
			receivedReq = req
			return &model.Booking{
				ID:             "68b1f00000000000000000bb",
				Reference:      "7a0d3f0e-3f3c-4e59-9f16-1f2b4c5d6e7f",
				UserID:         userID,
				TravelOptionID: req.TravelOptionID,
				NumberOfSeats:  req.NumberOfSeats,
				Status:         model.StatusConfirmed,
			}, nil
		},
	}
	handler := NewBookingHandler(service, testLogger())

	body := `{"travel_option_id":"68b1f00000000000000000aa","number_of_seats":1,"passengers":[{"name":"Asha Rao","age":30}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
	req.Header.Set("X-User-ID", "user-42")
	w := httptest.NewRecorder()

	handler.Create(w, req, httprouter.Params{})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status %d, got %d: %s", http.StatusCreated, w.Code, w.Body.String())
	}
	if receivedUserID != "user-42" {
		t.Errorf("expected user id %q, got %q", "user-42", receivedUserID)
	}
	if receivedReq.NumberOfSeats != 1 {
		t.Errorf("expected 1 seat, got %d", receivedReq.NumberOfSeats)
	}

	var resp struct {
		Data model.Booking `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Data.Status != model.StatusConfirmed {
		t.Errorf("expected status %q, got %q", model.StatusConfirmed, resp.Data.Status)
	}
}

func TestCreate_InvalidBody(t *testing.T) {
	handler := NewBookingHandler(&mockBookingService{}, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader("{not json"))
	req.Header.Set("X-User-ID", "user-42")
	w := httptest.NewRecorder()

	handler.Create(w, req, httprouter.Params{})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
}

func TestCreate_ServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		serviceErr error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "insufficient seats",
			serviceErr: apperrors.InsufficientSeats(1, 2),
			wantStatus: http.StatusConflict,
			wantCode:   apperrors.CodeInsufficientSeats,
		},
		{
			name:       "validation failure",
			serviceErr: apperrors.Validation("number_of_seats must be at least 1", nil),
			wantStatus: http.StatusUnprocessableEntity,
			wantCode:   apperrors.CodeValidation,
		},
		{
			name:       "option not found",
			serviceErr: apperrors.NotFoundWithID("Travel option", "68b1f00000000000000000aa"),
			wantStatus: http.StatusNotFound,
			wantCode:   apperrors.CodeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := &mockBookingService{
				createFunc: func(ctx context.Context, userID string, req *model.CreateBookingRequest) (*model.Booking, error) {
					return nil, tt.serviceErr
				},
			}
			handler := NewBookingHandler(service, testLogger())

			body := `{"travel_option_id":"68b1f00000000000000000aa","number_of_seats":2,"passengers":[]}`
			req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader(body))
			req.Header.Set("X-User-ID", "user-42")
			w := httptest.NewRecorder()

			handler.Create(w, req, httprouter.Params{})

			if w.Code != tt.wantStatus {
				t.Errorf("expected status %d, got %d", tt.wantStatus, w.Code)
			}

			var resp struct {
				Code string `json:"code"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode error response: %v", err)
			}
			if resp.Code != tt.wantCode {
				t.Errorf("expected code %s, got %s", tt.wantCode, resp.Code)
			}
		})
	}
}

func TestCancel_PassesPathID(t *testing.T) {
	var receivedID string
	service := &mockBookingService{
		cancelFunc: func(ctx context.Context, userID, bookingID string) (*model.Booking, error) {
			receivedID = bookingID
			return &model.Booking{ID: bookingID, Status: model.StatusCancelled}, nil
		},
	}
	handler := NewBookingHandler(service, testLogger())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/id/68b1f00000000000000000bb/cancel", nil)
	req.Header.Set("X-User-ID", "user-42")
	w := httptest.NewRecorder()

	handler.Cancel(w, req, httprouter.Params{{Key: "id", Value: "68b1f00000000000000000bb"}})

	if w.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if receivedID != "68b1f00000000000000000bb" {
		t.Errorf("expected booking id to reach the service, got %q", receivedID)
	}
}
