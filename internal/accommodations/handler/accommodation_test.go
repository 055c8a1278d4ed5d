package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ebooking/pkg/logger"
	"ebooking/pkg/middleware"
	"ebooking/pkg/model"

	"github.com/julienschmidt/httprouter"
)

type mockAccommodationService struct {
	createFunc func(ctx context.Context, acc *model.Accommodation) error
	getAllFunc func(ctx context.Context, limit int, offset int64) ([]*model.Accommodation, int64, error)
}

func (m *mockAccommodationService) Create(ctx context.Context, acc *model.Accommodation) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, acc)
	}
	return nil
}

func (m *mockAccommodationService) GetByID(ctx context.Context, id string) (*model.Accommodation, error) {
	return &model.Accommodation{ID: id}, nil
}

func (m *mockAccommodationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Accommodation, int64, error) {
	if m.getAllFunc != nil {
		return m.getAllFunc(ctx, limit, offset)
	}
	return []*model.Accommodation{}, 0, nil
}

func (m *mockAccommodationService) Update(ctx context.Context, id string, u *model.AccommodationUpdate) (*model.Accommodation, error) {
	return &model.Accommodation{ID: id}, nil
}

func (m *mockAccommodationService) Delete(ctx context.Context, id string) error {
	return nil
}

func (m *mockAccommodationService) GetCapacity(ctx context.Context, id string) (int, error) {
	return 1, nil
}

func (m *mockAccommodationService) RecordReservation(ctx context.Context, id string) error {
	return nil
}

func do(h *AccommodationHandler, req *http.Request, role model.Role) *httptest.ResponseRecorder {
	router := httprouter.New()
	h.RegisterRoutes(router)
	if role != "" {
		req = req.WithContext(middleware.WithPrincipal(req.Context(), model.Principal{UserID: "u", Role: role}))
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestCreate_AdminOnly(t *testing.T) {
	created := false
	h := NewAccommodationHandler(&mockAccommodationService{
		createFunc: func(ctx context.Context, acc *model.Accommodation) error {
			created = true
			acc.ID = "a-1"
			return nil
		},
	}, logger.Discard())
	body := `{"type":"HOUSE","location":"Kyiv","size":"2","daily_rate":100,"availability":1}`

	rr := do(h, httptest.NewRequest(http.MethodPost, "/api/v1/accommodations", strings.NewReader(body)), model.RoleUser)
	if rr.Code != http.StatusForbidden || created {
		t.Fatalf("user create: status %d, created %v", rr.Code, created)
	}

	rr = do(h, httptest.NewRequest(http.MethodPost, "/api/v1/accommodations", strings.NewReader(body)), model.RoleAdmin)
	if rr.Code != http.StatusCreated || !created {
		t.Fatalf("admin create: status %d, body %s", rr.Code, rr.Body.String())
	}
}

func TestGetAll_PassesPagination(t *testing.T) {
	var gotLimit int
	var gotOffset int64
	h := NewAccommodationHandler(&mockAccommodationService{
		getAllFunc: func(ctx context.Context, limit int, offset int64) ([]*model.Accommodation, int64, error) {
			gotLimit, gotOffset = limit, offset
			return []*model.Accommodation{}, 0, nil
		},
	}, logger.Discard())

	rr := do(h, httptest.NewRequest(http.MethodGet, "/api/v1/accommodations?limit=5&offset=20", nil), model.RoleUser)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if gotLimit != 5 || gotOffset != 20 {
		t.Errorf("limit=%d offset=%d", gotLimit, gotOffset)
	}

	rr = do(h, httptest.NewRequest(http.MethodGet, "/api/v1/accommodations?offset=x", nil), model.RoleUser)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad offset status = %d", rr.Code)
	}
}

func TestDelete_RequiresAdmin(t *testing.T) {
	h := NewAccommodationHandler(&mockAccommodationService{}, logger.Discard())
	if rr := do(h, httptest.NewRequest(http.MethodDelete, "/api/v1/accommodations/id/a-1", nil), ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status = %d", rr.Code)
	}
	if rr := do(h, httptest.NewRequest(http.MethodDelete, "/api/v1/accommodations/id/a-1", nil), model.RoleAdmin); rr.Code != http.StatusNoContent {
		t.Fatalf("admin status = %d", rr.Code)
	}
}
