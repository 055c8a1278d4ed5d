package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	apperrors "ebooking/pkg/errors"
	httputil "ebooking/pkg/http"
	"ebooking/pkg/logger"
	"ebooking/pkg/middleware"
	"ebooking/pkg/model"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockUserService struct {
	registerFunc   func(ctx context.Context, req *model.UserRegistration) (*model.User, error)
	loginFunc      func(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error)
	updateRoleFunc func(ctx context.Context, id string, update *model.RoleUpdate) (*model.User, error)
}

func (m *mockUserService) Register(ctx context.Context, req *model.UserRegistration) (*model.User, error) {
	if m.registerFunc != nil {
		return m.registerFunc(ctx, req)
	}
	return &model.User{ID: "u-1", Email: req.Email, PasswordHash: "$2a$hash", Role: model.RoleUser}, nil
}

func (m *mockUserService) Login(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
	if m.loginFunc != nil {
		return m.loginFunc(ctx, req)
	}
	return &model.LoginResponse{Token: "token", ExpiresAt: time.Now()}, nil
}

func (m *mockUserService) GetMe(ctx context.Context, p model.Principal) (*model.User, error) {
	return &model.User{ID: p.UserID, Role: p.Role}, nil
}

func (m *mockUserService) UpdateMe(ctx context.Context, p model.Principal, update *model.UserUpdate) (*model.User, error) {
	return &model.User{ID: p.UserID, Email: update.Email}, nil
}

func (m *mockUserService) UpdatePassword(ctx context.Context, p model.Principal, update *model.PasswordUpdate) (string, error) {
	return "Your password has been updated", nil
}

func (m *mockUserService) UpdateRole(ctx context.Context, id string, update *model.RoleUpdate) (*model.User, error) {
	if m.updateRoleFunc != nil {
		return m.updateRoleFunc(ctx, id, update)
	}
	return &model.User{ID: id, Role: update.Role}, nil
}

var (
	testUser  = model.Principal{UserID: "user-1", Role: model.RoleUser}
	testAdmin = model.Principal{UserID: "admin-1", Role: model.RoleAdmin}
)

func serve(h *UserHandler, req *http.Request, p *model.Principal) *httptest.ResponseRecorder {
	router := httprouter.New()
	h.RegisterRoutes(router)
	if p != nil {
		req = req.WithContext(middleware.WithPrincipal(req.Context(), *p))
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestRegister(t *testing.T) {
	h := NewUserHandler(&mockUserService{}, logger.Discard())
	body := `{"email":"dick@example.com","password":"pass12345","repeat_password":"pass12345","first_name":"Dick","last_name":"User"}`

	rr := serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/auth/registration", strings.NewReader(body)), nil)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	raw := rr.Body.String()
	assert.NotContains(t, raw, "$2a$hash")
	assert.NotContains(t, raw, "password")

	var resp struct {
		Data model.User `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	assert.Equal(t, "dick@example.com", resp.Data.Email)
}

func TestRegister_Conflict(t *testing.T) {
	h := NewUserHandler(&mockUserService{
		registerFunc: func(ctx context.Context, req *model.UserRegistration) (*model.User, error) {
			return nil, apperrors.Conflict("Email is already registered")
		},
	}, logger.Discard())
	body := `{"email":"dick@example.com"}`

	rr := serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/auth/registration", strings.NewReader(body)), nil)
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestLogin(t *testing.T) {
	var got *model.LoginRequest
	h := NewUserHandler(&mockUserService{
		loginFunc: func(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
			got = req
			return &model.LoginResponse{Token: "signed"}, nil
		},
	}, logger.Discard())
	body := `{"email":"dick@example.com","password":"pass12345"}`

	rr := serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body)), nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "dick@example.com", got.Email)

	var resp struct {
		Data model.LoginResponse `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, "signed", resp.Data.Token)
}

func TestLogin_BadCredentials(t *testing.T) {
	h := NewUserHandler(&mockUserService{
		loginFunc: func(ctx context.Context, req *model.LoginRequest) (*model.LoginResponse, error) {
			return nil, apperrors.Unauthorized("Invalid email or password")
		},
	}, logger.Discard())
	body := `{"email":"dick@example.com","password":"nope"}`

	rr := serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(body)), nil)
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	var resp httputil.ErrorResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, apperrors.CodeUnauthorized, resp.Code)
}

func TestMe_RequiresPrincipal(t *testing.T) {
	h := NewUserHandler(&mockUserService{}, logger.Discard())

	rr := serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil), nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = serve(h, httptest.NewRequest(http.MethodGet, "/api/v1/users/me", nil), &testUser)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp struct {
		Data model.User `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&resp))
	assert.Equal(t, testUser.UserID, resp.Data.ID)
}

func TestUpdatePassword(t *testing.T) {
	h := NewUserHandler(&mockUserService{}, logger.Discard())
	body := `{"password":"newpass123","repeat_password":"newpass123"}`

	rr := serve(h, httptest.NewRequest(http.MethodPut, "/api/v1/users/me/password", strings.NewReader(body)), &testUser)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "Your password has been updated")
}

func TestUpdateRole_AdminOnly(t *testing.T) {
	var gotID string
	h := NewUserHandler(&mockUserService{
		updateRoleFunc: func(ctx context.Context, id string, update *model.RoleUpdate) (*model.User, error) {
			gotID = id
			return &model.User{ID: id, Role: update.Role}, nil
		},
	}, logger.Discard())
	body := `{"role":"ADMIN"}`

	rr := serve(h, httptest.NewRequest(http.MethodPut, "/api/v1/users/id/u-7/role", strings.NewReader(body)), &testUser)
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Empty(t, gotID)

	rr = serve(h, httptest.NewRequest(http.MethodPut, "/api/v1/users/id/u-7/role", strings.NewReader(body)), &testAdmin)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "u-7", gotID)
}
