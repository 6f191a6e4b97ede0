package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fueldesk/internal/core/apperror"
	appctx "fueldesk/internal/core/context"
	"fueldesk/internal/infrastructure/http/v1/dto"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(t *testing.T, handlers ...gin.HandlerFunc) (*httptest.ResponseRecorder, dto.ErrorResponse) {
	t.Helper()
	r := gin.New()
	r.Use(Trace(), ErrorHandler(), Recovery())
	r.GET("/x", handlers...)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

	var body dto.ErrorResponse
	if w.Code >= 400 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	}
	return w, body
}

func TestErrorHandler_MapsErrorKinds(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"not found", apperror.NewNotFound("ticket", 1), http.StatusNotFound, apperror.CodeNotFound},
		{"invalid state", apperror.NewInvalidState("ticket", "EXPIRED", "PENDING"), http.StatusConflict, apperror.CodeInvalidState},
		{"insufficient quota", apperror.NewInsufficientQuota(1, 10, 5), http.StatusUnprocessableEntity, apperror.CodeInsufficientQuota},
		{"insufficient stock", apperror.NewInsufficientStock(1, 10, 5), http.StatusUnprocessableEntity, apperror.CodeInsufficientStock},
		{"duplicate active request", apperror.NewDuplicateActiveRequest("AB123"), http.StatusConflict, apperror.CodeDuplicateActiveRequest},
		{"validation", apperror.NewValidation("bad"), http.StatusBadRequest, apperror.CodeValidation},
		{"identity mismatch", apperror.NewIdentityMismatch("receiver", "no match"), http.StatusForbidden, apperror.CodeIdentityMismatch},
		{"invalid finalization", apperror.NewInvalidFinalization("too much"), http.StatusUnprocessableEntity, apperror.CodeInvalidFinalization},
		{"wrapped", errors.Join(errors.New("ctx"), apperror.NewPeriodClosed("2025-01")), http.StatusUnprocessableEntity, apperror.CodePeriodClosed},
		{"plain", errors.New("db down"), http.StatusInternalServerError, apperror.CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, body := serve(t, func(c *gin.Context) {
				_ = c.Error(tt.err)
				c.Abort()
			})
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, body.Code)
		})
	}
}

func TestErrorHandler_DetailsAreStructured(t *testing.T) {
	_, body := serve(t, func(c *gin.Context) {
		_ = c.Error(apperror.NewInsufficientQuota(7, "10.0000", "5.0000"))
		c.Abort()
	})
	assert.Equal(t, "10.0000", body.Details["requested"])
	assert.Equal(t, "5.0000", body.Details["available"])
}

func TestRecovery(t *testing.T) {
	w, body := serve(t, func(c *gin.Context) {
		panic("boom")
	})
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, apperror.CodeInternal, body.Code)
	assert.NotEmpty(t, w.Header().Get(HeaderRequestID))
}

type fakeValidator struct {
	user *appctx.UserContext
}

func (f fakeValidator) ValidateToken(token string) (*appctx.UserContext, error) {
	if token != "good" {
		return nil, errors.New("bad token")
	}
	return f.user, nil
}

func TestAuthAndRoles(t *testing.T) {
	r := gin.New()
	r.Use(ErrorHandler())
	v := fakeValidator{user: &appctx.UserContext{UserID: 3, Roles: []string{appctx.RoleWarehouse}}}
	ok := func(c *gin.Context) { c.Status(http.StatusNoContent) }
	r.GET("/warehouse", Auth(v), RequireRole(appctx.RoleWarehouse), ok)
	r.GET("/approve", Auth(v), RequireRole(appctx.RoleApprover), ok)

	call := func(path, header string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusNoContent, call("/warehouse", "Bearer good"))
	assert.Equal(t, http.StatusNoContent, call("/warehouse?access_token=good", ""))
	assert.Equal(t, http.StatusForbidden, call("/approve", "Bearer good"))
	assert.Equal(t, http.StatusUnauthorized, call("/warehouse", "Bearer bad"))
	assert.Equal(t, http.StatusUnauthorized, call("/warehouse", "Basic good"))
	assert.Equal(t, http.StatusUnauthorized, call("/warehouse", ""))
}
