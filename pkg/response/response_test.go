package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ksred/pageturn-api/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func run(method string, fn func(c *gin.Context)) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(method, "/", nil)
	fn(c)
	return w
}

func TestHandleMapsErrorKinds(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"validation", types.Validation("price must be positive"), http.StatusBadRequest, ErrCodeValidationFailed},
		{"unauthorized", types.Unauthorized("invalid payment signature"), http.StatusUnauthorized, ErrCodeUnauthorized},
		{"forbidden", types.Forbidden("cannot buy your own book"), http.StatusForbidden, ErrCodeForbidden},
		{"not found", types.NotFound("book not found"), http.StatusNotFound, ErrCodeNotFound},
		{"wrapped not found", fmt.Errorf("settle: %w", types.NotFound("book not found")), http.StatusNotFound, ErrCodeNotFound},
		{"upstream", types.Upstream("payment provider error", errors.New("BAD_REQUEST_ERROR")), http.StatusInternalServerError, ErrCodeUpstream},
		{"duplicate", gorm.ErrDuplicatedKey, http.StatusConflict, ErrCodeDuplicateResource},
		{"record not found", gorm.ErrRecordNotFound, http.StatusNotFound, ErrCodeNotFound},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, ErrCodeInternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := run(http.MethodGet, func(c *gin.Context) { Handle(c, nil, tt.err) })
			assert.Equal(t, tt.status, w.Code)

			var body Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.False(t, body.Success)
			require.NotNil(t, body.Error)
			assert.Equal(t, tt.code, body.Error.Code)
		})
	}
}

func TestUpstreamKeepsProviderMessage(t *testing.T) {
	w := run(http.MethodPost, func(c *gin.Context) {
		Fail(c, types.Upstream("payment provider error", errors.New("amount exceeds maximum")))
	})

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body.Error.Message, "amount exceeds maximum")
}

func TestSuccessStatusByMethod(t *testing.T) {
	w := run(http.MethodPost, func(c *gin.Context) { Handle(c, gin.H{"id": "1"}, nil) })
	assert.Equal(t, http.StatusCreated, w.Code)

	w = run(http.MethodGet, func(c *gin.Context) { Handle(c, gin.H{"id": "1"}, nil) })
	assert.Equal(t, http.StatusOK, w.Code)

	w = run(http.MethodPost, func(c *gin.Context) { OK(c, gin.H{"id": "1"}) })
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMessageCarriesBook(t *testing.T) {
	w := run(http.MethodPut, func(c *gin.Context) {
		Message(c, http.StatusOK, "Book rejected", gin.H{"title": "Calculus"})
	})

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Book rejected", body["message"])
	assert.Equal(t, "Calculus", body["book"].(map[string]interface{})["title"])
	assert.NotContains(t, body, "error")
}
