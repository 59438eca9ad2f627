package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// newTestGinContext создает *gin.Context для тестов с JSON body
func newTestGinContext(method, path string, body interface{}) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()

	var req *http.Request
	if body != nil {
		bodyBytes, _ := json.Marshal(body)
		req, _ = http.NewRequest(method, path, bytes.NewReader(bodyBytes))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req, _ = http.NewRequest(method, path, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	return c, w
}

// ============================================================================
// Тесты валидации запросов - сервис не нужен, хендлер отвечает 400
// до первого обращения к нему
// ============================================================================

func TestAuthHandler_Register_ValidationErrors(t *testing.T) {
	handler := &AuthHandler{}

	tests := []struct {
		name string
		body interface{}
	}{
		{"пустое тело", nil},
		{"нет email", map[string]string{"username": "player", "password": "password123"}},
		{"кривой email", map[string]string{"username": "player", "email": "not-an-email", "password": "password123"}},
		{"короткий пароль", map[string]string{"username": "player", "email": "p@example.com", "password": "short"}},
		{"короткое имя", map[string]string{"username": "ab", "email": "p@example.com", "password": "password123"}},
		{"неизвестный язык", map[string]string{"username": "player", "email": "p@example.com", "password": "password123", "language": "xx"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext(http.MethodPost, "/api/auth/register", tt.body)
			handler.Register(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			var resp map[string]interface{}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Contains(t, resp, "error")
		})
	}
}

func TestAuthHandler_Login_ValidationErrors(t *testing.T) {
	handler := &AuthHandler{}

	tests := []struct {
		name string
		body interface{}
	}{
		{"пустое тело", nil},
		{"нет пароля", map[string]string{"email": "p@example.com"}},
		{"кривой email", map[string]string{"email": "not-an-email", "password": "password123"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, w := newTestGinContext(http.MethodPost, "/api/auth/login", tt.body)
			handler.Login(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
