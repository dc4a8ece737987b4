package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/swapkart/tradein-backend/internal/logger"
	"github.com/swapkart/tradein-backend/internal/requestdata"
)

const testSecret = "auth-test-secret"

func authRouter(t *testing.T, capture *uuid.UUID) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}

	router := gin.New()
	router.Use(NewAuthMiddleware(log, testSecret).RequireAuth())
	router.GET("/whoami", func(c *gin.Context) {
		rd := requestdata.GetRequestData(c.Request.Context())
		if rd != nil {
			*capture = rd.UserID
		}
		c.Status(http.StatusOK)
	})
	return router
}

func TestRequireAuthAcceptsSignedToken(t *testing.T) {
	var captured uuid.UUID
	router := authRouter(t, &captured)

	userID := uuid.New()
	token, err := SignUserToken(testSecret, userID, time.Hour)
	if err != nil {
		t.Fatalf("SignUserToken: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if captured != userID {
		t.Fatalf("request user = %s, want %s", captured, userID)
	}
}

func TestRequireAuthRejectsBadTokens(t *testing.T) {
	var captured uuid.UUID
	router := authRouter(t, &captured)

	expired, err := SignUserToken(testSecret, uuid.New(), -time.Minute)
	if err != nil {
		t.Fatalf("SignUserToken: %v", err)
	}
	wrongSecret, err := SignUserToken("some-other-secret", uuid.New(), time.Hour)
	if err != nil {
		t.Fatalf("SignUserToken: %v", err)
	}

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing header", header: ""},
		{name: "not bearer", header: "Basic dXNlcjpwYXNz"},
		{name: "garbage token", header: "Bearer not.a.jwt"},
		{name: "expired token", header: "Bearer " + expired},
		{name: "wrong secret", header: "Bearer " + wrongSecret},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want 401", rec.Code)
			}
		})
	}
}
