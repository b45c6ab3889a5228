package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"caseflow/config"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("Failed to sign test token: %v", err)
	}
	return token
}

func TestExtractToken(t *testing.T) {
	testCases := []struct {
		name       string
		authHeader string
		expected   string
	}{
		{
			name:       "Valid bearer token",
			authHeader: "Bearer abc123",
			expected:   "abc123",
		},
		{
			name:       "Missing scheme",
			authHeader: "abc123",
			expected:   "",
		},
		{
			name:       "Wrong scheme",
			authHeader: "Basic abc123",
			expected:   "",
		},
		{
			name:       "Empty header",
			authHeader: "",
			expected:   "",
		},
		{
			name:       "Bearer with empty token",
			authHeader: "Bearer ",
			expected:   "",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			if got := extractToken(testCase.authHeader); got != testCase.expected {
				t.Errorf("Expected %q, got %q", testCase.expected, got)
			}
		})
	}
}

func TestValidateToken(t *testing.T) {
	testCases := []struct {
		name  string
		token string

		expectedAgent string
		shouldError   bool
	}{
		{
			name: "Valid token",
			token: signToken(t, testSecret, jwt.MapClaims{
				"sub": "agent-7",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			expectedAgent: "agent-7",
		},
		{
			name: "Expired token",
			token: signToken(t, testSecret, jwt.MapClaims{
				"sub": "agent-7",
				"exp": time.Now().Add(-time.Hour).Unix(),
			}),
			shouldError: true,
		},
		{
			name: "Wrong secret",
			token: signToken(t, "other-secret", jwt.MapClaims{
				"sub": "agent-7",
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			shouldError: true,
		},
		{
			name: "Missing subject",
			token: signToken(t, testSecret, jwt.MapClaims{
				"exp": time.Now().Add(time.Hour).Unix(),
			}),
			shouldError: true,
		},
		{
			name:        "Garbage token",
			token:       "not.a.token",
			shouldError: true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			agentID, err := validateToken(testCase.token, testSecret)
			if testCase.shouldError {
				if err == nil {
					t.Error("Expected error, got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if agentID != testCase.expectedAgent {
				t.Errorf("Expected agent %q, got %q", testCase.expectedAgent, agentID)
			}
		})
	}
}

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{JWTSecret: testSecret}

	router := gin.New()
	router.GET("/protected", AuthMiddleware(cfg), func(c *gin.Context) {
		c.String(http.StatusOK, GetAgentID(c))
	})

	validToken := signToken(t, testSecret, jwt.MapClaims{
		"sub": "agent-7",
		"exp": time.Now().Add(time.Hour).Unix(),
	})

	testCases := []struct {
		name       string
		authHeader string

		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "Authenticated request",
			authHeader:     "Bearer " + validToken,
			expectedStatus: http.StatusOK,
			expectedBody:   "agent-7",
		},
		{
			name:           "No header",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Malformed header",
			authHeader:     "Token " + validToken,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid token",
			authHeader:     "Bearer bogus",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			if testCase.authHeader != "" {
				req.Header.Set("Authorization", testCase.authHeader)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != testCase.expectedStatus {
				t.Errorf("Expected status %d, got %d", testCase.expectedStatus, w.Code)
			}
			if testCase.expectedBody != "" && w.Body.String() != testCase.expectedBody {
				t.Errorf("Expected body %q, got %q", testCase.expectedBody, w.Body.String())
			}
		})
	}
}
