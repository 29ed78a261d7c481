package middleware

import (
	"fmt"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"network_server/pkg/apperr"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func newAuthApp() *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(JWTAuth(testSecret, nil))
	app.Get("/me", func(c *fiber.Ctx) error {
		return c.SendString(c.Locals("user_id").(uuid.UUID).String())
	})
	return app
}

type envelope struct {
	Success bool `json:"success"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func TestJWTAuth(t *testing.T) {
	userID := uuid.New()
	now := time.Now()

	tests := []struct {
		name     string
		header   string
		wantCode int
		wantErr  string
	}{
		{
			name:     "valid token",
			header:   "Bearer " + signToken(t, jwt.MapClaims{"sub": userID.String(), "exp": now.Add(time.Hour).Unix()}, testSecret),
			wantCode: fiber.StatusOK,
		},
		{
			name:     "missing header",
			wantCode: fiber.StatusUnauthorized,
			wantErr:  apperr.CodeUnauthorized,
		},
		{
			name:     "expired",
			header:   "Bearer " + signToken(t, jwt.MapClaims{"sub": userID.String(), "exp": now.Add(-time.Hour).Unix()}, testSecret),
			wantCode: fiber.StatusUnauthorized,
			wantErr:  apperr.CodeTokenExpired,
		},
		{
			name:     "wrong secret",
			header:   "Bearer " + signToken(t, jwt.MapClaims{"sub": userID.String()}, "other"),
			wantCode: fiber.StatusUnauthorized,
			wantErr:  apperr.CodeInvalidToken,
		},
		{
			name:     "subject is not a uuid",
			header:   "Bearer " + signToken(t, jwt.MapClaims{"sub": "alice"}, testSecret),
			wantCode: fiber.StatusUnauthorized,
			wantErr:  apperr.CodeInvalidToken,
		},
	}

	app := newAuthApp()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantCode {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tt.wantCode)
			}
			body, _ := io.ReadAll(resp.Body)
			if tt.wantErr == "" {
				if string(body) != userID.String() {
					t.Errorf("body = %q, want user id", body)
				}
				return
			}
			var env envelope
			if err := json.Unmarshal(body, &env); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if env.Success || env.Error == nil || env.Error.Code != tt.wantErr {
				t.Errorf("envelope = %s, want code %s", body, tt.wantErr)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := bearerToken(tt.header); got != tt.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestErrorHandler_WrappedAppError(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(RequestID())
	app.Get("/", func(c *fiber.Ctx) error {
		return fmt.Errorf("handler: %w", apperr.NotFound("post"))
	})
	app.Get("/plain", func(c *fiber.Ctx) error {
		return io.ErrUnexpectedEOF
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if resp.Header.Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	resp, err = app.Test(httptest.NewRequest("GET", "/plain", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != fiber.StatusInternalServerError || !strings.Contains(string(body), apperr.CodeInternalError) {
		t.Errorf("status = %d body = %s", resp.StatusCode, body)
	}
}

func TestRecover(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(Recover())
	app.Get("/", func(c *fiber.Ctx) error {
		panic("boom")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusInternalServerError {
		t.Errorf("status = %d, want 500", resp.StatusCode)
	}
}

func TestRateLimiter_WithoutRedisPassesThrough(t *testing.T) {
	app := fiber.New()
	app.Use(NewRateLimiter(nil, 1, time.Minute).Handler())
	app.Post("/", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	for i := 0; i < 3; i++ {
		resp, err := app.Test(httptest.NewRequest("POST", "/", nil))
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		if resp.StatusCode != fiber.StatusNoContent {
			t.Fatalf("request %d status = %d", i, resp.StatusCode)
		}
	}
}

func TestErrorHandler_FiberErrorGetsCode(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Get("/known", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	resp, err := app.Test(httptest.NewRequest("GET", "/missing", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	var body envelope
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.StatusCode != fiber.StatusNotFound || body.Error == nil || body.Error.Code != apperr.CodeNotFound {
		t.Errorf("status = %d body = %+v", resp.StatusCode, body)
	}
	if codeForStatus(418) != "UNKNOWN_ERROR" {
		t.Errorf("codeForStatus(418) = %q", codeForStatus(418))
	}
}

func TestRequireRole(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler()})
	app.Use(JWTAuth(testSecret, nil))
	app.Post("/admin", RequireRole("admin"), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	exp := time.Now().Add(time.Hour).Unix()
	tests := []struct {
		name   string
		claims jwt.MapClaims
		want   int
	}{
		{"admin", jwt.MapClaims{"sub": uuid.NewString(), "exp": exp, "role": "admin"}, fiber.StatusNoContent},
		{"employee", jwt.MapClaims{"sub": uuid.NewString(), "exp": exp, "role": "employee"}, fiber.StatusForbidden},
		{"no role claim", jwt.MapClaims{"sub": uuid.NewString(), "exp": exp}, fiber.StatusForbidden},
		{"role is not a string", jwt.MapClaims{"sub": uuid.NewString(), "exp": exp, "role": 1}, fiber.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/admin", nil)
			req.Header.Set("Authorization", "Bearer "+signToken(t, tt.claims, testSecret))
			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("request: %v", err)
			}
			resp.Body.Close()
			if resp.StatusCode != tt.want {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.want)
			}
		})
	}
}
