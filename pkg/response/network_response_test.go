package response

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
)

func render(t *testing.T, h fiber.Handler, target string) (int, map[string]any) {
	t.Helper()
	app := fiber.New()
	app.Get("/", h)

	resp, err := app.Test(httptest.NewRequest("GET", target, nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(resp.Body)
	var body map[string]any
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
	return resp.StatusCode, body
}

func TestList(t *testing.T) {
	tests := []struct {
		name        string
		items       []string
		limit       int
		wantTotal   float64
		wantHasMore bool
	}{
		{"nil renders empty list", nil, 0, 0, false},
		{"unpaged", []string{"a", "b"}, 0, 2, false},
		{"full page", []string{"a", "b"}, 2, 2, true},
		{"short page", []string{"a"}, 2, 1, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, body := render(t, func(c *fiber.Ctx) error {
				return List(c, tt.items, tt.limit)
			}, "/")

			data, ok := body["data"].([]any)
			if !ok {
				t.Fatalf("data = %v, want list", body["data"])
			}
			if len(data) != len(tt.items) {
				t.Errorf("len(data) = %d", len(data))
			}
			meta := body["meta"].(map[string]any)
			if meta["total"] != tt.wantTotal {
				t.Errorf("total = %v, want %v", meta["total"], tt.wantTotal)
			}
			if hasMore, _ := meta["has_more"].(bool); hasMore != tt.wantHasMore {
				t.Errorf("has_more = %v, want %v", hasMore, tt.wantHasMore)
			}
		})
	}
}

func TestErrorWithDetails(t *testing.T) {
	status, body := render(t, func(c *fiber.Ctx) error {
		return ErrorWithDetails(c, fiber.StatusBadRequest, "MISSING_FIELD", "missing required field: kind", map[string]any{"field": "kind"})
	}, "/")

	if status != fiber.StatusBadRequest || body["success"] != false {
		t.Fatalf("status = %d body = %v", status, body)
	}
	info := body["error"].(map[string]any)
	if info["code"] != "MISSING_FIELD" {
		t.Errorf("code = %v", info["code"])
	}
	if info["details"].(map[string]any)["field"] != "kind" {
		t.Errorf("details = %v", info["details"])
	}
}

func TestLimit(t *testing.T) {
	tests := []struct {
		query string
		want  int
	}{
		{"/", 20},
		{"/?limit=5", 5},
		{"/?limit=0", 20},
		{"/?limit=-3", 20},
		{"/?limit=500", 100},
		{"/?limit=abc", 20},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			var got int
			render(t, func(c *fiber.Ctx) error {
				got = Limit(c, 20, 100)
				return OK(c, got)
			}, tt.query)
			if got != tt.want {
				t.Errorf("Limit = %d, want %d", got, tt.want)
			}
		})
	}
}
