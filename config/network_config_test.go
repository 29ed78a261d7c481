package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("ENV", "development")
	t.Setenv("DISMISSAL_TTL_DAYS", "")
	t.Setenv("RECOMMENDATION_LIMIT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.DismissalTTL != 90*24*time.Hour {
		t.Errorf("DismissalTTL = %v, want 90 days", cfg.DismissalTTL)
	}
	if cfg.RecommendationLimit != 10 {
		t.Errorf("RecommendationLimit = %d, want 10", cfg.RecommendationLimit)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development mode")
	}
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr bool
	}{
		{"production without secret", map[string]string{"ENV": "production", "JWT_SECRET": ""}, true},
		{"production with secret", map[string]string{"ENV": "production", "JWT_SECRET": "s3cret"}, false},
		{"snowflake node out of range", map[string]string{"ENV": "development", "SNOWFLAKE_NODE": "2048"}, true},
		{"non-positive dismissal ttl", map[string]string{"ENV": "development", "DISMISSAL_TTL_DAYS": "0"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if (err != nil) != tt.wantErr {
				t.Errorf("Load() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetEnvSlice_Trims(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", "http://a.test, http://b.test")
	got := getEnvSlice("ALLOWED_ORIGINS", nil)
	if len(got) != 2 || got[1] != "http://b.test" {
		t.Errorf("getEnvSlice = %v", got)
	}
}
