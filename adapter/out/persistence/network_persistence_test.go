package persistence

import (
	"database/sql"
	"strings"
	"testing"

	"network_server/core/domain"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

func TestLowerSkills(t *testing.T) {
	got := lowerSkills([]string{" Go ", "", "SQL", "go", "  "})
	if len(got) != 2 || got[0] != "go" || got[1] != "sql" {
		t.Errorf("lowerSkills = %v", got)
	}
}

func TestSimilarQuery_SkillsMatchBySubstring(t *testing.T) {
	for _, want := range []string{
		"strpos(lower(btrim(s)), q) > 0",
		"strpos(q, lower(btrim(s))) > 0",
		"btrim(s) <> ''",
	} {
		if strings.Count(similarQuery, want) != 2 {
			t.Errorf("query uses %q %d times, want in both filter and ordering", want, strings.Count(similarQuery, want))
		}
	}
	if strings.Contains(similarQuery, "&&") || strings.Contains(strings.ToUpper(similarQuery), "INTERSECT") {
		t.Error("query still compares skills by exact equality")
	}
}

func TestProfileRowToDomain(t *testing.T) {
	id := uuid.New()
	row := profileRow{
		ID:      id,
		Name:    "Dana",
		Role:    "worker",
		Company: sql.NullString{String: "Acme", Valid: true},
		Skills:  pq.StringArray{"Go"},
		Active:  true,
	}
	u := row.toDomain()
	if u.ID != id || u.Company != "Acme" || u.Location != "" || u.Role != domain.UserRole("worker") {
		t.Errorf("user = %+v", u)
	}
	if len(u.Skills) != 1 {
		t.Errorf("skills = %v", u.Skills)
	}

	empty := profileRow{ID: id}
	if s := empty.toDomain().Skills; s == nil {
		t.Error("nil skills should become an empty slice")
	}
}

func TestUUIDStrings(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	got := uuidStrings([]uuid.UUID{a, b})
	if len(got) != 2 || got[0] != a.String() || got[1] != b.String() {
		t.Errorf("uuidStrings = %v", got)
	}
}
