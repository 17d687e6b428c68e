package table

import (
	"errors"
	"fmt"
	"net/url"
	"testing"
	"time"
)

type row struct {
	ID        string
	Name      string
	Active    bool
	Age       int
	Score     float64
	CreatedAt time.Time
	Role      struct{ Name string }
	Tags      []string
	Manager   *row
	secret    string
}

func rows(n int) []row {
	out := make([]row, n)
	for i := range out {
		out[i] = row{ID: fmt.Sprintf("id-%d", i), Name: fmt.Sprintf("user %d", i)}
	}
	return out
}

// ---------------------------------------------------------------------------
// Build
// ---------------------------------------------------------------------------

func TestBuild_MatchedRowsAndPageCount(t *testing.T) {
	data := rows(30)
	// "user 1" matches user 1 and user 10..19: 11 rows.
	for _, size := range PageSizes {
		p := Build(data, Query{Search: "USER 1", Size: size})
		if p.Matched != 11 {
			t.Fatalf("size %d: expected 11 matched, got %d", size, p.Matched)
		}
		want := (11 + size - 1) / size
		if p.PageCount != want {
			t.Fatalf("size %d: expected %d pages, got %d", size, want, p.PageCount)
		}
		if p.Total != 30 {
			t.Fatalf("expected total 30, got %d", p.Total)
		}
	}
}

func TestBuild_SlicesFilteredRows(t *testing.T) {
	data := rows(23)
	p := Build(data, Query{Page: 3, Size: 10})
	if p.Branch != BranchRows {
		t.Fatalf("expected rows branch, got %s", p.Branch)
	}
	if len(p.Rows) != 3 {
		t.Fatalf("expected 3 rows on last page, got %d", len(p.Rows))
	}
	if p.Rows[0].ID != "id-20" {
		t.Fatalf("expected page to start at id-20, got %s", p.Rows[0].ID)
	}
	if p.First() != 21 || p.Last() != 23 {
		t.Fatalf("expected rows 21-23, got %d-%d", p.First(), p.Last())
	}
	if !p.HasPrev() || p.HasNext() {
		t.Fatalf("unexpected navigation prev=%v next=%v", p.HasPrev(), p.HasNext())
	}
}

func TestBuild_ClampsPageIntoRange(t *testing.T) {
	p := Build(rows(12), Query{Page: 9, Size: 5})
	if p.Query.Page != 3 {
		t.Fatalf("expected page clamped to 3, got %d", p.Query.Page)
	}

	p = Build(rows(12), Query{Page: -4, Size: 5})
	if p.Query.Page != 1 {
		t.Fatalf("expected page clamped to 1, got %d", p.Query.Page)
	}
}

func TestBuild_DefaultsUnsupportedSize(t *testing.T) {
	for _, size := range []int{0, 7, -1, 1000} {
		p := Build(rows(3), Query{Size: size})
		if p.Query.Size != DefaultPageSize {
			t.Fatalf("size %d: expected default %d, got %d", size, DefaultPageSize, p.Query.Size)
		}
	}
}

func TestBuild_EmptyBranch(t *testing.T) {
	p := Build(rows(5), Query{Search: "nobody"})
	if p.Branch != BranchEmpty {
		t.Fatalf("expected empty branch, got %s", p.Branch)
	}
	if p.Rows == nil || len(p.Rows) != 0 {
		t.Fatalf("expected empty non-nil rows, got %#v", p.Rows)
	}
	if p.PageCount != 0 {
		t.Fatalf("expected 0 pages, got %d", p.PageCount)
	}

	p = Build([]row(nil), Query{})
	if p.Branch != BranchEmpty {
		t.Fatalf("expected empty branch for nil collection, got %s", p.Branch)
	}
}

func TestLoadingAndFailedBranches(t *testing.T) {
	if b := Loading[row](Query{}).Branch; b != BranchLoading {
		t.Fatalf("expected loading branch, got %s", b)
	}
	boom := errors.New("boom")
	p := Failed[row](Query{}, boom)
	if p.Branch != BranchError || !errors.Is(p.Err, boom) {
		t.Fatalf("expected error branch carrying err, got %s %v", p.Branch, p.Err)
	}
}

// ---------------------------------------------------------------------------
// Query
// ---------------------------------------------------------------------------

func TestQuery_NewSearchResetsPage(t *testing.T) {
	q := Query{Search: "ana", Searched: "an", Page: 4, Size: 10}.Normalize()
	if q.Page != 1 {
		t.Fatalf("expected page reset to 1, got %d", q.Page)
	}
	if q.Searched != "ana" {
		t.Fatalf("expected searched to follow search, got %q", q.Searched)
	}

	q = Query{Search: "ana", Searched: "ana", Page: 4, Size: 10}.Normalize()
	if q.Page != 4 {
		t.Fatalf("expected page kept at 4, got %d", q.Page)
	}
}

func TestParseQuery_RoundTripsLinks(t *testing.T) {
	q := ParseQuery(url.Values{"q": {" ana "}, "searched": {"ana"}, "page": {"2"}, "size": {"25"}})
	if q.Search != "ana" || q.Page != 2 || q.Size != 25 {
		t.Fatalf("unexpected query %+v", q)
	}

	next := ParseQuery(q.Values(3))
	if next.Page != 3 || next.Search != "ana" || next.Size != 25 {
		t.Fatalf("expected link to keep state, got %+v", next)
	}
}

// ---------------------------------------------------------------------------
// Search
// ---------------------------------------------------------------------------

func TestMatches_PrimitiveFieldsOnly(t *testing.T) {
	created := time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)
	r := row{
		ID:        "u-1",
		Name:      "Ana",
		Active:    true,
		Age:       42,
		Score:     9.5,
		CreatedAt: created,
		Tags:      []string{"tagged"},
		Manager:   &row{Name: "boss"},
		secret:    "hidden",
	}
	r.Role.Name = "superadmin"

	cases := []struct {
		term string
		want bool
	}{
		{"ana", true},
		{"true", true},
		{"42", true},
		{"9.5", true},
		{"2024-03-05", true},
		{"superadmin", false},
		{"tagged", false},
		{"boss", false},
		{"hidden", false},
	}
	for _, tc := range cases {
		if got := Matches(r, tc.term); got != tc.want {
			t.Fatalf("Matches(%q) = %v, want %v", tc.term, got, tc.want)
		}
	}
}

func TestMatches_PointerRows(t *testing.T) {
	r := &row{Name: "Ana"}
	if !Matches(r, "ana") {
		t.Fatalf("expected pointer row to match")
	}
	var nilRow *row
	if Matches(nilRow, "ana") {
		t.Fatalf("expected nil row not to match")
	}
}

func TestFilter_EmptyTermKeepsAll(t *testing.T) {
	data := rows(4)
	if got := Filter(data, "  "); len(got) != 4 {
		t.Fatalf("expected all rows, got %d", len(got))
	}
}
