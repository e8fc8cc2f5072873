package model

import (
	"errors"
	"math"
	"net/url"
	"testing"
)

func TestPageCount(t *testing.T) {
	t.Parallel()

	tests := []struct {
		total, size, want int
	}{
		{0, 10, 1},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{95, 10, 10},
		{5, 0, 1},
	}
	for _, tt := range tests {
		if got := PageCount(tt.total, tt.size); got != tt.want {
			t.Errorf("PageCount(%d, %d) = %d, want %d", tt.total, tt.size, got, tt.want)
		}
	}
}

func TestTaskQuery_OffsetSaturates(t *testing.T) {
	t.Parallel()

	if got := NewTaskQuery().WithPage(3).WithPageSize(25).Offset(); got != 50 {
		t.Errorf("Offset() = %d, want 50", got)
	}

	q, err := ParseTaskQuery(url.Values{"page": {"922337203685477582"}, "page_size": {"10"}}, DefaultPageSize)
	if err != nil {
		t.Fatalf("ParseTaskQuery() error = %v", err)
	}
	if got := q.Offset(); got != math.MaxInt {
		t.Errorf("Offset() for a huge page = %d, want math.MaxInt", got)
	}
	if got := NewTaskQuery().WithPage(math.MaxInt).WithPageSize(MaxPageSize).Offset(); got < 0 {
		t.Errorf("Offset() overflowed to %d", got)
	}
}

func TestTaskQuery_IsImmutable(t *testing.T) {
	t.Parallel()

	base := NewTaskQuery()
	next := base.WithPage(3).WithSearch("milk")

	if base.Page() != 1 || base.Search() != "" {
		t.Fatalf("base descriptor changed: %+v", base)
	}
	if next.Page() != 1 {
		t.Errorf("changing search should reset page, got %d", next.Page())
	}
	if next.WithPage(2).Page() != 2 {
		t.Errorf("WithPage did not apply")
	}
}

func TestTaskQuery_Key(t *testing.T) {
	t.Parallel()

	a := NewTaskQuery().WithStatus(FilterCompleted).WithSearch("milk")
	b := NewTaskQuery().WithSearch("milk").WithStatus(FilterCompleted)
	if a.Key() != b.Key() {
		t.Errorf("equal descriptors have different keys: %q vs %q", a.Key(), b.Key())
	}
	if a.Key() == a.WithPage(2).Key() {
		t.Errorf("different pages share a key")
	}
}

func TestParseTaskQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		query   string
		wantErr error
		check   func(TaskQuery) bool
	}{
		{"defaults", "", nil, func(q TaskQuery) bool {
			return q.Page() == 1 && q.PageSize() == 10 && q.Status() == FilterAll && q.Search() == ""
		}},
		{"full", "page=2&page_size=5&status=Completed&search=+milk+", nil, func(q TaskQuery) bool {
			return q.Page() == 2 && q.PageSize() == 5 && q.Status() == FilterCompleted && q.Search() == "milk"
		}},
		{"page zero", "page=0", ErrInvalidPage, nil},
		{"page not a number", "page=x", ErrInvalidPage, nil},
		{"page size too big", "page_size=500", ErrInvalidPageSize, nil},
		{"bad status", "status=archived", ErrInvalidStatusFilter, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, _ := url.ParseQuery(tt.query)
			q, err := ParseTaskQuery(v, DefaultPageSize)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseTaskQuery() error = %v, want %v", err, tt.wantErr)
			}
			if tt.check != nil && !tt.check(q) {
				t.Errorf("unexpected descriptor %+v", q)
			}
		})
	}
}

func TestParseTaskQuery_RoundTripsValues(t *testing.T) {
	t.Parallel()

	q := NewTaskQuery().WithStatus(FilterPending).WithSearch("Report").WithPage(4)
	got, err := ParseTaskQuery(q.Values(), DefaultPageSize)
	if err != nil {
		t.Fatalf("ParseTaskQuery() error = %v", err)
	}
	if got != q {
		t.Errorf("got %+v, want %+v", got, q)
	}
}
