package model

import (
	"math"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// StatusFilter restricts a task listing by status.
type StatusFilter string

const (
	FilterAll       StatusFilter = "all"
	FilterPending   StatusFilter = "pending"
	FilterCompleted StatusFilter = "completed"
)

// IsValid checks if the filter is one of the known values.
func (f StatusFilter) IsValid() bool {
	return f == FilterAll || f == FilterPending || f == FilterCompleted
}

// Status returns the status the filter selects, or "" for FilterAll.
func (f StatusFilter) Status() TaskStatus {
	switch f {
	case FilterPending:
		return TaskStatusPending
	case FilterCompleted:
		return TaskStatusCompleted
	default:
		return ""
	}
}

// Pagination limits.
const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	MaxSearchLength = 200
)

// TaskQuery describes one page of a filtered task listing. It is a value:
// the With* methods return modified copies, and Key identifies the request.
type TaskQuery struct {
	page     int
	pageSize int
	status   StatusFilter
	search   string
}

// NewTaskQuery returns the first page of all tasks with the default size.
func NewTaskQuery() TaskQuery {
	return TaskQuery{page: 1, pageSize: DefaultPageSize, status: FilterAll}
}

// WithPage returns a copy for the given 1-based page.
func (q TaskQuery) WithPage(page int) TaskQuery {
	q.page = page
	return q
}

// WithPageSize returns a copy with the given page size.
func (q TaskQuery) WithPageSize(size int) TaskQuery {
	q.pageSize = size
	return q
}

// WithStatus returns a copy filtered by status. Changing the filter resets
// the page to 1.
func (q TaskQuery) WithStatus(f StatusFilter) TaskQuery {
	if f != q.status {
		q.page = 1
	}
	q.status = f
	return q
}

// WithSearch returns a copy with the given search text. Changing the search
// resets the page to 1.
func (q TaskQuery) WithSearch(s string) TaskQuery {
	s = strings.TrimSpace(s)
	if s != q.search {
		q.page = 1
	}
	q.search = s
	return q
}

func (q TaskQuery) Page() int            { return q.page }
func (q TaskQuery) PageSize() int        { return q.pageSize }
func (q TaskQuery) Status() StatusFilter { return q.status }
func (q TaskQuery) Search() string       { return q.search }

// Offset returns the number of rows preceding the page. It saturates at
// math.MaxInt, so a huge page number is simply past the end.
func (q TaskQuery) Offset() int {
	if q.page < 1 || q.pageSize < 1 {
		return 0
	}
	if q.page-1 > math.MaxInt/q.pageSize {
		return math.MaxInt
	}
	return (q.page - 1) * q.pageSize
}

// Validate checks the descriptor bounds.
func (q TaskQuery) Validate() error {
	if q.page < 1 {
		return ErrInvalidPage
	}
	if q.pageSize < 1 || q.pageSize > MaxPageSize {
		return ErrInvalidPageSize
	}
	if !q.status.IsValid() {
		return ErrInvalidStatusFilter
	}
	if utf8.RuneCountInString(q.search) > MaxSearchLength {
		return ErrSearchTooLong
	}
	return nil
}

// Key returns a canonical string that is equal for equal descriptors.
func (q TaskQuery) Key() string {
	return q.Values().Encode()
}

// Values encodes the descriptor as URL query parameters.
func (q TaskQuery) Values() url.Values {
	v := url.Values{}
	v.Set("page", strconv.Itoa(q.page))
	v.Set("page_size", strconv.Itoa(q.pageSize))
	v.Set("status", string(q.status))
	if q.search != "" {
		v.Set("search", q.search)
	}
	return v
}

// ParseTaskQuery builds a descriptor from URL query parameters, applying
// defaults for missing values.
func ParseTaskQuery(v url.Values, defaultPageSize int) (TaskQuery, error) {
	if defaultPageSize < 1 || defaultPageSize > MaxPageSize {
		defaultPageSize = DefaultPageSize
	}
	q := NewTaskQuery().WithPageSize(defaultPageSize)

	if s := v.Get("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return TaskQuery{}, ErrInvalidPage
		}
		q.page = n
	}
	if s := v.Get("page_size"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return TaskQuery{}, ErrInvalidPageSize
		}
		q.pageSize = n
	}
	if s := v.Get("status"); s != "" {
		q.status = StatusFilter(strings.ToLower(s))
	}
	q.search = strings.TrimSpace(v.Get("search"))

	if err := q.Validate(); err != nil {
		return TaskQuery{}, err
	}
	return q, nil
}

// TaskPage is one page of a task listing.
type TaskPage struct {
	Tasks    []*Task `json:"tasks"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

// PageCount returns the number of pages, never less than one.
func (p *TaskPage) PageCount() int {
	return PageCount(p.Total, p.PageSize)
}

// PageCount returns ceil(total/size), with a minimum of one.
func PageCount(total, size int) int {
	if size < 1 || total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}
