package templates

import (
	"errors"
	"reflect"

	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/site"
)

// errPaginationDecided aborts a discovery evaluation once paginate has seen its arguments.
var errPaginationDecided = errors.New("pagination decided")

// Decision is the page layout fixed by the first paginate call of a discovery run.
type Decision struct {
	ItemCount int
	PerPage   int
	PageCount int
}

// Page is what paginate returns while rendering page CurrentPage.
type Page struct {
	ItemCount   int
	PageCount   int
	CurrentPage int // 0-based
	Number      int // 1-based
	// Start and End delimit this page's items, half-open.
	Start          int
	End            int
	Indices        []int
	IsFirstPage    bool
	IsLastPage     bool
	Previous       string
	Next           string
	PagePermalinks []string
	// OutputPath is relative to the output root.
	OutputPath string `json:"-"`
}

// Pages lays out every page of a decided pagination. All permalinks are known before any
// page renders.
func Pages(outputPath string, d Decision, sc site.Context) []Page {
	permalinks := make([]string, d.PageCount)
	for k := range permalinks {
		permalinks[k] = sc.URL(PageOutputPath(outputPath, k))
	}

	pages := make([]Page, d.PageCount)
	for k := range pages {
		start := min(k*d.PerPage, d.ItemCount)
		end := min(start+d.PerPage, d.ItemCount)
		indices := make([]int, 0, end-start)
		for i := start; i < end; i++ {
			indices = append(indices, i)
		}
		p := Page{
			ItemCount:      d.ItemCount,
			PageCount:      d.PageCount,
			CurrentPage:    k,
			Number:         k + 1,
			Start:          start,
			End:            end,
			Indices:        indices,
			IsFirstPage:    k == 0,
			IsLastPage:     k == d.PageCount-1,
			PagePermalinks: permalinks,
			OutputPath:     PageOutputPath(outputPath, k),
		}
		if k > 0 {
			p.Previous = permalinks[k-1]
		}
		if k < d.PageCount-1 {
			p.Next = permalinks[k+1]
		}
		pages[k] = p
	}
	return pages
}

type paginatorState int

const (
	stateUnstarted paginatorState = iota
	stateDiscovering
	stateDecided
	stateRendering
	stateComplete
	// stateDisabled rejects paginate calls, for entry templates.
	stateDisabled
)

// paginator is owned by one evaluation and bound into its template clone as "paginate".
type paginator struct {
	state    paginatorState
	decision Decision
	page     *Page
	calls    int
}

func newDiscoveryPaginator() *paginator {
	return &paginator{state: stateDiscovering}
}

func newPagePaginator(page Page) *paginator {
	return &paginator{state: stateRendering, page: &page}
}

func (p *paginator) decided() bool {
	return p.state == stateDecided
}

// finish marks a rendering evaluation as done.
func (p *paginator) finish() {
	if p.state == stateRendering {
		p.state = stateComplete
	}
}

func (p *paginator) paginate(items any, perPage any) (*Page, error) {
	p.calls++
	switch p.state {
	case stateDiscovering:
		count, err := itemCount(items)
		if err != nil {
			return nil, err
		}
		per, ok := toInt(perPage)
		if !ok || per <= 0 {
			return nil, foundationerrors.PaginationError("items per page must be a positive integer").
				WithContext("per_page", perPage).
				Build()
		}
		p.decision = Decision{ItemCount: count, PerPage: per, PageCount: max(1, (count+per-1)/per)}
		p.state = stateDecided
		return nil, errPaginationDecided
	case stateRendering:
		// Arguments are frozen by discovery; later calls get the same page.
		return p.page, nil
	case stateDisabled:
		return nil, foundationerrors.PaginationError("paginate is only available in page templates").Build()
	default:
		return nil, foundationerrors.InternalError("paginate called in an unexpected state").
			WithContext("state", int(p.state)).
			Build()
	}
}

// itemCount accepts an integer count or anything with a length.
func itemCount(items any) (int, error) {
	if n, ok := toInt(items); ok {
		if n < 0 {
			return 0, foundationerrors.PaginationError("item count must not be negative").
				WithContext("items", n).
				Build()
		}
		return n, nil
	}
	v := reflect.ValueOf(items)
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return v.Len(), nil
	case reflect.Invalid:
		return 0, nil
	}
	return 0, foundationerrors.PaginationError("cannot paginate value").
		WithContext("type", v.Type().String()).
		Build()
}

func toInt(v any) (int, bool) {
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return int(rv.Int()), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return int(rv.Uint()), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if f != float64(int(f)) {
			return 0, false
		}
		return int(f), true
	}
	return 0, false
}
