package templates

import (
	"fmt"
	"html/template"
	"reflect"

	"github.com/goccy/go-json"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	foundationerrors "github.com/tomcur/sprokkel/internal/foundation/errors"
	"github.com/tomcur/sprokkel/internal/site"
)

// baseFuncs are bound once per build. paginate is a placeholder replaced in every clone.
func baseFuncs(sc site.Context) template.FuncMap {
	title := cases.Title(language.Und)
	return template.FuncMap{
		"paginate": func(any, any) (*Page, error) {
			return nil, foundationerrors.InternalError("paginate was not bound").Build()
		},
		"leading_zeros": leadingZeros,
		"path_to_url":   sc.URL,
		"titlecase": func(s string) string {
			return title.String(s)
		},
		"to_json":    toJSON,
		"safe_html":  safeHTML,
		"page_items": pageItems,
	}
}

func leadingZeros(n any, width int) (string, error) {
	v, ok := toInt(n)
	if !ok {
		return "", fmt.Errorf("leading_zeros: %v is not an integer", n)
	}
	return fmt.Sprintf("%0*d", width, v), nil
}

func toJSON(v any) (template.JS, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("to_json: %w", err)
	}
	// #nosec G203 -- marshalled JSON is a valid JS expression.
	return template.JS(b), nil
}

func safeHTML(s string) template.HTML {
	// #nosec G203 -- explicitly requested by the template author.
	return template.HTML(s)
}

// pageItems returns the items of seq that belong on page.
func pageItems(seq any, page *Page) (any, error) {
	if page == nil {
		return nil, fmt.Errorf("page_items: no page")
	}
	v := reflect.ValueOf(seq)
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.String:
	default:
		return nil, fmt.Errorf("page_items: cannot slice %T", seq)
	}
	start := min(page.Start, v.Len())
	end := min(page.End, v.Len())
	return v.Slice(start, end).Interface(), nil
}
