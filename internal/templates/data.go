package templates

import (
	"html/template"

	"github.com/tomcur/sprokkel/internal/content"
)

// EntryView is an entry together with its rendered body, as seen by templates.
type EntryView struct {
	*content.Entry
	Summary   template.HTML `json:"summary"`
	Remainder template.HTML `json:"rest"`
}

// HasRemainder reports whether the entry continues past its summary.
func (v *EntryView) HasRemainder() bool {
	return v.Remainder != ""
}

// EntryData is the data passed to group and fallback templates.
type EntryData struct {
	Entry            *EntryView
	ReferringEntries []*EntryView
	Entries          map[string][]*EntryView
	BaseURL          string
	Develop          bool
}

// PageData is the data passed to page templates.
type PageData struct {
	Entries map[string][]*EntryView
	BaseURL string
	Develop bool
}
