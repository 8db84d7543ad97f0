package content

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Date is the calendar date encoded in an entry's file name.
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Time is the optional time of day encoded after the date, as in 2024-04-16T094032.
type Time struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
	Second int `json:"second"`
}

func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour, t.Minute, t.Second)
}

// SplitFileName splits a file stem on its first underscore. The slug is everything after it.
// When the part before it is a date (YYYY-MM-DD) or date-time (YYYY-MM-DDThhmmss), it is
// returned as well. A stem without an underscore is its own slug.
func SplitFileName(stem string) (date *Date, tm *Time, slug string) {
	idx := strings.IndexByte(stem, '_')
	if idx < 0 {
		return nil, nil, stem
	}
	d, t, ok := parseDateTime(stem[:idx])
	if !ok {
		return nil, nil, stem[idx+1:]
	}
	return d, t, stem[idx+1:]
}

func parseDateTime(s string) (*Date, *Time, bool) {
	if len(s) != 10 && len(s) != 17 {
		return nil, nil, false
	}
	parts := strings.Split(s[:10], "-")
	if len(parts) != 3 {
		return nil, nil, false
	}
	var nums [3]int
	for i, p := range parts {
		n, ok := digits(p)
		if !ok {
			return nil, nil, false
		}
		nums[i] = n
	}
	date := &Date{Year: nums[0], Month: nums[1], Day: nums[2]}
	if len(s) == 10 {
		return date, nil, true
	}

	if s[10] != 'T' && s[10] != 't' {
		return nil, nil, false
	}
	n, ok := digits(s[11:])
	if !ok {
		return nil, nil, false
	}
	return date, &Time{Hour: n / 10000, Minute: n / 100 % 100, Second: n % 100}, true
}

func digits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	return n, err == nil
}

// OutputPaths returns an entry's output file and asset directory, relative to the output root.
// Dated entries live under their year.
func OutputPaths(date *Date, slug string) (outFile, assetDir string) {
	if date != nil {
		dir := path.Join(strconv.Itoa(date.Year), slug)
		return path.Join(dir, "index.html"), dir
	}
	if slug == "index" {
		return "index.html", slug
	}
	return path.Join(slug, "index.html"), slug
}
