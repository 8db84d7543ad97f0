package source

// Dialect identifies the markup language of an entry.
type Dialect string

const (
	DialectCommonMark Dialect = "commonmark"
	DialectDjot       Dialect = "djot"
)

// DialectForExt maps a file extension (with leading dot) to its dialect.
func DialectForExt(ext string) (Dialect, bool) {
	switch ext {
	case ".md":
		return DialectCommonMark, true
	case ".dj":
		return DialectDjot, true
	default:
		return "", false
	}
}

// EntryFile is an entry source discovered under entries/<group>/.
type EntryFile struct {
	Path    string  // Absolute path to the source file
	RelPath string  // Slash path relative to the site root
	Group   string  // Group directory name
	Stem    string  // File stem, or the directory name for index entries
	Dialect Dialect // Markup dialect chosen by extension
	Index   bool    // True for <dir>/index.<ext> entries
	Assets  []File  // Other files in an index entry's directory
}

// File is a plain file discovered during a scan.
type File struct {
	Path    string // Absolute path
	RelPath string // Slash path relative to the class directory (templates/, assets/, ...)
}

// CatLeaf is a directory under cat/ whose direct files are concatenated into one output.
type CatLeaf struct {
	RelDir string   // Slash path relative to cat/, also the output file path
	Files  []string // Absolute paths in file name order
}

// Inventory is everything a build reads from the site root.
type Inventory struct {
	Root      string
	Entries   []EntryFile
	Templates []File
	Assets    []File
	CatLeaves []CatLeaf
}
