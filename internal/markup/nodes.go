package markup

import (
	"strconv"

	"github.com/yuin/goldmark/ast"
)

// KindMath is the NodeKind of Math nodes.
var KindMath = ast.NewNodeKind("Math")

// Math is an inline LaTeX span. Display math is typeset on its own line by the math renderer.
type Math struct {
	ast.BaseInline
	Display bool
	Value   []byte
}

// NewMath returns a Math node holding a copy of latex.
func NewMath(display bool, latex []byte) *Math {
	return &Math{Display: display, Value: append([]byte(nil), latex...)}
}

func (n *Math) Kind() ast.NodeKind { return KindMath }

func (n *Math) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{
		"Display": strconv.FormatBool(n.Display),
		"Value":   string(n.Value),
	}, nil)
}

// KindMoreMarker is the NodeKind of MoreMarker nodes.
var KindMoreMarker = ast.NewNodeKind("MoreMarker")

// MoreMarker separates an entry's summary from the rest of its body.
type MoreMarker struct {
	ast.BaseBlock
}

func NewMoreMarker() *MoreMarker { return &MoreMarker{} }

func (n *MoreMarker) Kind() ast.NodeKind { return KindMoreMarker }

func (n *MoreMarker) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// KindFragment is the NodeKind of Fragment nodes.
var KindFragment = ast.NewNodeKind("Fragment")

// Fragment holds inline content that renders without a wrapping element, such as a title.
type Fragment struct {
	ast.BaseBlock
}

func NewFragment() *Fragment { return &Fragment{} }

func (n *Fragment) Kind() ast.NodeKind { return KindFragment }

func (n *Fragment) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}
