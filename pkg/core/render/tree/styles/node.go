package styles

import (
	"github.com/matzehuels/orgchart/pkg/core/chart"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/layout"
)

// Options are the display settings that affect node appearance.
type Options struct {
	Palette         Palette
	Avatars         bool
	Departments     bool
	EmployeeCount   bool
	HighlightNew    bool
	SearchHighlight bool
}

// DefaultOptions shows everything with the built-in palette.
func DefaultOptions() Options {
	return Options{
		Palette:         Palette{},
		Avatars:         true,
		Departments:     true,
		EmployeeCount:   true,
		HighlightNew:    true,
		SearchHighlight: true,
	}
}

// State is the per-node interaction state that affects appearance.
type State struct {
	Hidden      bool
	Highlighted bool
}

// Label is one line of node text, positioned relative to the node center.
type Label struct {
	Text   string
	X, Y   float64
	Size   float64
	Anchor string
	Class  string
}

// Circle is a circle relative to the node center.
type Circle struct {
	CX, CY, R float64
}

// CountBadge shows the number of direct reports in the top-left corner.
type CountBadge struct {
	Circle
	Label        string
	TextX, TextY float64
}

// ExpandButton toggles the collapse state. It sits below the card in the
// vertical orientation and right of it in the horizontal one.
type ExpandButton struct {
	Circle
	Collapsed    bool
	Symbol       string
	TextX, TextY float64
}

// HideToggle switches the subtree's visibility overlay.
type HideToggle struct {
	X, Y    float64
	Hidden  bool
	Symbol  string
	Tooltip string
}

// NewBadge marks recent hires.
type NewBadge struct {
	X, Y, W, H, R float64
	TextX, TextY  float64
}

// Avatar is the profile image slot with its circular clip.
type Avatar struct {
	X, Y, Size float64
	Clip       Circle
	// Href is the photo URL, or empty when only the default icon applies.
	Href     string
	Initials string
}

// Appearance is everything a sink needs to draw one node card.
type Appearance struct {
	Class       string
	RectClass   string
	X, Y, W, H  float64
	Fill        string
	Stroke      string // empty for highlighted new employees
	StrokeWidth float64

	Name       Label
	Title      Label
	Department *Label
	Avatar     *Avatar
	Count      *CountBadge
	Expand     *ExpandButton
	Hide       HideToggle
	New        *NewBadge
}

// Describe computes the appearance of n.
func Describe(n *chart.Node, st State, cfg layout.Config, opts Options) Appearance {
	w, h := cfg.NodeWidth, cfg.NodeHeight
	e := n.Employee
	isNew := opts.HighlightNew && e.IsNewEmployee

	a := Appearance{
		Class:       "node",
		RectClass:   "node-rect",
		X:           -w / 2,
		Y:           -h / 2,
		W:           w,
		H:           h,
		Fill:        opts.Palette.Fill(n.Depth),
		Stroke:      opts.Palette.Stroke(n.Depth),
		StrokeWidth: 2,
	}
	if n.Depth == 0 {
		a.Class += " ceo"
	}
	if st.Hidden {
		a.Class += " hidden-subtree"
	}
	if isNew {
		a.RectClass += " new-employee"
		a.Stroke = ""
	}
	if opts.SearchHighlight && st.Highlighted {
		a.RectClass += " search-highlight"
	}

	textX, anchor := 0.0, "middle"
	if opts.Avatars {
		textX, anchor = -w/2+50, "start"
		a.Avatar = &Avatar{
			X:        -w/2 + 8,
			Y:        -18,
			Size:     36,
			Clip:     Circle{CX: -w/2 + 26, CY: 0, R: 18},
			Initials: Initials(e.Name),
		}
		if e.HasDynamicPhoto() {
			a.Avatar.Href = e.PhotoURL
		}
	}

	a.Name = Label{Text: e.Name, X: textX, Y: -10, Size: NameSize(e.Name, opts.Avatars), Anchor: anchor, Class: "node-text"}
	a.Title = Label{Text: TrimTitle(e.Title, opts.Avatars), X: textX, Y: 5, Size: TitleSize(e.Title, opts.Avatars), Anchor: anchor, Class: "node-title"}
	if opts.Departments {
		dept := Department(e.Department)
		a.Department = &Label{Text: dept, X: textX, Y: 18, Size: DepartmentSize(dept, opts.Avatars), Anchor: anchor, Class: "node-department"}
	}

	if reports := len(n.Children()); reports > 0 {
		if opts.EmployeeCount {
			a.Count = &CountBadge{
				Circle: Circle{CX: -w/2 + 15, CY: -h/2 + 15, R: 12},
				Label:  CountLabel(reports),
				TextX:  -w/2 + 15,
				TextY:  -h/2 + 19,
			}
		}
		a.Expand = expandButton(n.Collapsed(), cfg)
	}

	a.Hide = HideToggle{X: w/2 - 14, Y: -h/2 + 14, Hidden: st.Hidden, Symbol: "👁", Tooltip: "Hide this subtree"}
	if st.Hidden {
		a.Hide.Symbol, a.Hide.Tooltip = "🙈", "Show this subtree"
	}

	if isNew {
		a.New = &NewBadge{X: w/2 - 45, Y: -h/2 - 10, W: 35, H: 18, R: 9, TextX: w/2 - 27, TextY: -h/2 + 2}
	}
	return a
}

func expandButton(collapsed bool, cfg layout.Config) *ExpandButton {
	b := &ExpandButton{Collapsed: collapsed, Symbol: "-"}
	if collapsed {
		b.Symbol = "+"
	}
	b.R = 10
	if cfg.Orientation == layout.Horizontal {
		b.CX = cfg.NodeWidth/2 + 10
		b.TextX, b.TextY = b.CX, 4
	} else {
		b.CY = cfg.NodeHeight/2 + 10
		b.TextY = cfg.NodeHeight/2 + 15
	}
	return b
}
