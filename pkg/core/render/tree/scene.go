package tree

import (
	"github.com/matzehuels/orgchart/pkg/core/chart"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/compact"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/layout"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/links"
	"github.com/matzehuels/orgchart/pkg/core/render/tree/styles"
	"github.com/matzehuels/orgchart/pkg/org"
)

// Element is one node card of a scene.
type Element struct {
	ID       string
	ParentID string
	X, Y     float64
	Depth    int
	Hidden   bool
	Employee *org.Employee
	Style    styles.Appearance
}

// Point returns the element's center.
func (e Element) Point() links.Point { return links.Point{X: e.X, Y: e.Y} }

// Scene is a fully laid out frame.
type Scene struct {
	Config   layout.Config
	Elements []Element
	Links    []links.Link
	Groups   map[string]*compact.Grid
	Bounds   chart.Rect

	byID map[string]int
}

// Find returns the element with id.
func (s *Scene) Find(id string) (Element, bool) {
	if s == nil {
		return Element{}, false
	}
	i, ok := s.byID[id]
	if !ok {
		return Element{}, false
	}
	return s.Elements[i], true
}

// Len returns the number of node elements.
func (s *Scene) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Elements)
}

func (s *Scene) index() {
	s.byID = make(map[string]int, len(s.Elements))
	for i, e := range s.Elements {
		s.byID[e.ID] = i
	}
}
