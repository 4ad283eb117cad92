package sink

import (
	"maps"
	"slices"

	json "github.com/goccy/go-json"

	"github.com/matzehuels/orgchart/pkg/core/render/tree"
)

type jsonOutput struct {
	Orientation string      `json:"orientation"`
	NodeWidth   float64     `json:"node_width"`
	NodeHeight  float64     `json:"node_height"`
	Bounds      jsonRect    `json:"bounds"`
	Nodes       []jsonNode  `json:"nodes"`
	Links       []jsonLink  `json:"links"`
	Groups      []jsonGroup `json:"groups,omitempty"`
}

type jsonRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type jsonNode struct {
	ID         string  `json:"id"`
	Parent     string  `json:"parent,omitempty"`
	Name       string  `json:"name"`
	Title      string  `json:"title,omitempty"`
	Department string  `json:"department,omitempty"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Depth      int     `json:"depth"`
	Fill       string  `json:"fill"`
	Collapsed  bool    `json:"collapsed,omitempty"`
	Reports    string  `json:"reports,omitempty"`
	Hidden     bool    `json:"hidden,omitempty"`
	New        bool    `json:"new,omitempty"`
}

type jsonLink struct {
	ID     string `json:"id"`
	Kind   string `json:"kind"`
	Source string `json:"source"`
	Target string `json:"target,omitempty"`
	Path   string `json:"path"`
}

type jsonGroup struct {
	Parent   string   `json:"parent"`
	Rows     int      `json:"rows"`
	Cols     int      `json:"cols"`
	Children []string `json:"children"`
}

// RenderJSON encodes the scene's positions, links and wrapped groups.
func RenderJSON(s *tree.Scene) ([]byte, error) {
	out := jsonOutput{
		Orientation: s.Config.Orientation.String(),
		NodeWidth:   s.Config.NodeWidth,
		NodeHeight:  s.Config.NodeHeight,
		Bounds: jsonRect{
			X:      s.Bounds.MinX,
			Y:      s.Bounds.MinY,
			Width:  s.Bounds.Width(),
			Height: s.Bounds.Height(),
		},
		Nodes: make([]jsonNode, 0, len(s.Elements)),
		Links: make([]jsonLink, 0, len(s.Links)),
	}
	if s.Bounds.Empty() {
		out.Bounds = jsonRect{}
	}
	for _, el := range s.Elements {
		n := jsonNode{
			ID:         el.ID,
			Parent:     el.ParentID,
			Name:       el.Employee.Name,
			Title:      el.Employee.Title,
			Department: el.Employee.Department,
			X:          el.X,
			Y:          el.Y,
			Depth:      el.Depth,
			Fill:       el.Style.Fill,
			Hidden:     el.Hidden,
			New:        el.Style.New != nil,
		}
		if c := el.Style.Count; c != nil {
			n.Reports = c.Label
		}
		if b := el.Style.Expand; b != nil {
			n.Collapsed = b.Collapsed
		}
		out.Nodes = append(out.Nodes, n)
	}
	for _, l := range s.Links {
		out.Links = append(out.Links, jsonLink{
			ID:     l.ID,
			Kind:   l.Kind.String(),
			Source: l.Source,
			Target: l.Target,
			Path:   l.Path.D(),
		})
	}
	for _, parent := range slices.Sorted(maps.Keys(s.Groups)) {
		g := s.Groups[parent]
		ids := make([]string, len(g.Children))
		for i, c := range g.Children {
			ids[i] = c.ID()
		}
		out.Groups = append(out.Groups, jsonGroup{Parent: parent, Rows: g.Rows, Cols: g.Cols, Children: ids})
	}
	return json.MarshalIndent(out, "", "  ")
}
