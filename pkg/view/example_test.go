package view_test

import (
	"context"
	"fmt"

	"github.com/matzehuels/orgchart/pkg/core/chart/charttest"
	"github.com/matzehuels/orgchart/pkg/org"
	"github.com/matzehuels/orgchart/pkg/settings"
	"github.com/matzehuels/orgchart/pkg/view"
)

type staticBackend struct{ root *org.Employee }

func (b staticBackend) Employees(context.Context) (*org.Employee, error) { return b.root, nil }
func (b staticBackend) Settings(context.Context) (settings.Settings, error) {
	return settings.Defaults(), nil
}
func (b staticBackend) Search(context.Context, string) ([]org.Summary, error) { return nil, nil }
func (b staticBackend) SetMultilineEnabled(context.Context, bool) error       { return nil }

func ExampleController() {
	c := view.New(staticBackend{root: charttest.Fan(3)})
	defer c.Viewport().Close()

	if err := c.Load(context.Background()); err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(c.Scene().Len())
	c.CollapseAll()
	fmt.Println(c.Scene().Len())
	c.Toggle("root")
	fmt.Println(c.Scene().Len())
	// Output:
	// 4
	// 4
	// 1
}
