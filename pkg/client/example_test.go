package client_test

import (
	"fmt"

	"github.com/matzehuels/orgchart/pkg/client"
)

func ExampleFence() {
	f := client.NewFence()
	first := f.Begin(client.ChannelSearch)
	second := f.Begin(client.ChannelSearch)
	fmt.Println(f.Current(first), f.Current(second))
	// Output: false true
}
