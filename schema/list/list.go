// Package list defines the list node types: bullet and ordered lists whose
// items hold block content.
package list

import "github.com/notectl/notectl-go/model"

// Nodes are the specs for the list node types.
var Nodes = []*model.NodeSpec{
	// An unordered list (<ul>) holding list items.
	{Name: "bullet_list", Content: model.KindBlock, Allow: []string{"list_item"}, Tag: "ul"},

	// An ordered list (<ol>) with a start attribute.
	{
		Name:    "ordered_list",
		Content: model.KindBlock,
		Allow:   []string{"list_item"},
		Attrs:   map[string]*model.AttrSpec{"start": {Default: 1, HasDefault: true}},
		Tag:     "ol",
	},

	// A list item (<li>) wrapping block content, so items can hold nested
	// lists next to their paragraph.
	{Name: "list_item", Content: model.KindBlock, Tag: "li"},
}

// Register adds the list nodes to a registry.
func Register(reg *model.Registry) error {
	for _, spec := range Nodes {
		if err := reg.RegisterNode(spec); err != nil {
			return err
		}
	}
	return nil
}
