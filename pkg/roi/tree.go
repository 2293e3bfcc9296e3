package roi

import (
	"fmt"

	"fibernav/pkg/property"
)

// PropertyTree collects the properties of all branches and regions under one
// group, laid out as
//
//	Branch 0/Branch/NOT
//	Branch 0/Region 0/Box/Min
//
// The leaves are shared with the live regions, so values set through the
// tree edit the selection. The tree does not follow later additions or
// removals.
func (m *Manager) PropertyTree() (*property.Group, error) {
	root, err := property.NewGroup("ROIs", "Regions of interest by branch")
	if err != nil {
		return nil, err
	}
	for bi, b := range m.Branches() {
		bg, err := root.AddGroup(fmt.Sprintf("Branch %d", bi), "")
		if err != nil {
			return nil, err
		}
		if err := bg.AddProperty(b.Properties()); err != nil {
			return nil, err
		}
		for ri, r := range b.ROIs() {
			rg, err := bg.AddGroup(fmt.Sprintf("Region %d", ri), "")
			if err != nil {
				return nil, err
			}
			if err := rg.AddProperty(r.Region().Properties()); err != nil {
				return nil, err
			}
		}
	}
	return root, nil
}
