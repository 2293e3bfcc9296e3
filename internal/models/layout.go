// Package models holds the documents the fibernav commands read and write.
package models

import (
	"fmt"
	"os"

	"github.com/agilira/go-errors"
	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"fibernav/pkg/property"
	"fibernav/pkg/roi"
)

// Error codes raised by this package.
const (
	ErrCodeLayoutRead    = "LAYOUT_READ"
	ErrCodeLayoutInvalid = "LAYOUT_INVALID"
)

// Region kinds understood in a layout.
const (
	RegionBox    = "box"
	RegionSphere = "sphere"
)

// Vec is a point written as a three element YAML list.
type Vec [3]float64

func (v Vec) r3() r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

// Region describes one ROI. Box regions use Min and Max, spheres use
// Center and Radius.
type Region struct {
	Type     string  `yaml:"type"`
	Not      bool    `yaml:"not,omitempty"`
	Inactive bool    `yaml:"inactive,omitempty"`
	Min      Vec     `yaml:"min,omitempty"`
	Max      Vec     `yaml:"max,omitempty"`
	Center   Vec     `yaml:"center,omitempty"`
	Radius   float64 `yaml:"radius,omitempty"`
}

// Branch describes the regions combined into one branch. The first region
// becomes the branch master.
type Branch struct {
	Not     bool            `yaml:"not,omitempty"`
	Color   *property.Color `yaml:"color,omitempty"`
	Regions []Region        `yaml:"regions"`
}

// Layout is a complete ROI setup.
type Layout struct {
	Branches []Branch `yaml:"branches"`
}

// ParseLayout decodes and validates a YAML layout.
func ParseLayout(data []byte) (*Layout, error) {
	l := &Layout{}
	if err := yaml.Unmarshal(data, l); err != nil {
		return nil, errors.Wrap(err, ErrCodeLayoutInvalid, "cannot decode layout")
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// LoadLayout reads a layout file.
func LoadLayout(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, ErrCodeLayoutRead, fmt.Sprintf("error reading layout %s", path))
	}
	return ParseLayout(data)
}

// Validate checks region types, sphere radii and that no branch is empty.
func (l *Layout) Validate() error {
	for bi, b := range l.Branches {
		if len(b.Regions) == 0 {
			return errors.New(ErrCodeLayoutInvalid, fmt.Sprintf("branch %d has no regions", bi))
		}
		for ri, r := range b.Regions {
			switch r.Type {
			case RegionBox:
			case RegionSphere:
				if r.Radius <= 0 {
					return errors.New(ErrCodeLayoutInvalid,
						fmt.Sprintf("branch %d region %d: sphere radius must be positive", bi, ri))
				}
			default:
				return errors.New(ErrCodeLayoutInvalid,
					fmt.Sprintf("branch %d region %d: unknown type %q", bi, ri, r.Type))
			}
		}
	}
	return nil
}

func (r Region) build() (roi.Region, error) {
	if r.Type == RegionSphere {
		return roi.NewSphere(r.Center.r3(), r.Radius)
	}
	return roi.NewBox(r.Min.r3(), r.Max.r3())
}

// Apply adds every branch of l to m and returns the created representations
// grouped by branch. m must have a dataset.
func (l *Layout) Apply(m *roi.Manager) ([][]*roi.Representation, error) {
	out := make([][]*roi.Representation, 0, len(l.Branches))
	for _, b := range l.Branches {
		var reps []*roi.Representation
		for i, spec := range b.Regions {
			region, err := spec.build()
			if err != nil {
				return out, err
			}
			region.SetNot(spec.Not)

			var rep *roi.Representation
			if i == 0 {
				rep, err = m.AddRoi(region)
			} else {
				rep, err = m.AddRoiTo(region, reps[0])
			}
			if err != nil {
				return out, err
			}
			rep.SetActive(!spec.Inactive)
			reps = append(reps, rep)
		}

		br := reps[0].Branch()
		br.SetNot(b.Not)
		if b.Color != nil {
			br.SetBundleColor(*b.Color)
		}
		out = append(out, reps)
	}
	return out, nil
}
