package models

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/agilira/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"

	"fibernav/pkg/fibers"
	"fibernav/pkg/property"
	"fibernav/pkg/roi"
)

const twoBranches = `
branches:
  - regions:
      - type: box
        min: [0, 0, -1]
        max: [2, 6, 2]
      - type: box
        not: true
        min: [0, 0, -1]
        max: [6, 2, 2]
  - not: true
    color: {r: 0, g: 0, b: 1, a: 1}
    regions:
      - type: sphere
        center: [5, 5, 0]
        radius: 0.5
      - type: box
        inactive: true
        min: [0, 0, 0]
        max: [1, 1, 1]
`

func fourFibers(t *testing.T) *fibers.Dataset {
	t.Helper()
	verts := []r3.Vec{
		{X: 1, Y: 1}, {X: 1, Y: 1, Z: 1},
		{X: 1, Y: 5}, {X: 1, Y: 5, Z: 1},
		{X: 5, Y: 1}, {X: 5, Y: 1, Z: 1},
		{X: 5, Y: 5}, {X: 5, Y: 5, Z: 1},
	}
	ds, err := fibers.New(verts, []int{0, 2, 4, 6}, []int{2, 2, 2, 2})
	require.NoError(t, err)
	return ds
}

func code(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	ec, ok := err.(errors.ErrorCoder)
	require.True(t, ok, "error %v carries no code", err)
	return string(ec.ErrorCode())
}

func TestParseLayout(t *testing.T) {
	l, err := ParseLayout([]byte(twoBranches))
	require.NoError(t, err)
	require.Len(t, l.Branches, 2)
	assert.Equal(t, Vec{2, 6, 2}, l.Branches[0].Regions[0].Max)
	assert.True(t, l.Branches[0].Regions[1].Not)
	require.NotNil(t, l.Branches[1].Color)
	assert.Equal(t, property.Color{B: 1, A: 1}, *l.Branches[1].Color)
	assert.True(t, l.Branches[1].Regions[1].Inactive)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"empty branch", "branches:\n  - regions: []\n"},
		{"unknown type", "branches:\n  - regions:\n      - type: cone\n"},
		{"zero radius", "branches:\n  - regions:\n      - type: sphere\n"},
		{"not yaml", "branches: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLayout([]byte(tt.doc))
			assert.Equal(t, ErrCodeLayoutInvalid, code(t, err))
		})
	}
}

func TestLoadLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "layout.yaml")
	require.NoError(t, os.WriteFile(path, []byte(twoBranches), 0644))
	l, err := LoadLayout(path)
	require.NoError(t, err)
	assert.Len(t, l.Branches, 2)

	_, err = LoadLayout(filepath.Join(t.TempDir(), "none.yaml"))
	assert.Equal(t, ErrCodeLayoutRead, code(t, err))
}

func TestApply(t *testing.T) {
	l, err := ParseLayout([]byte(twoBranches))
	require.NoError(t, err)

	m := roi.NewManager(roi.WithBackgroundRecompute(false), roi.WithLogger(slog.New(slog.DiscardHandler)))
	require.NoError(t, m.AddFiberDataset(fourFibers(t)))

	reps, err := l.Apply(m)
	require.NoError(t, err)
	require.Len(t, reps, 2)
	require.Len(t, reps[1], 2)
	assert.False(t, reps[1][1].Active())
	assert.Same(t, reps[0][0], reps[0][1].Branch().Master())

	branches := m.Branches()
	require.Len(t, branches, 2)
	assert.Equal(t, "0100", branches[0].BitField().String())
	assert.True(t, branches[1].IsNot())
	assert.Equal(t, property.Color{B: 1, A: 1}, branches[1].BundleColor())
	// Second branch: NOT(sphere around fiber 3), the inactive box is ignored.
	assert.Equal(t, "1110", branches[1].BitField().String())

	assert.Equal(t, "1110", m.BitField().String())
}

func TestApplyWithoutDataset(t *testing.T) {
	l, err := ParseLayout([]byte(twoBranches))
	require.NoError(t, err)
	_, err = l.Apply(roi.NewManager(roi.WithBackgroundRecompute(false)))
	assert.Equal(t, roi.ErrCodeNoDataset, code(t, err))
}
