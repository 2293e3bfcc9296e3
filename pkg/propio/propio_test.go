package propio

import (
	"path/filepath"
	"testing"

	"github.com/agilira/go-errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fibernav/pkg/property"
)

func errorCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	ec, ok := err.(errors.ErrorCoder)
	require.True(t, ok, "error %v carries no code", err)
	return string(ec.ErrorCode())
}

func moduleTree(t *testing.T) *property.Group {
	t.Helper()
	root, err := property.NewGroup("", "module root")
	require.NoError(t, err)

	_, err = root.AddInt("Iterations", "", 10)
	require.NoError(t, err)
	_, err = root.AddDouble("Step", "", 0.5)
	require.NoError(t, err)
	_, err = root.AddColor("Tint", "", property.Color{R: 1, A: 1})
	require.NoError(t, err)

	items := property.NewItemSelection(
		property.Item{Name: "fast"},
		property.Item{Name: "exact"},
	)
	_, err = root.AddSelection("Mode", "", items.SelectFirst())
	require.NoError(t, err)

	roi, err := root.AddGroup("ROI", "")
	require.NoError(t, err)
	_, err = roi.AddPosition("Center", "", property.Position{X: 1, Y: 2, Z: 3})
	require.NoError(t, err)
	_, err = roi.AddBool("NOT", "", false)
	require.NoError(t, err)

	info, err := property.NewString("Status", "", "idle", property.WithPurpose(property.PurposeInformation))
	require.NoError(t, err)
	require.NoError(t, root.AddProperty(info))
	return root
}

func mustGet[T any](t *testing.T, g *property.Group, path string) *property.Variable[T] {
	t.Helper()
	p, err := g.Get(path)
	require.NoError(t, err)
	v, ok := property.As[T](p)
	require.True(t, ok, "%s has kind %s", path, p.Kind())
	return v
}

func TestExportShape(t *testing.T) {
	n := Export(moduleTree(t))
	assert.Equal(t, "GROUP", n.Kind)
	require.Len(t, n.Children, 6)

	assert.Equal(t, Node{Name: "Iterations", Kind: "INT", Value: "10"}, n.Children[0])
	assert.Equal(t, "1;0;0;1", n.Children[2].Value)
	assert.Equal(t, "0", n.Children[3].Value)

	roi := n.Children[4]
	assert.Equal(t, "GROUP", roi.Kind)
	assert.Equal(t, "1;2;3", roi.Children[0].Value)

	assert.True(t, n.Children[5].Info)
}

func TestRoundTrip(t *testing.T) {
	src := moduleTree(t)
	mustGet[int32](t, src, "Iterations").Set(42)
	mustGet[bool](t, src, "ROI/NOT").Set(true)
	mustGet[property.Position](t, src, "ROI/Center").Set(property.Position{X: -1, Y: 0.25, Z: 9})
	mustGet[string](t, src, "Status").Set("busy")

	data, err := Marshal(src)
	require.NoError(t, err)

	dst := moduleTree(t)
	rep, err := Unmarshal(data, dst)
	require.NoError(t, err)
	assert.Empty(t, rep.Rejected)
	assert.Empty(t, rep.Unknown)
	assert.Contains(t, rep.Applied, "ROI/Center")

	assert.Equal(t, int32(42), mustGet[int32](t, dst, "Iterations").Get())
	assert.True(t, mustGet[bool](t, dst, "ROI/NOT").Get())
	assert.Equal(t, property.Position{X: -1, Y: 0.25, Z: 9}, mustGet[property.Position](t, dst, "ROI/Center").Get())
	assert.Equal(t, "idle", mustGet[string](t, dst, "Status").Get(), "information properties are not imported")
}

func TestImportRejectsAndUnknown(t *testing.T) {
	dst := moduleTree(t)
	doc := Node{Kind: "GROUP", Children: []Node{
		{Name: "Iterations", Kind: "INT", Value: "1000"},
		{Name: "Step", Kind: "DOUBLE", Value: "abc"},
		{Name: "Mode", Kind: "SELECTION", Value: "1"},
		{Name: "Gone", Kind: "BOOL", Value: "true"},
		{Name: "ROI", Kind: "GROUP", Children: []Node{{Name: "Radius", Kind: "DOUBLE", Value: "2"}}},
	}}

	rep, err := Import(doc, dst)
	require.NoError(t, err)
	assert.Equal(t, []string{"Mode"}, rep.Applied)
	assert.Equal(t, []string{"Iterations", "Step"}, rep.Rejected)
	assert.Equal(t, []string{"Gone", "ROI/Radius"}, rep.Unknown)

	assert.Equal(t, int32(10), mustGet[int32](t, dst, "Iterations").Get(), "max constraint keeps the old value")
	sel := mustGet[property.ItemSelector](t, dst, "Mode").Get()
	assert.Equal(t, []int{1}, sel.IndexList())
}

func TestImportTypeMismatch(t *testing.T) {
	dst := moduleTree(t)
	doc := Node{Children: []Node{{Name: "Iterations", Kind: "STRING", Value: "x"}}}
	_, err := Import(doc, dst)
	assert.Equal(t, ErrCodeTypeMismatch, errorCode(t, err))
}

func TestUnmarshalParseError(t *testing.T) {
	_, err := Unmarshal([]byte("children: [\n"), moduleTree(t))
	assert.Equal(t, ErrCodeParse, errorCode(t, err))
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "props", "module.yaml")
	src := moduleTree(t)
	mustGet[float64](t, src, "Step").Set(7.5)
	require.NoError(t, Save(src, path))

	dst := moduleTree(t)
	_, err := Load(path, dst)
	require.NoError(t, err)
	assert.Equal(t, 7.5, mustGet[float64](t, dst, "Step").Get())

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"), dst)
	assert.Equal(t, ErrCodeIO, errorCode(t, err))
}
