package property

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/agilira/go-errors"

	"fibernav/pkg/shared"
)

// Item is one selectable entry of an ItemSelection.
type Item struct {
	Name        string
	Description string
}

// ItemSelection is a shared list of named items. Selectors refer to items by
// index.
type ItemSelection struct {
	items *shared.Object[[]Item]
}

// NewItemSelection creates a selection over the given items.
func NewItemSelection(items ...Item) *ItemSelection {
	return &ItemSelection{items: shared.NewObject(slices.Clone(items))}
}

// AddItem appends an item.
func (s *ItemSelection) AddItem(name, description string) {
	s.items.Write(func(v *[]Item) {
		*v = append(*v, Item{Name: name, Description: description})
	})
}

// Len returns the number of items.
func (s *ItemSelection) Len() int {
	t := s.items.ReadTicket()
	defer t.Release()
	return len(t.Get())
}

// At returns the item at index i.
func (s *ItemSelection) At(i int) (Item, error) {
	t := s.items.ReadTicket()
	defer t.Release()
	items := t.Get()
	if i < 0 || i >= len(items) {
		return Item{}, errors.New(ErrCodeSelectionOutOfBounds,
			fmt.Sprintf("item index %d out of range [0,%d)", i, len(items)))
	}
	return items[i], nil
}

// Select returns a selector for the given indices. Any index beyond the item
// count is an error.
func (s *ItemSelection) Select(indices ...int) (ItemSelector, error) {
	n := s.Len()
	for _, i := range indices {
		if i < 0 || i >= n {
			return ItemSelector{}, errors.New(ErrCodeSelectionOutOfBounds,
				fmt.Sprintf("item index %d out of range [0,%d)", i, n))
		}
	}
	return ItemSelector{selection: s, indices: slices.Clone(indices)}, nil
}

// SelectAll returns a selector containing every item.
func (s *ItemSelection) SelectAll() ItemSelector {
	n := s.Len()
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	return ItemSelector{selection: s, indices: idx}
}

// SelectNone returns an empty selector.
func (s *ItemSelection) SelectNone() ItemSelector {
	return ItemSelector{selection: s}
}

// SelectFirst returns a selector with only the first item, or an empty one.
func (s *ItemSelection) SelectFirst() ItemSelector {
	if s.Len() == 0 {
		return s.SelectNone()
	}
	return ItemSelector{selection: s, indices: []int{0}}
}

// Parse reads a ';'-separated index list as produced by ItemSelector.String.
func (s *ItemSelection) Parse(str string) (ItemSelector, error) {
	str = strings.TrimSpace(str)
	if str == "" {
		return s.SelectNone(), nil
	}
	var idx []int
	for _, tok := range strings.Split(str, ";") {
		i, err := strconv.Atoi(strings.TrimSpace(tok))
		if err != nil {
			return ItemSelector{}, errors.Wrap(err, ErrCodeSelectionParse,
				fmt.Sprintf("invalid selection %q", str))
		}
		idx = append(idx, i)
	}
	return s.Select(idx...)
}

// ItemSelector is an immutable choice of items from an ItemSelection.
type ItemSelector struct {
	selection *ItemSelection
	indices   []int
}

// Selection returns the item selection this selector refers to.
func (s ItemSelector) Selection() *ItemSelection { return s.selection }

// Size returns the number of selected items.
func (s ItemSelector) Size() int { return len(s.indices) }

// Empty reports whether nothing is selected.
func (s ItemSelector) Empty() bool { return len(s.indices) == 0 }

// ItemIndexOfSelected maps the i-th selected entry to its item index.
func (s ItemSelector) ItemIndexOfSelected(i int) int { return s.indices[i] }

// IndexList returns a copy of the selected item indices.
func (s ItemSelector) IndexList() []int { return slices.Clone(s.indices) }

// At returns the i-th selected item.
func (s ItemSelector) At(i int) (Item, error) {
	if i < 0 || i >= len(s.indices) {
		return Item{}, errors.New(ErrCodeSelectionOutOfBounds,
			fmt.Sprintf("selected index %d out of range [0,%d)", i, len(s.indices)))
	}
	return s.selection.At(s.indices[i])
}

// IsValid reports whether every selected index still exists in the item
// selection.
func (s ItemSelector) IsValid() bool {
	if s.selection == nil {
		return len(s.indices) == 0
	}
	n := s.selection.Len()
	for _, i := range s.indices {
		if i < 0 || i >= n {
			return false
		}
	}
	return true
}

// Equal reports whether both selectors choose the same indices of the same
// item selection.
func (s ItemSelector) Equal(o ItemSelector) bool {
	return s.selection == o.selection && slices.Equal(s.indices, o.indices)
}

func (s ItemSelector) String() string {
	parts := make([]string, len(s.indices))
	for i, idx := range s.indices {
		parts[i] = strconv.Itoa(idx)
	}
	return strings.Join(parts, ";")
}
