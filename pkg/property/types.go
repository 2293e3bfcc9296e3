package property

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agilira/go-errors"
	"gonum.org/v1/gonum/spatial/r3"
)

// Path is a file system path held by a PATH property.
type Path string

// Position is a point in 3D space.
type Position = r3.Vec

// Color is an RGBA color with components in [0,1].
type Color struct {
	R, G, B, A float64
}

// Trigger is the state of a button-like property.
type Trigger int

const (
	// TriggerReady means the trigger waits to be pressed.
	TriggerReady Trigger = iota
	// TriggerTriggered means the trigger was pressed and not yet handled.
	TriggerTriggered
)

func (t Trigger) String() string {
	if t == TriggerTriggered {
		return "TRIGGERED"
	}
	return "READY"
}

func eq[T comparable](a, b T) bool { return a == b }

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'g', -1, 64) }

func wrapParse(err error, s string) error {
	if err == nil {
		return nil
	}
	return errors.Wrap(err, ErrCodeValueParse, fmt.Sprintf("invalid value %q", s))
}

func parseFloats(s string, n int) ([]float64, error) {
	parts := strings.Split(s, ";")
	if len(parts) != n {
		return nil, errors.New(ErrCodeValueParse,
			fmt.Sprintf("expected %d components, got %d", n, len(parts)))
	}
	out := make([]float64, n)
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, errors.Wrap(err, ErrCodeValueParse, fmt.Sprintf("invalid component %q", p))
		}
		out[i] = f
	}
	return out, nil
}

var (
	intCodec = codec[int32]{
		kind:   KindInt,
		equal:  eq[int32],
		format: func(v int32) string { return strconv.FormatInt(int64(v), 10) },
		parse: func(_ int32, s string) (int32, error) {
			i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 32)
			return int32(i), wrapParse(err, s)
		},
	}
	doubleCodec = codec[float64]{
		kind:   KindDouble,
		equal:  eq[float64],
		format: formatFloat,
		parse: func(_ float64, s string) (float64, error) {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			return f, wrapParse(err, s)
		},
	}
	boolCodec = codec[bool]{
		kind:   KindBool,
		equal:  eq[bool],
		format: strconv.FormatBool,
		parse: func(_ bool, s string) (bool, error) {
			b, err := strconv.ParseBool(strings.TrimSpace(s))
			return b, wrapParse(err, s)
		},
	}
	stringCodec = codec[string]{
		kind:   KindString,
		equal:  eq[string],
		format: func(v string) string { return v },
		parse:  func(_ string, s string) (string, error) { return s, nil },
	}
	pathCodec = codec[Path]{
		kind:   KindPath,
		equal:  eq[Path],
		format: func(v Path) string { return string(v) },
		parse:  func(_ Path, s string) (Path, error) { return Path(s), nil },
	}
	positionCodec = codec[Position]{
		kind:  KindPosition,
		equal: eq[Position],
		format: func(v Position) string {
			return formatFloat(v.X) + ";" + formatFloat(v.Y) + ";" + formatFloat(v.Z)
		},
		parse: func(_ Position, s string) (Position, error) {
			f, err := parseFloats(s, 3)
			if err != nil {
				return Position{}, err
			}
			return Position{X: f[0], Y: f[1], Z: f[2]}, nil
		},
	}
	colorCodec = codec[Color]{
		kind:  KindColor,
		equal: eq[Color],
		format: func(c Color) string {
			return formatFloat(c.R) + ";" + formatFloat(c.G) + ";" + formatFloat(c.B) + ";" + formatFloat(c.A)
		},
		parse: func(_ Color, s string) (Color, error) {
			f, err := parseFloats(s, 4)
			if err != nil {
				return Color{}, err
			}
			return Color{R: f[0], G: f[1], B: f[2], A: f[3]}, nil
		},
	}
	triggerCodec = codec[Trigger]{
		kind:   KindTrigger,
		equal:  eq[Trigger],
		format: func(t Trigger) string { return strconv.Itoa(int(t)) },
		parse: func(_ Trigger, s string) (Trigger, error) {
			switch strings.TrimSpace(s) {
			case "0":
				return TriggerReady, nil
			case "1":
				return TriggerTriggered, nil
			}
			return TriggerReady, errors.New(ErrCodeValueParse, fmt.Sprintf("invalid trigger state %q", s))
		},
	}
	selectionCodec = codec[ItemSelector]{
		kind:   KindSelection,
		equal:  func(a, b ItemSelector) bool { return a.Equal(b) },
		format: func(v ItemSelector) string { return v.String() },
		parse: func(old ItemSelector, s string) (ItemSelector, error) {
			if old.selection == nil {
				return old, errors.New(ErrCodeSelectionParse, "selector is not bound to an item selection")
			}
			return old.selection.Parse(s)
		},
	}
)

// NewInt creates an INT property.
func NewInt(name, description string, initial int32, opts ...Option) (*Int, error) {
	return newVariable(name, description, initial, intCodec, opts...)
}

// NewDouble creates a DOUBLE property.
func NewDouble(name, description string, initial float64, opts ...Option) (*Double, error) {
	return newVariable(name, description, initial, doubleCodec, opts...)
}

// NewBool creates a BOOL property.
func NewBool(name, description string, initial bool, opts ...Option) (*Bool, error) {
	return newVariable(name, description, initial, boolCodec, opts...)
}

// NewString creates a STRING property.
func NewString(name, description string, initial string, opts ...Option) (*String, error) {
	return newVariable(name, description, initial, stringCodec, opts...)
}

// NewPath creates a PATH property.
func NewPath(name, description string, initial Path, opts ...Option) (*PathVar, error) {
	return newVariable(name, description, initial, pathCodec, opts...)
}

// NewSelection creates a SELECTION property. The initial selector determines
// the item selection parsed strings refer to.
func NewSelection(name, description string, initial ItemSelector, opts ...Option) (*Selection, error) {
	return newVariable(name, description, initial, selectionCodec, opts...)
}

// NewPosition creates a POSITION property.
func NewPosition(name, description string, initial Position, opts ...Option) (*PositionVar, error) {
	return newVariable(name, description, initial, positionCodec, opts...)
}

// NewColor creates a COLOR property.
func NewColor(name, description string, initial Color, opts ...Option) (*ColorVar, error) {
	return newVariable(name, description, initial, colorCodec, opts...)
}

// NewTrigger creates a TRIGGER property.
func NewTrigger(name, description string, initial Trigger, opts ...Option) (*TriggerVar, error) {
	return newVariable(name, description, initial, triggerCodec, opts...)
}
