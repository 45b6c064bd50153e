// Package title computes human-readable default titles for pinned objects.
package title

import (
	"fmt"
	"reflect"
	"strings"
)

// Describer is implemented by values that label themselves in default
// titles, e.g. "3 x 2 DataFrame" or "Model object".
type Describer interface {
	PinDescription() string
}

// shaper matches two-dimensional values such as dataframe.DataFrame.
type shaper interface {
	Dims() (int, int)
}

// Default returns the title used when a caller supplies none.
//
//	Default(df, "prices")  // "prices: a pinned 3 x 2 DataFrame"
//	Default(cfg, "cfg")    // "cfg: a pinned Settings object"
//	Default(cfg, "")       // "A pinned Settings object"
func Default(obj any, pinName string) string {
	return withPrefix(pinName, describe(obj))
}

// ForType returns the title a board records when a write has none. Shaped
// objects report the on-disk format rather than the in-memory type and carry
// no pin prefix; everything else falls back to Default.
//
//	ForType(df, "prices", "csv")   // "A pinned 3 x 2 CSV"
//	ForType(cfg, "cfg", "json")    // "cfg: a pinned Settings object"
func ForType(obj any, pinName, typeID string) string {
	if _, ok := obj.(Describer); !ok {
		if s, ok := obj.(shaper); ok {
			rows, cols := s.Dims()
			return fmt.Sprintf("A pinned %d x %d %s", rows, cols, strings.ToUpper(typeID))
		}
	}
	return Default(obj, pinName)
}

func withPrefix(pinName, desc string) string {
	if pinName == "" {
		return "A pinned " + desc
	}
	return pinName + ": a pinned " + desc
}

func describe(obj any) string {
	switch v := obj.(type) {
	case Describer:
		return v.PinDescription()
	case shaper:
		rows, cols := v.Dims()
		return fmt.Sprintf("%d x %d %s", rows, cols, TypeName(obj))
	}
	return TypeName(obj) + " object"
}

// TypeName returns the short name of obj's type. Pointers are dereferenced
// and unnamed composite types report their kind ("slice", "map").
func TypeName(obj any) string {
	t := reflect.TypeOf(obj)
	if t == nil {
		return "nil"
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if name := t.Name(); name != "" {
		return name
	}
	return t.Kind().String()
}
