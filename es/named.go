package es

import (
	"reflect"
	"strings"

	"github.com/iancoleman/strcase"
)

type Named interface {
	TypeName() string
}

// NameOf derives "package:kebab-type" names, e.g. tally.GoalSet becomes "tally:goal-set".
func NameOf(value any) string {
	if named, ok := value.(Named); ok {
		return named.TypeName()
	}

	t := reflect.TypeOf(value)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	split := strings.Split(t.String(), ".")
	segments := make([]string, len(split))
	for i, segment := range split {
		segments[i] = strcase.ToKebab(segment)
	}

	return segments[0] + ":" + strings.Join(segments[1:], "-")
}
