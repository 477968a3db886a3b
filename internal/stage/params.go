package stage

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/gocty"
)

// ErrInvalidParams is returned when a parameter bundle does not fit a stage.
var ErrInvalidParams = errors.New("invalid stage parameters")

// Params is a stage's parameter bundle, keyed by parameter name.
type Params map[string]cty.Value

// Names returns the parameter names in sorted order.
func (p Params) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Decode copies the bundle into the exported fields of target tagged with
// `param:"name"`. Fields without a matching parameter keep their current
// value, so callers set defaults before decoding. Parameters with no matching
// field are an error.
func (p Params) Decode(target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("%w: decode target must be a pointer to a struct, got %T", ErrInvalidParams, target)
	}
	structVal := rv.Elem()
	structType := structVal.Type()

	fields := make(map[string]reflect.Value)
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)
		if !field.IsExported() {
			continue
		}
		tagName := strings.Split(field.Tag.Get("param"), ",")[0]
		if tagName != "" && tagName != "-" {
			fields[tagName] = structVal.Field(i)
		}
	}

	var errs []string
	for _, name := range p.Names() {
		fieldVal, ok := fields[name]
		if !ok {
			errs = append(errs, fmt.Sprintf("unknown parameter '%s'", name))
			continue
		}
		val := p[name]
		if val.IsNull() {
			continue
		}
		if err := gocty.FromCtyValue(val, fieldVal.Addr().Interface()); err != nil {
			errs = append(errs, fmt.Sprintf("parameter '%s': %v", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w:\n- %s", ErrInvalidParams, strings.Join(errs, "\n- "))
	}
	return nil
}
