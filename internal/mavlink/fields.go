package mavlink

import (
	"reflect"
	"strings"

	"github.com/bluenviron/gomavlib/v3/pkg/message"
)

// MessageName derives the MAVLink category tag from a dialect message
// type: MessageGpsRawInt -> GPS_RAW_INT.
func MessageName(msg message.Message) string {
	t := reflect.TypeOf(msg)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	return strings.ToUpper(camelToSnake(strings.TrimPrefix(t.Name(), "Message")))
}

// MessageFields flattens a dialect message struct into the wire field
// mapping, snake_case keys, plain Go scalars/arrays as values. Same
// shape as pymavlink msg.to_dict() minus the mavpackettype entry.
func MessageFields(msg message.Message) map[string]interface{} {
	v := reflect.ValueOf(msg)
	for v.Kind() == reflect.Ptr {
		v = v.Elem()
	}
	if v.Kind() != reflect.Struct {
		return nil
	}
	t := v.Type()
	fields := make(map[string]interface{}, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" { // unexported
			continue
		}
		if fv, ok := fieldValue(v.Field(i)); ok {
			fields[camelToSnake(sf.Name)] = fv
		}
	}
	return fields
}

func fieldValue(v reflect.Value) (interface{}, bool) {
	switch v.Kind() {
	case reflect.Bool:
		return v.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return v.Uint(), true
	case reflect.Float32, reflect.Float64:
		return v.Float(), true
	case reflect.String:
		return v.String(), true
	case reflect.Array, reflect.Slice:
		vs := make([]interface{}, 0, v.Len())
		for i := 0; i < v.Len(); i++ {
			ev, ok := fieldValue(v.Index(i))
			if !ok {
				return nil, false
			}
			vs = append(vs, ev)
		}
		return vs, true
	}
	return nil, false
}

func camelToSnake(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r - 'A' + 'a')
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
