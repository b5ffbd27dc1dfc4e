package logger

import (
	"time"

	"github.com/rs/zerolog"
)

type fieldKind uint8

const (
	kindString fieldKind = iota
	kindInt
	kindFloat
	kindBool
	kindError
	kindAny
)

// Field is one structured key/value attached to an event.
type Field struct {
	key  string
	kind fieldKind
	str  string
	num  int64
	flt  float64
	any  interface{}
}

func (f Field) AddTo(ev *zerolog.Event) {
	switch f.kind {
	case kindString:
		ev.Str(f.key, f.str)
	case kindInt:
		ev.Int64(f.key, f.num)
	case kindFloat:
		ev.Float64(f.key, f.flt)
	case kindBool:
		ev.Bool(f.key, f.num != 0)
	case kindError:
		if err, _ := f.any.(error); err != nil {
			ev.AnErr(f.key, err)
		}
	default:
		ev.Interface(f.key, f.any)
	}
}

// GetKeyValue returns the field as a plain value for aggregation.
func (f Field) GetKeyValue() (string, interface{}) {
	switch f.kind {
	case kindString:
		return f.key, f.str
	case kindInt:
		return f.key, f.num
	case kindFloat:
		return f.key, f.flt
	case kindBool:
		return f.key, f.num != 0
	case kindError:
		if err, _ := f.any.(error); err != nil {
			return f.key, err.Error()
		}
		return f.key, nil
	default:
		return f.key, f.any
	}
}

func String(key, value string) Field         { return Field{key: key, kind: kindString, str: value} }
func Int(key string, value int) Field         { return Field{key: key, kind: kindInt, num: int64(value)} }
func Int64(key string, value int64) Field     { return Field{key: key, kind: kindInt, num: value} }
func Float(key string, value float64) Field   { return Field{key: key, kind: kindFloat, flt: value} }
func Any(key string, value interface{}) Field { return Field{key: key, kind: kindAny, any: value} }

func Bool(key string, value bool) Field {
	f := Field{key: key, kind: kindBool}
	if value {
		f.num = 1
	}
	return f
}

// Error logs err under "error". A nil error adds nothing.
func Error(err error) Field { return Field{key: "error", kind: kindError, any: err} }

// Duration is logged in whole milliseconds.
func Duration(key string, value time.Duration) Field {
	return Field{key: key, kind: kindInt, num: value.Milliseconds()}
}
