package logger

import (
	"time"

	"github.com/philipp01105/batchlog/core"
)

// String, Int and the other constructors build the fields passed to the
// *w methods and With.

func String(key, val string) core.Field {
	return core.Field{Key: key, Kind: core.StringKind, Str: val}
}

func Int(key string, val int) core.Field {
	return Int64(key, int64(val))
}

func Int64(key string, val int64) core.Field {
	return core.Field{Key: key, Kind: core.IntKind, Num: val}
}

func Float64(key string, val float64) core.Field {
	return core.Field{Key: key, Kind: core.FloatKind, Float: val}
}

func Bool(key string, val bool) core.Field {
	f := core.Field{Key: key, Kind: core.BoolKind}
	if val {
		f.Num = 1
	}
	return f
}

// Time keeps the location of val when rendered.
func Time(key string, val time.Time) core.Field {
	return core.Field{Key: key, Kind: core.TimeKind, Any: val}
}

func Duration(key string, val time.Duration) core.Field {
	return core.Field{Key: key, Kind: core.DurationKind, Num: int64(val)}
}

// Err records err under the key "error". A nil error renders as "".
func Err(err error) core.Field {
	f := core.Field{Key: "error", Kind: core.ErrorKind}
	if err != nil {
		f.Str = err.Error()
	}
	return f
}

func Any(key string, val any) core.Field {
	return core.Field{Key: key, Kind: core.AnyKind, Any: val}
}
