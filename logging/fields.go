package logging

import (
	"time"

	"go.uber.org/zap"
)

// Field aliases the zap field type so packages logging through this wrapper
// don't need to import zap themselves.
type Field = zap.Field

func String(key, val string) Field {
	return zap.String(key, val)
}

func Int(key string, val int) Field {
	return zap.Int(key, val)
}

func Int64(key string, val int64) Field {
	return zap.Int64(key, val)
}

func Uint64(key string, val uint64) Field {
	return zap.Uint64(key, val)
}

func Bool(key string, val bool) Field {
	return zap.Bool(key, val)
}

func Time(key string, val time.Time) Field {
	return zap.Time(key, val)
}

func Error(err error) Field {
	return zap.Error(err)
}

// Decimal logs any stringer-ish decimal value by its string form, keeping
// exact precision in the output.
func Decimal(key string, val interface{ String() string }) Field {
	return zap.String(key, val.String())
}

// Order fields commonly logged together.

func OrderID(id string) Field {
	return zap.String("order-id", id)
}

func SecurityID(id string) Field {
	return zap.String("security-id", id)
}

func SessionID(id string) Field {
	return zap.String("session-id", id)
}

func PartyID(id string) Field {
	return zap.String("party-id", id)
}
