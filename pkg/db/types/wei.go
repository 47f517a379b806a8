package dbtypes

import (
	"database/sql/driver"
	"fmt"
	"math/big"
)

// Wei stores a wei amount in a numeric(78,0) column, wide enough for
// any uint256 value.
type Wei struct {
	big.Int
}

// NewWei copies v into a Wei column value. A nil v becomes zero.
func NewWei(v *big.Int) Wei {
	var w Wei
	if v != nil {
		w.Set(v)
	}
	return w
}

// BigInt returns a copy of the stored amount.
func (w *Wei) BigInt() *big.Int {
	return new(big.Int).Set(&w.Int)
}

func (w *Wei) Scan(src any) error {
	if src == nil {
		w.SetInt64(0)
		return nil
	}

	switch v := src.(type) {
	case string:
		return w.parseFromString(v)
	case []byte:
		return w.parseFromString(string(v))
	case int64:
		w.SetInt64(v)
		return nil
	default:
		return fmt.Errorf("Wei: unsupported Scan type %T", src)
	}
}

func (w Wei) Value() (driver.Value, error) {
	return w.String(), nil
}

func (w *Wei) parseFromString(value string) error {
	if value == "" {
		w.SetInt64(0)
		return nil
	}
	if _, ok := w.SetString(value, 10); !ok {
		return fmt.Errorf("Wei: invalid decimal %q", value)
	}
	return nil
}

// GormDataType tells the migrator which column type to use.
func (Wei) GormDataType() string {
	return "numeric(78,0)"
}
