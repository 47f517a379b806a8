package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	pkgerrors "github.com/RodgersChayuga/hekaheka-backend/pkg/errors"
)

func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be numeric").WithDetails(map[string]any{"field": key})
	}
	if value < min || value > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter out of range").WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return value, nil
}

// ParsePathUint64 reads a numeric url segment such as a token or listing id.
func ParsePathUint64(raw, field string) (uint64, error) {
	value, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "path parameter must be a non-negative integer").WithDetails(map[string]any{"field": field})
	}
	return value, nil
}

// ParseQueryAddress reads an optional hex address query parameter.
func ParseQueryAddress(r *http.Request, key string) (string, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return "", nil
	}
	if !common.IsHexAddress(raw) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "query parameter must be a hex address").WithDetails(map[string]any{"field": key})
	}
	return common.HexToAddress(raw).Hex(), nil
}
