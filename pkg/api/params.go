package api

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Params is the untyped parameter set of one invocation. Values are strings,
// integers or booleans; the shell delivers every value as a string and JSON
// transports deliver numbers as float64.
type Params map[string]any

// Has reports whether key is present.
func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// String returns a required string parameter.
func (p Params) String(key string) (string, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return "", missing(key)
	}
	s, ok := v.(string)
	if !ok {
		return "", mistyped(key, "字符串")
	}
	if strings.TrimSpace(s) == "" {
		return "", missing(key)
	}
	return s, nil
}

// StringOr returns an optional string parameter, or def when absent.
func (p Params) StringOr(key, def string) (string, error) {
	if !p.Has(key) {
		return def, nil
	}
	return p.String(key)
}

// Int returns a required integer parameter.
func (p Params) Int(key string) (int, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return 0, missing(key)
	}
	n, ok := toInt(v)
	if !ok {
		return 0, mistyped(key, "整数")
	}
	return n, nil
}

// IntOr returns an optional integer parameter, or def when absent.
func (p Params) IntOr(key string, def int) (int, error) {
	if !p.Has(key) {
		return def, nil
	}
	return p.Int(key)
}

// Bool returns an optional boolean parameter. A bare shell flag arrives as true.
func (p Params) Bool(key string) (bool, error) {
	v, ok := p[key]
	if !ok || v == nil {
		return false, nil
	}
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return false, mistyped(key, "布尔值")
		}
		return parsed, nil
	}
	return false, mistyped(key, "布尔值")
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), int64(int(n)) == n
	case float64:
		// float64(math.MaxInt) rounds up to 2^63, so the upper bound is exclusive.
		if n != math.Trunc(n) || n < math.MinInt || n >= math.MaxInt {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		return int(i), err == nil && int64(int(i)) == i
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	}
	return 0, false
}

func missing(key string) *ToolError {
	return InvalidParameters("需要提供%s参数", key)
}

func mistyped(key, want string) *ToolError {
	return InvalidParameters("参数%s类型错误，需要%s", key, want)
}
