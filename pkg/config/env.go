package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cuthie/Data-Science-Portfolio/pkg/core"
)

// env reads typed environment variables and keeps the first parse error.
type env struct {
	err error
}

func (e *env) fail(key, value, want string) {
	if e.err == nil {
		e.err = core.ConfigError("config", "%s=%q is not %s", key, value, want)
	}
}

func (e *env) str(key, defaultValue string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	return value
}

func (e *env) int(key string, defaultValue int) int {
	value := e.str(key, "")
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		e.fail(key, value, "an integer")
		return defaultValue
	}
	return n
}

func (e *env) float(key string, defaultValue float64) float64 {
	value := e.str(key, "")
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		e.fail(key, value, "a number")
		return defaultValue
	}
	return f
}

func (e *env) bool(key string, defaultValue bool) bool {
	value := e.str(key, "")
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		e.fail(key, value, "a boolean")
		return defaultValue
	}
	return b
}

func (e *env) date(key string, defaultValue time.Time) time.Time {
	value := e.str(key, "")
	if value == "" {
		return defaultValue
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		e.fail(key, value, "a YYYY-MM-DD date")
		return defaultValue
	}
	return t
}

// strings splits a comma-separated value and trims each item.
func (e *env) strings(key string, defaultValue []string) []string {
	value := e.str(key, "")
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}

func (e *env) floats(key string, defaultValue []float64) []float64 {
	items := e.strings(key, nil)
	if items == nil {
		return defaultValue
	}
	out := make([]float64, len(items))
	for i, item := range items {
		f, err := strconv.ParseFloat(item, 64)
		if err != nil {
			e.fail(key, item, "a number")
			return defaultValue
		}
		out[i] = f
	}
	return out
}

func (e *env) ints(key string, defaultValue []int) []int {
	items := e.strings(key, nil)
	if items == nil {
		return defaultValue
	}
	out := make([]int, len(items))
	for i, item := range items {
		n, err := strconv.Atoi(item)
		if err != nil {
			e.fail(key, item, "an integer")
			return defaultValue
		}
		out[i] = n
	}
	return out
}
