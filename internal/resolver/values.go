package resolver

import (
	"encoding/json"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/timitprog-hue/buildplan/internal/models"
)

var (
	// referencePattern matches dotted toolchain references like flutter.minSdkVersion
	referencePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*$`)

	// namePattern matches signing config and build type names
	namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_-]*$`)

	// customSigningPattern matches the custom(name) form SigningConfig.String renders
	customSigningPattern = regexp.MustCompile(`^custom\(\s*(.*?)\s*\)$`)
)

// toInt converts the numeric shapes produced by the document parsers.
// Floats must be integral and strings must hold a base-10 integer. Any
// integral value that fits an int is accepted; bounds are checked by the
// caller so out-of-range values surface as range errors.
func toInt(v interface{}) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int8:
		return int(n), true
	case int16:
		return int(n), true
	case int32:
		return int(n), true
	case int64:
		if n < math.MinInt || n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case uint8:
		return int(n), true
	case uint16:
		return int(n), true
	case uint32:
		return toInt(uint64(n))
	case uint64:
		if n > math.MaxInt {
			return 0, false
		}
		return int(n), true
	case float32:
		return floatToInt(float64(n))
	case float64:
		return floatToInt(n)
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			f, ferr := n.Float64()
			if ferr != nil {
				return 0, false
			}
			return floatToInt(f)
		}
		return toInt(i)
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}

func floatToInt(f float64) (int, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return 0, false
	}
	if f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, false
	}
	return toInt(int64(f))
}

// referenceName returns the toolchain property v refers to: either an
// explicit {"$ref": name} or, when bare is set, a dotted name string.
func referenceName(v interface{}, bare bool) (string, bool) {
	if name, ok := models.AsReference(v); ok {
		return strings.TrimSpace(name), true
	}
	if !bare {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, referencePattern.MatchString(s)
}

func toBool(field string, v interface{}) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, models.NewValidationError(field, "must be a boolean, got %s", describe(v))
	}
	return b, nil
}

// parseSigningConfig maps "debug", "release" and any other name to a
// SigningConfig. A custom profile may also be written as custom(name).
func parseSigningConfig(field string, v interface{}) (models.SigningConfig, error) {
	name, err := requireString(field, v)
	if err != nil {
		return models.SigningConfig{}, err
	}
	name = strings.TrimSpace(name)

	if m := customSigningPattern.FindStringSubmatch(name); m != nil {
		name = m[1]
		switch name {
		case string(models.SigningDebug), string(models.SigningRelease):
			return models.SigningConfig{}, models.NewValidationError(field, "%q is a built-in signing config, not a custom one", name)
		}
		if !namePattern.MatchString(name) {
			return models.SigningConfig{}, models.NewValidationError(field, "%q is not a valid signing config name", name)
		}
		return models.SigningConfig{Kind: models.SigningCustom, Name: name}, nil
	}

	switch name {
	case "":
		return models.SigningConfig{}, models.NewValidationError(field, "signing config name is empty")
	case string(models.SigningDebug):
		return models.SigningConfig{Kind: models.SigningDebug}, nil
	case string(models.SigningRelease):
		return models.SigningConfig{Kind: models.SigningRelease}, nil
	}

	if !namePattern.MatchString(name) {
		return models.SigningConfig{}, models.NewValidationError(field, "%q is not a valid signing config name", name)
	}
	return models.SigningConfig{Kind: models.SigningCustom, Name: name}, nil
}

// sortedKeys keeps error reporting deterministic across map iteration orders
func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
