package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// The settings map viper hands back is loosely typed: JSON decodes every
// number as float64, YAML produces int or map[interface{}]interface{}
// depending on the document. The helpers below coerce that soup into the
// concrete types Config needs, erring instead of guessing when a value
// makes no sense.

// lookupSetting finds the first of names present in settings, matching
// case-insensitively since viper lowercases file keys.
func lookupSetting(settings map[string]interface{}, names ...string) (interface{}, bool) {
	for _, name := range names {
		for key, val := range settings {
			if strings.EqualFold(key, name) {
				return val, true
			}
		}
	}
	return nil, false
}

// asString renders a scalar setting as text.
func asString(value interface{}) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case fmt.Stringer:
		return v.String(), nil
	}
	return fmt.Sprint(value), nil
}

// asInt accepts the integer spellings JSON and YAML decoding produce, plus
// numeric strings.
func asInt(value interface{}) (int, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case int:
		return v, nil
	case int32:
		return int(v), nil
	case int64:
		return int(v), nil
	case uint64:
		return int(v), nil
	case float64:
		return int(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		return strconv.Atoi(s)
	}
	return 0, fmt.Errorf("cannot read %T as an integer", value)
}

func asFloat64(value interface{}) (float64, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case uint64:
		return float64(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		return strconv.ParseFloat(s, 64)
	}
	return 0, fmt.Errorf("cannot read %T as a number", value)
}

func asBool(value interface{}) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, nil
	case bool:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return false, nil
		}
		return strconv.ParseBool(s)
	}
	return false, fmt.Errorf("cannot read %T as a boolean", value)
}

// asDuration reads either a Go duration string ("1m30s") or a bare number of
// seconds, so {"timeout": 30} and {"timeout": 0.5} both work.
func asDuration(value interface{}) (time.Duration, error) {
	switch v := value.(type) {
	case nil:
		return 0, nil
	case time.Duration:
		return v, nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, nil
		}
		return time.ParseDuration(s)
	}
	secs, err := asFloat64(value)
	if err != nil {
		return 0, fmt.Errorf("cannot read %T as a duration", value)
	}
	return time.Duration(secs * float64(time.Second)), nil
}

// asStringMap flattens a decoded mapping into string pairs. YAML may key
// the map with interface{}; JSON always uses strings.
func asStringMap(value interface{}) (map[string]string, error) {
	if value == nil {
		return nil, nil
	}

	out := map[string]string{}
	put := func(rawKey, rawVal interface{}) error {
		key, err := asString(rawKey)
		if err != nil {
			return err
		}
		if strings.TrimSpace(key) == "" {
			return fmt.Errorf("map entries need a non-empty key")
		}
		val, err := asString(rawVal)
		if err != nil {
			return err
		}
		out[key] = val
		return nil
	}

	switch m := value.(type) {
	case map[string]string:
		for k, v := range m {
			if err := put(k, v); err != nil {
				return nil, err
			}
		}
	case map[string]interface{}:
		for k, v := range m {
			if err := put(k, v); err != nil {
				return nil, err
			}
		}
	case map[interface{}]interface{}:
		for k, v := range m {
			if err := put(k, v); err != nil {
				return nil, err
			}
		}
	default:
		return nil, fmt.Errorf("cannot read %T as a key/value map", value)
	}
	return out, nil
}

// toStringKeyMap normalizes a nested section (like "tracing") to lowercase
// string keys so lookupSetting works inside it.
func toStringKeyMap(value interface{}) (map[string]interface{}, error) {
	out := map[string]interface{}{}
	switch m := value.(type) {
	case map[string]interface{}:
		for k, v := range m {
			out[strings.ToLower(strings.TrimSpace(k))] = v
		}
	case map[interface{}]interface{}:
		for k, v := range m {
			key, err := asString(k)
			if err != nil {
				return nil, err
			}
			out[strings.ToLower(strings.TrimSpace(key))] = v
		}
	default:
		return nil, fmt.Errorf("cannot read %T as a settings section", value)
	}
	return out, nil
}
