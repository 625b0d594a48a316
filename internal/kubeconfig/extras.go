package kubeconfig

import (
	"encoding/json"
	"reflect"
	"strings"
)

// extras holds the raw value of every key a type does not model.
// It is never mutated after decoding, so copies may share it.
type extras map[string]json.RawMessage

// knownKeys lists the json names of the tagged fields of v
func knownKeys(v interface{}) map[string]bool {
	t := reflect.TypeOf(v)
	keys := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name := strings.Split(t.Field(i).Tag.Get("json"), ",")[0]
		if name != "" && name != "-" {
			keys[name] = true
		}
	}
	return keys
}

// decodeWithExtras decodes data into into and returns the keys it skipped
func decodeWithExtras(data []byte, into interface{}, known map[string]bool) (extras, error) {
	if err := json.Unmarshal(data, into); err != nil {
		return nil, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}

	var rest extras
	for key, raw := range all {
		if known[key] {
			continue
		}
		if rest == nil {
			rest = extras{}
		}
		rest[key] = raw
	}
	return rest, nil
}

// encodeWithExtras encodes v and merges rest back in.
// Modeled fields win over a stale extra of the same name.
func encodeWithExtras(v interface{}, rest extras) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil || len(rest) == 0 {
		return data, err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for key, raw := range rest {
		if _, ok := all[key]; !ok {
			all[key] = raw
		}
	}
	return json.Marshal(all)
}
