// Package tomlkeys decodes TOML configuration into a flat map of
// normalized dotted keys.
package tomlkeys

import (
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
)

type Store struct {
	flat map[string]any
}

func Decode(data []byte) (Store, error) {
	raw := map[string]any{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return Store{}, err
	}
	return fromRaw(raw), nil
}

func DecodeFile(path string) (Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Store{}, err
	}
	return Decode(data)
}

// fromRaw flattens nested tables. When two spellings normalize to the same
// key, the lexically first one wins.
func fromRaw(raw map[string]any) Store {
	flat := make(map[string]any)
	flattenMap("", raw, flat)

	keys := make([]string, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	normalized := make(map[string]any, len(flat))
	for _, key := range keys {
		normalizedKey := normalizeKey(key)
		if _, exists := normalized[normalizedKey]; exists {
			continue
		}
		normalized[normalizedKey] = flat[key]
	}
	return Store{flat: normalized}
}

// Section merges the top-level keys with the keys of table name, the
// table taking precedence. Keys of other tables are left out.
func (s Store) Section(name string) map[string]any {
	prefix := normalizeKey(name) + "."
	merged := make(map[string]any)
	for key, value := range s.flat {
		if !strings.Contains(key, ".") {
			merged[key] = value
		}
	}
	for key, value := range s.flat {
		if strings.HasPrefix(key, prefix) {
			merged[strings.TrimPrefix(key, prefix)] = value
		}
	}
	return merged
}

// normalizeKey lower-cases key and spells word separators as underscores,
// the form environment variables use.
func normalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return ""
	}
	parts := strings.Split(key, ".")
	for i, part := range parts {
		parts[i] = strings.ReplaceAll(strings.ToLower(part), "-", "_")
	}
	return strings.Join(parts, ".")
}

func flattenMap(prefix string, raw map[string]any, out map[string]any) {
	for key, value := range raw {
		flattenValue(joinKey(prefix, key), value, out)
	}
}

func flattenValue(key string, value any, out map[string]any) {
	switch typed := value.(type) {
	case map[string]any:
		flattenMap(key, typed, out)
	default:
		out[key] = value
	}
}

func joinKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}
