package config

import (
	"reflect"
	"strings"
)

const envPrefix = "BOOKBOT_"

// envKeys maps the flattened env form of every config key
// ("salon_default_service") to its koanf path ("salon.default_service").
var envKeys = buildEnvKeys(reflect.TypeOf(Config{}), "")

func buildEnvKeys(t reflect.Type, prefix string) map[string]string {
	out := make(map[string]string)
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		tag := f.Tag.Get("koanf")
		if tag == "" || tag == "-" {
			continue
		}
		path := tag
		if prefix != "" {
			path = prefix + "." + tag
		}
		if f.Type.Kind() == reflect.Struct && f.Type.PkgPath() == t.PkgPath() {
			for k, v := range buildEnvKeys(f.Type, path) {
				out[k] = v
			}
			continue
		}
		out[strings.ReplaceAll(path, ".", "_")] = path
	}
	return out
}

// envKey turns BOOKBOT_SALON_DEFAULT_SERVICE into salon.default_service.
// Names that match no known key fall back to one level per underscore.
func envKey(name string) string {
	flat := strings.ToLower(strings.TrimPrefix(name, envPrefix))
	if key, ok := envKeys[flat]; ok {
		return key
	}
	return strings.ReplaceAll(flat, "_", ".")
}
