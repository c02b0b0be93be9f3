package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Environ returns the process environment as a map
func Environ() map[string]string {
	envs := make(map[string]string)
	for _, env := range os.Environ() {
		if s := strings.Split(env, "="); len(s) > 1 {
			envs[s[0]] = strings.Join(s[1:], "=")
		}
	}
	return envs
}

// ReadFile reads a yaml document of keys and scalar values, nested maps are
// flattened by joining keys with an underscore and keys are upper cased:
//
//	service:
//	  port: 8080
//
// becomes SERVICE_PORT=8080
func ReadFile(path string) (map[string]string, error) {
	var document map[string]any

	bytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(bytes, &document); err != nil {
		return nil, errors.Wrapf(err, "unable to parse config file %s", path)
	}
	envs := make(map[string]string)
	flatten("", document, envs)
	return envs, nil
}

func flatten(prefix string, document map[string]any, envs map[string]string) {
	for key, value := range document {
		key = strings.ToUpper(key)
		if prefix != "" {
			key = prefix + "_" + key
		}
		switch v := value.(type) {
		default:
			envs[key] = fmt.Sprint(v)
		case nil:
			envs[key] = ""
		case map[string]any:
			flatten(key, v, envs)
		case []any:
			items := make([]string, 0, len(v))
			for _, item := range v {
				items = append(items, fmt.Sprint(item))
			}
			envs[key] = strings.Join(items, ",")
		}
	}
}

// Merge returns envs with the values of file added for keys envs doesn't
// have, the environment always wins
func Merge(envs, file map[string]string) map[string]string {
	merged := make(map[string]string, len(envs)+len(file))
	for key, value := range file {
		merged[key] = value
	}
	for key, value := range envs {
		merged[key] = value
	}
	return merged
}

// Load merges the file named by CONFIG_FILE (if any) under envs
func Load(envs map[string]string) (map[string]string, error) {
	path := envs["CONFIG_FILE"]
	if path == "" {
		return Merge(envs, nil), nil
	}
	file, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Merge(envs, file), nil
}
