package contracts

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"strings"

	"propertify-view-service/schemas"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Ключи зарегистрированных схем.
const (
	PageResponseV1 = "PageResponse/1.0.0"
	RecordEventV1  = "RecordEvent/1.0.0"
)

// Корневые каталоги схем и суффиксы их ключей.
var schemaRoots = map[string]string{
	"responses": "Response",
	"events":    "Event",
}

var compiledSchemas map[string]*jsonschema.Schema

func init() {
	compiled, err := compileAll(schemas.SchemasFS)
	if err != nil {
		panic(fmt.Sprintf("contracts: %v", err))
	}
	compiledSchemas = compiled
}

func compileAll(fsys fs.FS) (map[string]*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat = true

	var paths []string
	for root := range schemaRoots {
		err := fs.WalkDir(fsys, root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !strings.HasSuffix(path, ".json") {
				return nil
			}
			file, err := fsys.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()
			// Все схемы добавляются как ресурсы до компиляции, чтобы работали $ref
			if err := compiler.AddResource(path, file); err != nil {
				return fmt.Errorf("failed to add schema resource %s: %w", path, err)
			}
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("error walking schemas in %s: %w", root, err)
		}
	}

	out := make(map[string]*jsonschema.Schema, len(paths))
	for _, path := range paths {
		key := generateKeyFromPath(path)
		if key == "" {
			return nil, fmt.Errorf("unexpected schema path %s", path)
		}
		schema, err := compiler.Compile(path)
		if err != nil {
			return nil, fmt.Errorf("could not compile schema %s: %w", path, err)
		}
		out[key] = schema
	}
	return out, nil
}

// generateKeyFromPath преобразует путь "responses/page/v1.json" в ключ "PageResponse/1.0.0",
// а "events/record-event/v1.json" в "RecordEvent/1.0.0".
func generateKeyFromPath(path string) string {
	parts := strings.Split(strings.TrimSuffix(path, ".json"), "/")
	if len(parts) != 3 {
		return ""
	}
	suffix, ok := schemaRoots[parts[0]]
	if !ok || !strings.HasPrefix(parts[2], "v") {
		return ""
	}

	caser := cases.Title(language.English)
	var name strings.Builder
	for _, p := range strings.Split(parts[1], "-") {
		name.WriteString(caser.String(p))
	}
	if !strings.HasSuffix(name.String(), suffix) {
		name.WriteString(suffix)
	}

	version := strings.TrimPrefix(parts[2], "v") + ".0.0"
	return name.String() + "/" + version
}

// Validate проверяет JSON-документ по зарегистрированной схеме.
func Validate(key string, body []byte) error {
	schema, ok := compiledSchemas[key]
	if !ok {
		return fmt.Errorf("schema %q not found", key)
	}

	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return fmt.Errorf("body is not a valid JSON: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("JSON schema validation failed: %w", err)
	}
	return nil
}
