package rest

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/go-chi/chi"
)

var pathParam = regexp.MustCompile(`\{[^}]+\}`)

// LoadSpec reads and validates the OpenAPI document served at /openapi.yml.
func LoadSpec(ctx context.Context, path string) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load openapi spec: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("validate openapi spec: %w", err)
	}
	return doc, nil
}

func normalizePath(p string) string {
	if len(p) > 1 {
		p = strings.TrimSuffix(p, "/")
	}
	return pathParam.ReplaceAllString(p, "{}")
}

// UndocumentedRoutes lists API routes registered on the router that the document does not
// describe. Paths in the document are relative to APIPrefix.
func UndocumentedRoutes(doc *openapi3.T, router chi.Routes) ([]string, error) {
	documented := make(map[string]bool)
	for path, item := range doc.Paths.Map() {
		for method := range item.Operations() {
			documented[method+" "+normalizePath(APIPrefix+path)] = true
		}
	}

	var missing []string
	err := chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if !strings.HasPrefix(route, APIPrefix) {
			return nil
		}
		key := method + " " + normalizePath(route)
		if !documented[key] {
			missing = append(missing, key)
		}
		return nil
	})
	sort.Strings(missing)
	return missing, err
}
