// Package swagger serves the OpenAPI document and its browser UI.
package swagger

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"
)

// ErrServe is returned when the OpenAPI document cannot be built.
var ErrServe = errors.New("swagger serve failed")

// Register attaches the docs routes to r.
//
//	GET /openapi.json -> generated OpenAPI 3 document
//	GET /docs/        -> Swagger UI
func Register(r chi.Router) error {
	spec, err := NewSpec()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServe, err)
	}
	doc, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %w", ErrServe, err)
	}

	r.Get("/openapi.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(doc)
	})
	r.Mount("/docs", v5emb.New("Skins API", "/openapi.json", "/docs"))
	return nil
}
