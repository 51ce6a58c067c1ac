package api

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

var (
	batchSchema    = mustCompile("schemas/batch.json")
	generateSchema = mustCompile("schemas/generate.json")
)

func mustCompile(name string) *jsonschema.Schema {
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("api: reading schema %s: %v", name, err))
	}
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft2020
	if err := c.AddResource(name, bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("api: adding schema %s: %v", name, err))
	}
	return c.MustCompile(name)
}

// decodeBody validates the JSON body against schema and decodes it into dst.
// An empty body is accepted when allowEmpty is set and leaves dst untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, schema *jsonschema.Schema, dst any, allowEmpty bool) error {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading body: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		if allowEmpty {
			return nil
		}
		return errors.New("empty body")
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decoding body: %w", err)
	}
	return nil
}
