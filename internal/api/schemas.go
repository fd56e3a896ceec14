package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"
)

// Schema IDs for each request body.
const (
	schemaLogin              = "login"
	schemaVerify             = "verify"
	schemaRequestKey         = "request_key"
	schemaCreateControllable = "create_controllable"
	schemaGetControllable    = "get_controllable"
	schemaInitialize         = "initialize"
	schemaConnect            = "connect_controllable"
	schemaDeviceKey          = "device_key"
)

// nonEmpty is the property definition shared by every string field.
const nonEmpty = `{"type": "string", "minLength": 1}`

// bodySchemas lists the required string fields of each request body.
var bodySchemas = map[string][]string{
	schemaLogin:              {"email"},
	schemaVerify:             {"id", "token"},
	schemaRequestKey:         {"name"},
	schemaCreateControllable: {"device_id", "name", "category"},
	schemaGetControllable:    {"device_id", "name"},
	schemaInitialize:         {"device_key", "device_pass"},
	schemaConnect:            {"controllable_name", "device_key", "device_pass"},
	schemaDeviceKey:          {"device_key"},
}

// errBodyInvalid is returned by decodeBody for any malformed body.
var errBodyInvalid = errors.New("api: request body not complete")

// compiledSchemas holds the compiled validators keyed by schema ID.
var compiledSchemas = mustCompileSchemas(bodySchemas)

// buildSchema renders a JSON schema requiring every field as a non-empty
// string. Additional properties are allowed.
func buildSchema(fields []string) string {
	props := make([]string, 0, len(fields))
	required := make([]string, 0, len(fields))
	for _, f := range fields {
		props = append(props, fmt.Sprintf("%q: %s", f, nonEmpty))
		required = append(required, fmt.Sprintf("%q", f))
	}
	return fmt.Sprintf(`{
		"$schema": "http://json-schema.org/draft-07/schema#",
		"type": "object",
		"properties": {%s},
		"required": [%s]
	}`, strings.Join(props, ", "), strings.Join(required, ", "))
}

func mustCompileSchemas(defs map[string][]string) map[string]*gojsonschema.Schema {
	out := make(map[string]*gojsonschema.Schema, len(defs))
	for id, fields := range defs {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(buildSchema(fields)))
		if err != nil {
			panic(fmt.Sprintf("compiling schema %s: %v", id, err))
		}
		out[id] = schema
	}
	return out
}

// validateBody checks raw JSON against the named schema.
func validateBody(schemaID string, body []byte) error {
	schema, ok := compiledSchemas[schemaID]
	if !ok {
		return fmt.Errorf("unknown schema %s", schemaID)
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", errBodyInvalid, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return fmt.Errorf("%w: %s", errBodyInvalid, strings.Join(msgs, "; "))
	}
	return nil
}

// decodeBody reads the request body, validates it against schemaID and
// unmarshals it into dst. On failure it writes a 002 response and returns
// false.
func decodeBody(w http.ResponseWriter, r *http.Request, schemaID string, dst any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBodyIncomplete, "request body not complete")
		return false
	}
	if err := validateBody(schemaID, body); err != nil {
		writeError(w, http.StatusBadRequest, CodeBodyIncomplete, "request body not complete")
		return false
	}
	if err := json.Unmarshal(body, dst); err != nil {
		writeError(w, http.StatusBadRequest, CodeBodyIncomplete, "request body not complete")
		return false
	}
	return true
}
