// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"encoding/json"

	"github.com/getkin/kin-openapi/openapi3"

	simerrors "github.com/accasim-go/accasim/pkg/errors"
)

// documentSchema describes the top-level shape every system config
// document must satisfy before Parse attempts the order-preserving tuple
// decode in systemconfig.go. This is a structural check (field names,
// types); the factory's own core/mem presence check in §4.3 is semantic
// and cannot be expressed here, since "groups" may validly be either a
// tuple-encoded array or a plain object.
var documentSchema = buildDocumentSchema()

func buildDocumentSchema() *openapi3.Schema {
	tupleSchema := openapi3.NewObjectSchema().
		WithProperty("__tuple__", openapi3.NewBoolSchema()).
		WithProperty("items", openapi3.NewArraySchema())

	groupsSchema := openapi3.NewAnyOfSchema(
		openapi3.NewObjectSchema(),
		tupleSchema,
	)

	resourcesSchema := openapi3.NewOneOfSchema(
		openapi3.NewArraySchema().WithItems(openapi3.NewStringSchema()),
		tupleSchema,
	)

	doc := openapi3.NewObjectSchema().
		WithProperty("node_prefix", openapi3.NewStringSchema()).
		WithProperty("scheduling_output_format", openapi3.NewStringSchema()).
		WithProperty("pretty_print_format", openapi3.NewStringSchema()).
		WithProperty("pretty_print_header", openapi3.NewStringSchema()).
		WithProperty("low_watermark", openapi3.NewIntegerSchema())
	doc.Properties["groups"] = openapi3.NewSchemaRef("", groupsSchema)
	doc.Properties["resources"] = openapi3.NewSchemaRef("", resourcesSchema)
	doc.Required = []string{"groups", "resources"}
	return doc
}

// ValidateSchema checks data against documentSchema before any
// order-preserving decoding happens, raising §7's "Configuration fatal"
// kind for a structurally malformed document (wrong field types, missing
// groups/resources) — distinct from the Job Factory's later semantic
// check that core/mem are actually present among the decoded resources.
func ValidateSchema(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return simerrors.NewConfigError(simerrors.ErrorCodeInvalidConfig, "system config is not valid JSON", err.Error())
	}
	if err := documentSchema.VisitJSON(v); err != nil {
		return simerrors.NewConfigError(simerrors.ErrorCodeInvalidConfig, "system config failed schema validation", err.Error())
	}
	return nil
}
