package server

import (
	"fmt"
	"net/http"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/masmgr/content-gateway/internal/codec"
)

const (
	docPath = "/doc"
	uiPath  = "/ui"

	apiTitle       = "Content Gateway"
	apiVersion     = "1.0.0"
	openAPIVersion = "3.0.3"
)

func schemaRef(name string) *openapi3.SchemaRef {
	return openapi3.NewSchemaRef("#/components/schemas/"+name, nil)
}

func objectTypeEnum() []any {
	types := codec.ObjectTypes()
	out := make([]any, len(types))
	for i, t := range types {
		out[i] = string(t)
	}
	return out
}

func methodEnum() []any {
	methods := codec.Methods()
	out := make([]any, len(methods))
	for i, m := range methods {
		out[i] = string(m)
	}
	return out
}

// buildDocument describes every route of the table. The branch parameter
// is constrained to the recognized branches.
func (s *Server) buildDocument() *openapi3.T {
	components := openapi3.NewComponents()
	components.Schemas = componentSchemas()
	components.Schemas["Error"] = openapi3.NewSchemaRef("", errorSchema())

	doc := &openapi3.T{
		OpenAPI: openAPIVersion,
		Info: &openapi3.Info{
			Title:       apiTitle,
			Version:     apiVersion,
			Description: fmt.Sprintf("Read-only access to content branches (%s deployment).", s.cfg.Server.Deployment),
		},
		Servers: openapi3.Servers{
			{URL: "http://" + s.cfg.Server.Addr()},
		},
		Paths:      openapi3.NewPaths(),
		Components: &components,
	}

	for _, rt := range s.routes {
		doc.Paths.Set(rt.pattern, &openapi3.PathItem{Get: s.operation(rt)})
	}
	return doc
}

func (s *Server) operation(rt route) *openapi3.Operation {
	var params openapi3.Parameters
	for _, name := range rt.pathParams() {
		p := openapi3.NewPathParameter(name)
		if name == "branch" {
			p = p.WithDescription("Environment branch to read.").WithSchema(s.branchSchema())
		} else {
			p = p.WithSchema(openapi3.NewUUIDSchema())
		}
		params = append(params, &openapi3.ParameterRef{Value: p})
	}
	for _, qp := range rt.query {
		p := openapi3.NewQueryParameter(qp.name).
			WithDescription(qp.description).
			WithRequired(qp.required).
			WithSchema(qp.schema())
		params = append(params, &openapi3.ParameterRef{Value: p})
	}

	return &openapi3.Operation{
		OperationID: rt.operationID,
		Summary:     rt.summary,
		Tags:        []string{rt.tag},
		Parameters:  params,
		Responses:   responses(rt),
	}
}

func (s *Server) branchSchema() *openapi3.Schema {
	recognized := s.resolver.Recognized()
	enum := make([]any, len(recognized))
	for i, b := range recognized {
		enum[i] = b
	}
	return openapi3.NewStringSchema().WithEnum(enum...).WithDefault(s.resolver.Default())
}

// invalidIDNote is appended to the 400 description of routes taking object
// identifiers.
const invalidIDNote = " Identifiers that are not UUIDs are rejected with 400 invalid_request" +
	" before any read; a well-formed identifier absent at the branch yields 404 not_found."

func responses(rt route) *openapi3.Responses {
	r := rt.response
	badRequest := "Invalid query."
	if len(rt.pathParams()) > 1 {
		badRequest = "Invalid identifier or query." + invalidIDNote
	}

	ok := openapi3.NewResponse().WithDescription("OK")
	switch {
	case r.binary:
		ok.WithContent(openapi3.NewContentWithSchema(
			openapi3.NewStringSchema().WithFormat("binary"),
			[]string{"application/octet-stream"},
		))
	case r.list:
		ok.WithJSONSchema(paginatedSchema(r.schema))
	default:
		ok.WithJSONSchemaRef(schemaRef(r.schema))
	}

	errResp := func(desc string) *openapi3.ResponseRef {
		return &openapi3.ResponseRef{Value: openapi3.NewResponse().
			WithDescription(desc).
			WithJSONSchemaRef(schemaRef("Error"))}
	}

	return openapi3.NewResponses(
		openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{Value: ok}),
		openapi3.WithStatus(http.StatusBadRequest, errResp(badRequest)),
		openapi3.WithStatus(http.StatusNotFound, errResp("Branch or object not found")),
		openapi3.WithStatus(http.StatusInternalServerError, errResp("Repository failure")),
	)
}

func paginatedSchema(item string) *openapi3.Schema {
	items := openapi3.NewArraySchema()
	items.Items = schemaRef(item)
	return openapi3.NewObjectSchema().
		WithProperty("total", openapi3.NewIntegerSchema().WithMin(0)).
		WithProperty("page", openapi3.NewIntegerSchema().WithMin(1)).
		WithProperty("limit", openapi3.NewIntegerSchema().WithMin(1)).
		WithProperty("items", items)
}

func errorSchema() *openapi3.Schema {
	detail := openapi3.NewObjectSchema().
		WithProperty("code", openapi3.NewStringSchema().WithEnum(
			CodeBranchNotFound, CodeNotFound, CodeInvalidRequest, CodeInternal, CodeMethodNotAllowed,
		)).
		WithProperty("message", openapi3.NewStringSchema())
	return openapi3.NewObjectSchema().WithProperty("error", detail)
}

func componentSchemas() openapi3.Schemas {
	str := openapi3.NewStringSchema
	id := openapi3.NewUUIDSchema
	when := openapi3.NewDateTimeSchema
	translatable := func() *openapi3.Schema {
		return openapi3.NewObjectSchema().WithAdditionalProperties(openapi3.NewStringSchema())
	}
	singularPlural := func() *openapi3.Schema {
		return openapi3.NewObjectSchema().
			WithProperty("singular", str()).
			WithProperty("plural", str())
	}

	projectSummary := openapi3.NewObjectSchema().
		WithProperty("id", id()).
		WithProperty("name", str()).
		WithProperty("description", str()).
		WithProperty("created", when()).
		WithProperty("updated", when())

	language := openapi3.NewObjectSchema().
		WithProperty("default", str()).
		WithProperty("supported", openapi3.NewArraySchema().WithItems(str()))
	project := openapi3.NewObjectSchema().
		WithProperty("id", id()).
		WithProperty("name", str()).
		WithProperty("description", str()).
		WithProperty("version", str()).
		WithProperty("remoteOriginUrl", str()).
		WithProperty("settings", openapi3.NewObjectSchema().WithProperty("language", language)).
		WithProperty("created", when()).
		WithProperty("updated", when())

	fieldDefinition := openapi3.NewObjectSchema().
		WithProperty("id", id()).
		WithProperty("valueType", str()).
		WithProperty("fieldType", str()).
		WithProperty("label", translatable()).
		WithProperty("isRequired", openapi3.NewBoolSchema()).
		WithProperty("isDisabled", openapi3.NewBoolSchema())
	collection := openapi3.NewObjectSchema().
		WithProperty("id", id()).
		WithProperty("name", singularPlural()).
		WithProperty("slug", singularPlural()).
		WithProperty("description", translatable()).
		WithProperty("icon", str()).
		WithProperty("fieldDefinitions", openapi3.NewArraySchema().WithItems(fieldDefinition)).
		WithProperty("created", when()).
		WithProperty("updated", when())

	value := openapi3.NewObjectSchema().
		WithProperty("fieldDefinitionId", id()).
		WithProperty("valueType", str()).
		WithProperty("content", &openapi3.Schema{})
	entry := openapi3.NewObjectSchema().
		WithProperty("id", id()).
		WithProperty("language", str()).
		WithProperty("values", openapi3.NewArraySchema().WithItems(value)).
		WithProperty("created", when()).
		WithProperty("updated", when())

	asset := openapi3.NewObjectSchema().
		WithProperty("id", id()).
		WithProperty("name", str()).
		WithProperty("description", str()).
		WithProperty("extension", str()).
		WithProperty("mimeType", str()).
		WithProperty("size", openapi3.NewInt64Schema().WithMin(0)).
		WithProperty("created", when()).
		WithProperty("updated", when())

	operation := openapi3.NewObjectSchema().
		WithProperty("method", str().WithEnum(methodEnum()...)).
		WithProperty("objectType", str().WithEnum(objectTypeEnum()...)).
		WithProperty("objectId", str())
	commit := openapi3.NewObjectSchema().
		WithProperty("hash", str()).
		WithProperty("author", openapi3.NewObjectSchema().
			WithProperty("name", str()).
			WithProperty("email", str())).
		WithProperty("datetime", when()).
		WithProperty("tag", str()).
		WithProperty("message", str()).
		WithProperty("operation", operation).
		WithProperty("undecoded", openapi3.NewBoolSchema()).
		WithProperty("reason", str())

	commits := openapi3.NewArraySchema()
	commits.Items = schemaRef("Commit")
	historyPage := openapi3.NewObjectSchema().
		WithProperty("branch", str()).
		WithProperty("limit", openapi3.NewIntegerSchema().WithMin(1)).
		WithProperty("hasMore", openapi3.NewBoolSchema()).
		WithProperty("items", commits)
	changeSet := openapi3.NewObjectSchema().
		WithProperty("base", str()).
		WithProperty("branch", str()).
		WithProperty("items", commits)

	return openapi3.Schemas{
		"ProjectSummary": openapi3.NewSchemaRef("", projectSummary),
		"Project":        openapi3.NewSchemaRef("", project),
		"Collection":     openapi3.NewSchemaRef("", collection),
		"Entry":          openapi3.NewSchemaRef("", entry),
		"Asset":          openapi3.NewSchemaRef("", asset),
		"Commit":         openapi3.NewSchemaRef("", commit),
		"HistoryPage":    openapi3.NewSchemaRef("", historyPage),
		"ChangeSet":      openapi3.NewSchemaRef("", changeSet),
	}
}
