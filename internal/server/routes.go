package server

import (
	"regexp"

	"github.com/getkin/kin-openapi/openapi3"
)

// response describes what a route returns.
type response struct {
	schema string // component schema name
	list   bool   // wrapped in a paginated list
	binary bool   // raw payload instead of JSON
}

type queryParam struct {
	name        string
	description string
	required    bool
	schema      func() *openapi3.Schema
}

// route is one read endpoint below /{branch}. The router and the API
// document are both generated from the table.
type route struct {
	pattern     string
	operationID string
	summary     string
	tag         string
	query       []queryParam
	response    response
	handle      func(*request) (any, error)
}

var pathParamRe = regexp.MustCompile(`\{(\w+)\}`)

// pathParams returns the parameter names of the pattern in order.
func (rt route) pathParams() []string {
	var names []string
	for _, m := range pathParamRe.FindAllStringSubmatch(rt.pattern, -1) {
		names = append(names, m[1])
	}
	return names
}

var pageParams = []queryParam{
	{name: "page", description: "Page number, starting at 1.", schema: func() *openapi3.Schema {
		return openapi3.NewIntegerSchema().WithMin(1).WithDefault(1)
	}},
	{name: "limit", description: "Items per page.", schema: func() *openapi3.Schema {
		return openapi3.NewIntegerSchema().WithMin(1)
	}},
}

func withPaging(extra ...queryParam) []queryParam {
	return append(append([]queryParam(nil), pageParams...), extra...)
}

const (
	projectBase    = "/{branch}/projects/{projectId}"
	collectionBase = projectBase + "/collections/{collectionId}"
)

func routeTable() []route {
	return []route{
		{
			pattern:     "/{branch}/projects",
			operationID: "listProjects",
			summary:     "List projects",
			tag:         "projects",
			query:       withPaging(),
			response:    response{schema: "ProjectSummary", list: true},
			handle:      handleListProjects,
		},
		{
			pattern:     projectBase,
			operationID: "readProject",
			summary:     "Read a project",
			tag:         "projects",
			response:    response{schema: "Project"},
			handle:      handleReadProject,
		},
		{
			pattern:     projectBase + "/collections",
			operationID: "listCollections",
			summary:     "List collections of a project",
			tag:         "collections",
			query:       withPaging(),
			response:    response{schema: "Collection", list: true},
			handle:      handleListCollections,
		},
		{
			pattern:     collectionBase,
			operationID: "readCollection",
			summary:     "Read a collection",
			tag:         "collections",
			response:    response{schema: "Collection"},
			handle:      handleReadCollection,
		},
		{
			pattern:     collectionBase + "/entries",
			operationID: "listEntries",
			summary:     "List entries of a collection",
			tag:         "entries",
			query: withPaging(queryParam{
				name:        "language",
				description: "Only return entries in this language.",
				schema:      openapi3.NewStringSchema,
			}),
			response: response{schema: "Entry", list: true},
			handle:   handleListEntries,
		},
		{
			pattern:     collectionBase + "/entries/{entryId}",
			operationID: "readEntry",
			summary:     "Read an entry",
			tag:         "entries",
			response:    response{schema: "Entry"},
			handle:      handleReadEntry,
		},
		{
			pattern:     projectBase + "/assets",
			operationID: "listAssets",
			summary:     "List assets of a project",
			tag:         "assets",
			query:       withPaging(),
			response:    response{schema: "Asset", list: true},
			handle:      handleListAssets,
		},
		{
			pattern:     projectBase + "/assets/{assetId}",
			operationID: "readAsset",
			summary:     "Read asset metadata",
			tag:         "assets",
			response:    response{schema: "Asset"},
			handle:      handleReadAsset,
		},
		{
			pattern:     projectBase + "/assets/{assetId}/content",
			operationID: "readAssetContent",
			summary:     "Download an asset payload",
			tag:         "assets",
			response:    response{binary: true},
			handle:      handleReadAssetContent,
		},
		{
			pattern:     projectBase + "/history",
			operationID: "readHistory",
			summary:     "Read the newest commits touching a project or one of its objects",
			tag:         "history",
			query: []queryParam{
				{name: "limit", description: "Maximum number of commits.", schema: func() *openapi3.Schema {
					return openapi3.NewIntegerSchema().WithMin(1)
				}},
				{name: "objectType", description: "Scope to one object type.", schema: func() *openapi3.Schema {
					return openapi3.NewStringSchema().WithEnum(objectTypeEnum()...)
				}},
				{name: "objectId", description: "Scope to one object; requires objectType.", schema: openapi3.NewUUIDSchema},
			},
			response: response{schema: "HistoryPage"},
			handle:   handleHistory,
		},
		{
			pattern:     projectBase + "/changes",
			operationID: "readChanges",
			summary:     "Preview the commits a synchronize from base would apply",
			tag:         "history",
			query: []queryParam{
				{name: "base", description: "Branch the changes are compared against.", required: true, schema: openapi3.NewStringSchema},
			},
			response: response{schema: "ChangeSet"},
			handle:   handleChanges,
		},
	}
}
