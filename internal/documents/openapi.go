package documents

import "github.com/JaimeStill/delivery-notes/pkg/openapi"

type spec struct {
	List   *openapi.Operation
	Upload *openapi.Operation
	Find   *openapi.Operation
	Pages  *openapi.Operation
	Delete *openapi.Operation
}

var Spec = spec{
	List: &openapi.Operation{
		Summary:     "List documents",
		Description: "List uploaded documents with pagination and optional filters",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("page", "integer", "Page number", false),
			openapi.QueryParam("pageSize", "integer", "Items per page", false),
			openapi.QueryParam("search", "string", "Search in original filename", false),
			openapi.QueryParam("sort", "string", "Comma-separated fields, prefix with - for descending", false),
			openapi.QueryParam("fileHash", "string", "Filter by content hash", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Documents list", "DocumentPageResult"),
		},
	},
	Upload: &openapi.Operation{
		Summary:     "Upload document",
		Description: "Upload a single PDF. Identical bytes share storage but always create a new document.",
		RequestBody: openapi.RequestBodyMultipart("file", false),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Document uploaded", "Document"),
			400: openapi.ResponseRef("BadRequest"),
			413: {Description: "File too large"},
			415: {Description: "File is not a PDF"},
			422: openapi.ResponseRef("Unprocessable"),
		},
	},
	Find: &openapi.Operation{
		Summary:     "Find document",
		Description: "Find document by ID",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Document details", "Document"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Pages: &openapi.Operation{
		Summary:     "List document pages",
		Description: "Allocation state of every page of the document",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSONArray("Pages", "DocumentPage"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Delete: &openapi.Operation{
		Summary:     "Delete document",
		Description: "Delete a document. Fails while delivery notes reference it unless cascade is set.",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Document ID"),
			openapi.QueryParam("cascade", "boolean", "Also delete the document's delivery notes", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Document deleted", "DocumentDeleteResult"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	return map[string]*openapi.Schema{
		"Document": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":               {Type: "string", Format: "uuid"},
				"originalFilename": {Type: "string", Description: "Sanitised upload filename"},
				"uploadDate":       {Type: "string", Format: "date-time"},
				"fileHash":         {Type: "string", Description: "SHA-256 of the file bytes"},
				"pageCount":        {Type: "integer"},
			},
		},
		"DocumentPageResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"data":       {Type: "array", Items: openapi.SchemaRef("Document")},
				"total":      {Type: "integer"},
				"page":       {Type: "integer"},
				"pageSize":   {Type: "integer"},
				"totalPages": {Type: "integer"},
			},
		},
		"DocumentPage": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"pageNumber":  {Type: "integer"},
				"isAllocated": {Type: "boolean"},
				"allocatedTo": {Type: "string", Format: "uuid", Description: "Owning delivery note"},
			},
		},
		"DocumentDeleteResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"success":      {Type: "boolean"},
				"deletedNotes": {Type: "integer"},
			},
		},
	}
}
