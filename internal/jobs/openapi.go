package jobs

import "github.com/JaimeStill/delivery-notes/pkg/openapi"

type spec struct {
	BatchProcess *openapi.Operation
	Find         *openapi.Operation
}

var Spec = spec{
	BatchProcess: &openapi.Operation{
		Summary:     "Process documents",
		Description: "Upload PDFs and stream extraction progress as server-sent events (data: <json> frames)",
		RequestBody: openapi.RequestBodyMultipart(UploadField, true),
		Responses: map[int]*openapi.Response{
			200: {
				Description: "Progress event stream",
				Content: map[string]*openapi.MediaType{
					"text/event-stream": {Schema: openapi.SchemaRef("JobEvent")},
				},
			},
			400: openapi.ResponseRef("BadRequest"),
			413: {Description: "File or batch too large"},
			415: {Description: "File is not a PDF"},
			503: {Description: "Extractor unavailable"},
		},
	},
	Find: &openapi.Operation{
		Summary:     "Find job",
		Description: "Persisted record of a batch job",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Job ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Job record", "Job"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	statuses := []string{
		string(StatusQueued),
		string(StatusAnalyzing),
		string(StatusProcessingFile),
		string(StatusCompleted),
		string(StatusWarning),
		string(StatusError),
	}

	return map[string]*openapi.Schema{
		"Job": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":           {Type: "string", Format: "uuid"},
				"status":       {Type: "string", Enum: statuses},
				"totalFiles":   {Type: "integer"},
				"totalPages":   {Type: "integer"},
				"progress":     {Type: "integer"},
				"notesCreated": {Type: "integer"},
				"warnings":     {Type: "integer"},
				"message":      {Type: "string"},
				"createdAt":    {Type: "string", Format: "date-time"},
				"finishedAt":   {Type: "string", Format: "date-time"},
			},
		},
		"JobEvent": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"job_id":        {Type: "string", Format: "uuid"},
				"status":        {Type: "string", Enum: statuses},
				"current_file":  {Type: "string"},
				"file_index":    {Type: "integer", Description: "1-based, submission order"},
				"total_files":   {Type: "integer"},
				"page":          {Type: "integer"},
				"total_pages":   {Type: "integer"},
				"progress":      {Type: "integer", Description: "0 to 100, never decreases"},
				"message":       {Type: "string"},
				"notes_created": {Type: "integer"},
			},
		},
	}
}
