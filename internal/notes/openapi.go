package notes

import "github.com/JaimeStill/delivery-notes/pkg/openapi"

type spec struct {
	List     *openapi.Operation
	Create   *openapi.Operation
	Find     *openapi.Operation
	Update   *openapi.Operation
	Delete   *openapi.Operation
	Download *openapi.Operation
	Preview  *openapi.Operation
}

var Spec = spec{
	List: &openapi.Operation{
		Summary:     "List delivery notes",
		Description: "List delivery notes, optionally restricted to one document",
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("document_id", "string", "Only notes of this document", false),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSONArray("Delivery notes", "DeliveryNote"),
			400: openapi.ResponseRef("BadRequest"),
		},
	},
	Create: &openapi.Operation{
		Summary:     "Create delivery note",
		Description: "Create a manual delivery note. The listed pages must all be free.",
		RequestBody: openapi.RequestBodyJSON("CreateDeliveryNote", true),
		Responses: map[int]*openapi.Response{
			201: openapi.ResponseJSON("Delivery note created", "CreateResult"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
			409: openapi.ResponseRef("Conflict"),
		},
	},
	Find: &openapi.Operation{
		Summary:     "Find delivery note",
		Description: "Find delivery note by ID",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Delivery note ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Delivery note details", "DeliveryNote"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Update: &openapi.Operation{
		Summary:     "Update delivery note",
		Description: "Change optional metadata. Pages, document, names and origin are immutable; null or empty clears a field.",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Delivery note ID"),
		},
		RequestBody: openapi.RequestBodyJSON("UpdateDeliveryNote", true),
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Updated delivery note", "DeliveryNote"),
			400: openapi.ResponseRef("BadRequest"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Delete: &openapi.Operation{
		Summary:     "Delete delivery note",
		Description: "Delete a delivery note and free its pages",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Delivery note ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseJSON("Delivery note deleted", "DeleteResult"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Download: &openapi.Operation{
		Summary:     "Download delivery note",
		Description: "PDF of the note's pages as an attachment",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Delivery note ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseBinary("Delivery note PDF", "application/pdf"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
	Preview: &openapi.Operation{
		Summary:     "Preview delivery note",
		Description: "PDF of the note's pages for inline display",
		Parameters: []*openapi.Parameter{
			openapi.PathParam("id", "Delivery note ID"),
		},
		Responses: map[int]*openapi.Response{
			200: openapi.ResponseBinary("Delivery note PDF", "application/pdf"),
			404: openapi.ResponseRef("NotFound"),
		},
	},
}

func (spec) Schemas() map[string]*openapi.Schema {
	optional := func(desc string) *openapi.Schema {
		return &openapi.Schema{Type: "string", Description: desc}
	}

	return map[string]*openapi.Schema{
		"DeliveryNote": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":                 {Type: "string", Format: "uuid"},
				"documentId":         {Type: "string", Format: "uuid"},
				"displayName":        {Type: "string"},
				"companyName":        {Type: "string"},
				"deliveryDate":       optional("Delivery date as printed"),
				"deliveryNoteNumber": optional("Delivery note number"),
				"shippingId":         optional("Shipping identifier"),
				"customerNumber":     optional("Customer number"),
				"pageNumbers":        {Type: "array", Items: &openapi.Schema{Type: "integer"}},
				"origin":             {Type: "string", Enum: []string{string(OriginManual), string(OriginAI)}},
				"createdAt":          {Type: "string", Format: "date-time"},
			},
		},
		"CreateDeliveryNote": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"documentId":         {Type: "string", Format: "uuid"},
				"displayName":        {Type: "string", Description: "1 to 200 characters"},
				"companyName":        {Type: "string", Description: "2 to 200 characters"},
				"deliveryDate":       optional("Delivery date as printed"),
				"deliveryNoteNumber": optional("Delivery note number"),
				"shippingId":         optional("Shipping identifier"),
				"customerNumber":     optional("Customer number"),
				"pageNumbers":        {Type: "array", Items: &openapi.Schema{Type: "integer"}},
			},
			Required: []string{"documentId", "displayName", "companyName", "pageNumbers"},
		},
		"UpdateDeliveryNote": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"deliveryDate":       optional("Null or empty clears the field"),
				"deliveryNoteNumber": optional("Null or empty clears the field"),
				"shippingId":         optional("Null or empty clears the field"),
				"customerNumber":     optional("Null or empty clears the field"),
			},
		},
		"CreateResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"id":     {Type: "string", Format: "uuid"},
				"status": {Type: "string", Example: "created"},
			},
		},
		"DeleteResult": {
			Type: "object",
			Properties: map[string]*openapi.Schema{
				"success":    {Type: "boolean"},
				"freedPages": {Type: "array", Items: &openapi.Schema{Type: "integer"}},
			},
		},
	}
}
