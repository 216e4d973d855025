package extractor

import "fmt"

// PromptVersion is folded into cache keys so that prompt changes invalidate
// cached classifications.
const PromptVersion = "v1"

const systemPrompt = `You analyse single pages of scanned Danish delivery notes (følgesedler).
A scanned document may contain several delivery notes, each spanning one or more pages.

Decide the role of the page:
- "start": the first page of a delivery note. It usually carries a header with the
  supplier name, a delivery note number and a date.
- "continuation": a later page of the same delivery note (item lists, totals,
  "side 2 af 3" markers, signatures).
- "unknown": you cannot tell.

Extract these fields when they are printed on the page, otherwise leave them empty:
deliveryNoteNumber, companyName (the supplier), deliveryDate, shippingId, customerNumber.

Respond with JSON only, no prose:
{"role": "start|continuation|unknown", "confidence": 0.0-1.0, "fields": {"deliveryNoteNumber": "", "companyName": "", "deliveryDate": "", "shippingId": "", "customerNumber": ""}}`

func userPrompt(req Request) string {
	if req.Image != nil {
		return fmt.Sprintf("Classify page %d of this document.", req.Page)
	}
	return fmt.Sprintf("Classify page %d of this document. The page text is:\n\n%s", req.Page, req.Text)
}
