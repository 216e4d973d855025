// Package segmentation partitions the pages of a document into delivery
// notes from per-page classifications.
package segmentation

import (
	"strconv"

	"github.com/JaimeStill/delivery-notes/internal/extractor"
)

// DisplayNamePrefix precedes the start page number when a note has no
// delivery note number to be named after.
const DisplayNamePrefix = "Følgeseddel "

// Segment is a planned delivery note.
type Segment struct {
	Pages       []int
	DisplayName string
	Fields      extractor.Fields
	// Known is false for the leading segment opened on a first page that
	// was not classified as a start.
	Known bool
}

// StartPage returns the first page of the segment.
func (s Segment) StartPage() int {
	return s.Pages[0]
}

// Plan scans pages 1..pageCount in order. Every start page opens a new
// segment; continuation and unknown pages attach to the open one. When page
// 1 is not a start, a segment without metadata opens there. Pages absent
// from classifications count as unknown.
func Plan(pageCount int, classifications []extractor.Classification) []Segment {
	if pageCount <= 0 {
		return []Segment{}
	}

	byPage := make(map[int]extractor.Classification, len(classifications))
	for _, c := range classifications {
		if c.Page >= 1 && c.Page <= pageCount {
			byPage[c.Page] = c
		}
	}

	segments := make([]Segment, 0)
	var open *Segment

	for page := 1; page <= pageCount; page++ {
		c, ok := byPage[page]
		if !ok {
			c = extractor.Unknown(page)
		}

		switch {
		case c.Role == extractor.RoleStart:
			segments = append(segments, Segment{
				Pages:  []int{page},
				Fields: c.Fields,
				Known:  true,
			})
			open = &segments[len(segments)-1]
		case open == nil:
			segments = append(segments, Segment{Pages: []int{page}})
			open = &segments[len(segments)-1]
		default:
			open.Pages = append(open.Pages, page)
			if open.Known {
				open.Fields = open.Fields.Fill(c.Fields)
			}
		}
	}

	for i := range segments {
		segments[i].DisplayName = displayName(segments[i])
	}
	return segments
}

func displayName(s Segment) string {
	if s.Fields.DeliveryNoteNumber != "" {
		return s.Fields.DeliveryNoteNumber
	}
	return DisplayNamePrefix + strconv.Itoa(s.StartPage())
}
