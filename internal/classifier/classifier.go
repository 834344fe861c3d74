// Package classifier turns decoded QR payloads for one scanned image
// into a typed page classification. It is pure: it consults only the
// immutable exam layout snapshot it is built with and never touches
// paper or bundle state; collision detection against already-staged or
// committed pages is the bundle store's job.
package classifier

import (
	"fmt"

	"github.com/paperflow/paperflow-backend/internal/model"
	"github.com/paperflow/paperflow-backend/internal/qr"
)

// Result is a page classification: the status plus whatever position
// data the QR payloads yielded.
type Result struct {
	Status        model.PageStatus
	PaperNumber   int
	PageNumber    int
	Version       int
	ErrorReason   string
	DiscardReason string
}

// Classifier classifies pages against one exam layout snapshot.
type Classifier struct {
	layout model.Layout
}

// New creates a Classifier for the given layout snapshot.
func New(layout model.Layout) *Classifier {
	return &Classifier{layout: layout}
}

// Classify maps the decoded QR corners of one image to a page status.
//
//   - no decodable payload at all            -> UNREAD
//   - corners disagree with each other       -> UNKNOWN
//   - scrap-paper marker                     -> DISCARD
//   - extra-sheet marker                     -> EXTRA (position data
//     assigned later by the operator)
//   - TPV with a foreign public code, or a
//     page/version the layout does not have  -> ERROR
//   - consistent, expected TPV               -> KNOWN
func (c *Classifier) Classify(group model.QRGroup) Result {
	var (
		tpvs    []qr.TPV
		nExtra  int
		nScrap  int
		decoded int
	)

	for _, corner := range group {
		if corner.Raw == "" {
			continue
		}
		pageType, ok := qr.TypeOf(corner.Raw)
		if !ok {
			// Undecodable garbage in one corner: treat the corner as
			// unread rather than failing the whole sheet.
			continue
		}
		decoded++
		switch pageType {
		case qr.PageTypeFixed:
			tpv, err := qr.ParseTPV(corner.Raw)
			if err != nil {
				continue
			}
			tpvs = append(tpvs, tpv)
		case qr.PageTypeExtra:
			nExtra++
		case qr.PageTypeScrap:
			nScrap++
		}
	}

	if decoded == 0 {
		return Result{Status: model.PageStatusUnread}
	}

	// Mixed marker kinds on one sheet means a double-catch or a folded
	// scan; hand it to a human.
	kinds := 0
	for _, n := range []int{len(tpvs), nExtra, nScrap} {
		if n > 0 {
			kinds++
		}
	}
	if kinds > 1 {
		return Result{Status: model.PageStatusUnknown}
	}

	if nScrap > 0 {
		return Result{Status: model.PageStatusDiscard, DiscardReason: "scrap paper"}
	}
	if nExtra > 0 {
		return Result{Status: model.PageStatusExtra}
	}

	// All decoded corners are TPVs; they must agree on paper/page/version.
	first := tpvs[0]
	for _, t := range tpvs[1:] {
		if t.ShortCode() != first.ShortCode() || t.PublicCode != first.PublicCode {
			return Result{Status: model.PageStatusUnknown}
		}
	}

	if first.PublicCode != c.layout.PublicCode {
		return Result{
			Status:      model.PageStatusError,
			ErrorReason: fmt.Sprintf("public code %s does not match this exam (%s)", first.PublicCode, c.layout.PublicCode),
		}
	}
	if !c.layout.HasPage(first.PageNumber) {
		return Result{
			Status:      model.PageStatusError,
			ErrorReason: fmt.Sprintf("page %d is not expected by the exam layout (1-%d)", first.PageNumber, c.layout.Pages),
		}
	}
	if first.Version < 1 || first.Version > c.layout.Versions {
		return Result{
			Status:      model.PageStatusError,
			ErrorReason: fmt.Sprintf("version %d is not expected by the exam layout (1-%d)", first.Version, c.layout.Versions),
		}
	}
	if first.PaperNumber < 1 {
		return Result{
			Status:      model.PageStatusError,
			ErrorReason: fmt.Sprintf("paper number %d is invalid", first.PaperNumber),
		}
	}

	return Result{
		Status:      model.PageStatusKnown,
		PaperNumber: first.PaperNumber,
		PageNumber:  first.PageNumber,
		Version:     first.Version,
	}
}
