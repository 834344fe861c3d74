package classifier

import (
	"testing"

	"github.com/paperflow/paperflow-backend/internal/model"
)

func testLayout() model.Layout {
	return model.Layout{
		Name:       "midterm",
		PublicCode: "93849",
		Pages:      6,
		IDPage:     1,
		DNMPages:   []int{2},
		Versions:   2,
		Questions: []model.QuestionLayout{
			{Idx: 1, Label: "Q1", Pages: []int{3, 4}, Marks: 10},
			{Idx: 2, Label: "Q2", Pages: []int{5, 6}, Marks: 10},
		},
	}
}

// tpv builds the four-corner QR group of a cleanly scanned fixed page.
func tpvGroup(paper, page, version int, publicCode string) model.QRGroup {
	enc := func(corner int) string {
		return sprintf17(paper, page, version, corner, publicCode)
	}
	return model.QRGroup{
		"NE": {Raw: enc(1), X: 2204, Y: 280},
		"NW": {Raw: enc(2), X: 230, Y: 280},
		"SW": {Raw: enc(3), X: 230, Y: 2908},
	}
}

func sprintf17(paper, page, version, corner int, publicCode string) string {
	const digits = "0123456789"
	pad := func(n, w int) string {
		s := ""
		for i := 0; i < w; i++ {
			s = string(digits[n%10]) + s
			n /= 10
		}
		return s
	}
	return pad(paper, 5) + pad(page, 3) + pad(version, 3) + pad(corner, 1) + publicCode
}

func TestClassifyKnown(t *testing.T) {
	c := New(testLayout())
	res := c.Classify(tpvGroup(7, 3, 1, "93849"))
	if res.Status != model.PageStatusKnown {
		t.Fatalf("status = %s, want KNOWN (%s)", res.Status, res.ErrorReason)
	}
	if res.PaperNumber != 7 || res.PageNumber != 3 || res.Version != 1 {
		t.Errorf("got paper=%d page=%d version=%d", res.PaperNumber, res.PageNumber, res.Version)
	}
}

func TestClassifyUnread(t *testing.T) {
	c := New(testLayout())
	if res := c.Classify(model.QRGroup{}); res.Status != model.PageStatusUnread {
		t.Errorf("empty group: status = %s, want UNREAD", res.Status)
	}
	garbage := model.QRGroup{"NE": {Raw: "not-a-code"}}
	if res := c.Classify(garbage); res.Status != model.PageStatusUnread {
		t.Errorf("garbage only: status = %s, want UNREAD", res.Status)
	}
}

func TestClassifyExtraAndScrap(t *testing.T) {
	c := New(testLayout())
	extra := model.QRGroup{"SE": {Raw: "plomX4"}, "NE": {Raw: "plomX1"}}
	if res := c.Classify(extra); res.Status != model.PageStatusExtra {
		t.Errorf("extra: status = %s, want EXTRA", res.Status)
	}
	scrap := model.QRGroup{"SE": {Raw: "plomS4"}}
	res := c.Classify(scrap)
	if res.Status != model.PageStatusDiscard {
		t.Errorf("scrap: status = %s, want DISCARD", res.Status)
	}
	if res.DiscardReason == "" {
		t.Error("scrap discard should carry a reason")
	}
}

func TestClassifyAmbiguous(t *testing.T) {
	c := New(testLayout())

	// One corner fixed-page, one corner extra marker: a double catch.
	mixed := tpvGroup(7, 3, 1, "93849")
	mixed["SE"] = model.QRCorner{Raw: "plomX4"}
	if res := c.Classify(mixed); res.Status != model.PageStatusUnknown {
		t.Errorf("mixed kinds: status = %s, want UNKNOWN", res.Status)
	}

	// Corners disagree about the slot: skewed double catch.
	disagree := tpvGroup(7, 3, 1, "93849")
	disagree["SW"] = model.QRCorner{Raw: sprintf17(8, 3, 1, 3, "93849")}
	if res := c.Classify(disagree); res.Status != model.PageStatusUnknown {
		t.Errorf("disagreeing corners: status = %s, want UNKNOWN", res.Status)
	}
}

func TestClassifyError(t *testing.T) {
	c := New(testLayout())

	wrongExam := c.Classify(tpvGroup(7, 3, 1, "11111"))
	if wrongExam.Status != model.PageStatusError || wrongExam.ErrorReason == "" {
		t.Errorf("foreign public code: status = %s reason = %q", wrongExam.Status, wrongExam.ErrorReason)
	}

	badPage := c.Classify(tpvGroup(7, 9, 1, "93849"))
	if badPage.Status != model.PageStatusError {
		t.Errorf("unexpected page: status = %s, want ERROR", badPage.Status)
	}

	badVersion := c.Classify(tpvGroup(7, 3, 3, "93849"))
	if badVersion.Status != model.PageStatusError {
		t.Errorf("unexpected version: status = %s, want ERROR", badVersion.Status)
	}
}

func TestPageKind(t *testing.T) {
	l := testLayout()
	if kind, _ := l.PageKind(1); kind != model.SlotKindID {
		t.Errorf("page 1 kind = %s, want ID", kind)
	}
	if kind, _ := l.PageKind(2); kind != model.SlotKindDNM {
		t.Errorf("page 2 kind = %s, want DNM", kind)
	}
	kind, q := l.PageKind(5)
	if kind != model.SlotKindQuestion || q != 2 {
		t.Errorf("page 5 = %s q%d, want QUESTION q2", kind, q)
	}
}
