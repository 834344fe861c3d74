package model

// Layout is the immutable exam layout snapshot: which pages exist, which
// questions own which pages, and the public code baked into the QR
// stamps. It is loaded once at startup and passed by value into the
// classifier and assembler; reconfiguration means building a new
// snapshot, never mutating a shared one.
type Layout struct {
	Name       string           `json:"name"`
	PublicCode string           `json:"public_code"` // Five digits, printed into every QR stamp
	Pages      int              `json:"pages"`       // Total fixed pages per paper
	IDPage     int              `json:"id_page"`
	DNMPages   []int            `json:"dnm_pages"`
	Versions   int              `json:"versions"`
	Questions  []QuestionLayout `json:"questions"`
}

// QuestionLayout describes one question of the exam layout.
type QuestionLayout struct {
	Idx   int    `json:"idx"` // 1-based question index
	Label string `json:"label"`
	Pages []int  `json:"pages"`
	Marks int    `json:"marks"`
}

// PageKind returns the slot kind for a fixed page number, plus the
// owning question index for QUESTION pages (zero otherwise).
func (l Layout) PageKind(page int) (SlotKind, int) {
	if page == l.IDPage {
		return SlotKindID, 0
	}
	for _, dnm := range l.DNMPages {
		if page == dnm {
			return SlotKindDNM, 0
		}
	}
	for _, q := range l.Questions {
		for _, p := range q.Pages {
			if page == p {
				return SlotKindQuestion, q.Idx
			}
		}
	}
	return SlotKindDNM, 0
}

// HasPage reports whether the layout expects the given fixed page number.
func (l Layout) HasPage(page int) bool {
	return page >= 1 && page <= l.Pages
}

// HasQuestion reports whether the layout contains the given question index.
func (l Layout) HasQuestion(idx int) bool {
	for _, q := range l.Questions {
		if q.Idx == idx {
			return true
		}
	}
	return false
}

// QuestionPages returns the fixed page numbers of a question, or nil for
// an unknown question index.
func (l Layout) QuestionPages(idx int) []int {
	for _, q := range l.Questions {
		if q.Idx == idx {
			return q.Pages
		}
	}
	return nil
}
