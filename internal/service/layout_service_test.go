package service

import (
	"testing"

	"github.com/paperflow/paperflow-backend/internal/model"
)

func validTestLayout() model.Layout {
	return model.Layout{
		Name:       "Midterm",
		PublicCode: "93849",
		Pages:      6,
		IDPage:     1,
		DNMPages:   []int{2},
		Versions:   2,
		Questions: []model.QuestionLayout{
			{Idx: 1, Label: "Q1", Pages: []int{3, 4}, Marks: 5},
			{Idx: 2, Label: "Q2", Pages: []int{5, 6}, Marks: 10},
		},
	}
}

func TestValidateLayoutAccepts(t *testing.T) {
	if err := validateLayout(validTestLayout()); err != nil {
		t.Errorf("validateLayout: %v", err)
	}
}

func TestValidateLayoutRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*model.Layout)
	}{
		{"no pages", func(l *model.Layout) { l.Pages = 0 }},
		{"no versions", func(l *model.Layout) { l.Versions = 0 }},
		{"short public code", func(l *model.Layout) { l.PublicCode = "1234" }},
		{"id page out of range", func(l *model.Layout) { l.IDPage = 7 }},
		{"dnm page out of range", func(l *model.Layout) { l.DNMPages = []int{2, 9} }},
		{"question page out of range", func(l *model.Layout) { l.Questions[0].Pages = []int{3, 8} }},
		{"question with no pages", func(l *model.Layout) { l.Questions[1].Pages = nil }},
		{"page claimed twice", func(l *model.Layout) { l.Questions[1].Pages = []int{5, 3} }},
		{"dnm overlaps id page", func(l *model.Layout) { l.DNMPages = []int{1} }},
		{"unclaimed page", func(l *model.Layout) { l.Questions[1].Pages = []int{5} }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			layout := validTestLayout()
			tc.mutate(&layout)
			if err := validateLayout(layout); err == nil {
				t.Error("validateLayout accepted an invalid layout")
			}
		})
	}
}
