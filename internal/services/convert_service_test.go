package services

import (
	"reflect"
	"testing"

	"istibyan/internal/models"
)

func TestNormalizeSurveyAssignsSequentialIDs(t *testing.T) {
	s := &models.Survey{
		Title: "رضا الموظفين",
		Questions: []models.Question{
			{Text: "سؤال ١", Type: models.QuestionText},
			{ID: 7, Text: "سؤال ٢", Type: models.QuestionBinary, Options: []string{"نعم", "لا"}},
			{Text: "سؤال ٣", Type: models.QuestionSingleChoice, Options: []string{"أ", "ب"}},
		},
	}
	if err := NormalizeSurvey(s); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if s.Questions[0].ID != 1 || s.Questions[2].ID != 3 {
		t.Fatalf("missing ids must become 1-based positions: %+v", s.Questions)
	}
	if s.Questions[1].ID != 7 {
		t.Fatalf("existing id must be kept, got %d", s.Questions[1].ID)
	}
}

func TestNormalizeSurveyForcesLikertOptions(t *testing.T) {
	s := &models.Survey{
		Title: "t",
		Questions: []models.Question{
			{ID: 3, Text: "مدى الرضا", Type: models.QuestionLikert5, Options: []string{"whatever", "the", "model", "said"}},
		},
	}
	if err := NormalizeSurvey(s); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if !reflect.DeepEqual(s.Questions[0].Options, models.LikertScale()) {
		t.Fatalf("likert options must be the canonical scale, got %v", s.Questions[0].Options)
	}
}

func TestNormalizeSurveyRejectsUnusableOutput(t *testing.T) {
	cases := []*models.Survey{
		nil,
		{Title: "t"},
		{Title: "t", Questions: []models.Question{{ID: 1, Text: "", Type: models.QuestionText}}},
		{Title: "t", Questions: []models.Question{{ID: 1, Text: "q", Type: "slider"}}},
	}
	for i, s := range cases {
		err := NormalizeSurvey(s)
		se, ok := AsServiceError(err)
		if !ok || se.Code != ErrorBadGateway {
			t.Fatalf("case %d: expected bad_gateway, got %v", i, err)
		}
	}
}

func TestNormalizeSurveyDropsOptionsOnTextQuestions(t *testing.T) {
	s := &models.Survey{
		Title: "t",
		Questions: []models.Question{
			{ID: 1, Text: "اكتب رأيك", Type: models.QuestionText, Options: []string{"stray"}},
		},
	}
	if err := NormalizeSurvey(s); err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if s.Questions[0].Options != nil {
		t.Fatalf("text questions must not carry options, got %v", s.Questions[0].Options)
	}
}
