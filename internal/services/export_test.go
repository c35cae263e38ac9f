package services

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"istibyan/internal/models"
)

func exportFixture() (*models.Survey, []models.Response) {
	survey := &models.Survey{
		Title: "رضا الموظفين",
		Questions: []models.Question{
			{ID: 1, Text: "مدى رضاك", Type: models.QuestionLikert5, Options: models.LikertScale()},
			{ID: 2, Text: "ما الذي يعجبك؟", Type: models.QuestionMultipleChoice, Options: []string{"الراتب", "الفريق", "المرونة"}},
			{ID: 3, Text: "ملاحظات", Type: models.QuestionText},
		},
	}
	responses := []models.Response{
		{
			ID:          100,
			SubmittedAt: 1700000000000,
			Answers: map[string]models.Answer{
				"q-1": models.SingleAnswer("أوافق"),
				"q-2": models.MultiAnswer("الراتب", "الفريق"),
				"q-3": models.SingleAnswer("لا شيء"),
			},
		},
		{
			ID:          101,
			SubmittedAt: 1700000001000,
			Answers: map[string]models.Answer{
				"q-1": models.SingleAnswer("لا أوافق بشدة"),
			},
		},
	}
	return survey, responses
}

func TestExportResponsesCSV(t *testing.T) {
	survey, responses := exportFixture()
	b, err := ExportResponsesCSV(survey, responses)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		t.Fatalf("expected UTF-8 BOM prefix")
	}

	r := csv.NewReader(bytes.NewReader(bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})))
	rows, err := r.ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Response ID" || rows[0][1] != "مدى رضاك" {
		t.Fatalf("unexpected header %v", rows[0])
	}

	// Likert label maps to its 1-based scale position.
	if rows[1][1] != "4" {
		t.Fatalf(`expected "أوافق" exported as 4, got %q`, rows[1][1])
	}
	if rows[2][1] != "1" {
		t.Fatalf(`expected "لا أوافق بشدة" exported as 1, got %q`, rows[2][1])
	}
	// Multiple-choice answers are joined.
	if rows[1][2] != "الراتب, الفريق" {
		t.Fatalf("unexpected multi cell %q", rows[1][2])
	}
	// Unanswered questions are empty cells.
	if rows[2][2] != "" || rows[2][3] != "" {
		t.Fatalf("expected empty cells for unanswered questions: %v", rows[2])
	}
}

func TestExportResponsesCSVNoSurvey(t *testing.T) {
	if _, err := ExportResponsesCSV(nil, nil); err == nil {
		t.Fatalf("expected error when no survey exists")
	}
}

func TestExportFilename(t *testing.T) {
	survey, _ := exportFixture()
	name := ExportFilename(survey)
	if !strings.HasSuffix(name, "_responses.csv") || strings.Contains(name, " ") {
		t.Fatalf("unexpected filename %q", name)
	}
	if got := ExportFilename(nil); got != "survey_responses.csv" {
		t.Fatalf("unexpected fallback filename %q", got)
	}
}
