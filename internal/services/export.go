package services

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"

	"istibyan/internal/models"
)

// utf8BOM makes spreadsheet apps detect the encoding; the exports carry
// Arabic labels.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ExportResponsesCSV renders one row per response and one column per
// question, in question order. Likert answers are exported as their 1-based
// position on the canonical scale; multiple-choice answers are joined with
// ", "; unanswered questions are empty cells.
func ExportResponsesCSV(survey *models.Survey, responses []models.Response) ([]byte, error) {
	if survey == nil {
		return nil, NewInvalidError("no survey to export")
	}
	buf := &bytes.Buffer{}
	buf.Write(utf8BOM)
	w := csv.NewWriter(buf)

	header := make([]string, 0, 1+len(survey.Questions))
	header = append(header, "Response ID")
	for _, q := range survey.Questions {
		header = append(header, q.Text)
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, res := range responses {
		row := make([]string, 0, 1+len(survey.Questions))
		row = append(row, strconv.FormatInt(res.ID, 10))
		for _, q := range survey.Questions {
			row = append(row, exportCell(q, res.Answers[models.AnswerKey(q.ID)]))
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func exportCell(q models.Question, a models.Answer) string {
	if a.IsMulti {
		return strings.Join(a.Multiple, ", ")
	}
	if a.Single == "" {
		return ""
	}
	if q.Type == models.QuestionLikert5 {
		if pos, ok := models.LikertPosition(a.Single); ok {
			return strconv.Itoa(pos)
		}
	}
	return a.Single
}

// ExportFilename derives the download name from the survey title.
func ExportFilename(survey *models.Survey) string {
	title := "survey"
	if survey != nil && strings.TrimSpace(survey.Title) != "" {
		title = strings.Join(strings.Fields(survey.Title), "_")
	}
	return title + "_responses.csv"
}
