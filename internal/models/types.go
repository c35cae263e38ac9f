package models

import (
	"encoding/json"
	"fmt"
)

// QuestionType enumerates the question kinds the conversion service may emit.
type QuestionType string

const (
	QuestionSingleChoice   QuestionType = "single-choice"
	QuestionMultipleChoice QuestionType = "multiple-choice"
	QuestionLikert5        QuestionType = "likert-5"
	QuestionText           QuestionType = "text"
	QuestionBinary         QuestionType = "binary"
)

// KnownQuestionType reports whether t is one of the supported kinds.
func KnownQuestionType(t QuestionType) bool {
	switch t {
	case QuestionSingleChoice, QuestionMultipleChoice, QuestionLikert5, QuestionText, QuestionBinary:
		return true
	}
	return false
}

// likertLabels is the canonical 5-point agreement scale, ascending.
// Questions of type likert-5 always carry exactly these options; whatever
// the conversion service returns for them is discarded.
var likertLabels = [5]string{
	"لا أوافق بشدة",
	"لا أوافق",
	"محايد",
	"أوافق",
	"أوافق بشدة",
}

// LikertScale returns a fresh copy of the canonical 5-point labels.
func LikertScale() []string {
	out := make([]string, len(likertLabels))
	copy(out, likertLabels[:])
	return out
}

// LikertPosition maps a canonical label to its 1-based scale position.
func LikertPosition(label string) (int, bool) {
	for i, l := range likertLabels {
		if l == label {
			return i + 1, true
		}
	}
	return 0, false
}

type Question struct {
	ID      int          `json:"id"`
	Text    string       `json:"text"`
	Type    QuestionType `json:"type"`
	Options []string     `json:"options,omitempty"`
}

type Survey struct {
	Title     string     `json:"title"`
	Questions []Question `json:"questions"`
}

// AnswerKey is the key under which a question's answer is stored in a
// response, e.g. "q-3" for question id 3.
func AnswerKey(questionID int) string {
	return fmt.Sprintf("q-%d", questionID)
}

// Answer is a tagged union: a single selection (single-choice, likert-5,
// text, binary) or a list of selections (multiple-choice). On the wire it is
// either a JSON string or an array of strings; the Go side discriminates
// explicitly instead of sniffing shapes at use sites.
type Answer struct {
	Single   string
	Multiple []string
	IsMulti  bool
}

// SingleAnswer wraps one selected value.
func SingleAnswer(v string) Answer { return Answer{Single: v} }

// MultiAnswer wraps a list of selected values.
func MultiAnswer(vs ...string) Answer { return Answer{Multiple: vs, IsMulti: true} }

func (a Answer) MarshalJSON() ([]byte, error) {
	if a.IsMulti {
		if a.Multiple == nil {
			return json.Marshal([]string{})
		}
		return json.Marshal(a.Multiple)
	}
	return json.Marshal(a.Single)
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*a = Answer{Single: s}
		return nil
	}
	var ss []string
	if err := json.Unmarshal(data, &ss); err != nil {
		return fmt.Errorf("answer must be a string or an array of strings")
	}
	*a = Answer{Multiple: ss, IsMulti: true}
	return nil
}

// Response is one anonymous submission. IDs and timestamps are unix
// milliseconds; uniqueness is a generation-time guarantee, not validated on
// read.
type Response struct {
	ID          int64             `json:"id"`
	SubmittedAt int64             `json:"submittedAt"`
	Answers     map[string]Answer `json:"answers"`
}

// CreatorData is the per-creator aggregate: the survey definition (nil when
// none or deleted), every collected response in append order, and the
// open/closed flag respondents see.
type CreatorData struct {
	Survey       *Survey    `json:"survey"`
	Responses    []Response `json:"responses"`
	IsSurveyOpen bool       `json:"isSurveyOpen"`
}

// NewCreatorData returns the default aggregate seeded at registration:
// no survey, no responses, survey open.
func NewCreatorData() *CreatorData {
	return &CreatorData{Responses: []Response{}, IsSurveyOpen: true}
}

// PublicData is the respondent-facing projection of CreatorData. It never
// carries responses.
type PublicData struct {
	Survey       *Survey `json:"survey"`
	IsSurveyOpen bool    `json:"isSurveyOpen"`
}

// Public strips everything a respondent must not see.
func (d *CreatorData) Public() *PublicData {
	return &PublicData{Survey: d.Survey, IsSurveyOpen: d.IsSurveyOpen}
}
