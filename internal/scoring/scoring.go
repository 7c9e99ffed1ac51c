// Package scoring computes attempt scores. Both phases are pure functions of
// their inputs so grading stays idempotent: recomputing from the stored
// answers and manual marks always yields the same totals.
package scoring

import (
	"math"
	"strings"

	"github.com/campusgrid/exam-backend/internal/model"
)

// Objective scores submitted answers against the exam's question list and
// returns the stored answer rows plus their mark sum.
//
// Objective questions (mcq, true_false) with a non-empty answer key are
// compared by exact string match after trimming whitespace on both sides.
// Subjective questions and answers referencing an out-of-range question index
// are recorded with zero marks; the former await manual grading.
//
// The stored result holds at most one answer per question index. When the
// submission repeats an index, the last occurrence replaces the earlier ones,
// so a question's marks can never be earned more than once.
func Objective(questions []model.Question, submitted []model.AnswerInput) ([]model.Answer, int) {
	answers := make([]model.Answer, 0, len(submitted))
	slot := make(map[int]int, len(submitted))

	for _, in := range submitted {
		ans := model.Answer{
			QuestionIndex: in.QuestionIndex,
			Answer:        in.Answer,
		}

		if in.QuestionIndex >= 0 && in.QuestionIndex < len(questions) {
			q := questions[in.QuestionIndex]
			if q.AutoGradable() && strings.TrimSpace(in.Answer) == strings.TrimSpace(q.CorrectAnswer) {
				ans.IsCorrect = true
				ans.MarksAwarded = q.Marks
			}
		}

		if at, ok := slot[in.QuestionIndex]; ok {
			answers[at] = ans
			continue
		}
		slot[in.QuestionIndex] = len(answers)
		answers = append(answers, ans)
	}

	total := 0
	for _, a := range answers {
		total += a.MarksAwarded
	}
	return answers, total
}

// MergeManual combines objective-phase marks with grader-supplied manual
// marks. For every question index referenced by either side, the manual mark
// wins when present; otherwise the objective mark applies. This lets graders
// score subjective answers and also override a mistaken objective result
// without touching the exam definition.
func MergeManual(answers []model.Answer, marks []model.ManualMark) int {
	objective := make(map[int]int, len(answers))
	for _, a := range answers {
		objective[a.QuestionIndex] = a.MarksAwarded
	}

	manual := make(map[int]int, len(marks))
	for _, m := range marks {
		manual[m.QuestionIndex] = m.MarksAwarded
	}

	total := 0
	for idx, v := range manual {
		total += v
		delete(objective, idx)
	}
	for _, v := range objective {
		total += v
	}
	return total
}

// Percentage returns the rounded percentage of total against examTotal.
// Exams with zero total marks score zero percent.
func Percentage(total, examTotal int) int {
	if examTotal <= 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(examTotal) * 100))
}
