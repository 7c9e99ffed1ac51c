package scoring

import (
	"testing"

	"github.com/campusgrid/exam-backend/internal/model"
)

func objectiveQuestions() []model.Question {
	return []model.Question{
		{Text: "Q1", Type: model.QuestionTypeMCQ, Options: []string{"A", "B", "C", "D"}, CorrectAnswer: "A", Marks: 5},
		{Text: "Q2", Type: model.QuestionTypeMCQ, Options: []string{"A", "B", "C", "D"}, CorrectAnswer: "B", Marks: 10},
		{Text: "Q3", Type: model.QuestionTypeTrueFalse, CorrectAnswer: "true", Marks: 2},
		{Text: "Q4", Type: model.QuestionTypeShortAnswer, Marks: 8},
	}
}

func TestObjective(t *testing.T) {
	tests := []struct {
		name       string
		submitted  []model.AnswerInput
		wantTotal  int
		wantMarks  []int
		wantRights []bool
	}{
		{
			name: "all correct objective",
			submitted: []model.AnswerInput{
				{QuestionIndex: 0, Answer: "A"},
				{QuestionIndex: 1, Answer: "B"},
				{QuestionIndex: 2, Answer: "true"},
			},
			wantTotal:  17,
			wantMarks:  []int{5, 10, 2},
			wantRights: []bool{true, true, true},
		},
		{
			name: "partially wrong",
			submitted: []model.AnswerInput{
				{QuestionIndex: 0, Answer: "A"},
				{QuestionIndex: 1, Answer: "C"},
			},
			wantTotal:  5,
			wantMarks:  []int{5, 0},
			wantRights: []bool{true, false},
		},
		{
			name: "trims whitespace before comparing",
			submitted: []model.AnswerInput{
				{QuestionIndex: 0, Answer: "  A "},
			},
			wantTotal:  5,
			wantMarks:  []int{5},
			wantRights: []bool{true},
		},
		{
			name: "match is case sensitive",
			submitted: []model.AnswerInput{
				{QuestionIndex: 0, Answer: "a"},
			},
			wantTotal:  0,
			wantMarks:  []int{0},
			wantRights: []bool{false},
		},
		{
			name: "subjective answers always score zero",
			submitted: []model.AnswerInput{
				{QuestionIndex: 3, Answer: "an essay about the topic"},
			},
			wantTotal:  0,
			wantMarks:  []int{0},
			wantRights: []bool{false},
		},
		{
			name: "out of range index scores zero",
			submitted: []model.AnswerInput{
				{QuestionIndex: 99, Answer: "A"},
			},
			wantTotal:  0,
			wantMarks:  []int{0},
			wantRights: []bool{false},
		},
		{
			name:      "no answers",
			submitted: nil,
			wantTotal: 0,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			answers, total := Objective(objectiveQuestions(), tc.submitted)
			if total != tc.wantTotal {
				t.Fatalf("total = %d, want %d", total, tc.wantTotal)
			}
			if len(answers) != len(tc.submitted) {
				t.Fatalf("got %d answer rows, want %d", len(answers), len(tc.submitted))
			}
			for i, a := range answers {
				if a.MarksAwarded != tc.wantMarks[i] {
					t.Errorf("answer %d marks = %d, want %d", i, a.MarksAwarded, tc.wantMarks[i])
				}
				if a.IsCorrect != tc.wantRights[i] {
					t.Errorf("answer %d correct = %t, want %t", i, a.IsCorrect, tc.wantRights[i])
				}
			}
		})
	}
}

func TestObjectiveDuplicateIndices(t *testing.T) {
	t.Run("repeated correct answer counts once", func(t *testing.T) {
		answers, total := Objective(objectiveQuestions(), []model.AnswerInput{
			{QuestionIndex: 0, Answer: "A"},
			{QuestionIndex: 0, Answer: "A"},
			{QuestionIndex: 0, Answer: "A"},
		})
		if total != 5 {
			t.Fatalf("total = %d, want 5", total)
		}
		if len(answers) != 1 {
			t.Fatalf("got %d answer rows, want 1", len(answers))
		}
	})

	t.Run("last answer for an index wins", func(t *testing.T) {
		answers, total := Objective(objectiveQuestions(), []model.AnswerInput{
			{QuestionIndex: 0, Answer: "A"},
			{QuestionIndex: 0, Answer: "B"},
		})
		if total != 0 {
			t.Fatalf("total = %d, want 0", total)
		}
		if len(answers) != 1 || answers[0].Answer != "B" || answers[0].IsCorrect {
			t.Fatalf("stored answer = %+v, want the later wrong answer", answers[0])
		}
	})

	t.Run("correction to the right answer scores", func(t *testing.T) {
		answers, total := Objective(objectiveQuestions(), []model.AnswerInput{
			{QuestionIndex: 1, Answer: "C"},
			{QuestionIndex: 1, Answer: "B"},
			{QuestionIndex: 2, Answer: "true"},
		})
		if total != 12 {
			t.Fatalf("total = %d, want 12", total)
		}
		if len(answers) != 2 || !answers[0].IsCorrect {
			t.Fatalf("stored answers = %+v, want corrected answer scored", answers)
		}
	})
}

func TestObjectiveMissingAnswerKey(t *testing.T) {
	// An objective question without an answer key is not auto-gradable;
	// even an "obviously right" answer scores zero.
	questions := []model.Question{
		{Text: "Q1", Type: model.QuestionTypeMCQ, Options: []string{"A", "B"}, Marks: 5},
	}
	answers, total := Objective(questions, []model.AnswerInput{{QuestionIndex: 0, Answer: "A"}})
	if total != 0 || answers[0].IsCorrect {
		t.Fatalf("expected zero score for keyless question, got total=%d correct=%t", total, answers[0].IsCorrect)
	}
}

func TestMergeManual(t *testing.T) {
	objectivePhase := []model.Answer{
		{QuestionIndex: 0, MarksAwarded: 5, IsCorrect: true},
		{QuestionIndex: 1, MarksAwarded: 0},
		{QuestionIndex: 3, MarksAwarded: 0},
	}

	tests := []struct {
		name  string
		marks []model.ManualMark
		want  int
	}{
		{name: "no manual marks keeps objective total", marks: nil, want: 5},
		{
			name:  "manual mark supplies subjective score",
			marks: []model.ManualMark{{QuestionIndex: 3, MarksAwarded: 8}},
			want:  13,
		},
		{
			name:  "manual mark overrides objective score",
			marks: []model.ManualMark{{QuestionIndex: 1, MarksAwarded: 10, Comment: "accepted alternate phrasing"}},
			want:  15,
		},
		{
			name: "override and supply together",
			marks: []model.ManualMark{
				{QuestionIndex: 0, MarksAwarded: 0},
				{QuestionIndex: 3, MarksAwarded: 4},
			},
			want: 4,
		},
		{
			name:  "manual mark on index with no stored answer",
			marks: []model.ManualMark{{QuestionIndex: 7, MarksAwarded: 3}},
			want:  8,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := MergeManual(objectivePhase, tc.marks); got != tc.want {
				t.Fatalf("MergeManual = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestMergeManualIsIdempotent(t *testing.T) {
	answers := []model.Answer{{QuestionIndex: 0, MarksAwarded: 5}}
	marks := []model.ManualMark{{QuestionIndex: 1, MarksAwarded: 7}}
	first := MergeManual(answers, marks)
	second := MergeManual(answers, marks)
	if first != second {
		t.Fatalf("recompute changed total: %d then %d", first, second)
	}
}

func TestPercentage(t *testing.T) {
	tests := []struct {
		total, examTotal, want int
	}{
		{5, 15, 33},
		{15, 15, 100},
		{0, 15, 0},
		{1, 3, 33},
		{2, 3, 67},
		{10, 0, 0},
		{20, 15, 133}, // manual marks are trusted input; totals may exceed the exam maximum
	}
	for _, tc := range tests {
		if got := Percentage(tc.total, tc.examTotal); got != tc.want {
			t.Errorf("Percentage(%d, %d) = %d, want %d", tc.total, tc.examTotal, got, tc.want)
		}
	}
}
