package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask_TransitionTo(t *testing.T) {
	tests := []struct {
		name      string
		from      TaskStatus
		to        TaskStatus
		wantErr   bool
		wantState TaskStatus
	}{
		// Valid forward transitions
		{"draft to active", TaskStatusDraft, TaskStatusActive, false, TaskStatusActive},
		{"active to paused", TaskStatusActive, TaskStatusPaused, false, TaskStatusPaused},
		{"paused to active", TaskStatusPaused, TaskStatusActive, false, TaskStatusActive},
		{"active to completed", TaskStatusActive, TaskStatusCompleted, false, TaskStatusCompleted},

		// Any status may reopen to draft
		{"active to draft", TaskStatusActive, TaskStatusDraft, false, TaskStatusDraft},
		{"paused to draft", TaskStatusPaused, TaskStatusDraft, false, TaskStatusDraft},
		{"completed to draft", TaskStatusCompleted, TaskStatusDraft, false, TaskStatusDraft},
		{"draft to draft", TaskStatusDraft, TaskStatusDraft, false, TaskStatusDraft},

		// Invalid transitions
		{"draft to paused", TaskStatusDraft, TaskStatusPaused, true, TaskStatusDraft},
		{"draft to completed", TaskStatusDraft, TaskStatusCompleted, true, TaskStatusDraft},
		{"paused to completed", TaskStatusPaused, TaskStatusCompleted, true, TaskStatusPaused},
		{"completed to active", TaskStatusCompleted, TaskStatusActive, true, TaskStatusCompleted},
		{"completed to paused", TaskStatusCompleted, TaskStatusPaused, true, TaskStatusCompleted},
		{"unknown target", TaskStatusDraft, TaskStatus("archived"), true, TaskStatusDraft},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{Status: tt.from}
			err := task.TransitionTo(tt.to)

			if tt.wantErr {
				assert.Error(t, err)
				// Status should not change on error
				assert.Equal(t, tt.from, task.Status)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.wantState, task.Status)
			}
		})
	}
}

func validCreateParams() CreateTaskParams {
	return CreateTaskParams{
		Title:              "Detect assembly defects",
		Priority:           TaskPriorityMedium,
		QuestionsNumber:    10,
		RequiredAgreements: 2,
		Template: &QuestionTemplate{
			QuestionText: "Which defects are visible?",
			Choices: map[string]FailureChoice{
				"surface": {Text: "Surface damage", Options: []string{"None", "Scratch", "Dent"}, MultipleSelect: true},
			},
		},
		CreatedBy: uuid.New(),
	}
}

func TestCreateTaskParams_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*CreateTaskParams)
		wantField string
	}{
		{"valid", func(p *CreateTaskParams) {}, ""},
		{"empty title", func(p *CreateTaskParams) { p.Title = "  " }, "title"},
		{"unknown priority", func(p *CreateTaskParams) { p.Priority = "urgent" }, "priority"},
		{"zero questions", func(p *CreateTaskParams) { p.QuestionsNumber = 0 }, "questions_number"},
		{"agreements too low", func(p *CreateTaskParams) { p.RequiredAgreements = 0 }, "required_agreements"},
		{"agreements too high", func(p *CreateTaskParams) { p.RequiredAgreements = 11 }, "required_agreements"},
		{"missing template", func(p *CreateTaskParams) { p.Template = nil }, "question_template"},
		{"empty question text", func(p *CreateTaskParams) { p.Template.QuestionText = "" }, "question_template.question_text"},
		{"no choices", func(p *CreateTaskParams) { p.Template.Choices = nil }, "question_template.choices"},
		{"choice without options", func(p *CreateTaskParams) {
			p.Template.Choices["surface"] = FailureChoice{Text: "Surface damage"}
		}, "question_template.choices.surface.options"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			params := validCreateParams()
			tt.mutate(&params)
			err := params.Validate("task.create")

			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Contains(t, ve.Fields, tt.wantField)
		})
	}
}

func TestQuestionTemplate_Normalize(t *testing.T) {
	tmpl := &QuestionTemplate{
		QuestionText: "  Which defects are visible?  ",
		Choices: map[string]FailureChoice{
			"surface": {Text: "Surface damage", Options: []string{"Scratch", "Dent"}},
			"color":   {Text: "Color defect", Options: []string{"None", "Fading"}},
		},
	}

	tmpl.Normalize()

	assert.Equal(t, "Which defects are visible?", tmpl.QuestionText)
	// "None" is inserted at the front when missing, left alone when present.
	assert.Equal(t, []string{"None", "Scratch", "Dent"}, tmpl.Choices["surface"].Options)
	assert.Equal(t, []string{"None", "Fading"}, tmpl.Choices["color"].Options)
}

func TestTemplateRoundTrip(t *testing.T) {
	tmpl := &QuestionTemplate{
		QuestionText: "Which defects are visible?",
		Choices: map[string]FailureChoice{
			"surface": {Text: "Surface damage", Options: []string{"None", "Scratch"}, MultipleSelect: true},
		},
	}

	data, err := MarshalTemplate(tmpl)
	require.NoError(t, err)

	got, err := UnmarshalTemplate(data)
	require.NoError(t, err)
	assert.Equal(t, tmpl, got)

	// Empty input round-trips to nil.
	empty, err := UnmarshalTemplate(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)
}
