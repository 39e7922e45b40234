package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jovanglig/aigeniusresume/internal/models"
)

func TestReconcileKeywords(t *testing.T) {
	resume := "Jane Doe\nSkills: Python, React, AWS, C++ and Node.js"

	tests := []struct {
		name        string
		strong      []string
		missing     []string
		wantStrong  []string
		wantMissing []string
	}{
		{
			name:        "keeps a correct report",
			strong:      []string{"Python"},
			missing:     []string{"Kafka"},
			wantStrong:  []string{"Python"},
			wantMissing: []string{"Kafka"},
		},
		{
			name:        "moves hallucinated strong keyword to missing",
			strong:      []string{"Python", "Kafka"},
			missing:     nil,
			wantStrong:  []string{"Python"},
			wantMissing: []string{"Kafka"},
		},
		{
			name:        "moves present missing keyword to strong",
			strong:      nil,
			missing:     []string{"python", "Kafka"},
			wantStrong:  []string{"python"},
			wantMissing: []string{"Kafka"},
		},
		{
			name:        "whole terms only",
			strong:      []string{"Java", "C++", "Node.js", "React"},
			missing:     nil,
			wantStrong:  []string{"C++", "Node.js", "React"},
			wantMissing: []string{"Java"},
		},
		{
			name:        "deduplicates across lists",
			strong:      []string{"AWS", "aws ", "Kafka"},
			missing:     []string{"Kafka", "AWS", ""},
			wantStrong:  []string{"AWS"},
			wantMissing: []string{"Kafka"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := &models.ScoreReport{Keywords: models.KeywordReport{Strong: tt.strong, Missing: tt.missing}}

			ReconcileKeywords(report, resume)

			assert.Equal(t, tt.wantStrong, report.Keywords.Strong)
			assert.Equal(t, tt.wantMissing, report.Keywords.Missing)
		})
	}
}

func TestAddMatchedSkills(t *testing.T) {
	report := &models.ScoreReport{Keywords: models.KeywordReport{
		Strong:  []string{"Python"},
		Missing: []string{"Kafka", "terraform"},
	}}

	AddMatchedSkills(report, []string{"Python", "Terraform", "React", ""}, "We need Python, Kafka and Terraform.")

	assert.Equal(t, []string{"Python", "Terraform"}, report.Keywords.Strong)
	assert.Equal(t, []string{"Kafka"}, report.Keywords.Missing)
}

func TestTermMatcher(t *testing.T) {
	m := newTermMatcher("Built JavaScript apps, later Java services. Ops: Kubernetes/Helm, Größe 2x, C#")

	tests := []struct {
		keyword string
		want    bool
	}{
		{"java", true},
		{"Script", false},
		{"helm", true},
		{"kubernetes/helm", true},
		{"GRÖSSE", false},
		{"größe", true},
		{"2x", true},
		{"x", false},
		{"c#", true},
		{"  ", false},
		{"Go", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, m.mentions(tt.keyword), tt.keyword)
	}
}
