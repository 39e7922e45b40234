package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

const RubricVersion = "2025-02"

type RubricCheck struct {
	Description string
	Points      int
}

// MarshalJSON renders a check as a [description, points] pair.
func (c RubricCheck) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{c.Description, c.Points})
}

type RubricCategory struct {
	Name   string
	Weight float64
	Checks []RubricCheck
}

func (c RubricCategory) MaxPoints() int {
	total := 0
	for _, check := range c.Checks {
		total += check.Points
	}
	return total
}

// Awarded sums values with each clamped to [0, check points]. values must
// hold one entry per check.
func (c RubricCategory) Awarded(values []float64) float64 {
	got := 0.0
	for i, check := range c.Checks {
		v := values[i]
		if math.IsNaN(v) || v < 0 {
			v = 0
		}
		if v > float64(check.Points) {
			v = float64(check.Points)
		}
		got += v
	}
	return got
}

// Deducted reports whether values award less than the category maximum.
func (c RubricCategory) Deducted(values []float64) bool {
	return c.Awarded(values) < float64(c.MaxPoints())
}

type ScoringRubric struct {
	Version    string
	Categories []RubricCategory
}

// DefaultRubric returns a fresh copy of the built-in rubric on every call.
func DefaultRubric() ScoringRubric {
	return ScoringRubric{
		Version: RubricVersion,
		Categories: []RubricCategory{
			{
				Name:   "essentials",
				Weight: 0.3,
				Checks: []RubricCheck{
					{"Name, address, or phone number missing", 15},
					{"Job title should be clear, standardized (e.g., Senior Data Engineer not Data Ninja)", 10},
					{"Social media links (LinkedIn, GitHub) should be present", 5},
				},
			},
			{
				Name:   "formatting",
				Weight: 0.2,
				Checks: []RubricCheck{
					{"Consistent bullet points with no more than 300 characters per bullet point", 5},
					{"ATS-friendly fonts (Arial/Times)", 5},
					{"No tables/images", 5},
					{"Section headers clear", 5},
				},
			},
			{
				Name:   "keywords",
				Weight: 0.3,
				Checks: []RubricCheck{
					{"Skills matches job description requirements if job description provided", 10},
					{"Industry-standard terms for skills", 10},
					{"No jargon", 5},
					{"No more than 15 different skills", 5},
				},
			},
			{
				Name:   "structure",
				Weight: 0.2,
				Checks: []RubricCheck{
					{"Reverse chronological order for experience and education", 5},
					{"Standard sections (Summary or Intro, Skills, Experience, Education, Languages) should all be present", 10},
					{"No header/footer repetition", 5},
				},
			},
			{
				Name:   "content",
				Weight: 0.3,
				Checks: []RubricCheck{
					{"Quantified/measurable achievements (e.g., 'Improved X by Y%')", 5},
					{"Technical depth without fluff", 5},
					{"Using action verbs in experience description bullet points", 5},
					{"Use of bullet points to describe experience, but not more than 6 for each experience", 5},
					{"No start or end dates missing for experience or education", 5},
					{"No irrelevant information (e.g., daily tasks without impact, unrelated jobs)", 5},
				},
			},
		},
	}
}

// Validate enforces nonnegative weights and positive check points.
func (r ScoringRubric) Validate() error {
	if len(r.Categories) == 0 {
		return fmt.Errorf("rubric has no categories")
	}
	seen := make(map[string]bool, len(r.Categories))
	for _, c := range r.Categories {
		if c.Name == "" {
			return fmt.Errorf("rubric category without a name")
		}
		if seen[c.Name] {
			return fmt.Errorf("duplicate rubric category %q", c.Name)
		}
		seen[c.Name] = true
		if c.Weight < 0 || c.Weight > 1 || math.IsNaN(c.Weight) {
			return fmt.Errorf("category %q: weight %v outside [0,1]", c.Name, c.Weight)
		}
		if len(c.Checks) == 0 {
			return fmt.Errorf("category %q has no checks", c.Name)
		}
		for i, check := range c.Checks {
			if check.Points <= 0 {
				return fmt.Errorf("category %q check %d: points must be positive", c.Name, i)
			}
		}
	}
	return nil
}

func (r ScoringRubric) Category(name string) (RubricCategory, bool) {
	for _, c := range r.Categories {
		if c.Name == name {
			return c, true
		}
	}
	return RubricCategory{}, false
}

// Score turns per-check awarded points into a 0-100 score:
// round(100 * sum(w_c * awarded_c / max_c) / sum(w_c)).
// Awarded points are clamped to [0, check points]. Every category must be
// present with exactly one value per check.
func (r ScoringRubric) Score(awarded map[string][]float64) (int, error) {
	var weighted, totalWeight float64

	for _, c := range r.Categories {
		values, ok := awarded[c.Name]
		if !ok {
			return 0, fmt.Errorf("missing check scores for category %q", c.Name)
		}
		if len(values) != len(c.Checks) {
			return 0, fmt.Errorf("category %q: got %d check scores, want %d", c.Name, len(values), len(c.Checks))
		}

		got := c.Awarded(values)

		maxPoints := c.MaxPoints()
		if maxPoints == 0 {
			continue
		}
		weighted += c.Weight * got / float64(maxPoints)
		totalWeight += c.Weight
	}

	if totalWeight == 0 {
		return 0, nil
	}

	score := int(math.Round(100 * weighted / totalWeight))
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score, nil
}

// MarshalJSON keeps categories in rubric order instead of map key order.
func (r ScoringRubric) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r.Categories {
		if i > 0 {
			buf.WriteByte(',')
		}
		name, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		body, err := json.Marshal(struct {
			Weight float64       `json:"weight"`
			Checks []RubricCheck `json:"checks"`
		}{c.Weight, c.Checks})
		if err != nil {
			return nil, err
		}
		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(body)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
