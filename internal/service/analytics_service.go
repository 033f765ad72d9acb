package service

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/parisxmas/OxiForms/internal/engine"
	"github.com/parisxmas/OxiForms/internal/models"
)

type AnalyticsService struct {
	forms FormStore
	subs  SubmissionStore
}

func NewAnalyticsService(forms FormStore, subs SubmissionStore) *AnalyticsService {
	return &AnalyticsService{forms: forms, subs: subs}
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

type FieldSummary struct {
	FieldID  string           `json:"fieldId"`
	Label    string           `json:"label"`
	Type     models.FieldType `json:"type"`
	FillRate int              `json:"fillRate"`
	Counts   map[string]int   `json:"counts,omitempty"`
	Average  *float64         `json:"average,omitempty"`
}

type Report struct {
	TotalResponses int            `json:"totalResponses"`
	FieldCount     int            `json:"fieldCount"`
	ResponsesByDay []DayCount     `json:"responsesByDay"`
	Fields         []FieldSummary `json:"fields"`
}

func (s *AnalyticsService) Report(ctx context.Context, ownerID, formID string) (*Report, error) {
	form, err := ownedForm(ctx, s.forms, ownerID, formID)
	if err != nil {
		return nil, err
	}
	subs, err := s.subs.FindSince(ctx, formID, time.Time{})
	if err != nil {
		return nil, err
	}
	return Summarize(form, subs), nil
}

// Summarize computes the report for a set of submissions. Days are UTC
// calendar dates in ascending order.
func Summarize(form *models.Form, subs []models.Submission) *Report {
	r := &Report{
		TotalResponses: len(subs),
		ResponsesByDay: []DayCount{},
		Fields:         []FieldSummary{},
	}

	days := map[string]int{}
	for _, sub := range subs {
		days[sub.CreatedAt.UTC().Format("2006-01-02")]++
	}
	for d, n := range days {
		r.ResponsesByDay = append(r.ResponsesByDay, DayCount{Date: d, Count: n})
	}
	sort.Slice(r.ResponsesByDay, func(i, j int) bool { return r.ResponsesByDay[i].Date < r.ResponsesByDay[j].Date })

	for _, f := range form.Fields {
		if !engine.Answerable(f.Type) {
			continue
		}
		r.FieldCount++
		r.Fields = append(r.Fields, summarizeField(f, subs))
	}
	return r
}

func summarizeField(f models.Field, subs []models.Submission) FieldSummary {
	sum := FieldSummary{FieldID: f.ID, Label: f.Label, Type: f.Type}

	var values []any
	for _, sub := range subs {
		if v, ok := sub.Data[f.ID]; ok && v != nil && v != "" {
			values = append(values, v)
		}
	}
	if len(subs) > 0 {
		sum.FillRate = int(math.Round(float64(len(values)) / float64(len(subs)) * 100))
	}

	switch f.Type {
	case models.FieldSelect, models.FieldRadio, models.FieldCheckbox:
		sum.Counts = map[string]int{}
		for _, v := range values {
			for _, key := range countKeys(v) {
				sum.Counts[key]++
			}
		}
	case models.FieldNumber:
		var total float64
		var n int
		for _, v := range values {
			if x, ok := v.(float64); ok {
				total += x
				n++
			}
		}
		avg := 0.0
		if n > 0 {
			avg = math.Round(total/float64(n)*10) / 10
		}
		sum.Average = &avg
	}
	return sum
}

func countKeys(v any) []string {
	switch val := v.(type) {
	case bool:
		if val {
			return []string{"Yes"}
		}
		return []string{"No"}
	case []any:
		keys := make([]string, 0, len(val))
		for _, item := range val {
			keys = append(keys, fmt.Sprint(item))
		}
		return keys
	case []string:
		return val
	}
	return []string{fmt.Sprint(v)}
}
