// Package export writes match analyses to spreadsheet reports.
package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/spigell/resume-matcher/internal/matching"
)

const (
	SheetSummary     = "Summary"
	SheetSkills      = "Skills"
	SheetKeywords    = "Keywords"
	SheetSuggestions = "Suggestions"
)

// WriteAnalysis saves a as an .xlsx workbook and returns the final path.
// The extension is appended when missing.
func WriteAnalysis(path string, a *matching.MatchAnalysis) (string, error) {
	if a == nil {
		return "", fmt.Errorf("analysis is required")
	}

	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		return "", fmt.Errorf("rename default sheet: %w", err)
	}
	for _, name := range []string{SheetSkills, SheetKeywords, SheetSuggestions} {
		if _, err := f.NewSheet(name); err != nil {
			return "", fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	header, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "left", Vertical: "center"},
	})
	if err != nil {
		return "", fmt.Errorf("create header style: %w", err)
	}

	steps := []struct {
		name string
		fn   func(*excelize.File, *matching.MatchAnalysis, int) error
	}{
		{SheetSummary, writeSummary},
		{SheetSkills, writeSkills},
		{SheetKeywords, writeKeywords},
		{SheetSuggestions, writeSuggestions},
	}
	for _, step := range steps {
		if err := step.fn(f, a, header); err != nil {
			return "", fmt.Errorf("write %s sheet: %w", strings.ToLower(step.name), err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("save workbook: %w", err)
	}
	return path, nil
}

func writeSummary(f *excelize.File, a *matching.MatchAnalysis, header int) error {
	rows := [][]any{
		{"Field", "Value"},
		{"Name", a.Name},
		{"Role", a.Role},
		{"Match score", a.MatchScore},
		{"Skill similarity", a.Similarity.Skills},
		{"Keyword similarity", a.Similarity.Keywords},
		{"Experience similarity", a.Similarity.Experience},
		{"Summary", a.Summary},
		{"What matters most", a.WhatMattersMost},
	}
	if err := writeRows(f, SheetSummary, rows, header); err != nil {
		return err
	}
	return f.SetColWidth(SheetSummary, "B", "B", 80)
}

func writeSkills(f *excelize.File, a *matching.MatchAnalysis, header int) error {
	rows := [][]any{{"Skill", "Category", "In resume", "Highlighted by job"}}
	for _, s := range a.Skills {
		rows = append(rows, []any{s.Name, string(s.Category), yesNo(s.PresentInResume), yesNo(s.Highlight)})
	}
	rows = append(rows, []any{})
	rows = append(rows, []any{"Missing skills", strings.Join(a.MissingSkills, ", ")})
	rows = append(rows, []any{"Missing experience", strings.Join(a.MissingExperience, ", ")})
	return writeRows(f, SheetSkills, rows, header)
}

func writeKeywords(f *excelize.File, a *matching.MatchAnalysis, header int) error {
	missing := make(map[string]bool, len(a.MissingKeywords))
	for _, k := range a.MissingKeywords {
		missing[k] = true
	}

	rows := [][]any{{"Keyword", "Category", "Missing"}}
	for _, k := range a.JobKeywords {
		rows = append(rows, []any{k.Word, string(k.Category), yesNo(missing[k.Word])})
	}
	return writeRows(f, SheetKeywords, rows, header)
}

func writeSuggestions(f *excelize.File, a *matching.MatchAnalysis, header int) error {
	rows := [][]any{{"#", "Suggestion"}}
	for i, s := range a.ImprovementSuggestions {
		rows = append(rows, []any{i + 1, s})
	}
	rows = append(rows, []any{})
	rows = append(rows, []any{"", "Missing for a perfect match"})
	for _, m := range a.MissingForPerfectMatch {
		rows = append(rows, []any{"", m})
	}
	return writeRows(f, SheetSuggestions, rows, header)
}

// writeRows writes rows starting at A1 and styles the first one as a header.
func writeRows(f *excelize.File, sheet string, rows [][]any, header int) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}

	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", last, header)
}

func yesNo(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}
