package dataset

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"

	"fms-squat-go/internal/actionable"
	"fms-squat-go/internal/aggregator"
	"fms-squat-go/internal/types"
)

const (
	ResultsSheet = "Results"
	SummarySheet = "Summary"
)

var resultsHeader = []any{
	"Row", "Media", "Reported Pain", "Score", "Classification",
	"Depth", "Torso", "Heels", "Knees", "Arms",
	"Compensations", "Strengths", "Improvements", "Mobility Focus",
	"Summary", "Duration (ms)", "Error",
}

// WriteReport saves a workbook with one Results row per record and a
// Summary sheet holding the aggregate and the action card.
func WriteReport(path string, records []types.ScreenedRecord, ins aggregator.Insight, card actionable.ActionCard) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), ResultsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SummarySheet); err != nil {
		return fmt.Errorf("add summary sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create style: %w", err)
	}

	results := [][]any{resultsHeader}
	for _, r := range records {
		results = append(results, resultRow(r))
	}
	if err := writeRows(f, ResultsSheet, results); err != nil {
		return err
	}
	if err := f.SetRowStyle(ResultsSheet, 1, 1, bold); err != nil {
		return fmt.Errorf("style header: %w", err)
	}

	if err := writeRows(f, SummarySheet, summaryRows(ins, card)); err != nil {
		return err
	}
	if err := f.SetColStyle(SummarySheet, "A", bold); err != nil {
		return fmt.Errorf("style summary: %w", err)
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func resultRow(r types.ScreenedRecord) []any {
	row := []any{r.Row, r.MediaPath, yesNo(r.ReportedPain)}
	if r.Result == nil {
		row = append(row, make([]any, 12)...)
		return append(row, r.DurationMs, r.Error)
	}
	res := r.Result
	return append(row,
		res.Score,
		string(res.Classification),
		res.Observations.Depth,
		res.Observations.Torso,
		res.Observations.Heels,
		res.Observations.Knees,
		res.Observations.Arms,
		strings.Join(res.CompensationsDetected, "; "),
		strings.Join(res.Strengths, "; "),
		strings.Join(res.Improvements, "; "),
		strings.Join(res.MobilityFocusAreas, "; "),
		res.Summary,
		r.DurationMs,
		"",
	)
}

func summaryRows(ins aggregator.Insight, card actionable.ActionCard) [][]any {
	rows := [][]any{
		{"Total", ins.Total},
		{"Succeeded", ins.Succeeded},
		{"Failed", ins.Failed},
		{"Average score", fmt.Sprintf("%.2f", ins.AverageScore)},
		{"Pain rate", fmt.Sprintf("%.0f%%", ins.PainRate*100)},
		{"Depth disagreements", ins.DepthDisagreements},
		{},
		{"Score distribution"},
	}
	for score := 3; score >= 0; score-- {
		label, _ := types.ClassificationForScore(score)
		rows = append(rows, []any{fmt.Sprintf("%d (%s)", score, label), ins.ScoreDistribution[score]})
	}

	rows = append(rows, []any{}, []any{"Top compensations"})
	for _, c := range ins.TopCompensations {
		rows = append(rows, []any{c.Label, c.Count})
	}
	rows = append(rows, []any{}, []any{"Top mobility focus areas"})
	for _, c := range ins.TopMobilityAreas {
		rows = append(rows, []any{c.Label, c.Count})
	}

	return append(rows,
		[]any{},
		[]any{"Insight", card.Insight},
		[]any{"Action", card.Action},
		[]any{"Impact", card.Impact},
	)
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
