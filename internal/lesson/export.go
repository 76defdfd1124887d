package lesson

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	outlineSheet    = "Outline"
	assessmentSheet = "Assessments"
)

// ExportXLSX writes a spreadsheet with one outline row per node and one row
// per assessment question.
func ExportXLSX(doc *Document, w io.Writer) error {
	if doc == nil {
		return ErrNilDocument
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", outlineSheet); err != nil {
		return fmt.Errorf("naming outline sheet: %w", err)
	}
	if _, err := f.NewSheet(assessmentSheet); err != nil {
		return fmt.Errorf("adding assessment sheet: %w", err)
	}

	outline := [][]any{{"Path", "Level", "Title", "Summary", "XP", "Questions"}}
	questions := [][]any{{"Path", "#", "Type", "Question", "Details"}}

	add := func(p Path, n Node, xp any) {
		outline = append(outline, []any{p.String(), p.Level.String(), n.NodeTitle(), n.NodeSummary(), xp, len(n.Questions())})
		for i, q := range n.Questions() {
			questions = append(questions, []any{p.String(), i + 1, string(q.Type()), q.Text(), questionDetails(q)})
		}
	}

	for t, term := range doc.Terms {
		add(PathTo(t), term, "")
		for p, topic := range term.Topics {
			add(PathTo(t, p), topic, "")
			for l, les := range topic.Lessons {
				add(PathTo(t, p, l), les, les.XP)
				for c, ch := range les.Chapters {
					add(PathTo(t, p, l, c), ch, ch.XP)
				}
			}
		}
	}

	if err := writeRows(f, outlineSheet, outline); err != nil {
		return err
	}
	if err := writeRows(f, assessmentSheet, questions); err != nil {
		return err
	}
	if err := f.SetColWidth(outlineSheet, "C", "D", 40); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, r+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("writing %s row %d: %w", sheet, r+1, err)
		}
	}
	return nil
}

func questionDetails(q Question) string {
	switch v := q.(type) {
	case MultipleChoice:
		opts := make([]string, len(v.Options))
		for i, o := range v.Options {
			mark := ""
			if i == v.CorrectIndex {
				mark = "*"
			}
			opts[i] = mark + o
		}
		return strings.Join(opts, " | ")
	case Written:
		return fmt.Sprintf("%d words", v.WordLimit)
	case Scenario:
		return v.ImageURL
	}
	return ""
}
