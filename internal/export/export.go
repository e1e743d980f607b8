package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/roach88/scorecard/internal/ir"
	"github.com/roach88/scorecard/internal/scoring"
)

// Fixed columns around the per-criterion block.
const (
	ColJudge          = "judge"
	ColEntryID        = "entry_id"
	ColEntryName      = "entry_name"
	ColEntryProject   = "entry_project"
	ColWeightedScore  = "weighted_score"
	ColComment        = "comment"
	ColSubmissionTime = "submission_time"
)

// Row is one exported record.
type Row struct {
	Judge          string    `json:"judge"`
	EntryID        int       `json:"entry_id"`
	EntryName      string    `json:"entry_name"`
	EntryProject   string    `json:"entry_project"`
	Scores         []int     `json:"scores"` // catalog criterion order, 0 when unscored
	WeightedScore  float64   `json:"weighted_score"`
	Comment        string    `json:"comment"`
	SubmissionTime time.Time `json:"submission_time"`
}

// Table is the projected export.
type Table struct {
	Criteria []ir.Criterion `json:"-"`
	Rows     []Row          `json:"rows"`
}

// Project builds the export table. Records are emitted in the order given;
// the store already orders them by judge then entry. Records without any
// score are skipped. Entries missing from the catalog keep their id and get
// empty name and project.
func Project(cat *ir.Catalog, records []ir.ScoreRecord) Table {
	criteria := cat.Criteria()
	t := Table{Criteria: criteria, Rows: make([]Row, 0, len(records))}

	for _, rec := range records {
		if len(rec.Scores) == 0 {
			continue
		}
		entry, _ := cat.Entry(rec.EntryID)

		row := Row{
			Judge:          rec.Judge,
			EntryID:        rec.EntryID,
			EntryName:      entry.Name,
			EntryProject:   entry.Project,
			Scores:         make([]int, len(criteria)),
			WeightedScore:  scoring.Total(cat, rec.Scores),
			Comment:        rec.Comment,
			SubmissionTime: rec.UpdatedAt,
		}
		for i, c := range criteria {
			row.Scores[i] = rec.Scores[c.ID]
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Empty reports whether the table has no rows. An empty export is a state
// to report to the user, not an error.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Header returns the column names.
func (t Table) Header() []string {
	h := []string{ColJudge, ColEntryID, ColEntryName, ColEntryProject}
	for _, c := range t.Criteria {
		h = append(h, c.Label())
	}
	return append(h, ColWeightedScore, ColComment, ColSubmissionTime)
}

// Records returns the rows as string fields, header excluded.
func (t Table) Records() [][]string {
	out := make([][]string, 0, len(t.Rows))
	for _, r := range t.Rows {
		fields := []string{
			r.Judge,
			strconv.Itoa(r.EntryID),
			r.EntryName,
			r.EntryProject,
		}
		for _, s := range r.Scores {
			fields = append(fields, strconv.Itoa(s))
		}
		fields = append(fields,
			FormatWeighted(r.WeightedScore),
			r.Comment,
			ir.FormatTime(r.SubmissionTime),
		)
		out = append(out, fields)
	}
	return out
}

// FormatWeighted renders a weighted score at full precision.
func FormatWeighted(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// WriteCSV writes the header and all rows as RFC 4180 CSV.
func WriteCSV(w io.Writer, t Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Header()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// FileName returns the conventional export file name for a point in time,
// e.g. judging_results_20250115_090000.csv.
func FileName(t time.Time) string {
	return "judging_results_" + t.Format("20060102_150405") + ".csv"
}
