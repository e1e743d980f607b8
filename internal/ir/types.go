package ir

import (
	"slices"
	"time"
)

// Score bounds for a single criterion rating.
const (
	MinScore = 1
	MaxScore = 5
)

// Entry is a competition submission being judged.
type Entry struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Project string `json:"project"`
	Domain  string `json:"domain,omitempty"`
	Data    string `json:"data,omitempty"`
	Members string `json:"members,omitempty"`
}

// Criterion is one weighted rubric dimension.
type Criterion struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Weight      int            `json:"weight"` // percent; weights sum to the catalog's WeightTotal
	Description string         `json:"description,omitempty"`
	Levels      map[int]string `json:"levels,omitempty"` // score -> rubric text
}

// Label returns the export column label, e.g. "Learning & Reflection (10%)".
func (c Criterion) Label() string {
	return c.Name + " (" + itoa(c.Weight) + "%)"
}

// Scores maps criterion ID to a raw 1-5 score.
// Keys are a subset of the catalog's criterion IDs; completeness is not required.
type Scores map[string]int

// SortedKeys returns criterion IDs in ascending order.
func (s Scores) SortedKeys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// ScoreRecord is the stored evaluation of one entry by one judge.
// The (Judge, EntryID) pair is the uniqueness key.
type ScoreRecord struct {
	Judge     string    `json:"judge"`
	EntryID   int       `json:"entry_id"`
	Scores    Scores    `json:"scores"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Exists reports whether the record has been persisted.
// Load returns a record with a zero UpdatedAt for pairs never saved.
func (r ScoreRecord) Exists() bool {
	return !r.UpdatedAt.IsZero()
}

// Judge is the stored identity row for a judge.
type Judge struct {
	Identity     string     `json:"identity"`
	Email        string     `json:"email,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	LastActiveAt time.Time  `json:"last_active_at"`
	SubmittedAt  *time.Time `json:"submitted_at,omitempty"`
}

// Progress summarizes how many entries a judge has fully scored.
type Progress struct {
	Judge     string `json:"judge"`
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
}

// Done reports whether every entry is complete.
func (p Progress) Done() bool {
	return p.Total > 0 && p.Completed == p.Total
}

// Fraction returns Completed/Total in [0,1].
func (p Progress) Fraction() float64 {
	if p.Total == 0 {
		return 0
	}
	return float64(p.Completed) / float64(p.Total)
}
