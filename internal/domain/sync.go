package domain

import (
	"encoding/json"
	"sort"
	"time"
)

// VisitedPages is the set of page indices whose batch upsert has committed.
type VisitedPages map[int]struct{}

func NewVisitedPages(pages ...int) VisitedPages {
	v := make(VisitedPages, len(pages))
	for _, p := range pages {
		v.Add(p)
	}
	return v
}

func (v VisitedPages) Add(page int) {
	v[page] = struct{}{}
}

func (v VisitedPages) Contains(page int) bool {
	_, ok := v[page]
	return ok
}

// Sorted returns the page indices in ascending order.
func (v VisitedPages) Sorted() []int {
	pages := make([]int, 0, len(v))
	for p := range v {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages
}

// MarshalJSON serializes the set as a sorted list of page indices so the
// on-disk form is stable across runs.
func (v VisitedPages) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Sorted())
}

func (v *VisitedPages) UnmarshalJSON(data []byte) error {
	var pages []int
	if err := json.Unmarshal(data, &pages); err != nil {
		return err
	}
	*v = NewVisitedPages(pages...)
	return nil
}

// SyncSummary holds the outcome of one sync run.
type SyncSummary struct {
	PagesProcessed int
	Created        int
	Updated        int
	Errored        int
	Published      int
	Aborted        bool
	Duration       time.Duration
}
