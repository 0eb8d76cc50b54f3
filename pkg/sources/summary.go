package sources

import (
	"bytes"
	"encoding/json"
	"slices"
	"time"

	"github.com/defeedco/prefetch/pkg/sources/types"
	"github.com/samber/lo"
)

// Summary is the report of one run, written to the SummarySlot.
type Summary struct {
	FetchTime          time.Time                `json:"fetch_time"`
	Results            map[string]types.Outcome `json:"results"`
	SuccessCount       int                      `json:"success_count"`
	Total              int                      `json:"total_apis"`
	NextScheduledFetch time.Time                `json:"next_scheduled_fetch"`

	// Order lists the processed sources in the order they ran.
	Order []string `json:"-"`
}

func newSummary(fetchTime time.Time, capacity int) *Summary {
	return &Summary{
		FetchTime: fetchTime,
		Results:   make(map[string]types.Outcome, capacity),
		Order:     make([]string, 0, capacity),
	}
}

func (s *Summary) record(name string, outcome types.Outcome) {
	s.Order = append(s.Order, name)
	s.Results[name] = outcome
	s.Total++
	if outcome == types.OutcomeSuccess {
		s.SuccessCount++
	}
}

// OK reports whether every processed source succeeded. An empty run is OK.
func (s *Summary) OK() bool {
	return s.SuccessCount == s.Total
}

// Failed returns the names of the sources that did not succeed, in run order.
func (s *Summary) Failed() []string {
	var out []string
	for _, name := range s.Order {
		if s.Results[name] != types.OutcomeSuccess {
			out = append(out, name)
		}
	}
	return out
}

// MarshalJSON writes results in run order, so the file reads like the run.
func (s Summary) MarshalJSON() ([]byte, error) {
	type plain Summary

	results, err := s.orderedResults()
	if err != nil {
		return nil, err
	}

	return json.Marshal(struct {
		plain
		Results json.RawMessage `json:"results"`
	}{
		plain:   plain(s),
		Results: results,
	})
}

func (s Summary) orderedResults() (json.RawMessage, error) {
	unordered := lo.Without(lo.Keys(s.Results), s.Order...)
	slices.Sort(unordered)

	var b bytes.Buffer
	b.WriteByte('{')
	for i, name := range append(slices.Clone(s.Order), unordered...) {
		if i > 0 {
			b.WriteByte(',')
		}
		key, err := json.Marshal(name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(s.Results[name])
		if err != nil {
			return nil, err
		}
		b.Write(key)
		b.WriteByte(':')
		b.Write(value)
	}
	b.WriteByte('}')

	return b.Bytes(), nil
}
