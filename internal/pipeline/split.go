package pipeline

import (
	"fmt"
	"time"

	"github.com/ntentasd/pdm-pipeline/pkg/types"
)

// Split is one leakage-safe train/test partition. Records inside the buffer
// [cutoff, cutoff+H·B] belong to neither side: their label horizon or
// feature lookback would straddle the boundary.
type Split struct {
	Cutoff time.Time
	Train  []types.LabelledRecord
	Test   []types.LabelledRecord
}

// TemporalSplitter partitions the labelled table at a cutoff timestamp with
// a horizon-sized buffer, and verifies the result before anything downstream
// trains on it.
type TemporalSplitter struct {
	horizon time.Duration
}

func NewTemporalSplitter(cfg Config) *TemporalSplitter {
	return &TemporalSplitter{horizon: cfg.Horizon()}
}

// Split partitions records: train strictly before the cutoff, test strictly
// after cutoff+H·B. upper bounds the test side for walk-forward folds; zero
// means unbounded.
func (s *TemporalSplitter) Split(records []types.LabelledRecord, cutoff, upper time.Time) (*Split, error) {
	bufferEnd := cutoff.Add(s.horizon)
	if !upper.IsZero() && !upper.After(bufferEnd) {
		return nil, &LeakageError{
			Cutoff: cutoff,
			Reason: fmt.Sprintf("fold upper bound %s is inside the horizon buffer", upper.Format(time.DateTime)),
		}
	}

	sp := &Split{Cutoff: cutoff}
	for _, r := range records {
		switch {
		case r.Timestamp.Before(cutoff):
			sp.Train = append(sp.Train, r)
		case r.Timestamp.After(bufferEnd) && (upper.IsZero() || !r.Timestamp.After(upper)):
			sp.Test = append(sp.Test, r)
		}
	}

	if err := s.check(sp); err != nil {
		return nil, err
	}
	return sp, nil
}

// WalkForward applies the cutoffs in order; each fold's test side ends where
// the next cutoff begins, so folds never share a test record when metrics
// are aggregated across them.
func (s *TemporalSplitter) WalkForward(records []types.LabelledRecord, cutoffs []time.Time) ([]*Split, error) {
	splits := make([]*Split, 0, len(cutoffs))
	for i, cutoff := range cutoffs {
		if i > 0 && !cutoff.After(cutoffs[i-1]) {
			return nil, &LeakageError{
				Cutoff: cutoff,
				Reason: "walk-forward cutoffs must be strictly increasing",
			}
		}

		var upper time.Time
		if i+1 < len(cutoffs) {
			upper = cutoffs[i+1]
		}
		sp, err := s.Split(records, cutoff, upper)
		if err != nil {
			return nil, err
		}
		splits = append(splits, sp)
	}
	return splits, nil
}

func (s *TemporalSplitter) check(sp *Split) error {
	bufferEnd := sp.Cutoff.Add(s.horizon)
	for _, r := range sp.Train {
		if !r.Timestamp.Before(sp.Cutoff) {
			return &LeakageError{Cutoff: sp.Cutoff, Reason: "train record at or after cutoff"}
		}
	}
	for _, r := range sp.Test {
		if !r.Timestamp.After(bufferEnd) {
			return &LeakageError{Cutoff: sp.Cutoff, Reason: "test record inside the horizon buffer"}
		}
	}
	return nil
}
