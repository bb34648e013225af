package model

import (
	"errors"
	"fmt"
	"sort"

	"github.com/preppal/backend/internal/features"
)

// SegmentModel pairs one encoded business value with the ridge fitted on
// that segment's rows.
type SegmentModel struct {
	Code  float64 `json:"code"`
	Model *Ridge  `json:"model"`
}

// Segmented fits one ridge per business code plus a pooled ridge over all
// rows. Weekend demand moves in opposite directions across business types
// (restaurants surge, cafes dip), which one shared linear weight cannot
// express; per-segment fits can.
type Segmented struct {
	Alpha        float64        `json:"alpha"`
	SegmentIndex int            `json:"segment_index"`
	Segments     []SegmentModel `json:"segments,omitempty"`
	Pooled       *Ridge         `json:"pooled"`
}

// NewSegmented creates an unfitted segmented regressor splitting on the
// business_encoded column.
func NewSegmented(alpha float64) *Segmented {
	return &Segmented{Alpha: alpha, SegmentIndex: features.FBusinessEncoded}
}

// Fit fits the pooled ridge on every row, then one ridge per distinct
// segment code. Rows narrower than the segment column, and corpora with a
// single code, train the pooled ridge only.
func (s *Segmented) Fit(rows [][]float64, labels []float64) error {
	if len(rows) == 0 {
		return errors.New("segmented: no training rows")
	}
	if len(labels) != len(rows) {
		return fmt.Errorf("segmented: %d rows but %d labels", len(rows), len(labels))
	}

	s.Pooled = NewRidge(s.Alpha)
	if err := s.Pooled.Fit(rows, labels); err != nil {
		return err
	}
	s.Segments = nil
	if s.SegmentIndex >= len(rows[0]) {
		return nil
	}

	byCode := make(map[float64][]int)
	codes := make([]float64, 0, 4)
	for i, row := range rows {
		code := row[s.SegmentIndex]
		if _, seen := byCode[code]; !seen {
			codes = append(codes, code)
		}
		byCode[code] = append(byCode[code], i)
	}
	if len(codes) < 2 {
		return nil
	}
	sort.Float64s(codes)

	for _, code := range codes {
		idx := byCode[code]
		segX := make([][]float64, len(idx))
		segY := make([]float64, len(idx))
		for j, i := range idx {
			segX[j] = rows[i]
			segY[j] = labels[i]
		}
		r := NewRidge(s.Alpha)
		if err := r.Fit(segX, segY); err != nil {
			return fmt.Errorf("segmented: code %v: %w", code, err)
		}
		s.Segments = append(s.Segments, SegmentModel{Code: code, Model: r})
	}
	return nil
}

// Predict dispatches on the row's segment code. Unseen codes and rows
// without the segment column fall back to the pooled fit.
func (s *Segmented) Predict(row []float64) (float64, error) {
	if s.Pooled == nil {
		return 0, errors.New("segmented: not fitted")
	}
	if s.SegmentIndex < len(row) {
		code := row[s.SegmentIndex]
		for _, seg := range s.Segments {
			if seg.Code == code {
				return seg.Model.Predict(row)
			}
		}
	}
	return s.Pooled.Predict(row)
}
