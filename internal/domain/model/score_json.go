package model

import (
	"encoding/json"
	"math"
)

// scoreAlias drops the methods of Score to avoid recursion.
type scoreAlias Score

// MarshalJSON encodes the worst-score sentinel as a null value, since JSON
// has no representation for infinity.
func (s Score) MarshalJSON() ([]byte, error) {
	out := struct {
		Value *float64 `json:"value"`
		scoreAlias
	}{scoreAlias: scoreAlias(s)}
	if !math.IsInf(s.Value, 0) && !math.IsNaN(s.Value) {
		v := s.Value
		out.Value = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a null value as the worst-score sentinel.
func (s *Score) UnmarshalJSON(b []byte) error {
	var in struct {
		Value *float64 `json:"value"`
		scoreAlias
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*s = Score(in.scoreAlias)
	if in.Value == nil {
		s.Value = math.Inf(1)
	} else {
		s.Value = *in.Value
	}
	return nil
}
