package leads

import "time"

// AddAnswer appends a structured answer. Append-only; answers arrive in
// question order.
func (d *LeadData) AddAnswer(key, value string) {
	d.InitialAnswers = append(d.InitialAnswers, Answer{Key: key, Value: value})
}

// AddTurn appends a free-form question/answer pair.
func (d *LeadData) AddTurn(question, answer string, ts time.Time) {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	d.Questions = append(d.Questions, Turn{Question: question, Answer: answer, Timestamp: ts})
}

// Reset clears the accumulated record for a fresh session.
func (d *LeadData) Reset() {
	d.InitialAnswers = nil
	d.Questions = nil
}

// Snapshot returns a copy so callers can't mutate the accumulated
// record through the returned slices.
func (d *LeadData) Snapshot() LeadData {
	out := LeadData{
		InitialAnswers: make([]Answer, len(d.InitialAnswers)),
		Questions:      make([]Turn, len(d.Questions)),
	}
	copy(out.InitialAnswers, d.InitialAnswers)
	copy(out.Questions, d.Questions)
	return out
}
