package model

import "regexp"

// CandidateIDPattern is the required shape of a Candidate.ID: cand_ followed
// by exactly four decimal digits.
var CandidateIDPattern = regexp.MustCompile(`^cand_\d{4}$`)

// Candidate is one MILP-generated structure proposal. Candidates are
// immutable once written to the artifact store; a later iteration
// overwrites the file for the same ID rather than mutating it in place.
type Candidate struct {
	CandidateID string  `json:"candidate_id"`
	Score       float64 `json:"score"`
	Format      string  `json:"format"` // always "cif" from the stub/real tool
	Content     string  `json:"content"`
}
