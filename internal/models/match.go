// internal/models/match.go
package models

import "sort"

// ComponentScores holds the raw per-signal scores behind a match.
type ComponentScores struct {
	Vector     float64 `json:"vector"`
	Lexical    float64 `json:"lexical"`
	Structured float64 `json:"structured"`
}

// MatchResult is one surviving candidate with its scores and the explanation
// of which components fired.
type MatchResult struct {
	CandidateID string                 `json:"candidateId"`
	Scores      ComponentScores        `json:"scores"`
	Combined    float64                `json:"combined"`
	Calibrated  float64                `json:"calibrated"`
	Explanation map[string]interface{} `json:"explanation"`
}

// SortMatches orders results by calibrated score descending, breaking ties
// by candidate identifier so identical inputs produce identical output.
func SortMatches(matches []MatchResult) {
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Calibrated != matches[j].Calibrated {
			return matches[i].Calibrated > matches[j].Calibrated
		}
		return matches[i].CandidateID < matches[j].CandidateID
	})
}

// Decision is one of the three terminal routing states.
type Decision string

const (
	DecisionAuto         Decision = "auto"
	DecisionHighTouch    Decision = "high_touch"
	DecisionManualReview Decision = "manual_review"
)

// RoutingDecision is produced exactly once per matching run.
type RoutingDecision struct {
	Decision           Decision `json:"decision"`
	HighestScore       float64  `json:"highestScore"`
	AutoThreshold      float64  `json:"autoThreshold"`
	HighTouchThreshold float64  `json:"highTouchThreshold"`
	Reason             string   `json:"reason"`
}

// RunStatus tracks the lifecycle of a matching run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// MatchingRun records one pipeline execution for the persistence
// collaborator. The engine fills it in; it does not store it.
type MatchingRun struct {
	ID                    string                 `json:"id"`
	ReferralID            string                 `json:"referralId"`
	Status                RunStatus              `json:"status"`
	CandidatesFound       int                    `json:"candidatesFound"`
	CandidatesShortlisted int                    `json:"candidatesShortlisted"`
	Config                map[string]interface{} `json:"config"`
	ErrorMessage          string                 `json:"errorMessage,omitempty"`
	StartedAt             string                 `json:"startedAt,omitempty"`
	CompletedAt           string                 `json:"completedAt,omitempty"`
}
