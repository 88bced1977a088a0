package service

import "github.com/sifan077/QuotaLink/internal/app/model"

// Outcome enumerates the expected, non-error results of link operations.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeNotFound
	OutcomeForbidden
	OutcomeExpired
	OutcomeLimitReached
	// OutcomeLimitBelowUsage rejects a limit lower than the clicks already used.
	OutcomeLimitBelowUsage
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNotFound:
		return "not_found"
	case OutcomeForbidden:
		return "forbidden"
	case OutcomeExpired:
		return "expired"
	case OutcomeLimitReached:
		return "limit_reached"
	case OutcomeLimitBelowUsage:
		return "limit_below_usage"
	default:
		return "unknown"
	}
}

// OpenResult is the resolution of a code. Target is set only for OutcomeOK.
type OpenResult struct {
	Outcome Outcome
	Target  string
	// LastClick is true only on the call whose click disabled the link.
	LastClick bool
	Link      *model.Link
}

// InfoResult carries the link for its owner; Link is nil otherwise.
type InfoResult struct {
	Outcome Outcome
	Link    *model.Link
}
