package authz

// RequirementID identifies a requirement within one Ledger.
type RequirementID int

// Verdict is the outcome a handler reports for one requirement.
type Verdict int

const (
	Pending Verdict = iota
	Succeeded
)

func (v Verdict) String() string {
	if v == Succeeded {
		return "succeeded"
	}
	return "pending"
}

// EvaluationResult holds the verdicts a handler reached. Requirements the
// handler did not act on have no entry.
type EvaluationResult map[RequirementID]Verdict

// Succeeded reports whether the result marks id as succeeded.
func (r EvaluationResult) Succeeded(id RequirementID) bool {
	return r[id] == Succeeded
}

// PendingRequirement pairs a requirement with its ledger id.
type PendingRequirement struct {
	ID          RequirementID
	Requirement Requirement
}

// Ledger is the caller-owned set of requirements for one authorization
// evaluation. Handlers read it and return verdicts; only the caller mutates it.
type Ledger struct {
	requirements []Requirement
	succeeded    []bool
}

func NewLedger(reqs ...Requirement) *Ledger {
	return &Ledger{
		requirements: reqs,
		succeeded:    make([]bool, len(reqs)),
	}
}

// Pending returns the requirements not yet marked succeeded.
func (l *Ledger) Pending() []PendingRequirement {
	var out []PendingRequirement
	for i, r := range l.requirements {
		if !l.succeeded[i] {
			out = append(out, PendingRequirement{ID: RequirementID(i), Requirement: r})
		}
	}
	return out
}

// Succeed marks one requirement as succeeded. Unknown ids are ignored.
func (l *Ledger) Succeed(id RequirementID) {
	if int(id) >= 0 && int(id) < len(l.succeeded) {
		l.succeeded[id] = true
	}
}

// Merge applies every Succeeded verdict in res.
func (l *Ledger) Merge(res EvaluationResult) {
	for id, v := range res {
		if v == Succeeded {
			l.Succeed(id)
		}
	}
}

func (l *Ledger) HasSucceeded(id RequirementID) bool {
	return int(id) >= 0 && int(id) < len(l.succeeded) && l.succeeded[id]
}

// AllSucceeded reports whether every requirement succeeded. An empty ledger
// has nothing granting access and reports false.
func (l *Ledger) AllSucceeded() bool {
	if len(l.requirements) == 0 {
		return false
	}
	for _, ok := range l.succeeded {
		if !ok {
			return false
		}
	}
	return true
}

func (l *Ledger) Len() int { return len(l.requirements) }
