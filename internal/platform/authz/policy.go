package authz

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Policy names registered by DefaultPolicies.
const (
	PolicyPatientRead      = "patient.read"
	PolicyPatientWrite     = "patient.write"
	PolicyPatientReadQuery = "patient.read.query"
	PolicyPatientWriteBody = "patient.write.body"
	PolicyUserIsPatient    = "user.patient"
)

// ErrUnknownPolicy is returned for names that were never registered.
var ErrUnknownPolicy = errors.New("unknown authorization policy")

// PolicyBuilder returns a fresh requirement list for one evaluation.
type PolicyBuilder func() []Requirement

// PolicyRegistry maps policy names to requirement builders.
type PolicyRegistry struct {
	mu       sync.RWMutex
	policies map[string]PolicyBuilder
}

func NewPolicyRegistry() *PolicyRegistry {
	return &PolicyRegistry{policies: make(map[string]PolicyBuilder)}
}

// DefaultPolicies returns a registry holding the patient policies used by the
// gateway's protected routes. Read policies accept system delegates, which
// carry no subject identifier of their own; write policies require the caller
// to be the patient.
func DefaultPolicies() *PolicyRegistry {
	r := NewPolicyRegistry()
	r.Register(PolicyUserIsPatient, func() []Requirement {
		return []Requirement{PatientRequirement{}}
	})
	r.Register(PolicyPatientRead, func() []Requirement {
		return []Requirement{PatientRead(Route, WithSystemDelegation())}
	})
	r.Register(PolicyPatientWrite, func() []Requirement {
		return []Requirement{PatientRequirement{}, PatientWrite(Route)}
	})
	r.Register(PolicyPatientReadQuery, func() []Requirement {
		return []Requirement{PatientRead(Query, WithSystemDelegation())}
	})
	r.Register(PolicyPatientWriteBody, func() []Requirement {
		return []Requirement{PatientRequirement{}, PatientWrite(Body)}
	})
	return r
}

// Register adds or replaces a policy.
func (r *PolicyRegistry) Register(name string, build PolicyBuilder) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[name] = build
}

// Requirements builds the requirement list for the named policy.
func (r *PolicyRegistry) Requirements(name string) ([]Requirement, error) {
	r.mu.RLock()
	build, ok := r.policies[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPolicy, name)
	}
	return build(), nil
}

// Names lists the registered policies in sorted order.
func (r *PolicyRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.policies))
	for n := range r.policies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
