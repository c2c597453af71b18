// Package authz decides whether an authenticated principal may access a
// patient's resources. Requirements describe the access being requested,
// the Engine evaluates them against ownership and scope-based delegation,
// and the caller merges the returned verdicts into its own Ledger.
package authz

import (
	"fmt"
)

// AccessType is the kind of access a requirement asks for.
type AccessType int

const (
	Read AccessType = iota
	Write
)

func (a AccessType) String() string {
	switch a {
	case Read:
		return "read"
	case Write:
		return "write"
	default:
		return fmt.Sprintf("AccessType(%d)", int(a))
	}
}

// SubjectLookupMethod tells the resolver where the resource's subject
// identifier lives in the inbound request.
type SubjectLookupMethod int

const (
	Route SubjectLookupMethod = iota
	Query
	Body
)

func (m SubjectLookupMethod) String() string {
	switch m {
	case Route:
		return "route"
	case Query:
		return "query"
	case Body:
		return "body"
	default:
		return fmt.Sprintf("SubjectLookupMethod(%d)", int(m))
	}
}

// DelegationType is the scope prefix a delegated caller presents.
type DelegationType string

const (
	SystemDelegation DelegationType = "system"
	UserDelegation   DelegationType = "user"
)

// PatientResource is the resource type for patient data.
const PatientResource = "Patient"

// Requirement is a closed set of access requirements. The engine handles
// PatientRequirement and ResourceRequirement; anything else embeds Custom and
// is left for other handlers.
type Requirement interface {
	fmt.Stringer
	requirement()
}

// PatientRequirement is satisfied by any caller that carries a subject
// identifier claim, i.e. is itself a patient.
type PatientRequirement struct{}

func (PatientRequirement) requirement() {}

func (PatientRequirement) String() string { return "Patient" }

// ResourceRequirement asks for read or write access to a specific subject's
// resource. It is immutable; build it with NewResourceRequirement or the
// PatientRead/PatientWrite helpers.
type ResourceRequirement struct {
	resourceType     string
	access           AccessType
	lookup           SubjectLookupMethod
	systemDelegation bool
	userDelegation   bool
}

func (ResourceRequirement) requirement() {}

// RequirementOption enables a delegation mode on a ResourceRequirement.
type RequirementOption func(*ResourceRequirement)

// WithSystemDelegation lets machine callers satisfy the requirement with a
// system/ scope.
func WithSystemDelegation() RequirementOption {
	return func(r *ResourceRequirement) { r.systemDelegation = true }
}

// WithUserDelegation lets a user acting for another subject be considered
// for user/ scope delegation.
func WithUserDelegation() RequirementOption {
	return func(r *ResourceRequirement) { r.userDelegation = true }
}

func NewResourceRequirement(resourceType string, access AccessType, lookup SubjectLookupMethod, opts ...RequirementOption) ResourceRequirement {
	r := ResourceRequirement{
		resourceType: resourceType,
		access:       access,
		lookup:       lookup,
	}
	for _, opt := range opts {
		opt(&r)
	}
	return r
}

// PatientRead requires read access to the patient identified via lookup.
func PatientRead(lookup SubjectLookupMethod, opts ...RequirementOption) ResourceRequirement {
	return NewResourceRequirement(PatientResource, Read, lookup, opts...)
}

// PatientWrite requires write access to the patient identified via lookup.
func PatientWrite(lookup SubjectLookupMethod, opts ...RequirementOption) ResourceRequirement {
	return NewResourceRequirement(PatientResource, Write, lookup, opts...)
}

func (r ResourceRequirement) ResourceType() string              { return r.resourceType }
func (r ResourceRequirement) AccessType() AccessType            { return r.access }
func (r ResourceRequirement) LookupMethod() SubjectLookupMethod { return r.lookup }
func (r ResourceRequirement) SupportsSystemDelegation() bool    { return r.systemDelegation }
func (r ResourceRequirement) SupportsUserDelegation() bool      { return r.userDelegation }

func (r ResourceRequirement) String() string {
	return fmt.Sprintf("%s.%s(%s)", r.resourceType, r.access, r.lookup)
}

// Custom is embedded by requirement types that other handlers evaluate.
type Custom struct {
	Name string
}

func (Custom) requirement() {}

func (c Custom) String() string { return c.Name }
