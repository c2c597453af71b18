package auth

import (
	"fmt"
	"strings"
)

// Scope is a parsed resource scope.
// Format: <type>/<resource>.<access>
// Examples: system/Patient.read, user/*.write, system/*.*
type Scope struct {
	Type     string // "system", "user" or "patient"
	Resource string // e.g. "Patient" or "*"
	Access   string // "read", "write" or "*"
}

func (s Scope) String() string {
	return s.Type + "/" + s.Resource + "." + s.Access
}

// Wildcard matches any resource or any access in a scope.
const Wildcard = "*"

// ParseScope parses a resource scope string into its components. Non-resource
// scopes such as "openid" or "profile" return an error.
func ParseScope(scope string) (Scope, error) {
	slashIdx := strings.Index(scope, "/")
	if slashIdx < 0 {
		return Scope{}, fmt.Errorf("not a resource scope: %s", scope)
	}

	typ := scope[:slashIdx]
	remainder := scope[slashIdx+1:]

	if typ != "system" && typ != "user" && typ != "patient" {
		return Scope{}, fmt.Errorf("invalid scope type %q: must be system, user, or patient", typ)
	}

	dotIdx := strings.LastIndex(remainder, ".")
	if dotIdx < 0 {
		return Scope{}, fmt.Errorf("invalid scope format %q: missing access", scope)
	}

	resource := remainder[:dotIdx]
	access := remainder[dotIdx+1:]

	if resource == "" {
		return Scope{}, fmt.Errorf("invalid scope %q: empty resource", scope)
	}
	if access != "read" && access != "write" && access != Wildcard {
		return Scope{}, fmt.Errorf("invalid access %q: must be read, write, or *", access)
	}

	return Scope{Type: typ, Resource: resource, Access: access}, nil
}

// AcceptedScopes returns every scope string that grants access of the given
// type to the resource: the exact scope plus its resource and access wildcards.
func AcceptedScopes(delegationType, access, resource string) map[string]struct{} {
	return map[string]struct{}{
		Scope{delegationType, Wildcard, Wildcard}.String(): {},
		Scope{delegationType, Wildcard, access}.String():   {},
		Scope{delegationType, resource, Wildcard}.String(): {},
		Scope{delegationType, resource, access}.String():   {},
	}
}

// GrantedScopes splits a space-delimited scope claim into a set of tokens.
// Tokens are not validated; malformed ones never match an accepted scope.
func GrantedScopes(raw string) map[string]struct{} {
	fields := strings.Fields(raw)
	granted := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		granted[f] = struct{}{}
	}
	return granted
}

// Intersects reports whether any granted scope is also accepted.
func Intersects(granted, accepted map[string]struct{}) bool {
	if len(accepted) < len(granted) {
		granted, accepted = accepted, granted
	}
	for s := range granted {
		if _, ok := accepted[s]; ok {
			return true
		}
	}
	return false
}
