package auth

import (
	"sort"
	"testing"
)

func TestParseScope(t *testing.T) {
	tests := []struct {
		name    string
		scope   string
		want    Scope
		wantErr bool
	}{
		{name: "system read", scope: "system/Patient.read", want: Scope{"system", "Patient", "read"}},
		{name: "user write", scope: "user/Observation.write", want: Scope{"user", "Observation", "write"}},
		{name: "system wildcard all", scope: "system/*.*", want: Scope{"system", "*", "*"}},
		{name: "user wildcard resource", scope: "user/*.read", want: Scope{"user", "*", "read"}},
		{name: "patient context", scope: "patient/Patient.read", want: Scope{"patient", "Patient", "read"}},
		{name: "openid", scope: "openid", wantErr: true},
		{name: "unknown type", scope: "admin/Patient.read", wantErr: true},
		{name: "missing access", scope: "system/Patient", wantErr: true},
		{name: "empty resource", scope: "system/.read", wantErr: true},
		{name: "bad access", scope: "system/Patient.delete", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScope(tt.scope)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.scope)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
			if got.String() != tt.scope {
				t.Errorf("expected round trip %q, got %q", tt.scope, got.String())
			}
		})
	}
}

func TestAcceptedScopes(t *testing.T) {
	got := AcceptedScopes("system", "read", "Patient")

	var keys []string
	for k := range got {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	want := []string{"system/*.*", "system/*.read", "system/Patient.*", "system/Patient.read"}
	if len(keys) != len(want) {
		t.Fatalf("expected %d scopes, got %v", len(want), keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Errorf("scope %d: expected %q, got %q", i, want[i], keys[i])
		}
	}
}

func TestAcceptedScopes_NoSharedState(t *testing.T) {
	a := AcceptedScopes("user", "write", "Patient")
	delete(a, "user/*.*")

	b := AcceptedScopes("user", "write", "Patient")
	if _, ok := b["user/*.*"]; !ok {
		t.Error("mutating one result must not affect the next call")
	}
}

func TestGrantedScopes(t *testing.T) {
	got := GrantedScopes("  openid\tsystem/Patient.read \n user/*.*  ")
	for _, s := range []string{"openid", "system/Patient.read", "user/*.*"} {
		if _, ok := got[s]; !ok {
			t.Errorf("expected %q in granted scopes", s)
		}
	}
	if len(got) != 3 {
		t.Errorf("expected 3 tokens, got %d", len(got))
	}

	if len(GrantedScopes("")) != 0 {
		t.Error("expected no tokens for empty claim")
	}
}

func TestIntersects(t *testing.T) {
	accepted := AcceptedScopes("system", "read", "Patient")

	tests := []struct {
		raw  string
		want bool
	}{
		{"system/Patient.read", true},
		{"openid system/*.*", true},
		{"system/*.read", true},
		{"system/Patient.*", true},
		{"system/Patient.write", false},
		{"user/Patient.read", false},
		{"system/patient.read", false},
		{"system/Observation.read", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := Intersects(GrantedScopes(tt.raw), accepted); got != tt.want {
			t.Errorf("Intersects(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
