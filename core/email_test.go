package core

import "testing"

// Requirement: emails are compared in one canonical form everywhere.
func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "already canonical", input: "a@x.com", want: "a@x.com"},
		{name: "upper case", input: "Andres@Cygnus.CL", want: "andres@cygnus.cl"},
		{name: "surrounding whitespace", input: "  a@x.com\t\n", want: "a@x.com"},
		{name: "empty", input: "", want: ""},
		{name: "only spaces", input: "   ", want: ""},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			// Act
			got := NormalizeEmail(test.input)

			// Assert
			if got != test.want {
				t.Errorf("NormalizeEmail(%q) = %q, want %q", test.input, got, test.want)
			}
			if NormalizeEmail(got) != got {
				t.Errorf("NormalizeEmail should be idempotent for %q", got)
			}
		})
	}
}

func TestRoleValid(t *testing.T) {
	if !RoleAdmin.Valid() || !RoleAgent.Valid() {
		t.Fatal("admin and agent should be valid roles")
	}
	if Role("owner").Valid() || Role("").Valid() {
		t.Fatal("unknown roles should be invalid")
	}
	if DefaultRole != RoleAgent {
		t.Fatalf("DefaultRole = %q, want %q", DefaultRole, RoleAgent)
	}
}
