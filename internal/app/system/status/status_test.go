package status

import "testing"

func TestIsValid(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{Active, true},
		{Disabled, true},
		{"ACTIVE", false},
		{"pending", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValid(tt.status); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestDefaultAndCanSignIn(t *testing.T) {
	if Default() != Active {
		t.Errorf("Default() = %q, want %q", Default(), Active)
	}
	if !CanSignIn(Active) || CanSignIn(Disabled) || CanSignIn("") {
		t.Error("CanSignIn() only allows active accounts")
	}
}
