package main

import "testing"

func TestValidateFlags(t *testing.T) {
	tests := []struct {
		kind    string
		uuid    string
		wantErr bool
	}{
		{"all", "", false},
		{"all", "abc", true},
		{"user", "abc", false},
		{"site", "abc", false},
		{"user", "", true},
		{"post", "abc", true},
	}

	for _, tt := range tests {
		err := validateFlags(tt.kind, tt.uuid)
		if (err != nil) != tt.wantErr {
			t.Errorf("validateFlags(%q, %q) error = %v, wantErr %v", tt.kind, tt.uuid, err, tt.wantErr)
		}
	}
}
