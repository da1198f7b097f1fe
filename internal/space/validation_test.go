package space

import "testing"

func TestValidateCreateSpaceRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateSpaceRequest
		wantErr bool
	}{
		{"open space", CreateSpaceRequest{Name: "general"}, false},
		{"private with password", CreateSpaceRequest{Name: "vault", PrivateYN: true, Password: "abc"}, false},
		{"private without password", CreateSpaceRequest{Name: "vault", PrivateYN: true}, true},
		{"password on open space", CreateSpaceRequest{Name: "general", Password: "abc"}, true},
		{"missing name", CreateSpaceRequest{}, true},
		{"name too short", CreateSpaceRequest{Name: "x"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCreateSpaceRequest(&tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("validateCreateSpaceRequest(%+v) error = %v, wantErr %v", tt.req, err, tt.wantErr)
			}
		})
	}
}

func TestApplyUpdateEnforcesPasswordInvariant(t *testing.T) {
	sp := &Space{Name: "general"}

	private := true
	if err := applyUpdate(sp, &UpdateSpaceRequest{PrivateYN: &private}); err == nil {
		t.Fatal("expected error when flipping to private without a password")
	}

	pass := "abc"
	if err := applyUpdate(sp, &UpdateSpaceRequest{PrivateYN: &private, Password: &pass}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !sp.PrivateYN || sp.Password != "abc" {
		t.Fatalf("update not applied: %+v", sp)
	}

	// Flipping back to open clears the stored password
	open := false
	if err := applyUpdate(sp, &UpdateSpaceRequest{PrivateYN: &open}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sp.Password != "" {
		t.Fatalf("expected password cleared, got %q", sp.Password)
	}
}
