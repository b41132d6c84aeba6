package domain

import "testing"

func TestIsKnownStatus(t *testing.T) {
	for _, s := range []ImageStatus{StatusUploaded, StatusProcessing, StatusCompleted, StatusVerify, StatusSynced} {
		if !IsKnownStatus(s) {
			t.Errorf("expected %q to be known", s)
		}
	}
	if IsKnownStatus("Archived") {
		t.Error("expected unknown status to be rejected")
	}
	if IsKnownStatus("") {
		t.Error("expected empty status to be rejected")
	}
}

func TestValidTransition(t *testing.T) {
	tests := []struct {
		name  string
		from  ImageStatus
		next  ImageStatus
		valid bool
	}{
		{"uploaded to processing", StatusUploaded, StatusProcessing, true},
		{"processing to completed", StatusProcessing, StatusCompleted, true},
		{"processing back to uploaded", StatusProcessing, StatusUploaded, true},
		{"completed to verify", StatusCompleted, StatusVerify, true},
		{"completed re-extraction", StatusCompleted, StatusProcessing, true},
		{"verify to synced", StatusVerify, StatusSynced, true},
		{"synced re-extraction", StatusSynced, StatusProcessing, true},
		{"uploaded straight to completed", StatusUploaded, StatusCompleted, false},
		{"uploaded to synced", StatusUploaded, StatusSynced, false},
		{"synced to verify", StatusSynced, StatusVerify, false},
		{"same status re-assertion", StatusProcessing, StatusProcessing, true},
		{"unknown origin is not enforced", "Legacy", StatusCompleted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidTransition(tt.from, tt.next); got != tt.valid {
				t.Errorf("ValidTransition(%q, %q) = %v, want %v", tt.from, tt.next, got, tt.valid)
			}
		})
	}
}
