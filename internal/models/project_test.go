package models

import "testing"

func TestProject_IsIndexable(t *testing.T) {
	statuses := []string{StatusDraft, StatusProcessing, StatusApproved, StatusRejected, StatusWithheld}
	visibilities := []string{VisibilityListed, VisibilityUnlisted, VisibilityPrivate, VisibilityArchived}

	for _, status := range statuses {
		for _, visibility := range visibilities {
			p := Project{Status: status, Visibility: visibility}
			want := status == StatusApproved &&
				(visibility == VisibilityListed || visibility == VisibilityArchived)
			if got := p.IsIndexable(); got != want {
				t.Errorf("IsIndexable(%s, %s) = %v, expected %v", status, visibility, got, want)
			}
		}
	}
}

func TestProject_IsRejectedFamily(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusDraft, false},
		{StatusProcessing, false},
		{StatusApproved, false},
		{StatusRejected, true},
		{StatusWithheld, true},
	}

	for _, tt := range tests {
		p := Project{Status: tt.status}
		if got := p.IsRejectedFamily(); got != tt.want {
			t.Errorf("IsRejectedFamily(%s) = %v, expected %v", tt.status, got, tt.want)
		}
	}
}
