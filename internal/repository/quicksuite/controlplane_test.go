package quicksuite

import (
	"testing"

	"github.com/quickops/quicksuite-admin/internal/domain"
)

func TestStatusFromAPI(t *testing.T) {
	tests := []struct {
		status string
		want   domain.SubscriptionStatus
	}{
		{"", domain.SubscriptionAbsent},
		{"UNSUBSCRIBED", domain.SubscriptionAbsent},
		{"UNSUBSCRIBE_IN_PROGRESS", domain.SubscriptionDeleting},
		{"SIGNUP_ATTEMPT_IN_PROGRESS", domain.SubscriptionCreating},
		{"PENDING", domain.SubscriptionCreating},
		{"SIGNUP_ATTEMPT_FAILED", domain.SubscriptionFailed},
		{"ACCOUNT_CREATED", domain.SubscriptionActive},
		{"ACTIVE", domain.SubscriptionActive},
	}

	for _, tt := range tests {
		if got := statusFromAPI(tt.status); got != tt.want {
			t.Errorf("statusFromAPI(%q) = %q, want %q", tt.status, got, tt.want)
		}
	}
}
