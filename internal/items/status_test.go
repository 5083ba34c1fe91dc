package items

import (
	"testing"
	"time"

	"github.com/mwhitfield/wishlist-backend/pkg/db/models"
	"github.com/mwhitfield/wishlist-backend/pkg/enums"
	pkgerrors "github.com/mwhitfield/wishlist-backend/pkg/errors"
)

func TestCanTransitionTable(t *testing.T) {
	cases := []struct {
		from, to enums.ItemStatus
		want     bool
	}{
		{enums.ItemStatusPending, enums.ItemStatusApproved, true},
		{enums.ItemStatusPending, enums.ItemStatusRejected, true},
		{enums.ItemStatusApproved, enums.ItemStatusPending, true},
		{enums.ItemStatusRejected, enums.ItemStatusPending, true},
		{enums.ItemStatusApproved, enums.ItemStatusRejected, false},
		{enums.ItemStatusRejected, enums.ItemStatusApproved, false},
		{enums.ItemStatusPending, enums.ItemStatusPending, false},
		{enums.ItemStatusApproved, enums.ItemStatusApproved, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestApplyTransitionStampsApproval(t *testing.T) {
	item := &models.Item{Status: enums.ItemStatusPending}
	now := time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC)

	if err := applyTransition(item, enums.ItemStatusApproved, now); err != nil {
		t.Fatalf("applyTransition returned error: %v", err)
	}
	if item.Status != enums.ItemStatusApproved {
		t.Fatalf("expected approved, got %s", item.Status)
	}
	if item.ApprovedAt == nil || !item.ApprovedAt.Equal(now) {
		t.Fatalf("expected approved_at %v, got %v", now, item.ApprovedAt)
	}
}

func TestApplyTransitionClearsApprovalOnUnapprove(t *testing.T) {
	stamp := time.Now().UTC()
	item := &models.Item{Status: enums.ItemStatusApproved, ApprovedAt: &stamp}

	if err := applyTransition(item, enums.ItemStatusPending, time.Now()); err != nil {
		t.Fatalf("applyTransition returned error: %v", err)
	}
	if item.ApprovedAt != nil {
		t.Fatal("expected approved_at to be cleared")
	}
}

func TestApplyTransitionRejectsIllegalEdge(t *testing.T) {
	item := &models.Item{Status: enums.ItemStatusRejected}
	err := applyTransition(item, enums.ItemStatusApproved, time.Now())
	if err == nil {
		t.Fatal("expected illegal transition to fail")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if item.Status != enums.ItemStatusRejected {
		t.Fatal("status must not change on a rejected transition")
	}
}

func TestApplyTransitionRejectsUnknownStatus(t *testing.T) {
	item := &models.Item{Status: enums.ItemStatusPending}
	if err := applyTransition(item, enums.ItemStatus("wrapped"), time.Now()); err == nil {
		t.Fatal("expected unknown status to fail")
	}
}
