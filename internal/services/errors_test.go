package services

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_IsMatchesByCode(t *testing.T) {
	detailed := ErrInvalidTransition.WithMessage("session %d is no longer %s", 4, "requested")

	if !errors.Is(detailed, ErrInvalidTransition) {
		t.Error("detailed error should match its sentinel")
	}
	if errors.Is(detailed, ErrAlreadyProcessed) {
		t.Error("detailed error should not match a different code")
	}
	if detailed.Kind != KindInvalidTransition {
		t.Errorf("Kind = %q, expected %q", detailed.Kind, KindInvalidTransition)
	}

	wrapped := fmt.Errorf("advance: %w", detailed)
	if !errors.Is(wrapped, ErrInvalidTransition) {
		t.Error("wrapped error should still match")
	}
	var se *Error
	if !errors.As(wrapped, &se) || se.Code != "INVALID_TRANSITION" {
		t.Errorf("errors.As should expose the code, got %+v", se)
	}
}

func TestActor_RequireRoleAndOrganization(t *testing.T) {
	a := Actor{UserID: 1, OrganizationID: 10, Role: "coach"}

	if err := a.RequireRole("manager"); !errors.Is(err, ErrForbiddenRole) {
		t.Errorf("RequireRole(manager) = %v, expected ErrForbiddenRole", err)
	}
	if err := a.RequireRole("manager", "coach"); err != nil {
		t.Errorf("RequireRole(manager, coach) = %v, expected nil", err)
	}
	if err := a.CheckOrganization(0); err != nil {
		t.Errorf("CheckOrganization(0) = %v, expected nil", err)
	}
	if err := a.CheckOrganization(10); err != nil {
		t.Errorf("CheckOrganization(10) = %v, expected nil", err)
	}
	if err := a.CheckOrganization(11); !errors.Is(err, ErrNotAMember) {
		t.Errorf("CheckOrganization(11) = %v, expected ErrNotAMember", err)
	}
}
