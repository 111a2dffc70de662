package account

import (
	"context"
	"errors"
	"testing"
)

func TestEnsureByMobileCreatesOnce(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	first, err := svc.EnsureByMobile(ctx, "9876543210")
	if err != nil {
		t.Fatalf("first ensure: %v", err)
	}
	if first.ID == "" || first.Mobile != "9876543210" {
		t.Fatalf("unexpected customer %+v", first)
	}

	second, err := svc.EnsureByMobile(ctx, "9876543210")
	if err != nil {
		t.Fatalf("second ensure: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("repeat login created a new account: %s != %s", second.ID, first.ID)
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	svc := NewService(NewMemoryRepository())
	ctx := context.Background()

	cust, err := svc.EnsureByMobile(ctx, "9876543210")
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}

	if _, err := svc.UpdateProfile(ctx, cust.ID, ProfileInput{Name: ""}); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("empty name: err = %v, want ErrInvalidProfile", err)
	}
	if _, err := svc.UpdateProfile(ctx, cust.ID, ProfileInput{Name: "Asha", Email: "not-an-email"}); !errors.Is(err, ErrInvalidProfile) {
		t.Fatalf("bad email: err = %v, want ErrInvalidProfile", err)
	}

	updated, err := svc.UpdateProfile(ctx, cust.ID, ProfileInput{
		Name:    "  Asha  ",
		Email:   "asha@example.com",
		Address: "MG Road",
	})
	if err != nil {
		t.Fatalf("valid update: %v", err)
	}
	if updated.Name != "Asha" || updated.Email != "asha@example.com" || updated.Address != "MG Road" {
		t.Fatalf("updated = %+v", updated)
	}

	if _, err := svc.UpdateProfile(ctx, "missing-id", ProfileInput{Name: "X"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing customer: err = %v, want ErrNotFound", err)
	}
}
