package session

import (
	"testing"
	"time"
)

func TestHasPermission(t *testing.T) {
	user := &UserRecord{Permissions: []Permission{PermissionModeration, PermissionDirectUpload}}

	if !user.HasPermission(PermissionModeration) {
		t.Fatal("expected moderation permission")
	}
	if user.HasPermission(PermissionModifyUsers) {
		t.Fatal("unexpected modify-users permission")
	}
}

func TestAcceptedPublisherAgreement(t *testing.T) {
	user := &UserRecord{}
	if user.AcceptedPublisherAgreement() {
		t.Fatal("absent timestamp must read as not accepted")
	}

	signed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	user.AcceptedPublisherAgreementAt = &signed
	if !user.AcceptedPublisherAgreement() {
		t.Fatal("present timestamp must read as accepted")
	}
}
