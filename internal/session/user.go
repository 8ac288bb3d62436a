package session

import "time"

// Permission is a server-granted capability flag attached to a user.
type Permission string

const (
	PermissionModeration        Permission = "moderation"
	PermissionQualityModeration Permission = "quality-moderation"
	PermissionViewUsers         Permission = "view-users"
	PermissionModifyUsers       Permission = "modify-users"
	PermissionDirectUpload      Permission = "direct-upload"
)

// LinkedAccount is an identity-provider account linked to a user.
type LinkedAccount struct {
	Provider  string `json:"provider"`
	Handle    string `json:"login"`
	AvatarURL string `json:"avatar"`
}

// UserRecord is the client's copy of the authenticated user, as returned
// by the user-info endpoint. It is a cache of server state, never
// authoritative.
type UserRecord struct {
	DisplayName                  string          `json:"displayname"`
	Accounts                     []LinkedAccount `json:"auths"`
	Permissions                  []Permission    `json:"permissions"`
	DevAppIDs                    []string        `json:"dev_app_ids"`
	OwnedAppIDs                  []string        `json:"owned_app_ids"`
	AcceptedPublisherAgreementAt *time.Time      `json:"accepted_publisher_agreement_at"`
}

// HasPermission reports whether the user holds the given permission flag.
func (u *UserRecord) HasPermission(p Permission) bool {
	for _, have := range u.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// AcceptedPublisherAgreement reports whether the user has accepted the
// publisher agreement. The invite flow branches on this.
func (u *UserRecord) AcceptedPublisherAgreement() bool {
	return u.AcceptedPublisherAgreementAt != nil
}
