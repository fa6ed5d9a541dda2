// Package permission defines the project permission bitmask and the single
// pure access resolver used by every authorizing code path. It is free of
// I/O on purpose.
package permission

// Project permissions carried on TeamMember.Permissions.
const (
	UploadVersion int64 = 1 << iota
	DeleteVersion
	EditDetails
	EditBody
	ManageInvites
	RemoveMember
	EditMember
	DeleteProject
	ViewAnalytics
	ViewRevenue
)

// All is every project permission combined, the set an owner implicitly holds.
const All = UploadVersion | DeleteVersion | EditDetails | EditBody |
	ManageInvites | RemoveMember | EditMember | DeleteProject |
	ViewAnalytics | ViewRevenue

// HasAccess reports whether an actor may perform an action requiring the
// given permission bit. Owners and moderation-tier global roles short-circuit
// to true regardless of the member bitset.
func HasAccess(required int64, memberPermissions int64, isOwner bool, globalRole string) bool {
	if isOwner {
		return true
	}
	if globalRole == "moderator" || globalRole == "admin" {
		return true
	}
	return memberPermissions&required == required
}
