package rest

import "errors"

// ErrUnauthorized is returned by ResolveIdentity when the identity endpoint
// rejects the request as unauthenticated.
var ErrUnauthorized = errors.New("unauthorized")

// Participant is the identity of the current user for the active session.
// Field names follow the identity endpoint JSON.
type Participant struct {
	Nickname  string `json:"nickNm"`
	AvatarRef string `json:"profile"`
	Email     string `json:"email,omitempty"`
}

// AvatarURL resolves the participant's avatar against the static asset
// root, following the site convention <root>/profiles/<avatarRef>.jpg.
func (p Participant) AvatarURL(staticRoot string) string {
	return staticRoot + "/profiles/" + p.AvatarRef + ".jpg"
}
