package entity

// Identity is the current user's opaque account identifier.
type Identity string

func (i Identity) String() string {
	return string(i)
}

// legacyFixtureID was hard-coded as the user id by early builds of the web client.
const legacyFixtureID = "1"

var identitySentinels = map[string]struct{}{
	"":              {},
	"null":          {},
	"undefined":     {},
	legacyFixtureID: {},
	"guest":         {},
}

// counterpartySentinels are the values the listing pages emit when a seller
// could not be resolved.
var counterpartySentinels = map[string]struct{}{
	"":          {},
	"null":      {},
	"undefined": {},
	"unknown":   {},
}

// IsIdentitySentinel reports whether v is a placeholder that must be treated as no identity.
func IsIdentitySentinel(v string) bool {
	_, ok := identitySentinels[v]
	return ok
}

// IsCounterpartySentinel reports whether v is a placeholder seller id.
func IsCounterpartySentinel(v string) bool {
	_, ok := counterpartySentinels[v]
	return ok
}

// UserInfo aggregates the cached credential values of the signed-in user.
type UserInfo struct {
	UserID           Identity `json:"userId"`
	Token            string   `json:"token,omitempty"`
	Name             string   `json:"name,omitempty"`
	LoginTime        string   `json:"loginTime,omitempty"`
	MessagingEnabled bool     `json:"messagingEnabled"`
	AIEnabled        bool     `json:"aiEnabled"`
}
