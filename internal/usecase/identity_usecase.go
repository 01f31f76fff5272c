package usecase

import (
	"time"

	"github.com/golang-jwt/jwt/v4"

	"marketchat/internal/domain/entity"
	"marketchat/internal/domain/repository"
	"marketchat/pkg/logger"
)

// Credential keys in the client stores.
const (
	KeyUserID           = "userid"
	KeySenderID         = "senderId"
	KeyToken            = "token"
	KeyUserName         = "userName"
	KeyLoginTime        = "loginTime"
	KeyMessagingEnabled = "messagingEnabled"
	KeyAIEnabled        = "aiEnabled"
)

type credentialSource struct {
	name  string
	store repository.KVStore
	key   string
}

// IdentityProvider resolves the signed-in user from cached credentials.
type IdentityProvider struct {
	local   repository.KVStore
	session repository.KVStore
	now     func() time.Time
}

func NewIdentityProvider(local, session repository.KVStore) *IdentityProvider {
	return &IdentityProvider{
		local:   local,
		session: session,
		now:     time.Now,
	}
}

func (p *IdentityProvider) sources() []credentialSource {
	return []credentialSource{
		{name: "local userid", store: p.local, key: KeyUserID},
		{name: "local senderId", store: p.local, key: KeySenderID},
		{name: "session userid", store: p.session, key: KeyUserID},
	}
}

// CurrentIdentity returns the first cached user id that is present and not a
// placeholder, probing local userid, local senderId, then session userid.
func (p *IdentityProvider) CurrentIdentity() (entity.Identity, bool) {
	for _, src := range p.sources() {
		value, ok, err := src.store.Get(src.key)
		if err != nil {
			logger.Warn("Identity read failed: source=%s, error=%v", src.name, err)
			continue
		}
		if !ok || entity.IsIdentitySentinel(value) {
			if ok {
				logger.Debug("Ignoring placeholder identity %q from %s", value, src.name)
			}
			continue
		}
		return entity.Identity(value), true
	}
	return "", false
}

// SetIdentity stores id in every credential source. Placeholders are refused.
func (p *IdentityProvider) SetIdentity(id entity.Identity) bool {
	switch id {
	case "", "null", "undefined":
		logger.Error("SetIdentity: refusing invalid user id %q", id)
		return false
	}
	ok := p.set(p.local, KeyUserID, id.String())
	ok = p.set(p.local, KeySenderID, id.String()) && ok
	ok = p.set(p.session, KeyUserID, id.String()) && ok
	return ok
}

// SetUserInfo caches the full credential set of a freshly signed-in user.
func (p *IdentityProvider) SetUserInfo(info entity.UserInfo) bool {
	if info.UserID == "" {
		logger.Error("SetUserInfo: missing user id")
		return false
	}
	if !p.SetIdentity(info.UserID) {
		return false
	}
	if info.Token != "" {
		p.set(p.local, KeyToken, info.Token)
		p.set(p.session, KeyToken, info.Token)
	}
	if info.Name != "" {
		p.set(p.local, KeyUserName, info.Name)
		p.set(p.session, KeyUserName, info.Name)
	}
	loginTime := info.LoginTime
	if loginTime == "" {
		loginTime = p.now().UTC().Format(time.RFC3339)
	}
	p.set(p.local, KeyLoginTime, loginTime)
	p.set(p.local, KeyMessagingEnabled, "true")
	p.set(p.local, KeyAIEnabled, "true")

	logger.Info("User info cached: userID=%s, hasToken=%t", info.UserID, info.Token != "")
	return true
}

// UserInfo returns the cached credential set, absent when no identity resolves.
func (p *IdentityProvider) UserInfo() (entity.UserInfo, bool) {
	id, ok := p.CurrentIdentity()
	if !ok {
		return entity.UserInfo{}, false
	}
	return entity.UserInfo{
		UserID:           id,
		Token:            p.Token(),
		Name:             p.get(p.local, KeyUserName),
		LoginTime:        p.get(p.local, KeyLoginTime),
		MessagingEnabled: p.get(p.local, KeyMessagingEnabled) == "true",
		AIEnabled:        p.get(p.local, KeyAIEnabled) == "true",
	}, true
}

// Token returns the cached token, preferring the local store.
func (p *IdentityProvider) Token() string {
	if token := p.get(p.local, KeyToken); token != "" {
		return token
	}
	return p.get(p.session, KeyToken)
}

// IsAuthenticated requires an identity and a token. A token that parses as a
// JWT must not be past its exp claim; its signature is not checked here.
func (p *IdentityProvider) IsAuthenticated() bool {
	if _, ok := p.CurrentIdentity(); !ok {
		return false
	}
	token := p.Token()
	if token == "" {
		return false
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return true
	}
	return claims.VerifyExpiresAt(p.now().Unix(), false)
}

// ClearAuth removes every cached credential.
func (p *IdentityProvider) ClearAuth() bool {
	ok := true
	for _, key := range []string{KeyUserID, KeySenderID, KeyToken, KeyUserName, KeyLoginTime, KeyMessagingEnabled, KeyAIEnabled} {
		if err := p.local.Remove(key); err != nil {
			logger.Error("ClearAuth: local %s: %v", key, err)
			ok = false
		}
	}
	for _, key := range []string{KeyUserID, KeyToken, KeyUserName} {
		if err := p.session.Remove(key); err != nil {
			logger.Error("ClearAuth: session %s: %v", key, err)
			ok = false
		}
	}
	return ok
}

func (p *IdentityProvider) get(store repository.KVStore, key string) string {
	value, _, err := store.Get(key)
	if err != nil {
		logger.Warn("Credential read failed: key=%s, error=%v", key, err)
		return ""
	}
	return value
}

func (p *IdentityProvider) set(store repository.KVStore, key, value string) bool {
	if err := store.Set(key, value); err != nil {
		logger.Error("Credential write failed: key=%s, error=%v", key, err)
		return false
	}
	return true
}
