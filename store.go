package authclient

import (
	"encoding/json"
)

// Storage keys for the two persisted snapshots. Both are cleared together
// on sign-out.
const (
	StorageKeyUser   = "authUser"
	StorageKeyClaims = "claims"
)

// SessionStore mirrors the raw user record and the claims snapshot into a
// Storage. Every operation is a no-op (or reports absence) when the backing
// storage is nil, so non-interactive contexts need no special casing.
//
// UpdateAccessToken is the only merging write; every other write replaces
// a snapshot wholesale.
type SessionStore struct {
	storage Storage
	logger  Logger
}

func NewSessionStore(storage Storage) *SessionStore {
	return &SessionStore{storage: storage, logger: defLogger{}}
}

func (s *SessionStore) WithLogger(logger Logger) *SessionStore {
	if logger != nil {
		s.logger = logger
	}
	return s
}

// SaveUser replaces the persisted user snapshot with the given record.
func (s *SessionStore) SaveUser(user *UserRecord) {
	if s == nil || s.storage == nil || user == nil {
		return
	}

	raw, err := json.Marshal(user)
	if err != nil {
		s.logger.Error("session store: marshal user: %v", err)
		return
	}

	if err := s.storage.Set(StorageKeyUser, string(raw)); err != nil {
		s.logger.Error("session store: save user: %v", err)
	}
}

// Clear removes both the user snapshot and the claims snapshot.
func (s *SessionStore) Clear() {
	if s == nil || s.storage == nil {
		return
	}

	if err := s.storage.Remove(StorageKeyUser); err != nil {
		s.logger.Error("session store: clear user: %v", err)
	}
	if err := s.storage.Remove(StorageKeyClaims); err != nil {
		s.logger.Error("session store: clear claims: %v", err)
	}
}

// HasUser reports whether a user snapshot is persisted.
func (s *SessionStore) HasUser() bool {
	if s == nil || s.storage == nil {
		return false
	}
	_, ok := s.storage.Get(StorageKeyUser)
	return ok
}

// UpdateAccessToken patches the access token nested in the persisted user
// snapshot and replaces the claims snapshot. The patch keeps every sibling
// field's raw bytes untouched; an absent or unparseable snapshot degrades to
// an empty object, matching a fresh session.
func (s *SessionStore) UpdateAccessToken(res *TokenResult) {
	if s == nil || s.storage == nil || res == nil {
		return
	}

	snapshot := map[string]json.RawMessage{}
	if raw, ok := s.storage.Get(StorageKeyUser); ok {
		if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
			s.logger.Warn("session store: unparseable user snapshot, resetting: %v", err)
			snapshot = map[string]json.RawMessage{}
		}
	}

	if rawTM, ok := snapshot["token_manager"]; ok {
		tm := map[string]json.RawMessage{}
		if err := json.Unmarshal(rawTM, &tm); err == nil {
			token, _ := json.Marshal(res.Token)
			tm["access_token"] = token
			if patched, err := json.Marshal(tm); err == nil {
				snapshot["token_manager"] = patched
			}
		}
	}

	if raw, err := json.Marshal(snapshot); err == nil {
		if err := s.storage.Set(StorageKeyUser, string(raw)); err != nil {
			s.logger.Error("session store: update user snapshot: %v", err)
		}
	}

	claims, err := json.Marshal(res.Claims)
	if err != nil {
		s.logger.Error("session store: marshal claims: %v", err)
		return
	}
	if err := s.storage.Set(StorageKeyClaims, string(claims)); err != nil {
		s.logger.Error("session store: save claims: %v", err)
	}
}

// AccessToken projects the nested access token out of the persisted user
// snapshot.
func (s *SessionStore) AccessToken() (string, bool) {
	if s == nil || s.storage == nil {
		return "", false
	}

	raw, ok := s.storage.Get(StorageKeyUser)
	if !ok {
		return "", false
	}

	var snapshot struct {
		TokenManager *TokenManager `json:"token_manager"`
	}
	if err := json.Unmarshal([]byte(raw), &snapshot); err != nil {
		return "", false
	}
	if snapshot.TokenManager == nil || snapshot.TokenManager.AccessToken == "" {
		return "", false
	}

	return snapshot.TokenManager.AccessToken, true
}

// Claims reads the persisted claims snapshot. Absent or unparseable data is
// reported as absent.
func (s *SessionStore) Claims() (Claims, bool) {
	if s == nil || s.storage == nil {
		return nil, false
	}

	raw, ok := s.storage.Get(StorageKeyClaims)
	if !ok {
		return nil, false
	}

	var claims Claims
	if err := json.Unmarshal([]byte(raw), &claims); err != nil {
		return nil, false
	}

	return claims, true
}
