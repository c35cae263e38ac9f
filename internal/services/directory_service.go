package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/crypto/bcrypt"
)

// CredentialHasher turns a plaintext password into a stored hash and checks
// a candidate against it. The default is bcrypt; the comparison is the
// library's constant-time one.
type CredentialHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

type bcryptHasher struct{}

func (bcryptHasher) Hash(password string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func (bcryptHasher) Compare(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}

// TokenSigner mints a session token for a creator.
type TokenSigner func(username string, ttl time.Duration) (string, error)

// Credential is one directory entry; only the hash is persisted.
type Credential struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// DirectoryService owns the single username -> credential record. Usernames
// are the creator namespace: every registration also seeds the creator's
// data record, so no directory entry ever exists without one.
type DirectoryService struct {
	store     RecordStore
	hasher    CredentialHasher
	signToken TokenSigner
	tokenTTL  time.Duration
	now       func() time.Time
}

type AuthResult struct {
	Username string
	Token    string
}

func NewDirectoryService(store RecordStore, signer TokenSigner) *DirectoryService {
	return &DirectoryService{
		store:     store,
		hasher:    bcryptHasher{},
		signToken: signer,
		tokenTTL:  30 * 24 * time.Hour,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// NormalizeUsername lowercases and trims; the result is the directory key
// and the public survey id.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validUsername(username string) bool {
	if len([]rune(username)) < 3 {
		return false
	}
	return !strings.ContainsFunc(username, unicode.IsSpace)
}

func loadDirectory(store RecordStore) (map[string]Credential, error) {
	raw, found, err := store.Get(usersKey)
	if err != nil {
		return nil, err
	}
	users := map[string]Credential{}
	if !found {
		return users, nil
	}
	if err := json.Unmarshal(raw, &users); err != nil {
		return nil, fmt.Errorf("decode user directory: %w", err)
	}
	return users, nil
}

func (s *DirectoryService) saveDirectory(users map[string]Credential) error {
	raw, err := json.Marshal(users)
	if err != nil {
		return err
	}
	return s.store.Set(usersKey, raw)
}

// Register adds a new creator. Duplicate usernames are rejected, never
// overwritten. On success the creator's data record is seeded with the
// defaults so a fetch immediately after registration always succeeds.
func (s *DirectoryService) Register(username, password string) error {
	username = NormalizeUsername(username)
	if !validUsername(username) {
		return NewInvalidError("username must be at least 3 characters with no whitespace")
	}
	if strings.TrimSpace(password) == "" {
		return NewInvalidError("password required")
	}
	users, err := loadDirectory(s.store)
	if err != nil {
		return err
	}
	if _, exists := users[username]; exists {
		return NewConflictError("username already exists")
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return err
	}
	users[username] = Credential{Username: username, PasswordHash: hash, CreatedAt: s.now()}
	if err := s.saveDirectory(users); err != nil {
		return err
	}
	return seedCreatorData(s.store, username)
}

// Authenticate checks the credential and mints a session token.
func (s *DirectoryService) Authenticate(username, password string) (*AuthResult, error) {
	username = NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, NewInvalidError("username/password required")
	}
	users, err := loadDirectory(s.store)
	if err != nil {
		return nil, err
	}
	cred, ok := users[username]
	if !ok {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	if err := s.hasher.Compare(cred.PasswordHash, password); err != nil {
		return nil, NewUnauthorizedError("invalid credentials")
	}
	res := &AuthResult{Username: username}
	if s.signToken != nil {
		token, err := s.signToken(username, s.tokenTTL)
		if err != nil {
			return nil, err
		}
		res.Token = token
	}
	return res, nil
}
