package shared

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrSessionNotFound is returned when a token has no live session.
var ErrSessionNotFound = errors.New("session not found")

// SessionManager stores bearer sessions in Redis.
type SessionManager struct {
	client *redis.Client
	ttl    time.Duration
	now    func() time.Time
}

// Session is the server-side state behind a bearer token.
type Session struct {
	ID        string    `json:"-"`
	UserID    int64     `json:"user_id"`
	TenantID  int64     `json:"tenant_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionManager{client: client, ttl: ttl, now: time.Now}
}

// TTL exposes the configured session lifetime.
func (sm *SessionManager) TTL() time.Duration {
	return sm.ttl
}

// Create issues a new session for user acting in tenant.
func (sm *SessionManager) Create(ctx context.Context, userID, tenantID int64) (*Session, error) {
	now := sm.now().UTC()
	sess := &Session{
		ID:        generateSessionID(),
		UserID:    userID,
		TenantID:  tenantID,
		CreatedAt: now,
		ExpiresAt: now.Add(sm.ttl),
	}
	if err := sm.write(ctx, sess, sm.ttl); err != nil {
		return nil, err
	}
	return sess, nil
}

// Load fetches the session for id.
func (sm *SessionManager) Load(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	payload, err := sm.client.Get(ctx, SessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	var sess Session
	if err := json.Unmarshal(payload, &sess); err != nil {
		return nil, err
	}
	sess.ID = id
	return &sess, nil
}

// SwitchTenant rewrites the active tenant while keeping the original expiry.
func (sm *SessionManager) SwitchTenant(ctx context.Context, sess *Session, tenantID int64) error {
	if sess == nil {
		return ErrSessionNotFound
	}
	remaining := sess.ExpiresAt.Sub(sm.now())
	if remaining <= 0 {
		return ErrSessionNotFound
	}
	sess.TenantID = tenantID
	return sm.write(ctx, sess, remaining)
}

// Destroy removes the session.
func (sm *SessionManager) Destroy(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if err := sm.client.Del(ctx, SessionKey(id)).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	return nil
}

func (sm *SessionManager) write(ctx context.Context, sess *Session, ttl time.Duration) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return err
	}
	return sm.client.Set(ctx, SessionKey(sess.ID), data, ttl).Err()
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func generateSessionID() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return uuid.NewString()
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
