// Package auth resolves caller credentials against the external users
// service. The engines never see a token, only resolved subject ids; this
// package is the boundary where bearer tokens stop.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// RolesResponse is the users service's answer for "who is this token".
type RolesResponse struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles"`
}

// PublicProfile is the users service's public view of a user.
type PublicProfile struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`
}

type rolesEntry struct {
	roles   *RolesResponse
	expires time.Time
}

type profileEntry struct {
	profile *PublicProfile
	expires time.Time
}

// Client talks to the users service. Role lookups are cached per token for a
// short TTL, keyed by the token's sha256 so raw tokens are never kept in
// memory.
type Client struct {
	baseURL string
	http    *http.Client
	ttl     time.Duration

	mu       sync.Mutex
	roles    map[string]rolesEntry
	profiles map[string]profileEntry
}

func NewClient(baseURL string, ttl time.Duration) *Client {
	return &Client{
		baseURL:  baseURL,
		http:     &http.Client{Timeout: 5 * time.Second},
		ttl:      ttl,
		roles:    make(map[string]rolesEntry),
		profiles: make(map[string]profileEntry),
	}
}

func hashToken(bearer string) string {
	sum := sha256.Sum256([]byte(bearer))
	return hex.EncodeToString(sum[:])
}

// MyRoles resolves a bearer token to a subject id and role set.
func (c *Client) MyRoles(ctx context.Context, bearer string) (*RolesResponse, error) {
	key := hashToken(bearer)

	c.mu.Lock()
	if e, ok := c.roles[key]; ok && time.Now().Before(e.expires) {
		c.mu.Unlock()
		return e.roles, nil
	}
	c.mu.Unlock()

	var rr RolesResponse
	if err := c.get(ctx, "/api/users/me/roles", bearer, &rr); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.roles[key] = rolesEntry{roles: &rr, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return &rr, nil
}

// GetPublicProfile fetches a user's public profile, cached per user id.
func (c *Client) GetPublicProfile(ctx context.Context, userID string) (*PublicProfile, error) {
	c.mu.Lock()
	if e, ok := c.profiles[userID]; ok && time.Now().Before(e.expires) {
		c.mu.Unlock()
		return e.profile, nil
	}
	c.mu.Unlock()

	var p PublicProfile
	if err := c.get(ctx, "/api/users/public/profile?id="+userID, "", &p); err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.profiles[userID] = profileEntry{profile: &p, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return &p, nil
}

func (c *Client) get(ctx context.Context, path, bearer string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build users request: %w", err)
	}
	if bearer != "" {
		req.Header.Set("Authorization", bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("call users service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("users service returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode users response: %w", err)
	}
	return nil
}
