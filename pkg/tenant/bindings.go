package tenant

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// BindingStore persists the active organization binding for super admins.
//
// Each user has at most one binding, held under a single key so writes and
// clears are atomic: a concurrent reader sees either the old organization or
// the new one, never a partial state.
type BindingStore struct {
	client *redis.Client
	ttl    time.Duration // zero means bindings never expire
}

// NewBindingStore creates a binding store. A zero ttl keeps bindings until
// explicitly cleared or switched.
func NewBindingStore(client *redis.Client, ttl time.Duration) *BindingStore {
	return &BindingStore{client: client, ttl: ttl}
}

func bindingKey(userID string) string {
	return fmt.Sprintf("tenant:binding:%s", userID)
}

// Bind points the user at the given organization, replacing any previous
// binding in one write.
func (s *BindingStore) Bind(ctx context.Context, userID, orgID string) error {
	if err := s.client.Set(ctx, bindingKey(userID), orgID, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store tenant binding: %w", err)
	}
	return nil
}

// ActiveOrganization returns the user's bound organization, or "" when no
// binding exists.
func (s *BindingStore) ActiveOrganization(ctx context.Context, userID string) (string, error) {
	orgID, err := s.client.Get(ctx, bindingKey(userID)).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read tenant binding: %w", err)
	}
	return orgID, nil
}

// Clear removes the user's binding. Clearing a nonexistent binding is a
// no-op.
func (s *BindingStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, bindingKey(userID)).Err(); err != nil {
		return fmt.Errorf("failed to clear tenant binding: %w", err)
	}
	return nil
}
