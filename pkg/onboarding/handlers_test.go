package onboarding

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonhq/beacon/pkg/identity"
)

// memoryStore mirrors the read-then-compare-and-set semantics of the SQL
// store so races between duplicate advances behave the same way in tests
type memoryStore struct {
	mu    sync.Mutex
	steps map[string]int
	orgs  map[string]*string

	// beforeWrite runs between the read and the conditional write,
	// letting tests interleave a competing advance.
	beforeWrite func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{steps: make(map[string]int), orgs: make(map[string]*string)}
}

func (s *memoryStore) Advance(ctx context.Context, profileID string) (int, error) {
	current, err := s.CurrentStep(ctx, profileID)
	if err != nil {
		return 0, err
	}
	if current == StepCompleted {
		return StepCompleted, nil
	}
	next := current + 1
	if next > MaxStep {
		next = MaxStep
	}
	if s.beforeWrite != nil {
		s.beforeWrite()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.steps[profileID] != current {
		return s.steps[profileID], nil
	}
	s.steps[profileID] = next
	return next, nil
}

func (s *memoryStore) CurrentStep(ctx context.Context, profileID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	step, ok := s.steps[profileID]
	if !ok {
		return 0, ErrProfileNotFound
	}
	return step, nil
}

func (s *memoryStore) Complete(ctx context.Context, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.steps[profileID]; !ok {
		return ErrProfileNotFound
	}
	s.steps[profileID] = StepCompleted
	return nil
}

func (s *memoryStore) RememberOrg(ctx context.Context, profileID string, orgID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	step, ok := s.steps[profileID]
	if !ok {
		return ErrProfileNotFound
	}
	if step == StepCompleted {
		return nil
	}
	s.orgs[profileID] = orgID
	return nil
}

func (s *memoryStore) RememberedOrg(ctx context.Context, profileID string) (*string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.steps[profileID]; !ok {
		return nil, ErrProfileNotFound
	}
	return s.orgs[profileID], nil
}

func newOnboardingRouter(t *testing.T) (*mux.Router, *memoryStore) {
	t.Helper()
	store := newMemoryStore()
	router := mux.NewRouter()
	NewHandlers(store, nil).RegisterRoutes(router)
	return router, store
}

func onboardingIdentity(profileID string) *identity.Identity {
	return &identity.Identity{
		UserID: "u-" + profileID, ProfileID: profileID,
		OrganizationID: "org-1", Role: identity.RoleLearner,
	}
}

func doOnboarding(t *testing.T, router *mux.Router, id *identity.Identity, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		require.NoError(t, err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	if id != nil {
		req = req.WithContext(identity.NewContext(req.Context(), id))
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeStep(t *testing.T, rec *httptest.ResponseRecorder) int {
	t.Helper()
	var resp StepResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Step
}

func TestAdvanceHandler(t *testing.T) {
	t.Run("walks the flow and clamps at the end", func(t *testing.T) {
		router, store := newOnboardingRouter(t)
		store.steps["p-1"] = 0
		id := onboardingIdentity("p-1")

		want := []int{1, 2, 3, 3, 3}
		for i, expected := range want {
			rec := doOnboarding(t, router, id, http.MethodGet, "/user/onboarding", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, expected, decodeStep(t, rec), "poll %d", i+1)
		}
	})

	t.Run("completed flow returns sentinel without moving", func(t *testing.T) {
		router, store := newOnboardingRouter(t)
		store.steps["p-1"] = StepCompleted
		id := onboardingIdentity("p-1")

		rec := doOnboarding(t, router, id, http.MethodGet, "/user/onboarding", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, StepCompleted, decodeStep(t, rec))
		assert.Equal(t, StepCompleted, store.steps["p-1"])
	})

	t.Run("missing profile yields 404", func(t *testing.T) {
		router, _ := newOnboardingRouter(t)
		rec := doOnboarding(t, router, onboardingIdentity("p-missing"), http.MethodGet, "/user/onboarding", nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("no identity yields 401", func(t *testing.T) {
		router, _ := newOnboardingRouter(t)
		rec := doOnboarding(t, router, nil, http.MethodGet, "/user/onboarding", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("concurrent polls stay within bounds", func(t *testing.T) {
		router, store := newOnboardingRouter(t)
		store.steps["p-1"] = 0
		id := onboardingIdentity("p-1")

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				rec := doOnboarding(t, router, id, http.MethodGet, "/user/onboarding", nil)
				step := decodeStep(t, rec)
				assert.GreaterOrEqual(t, step, 1)
				assert.LessOrEqual(t, step, MaxStep)
			}()
		}
		wg.Wait()
		final := store.steps["p-1"]
		assert.GreaterOrEqual(t, final, 1)
		assert.LessOrEqual(t, final, MaxStep)
	})

	t.Run("duplicate concurrent advances collapse to one step", func(t *testing.T) {
		router, store := newOnboardingRouter(t)
		store.steps["p-1"] = 1
		id := onboardingIdentity("p-1")

		// Hold the first advance between its read and its write so a
		// duplicate commits underneath it; the loser must report the
		// freshest step instead of stacking a second increment.
		release := make(chan struct{})
		var calls int32
		store.beforeWrite = func() {
			if atomic.AddInt32(&calls, 1) == 1 {
				<-release
			}
		}

		first := make(chan int, 1)
		go func() {
			rec := doOnboarding(t, router, id, http.MethodGet, "/user/onboarding", nil)
			var resp StepResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				first <- -100
				return
			}
			first <- resp.Step
		}()
		require.Eventually(t, func() bool {
			return atomic.LoadInt32(&calls) == 1
		}, time.Second, time.Millisecond)

		rec := doOnboarding(t, router, id, http.MethodGet, "/user/onboarding", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 2, decodeStep(t, rec))

		close(release)
		assert.Equal(t, 2, <-first)
		assert.Equal(t, 2, store.steps["p-1"])
	})
}

func TestCompleteHandler(t *testing.T) {
	router, store := newOnboardingRouter(t)
	store.steps["p-1"] = 2
	id := onboardingIdentity("p-1")

	rec := doOnboarding(t, router, id, http.MethodPost, "/user/onboarding/complete", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StepCompleted, decodeStep(t, rec))

	// Completing again succeeds and changes nothing.
	rec = doOnboarding(t, router, id, http.MethodPost, "/user/onboarding/complete", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StepCompleted, store.steps["p-1"])

	// Subsequent advances hold at the sentinel.
	rec = doOnboarding(t, router, id, http.MethodGet, "/user/onboarding", nil)
	assert.Equal(t, StepCompleted, decodeStep(t, rec))
}

func decodeRememberedOrg(t *testing.T, rec *httptest.ResponseRecorder) *string {
	t.Helper()
	var resp RememberOrgResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.OnboardingOrgID
}

func TestRememberOrgHandlers(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		router, store := newOnboardingRouter(t)
		store.steps["p-1"] = 1
		id := onboardingIdentity("p-1")

		rec := doOnboarding(t, router, id, http.MethodPost, "/user/onboarding/remember-org",
			RememberOrgRequest{OnboardingOrgID: "org-7"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok": true}`, rec.Body.String())

		rec = doOnboarding(t, router, id, http.MethodGet, "/user/onboarding/remember-org", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		org := decodeRememberedOrg(t, rec)
		require.NotNil(t, org)
		assert.Equal(t, "org-7", *org)
	})

	t.Run("empty slot reads as null", func(t *testing.T) {
		router, store := newOnboardingRouter(t)
		store.steps["p-1"] = 1
		id := onboardingIdentity("p-1")

		rec := doOnboarding(t, router, id, http.MethodGet, "/user/onboarding/remember-org", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"onboarding_org_id": null}`, rec.Body.String())
	})

	t.Run("delete clears the slot to null", func(t *testing.T) {
		router, store := newOnboardingRouter(t)
		store.steps["p-1"] = 1
		id := onboardingIdentity("p-1")

		doOnboarding(t, router, id, http.MethodPost, "/user/onboarding/remember-org",
			RememberOrgRequest{OnboardingOrgID: "org-7"})
		rec := doOnboarding(t, router, id, http.MethodDelete, "/user/onboarding/remember-org", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok": true}`, rec.Body.String())

		rec = doOnboarding(t, router, id, http.MethodGet, "/user/onboarding/remember-org", nil)
		assert.Nil(t, decodeRememberedOrg(t, rec))
	})

	t.Run("slot survives completion", func(t *testing.T) {
		router, store := newOnboardingRouter(t)
		store.steps["p-1"] = 1
		id := onboardingIdentity("p-1")

		doOnboarding(t, router, id, http.MethodPost, "/user/onboarding/remember-org",
			RememberOrgRequest{OnboardingOrgID: "org-7"})
		doOnboarding(t, router, id, http.MethodPost, "/user/onboarding/complete", nil)

		rec := doOnboarding(t, router, id, http.MethodGet, "/user/onboarding/remember-org", nil)
		org := decodeRememberedOrg(t, rec)
		require.NotNil(t, org)
		assert.Equal(t, "org-7", *org)
	})

	t.Run("write after completion succeeds without changing the slot", func(t *testing.T) {
		router, store := newOnboardingRouter(t)
		store.steps["p-1"] = 1
		id := onboardingIdentity("p-1")

		doOnboarding(t, router, id, http.MethodPost, "/user/onboarding/remember-org",
			RememberOrgRequest{OnboardingOrgID: "org-7"})
		doOnboarding(t, router, id, http.MethodPost, "/user/onboarding/complete", nil)

		rec := doOnboarding(t, router, id, http.MethodPost, "/user/onboarding/remember-org",
			RememberOrgRequest{OnboardingOrgID: "org-other"})
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"ok": true}`, rec.Body.String())

		rec = doOnboarding(t, router, id, http.MethodGet, "/user/onboarding/remember-org", nil)
		org := decodeRememberedOrg(t, rec)
		require.NotNil(t, org)
		assert.Equal(t, "org-7", *org)
	})

	t.Run("missing onboarding_org_id yields 400", func(t *testing.T) {
		router, store := newOnboardingRouter(t)
		store.steps["p-1"] = 1
		rec := doOnboarding(t, router, onboardingIdentity("p-1"), http.MethodPost,
			"/user/onboarding/remember-org", RememberOrgRequest{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
