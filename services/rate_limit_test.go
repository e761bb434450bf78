package services

import (
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/ginix-arcade/arcade_api/dto"
	"github.com/ginix-arcade/arcade_api/shared"
)

func updateReq(maxRequests int, window string) dto.UpdateRateLimitConfigRequest {
	return dto.UpdateRateLimitConfigRequest{MaxRequests: maxRequests, Window: window}
}

func TestMemoryCounterStoreWindow(t *testing.T) {
	store := NewMemoryCounterStore()

	for i := 0; i < 3; i++ {
		allowed, _, err := store.Allow("wallet-a", 3, 100*time.Millisecond)
		if err != nil {
			t.Fatal(err)
		}
		if !allowed {
			t.Fatalf("request %d should be admitted", i+1)
		}
	}

	allowed, remaining, err := store.Allow("wallet-a", 3, 100*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if allowed || remaining != 0 {
		t.Fatalf("4th request should be rejected, got allowed=%v remaining=%d", allowed, remaining)
	}

	// Old entries fall out of the window.
	time.Sleep(120 * time.Millisecond)
	allowed, _, err = store.Allow("wallet-a", 3, 100*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if !allowed {
		t.Fatal("request after window expiry should be admitted")
	}
}

func TestMemoryCounterStoreKeysIndependent(t *testing.T) {
	store := NewMemoryCounterStore()

	for i := 0; i < 2; i++ {
		if allowed, _, _ := store.Allow("wallet-a", 2, time.Minute); !allowed {
			t.Fatal("wallet-a should be admitted")
		}
	}
	if allowed, _, _ := store.Allow("wallet-a", 2, time.Minute); allowed {
		t.Fatal("wallet-a should be exhausted")
	}

	if allowed, _, _ := store.Allow("wallet-b", 2, time.Minute); !allowed {
		t.Fatal("wallet-b budget must be independent of wallet-a")
	}
}

func newTestRateLimitService() *RateLimitService {
	svc := &RateLimitService{}
	svc.configs = map[string]*RateLimitConfig{
		EndpointStartSession: {
			EndpointType: EndpointStartSession,
			MaxRequests:  2,
			WindowSize:   time.Minute,
			IsActive:     true,
		},
		EndpointSubmitScore: {
			EndpointType: EndpointSubmitScore,
			MaxRequests:  2,
			WindowSize:   time.Minute,
			IsActive:     true,
		},
	}
	svc.store = NewMemoryCounterStore()
	return svc
}

func TestAdmitReturns429(t *testing.T) {
	svc := newTestRateLimitService()

	if err := svc.Admit("w1", EndpointStartSession); err != nil {
		t.Fatal(err)
	}
	if err := svc.Admit("w1", EndpointStartSession); err != nil {
		t.Fatal(err)
	}

	err := svc.Admit("w1", EndpointStartSession)
	if err == nil {
		t.Fatal("expected rate limit rejection")
	}
	appErr, ok := shared.GetAppError(err)
	if !ok || appErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 AppError, got %v", err)
	}
}

func TestAdmitSeparateEndpointBudgets(t *testing.T) {
	svc := newTestRateLimitService()

	// Exhaust the session budget; the submit budget keys differ (":submit"
	// suffix applied by the pipeline) so it stays open.
	for i := 0; i < 2; i++ {
		if err := svc.Admit("w1", EndpointStartSession); err != nil {
			t.Fatal(err)
		}
	}
	if err := svc.Admit("w1", EndpointStartSession); err == nil {
		t.Fatal("session budget should be exhausted")
	}

	if err := svc.Admit("w1:submit", EndpointSubmitScore); err != nil {
		t.Fatalf("submit budget should be untouched: %v", err)
	}
}

func TestAdmitInactiveConfigPasses(t *testing.T) {
	svc := newTestRateLimitService()
	svc.configs[EndpointStartSession].IsActive = false

	for i := 0; i < 10; i++ {
		if err := svc.Admit("w1", EndpointStartSession); err != nil {
			t.Fatalf("inactive budget must admit everything: %v", err)
		}
	}
}

func TestAllowConcurrentWithConfigUpdates(t *testing.T) {
	svc := newTestRateLimitService()

	// Allow reads a budget while UpdateConfig rewrites it in place; both
	// sides must stay behind the lock.
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if _, _, err := svc.Allow("w1", EndpointStartSession); err != nil {
					t.Error(err)
					return
				}
			}
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		for j := 0; j < 50; j++ {
			if _, err := svc.UpdateConfig(EndpointStartSession, updateReq(j+1, "10ms")); err != nil {
				t.Error(err)
				return
			}
		}
	}()
	wg.Wait()
}

func TestUpdateConfig(t *testing.T) {
	svc := newTestRateLimitService()

	maxReq := 5
	cfg, err := svc.UpdateConfig(EndpointStartSession, updateReq(maxReq, "30s"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxRequests != 5 || cfg.WindowSize != 30*time.Second {
		t.Fatalf("unexpected config after update: %+v", cfg)
	}

	if _, err := svc.UpdateConfig("nope", updateReq(1, "")); err == nil {
		t.Fatal("unknown endpoint type should fail")
	}
}
