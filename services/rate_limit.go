package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	appContext "github.com/alphabatem/common/context"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/ginix-arcade/arcade_api/dto"
	"github.com/ginix-arcade/arcade_api/shared"
)

// CounterStore is the sliding-window admission primitive. The in-process
// store is the default; horizontal scaling needs the Redis-backed store or
// the admission guarantee weakens to per-instance.
type CounterStore interface {
	Allow(key string, maxRequests int, window time.Duration) (bool, int, error)
}

type RateLimitConfig struct {
	EndpointType string
	MaxRequests  int
	WindowSize   time.Duration
	Description  string
	IsActive     bool
}

type RateLimitService struct {
	appContext.DefaultService

	configs map[string]*RateLimitConfig
	mutex   sync.RWMutex

	store    CounterStore
	redisSvc *RedisService
}

const RATE_LIMIT_SVC = "rate_limit_svc"

// Endpoint budgets. Session-start and submit are kept on separate keys so
// one budget cannot starve the other.
const (
	EndpointStartSession = "start_session"
	EndpointSubmitScore  = "submit_score"
)

func (svc RateLimitService) Id() string {
	return RATE_LIMIT_SVC
}

func (svc *RateLimitService) Configure(ctx *appContext.Context) error {
	svc.configs = make(map[string]*RateLimitConfig)
	return svc.DefaultService.Configure(ctx)
}

func (svc *RateLimitService) Start() error {
	svc.redisSvc = svc.Service(REDIS_SVC).(*RedisService)
	svc.initDefaultConfigs()

	if svc.redisSvc.Available() {
		svc.store = &redisCounterStore{client: svc.redisSvc.GetClient()}
		log.Println("Rate limiter using shared Redis counter store")
	} else {
		svc.store = NewMemoryCounterStore()
		log.Println("Rate limiter using in-process counter store (single instance only)")
	}

	return nil
}

func (svc *RateLimitService) initDefaultConfigs() {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	svc.configs = map[string]*RateLimitConfig{
		EndpointStartSession: {
			EndpointType: EndpointStartSession,
			MaxRequests:  20,
			WindowSize:   time.Minute,
			Description:  "Session creation rate limit per wallet",
			IsActive:     true,
		},
		EndpointSubmitScore: {
			EndpointType: EndpointSubmitScore,
			MaxRequests:  30,
			WindowSize:   time.Minute,
			Description:  "Score submission rate limit per wallet",
			IsActive:     true,
		},
	}
}

// Allow admits or rejects one request for the actor key under the endpoint's
// budget. Submit keys carry a ":submit" suffix applied by the caller.
func (svc *RateLimitService) Allow(identifier, endpointType string) (bool, *dto.RateLimitInfo, error) {
	// UpdateConfig mutates configs in place, so take a value copy while the
	// lock is held.
	svc.mutex.RLock()
	stored, exists := svc.configs[endpointType]
	var config RateLimitConfig
	if exists {
		config = *stored
	}
	svc.mutex.RUnlock()

	if !exists || !config.IsActive {
		return true, &dto.RateLimitInfo{Allowed: true, Remaining: -1}, nil
	}

	allowed, remaining, err := svc.store.Allow(identifier, config.MaxRequests, config.WindowSize)
	if err != nil {
		return false, nil, err
	}

	resetTime := time.Now().Add(config.WindowSize)
	return allowed, &dto.RateLimitInfo{
		Allowed:   allowed,
		Remaining: remaining,
		ResetTime: &resetTime,
	}, nil
}

// Admit wraps Allow with the submission pipeline's error contract: nil when
// admitted, a 429 AppError when not. Store errors fail open so a counter
// outage cannot take the game down.
func (svc *RateLimitService) Admit(identifier, endpointType string) error {
	allowed, _, err := svc.Allow(identifier, endpointType)
	if err != nil {
		log.Printf("Rate limit check error for %s (%s): %v", endpointType, identifier, err)
		return nil
	}
	if !allowed {
		return shared.NewRateLimitError(
			fmt.Errorf("rate limit exceeded for %s", identifier),
			"Rate limit exceeded. Please wait before retrying.")
	}
	return nil
}

func (svc *RateLimitService) GetConfigs() map[string]*RateLimitConfig {
	svc.mutex.RLock()
	defer svc.mutex.RUnlock()

	configs := make(map[string]*RateLimitConfig, len(svc.configs))
	for k, v := range svc.configs {
		cp := *v
		configs[k] = &cp
	}
	return configs
}

func (svc *RateLimitService) UpdateConfig(endpointType string, req dto.UpdateRateLimitConfigRequest) (*RateLimitConfig, error) {
	svc.mutex.Lock()
	defer svc.mutex.Unlock()

	config, exists := svc.configs[endpointType]
	if !exists {
		return nil, shared.NewNotFoundError(fmt.Errorf("endpoint type %s", endpointType), "Endpoint type not found")
	}

	if req.MaxRequests > 0 {
		config.MaxRequests = req.MaxRequests
	}
	if req.Window != "" {
		duration, err := time.ParseDuration(req.Window)
		if err != nil {
			return nil, shared.NewBadRequestError(err, "Invalid window duration")
		}
		config.WindowSize = duration
	}
	if req.IsActive != nil {
		config.IsActive = *req.IsActive
	}

	cp := *config
	return &cp, nil
}

// ConfigSnapshot renders the live budgets for the admin surface, sorted by
// endpoint type for stable output.
func (svc *RateLimitService) ConfigSnapshot() []dto.RateLimitConfigResponse {
	svc.mutex.RLock()
	defer svc.mutex.RUnlock()

	types := make([]string, 0, len(svc.configs))
	for k := range svc.configs {
		types = append(types, k)
	}
	sort.Strings(types)

	out := make([]dto.RateLimitConfigResponse, 0, len(types))
	for _, k := range types {
		c := svc.configs[k]
		out = append(out, dto.RateLimitConfigResponse{
			EndpointType: c.EndpointType,
			MaxRequests:  c.MaxRequests,
			Window:       c.WindowSize.String(),
			Description:  c.Description,
			IsActive:     c.IsActive,
		})
	}
	return out
}

// UpdateConfigFromRequest applies an admin change and returns the updated
// budget.
func (svc *RateLimitService) UpdateConfigFromRequest(endpointType string, req dto.UpdateRateLimitConfigRequest) (*dto.RateLimitConfigResponse, error) {
	config, err := svc.UpdateConfig(endpointType, req)
	if err != nil {
		return nil, err
	}

	return &dto.RateLimitConfigResponse{
		EndpointType: config.EndpointType,
		MaxRequests:  config.MaxRequests,
		Window:       config.WindowSize.String(),
		Description:  config.Description,
		IsActive:     config.IsActive,
	}, nil
}

// ==================== IN-PROCESS STORE ====================

type memoryCounterStore struct {
	mutex      sync.Mutex
	timestamps map[string][]time.Time
}

func NewMemoryCounterStore() CounterStore {
	return &memoryCounterStore{timestamps: make(map[string][]time.Time)}
}

func (s *memoryCounterStore) Allow(key string, maxRequests int, window time.Duration) (bool, int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	now := time.Now()
	cutoff := now.Add(-window)

	valid := s.timestamps[key][:0]
	for _, ts := range s.timestamps[key] {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= maxRequests {
		s.timestamps[key] = valid
		return false, 0, nil
	}

	valid = append(valid, now)
	s.timestamps[key] = valid
	return true, maxRequests - len(valid), nil
}

// ==================== REDIS STORE ====================

// redisCounterStore keeps one sorted set per key, members scored by unix
// nanos, pruned to the window on each call.
type redisCounterStore struct {
	client *redis.Client
}

func (s *redisCounterStore) Allow(key string, maxRequests int, window time.Duration) (bool, int, error) {
	ctx := context.Background()
	now := time.Now()
	cutoff := now.Add(-window).UnixNano()

	redisKey := "ratelimit:" + key

	if err := s.client.ZRemRangeByScore(ctx, redisKey, "0", fmt.Sprintf("%d", cutoff)).Err(); err != nil {
		return false, 0, err
	}

	count, err := s.client.ZCard(ctx, redisKey).Result()
	if err != nil {
		return false, 0, err
	}

	if count >= int64(maxRequests) {
		return false, 0, nil
	}

	member := redis.Z{Score: float64(now.UnixNano()), Member: uuid.NewString()}
	if err := s.client.ZAdd(ctx, redisKey, member).Err(); err != nil {
		return false, 0, err
	}
	if err := s.client.Expire(ctx, redisKey, window).Err(); err != nil {
		log.Printf("Failed to set rate limit key expiry: %v", err)
	}

	return true, maxRequests - int(count) - 1, nil
}
