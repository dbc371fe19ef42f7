package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/go-redis/redis/v8"
	"golang.org/x/time/rate"

	"github.com/fidelize/gateway/internal/backend"
	"github.com/fidelize/gateway/internal/cache"
	"github.com/fidelize/gateway/internal/config"
	"github.com/fidelize/gateway/internal/models"
	"github.com/fidelize/gateway/internal/session"
)

// AttemptState is where a redemption attempt currently stands. Every attempt
// ends in CodeReady or back in Idle.
type AttemptState string

const (
	StateIdle                 AttemptState = "idle"
	StateCheckingCache        AttemptState = "checking_cache"
	StateQueryingBackend      AttemptState = "querying_backend"
	StateAwaitingConfirmation AttemptState = "awaiting_confirmation"
	StateIssuing              AttemptState = "issuing"
	StateCodeReady            AttemptState = "code_ready"
)

var (
	// ErrInsufficientBalance is the synchronous pre-check rejection. It is
	// evaluated against the session's last-fetched balance, so it can be
	// stale; the backend's own check remains authoritative.
	ErrInsufficientBalance = errors.New("insufficient balance for reward")

	// ErrAttemptInFlight means another redemption is already issuing for
	// this session.
	ErrAttemptInFlight = errors.New("a redemption is already in progress")

	// ErrRateLimited means the customer hit the issuance rate limit.
	ErrRateLimited = errors.New("redemption rate limit exceeded")
)

// RedemptionOutcome is the terminal view of one orchestrator invocation.
type RedemptionOutcome struct {
	State   AttemptState           `json:"state"`
	Reward  models.RewardItem      `json:"reward"`
	Code    *models.RedemptionCode `json:"code,omitempty"`
	QRImage string                 `json:"qrImage,omitempty"` // base64 PNG of the code
	Balance int64                  `json:"balance"`
	Message string                 `json:"message,omitempty"`
}

// RedemptionService drives a reward selection to a terminal state: reuse a
// cached code, surface an existing one from the backend, or walk the
// confirm-then-issue flow.
type RedemptionService struct {
	backend  BackendAPI
	caches   *cache.Registry
	sessions *session.Store
	redis    *redis.Client
	limiter  *rate.Limiter
	config   *config.RedemptionConfig
}

func NewRedemptionService(backendAPI BackendAPI, caches *cache.Registry, sessions *session.Store, redisClient *redis.Client) *RedemptionService {
	cfg := config.LoadRedemptionConfig()
	return &RedemptionService{
		backend:  backendAPI,
		caches:   caches,
		sessions: sessions,
		redis:    redisClient,
		limiter:  rate.NewLimiter(rate.Limit(cfg.IssuePerSecond), cfg.IssueBurst),
		config:   cfg,
	}
}

// Check resolves whether an unused code already exists for the reward. It
// consults the session cache first, then the backend once per session per
// reward, and lands on CodeReady or AwaitingConfirmation.
func (s *RedemptionService) Check(ctx context.Context, sess *session.Session, reward models.RewardItem) *RedemptionOutcome {
	sessionCache := s.caches.ForSession(sess.ID)

	if code, ok := sessionCache.Get(reward.ID); ok {
		log.Printf("[Redemption] Check - cache hit for session %s reward %d", sess.ID, reward.ID)
		return s.codeReady(sess, reward, code)
	}

	if sessionCache.IsVerified(reward.ID) {
		// Confirmed absent earlier this session; skip the lookup.
		return s.awaitingConfirmation(sess, reward)
	}

	code, err := s.backend.LookupCode(ctx, sess.Schema, sess.CustomerID, reward.ID)
	switch {
	case err == nil:
		sessionCache.Put(reward.ID, *code)
		log.Printf("[Redemption] Check - backend reported existing code for reward %d", reward.ID)
		return s.codeReady(sess, reward, *code)
	case errors.Is(err, backend.ErrNoCode):
		sessionCache.MarkVerified(reward.ID)
		return s.awaitingConfirmation(sess, reward)
	default:
		// Fail open: a lookup failure must not block the customer from
		// redeeming. The issue call is atomic on the backend either way.
		log.Printf("[Redemption] Check - lookup failed for reward %d, proceeding to confirmation: %v", reward.ID, err)
		return s.awaitingConfirmation(sess, reward)
	}
}

// Redeem runs the full attempt. With confirm=false it stops at the check
// step; with confirm=true it issues a new code when none exists. The
// insufficient-balance pre-check short-circuits before any state is entered
// or any backend call is made.
func (s *RedemptionService) Redeem(ctx context.Context, sess *session.Session, reward models.RewardItem, note string, confirm bool) (*RedemptionOutcome, error) {
	if reward.PointCost > sess.Balance {
		return nil, ErrInsufficientBalance
	}

	outcome := s.Check(ctx, sess, reward)
	if outcome.State == StateCodeReady {
		return outcome, nil
	}
	if !confirm {
		return outcome, nil
	}

	return s.issue(ctx, sess, reward, note)
}

func (s *RedemptionService) issue(ctx context.Context, sess *session.Session, reward models.RewardItem, note string) (*RedemptionOutcome, error) {
	if len(note) > s.config.NoteMaxLength {
		note = note[:s.config.NoteMaxLength]
	}

	release, err := s.acquireIssueGuard(ctx, sess.ID)
	if err != nil {
		return nil, err
	}
	defer release()

	if err := s.checkRateLimit(ctx, sess); err != nil {
		return nil, err
	}
	if !s.limiter.Allow() {
		return nil, ErrRateLimited
	}

	log.Printf("[Redemption] issue - session %s customer %d reward %d", sess.ID, sess.CustomerID, reward.ID)

	code, err := s.backend.IssueRedemption(ctx, sess.Schema, sess.CustomerID, reward.ID, note)
	if err != nil {
		// No compensation: the backend debits and issues atomically, so a
		// failed call left nothing behind. Cache stays untouched.
		log.Printf("[Redemption] issue - backend refused: %v", err)
		return nil, err
	}

	s.incrementRateLimit(ctx, sess)

	sessionCache := s.caches.ForSession(sess.ID)
	if !code.Used {
		sessionCache.Put(reward.ID, *code)
	} else {
		sessionCache.MarkVerified(reward.ID)
	}

	sess.Balance = code.BalanceAfter
	if s.sessions != nil {
		if err := s.sessions.UpdateBalance(ctx, sess.ID, code.BalanceAfter); err != nil {
			log.Printf("[Redemption] issue - balance snapshot update failed: %v", err)
		}
	}

	outcome := s.codeReady(sess, reward, *code)
	outcome.Message = issuedMessage(reward)
	return outcome, nil
}

func (s *RedemptionService) codeReady(sess *session.Session, reward models.RewardItem, code models.RedemptionCode) *RedemptionOutcome {
	balance := sess.Balance
	if code.BalanceAfter > 0 {
		balance = code.BalanceAfter
	}

	outcome := &RedemptionOutcome{
		State:   StateCodeReady,
		Reward:  reward,
		Code:    &code,
		Balance: balance,
	}

	if qr, err := renderCodeQR(code.Code); err == nil {
		outcome.QRImage = qr
	} else {
		log.Printf("[Redemption] codeReady - QR render failed for reward %d: %v", reward.ID, err)
	}
	return outcome
}

func (s *RedemptionService) awaitingConfirmation(sess *session.Session, reward models.RewardItem) *RedemptionOutcome {
	return &RedemptionOutcome{
		State:   StateAwaitingConfirmation,
		Reward:  reward,
		Balance: sess.Balance,
		Message: confirmationMessage(reward),
	}
}

func confirmationMessage(reward models.RewardItem) string {
	if reward.OffsiteFulfillment {
		return fmt.Sprintf("A entrega desta recompensa é feita por um parceiro, que entrará em contato com você. Confirmar o resgate de %d pontos?", reward.PointCost)
	}
	return fmt.Sprintf("Confirmar o resgate de %d pontos? O código deverá ser apresentado na loja.", reward.PointCost)
}

func issuedMessage(reward models.RewardItem) string {
	if reward.OffsiteFulfillment {
		return "Solicitação enviada! O parceiro entrará em contato para combinar a entrega."
	}
	return "Resgate confirmado! Apresente o código na loja."
}

// acquireIssueGuard allows at most one in-flight issuance per session, the
// server-side analog of the redeem button being disabled while a request
// runs.
func (s *RedemptionService) acquireIssueGuard(ctx context.Context, sessionID string) (func(), error) {
	if s.redis == nil {
		return func() {}, nil
	}

	key := fmt.Sprintf("resgate:emitindo:%s", sessionID)
	ok, err := s.redis.SetNX(ctx, key, "1", s.config.IssueGuardTTL).Result()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrAttemptInFlight
	}
	return func() { s.redis.Del(context.Background(), key) }, nil
}

func (s *RedemptionService) checkRateLimit(ctx context.Context, sess *session.Session) error {
	if s.redis == nil {
		return nil
	}

	key := fmt.Sprintf("resgate:ratelimit:%s:%d", sess.Schema, sess.CustomerID)
	count, err := s.redis.Get(ctx, key).Int()
	if err != nil && err != redis.Nil {
		return err
	}
	if count >= s.config.MaxIssuePerCustomer {
		return ErrRateLimited
	}
	return nil
}

func (s *RedemptionService) incrementRateLimit(ctx context.Context, sess *session.Session) {
	if s.redis == nil {
		return
	}

	key := fmt.Sprintf("resgate:ratelimit:%s:%d", sess.Schema, sess.CustomerID)
	pipe := s.redis.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.config.RateLimitWindow)
	pipe.Exec(ctx)
}
