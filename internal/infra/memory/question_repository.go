package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionLoader fetches approved questions from a backing store (e.g., document DB).
type QuestionLoader interface {
	LoadApprovedQuestions(ctx context.Context, topicID string) ([]domain.Question, error)
}

// QuestionRepository caches approved questions per topic with TTL to avoid repeated DB hits.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedQuestions
}

type cachedQuestions struct {
	questions []domain.Question
	expiresAt time.Time
}

func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedQuestions),
	}
}

func (r *QuestionRepository) ApprovedQuestions(ctx context.Context, topicID string) ([]domain.Question, error) {
	if qs, ok := r.cached(topicID); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(topicID, func() (interface{}, error) {
		if qs, ok := r.cached(topicID); ok {
			return qs, nil
		}

		qs, err := r.loader.LoadApprovedQuestions(ctx, topicID)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[topicID] = cachedQuestions{
			questions: qs,
			expiresAt: r.clock().Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	return copyQuestions(result.([]domain.Question)), nil
}

// Invalidate drops a topic from the cache, e.g. after a question is approved.
func (r *QuestionRepository) Invalidate(topicID string) {
	r.mu.Lock()
	delete(r.cache, topicID)
	r.mu.Unlock()
}

func (r *QuestionRepository) cached(topicID string) ([]domain.Question, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	if entry, ok := r.cache[topicID]; ok && entry.expiresAt.After(now) {
		return copyQuestions(entry.questions), true
	}
	return nil, false
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func copyQuestions(in []domain.Question) []domain.Question {
	out := make([]domain.Question, len(in))
	for i, q := range in {
		out[i] = q
		out[i].Options = append([]string(nil), q.Options...)
	}
	return out
}
