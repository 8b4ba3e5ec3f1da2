package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/app"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/infra/memory"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// QuestionRepository caches approved questions per topic in Redis and falls
// back to a loader on cache miss.
// Questions are stored as a JSON array: SET quiz:topic:{topicID}:questions
type QuestionRepository struct {
	client *redis.Client
	loader memory.QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewQuestionRepository(client *redis.Client, loader memory.QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuestionRepository) ApprovedQuestions(ctx context.Context, topicID string) ([]domain.Question, error) {
	if qs, ok := r.cached(ctx, topicID); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(topicID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if qs, ok := r.cached(ctx, topicID); ok {
			return qs, nil
		}

		qs, err := r.loader.LoadApprovedQuestions(ctx, topicID)
		if err != nil {
			return nil, err
		}
		if raw, err := json.Marshal(qs); err == nil {
			_ = r.client.Set(ctx, r.key(topicID), raw, r.ttlWithJitter()).Err()
		}
		return qs, nil
	})
	if err != nil {
		return nil, err
	}
	qs := result.([]domain.Question)
	out := make([]domain.Question, len(qs))
	for i, q := range qs {
		out[i] = q
		out[i].Options = append([]string(nil), q.Options...)
	}
	return out, nil
}

// Invalidate drops a topic from the cache, e.g. after a question is approved.
func (r *QuestionRepository) Invalidate(ctx context.Context, topicID string) error {
	return r.client.Del(ctx, r.key(topicID)).Err()
}

func (r *QuestionRepository) cached(ctx context.Context, topicID string) ([]domain.Question, bool) {
	raw, err := r.client.Get(ctx, r.key(topicID)).Bytes()
	if err != nil {
		return nil, false
	}
	var qs []domain.Question
	if err := json.Unmarshal(raw, &qs); err != nil {
		return nil, false
	}
	return qs, true
}

func (r *QuestionRepository) key(topicID string) string {
	return "quiz:topic:" + topicID + ":questions"
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

var _ app.QuestionRepository = (*QuestionRepository)(nil)
