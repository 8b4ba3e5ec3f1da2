package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/app"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/infra/userkey"
)

// DocumentStore is an in-memory document store with users, topics and
// questions kept in insertion order. User documents keep the key type they
// were stored with (int64 or string) so the legacy lookup path is exercised.
type DocumentStore struct {
	mu        sync.RWMutex
	users     []*userDoc
	topics    []*domain.Topic
	questions []*domain.Question
}

type userDoc struct {
	key  any
	user domain.User
}

func NewDocumentStore() *DocumentStore {
	return &DocumentStore{}
}

// AddUser stores a user under key, which must be an int64 or a string.
func (s *DocumentStore) AddUser(key any, user domain.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	user.ID = userkey.Canonical(key)
	s.users = append(s.users, &userDoc{key: key, user: user})
}

func (s *DocumentStore) AddTopic(topic domain.Topic) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := topic
	s.topics = append(s.topics, &t)
}

func (s *DocumentStore) AddQuestion(q domain.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := q
	c.Options = append([]string(nil), q.Options...)
	s.questions = append(s.questions, &c)
}

// DeleteTopic removes a topic but leaves its questions behind.
func (s *DocumentStore) DeleteTopic(topicID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, t := range s.topics {
		if t.ID == topicID {
			s.topics = append(s.topics[:i], s.topics[i+1:]...)
			return
		}
	}
}

// findUserLocked tries the numeric key first, then the string key.
func (s *DocumentStore) findUserLocked(userID string) (*userDoc, bool) {
	for _, candidate := range userkey.Candidates(userID) {
		for _, doc := range s.users {
			if doc.key == candidate {
				return doc, true
			}
		}
	}
	return nil, false
}

func (s *DocumentStore) findTopicLocked(topicID string) (*domain.Topic, bool) {
	for _, t := range s.topics {
		if t.ID == topicID {
			return t, true
		}
	}
	return nil, false
}

func (s *DocumentStore) GetTopic(_ context.Context, topicID string) (domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.findTopicLocked(topicID)
	if !ok {
		return domain.Topic{}, domain.ErrTopicNotFound
	}
	return *t, nil
}

func (s *DocumentStore) IncrementTopicPlayed(_ context.Context, topicID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.findTopicLocked(topicID)
	if !ok {
		return domain.ErrTopicNotFound
	}
	t.Played++
	return nil
}

func (s *DocumentStore) IncrementUserStats(_ context.Context, userID string, delta domain.StatDelta) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.findUserLocked(userID)
	if !ok {
		return domain.ErrUserNotFound
	}
	doc.user.Stats.TotalQuiz++
	doc.user.Stats.TotalCorrect += delta.Correct
	doc.user.Stats.TotalWrong += delta.Wrong
	doc.user.Stats.TotalPoints += delta.Points
	return nil
}

func (s *DocumentStore) IncrementUserQuizCreated(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.findUserLocked(userID)
	if !ok {
		return domain.ErrUserNotFound
	}
	doc.user.Stats.QuizCreated++
	return nil
}

func (s *DocumentStore) GetUser(_ context.Context, userID string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.findUserLocked(userID)
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return doc.user, nil
}

func (s *DocumentStore) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.users))
	for _, doc := range s.users {
		out = append(out, doc.user)
	}
	return out, nil
}

func (s *DocumentStore) CountUsers(_ context.Context, filter domain.UserFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, doc := range s.users {
		if filter.StartedOnly && !doc.user.HasStart {
			continue
		}
		if !filter.CreatedSince.IsZero() && doc.user.CreatedAt.Before(filter.CreatedSince) {
			continue
		}
		n++
	}
	return n, nil
}

func (s *DocumentStore) CountTopics(_ context.Context, activeOnly bool) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, t := range s.topics {
		if activeOnly && !t.Active {
			continue
		}
		n++
	}
	return n, nil
}

func (s *DocumentStore) CountQuestions(_ context.Context, filter domain.QuestionFilter) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, q := range s.questions {
		if filter.Approved != nil && q.Approved != *filter.Approved {
			continue
		}
		n++
	}
	return n, nil
}

func (s *DocumentStore) TopTopicsByPlays(_ context.Context, limit int) ([]domain.TopicPlays, error) {
	s.mu.RLock()
	out := make([]domain.TopicPlays, 0, len(s.topics))
	for _, t := range s.topics {
		out = append(out, domain.TopicPlays{TopicID: t.ID, TopicName: t.Name, PlayCount: t.Played})
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].PlayCount > out[j].PlayCount })
	return truncate(out, limit), nil
}

// AggregateTopSubmitters groups questions by submitter. Ties keep the order
// in which each submitter first appears.
func (s *DocumentStore) AggregateTopSubmitters(_ context.Context, limit int) ([]domain.SubmitterCount, error) {
	s.mu.RLock()
	var out []domain.SubmitterCount
	index := make(map[string]int)
	for _, q := range s.questions {
		i, ok := index[q.CreatedBy]
		if !ok {
			i = len(out)
			index[q.CreatedBy] = i
			out = append(out, domain.SubmitterCount{UserID: q.CreatedBy})
		}
		out[i].QuestionCount++
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].QuestionCount > out[j].QuestionCount })
	return truncate(out, limit), nil
}

func (s *DocumentStore) AggregateTopCreators(_ context.Context, limit int) ([]domain.CreatorCount, error) {
	s.mu.RLock()
	var out []domain.CreatorCount
	for _, doc := range s.users {
		if doc.user.Stats.QuizCreated > 0 {
			out = append(out, domain.CreatorCount{
				UserID:    doc.user.ID,
				FullName:  doc.user.DisplayName(),
				QuizCount: doc.user.Stats.QuizCreated,
			})
		}
	}
	s.mu.RUnlock()
	sort.SliceStable(out, func(i, j int) bool { return out[i].QuizCount > out[j].QuizCount })
	return truncate(out, limit), nil
}

func (s *DocumentStore) ListTopics(_ context.Context) ([]domain.Topic, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Topic, 0, len(s.topics))
	for _, t := range s.topics {
		out = append(out, *t)
	}
	return out, nil
}

func (s *DocumentStore) ListApprovedQuestions(_ context.Context) ([]domain.Question, error) {
	return s.approved(func(domain.Question) bool { return true }), nil
}

func (s *DocumentStore) ListApprovedQuestionsByTopic(_ context.Context, topicID string) ([]domain.Question, error) {
	return s.approved(func(q domain.Question) bool { return q.TopicID == topicID }), nil
}

// LoadApprovedQuestions lets the store back a QuestionRepository.
func (s *DocumentStore) LoadApprovedQuestions(ctx context.Context, topicID string) ([]domain.Question, error) {
	return s.ListApprovedQuestionsByTopic(ctx, topicID)
}

func (s *DocumentStore) approved(match func(domain.Question) bool) []domain.Question {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []domain.Question{}
	for _, q := range s.questions {
		if q.Approved && match(*q) {
			c := *q
			c.Options = append([]string(nil), q.Options...)
			out = append(out, c)
		}
	}
	return out
}

func truncate[T any](in []T, limit int) []T {
	if in == nil {
		return []T{}
	}
	if limit > 0 && len(in) > limit {
		return in[:limit]
	}
	return in
}

var (
	_ app.DocumentStore = (*DocumentStore)(nil)
	_ app.StatsSource   = (*DocumentStore)(nil)
	_ QuestionLoader    = (*DocumentStore)(nil)
)
