package domain

import "time"

// State is the lifecycle position of a quiz session.
type State string

const (
	StateOpen      State = "open"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateExpired   State = "expired"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	return s == StateCompleted || s == StateExpired
}

// SettingField names a negotiable session setting.
type SettingField string

const (
	SettingQuestionCount SettingField = "question_count"
	SettingTimeLimit     SettingField = "time_limit"
)

// Settings are negotiated while a session is open and frozen on start.
type Settings struct {
	QuestionCount    int `json:"questionCount"`
	TimeLimitSeconds int `json:"timeLimitSeconds"`
}

// TimeLimit returns the per-question limit as a duration.
func (s Settings) TimeLimit() time.Duration {
	return time.Duration(s.TimeLimitSeconds) * time.Second
}

// Participant represents a quiz participant and their accumulated tallies.
type Participant struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	Correct     int    `json:"correct"`
	Wrong       int    `json:"wrong"`
	JoinedAt    time.Time
}

// Session is one live quiz instance. It is a value: the session store hands
// out clones and commits whole values back.
type Session struct {
	ID           string
	TopicID      string
	TopicName    string
	CreatorID    string
	Settings     Settings
	Participants []Participant
	State        State

	Questions    []Question
	CurrentIndex int
	Deadline     time.Time
	// Answers holds the option picked by each user for the current question.
	Answers  map[string]int
	Resolved int

	Committed bool
	// CommitFailures lists participants whose counters were not updated.
	CommitFailures []string
	CreatedAt    time.Time
	LastActivity time.Time
	FinishedAt   time.Time
	Version      int64
}

// Clone returns a deep copy so callers can mutate it freely.
func (s Session) Clone() Session {
	out := s
	if s.Participants != nil {
		out.Participants = make([]Participant, len(s.Participants))
		copy(out.Participants, s.Participants)
	}
	if s.Questions != nil {
		out.Questions = make([]Question, len(s.Questions))
		for i, q := range s.Questions {
			out.Questions[i] = q
			out.Questions[i].Options = append([]string(nil), q.Options...)
		}
	}
	if s.CommitFailures != nil {
		out.CommitFailures = append([]string(nil), s.CommitFailures...)
	}
	if s.Answers != nil {
		out.Answers = make(map[string]int, len(s.Answers))
		for k, v := range s.Answers {
			out.Answers[k] = v
		}
	}
	return out
}

// Participant returns the participant record for userID, if joined.
func (s *Session) Participant(userID string) (*Participant, bool) {
	for i := range s.Participants {
		if s.Participants[i].UserID == userID {
			return &s.Participants[i], true
		}
	}
	return nil, false
}

// Topic is the foreign topic entity a session is played against.
type Topic struct {
	ID          string `json:"topicId" yaml:"topic_id"`
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Active      bool   `json:"isActive" yaml:"is_active"`
	Played      int    `json:"topicPlayed" yaml:"topic_played"`
	CreatedAt   time.Time
}

// Question is a multiple-choice question with exactly one correct option.
type Question struct {
	ID            string   `json:"questionId"`
	TopicID       string   `json:"topicId"`
	Prompt        string   `json:"prompt"`
	Options       []string `json:"options"`
	CorrectOption int      `json:"correctOption"`
	Points        int      `json:"points"` // defaults to the configured value if zero
	CreatedBy     string   `json:"createdBy"`
	Approved      bool     `json:"isApproved"`
	CreatedAt     time.Time
}

// UserStats are the persistent per-user counters.
type UserStats struct {
	TotalQuiz    int `json:"total_quiz" yaml:"total_quiz"`
	TotalCorrect int `json:"total_correct" yaml:"total_correct"`
	TotalWrong   int `json:"total_wrong" yaml:"total_wrong"`
	TotalPoints  int `json:"total_points" yaml:"total_points"`
	QuizCreated  int `json:"quiz_created" yaml:"quiz_created"`
}

// User is the persistent user document.
type User struct {
	ID        string
	Username  string
	FullName  string
	HasStart  bool
	Stats     UserStats
	CreatedAt time.Time
}

// DisplayName prefers the full name, then @username.
func (u User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Username != "" {
		return "@" + u.Username
	}
	return ""
}

// StatDelta is what one finished session adds to a user's counters.
type StatDelta struct {
	Correct int
	Wrong   int
	Points  int
}
