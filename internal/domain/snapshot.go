package domain

import "time"

// Choice is a selectable option on an outbound response. Token round-trips
// back as the payload of a future inbound action.
type Choice struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// ParticipantView is how a participant appears in a snapshot.
type ParticipantView struct {
	UserID      string `json:"userId"`
	DisplayName string `json:"displayName"`
	Score       int    `json:"score"`
	Creator     bool   `json:"creator"`
}

// QuestionView is the client-safe view of the current question.
type QuestionView struct {
	Index    int       `json:"index"`
	Total    int       `json:"total"`
	Prompt   string    `json:"prompt"`
	Options  []string  `json:"options"`
	Deadline time.Time `json:"deadline"`
	Answered int       `json:"answered"`
}

// Snapshot is the rendered state of a session returned by every state change.
type Snapshot struct {
	SessionID    string            `json:"sessionId"`
	TopicID      string            `json:"topicId"`
	CreatorID    string            `json:"creatorId"`
	State        State             `json:"state"`
	Settings     Settings          `json:"settings"`
	Participants []ParticipantView `json:"participants"`
	Question     *QuestionView     `json:"question,omitempty"`
	// Standings is the final ranking, present once the session is terminal.
	Standings []ParticipantView `json:"standings,omitempty"`
	// CommitFailures names participants whose stats could not be saved.
	CommitFailures []string `json:"commitFailures,omitempty"`
	Version   int64             `json:"version"`
	Text      string            `json:"text"`
	Choices   []Choice          `json:"choices"`
}

// Action is one inbound user action delivered by the messaging transport.
type Action struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Type        string `json:"action_type"`
	Payload     string `json:"payload"`
}

// Response is what the glue layer delivers back to the messaging client.
type Response struct {
	SessionID string   `json:"sessionId,omitempty"`
	Text      string   `json:"text"`
	Choices   []Choice `json:"choices"`
}

// ResponseFromSnapshot lifts a snapshot into a transport response.
func ResponseFromSnapshot(s Snapshot) Response {
	return Response{SessionID: s.SessionID, Text: s.Text, Choices: s.Choices}
}
