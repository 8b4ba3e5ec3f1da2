package app

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/Rohit-byte444/Redspot-quiz-bot-2/internal/domain"
)

const (
	maxDisplayedParticipants = 10
	creatorMarker            = "👑 (creator)"
	selectedMarker           = "✅"
	unknownTopic             = "Unknown topic"
)

// Render turns a session into the snapshot handed back to callers. It reads
// nothing but its arguments, so equal sessions render equal snapshots.
func Render(sess domain.Session, opts Options) domain.Snapshot {
	snap := domain.Snapshot{
		SessionID:    sess.ID,
		TopicID:      sess.TopicID,
		CreatorID:    sess.CreatorID,
		State:        sess.State,
		Settings:     sess.Settings,
		Participants: participantViews(sess),
		Version:      sess.Version,
	}

	var b strings.Builder
	topic := sess.TopicName
	if topic == "" {
		topic = unknownTopic
	}
	fmt.Fprintf(&b, "Quiz: %s\n", topic)
	fmt.Fprintf(&b, "Questions: %d\n", sess.Settings.QuestionCount)
	fmt.Fprintf(&b, "Time per question: %ds\n", sess.Settings.TimeLimitSeconds)

	switch sess.State {
	case domain.StateOpen:
		fmt.Fprintf(&b, "Participants (%d):\n", len(sess.Participants))
		b.WriteString(formatParticipants(snap.Participants))
		snap.Choices = openChoices(sess, opts)
	case domain.StateRunning:
		q := sess.Questions[sess.CurrentIndex]
		snap.Question = &domain.QuestionView{
			Index:    sess.CurrentIndex,
			Total:    sess.Settings.QuestionCount,
			Prompt:   q.Prompt,
			Options:  append([]string(nil), q.Options...),
			Deadline: sess.Deadline,
			Answered: len(sess.Answers),
		}
		fmt.Fprintf(&b, "\nQuestion %d/%d: %s\n", sess.CurrentIndex+1, sess.Settings.QuestionCount, q.Prompt)
		fmt.Fprintf(&b, "Answered: %d/%d", len(sess.Answers), len(sess.Participants))
		snap.Choices = answerChoices(sess, q)
	default:
		snap.Standings = standings(snap.Participants)
		if sess.State == domain.StateCompleted {
			b.WriteString("\nQuiz finished!\n")
		} else {
			b.WriteString("\nQuiz expired.\n")
		}
		b.WriteString(formatStandings(snap.Standings))
		if len(sess.CommitFailures) > 0 {
			snap.CommitFailures = append([]string(nil), sess.CommitFailures...)
			fmt.Fprintf(&b, "\nStats not saved for: %s", strings.Join(failedNames(snap.Participants, sess.CommitFailures), ", "))
		}
		snap.Choices = []domain.Choice{}
	}
	snap.Text = strings.TrimRight(b.String(), "\n")
	return snap
}

func participantViews(sess domain.Session) []domain.ParticipantView {
	views := make([]domain.ParticipantView, 0, len(sess.Participants))
	for _, p := range sess.Participants {
		name := p.DisplayName
		if name == "" {
			name = "User " + p.UserID
		}
		views = append(views, domain.ParticipantView{
			UserID:      p.UserID,
			DisplayName: name,
			Score:       p.Score,
			Creator:     p.UserID == sess.CreatorID,
		})
	}
	return views
}

func formatParticipants(views []domain.ParticipantView) string {
	if len(views) == 0 {
		return "No participants yet"
	}
	var lines []string
	for i, v := range views {
		if i == maxDisplayedParticipants {
			lines = append(lines, fmt.Sprintf("... and %d more", len(views)-maxDisplayedParticipants))
			break
		}
		entry := v.DisplayName
		if v.Creator {
			entry += " " + creatorMarker
		}
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, entry))
	}
	return strings.Join(lines, "\n")
}

// standings ranks by score, keeping join order for ties.
func standings(views []domain.ParticipantView) []domain.ParticipantView {
	ranked := append([]domain.ParticipantView(nil), views...)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})
	return ranked
}

func formatStandings(ranked []domain.ParticipantView) string {
	if len(ranked) == 0 {
		return "No participants"
	}
	lines := make([]string, 0, len(ranked))
	for i, v := range ranked {
		lines = append(lines, fmt.Sprintf("%d. %s: %d", i+1, v.DisplayName, v.Score))
	}
	return strings.Join(lines, "\n")
}

func failedNames(views []domain.ParticipantView, ids []string) []string {
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		name := "User " + id
		for _, v := range views {
			if v.UserID == id {
				name = v.DisplayName
				break
			}
		}
		names = append(names, name)
	}
	return names
}

func openChoices(sess domain.Session, opts Options) []domain.Choice {
	choices := []domain.Choice{
		{Label: "Start quiz", Token: domain.EncodeToken(domain.ActionStart, sess.ID)},
		{Label: "Join quiz", Token: domain.EncodeToken(domain.ActionJoin, sess.ID)},
	}
	for _, n := range opts.QuestionCounts {
		choices = append(choices, domain.Choice{
			Label: optionLabel(fmt.Sprintf("%d questions", n), n == sess.Settings.QuestionCount),
			Token: domain.EncodeToken(domain.ActionCount, sess.ID, strconv.Itoa(n)),
		})
	}
	for _, sec := range opts.TimeLimits {
		choices = append(choices, domain.Choice{
			Label: optionLabel(fmt.Sprintf("%d seconds", sec), sec == sess.Settings.TimeLimitSeconds),
			Token: domain.EncodeToken(domain.ActionTime, sess.ID, strconv.Itoa(sec)),
		})
	}
	return append(choices, domain.Choice{Label: "Cancel", Token: domain.EncodeToken(domain.ActionCancel, sess.ID)})
}

func answerChoices(sess domain.Session, q domain.Question) []domain.Choice {
	choices := make([]domain.Choice, 0, len(q.Options))
	idx := strconv.Itoa(sess.CurrentIndex)
	for i, opt := range q.Options {
		choices = append(choices, domain.Choice{
			Label: opt,
			Token: domain.EncodeToken(domain.ActionAnswer, sess.ID, idx, strconv.Itoa(i)),
		})
	}
	return choices
}

func optionLabel(text string, selected bool) string {
	if selected {
		return text + " " + selectedMarker
	}
	return text
}
