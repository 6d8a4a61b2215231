// internal/models/content.go
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	StatusSuccess   = "success"
	StatusError     = "error"
	StatusAccepted  = "accepted"
	StatusDuplicate = "duplicate"
)

// Idea sources the model may attribute an idea to.
const (
	SourceRSSOpenAI    = "rss_openai"
	SourceRSSAnthropic = "rss_anthropic"
	SourceEmailPodcast = "email_podcast"
	SourceWebResearch  = "web_research"
)

type FeedItem struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Summary string `json:"summary,omitempty"`
}

// IdeaRequest is the morning payload: newsletter text plus pre-fetched feeds.
type IdeaRequest struct {
	EmailContent string     `json:"email_content"`
	EmailSubject string     `json:"email_subject"`
	RSSOpenAI    []FeedItem `json:"rss_openai"`
	RSSAnthropic []FeedItem `json:"rss_anthropic"`
}

var numberLiteral = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// IdeaID is whatever scalar the model used as an idea id, kept as text.
// Numeric ids are written back as JSON numbers, everything else as strings.
type IdeaID string

func (id IdeaID) String() string { return string(id) }

func (id *IdeaID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*id = ""
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = IdeaID(s)
	case len(data) > 0 && (data[0] == '{' || data[0] == '['):
		return fmt.Errorf("idea id must be a string or number, got %s", data)
	default:
		*id = IdeaID(data)
	}
	return nil
}

func (id IdeaID) MarshalJSON() ([]byte, error) {
	if id == "" {
		return []byte("0"), nil
	}
	if numberLiteral.MatchString(string(id)) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Idea is one LinkedIn post idea.
type Idea struct {
	ID            IdeaID `json:"id"`
	Title         string `json:"title"`
	Hook          string `json:"hook"`
	Angle         string `json:"angle"`
	Source        string `json:"source"`
	SourceURL     string `json:"source_url"`
	SourceTitle   string `json:"source_title"`
	EstimatedTone string `json:"estimated_tone"`
	PostFormat    string `json:"post_format"`
}

// IsEmpty reports whether the idea carries no content at all.
func (i *Idea) IsEmpty() bool {
	return i == nil || (*i == Idea{})
}

// DedupeKey identifies repeated clicks on the same Slack button.
func (i *Idea) DedupeKey() string {
	return "post:" + i.ID.String() + ":" + strings.ToLower(strings.TrimSpace(i.Title))
}

type IdeaBatch struct {
	Status      string `json:"status"`
	Ideas       []Idea `json:"ideas"`
	GeneratedAt string `json:"generated_at"`
	Model       string `json:"model"`
}

// PostRequest is the body sent when "Ausarbeiten" is clicked in Slack.
type PostRequest struct {
	Idea        *Idea  `json:"idea"`
	ResponseURL string `json:"response_url,omitempty"`
	ChannelID   string `json:"channel_id,omitempty"`
}

type PostResult struct {
	Status    string `json:"status"`
	Post      string `json:"post"`
	IdeaID    IdeaID `json:"idea_id"`
	IdeaTitle string `json:"idea_title"`
	WordCount int    `json:"word_count"`
}

// ErrorResult is printed by the CLI and returned as a Zeebe variable on failure.
type ErrorResult struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

var berlin = loadBerlin()

func loadBerlin() *time.Location {
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		return time.FixedZone("CET", 60*60)
	}
	return loc
}

// Berlin returns the Europe/Berlin location used for every user-facing date.
func Berlin() *time.Location { return berlin }

// DisplayDate formats t as "Wednesday, 25. February 2026" in Berlin time.
func DisplayDate(t time.Time) string {
	return t.In(berlin).Format("Monday, 02. January 2006")
}
