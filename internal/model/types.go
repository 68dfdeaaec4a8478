package model

import "time"

// Fact is one stored personal fact, scoped to a user.
type Fact struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
	MemoryDate string    `json:"memoryDate"`
	// Column and RowID are provenance handed back to the store on
	// round trips. The engine never interprets them.
	Column string `json:"column,omitempty"`
	RowID  int64  `json:"rowId,omitempty"`
}

// FactHit is a Fact annotated with a query-scoped relevance score.
// MatchCount is meaningful only within one search result set and is
// recomputed on every query; it is never persisted.
type FactHit struct {
	Fact
	MatchCount int `json:"matchCount"`
}

// RankedFact is one row of the normalized memory table returned by the
// ranking engine. FormattedDate is display sugar derived from
// MemoryDate; MemoryDate itself stays opaque.
type RankedFact struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	CreatedAt     time.Time `json:"createdAt"`
	MemoryDate    string    `json:"memoryDate"`
	FormattedDate string    `json:"formattedDate,omitempty"`
	Column        string    `json:"column,omitempty"`
	RowID         int64     `json:"rowId,omitempty"`
	MatchCount    int       `json:"matchCount"`
}

// IntentKind enumerates the four resolved meanings of an utterance.
type IntentKind string

const (
	IntentSearch       IntentKind = "search"
	IntentUpdate       IntentKind = "update"
	IntentDelete       IntentKind = "delete"
	IntentConversation IntentKind = "conversation"
)

// Intent is the structured interpretation of one utterance.
type Intent struct {
	Kind       IntentKind `json:"intent"`
	SearchTerm string     `json:"search_term,omitempty"`
	NewValue   string     `json:"new_value,omitempty"`
}

// Extraction is the fact extractor's judgment of a conversational
// utterance.
type Extraction struct {
	Reply  string `json:"reply"`
	Store  bool   `json:"store"`
	Memory string `json:"memory,omitempty"`
}

// Mutation actions reported to the caller.
const (
	ActionUpdateChoice = "update_choice"
	ActionDeleteChoice = "delete_choice"
	ActionNotFound     = "not_found"
	ActionUpdated      = "updated"
	ActionDeleted      = "deleted"
)

// AssistantResponse is the single JSON body returned for every
// assistant request. Results uses omitzero, not omitempty: search and
// propose responses always carry a non-nil slice, so a zero-hit search
// serializes as "results":[] while commit and conversation responses
// (nil slice) omit the key entirely.
type AssistantResponse struct {
	Message    string       `json:"message"`
	ResultType string       `json:"resultType"`
	Action     string       `json:"action,omitempty"`
	Results    []RankedFact `json:"results,omitzero"`
	NewValue   string       `json:"newValue,omitempty"`
	MemoryID   string       `json:"memoryId,omitempty"`
}
