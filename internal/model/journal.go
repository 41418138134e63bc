package model

import "time"

// JournalType is the kind of entry. The client offers a fixed set and the
// service rejects anything else.
type JournalType string

const (
	JournalDaily     JournalType = "daily"
	JournalCasual    JournalType = "casual"
	JournalGratitude JournalType = "gratitude"
	JournalTravel    JournalType = "travel"
	JournalDream     JournalType = "dream"
)

// JournalTypes lists every accepted JournalType in display order.
var JournalTypes = []JournalType{
	JournalDaily,
	JournalCasual,
	JournalGratitude,
	JournalTravel,
	JournalDream,
}

// Valid reports whether t is one of JournalTypes.
func (t JournalType) Valid() bool {
	for _, known := range JournalTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Journal is a single journal entry.
//
// Content is whatever the rich-text editor serialized; the backend stores it
// as an opaque string and never parses it.
//
// Tags is never nil on a stored journal so it always encodes as [] rather
// than null.
type Journal struct {
	ID        int64       `json:"id"`
	UserID    int64       `json:"userId"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Type      JournalType `json:"type"`
	FolderID  *int64      `json:"folderId"`
	Tags      []string    `json:"tags"`
	Mood      string      `json:"mood"`
	Date      time.Time   `json:"date"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// JournalInput is the validated data for a new journal. Nil Date means
// "now"; nil Tags means an empty list.
type JournalInput struct {
	Title    string
	Content  string
	Type     JournalType
	FolderID *int64
	Tags     []string
	Mood     string
	Date     *time.Time
}

// NewJournal builds the stored form of a journal from validated input,
// applying the field defaults. The store supplies id and now. All times
// are stored in UTC.
func NewJournal(id, ownerID int64, in JournalInput, now time.Time) Journal {
	now = now.UTC()
	date := now
	if in.Date != nil {
		date = in.Date.UTC()
	}

	return Journal{
		ID:        id,
		UserID:    ownerID,
		Title:     in.Title,
		Content:   in.Content,
		Type:      in.Type,
		FolderID:  cloneID(in.FolderID),
		Tags:      cloneTags(in.Tags),
		Mood:      in.Mood,
		Date:      date,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// JournalPatch is a validated partial update. Nil pointers mean "absent".
// FolderID is tri-state so a client can clear the folder with null.
type JournalPatch struct {
	Title    *string
	Content  *string
	Type     *JournalType
	FolderID OptionalInt64
	Tags     []string
	Mood     *string
	Date     *time.Time
}

// Merge applies p on top of j and returns the result; j is not modified.
//
// Title, content, type, folder and date are replaced when present. Tags and
// mood are replaced only when present AND non-empty: an empty list or empty
// string keeps the stored value, so neither field can be cleared through an
// update. Clients depend on that behaviour.
//
// UpdatedAt becomes now, or stays at the previous value if the clock went
// backwards, so it never decreases. ID, UserID and CreatedAt always carry
// over; a patch has no way to express them.
func (j Journal) Merge(p JournalPatch, now time.Time) Journal {
	merged := j

	if p.Title != nil {
		merged.Title = *p.Title
	}
	if p.Content != nil {
		merged.Content = *p.Content
	}
	if p.Type != nil {
		merged.Type = *p.Type
	}
	if p.FolderID.Present {
		merged.FolderID = cloneID(p.FolderID.Value)
	} else {
		merged.FolderID = cloneID(j.FolderID)
	}
	if p.Date != nil {
		merged.Date = p.Date.UTC()
	}

	if len(p.Tags) > 0 {
		merged.Tags = cloneTags(p.Tags)
	} else {
		merged.Tags = cloneTags(j.Tags)
	}
	if p.Mood != nil && *p.Mood != "" {
		merged.Mood = *p.Mood
	}

	if now.Before(j.UpdatedAt) {
		now = j.UpdatedAt
	}
	merged.UpdatedAt = now.UTC()

	return merged
}

// Clone returns a deep copy so callers can't mutate a stored journal through
// a shared slice or pointer.
func (j Journal) Clone() Journal {
	c := j
	c.FolderID = cloneID(j.FolderID)
	c.Tags = cloneTags(j.Tags)
	return c
}

func cloneTags(tags []string) []string {
	out := make([]string, len(tags))
	copy(out, tags)
	return out
}

func cloneID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
