package domain

// NoteEventAction describes what a sync pass did to a destination note.
type NoteEventAction string

const (
	NoteCreated NoteEventAction = "create"
	NoteAppend  NoteEventAction = "append"
	NoteMerged  NoteEventAction = "merge"
)

// NoteEvent is published after a destination note is written.
type NoteEvent struct {
	Action    NoteEventAction `json:"action"`
	NoteID    string          `json:"note_id"`
	Title     string          `json:"title"`
	GroupKey  string          `json:"group_key"`
	ItemCount int             `json:"item_count"`
	PassID    string          `json:"pass_id"`
}
