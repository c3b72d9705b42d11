package domain

// Note is a destination note in the local note store. Body is an opaque
// concatenation of rendered fragments separated by a fixed delimiter; the
// body is the single source of truth for what has been written.
type Note struct {
	ID       string
	Title    string
	Body     string
	ParentID string
}

// Folder is a destination folder in the local note store.
type Folder struct {
	ID    string
	Title string
}
