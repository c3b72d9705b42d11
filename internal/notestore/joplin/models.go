package joplin

// apiNote mirrors the note fields the data API exposes.
type apiNote struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Body     string `json:"body"`
	ParentID string `json:"parent_id"`
}

type apiFolder struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type notePage struct {
	Items   []apiNote `json:"items"`
	HasMore bool      `json:"has_more"`
}

type folderPage struct {
	Items   []apiFolder `json:"items"`
	HasMore bool        `json:"has_more"`
}
