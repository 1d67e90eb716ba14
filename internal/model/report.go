package model

// Report is a titled, human-readable rendering produced by the
// compliance read side (audit trails and similar).
type Report struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
