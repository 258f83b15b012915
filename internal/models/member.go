package models

// Member is the membership backend's view of the submitting user, reduced to
// what the publish transaction needs.
type Member struct {
	ID      string `json:"id"`
	Email   string `json:"email"`
	Name    string `json:"name,omitempty"`
	Plan    string `json:"plan,omitempty"`
	Credits int    `json:"credits"`
}

// MemberJob is one row of a member's own submissions, read back from the
// sheet backend for the account dashboard.
type MemberJob struct {
	SheetRecordID string `json:"sheetRecordId"`
	CMSItemID     string `json:"cmsItemId,omitempty"`
	Name          string `json:"name"`
	Status        string `json:"status,omitempty"`
	Premium       bool   `json:"premium"`
}
