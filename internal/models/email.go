package models

// EmailAccount is a mailbox under one of a user's domains.
type EmailAccount struct {
	Domain    string `json:"domain"`
	User      string `json:"user"`
	Password  string `json:"password,omitempty"`
	QuotaMB   int    `json:"quota"` // 0 means unlimited
	SendLimit int    `json:"limit,omitempty"`
}

// Address returns user@domain.
func (e EmailAccount) Address() string {
	return e.User + "@" + e.Domain
}
