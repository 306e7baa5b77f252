package models

// User is a hosting account on the control panel.
type User struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password,omitempty"`
	Domain   string `json:"domain"`
	Package  string `json:"package"`
	IP       string `json:"ip,omitempty"`
	Notify   bool   `json:"notify"`
}

// UserUpdate carries the fields an update may change. Empty fields are left alone.
type UserUpdate struct {
	Package string `json:"package,omitempty"`
	Email   string `json:"email,omitempty"`
}

// UserDetails is what the panel reports for one user.
type UserDetails struct {
	Username string            `json:"username"`
	Exists   bool              `json:"exists"`
	Partial  bool              `json:"partial,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
}

// UserList is the listing shape handed to consumers. Error is set when the
// panel could not be listed; Users is then empty.
type UserList struct {
	Users []string `json:"users"`
	Error string   `json:"error,omitempty"`
}
