package models

// Package is a resource-limit template defined on the control panel.
// Limit fields left empty are sent as "unlimited".
type Package struct {
	Name string `json:"name"`

	Bandwidth       string `json:"bandwidth,omitempty"`
	Quota           string `json:"quota,omitempty"`
	Inodes          string `json:"inode,omitempty"`
	Domains         string `json:"vdomains,omitempty"`
	Subdomains      string `json:"nsubdomains,omitempty"`
	EmailAccounts   string `json:"nemails,omitempty"`
	EmailForwarders string `json:"nemailf,omitempty"`
	MailingLists    string `json:"nemailml,omitempty"`
	Autoresponders  string `json:"nemailr,omitempty"`
	Databases       string `json:"mysql,omitempty"`
	DomainPointers  string `json:"domainptr,omitempty"`
	FTPAccounts     string `json:"ftp,omitempty"`

	AnonymousFTP   bool `json:"aftp"`
	CGI            bool `json:"cgi"`
	PHP            bool `json:"php"`
	SpamAssassin   bool `json:"spam"`
	CatchAll       bool `json:"catchall"`
	SSL            bool `json:"ssl"`
	SSH            bool `json:"ssh"`
	Cron           bool `json:"cron"`
	SysInfo        bool `json:"sysinfo"`
	DNSControl     bool `json:"dnscontrol"`
	SuspendAtLimit bool `json:"suspend_at_limit"`

	Skin     string `json:"skin,omitempty"`
	Language string `json:"language,omitempty"`
}

// PackageDetails is what the panel reports for one package.
type PackageDetails struct {
	Name    string `json:"name"`
	Package string `json:"package"`
	Exists  bool   `json:"exists"`
	// Partial is set when the panel confirmed the package via its list
	// endpoint but returned no detail payload.
	Partial bool              `json:"partial,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}
