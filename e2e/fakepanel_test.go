//go:build e2e

package e2e

import (
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/fgeck/panelsync/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// fakePanel is an in-memory DirectAdmin that answers the way real panels do,
// quirks included.
type fakePanel struct {
	mu       sync.Mutex
	packages map[string]url.Values
	users    map[string]url.Values
	mailbox  map[string][]string

	// emptyDetails makes package detail reads return an empty body.
	emptyDetails bool
	// resetNextCreate drops the connection after the next user create lands.
	resetNextCreate bool
	// keepOnDelete acknowledges package deletes without removing anything.
	keepOnDelete bool
	// keepOldOnRename leaves the old package behind after a rename.
	keepOldOnRename bool

	requests []string
}

func newFakePanel() *fakePanel {
	return &fakePanel{
		packages: map[string]url.Values{},
		users:    map[string]url.Values{},
		mailbox:  map[string][]string{},
	}
}

// start serves the panel and returns a credential pointing at it.
func (p *fakePanel) start(t *testing.T) models.ServerCredential {
	t.Helper()
	srv := httptest.NewServer(p)
	t.Cleanup(srv.Close)

	host, portStr, err := net.SplitHostPort(strings.TrimPrefix(srv.URL, "http://"))
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	return models.ServerCredential{
		ID:       "fake",
		Host:     host,
		Port:     port,
		Username: "reseller",
		Password: "s3cret",
	}
}

func (p *fakePanel) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if user, pass, ok := r.BasicAuth(); !ok || user != "reseller" || pass != "s3cret" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "<html><head><title>Login</title></head></html>")
		return
	}
	if err := r.ParseForm(); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	p.requests = append(p.requests, r.Method+" "+r.URL.Path)
	p.mu.Unlock()

	switch r.URL.Path {
	case "/CMD_API_PACKAGES_USER":
		p.packagesUser(w, r.Form)
	case "/CMD_API_MANAGE_USER_PACKAGES":
		p.managePackages(w, r.Form)
	case "/CMD_API_SHOW_USERS":
		p.mu.Lock()
		defer p.mu.Unlock()
		writeList(w, keys(p.users))
	case "/CMD_API_SHOW_USER_CONFIG":
		p.mu.Lock()
		defer p.mu.Unlock()
		u, ok := p.users[r.Form.Get("user")]
		if !ok {
			_, _ = io.WriteString(w, "error=1&text=Unable+to+read+user+config")
			return
		}
		_, _ = io.WriteString(w, u.Encode())
	case "/CMD_API_ACCOUNT_USER":
		p.accountUser(w, r.Form)
	case "/CMD_API_MODIFY_USER":
		p.modifyUser(w, r.Form)
	case "/CMD_API_SELECT_USERS":
		p.selectUsers(w, r.Form)
	case "/CMD_API_POP":
		p.pop(w, r.Form)
	default:
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, "<!DOCTYPE html><html><head><title>Not Found</title></head></html>")
	}
}

func (p *fakePanel) packagesUser(w http.ResponseWriter, form url.Values) {
	p.mu.Lock()
	defer p.mu.Unlock()

	name := form.Get("package")
	if name == "" {
		writeList(w, keys(p.packages))
		return
	}
	pkg, ok := p.packages[name]
	if !ok || p.emptyDetails {
		return
	}
	_, _ = io.WriteString(w, pkg.Encode())
}

func (p *fakePanel) managePackages(w http.ResponseWriter, form url.Values) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case form.Get("delete") == "yes":
		if !p.keepOnDelete {
			delete(p.packages, form.Get("delete0"))
		}
		_, _ = io.WriteString(w, "error=0&text=Deleted")
	case form.Get("rename") == "yes":
		old := form.Get("old_packagename")
		p.packages[form.Get("packagename")] = packageFields(form)
		if !p.keepOldOnRename {
			delete(p.packages, old)
		}
		_, _ = io.WriteString(w, "error=0&text=Saved")
	default:
		p.packages[form.Get("packagename")] = packageFields(form)
		_, _ = io.WriteString(w, "success=Saved")
	}
}

func packageFields(form url.Values) url.Values {
	out := url.Values{}
	for _, k := range []string{"bandwidth", "quota", "inode", "vdomains", "nemails", "mysql"} {
		if v := form.Get(k); v != "" {
			out.Set(k, v)
		}
	}
	return out
}

func (p *fakePanel) accountUser(w http.ResponseWriter, form url.Values) {
	p.mu.Lock()
	name := form.Get("username")
	if _, exists := p.users[name]; exists {
		p.mu.Unlock()
		_, _ = io.WriteString(w, "error=1&text=That+username+already+exists")
		return
	}
	p.users[name] = url.Values{
		"package": {form.Get("package")},
		"email":   {form.Get("email")},
		"domain":  {form.Get("domain")},
	}
	reset := p.resetNextCreate
	p.resetNextCreate = false
	p.mu.Unlock()

	if reset {
		resetConnection(w)
		return
	}
	_, _ = io.WriteString(w, "error=0&text=User+created")
}

func (p *fakePanel) modifyUser(w http.ResponseWriter, form url.Values) {
	p.mu.Lock()
	defer p.mu.Unlock()

	u, ok := p.users[form.Get("user")]
	if !ok {
		_, _ = io.WriteString(w, "error=1&text=No+such+user")
		return
	}
	switch form.Get("action") {
	case "package":
		u.Set("package", form.Get("package"))
	case "single":
		u.Set("email", form.Get("email"))
	}
	_, _ = io.WriteString(w, "error=0")
}

func (p *fakePanel) selectUsers(w http.ResponseWriter, form url.Values) {
	p.mu.Lock()
	defer p.mu.Unlock()

	name := form.Get("select0")
	u, ok := p.users[name]
	if !ok {
		_, _ = io.WriteString(w, "error=1&text=No+such+user")
		return
	}
	switch {
	case form.Get("delete") == "yes":
		delete(p.users, name)
	case form.Has("dosuspend"):
		u.Set("suspended", "yes")
	case form.Has("dounsuspend"):
		u.Set("suspended", "no")
	}
	_, _ = io.WriteString(w, "error=0")
}

func (p *fakePanel) pop(w http.ResponseWriter, form url.Values) {
	p.mu.Lock()
	defer p.mu.Unlock()

	domain := form.Get("domain")
	user := form.Get("user")
	switch form.Get("action") {
	case "list", "":
		writeList(w, p.mailbox[domain])
		return
	case "create":
		p.mailbox[domain] = append(p.mailbox[domain], user)
	case "delete":
		boxes := p.mailbox[domain][:0]
		for _, b := range p.mailbox[domain] {
			if b != user {
				boxes = append(boxes, b)
			}
		}
		p.mailbox[domain] = boxes
	}
	_, _ = io.WriteString(w, "error=0")
}

func writeList(w http.ResponseWriter, names []string) {
	v := url.Values{}
	for _, n := range names {
		v.Add("list[]", n)
	}
	_, _ = io.WriteString(w, v.Encode())
}

func keys(m map[string]url.Values) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// resetConnection aborts the TCP connection with an RST.
func resetConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		_ = tcp.SetLinger(0)
	}
	_ = conn.Close()
}
