package directadmin

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Response is a normalized panel response. Keys map to one or more values so
// repeated query parameters (list[]=a&list[]=b) and JSON arrays survive.
type Response map[string][]string

// Get returns the first value for key, or "".
func (r Response) Get(key string) string {
	if vs := r[key]; len(vs) > 0 {
		return vs[0]
	}
	return ""
}

// Has reports whether key is present.
func (r Response) Has(key string) bool {
	_, ok := r[key]
	return ok
}

// Flat returns the first value of every key.
func (r Response) Flat() map[string]string {
	out := make(map[string]string, len(r))
	for k, vs := range r {
		if len(vs) > 0 {
			out[k] = vs[0]
		} else {
			out[k] = ""
		}
	}
	return out
}

// Encode serializes the response as a query string with sorted keys.
func (r Response) Encode() string {
	return url.Values(r).Encode()
}

// statusKeys carry call status rather than entity data.
var statusKeys = map[string]bool{
	"error":   true,
	"text":    true,
	"details": true,
	"result":  true,
	"success": true,
}

// hasPayload reports whether the response carries anything beyond status keys.
func (r Response) hasPayload() bool {
	for k := range r {
		if !statusKeys[k] {
			return true
		}
	}
	return false
}

// parseFunc is one attempt at understanding a body. ok=false passes the body
// to the next parser.
type parseFunc func(command string, body []byte) (resp Response, ok bool, err error)

// parsers are tried in order and the first match wins.
var parsers = []parseFunc{
	parseEmpty,
	parseJSON,
	parseHTML,
	parseQuery,
}

// ParseBody normalizes a raw body into a Response.
func ParseBody(command string, body []byte) (Response, error) {
	for _, parse := range parsers {
		resp, ok, err := parse(command, body)
		if err != nil {
			return nil, err
		}
		if ok {
			return resp, nil
		}
	}
	return Response{}, nil
}

func parseEmpty(_ string, body []byte) (Response, bool, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return Response{}, true, nil
	}
	return nil, false, nil
}

func parseJSON(_ string, body []byte) (Response, bool, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || (trimmed[0] != '{' && trimmed[0] != '[') {
		return nil, false, nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return nil, false, nil //nolint:nilerr // not JSON, let the next parser try
	}

	resp := Response{}
	switch v := raw.(type) {
	case map[string]interface{}:
		for k, val := range v {
			resp[k] = jsonValues(val)
		}
	case []interface{}:
		resp["list"] = jsonValues(v)
	default:
		return nil, false, nil
	}
	return resp, true, nil
}

func jsonValues(v interface{}) []string {
	if arr, ok := v.([]interface{}); ok {
		out := make([]string, 0, len(arr))
		for _, item := range arr {
			out = append(out, jsonScalar(item))
		}
		return out
	}
	return []string{jsonScalar(v)}
}

func jsonScalar(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		if t {
			return "1"
		}
		return "0"
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}

var htmlTitle = regexp.MustCompile(`(?is)<title[^>]*>(.*?)</title>`)

func parseHTML(command string, body []byte) (Response, bool, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '<' {
		return nil, false, nil
	}
	lower := bytes.ToLower(trimmed)
	if !bytes.Contains(lower, []byte("<html")) &&
		!bytes.HasPrefix(lower, []byte("<!doctype")) &&
		!bytes.Contains(lower, []byte("<body")) {
		return nil, false, nil
	}

	title := ""
	if m := htmlTitle.FindSubmatch(trimmed); m != nil {
		title = strings.TrimSpace(string(m[1]))
	}
	return nil, false, &UnexpectedHTMLError{Command: command, Title: title}
}

// maxSnippet bounds how much of an unparseable body ends up in an error.
const maxSnippet = 200

func parseQuery(command string, body []byte) (Response, bool, error) {
	s := string(bytes.TrimSpace(body))
	if !looksLikeQuery(s) {
		snippet := s
		if len(snippet) > maxSnippet {
			snippet = snippet[:maxSnippet]
		}
		return nil, false, &UnexpectedBodyError{Command: command, Body: snippet}
	}
	return ParseQueryString(s), true, nil
}

// looksLikeQuery rejects prose and markup. A body with at least one '=' is a
// query string; a key-only body must consist of bare tokens.
func looksLikeQuery(s string) bool {
	if strings.HasPrefix(s, "<") {
		return false
	}
	if strings.Contains(s, "=") {
		return true
	}
	for _, token := range strings.FieldsFunc(s, querySeparator) {
		if strings.ContainsAny(token, " \t<>") {
			return false
		}
	}
	return true
}

func querySeparator(r rune) bool {
	return r == '&' || r == '\n' || r == '\r'
}

// ParseQueryString decodes key=value pairs separated by '&' or newlines.
// A key without '=' gets an empty value. Values that fail to unescape are kept raw.
func ParseQueryString(s string) Response {
	resp := Response{}
	pairs := strings.FieldsFunc(s, querySeparator)
	for _, pair := range pairs {
		if pair == "" {
			continue
		}
		key, value, _ := strings.Cut(pair, "=")
		key = unescape(key)
		if key == "" {
			continue
		}
		resp[key] = append(resp[key], unescape(value))
	}
	return resp
}

func unescape(s string) string {
	u, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return u
}

// checkError turns an error field into a RemoteError. The value "0" is the
// panel's no-error sentinel and is a success.
func checkError(command string, resp Response, statusCode int) error {
	if !resp.Has("error") {
		return nil
	}
	code := strings.TrimSpace(resp.Get("error"))
	if code == "" || code == "0" {
		return nil
	}
	return newRemoteError(command, resp, code, statusCode)
}

func newRemoteError(command string, resp Response, code string, statusCode int) *RemoteError {
	msg := resp.Get("text")
	if msg == "" {
		msg = code
	}
	return &RemoteError{
		Command:    command,
		Code:       code,
		Message:    msg,
		Details:    resp.Get("details"),
		StatusCode: statusCode,
	}
}

// ListNames normalizes the list shapes the panel returns for the same
// endpoint into an ordered, deduplicated list of names:
//
//	list[]=a&list[]=b    {"list":["a","b"]}    {"a":1,"b":1}    {"0":"a","1":"b"}
//
// The flat key-only shape has no inherent order and is sorted. The indexed
// shape keeps index order.
func ListNames(resp Response) []string {
	var candidates []string
	switch {
	case resp.Has("list[]"):
		candidates = resp["list[]"]
	case resp.Has("list"):
		candidates = resp["list"]
	default:
		if indexed, ok := indexedValues(resp); ok {
			candidates = indexed
			break
		}
		for k := range resp {
			if statusKeys[k] {
				continue
			}
			candidates = append(candidates, k)
		}
		sort.Strings(candidates)
	}

	seen := make(map[string]bool, len(candidates))
	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		name := strings.TrimSpace(c)
		if !validName(name) || seen[name] {
			continue
		}
		seen[name] = true
		names = append(names, name)
	}
	return names
}

// indexedValues returns the values of a response whose non-status keys are
// all unsigned integers, ordered by index.
func indexedValues(resp Response) ([]string, bool) {
	type entry struct {
		index  uint64
		values []string
	}
	var entries []entry
	for k, v := range resp {
		if statusKeys[k] {
			continue
		}
		index, err := strconv.ParseUint(k, 10, 64)
		if err != nil {
			return nil, false
		}
		entries = append(entries, entry{index: index, values: v})
	}
	if len(entries) == 0 {
		return nil, false
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].index < entries[j].index })
	var out []string
	for _, e := range entries {
		out = append(out, e.values...)
	}
	return out, true
}

func validName(name string) bool {
	if name == "" || name == "0" || strings.HasPrefix(name, "_") {
		return false
	}
	return !statusKeys[name]
}

// boolFlag serializes a feature flag the way the panel's forms do.
func boolFlag(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}

// limit returns "unlimited" for an unset limit.
func limit(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return Unlimited
	}
	return v
}

// Unlimited is the panel's sentinel for an uncapped limit.
const Unlimited = "unlimited"

// NormalizeLimit canonicalizes a limit for comparison: case and surrounding
// space are ignored and numbers compare by value.
func NormalizeLimit(v string) string {
	v = strings.ToLower(strings.TrimSpace(v))
	if v == "" {
		return Unlimited
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return v
}
