package directadmin

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBody_Shapes(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected Response
	}{
		{
			name:     "empty",
			body:     "",
			expected: Response{},
		},
		{
			name:     "whitespace",
			body:     "  \n\t ",
			expected: Response{},
		},
		{
			name:     "json object",
			body:     `{"error":"0","text":"Saved","count":3,"enabled":true}`,
			expected: Response{"error": {"0"}, "text": {"Saved"}, "count": {"3"}, "enabled": {"1"}},
		},
		{
			name:     "json numeric error zero",
			body:     `{"error":0}`,
			expected: Response{"error": {"0"}},
		},
		{
			name:     "json list",
			body:     `{"list":["a","b"]}`,
			expected: Response{"list": {"a", "b"}},
		},
		{
			name:     "json top level array",
			body:     `["a","b"]`,
			expected: Response{"list": {"a", "b"}},
		},
		{
			name:     "query string",
			body:     "error=0&text=Saved%20ok&details=none",
			expected: Response{"error": {"0"}, "text": {"Saved ok"}, "details": {"none"}},
		},
		{
			name:     "repeated list params",
			body:     "list[]=a&list[]=b",
			expected: Response{"list[]": {"a", "b"}},
		},
		{
			name:     "key without value",
			body:     "alpha&beta=",
			expected: Response{"alpha": {""}, "beta": {""}},
		},
		{
			name:     "newline separated",
			body:     "bandwidth=1000\nquota=500\n",
			expected: Response{"bandwidth": {"1000"}, "quota": {"500"}},
		},
		{
			name:     "broken json falls back to query",
			body:     "{oops",
			expected: Response{"{oops": {""}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := ParseBody("CMD_API_TEST", []byte(tt.body))

			require.NoError(t, err)
			assert.Equal(t, tt.expected, resp)
		})
	}
}

func TestParseBody_HTML(t *testing.T) {
	body := `<!DOCTYPE html><html><head><title>DirectAdmin Login</title></head><body>login</body></html>`

	resp, err := ParseBody("CMD_API_PACKAGES_USER", []byte(body))

	assert.Nil(t, resp)
	var htmlErr *UnexpectedHTMLError
	require.ErrorAs(t, err, &htmlErr)
	assert.Equal(t, "DirectAdmin Login", htmlErr.Title)
	assert.Equal(t, "CMD_API_PACKAGES_USER", htmlErr.Command)
	assert.Contains(t, err.Error(), "unexpected HTML response")
}

func TestParseBody_UnexpectedBody(t *testing.T) {
	bodies := map[string]string{
		"plain text error":        "Cannot create package: name taken",
		"html fragment":           "<b>Error</b>: You do not have access to this command",
		"fragment with attribute": `<span class="err">Denied</span>`,
		"sentence per line":       "Could not save\nPlease retry",
	}

	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			resp, err := ParseBody("CMD_API_MANAGE_USER_PACKAGES", []byte(body))

			assert.Nil(t, resp)
			var bodyErr *UnexpectedBodyError
			require.ErrorAs(t, err, &bodyErr)
			assert.Equal(t, "CMD_API_MANAGE_USER_PACKAGES", bodyErr.Command)
			assert.Equal(t, body, bodyErr.Body)
		})
	}
}

func TestParseBody_UnexpectedBodyTruncated(t *testing.T) {
	body := strings.Repeat("no access ", 100)

	_, err := ParseBody("CMD_API_SHOW_USERS", []byte(body))

	var bodyErr *UnexpectedBodyError
	require.ErrorAs(t, err, &bodyErr)
	assert.Len(t, bodyErr.Body, maxSnippet)
}

func TestParseBody_BareKeysStillParse(t *testing.T) {
	resp, err := ParseBody("CMD_API_PACKAGES_USER", []byte("basic\npro&gold"))

	require.NoError(t, err)
	assert.Equal(t, []string{"basic", "gold", "pro"}, ListNames(resp))
}

func TestParseQueryString_RoundTrip(t *testing.T) {
	original := Response{
		"text":     {"Saved & done = yes"},
		"details":  {"a b c"},
		"path":     {"/home/user?x=1"},
		"percent":  {"100%"},
		"plus":     {"1+1"},
		"newline":  {"line1\nline2"},
		"empty":    {""},
		"with key": {"v"},
	}

	parsed := ParseQueryString(original.Encode())

	assert.Equal(t, original, parsed)
}

func TestParseQueryString_InvalidEscapeKeptRaw(t *testing.T) {
	resp := ParseQueryString("text=100%zz")

	assert.Equal(t, "100%zz", resp.Get("text"))
}

func TestCheckError(t *testing.T) {
	t.Run("zero is success", func(t *testing.T) {
		assert.NoError(t, checkError("CMD_API_X", Response{"error": {"0"}, "text": {"ok"}}, 200))
	})

	t.Run("zero with spaces is success", func(t *testing.T) {
		assert.NoError(t, checkError("CMD_API_X", Response{"error": {" 0 "}}, 200))
	})

	t.Run("absent is success", func(t *testing.T) {
		assert.NoError(t, checkError("CMD_API_X", Response{"success": {"Saved"}}, 200))
	})

	t.Run("empty value is success", func(t *testing.T) {
		assert.NoError(t, checkError("CMD_API_X", Response{"error": {""}}, 200))
	})

	for _, code := range []string{"1", "2"} {
		t.Run("code "+code+" carries text verbatim", func(t *testing.T) {
			err := checkError("CMD_API_X", Response{
				"error":   {code},
				"text":    {"Cannot create package: name in use"},
				"details": {"pick another"},
			}, 200)

			var remoteErr *RemoteError
			require.ErrorAs(t, err, &remoteErr)
			assert.Equal(t, code, remoteErr.Code)
			assert.Equal(t, "Cannot create package: name in use", remoteErr.Message)
			assert.Equal(t, "pick another", remoteErr.Details)
			assert.False(t, IsSuccessSentinel(err))
		})
	}

	t.Run("falls back to error value", func(t *testing.T) {
		err := checkError("CMD_API_X", Response{"error": {"1"}}, 200)

		var remoteErr *RemoteError
		require.ErrorAs(t, err, &remoteErr)
		assert.Equal(t, "1", remoteErr.Message)
	})
}

func TestListNames_Shapes(t *testing.T) {
	shapes := map[string]string{
		"repeated":             "list[]=a&list[]=b&list[]=a",
		"json":                 `{"list":["a","b","b"]}`,
		"flat":                 `{"a":1,"b":1}`,
		"indexed":              `{"0":"a","1":"b"}`,
		"indexed out of order": `{"1":"b","0":"a","error":"0"}`,
		"indexed query":        "0=a&1=b&2=a",
	}

	for name, body := range shapes {
		t.Run(name, func(t *testing.T) {
			resp, err := ParseBody("CMD_API_PACKAGES_USER", []byte(body))
			require.NoError(t, err)

			assert.Equal(t, []string{"a", "b"}, ListNames(resp))
		})
	}
}

func TestListNames_FiltersSentinels(t *testing.T) {
	resp := Response{
		"error":   {"0"},
		"text":    {"x"},
		"details": {"y"},
		"result":  {"z"},
		"_meta":   {"1"},
		"0":       {"1"},
		"beta":    {"1"},
		"alpha":   {"1"},
	}

	assert.Equal(t, []string{"alpha", "beta"}, ListNames(resp))
}

func TestListNames_FiltersListValues(t *testing.T) {
	resp := Response{"list[]": {"", "0", "_hidden", " keep ", "keep", "error"}}

	assert.Equal(t, []string{"keep"}, ListNames(resp))
}

func TestListNames_IndexedKeepsIndexOrder(t *testing.T) {
	resp, err := ParseBody("CMD_API_PACKAGES_USER", []byte(`{"10":"zeta","2":"alpha","1":"mid"}`))
	require.NoError(t, err)

	assert.Equal(t, []string{"mid", "alpha", "zeta"}, ListNames(resp))
}

func TestListNames_Empty(t *testing.T) {
	assert.Empty(t, ListNames(Response{}))
	assert.Empty(t, ListNames(Response{"list": {}}))
}

func TestNormalizeLimit(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"", "unlimited"},
		{"Unlimited", "unlimited"},
		{" 1000 ", "1000"},
		{"1000.00", "1000"},
		{"10.5", "10.5"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeLimit(tt.input))
		})
	}
}

func TestBoolFlagAndLimit(t *testing.T) {
	assert.Equal(t, "ON", boolFlag(true))
	assert.Equal(t, "OFF", boolFlag(false))
	assert.Equal(t, "unlimited", limit(""))
	assert.Equal(t, "unlimited", limit("   "))
	assert.Equal(t, "500", limit("500"))
}
