package netsuite

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentEncode(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"abcXYZ019", "abcXYZ019"},
		{"-._~", "-._~"},
		{"a b", "a%20b"},
		{"a+b", "a%2Bb"},
		{"a/b?c=d&e", "a%2Fb%3Fc%3Dd%26e"},
		{"SELECT * FROM t", "SELECT%20%2A%20FROM%20t"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, percentEncode(tt.in), tt.in)
	}
}

func TestSignatureBaseSortsAndEncodes(t *testing.T) {
	base := signatureBase("post", "https://example.com/path", map[string]string{
		"b":           "2",
		"a":           "1",
		"oauth_nonce": "n n",
	})

	assert.True(t, strings.HasPrefix(base, "POST&https%3A%2F%2Fexample.com%2Fpath&"), base)

	_, encodedParams, _ := strings.Cut(base, "https%3A%2F%2Fexample.com%2Fpath&")
	assert.Equal(t, "a%3D1%26b%3D2%26oauth_nonce%3Dn%2520n", encodedParams)
}

func newFixedSigner() *signer {
	return &signer{
		consumerKey:    "ck",
		consumerSecret: "cs",
		tokenID:        "tid",
		tokenSecret:    "ts",
		realm:          "1234567_SB1",
		nonce:          func() string { return "fixednonce" },
		timestamp:      func() string { return "1800000000" },
	}
}

func TestAuthorizationHeaderShape(t *testing.T) {
	s := newFixedSigner()
	header := s.authorizationHeader("GET", "https://example.com/record", nil)

	require.True(t, strings.HasPrefix(header, `OAuth realm="1234567_SB1", `))
	assert.Contains(t, header, `oauth_consumer_key="ck"`)
	assert.Contains(t, header, `oauth_token="tid"`)
	assert.Contains(t, header, `oauth_signature_method="HMAC-SHA256"`)
	assert.Contains(t, header, `oauth_timestamp="1800000000"`)
	assert.Contains(t, header, `oauth_nonce="fixednonce"`)
	assert.Contains(t, header, `oauth_version="1.0"`)
	// The signature is the final parameter.
	assert.Regexp(t, `oauth_signature="[^"]+"$`, header)
}

func TestAuthorizationHeaderSignature(t *testing.T) {
	s := newFixedSigner()
	query := url.Values{"q": []string{"SELECT id FROM transaction"}, "limit": []string{"10"}}
	header := s.authorizationHeader("POST", "https://example.com/suiteql", query)

	base := signatureBase("POST", "https://example.com/suiteql", map[string]string{
		"oauth_consumer_key":     "ck",
		"oauth_token":            "tid",
		"oauth_signature_method": "HMAC-SHA256",
		"oauth_timestamp":        "1800000000",
		"oauth_nonce":            "fixednonce",
		"oauth_version":          "1.0",
		"q":                      "SELECT id FROM transaction",
		"limit":                  "10",
	})
	mac := hmac.New(sha256.New, []byte("cs&ts"))
	mac.Write([]byte(base))
	want := percentEncode(base64.StdEncoding.EncodeToString(mac.Sum(nil)))

	assert.Contains(t, header, `oauth_signature="`+want+`"`)
}

func TestAuthorizationHeaderIsDeterministic(t *testing.T) {
	s := newFixedSigner()
	first := s.authorizationHeader("GET", "https://example.com/record", nil)
	second := s.authorizationHeader("GET", "https://example.com/record", nil)
	assert.Equal(t, first, second)
}
