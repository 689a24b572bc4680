package netsuite

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// signer produces OAuth 1.0a Authorization headers with HMAC-SHA256
// signatures, the only signature method NetSuite token-based access accepts.
type signer struct {
	consumerKey    string
	consumerSecret string
	tokenID        string
	tokenSecret    string
	realm          string

	// nonce and timestamp are injectable for deterministic tests.
	nonce     func() string
	timestamp func() string
}

// percentEncode implements RFC 3986 encoding as OAuth 1.0a requires. Go's
// url.QueryEscape encodes spaces as '+' and leaves '~' alone, both wrong for
// signature base strings.
func percentEncode(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') ||
			c == '-' || c == '.' || c == '_' || c == '~' {
			b.WriteByte(c)
		} else {
			fmt.Fprintf(&b, "%%%02X", c)
		}
	}
	return b.String()
}

// signatureBase builds the OAuth 1.0a signature base string from the request
// method, the URL without query, and the combined oauth and query parameters.
func signatureBase(method, baseURL string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, percentEncode(k)+"="+percentEncode(params[k]))
	}

	return strings.ToUpper(method) + "&" +
		percentEncode(baseURL) + "&" +
		percentEncode(strings.Join(pairs, "&"))
}

// authorizationHeader signs one request and returns the full OAuth header
// value including the account realm.
func (s *signer) authorizationHeader(method, baseURL string, query url.Values) string {
	oauthParams := map[string]string{
		"oauth_consumer_key":     s.consumerKey,
		"oauth_token":            s.tokenID,
		"oauth_signature_method": "HMAC-SHA256",
		"oauth_timestamp":        s.timestamp(),
		"oauth_nonce":            s.nonce(),
		"oauth_version":          "1.0",
	}

	allParams := make(map[string]string, len(oauthParams)+len(query))
	for k, v := range oauthParams {
		allParams[k] = v
	}
	for k := range query {
		allParams[k] = query.Get(k)
	}

	base := signatureBase(method, baseURL, allParams)
	key := percentEncode(s.consumerSecret) + "&" + percentEncode(s.tokenSecret)

	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(base))
	signature := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	headerParams := []string{fmt.Sprintf("realm=%q", s.realm)}
	keys := make([]string, 0, len(oauthParams))
	for k := range oauthParams {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		headerParams = append(headerParams, fmt.Sprintf("%s=%q", k, percentEncode(oauthParams[k])))
	}
	headerParams = append(headerParams, fmt.Sprintf("oauth_signature=%q", percentEncode(signature)))

	return "OAuth " + strings.Join(headerParams, ", ")
}
