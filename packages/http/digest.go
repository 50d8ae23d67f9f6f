package http

import (
	"crypto/md5"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"strings"
)

// DigestCredentials answer a Digest challenge sent with a 401 response.
type DigestCredentials struct {
	Username string
	Password string
}

// DigestAuth contains the parameters needed for digest authentication
type DigestAuth struct {
	Username  string
	Password  string
	Realm     string
	Nonce     string
	URI       string
	Qop       string
	Nc        string
	Cnonce    string
	Opaque    string
	Method    string
	Algorithm string
}

func isDigestChallenge(header string) bool {
	return len(header) > 7 && strings.EqualFold(header[:7], "digest ")
}

// Authorize builds the Authorization value for one challenge.
func (d *DigestCredentials) Authorize(method, uri, challenge string) (string, error) {
	params := ParseWWWAuthenticate(challenge)
	if params["nonce"] == "" {
		return "", fmt.Errorf("digest challenge without nonce")
	}

	auth := &DigestAuth{
		Username:  d.Username,
		Password:  d.Password,
		Realm:     params["realm"],
		Nonce:     params["nonce"],
		URI:       uri,
		Opaque:    params["opaque"],
		Method:    method,
		Algorithm: params["algorithm"],
	}

	if qop := params["qop"]; qop != "" {
		if !containsToken(qop, "auth") {
			return "", fmt.Errorf("unsupported digest qop %q", qop)
		}
		auth.Qop = "auth"
		auth.Nc = "00000001"
		cnonce, err := GenerateCnonce()
		if err != nil {
			return "", err
		}
		auth.Cnonce = cnonce
	}

	return auth.BuildAuthorizationHeader()
}

// ParseWWWAuthenticate parses the parameters of a Digest challenge.
// Quoted values may contain commas.
func ParseWWWAuthenticate(header string) map[string]string {
	result := make(map[string]string)
	if isDigestChallenge(header) {
		header = header[7:]
	}

	for header != "" {
		header = strings.TrimLeft(header, " \t,")
		eq := strings.IndexByte(header, '=')
		if eq < 0 {
			break
		}
		key := strings.ToLower(strings.TrimSpace(header[:eq]))
		header = strings.TrimLeft(header[eq+1:], " \t")

		var value string
		if strings.HasPrefix(header, `"`) {
			var b strings.Builder
			i := 1
			for ; i < len(header) && header[i] != '"'; i++ {
				if header[i] == '\\' && i+1 < len(header) {
					i++
				}
				b.WriteByte(header[i])
			}
			value = b.String()
			header = header[min(i+1, len(header)):]
		} else {
			end := strings.IndexByte(header, ',')
			if end < 0 {
				end = len(header)
			}
			value = strings.TrimSpace(header[:end])
			header = header[end:]
		}
		result[key] = value
	}

	return result
}

// ComputeDigestResponse calculates the digest response hash
func (d *DigestAuth) ComputeDigestResponse() (string, error) {
	newHash, err := digestHash(d.Algorithm)
	if err != nil {
		return "", err
	}
	sum := func(s string) string {
		h := newHash()
		h.Write([]byte(s))
		return hex.EncodeToString(h.Sum(nil))
	}

	ha1 := sum(fmt.Sprintf("%s:%s:%s", d.Username, d.Realm, d.Password))
	if strings.HasSuffix(strings.ToLower(d.Algorithm), "-sess") {
		ha1 = sum(fmt.Sprintf("%s:%s:%s", ha1, d.Nonce, d.Cnonce))
	}
	ha2 := sum(fmt.Sprintf("%s:%s", d.Method, d.URI))

	if d.Qop == "auth" {
		return sum(fmt.Sprintf("%s:%s:%s:%s:%s:%s", ha1, d.Nonce, d.Nc, d.Cnonce, d.Qop, ha2)), nil
	}
	return sum(fmt.Sprintf("%s:%s:%s", ha1, d.Nonce, ha2)), nil
}

// BuildAuthorizationHeader creates the Authorization header value
func (d *DigestAuth) BuildAuthorizationHeader() (string, error) {
	response, err := d.ComputeDigestResponse()
	if err != nil {
		return "", err
	}

	parts := []string{
		fmt.Sprintf(`username="%s"`, d.Username),
		fmt.Sprintf(`realm="%s"`, d.Realm),
		fmt.Sprintf(`nonce="%s"`, d.Nonce),
		fmt.Sprintf(`uri="%s"`, d.URI),
		fmt.Sprintf(`response="%s"`, response),
	}

	if d.Algorithm != "" {
		parts = append(parts, fmt.Sprintf(`algorithm=%s`, d.Algorithm))
	}

	if d.Qop != "" {
		parts = append(parts, fmt.Sprintf(`qop=%s`, d.Qop))
		parts = append(parts, fmt.Sprintf(`nc=%s`, d.Nc))
		parts = append(parts, fmt.Sprintf(`cnonce="%s"`, d.Cnonce))
	}

	if d.Opaque != "" {
		parts = append(parts, fmt.Sprintf(`opaque="%s"`, d.Opaque))
	}

	return "Digest " + strings.Join(parts, ", "), nil
}

// GenerateCnonce generates a random client nonce
func GenerateCnonce() (string, error) {
	b := make([]byte, 8)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

func digestHash(algorithm string) (func() hash.Hash, error) {
	switch strings.ToUpper(strings.TrimSuffix(strings.ToLower(algorithm), "-sess")) {
	case "", "MD5":
		return md5.New, nil
	case "SHA-256":
		return sha256.New, nil
	}
	return nil, fmt.Errorf("unsupported digest algorithm %q", algorithm)
}

func containsToken(list, token string) bool {
	for _, t := range strings.Split(list, ",") {
		if strings.EqualFold(strings.TrimSpace(t), token) {
			return true
		}
	}
	return false
}
