package http

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeDigestResponse_RFC2617(t *testing.T) {
	auth := &DigestAuth{
		Username: "Mufasa",
		Password: "Circle Of Life",
		Realm:    "testrealm@host.com",
		Nonce:    "dcd98b7102dd2f0e8b11d0f600bfb0c093",
		URI:      "/dir/index.html",
		Qop:      "auth",
		Nc:       "00000001",
		Cnonce:   "0a4f113b",
		Method:   "GET",
	}

	response, err := auth.ComputeDigestResponse()
	require.NoError(t, err)
	assert.Equal(t, "6629fae49393a05397450978507c4ef1", response)
}

func TestComputeDigestResponse_Algorithms(t *testing.T) {
	base := DigestAuth{Username: "u", Password: "p", Realm: "r", Nonce: "n", URI: "/", Method: "GET"}

	md5Auth := base
	md5Sum, err := md5Auth.ComputeDigestResponse()
	require.NoError(t, err)
	assert.Len(t, md5Sum, 32)

	shaAuth := base
	shaAuth.Algorithm = "SHA-256"
	shaSum, err := shaAuth.ComputeDigestResponse()
	require.NoError(t, err)
	assert.Len(t, shaSum, 64)

	sessAuth := base
	sessAuth.Algorithm = "MD5-sess"
	sessAuth.Cnonce = "c"
	sessSum, err := sessAuth.ComputeDigestResponse()
	require.NoError(t, err)
	assert.NotEqual(t, md5Sum, sessSum)

	badAuth := base
	badAuth.Algorithm = "SHA-512-256"
	_, err = badAuth.ComputeDigestResponse()
	assert.Error(t, err)
}

func TestParseWWWAuthenticate(t *testing.T) {
	params := ParseWWWAuthenticate(`Digest realm="api, v2", qop="auth,auth-int", nonce="abc", algorithm=MD5, stale=false`)

	assert.Equal(t, "api, v2", params["realm"])
	assert.Equal(t, "auth,auth-int", params["qop"])
	assert.Equal(t, "abc", params["nonce"])
	assert.Equal(t, "MD5", params["algorithm"])
	assert.Equal(t, "false", params["stale"])
}

func TestDigestCredentials_Authorize(t *testing.T) {
	creds := &DigestCredentials{Username: "user", Password: "pass"}

	header, err := creds.Authorize("GET", "/secret", `Digest realm="test", nonce="xyz", qop="auth", opaque="op"`)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(header, "Digest "))
	assert.Contains(t, header, `username="user"`)
	assert.Contains(t, header, `uri="/secret"`)
	assert.Contains(t, header, "qop=auth")
	assert.Contains(t, header, "nc=00000001")
	assert.Contains(t, header, `opaque="op"`)

	_, err = creds.Authorize("GET", "/", `Digest realm="test"`)
	assert.ErrorContains(t, err, "nonce")

	_, err = creds.Authorize("GET", "/", `Digest realm="test", nonce="n", qop="auth-int"`)
	assert.ErrorContains(t, err, "qop")
}
