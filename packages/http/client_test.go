package http

import (
	"bytes"
	"context"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func assembleFor(t *testing.T, method, url string, tokens ...string) *Request {
	t.Helper()
	req, err := Assemble(method, url, mustItems(t, tokens...), testOptions())
	require.NoError(t, err)
	return req
}

func TestClient_SendJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/post", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, TestUserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, int64(14), r.ContentLength)
		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, `{"name":"ali"}`, string(body))

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("X-Request-Id", "42")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id": 123}`))
	}))
	defer server.Close()

	client := NewClient()
	resp, err := client.Send(context.Background(), assembleFor(t, "post", server.URL+"/post", "name=ali"))

	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1", resp.Proto)
	assert.Equal(t, 201, resp.StatusCode)
	assert.Equal(t, "Created", resp.Reason)
	assert.Equal(t, "HTTP/1.1 201 Created", resp.StatusLine())
	assert.Equal(t, "42", resp.Header("X-Request-Id"))
	assert.True(t, IsJSONContentType(resp.ContentType()))
	assert.True(t, resp.IsSuccess())
	assert.Equal(t, `{"id": 123}`, string(resp.Body))

	for i := 1; i < len(resp.Headers); i++ {
		assert.LessOrEqual(t, resp.Headers[i-1].Name, resp.Headers[i].Name)
	}
}

func TestClient_HeaderMapping(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "api.internal", r.Host)
		assert.Empty(t, r.Header.Get("User-Agent"))
		assert.Equal(t, "yes", r.Header.Get("X-Custom"))
		assert.Equal(t, "/q?a=1", r.URL.RequestURI())
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	req := assembleFor(t, "get", server.URL+"/q", "Host:api.internal", "user-agent:", "X-Custom:yes", "a==1")
	resp, err := NewClient().Send(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)
	assert.False(t, resp.HasBody())
}

func TestClient_ErrorStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusNotFound)
	}))
	defer server.Close()

	resp, err := NewClient().Send(context.Background(), assembleFor(t, "get", server.URL))
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
	assert.True(t, resp.IsClientError())
}

func TestClient_DecodesGzip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "gzip, deflate", r.Header.Get("Accept-Encoding"))
		var buf bytes.Buffer
		zw := gzip.NewWriter(&buf)
		_, _ = zw.Write([]byte(`{"zipped":true}`))
		_ = zw.Close()
		w.Header().Set("Content-Encoding", "gzip")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(buf.Bytes())
	}))
	defer server.Close()

	resp, err := NewClient().Send(context.Background(), assembleFor(t, "get", server.URL))
	require.NoError(t, err)
	assert.Equal(t, `{"zipped":true}`, string(resp.Body))
	assert.Equal(t, "gzip", resp.Header("content-encoding"))
}

func TestClient_DecodesDeflate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var buf bytes.Buffer
		zw := zlib.NewWriter(&buf)
		_, _ = zw.Write([]byte("deflated"))
		_ = zw.Close()
		w.Header().Set("Content-Encoding", "deflate")
		_, _ = w.Write(buf.Bytes())
	}))
	defer server.Close()

	resp, err := NewClient().Send(context.Background(), assembleFor(t, "get", server.URL))
	require.NoError(t, err)
	assert.Equal(t, "deflated", string(resp.Body))
}

func TestClient_HeadWithGzipHeader(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Encoding", "gzip")
	}))
	defer server.Close()

	resp, err := NewClient().Send(context.Background(), assembleFor(t, "head", server.URL))
	require.NoError(t, err)
	assert.Empty(t, resp.Body)
}

func redirectServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final", http.StatusFound)
	})
	mux.HandleFunc("/final", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("done"))
	})
	mux.HandleFunc("/loop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/loop", http.StatusFound)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestClient_DoesNotFollowRedirectsByDefault(t *testing.T) {
	server := redirectServer(t)

	resp, err := NewClient().Send(context.Background(), assembleFor(t, "get", server.URL+"/start"))
	require.NoError(t, err)
	assert.Equal(t, 302, resp.StatusCode)
	assert.True(t, resp.IsRedirect())
	assert.Equal(t, "/final", resp.Header("Location"))
}

func TestClient_FollowsRedirects(t *testing.T) {
	server := redirectServer(t)

	client := NewClient(WithFollowRedirects(true))
	resp, err := client.Send(context.Background(), assembleFor(t, "get", server.URL+"/start"))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, "done", string(resp.Body))
}

func TestClient_TooManyRedirects(t *testing.T) {
	server := redirectServer(t)

	client := NewClient(WithFollowRedirects(true), WithMaxRedirects(2))
	_, err := client.Send(context.Background(), assembleFor(t, "get", server.URL+"/loop"))
	require.Error(t, err)

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, KindRedirect, transportErr.Kind)
	assert.Contains(t, err.Error(), "too many redirects (exceeded 2)")
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithTimeout(50 * time.Millisecond))
	_, err := client.Send(context.Background(), assembleFor(t, "get", server.URL))

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, KindTimeout, transportErr.Kind)
}

func TestClient_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := NewClient().Send(context.Background(), assembleFor(t, "get", url))

	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, KindConnect, transportErr.Kind)
	assert.True(t, strings.HasPrefix(err.Error(), "error sending request for url ("+url+"/)"))
	assert.Contains(t, errors.Unwrap(err).Error(), "error trying to connect")
}

func TestClient_CertificateVerification(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("secure"))
	}))
	defer server.Close()

	t.Run("rejects unknown authority", func(t *testing.T) {
		_, err := NewClient().Send(context.Background(), assembleFor(t, "get", server.URL))

		var transportErr *TransportError
		require.ErrorAs(t, err, &transportErr)
		assert.Equal(t, KindTLS, transportErr.Kind)

		var authorityErr x509.UnknownAuthorityError
		assert.ErrorAs(t, err, &authorityErr)
	})

	t.Run("verify disabled", func(t *testing.T) {
		resp, err := NewClient(WithVerify(false)).Send(context.Background(), assembleFor(t, "get", server.URL))
		require.NoError(t, err)
		assert.Equal(t, "secure", string(resp.Body))
	})

	t.Run("custom CA bundle", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ca.pem")
		block := &pem.Block{Type: "CERTIFICATE", Bytes: server.Certificate().Raw}
		require.NoError(t, os.WriteFile(path, pem.EncodeToMemory(block), 0o600))

		pool, err := LoadRootCAs(path)
		require.NoError(t, err)

		resp, err := NewClient(WithRootCAs(pool)).Send(context.Background(), assembleFor(t, "get", server.URL))
		require.NoError(t, err)
		assert.Equal(t, 200, resp.StatusCode)
	})
}

func TestLoadRootCAs_Errors(t *testing.T) {
	_, err := LoadRootCAs(filepath.Join(t.TempDir(), "missing.pem"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "empty.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))
	_, err = LoadRootCAs(path)
	assert.Error(t, err)
}

func TestClient_DigestAuth(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		auth := r.Header.Get("Authorization")
		if auth == "" {
			w.Header().Set("WWW-Authenticate", `Digest realm="test", nonce="abc123", qop="auth,auth-int", opaque="xyz"`)
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.True(t, strings.HasPrefix(auth, `Digest username="user", realm="test", nonce="abc123", uri="/secret"`))
		assert.Contains(t, auth, "qop=auth")
		assert.Contains(t, auth, `opaque="xyz"`)
		_, _ = w.Write([]byte("welcome"))
	}))
	defer server.Close()

	client := NewClient(WithDigestAuth("user", "pass"))
	resp, err := client.Send(context.Background(), assembleFor(t, "get", server.URL+"/secret"))

	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)
	assert.Equal(t, 2, attempts)
}

func TestClient_WithLogger(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	var buf bytes.Buffer
	client := NewClient(WithLogger(log.New(&buf, "", 0)))
	_, err := client.Send(context.Background(), assembleFor(t, "get", server.URL))
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "GET "+server.URL)
	assert.Contains(t, buf.String(), "-> 200")
}

func TestClient_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient().Send(ctx, assembleFor(t, "get", server.URL))
	var transportErr *TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.ErrorIs(t, err, context.Canceled)
}
