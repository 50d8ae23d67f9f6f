package http

import (
	"bytes"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	neturl "net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeFiles(files map[string]string) FileLoader {
	return func(path string) ([]byte, error) {
		data, ok := files[path]
		if !ok {
			return nil, errors.New("no such file")
		}
		return []byte(data), nil
	}
}

func TestSerializeJSON(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   string
	}{
		{"single field", []string{"name=ali"}, `{"name":"ali"}`},
		{"numeric looking field stays a string", []string{"age=29"}, `{"age":"29"}`},
		{"raw number", []string{"age:=29"}, `{"age":29}`},
		{"raw literals", []string{"ok:=true", "none:=null"}, `{"ok":true,"none":null}`},
		{"raw value is compacted", []string{`tags:=[1, 2, {"a": "b"}]`}, `{"tags":[1,2,{"a":"b"}]}`},
		{"insertion order", []string{"b=1", "a=2", "c=3"}, `{"b":"1","a":"2","c":"3"}`},
		{"repeated keys stay separate members", []string{"a=1", "b=2", "a=3"}, `{"a":"1","b":"2","a":"3"}`},
		{"no html escaping", []string{"html=<b>&</b>"}, `{"html":"<b>&</b>"}`},
		{"newline escaped", []string{"text=a\nb"}, `{"text":"a\nb"}`},
		{"non body items ignored", []string{"x==1", "H:v", "name=ali"}, `{"name":"ali"}`},
		{"no fields", nil, `{}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := SerializeJSON(mustItems(t, tt.tokens...), fakeFiles(nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(body))
		})
	}
}

func TestSerializeJSON_Files(t *testing.T) {
	load := fakeFiles(map[string]string{
		"bio.txt":   "hello\n",
		"meta.json": "{\n  \"a\": 1\n}\n",
		"bad.json":  "{nope",
	})

	body, err := SerializeJSON(mustItems(t, "bio=@bio.txt", "meta:=@meta.json"), load)
	require.NoError(t, err)
	assert.Equal(t, `{"bio":"hello\n","meta":{"a":1}}`, string(body))

	_, err = SerializeJSON(mustItems(t, "meta:=@bad.json"), load)
	assert.Error(t, err)

	_, err = SerializeJSON(mustItems(t, "bio=@missing.txt"), load)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing.txt")
}

func TestSerializeForm(t *testing.T) {
	tests := []struct {
		name   string
		tokens []string
		want   string
	}{
		{"newline is percent encoded", []string{"foo=bar\nbaz"}, "foo=bar%0Abaz"},
		{"space is plus", []string{"q=a b"}, "q=a+b"},
		{"reserved characters", []string{"k=a&b=c"}, "k=a%26b%3Dc"},
		{"repeated keys kept", []string{"a=1", "a=2"}, "a=1&a=2"},
		{"empty value", []string{"a="}, "a="},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, err := SerializeForm(mustItems(t, tt.tokens...), fakeFiles(nil))
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(body))
		})
	}
}

func TestSerializeForm_ParsesBack(t *testing.T) {
	body, err := SerializeForm(mustItems(t, "foo=bar\nbaz", "name=Ali Baba", "sym=?&="), fakeFiles(nil))
	require.NoError(t, err)

	values, err := neturl.ParseQuery(string(body))
	require.NoError(t, err)
	assert.Equal(t, "bar\nbaz", values.Get("foo"))
	assert.Equal(t, "Ali Baba", values.Get("name"))
	assert.Equal(t, "?&=", values.Get("sym"))
}

func TestSerializeForm_RejectsRawJSON(t *testing.T) {
	_, err := SerializeForm(mustItems(t, "age:=29"), fakeFiles(nil))
	assert.ErrorIs(t, err, ErrConflictingContent)
}

func TestSerializeMultipart(t *testing.T) {
	load := fakeFiles(map[string]string{"dir/me.png": "PNGDATA"})

	body, contentType, err := SerializeMultipart(mustItems(t, "name=ali", "avatar@dir/me.png"), load, TestBoundary)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data; boundary="+TestBoundary, contentType)

	mediaType, params, err := mime.ParseMediaType(contentType)
	require.NoError(t, err)
	assert.Equal(t, "multipart/form-data", mediaType)

	reader := multipart.NewReader(bytes.NewReader(body), params["boundary"])

	part, err := reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "name", part.FormName())
	data, _ := io.ReadAll(part)
	assert.Equal(t, "ali", string(data))

	part, err = reader.NextPart()
	require.NoError(t, err)
	assert.Equal(t, "avatar", part.FormName())
	assert.Equal(t, "me.png", part.FileName())
	assert.Equal(t, "image/png", part.Header.Get("Content-Type"))
	data, _ = io.ReadAll(part)
	assert.Equal(t, "PNGDATA", string(data))

	_, err = reader.NextPart()
	assert.Equal(t, io.EOF, err)
}

func TestSerializeMultipart_UnknownExtension(t *testing.T) {
	load := fakeFiles(map[string]string{"blob.zzz": "x"})
	body, _, err := SerializeMultipart(mustItems(t, "f@blob.zzz"), load, TestBoundary)
	require.NoError(t, err)
	assert.Contains(t, string(body), "Content-Type: application/octet-stream")
}

func TestNewBoundary(t *testing.T) {
	a, b := NewBoundary(), NewBoundary()
	assert.Len(t, a, 32)
	assert.NotEqual(t, a, b)
}
