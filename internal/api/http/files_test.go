package http

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/portalhq/portal/internal/api/domain"
)

func (e *testEnv) doUpload(t *testing.T, token, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/files", &buf)
	n := remoteAddrSeq.Add(1)
	req.RemoteAddr = fmt.Sprintf("10.%d.%d.%d:4321", n>>16&0xff, n>>8&0xff, n&0xff)
	req.Header.Set("x-api-key", testAPIKey)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	e.Router.ServeHTTP(rec, req)
	return rec
}

func TestFileUpload(t *testing.T) {
	env := newTestEnv(t)

	u := env.seedUser(t, "alice@example.com", "password 123", domain.RoleMember, true)
	token := env.mintAccess(t, u)

	t.Run("success", func(t *testing.T) {
		content := []byte("file contents here")
		rec := env.doUpload(t, token, "My Report.pdf", content)
		require.Equal(t, http.StatusCreated, rec.Code)

		body := decodeBody(t, rec)
		key := body["key"].(string)
		require.True(t, strings.HasPrefix(key, "uploads/"))
		require.True(t, strings.HasSuffix(key, ".pdf"))
		require.Equal(t, "My_Report.pdf", body["filename"])
		require.EqualValues(t, len(content), body["size"])

		require.Len(t, env.Uploader.Objects, 1)
		require.Equal(t, key, env.Uploader.Objects[0].Key)
		require.Equal(t, content, env.Uploader.Objects[0].Body)
	})

	t.Run("requires authentication", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/files", nil)
		req.Header.Set("x-api-key", testAPIKey)
		rec := httptest.NewRecorder()
		env.Router.ServeHTTP(rec, req)
		requireErrorCode(t, rec, http.StatusUnauthorized, "TOKEN_MISSING")
	})

	t.Run("missing file part", func(t *testing.T) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		require.NoError(t, mw.WriteField("note", "no file here"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/files", &buf)
		n := remoteAddrSeq.Add(1)
		req.RemoteAddr = fmt.Sprintf("10.%d.%d.%d:4321", n>>16&0xff, n>>8&0xff, n&0xff)
		req.Header.Set("x-api-key", testAPIKey)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)

		rec := httptest.NewRecorder()
		env.Router.ServeHTTP(rec, req)
		requireErrorCode(t, rec, http.StatusBadRequest, "INVALID_REQUEST")
	})
}
