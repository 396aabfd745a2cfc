package respond

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset")
}

func TestJSONEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	JSON(rec, http.StatusCreated, "created", map[string]string{"id": "1"})

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	var env struct {
		Code    int               `json:"code"`
		Message string            `json:"message"`
		Data    map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, http.StatusCreated, env.Code)
	assert.Equal(t, "created", env.Message)
	assert.Equal(t, "1", env.Data["id"])

	rec = httptest.NewRecorder()
	Error(rec, http.StatusNotFound, "missing")
	assert.JSONEq(t, `{"code":404,"message":"missing"}`, rec.Body.String())
}

func TestAttachment(t *testing.T) {
	rec := httptest.NewRecorder()
	Attachment(rec, "text/csv; charset=utf-8", "debts.csv", []byte("a,b\n"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "attachment; filename=debts.csv", rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n", rec.Body.String())

	rec = httptest.NewRecorder()
	Attachment(rec, "application/json", "", []byte("[]"))
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestWriteFailuresStayOffGlobalLogger(t *testing.T) {
	hook := logtest.NewGlobal()
	defer hook.Reset()

	w := brokenWriter{httptest.NewRecorder()}
	JSON(w, http.StatusOK, "ok", nil)
	Attachment(w, "text/csv", "x.csv", []byte("x"))

	assert.Empty(t, hook.AllEntries())
	assert.Equal(t, http.StatusOK, w.Code)
}
