package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/debt-ledger/internal/apperr"
)

func TestRespondServiceError(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("%w: debt x", apperr.ErrNotFound), http.StatusNotFound},
		{fmt.Errorf("%w: email taken", apperr.ErrConflict), http.StatusConflict},
		{fmt.Errorf("%w: amount", apperr.ErrInvalidArgument), http.StatusBadRequest},
		{fmt.Errorf("%w: paid", apperr.ErrInvalidState), http.StatusBadRequest},
		{fmt.Errorf("%w: bad password", apperr.ErrUnauthorized), http.StatusUnauthorized},
	}
	for _, tc := range cases {
		logger, hook := logtest.NewNullLogger()
		rec := httptest.NewRecorder()
		respondServiceError(rec, logger, tc.err)
		assert.Equal(t, tc.status, rec.Code, tc.err.Error())
		assert.Contains(t, rec.Body.String(), tc.err.Error())
		assert.Empty(t, hook.AllEntries())
	}

	logger, hook := logtest.NewNullLogger()
	rec := httptest.NewRecorder()
	respondServiceError(rec, logger, errors.New("connection refused"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "connection refused")
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}
	cases := map[string]bool{
		`{"name":"a"}`:             true,
		`{"name":"a","extra":1}`:   false,
		`{"name":"a"}{"name":"b"}`: false,
		`not json`:                 false,
	}
	for body, ok := range cases {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var dst payload
		err := decodeJSON(httptest.NewRecorder(), req, &dst)
		if ok {
			assert.NoError(t, err, body)
			assert.Equal(t, "a", dst.Name)
		} else {
			assert.Error(t, err, body)
		}
	}
}

func TestPathUUID(t *testing.T) {
	var got error
	r := mux.NewRouter()
	r.HandleFunc("/things/{id}", func(w http.ResponseWriter, req *http.Request) {
		_, got = pathUUID(req, "id")
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things/123", nil))
	assert.EqualError(t, got, "id must be a valid UUID")

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/things/6f1c2a0e-1d2b-4c3a-9e8f-0a1b2c3d4e5f", nil))
	assert.NoError(t, got)
}
