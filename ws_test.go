package main

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQRHandlerServesPNGWithSecurityHeaders(t *testing.T) {
	t.Parallel()

	cfg := testConfig()

	req := httptest.NewRequest(http.MethodGet, "http://example.com/room/ABCD/qr", nil)
	rec := httptest.NewRecorder()

	qrHandler(cfg)(rec, req, httprouter.Params{{Key: "code", Value: "ABCD"}})

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("Content-Security-Policy"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestQRHandlerRejectsMissingCode(t *testing.T) {
	t.Parallel()

	cfg := testConfig()

	req := httptest.NewRequest(http.MethodGet, "http://example.com/room//qr", nil)
	rec := httptest.NewRecorder()

	qrHandler(cfg)(rec, req, httprouter.Params{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
