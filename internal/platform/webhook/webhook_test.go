package webhook

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignAndVerify(t *testing.T) {
	payload := []byte(`{"paciente_id":"x","mensagem":"oi"}`)
	sig := SignPayload(payload, "s3cret")

	assert.Len(t, sig, 64)
	assert.True(t, VerifySignature(payload, "s3cret", sig))
	assert.False(t, VerifySignature(payload, "other", sig))
	assert.False(t, VerifySignature([]byte("tampered"), "s3cret", sig))
}

func TestVerifyHeader(t *testing.T) {
	payload := []byte(`{}`)
	header := SignatureHeaderValue(payload, "k")

	assert.True(t, VerifyHeader(payload, "k", header))
	assert.False(t, VerifyHeader(payload, "k", SignPayload(payload, "k")), "prefix is required")
	assert.False(t, VerifyHeader(payload, "", header), "empty secret never verifies")
}

func TestValidateURL(t *testing.T) {
	assert.NoError(t, ValidateURL("https://bot.example.com/hook"))
	assert.Error(t, ValidateURL(""))
	assert.Error(t, ValidateURL("ftp://example.com"))
	assert.Error(t, ValidateURL("https://"))
}

func TestClient_DeliverSignsPayload(t *testing.T) {
	var gotSig, gotEvent string
	var gotBody []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSig = r.Header.Get(SignatureHeader)
		gotEvent = r.Header.Get(EventHeader)
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusAccepted)
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	c := NewClient(WithRetries(0, time.Millisecond))
	d, err := c.Deliver(context.Background(), srv.URL, "s3cret", "mensagem.enviada", map[string]string{"texto": "olá"})
	require.NoError(t, err)

	assert.True(t, d.Succeeded())
	assert.Equal(t, http.StatusAccepted, d.StatusCode)
	assert.Equal(t, "mensagem.enviada", gotEvent)
	assert.True(t, VerifyHeader(gotBody, "s3cret", gotSig))
	assert.JSONEq(t, `{"texto":"olá"}`, string(gotBody))
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(WithRetries(3, time.Millisecond))
	d, err := c.Deliver(context.Background(), srv.URL, "", "teste", map[string]int{"n": 1})
	require.NoError(t, err)
	assert.True(t, d.Succeeded())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClient_Non2xxIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	d, err := NewClient(WithRetries(0, time.Millisecond)).Deliver(context.Background(), srv.URL, "", "teste", nil)
	require.NoError(t, err)
	assert.False(t, d.Succeeded())
	assert.Equal(t, http.StatusBadRequest, d.StatusCode)
}
