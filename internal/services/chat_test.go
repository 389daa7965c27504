package services

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
)

type fakeDoer struct {
	status int
	body   string
	err    error

	calls   int
	gotAuth string
	gotBody chatRequest
}

func (d *fakeDoer) DoTimeout(req *fasthttp.Request, resp *fasthttp.Response, _ time.Duration) error {
	d.calls++
	d.gotAuth = string(req.Header.Peek("Authorization"))
	_ = json.Unmarshal(req.Body(), &d.gotBody)
	if d.err != nil {
		return d.err
	}
	resp.SetStatusCode(d.status)
	resp.SetBodyString(d.body)
	return nil
}

func TestChatRefusesAccountQuestions(t *testing.T) {
	doer := &fakeDoer{}
	svc := NewChatService(doer, "", "token")

	reply, err := svc.Reply("What is my Balance?")
	require.NoError(t, err)
	assert.Equal(t, ReplyRestricted, reply)
	assert.Zero(t, doer.calls)

	_, err = svc.Reply("   ")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestChatStripsEchoedPrompt(t *testing.T) {
	doer := &fakeDoer{
		status: fasthttp.StatusOK,
		body:   `[{"generated_text":"You are an AI assistant...\nUser: How do I file a complaint?\nAssistant: Use the support page."}]`,
	}
	svc := NewChatService(doer, "http://upstream.test/model", "hf-token")

	reply, err := svc.Reply("How do I file a complaint?")
	require.NoError(t, err)
	assert.Equal(t, "Use the support page.", reply)
	assert.Equal(t, "Bearer hf-token", doer.gotAuth)
	assert.Contains(t, doer.gotBody.Inputs, "\nUser: How do I file a complaint?")
}

func TestChatUpstreamFailures(t *testing.T) {
	tests := []struct {
		name string
		doer *fakeDoer
		want string
	}{
		{"model loading", &fakeDoer{status: fasthttp.StatusServiceUnavailable, body: `{"error":"Model is currently loading"}`}, ReplyWarmingUp},
		{"other error", &fakeDoer{status: fasthttp.StatusBadRequest, body: `{"error":"bad input"}`}, ReplyUnavailable},
		{"transport error", &fakeDoer{err: errors.New("connection refused")}, ReplyUnavailable},
		{"empty generation", &fakeDoer{status: fasthttp.StatusOK, body: `[{"generated_text":""}]`}, ReplyEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply, err := NewChatService(tt.doer, "", "").Reply("hello")
			require.NoError(t, err)
			assert.Equal(t, tt.want, reply)
		})
	}
}
