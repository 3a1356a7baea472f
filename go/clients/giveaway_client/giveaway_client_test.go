package giveaway_client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestParticipant(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/giveaways/7/participants/latest", r.URL.Path)
		assert.Equal(t, "session=abc", r.Header.Get("Cookie"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"display_name":"Dana","platform":"twitch"}`))
	}))
	defer srv.Close()

	c := NewGiveawayClient(srv.URL+"/", 7)
	c.SetSession("session=abc", "")

	p, err := c.LatestParticipant(context.Background())
	require.NoError(t, err)
	require.NotNil(t, p.DisplayName)
	assert.Equal(t, "Dana", *p.DisplayName)
	assert.Equal(t, "twitch", *p.Platform)
}

func TestLatestParticipant_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"display_name":null,"platform":null}`))
	}))
	defer srv.Close()

	p, err := NewGiveawayClient(srv.URL, 1).LatestParticipant(context.Background())
	require.NoError(t, err)
	assert.Nil(t, p.DisplayName)
}

func TestLatestParticipant_Status(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := NewGiveawayClient(srv.URL, 1).LatestParticipant(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestState(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/giveaways/7/state", r.URL.Path)
		_, _ = w.Write([]byte(`{"giveaway_id":7,"command":"!entrar","is_open":true,"participants_count":2,"participant_names":["Ana","Bob"],"last_winner":null}`))
	}))
	defer srv.Close()

	s, err := NewGiveawayClient(srv.URL, 7).State(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(7), s.GiveawayID)
	assert.Equal(t, "!entrar", s.Command)
	assert.Equal(t, []string{"Ana", "Bob"}, s.ParticipantNames)
	assert.Nil(t, s.LastWinner)
}

func TestState_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewGiveawayClient(srv.URL, 7).State(context.Background())
	assert.ErrorIs(t, err, ErrUnexpectedStatus)
}

func TestTriggerDraw(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   string
		detail string
		ok     bool
	}{
		{name: "accepted", status: http.StatusAccepted, body: `{"winner_name":"Bob"}`, ok: true},
		{name: "redirect", status: http.StatusFound, ok: true},
		{name: "no participants", status: http.StatusBadRequest, body: `{"detail":"Sem participantes"}`, detail: "Sem participantes"},
		{name: "not json", status: http.StatusForbidden, body: `forbidden`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/giveaways/3/draw", r.URL.Path)
				assert.Equal(t, RequestedWithValue, r.Header.Get(RequestedWithHeader))
				assert.NoError(t, r.ParseForm())
				assert.Equal(t, "tok", r.PostForm.Get(CSRFField))
				if tc.status == http.StatusFound {
					w.Header().Set("Location", "/giveaways/3")
				}
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()

			c := NewGiveawayClient(srv.URL, 3)
			c.SetSession("", "tok")
			err := c.TriggerDraw(context.Background())
			if tc.ok {
				require.NoError(t, err)
				return
			}
			var de *DrawError
			require.True(t, errors.As(err, &de))
			assert.Equal(t, tc.status, de.StatusCode)
			assert.Equal(t, tc.detail, de.Detail)
			assert.ErrorIs(t, err, ErrUnexpectedStatus)
		})
	}
}

func TestTriggerDraw_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	err := NewGiveawayClient(url, 3).TriggerDraw(context.Background())
	require.Error(t, err)
	var de *DrawError
	assert.False(t, errors.As(err, &de))
}

func TestFeedURL(t *testing.T) {
	u, err := FeedURL("https://roleta.example.com/", 5)
	require.NoError(t, err)
	assert.Equal(t, "wss://roleta.example.com/ws/giveaways/5", u)

	u, err = FeedURL("http://localhost:8081", 1)
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8081/ws/giveaways/1", u)

	_, err = FeedURL("ftp://x", 1)
	assert.Error(t, err)
}
