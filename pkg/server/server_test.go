package server

import (
	"bytes"
	"errors"
	"io"
	"path/filepath"
	"testing"

	"github.com/bastiangx/glideserve/pkg/autocommit"
	"github.com/bastiangx/glideserve/pkg/config"
	"github.com/bastiangx/glideserve/pkg/dictionary"
	"github.com/bastiangx/glideserve/pkg/engine"
	"github.com/bastiangx/glideserve/pkg/glide"
	"github.com/bastiangx/glideserve/pkg/layout"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	opts := engine.DefaultOptions()
	opts.Workers = 2
	e, err := engine.New(opts)
	require.NoError(t, err)
	t.Cleanup(e.Stop)
	e.Store().SetStatic([]dictionary.Entry{
		{Word: "hello", Frequency: 200},
		{Word: "help", Frequency: 180},
		{Word: "hell", Frequency: 150},
		{Word: "world", Frequency: 120},
		{Word: "the", Frequency: 255},
	})
	return e
}

// run serves until the input is drained and returns the responses by id.
func run(t *testing.T, s *Server, out *bytes.Buffer) map[string]Response {
	t.Helper()
	require.NoError(t, s.Start())

	got := make(map[string]Response)
	dec := msgpack.NewDecoder(out)
	for {
		var resp Response
		err := dec.Decode(&resp)
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got[resp.ID] = resp
	}
	return got
}

func encode(t *testing.T, msgs ...any) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	for _, m := range msgs {
		require.NoError(t, enc.Encode(m))
	}
	return &buf
}

func qwertyTrace(word string) [][2]float64 {
	ix := layout.QWERTY("en_US", 40, 60)
	path := glide.IdealGestures(word, ix, glide.DefaultLoopFactor)[0]
	pts := make([][2]float64, len(path))
	for i, p := range path {
		pts[i] = [2]float64{p.X, p.Y}
	}
	return pts
}

func TestServerRoundTrip(t *testing.T) {
	in := encode(t,
		Request{ID: "k1", Op: "layout", Subtype: "en_US", KeyWidth: 40, KeyHeight: 60},
		Request{ID: "s1", Op: "suggest", Input: "hel", Limit: 5},
		Request{ID: "g1", Op: "glide", Points: qwertyTrace("world"), Limit: 3},
		Request{ID: "h1", Op: "health"},
	)
	var out bytes.Buffer
	got := run(t, NewServerWithIO(newTestEngine(t), nil, "", in, &out), &out)

	assert.Equal(t, statusReady, got[""].Status)
	assert.Equal(t, statusOK, got["k1"].Status)
	assert.Equal(t, 26, got["k1"].Count)
	assert.Equal(t, statusOK, got["h1"].Status)

	s1 := got["s1"]
	require.Equal(t, statusOK, s1.Status, s1.Error)
	require.Len(t, s1.Suggestions, 3)
	assert.Equal(t, "hell", s1.Suggestions[0].Word)
	assert.Equal(t, uint16(1), s1.Suggestions[0].Rank)
	assert.Equal(t, "prefix", s1.Suggestions[0].Kind)
	assert.Equal(t, "word", s1.Suggestions[0].Provider)
	assert.NotZero(t, s1.Seq)

	g1 := got["g1"]
	require.Equal(t, statusOK, g1.Status, g1.Error)
	require.NotEmpty(t, g1.Glide)
	assert.Equal(t, "world", g1.Glide[0].Word)
	assert.Greater(t, g1.Seq, s1.Seq)
}

func TestServerGlideBeforeLayout(t *testing.T) {
	in := encode(t, Request{ID: "g1", Op: "glide", Points: qwertyTrace("hello")})
	var out bytes.Buffer
	got := run(t, NewServerWithIO(newTestEngine(t), nil, "", in, &out), &out)
	assert.Equal(t, statusError, got["g1"].Status)
	assert.Equal(t, engine.ErrLayoutNotReady.Error(), got["g1"].Error)
}

func TestServerRejectsBadRequests(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.MaxPoints = 2
	in := encode(t,
		42,
		Request{ID: "u1", Op: "dance"},
		Request{ID: "s1", Op: "suggest"},
		Request{ID: "k1", Op: "layout"},
		Request{ID: "k2", Op: "layout", Subtype: "en_US", KeyWidth: 40, KeyHeight: 60},
		Request{ID: "g1", Op: "glide", Points: qwertyTrace("hello")},
		Request{ID: "a1", Op: "accept"},
		Request{ID: "c1", Op: "config", Tier: "reckless"},
	)
	var out bytes.Buffer
	got := run(t, NewServerWithIO(newTestEngine(t), cfg, "", in, &out), &out)

	for _, id := range []string{"u1", "s1", "k1", "g1", "a1", "c1"} {
		assert.Equal(t, statusError, got[id].Status, id)
		assert.NotEmpty(t, got[id].Error, id)
	}
	assert.Equal(t, statusOK, got["k2"].Status)
}

func TestServerConfigValidatesBeforeApplying(t *testing.T) {
	zero, limit := 0, 3
	unwritable := filepath.Join(t.TempDir(), "missing", "config.toml")
	in := encode(t,
		Request{ID: "c1", Op: "config", Tier: "conservative", MaxLimit: &zero},
		Request{ID: "c2", Op: "config", Tier: "conservative", MaxLimit: &limit},
	)
	var out bytes.Buffer
	e := newTestEngine(t)
	s := NewServerWithIO(e, nil, unwritable, in, &out)
	got := run(t, s, &out)

	assert.Equal(t, statusError, got["c1"].Status)
	assert.Contains(t, got["c1"].Error, "max_limit")
	assert.Equal(t, statusOK, got["c2"].Status, "save failures do not reject a valid update")
	assert.Equal(t, autocommit.Conservative, e.Tier())
	assert.Equal(t, 3, s.Config().Server.MaxLimit)
	assert.NoFileExists(t, unwritable)
}

func TestServerCommitAndConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, config.SaveConfig(config.DefaultConfig(), path))

	limit := 2
	in := encode(t,
		Request{ID: "c1", Op: "config", Tier: "aggressive", MaxLimit: &limit, Clip: "hello there"},
		Request{ID: "m1", Op: "commit", Input: "teh"},
		Request{ID: "m2", Op: "commit", Input: "hel", Limit: 10},
	)
	var out bytes.Buffer
	e := newTestEngine(t)
	s := NewServerWithIO(e, nil, path, in, &out)
	got := run(t, s, &out)

	assert.Equal(t, statusOK, got["c1"].Status, got["c1"].Error)
	assert.Equal(t, autocommit.Aggressive, e.Tier())
	assert.Equal(t, 2, s.Config().Server.MaxLimit)

	saved, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, autocommit.Aggressive, saved.AutoCommit.Tier)

	m1 := got["m1"]
	require.NotNil(t, m1.Commit)
	assert.True(t, m1.Commit.Commit)
	assert.Equal(t, "the", m1.Commit.Word)
	assert.Equal(t, "aggressive", m1.Commit.Tier)

	m2 := got["m2"]
	assert.Len(t, m2.Suggestions, 2, "clamped to max_limit")
	require.NotNil(t, m2.Commit)
	assert.True(t, m2.Commit.Commit)
	assert.Equal(t, "hell", m2.Commit.Word)
	assert.Equal(t, autocommit.RuleNearMatch.String(), m2.Commit.Rule)
}

func TestServerAccept(t *testing.T) {
	in := encode(t,
		Request{ID: "a1", Op: "accept", Word: "🔥", Provider: "emoji"},
		Request{ID: "a2", Op: "accept", Word: "hello"},
	)
	var out bytes.Buffer
	e := newTestEngine(t)
	got := run(t, NewServerWithIO(e, nil, "", in, &out), &out)

	assert.Equal(t, statusOK, got["a1"].Status)
	assert.Equal(t, statusOK, got["a2"].Status)
	assert.Equal(t, []string{"🔥"}, e.Providers().Emoji.Recent())
}
