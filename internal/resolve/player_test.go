package resolve

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/courtside/internal/ingest/bdl"
)

func testLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

// fakeSearchServer serves /players search results: every player whose
// normalized full name shares a word with the query is returned, roughly how
// the provider's broad search behaves.
func fakeSearchServer(t *testing.T, pool []bdl.Player) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		queryWords := strings.Fields(NormalizeName(r.URL.Query().Get("search")))
		var hits []bdl.Player
		for _, p := range pool {
			for _, w := range strings.Fields(NormalizeName(p.FullName())) {
				if containsWord(queryWords, w) {
					hits = append(hits, p)
					break
				}
			}
		}
		resp := map[string]interface{}{"data": hits, "meta": map[string]interface{}{}}
		json.NewEncoder(w).Encode(resp)
	}))
}

func containsWord(words []string, w string) bool {
	for _, x := range words {
		if x == w {
			return true
		}
	}
	return false
}

func playerPool() []bdl.Player {
	dal := bdl.Team{ID: 2, Abbreviation: "DAL", City: "Dallas", Name: "Mavericks", FullName: "Dallas Mavericks"}
	bos := bdl.Team{ID: 1, Abbreviation: "BOS", City: "Boston", Name: "Celtics", FullName: "Boston Celtics"}
	gsw := bdl.Team{ID: 4, Abbreviation: "GSW", City: "Golden State", Name: "Warriors", FullName: "Golden State Warriors"}
	return []bdl.Player{
		{ID: 77, FirstName: "Luka", LastName: "Doncic", Position: "G", Team: dal},
		{ID: 12, FirstName: "Jayson", LastName: "Tatum", Position: "F", Team: bos},
		{ID: 30, FirstName: "Stephen", LastName: "Curry", Position: "G", Team: gsw},
		{ID: 31, FirstName: "Seth", LastName: "Curry", Position: "G", Team: dal},
	}
}

func newTestResolver(t *testing.T, server *httptest.Server) *Resolver {
	t.Helper()
	client := bdl.NewClient(server.URL, "k", testLogger())
	return NewResolver(client, NewTeamIndex(testTeams()), testLogger())
}

func TestResolveExactName(t *testing.T) {
	server := fakeSearchServer(t, playerPool())
	defer server.Close()
	r := newTestResolver(t, server)

	match, err := r.Resolve(context.Background(), "Luka Doncic")
	require.NoError(t, err)
	assert.Equal(t, 77, match.Player.ID)
	assert.Greater(t, match.Confidence, 0.9)
	assert.Contains(t, match.Summary, "Luka Doncic")
}

func TestResolveTransposedName(t *testing.T) {
	server := fakeSearchServer(t, playerPool())
	defer server.Close()
	r := newTestResolver(t, server)

	match, err := r.Resolve(context.Background(), "Doncic Luka")
	require.NoError(t, err)
	assert.Equal(t, 77, match.Player.ID)
}

func TestResolveMisspelled(t *testing.T) {
	server := fakeSearchServer(t, playerPool())
	defer server.Close()
	r := newTestResolver(t, server)

	// Last name intact, first name garbled: the per-word lookup still lands
	// the right player in the pool, and edit distance picks him.
	match, err := r.Resolve(context.Background(), "Lukka Doncic")
	require.NoError(t, err)
	assert.Equal(t, 77, match.Player.ID)
	assert.Less(t, match.Confidence, 1.0)
}

func TestResolveTeamMentionBreaksAmbiguity(t *testing.T) {
	server := fakeSearchServer(t, playerPool())
	defer server.Close()
	r := newTestResolver(t, server)

	// Bare "Curry" is ambiguous; the Dallas mention tips it to Seth.
	match, err := r.Resolve(context.Background(), "Curry Dallas Mavericks")
	require.NoError(t, err)
	assert.Equal(t, 31, match.Player.ID)

	match, err = r.Resolve(context.Background(), "Curry Warriors")
	require.NoError(t, err)
	assert.Equal(t, 30, match.Player.ID)
}

func TestResolveDeterministic(t *testing.T) {
	server := fakeSearchServer(t, playerPool())
	defer server.Close()
	r := newTestResolver(t, server)

	first, err := r.Resolve(context.Background(), "Curry")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := r.Resolve(context.Background(), "Curry")
		require.NoError(t, err)
		assert.Equal(t, first.Player.ID, again.Player.ID)
		assert.Equal(t, first.Confidence, again.Confidence)
	}
}

func TestResolveNotFound(t *testing.T) {
	server := fakeSearchServer(t, nil)
	defer server.Close()
	r := newTestResolver(t, server)

	_, err := r.Resolve(context.Background(), "Nonexistent Player")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestResolveProviderDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()
	r := newTestResolver(t, server)

	_, err := r.Resolve(context.Background(), "Luka Doncic")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrPlayerNotFound, "provider outage is not a not-found")
}
