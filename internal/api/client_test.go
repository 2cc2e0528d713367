package api

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(server.URL, "tester", "key123", "boorugram-test/1.0", 1000, slog.Default())
}

func TestSearchPosts(t *testing.T) {
	var gotPath, gotQuery, gotUA string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotUA = r.Header.Get("User-Agent")

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"posts":[
			{"id":1001,"rating":"s","fav_count":7,
			 "file":{"ext":"png","md5":"abc123","url":"https://static.example/abc123.png"},
			 "tags":{"general":["solo"],"species":["wolf"]},
			 "score":{"up":10,"down":-1,"total":9}},
			{"id":1000,"rating":"q","file":{"ext":"jpg"}}
		]}`))
	})

	posts, err := client.SearchPosts(context.Background(), "wolf solo", 10, 1)
	require.NoError(t, err)
	require.Len(t, posts, 2)

	assert.Equal(t, "/posts.json", gotPath)
	assert.Contains(t, gotQuery, "tags=wolf+solo")
	assert.Contains(t, gotQuery, "limit=10")
	assert.Equal(t, "boorugram-test/1.0", gotUA)

	assert.Equal(t, int64(1001), posts[0].ID)
	assert.Equal(t, "s", posts[0].Rating)
	assert.Equal(t, 9, posts[0].Score.Total)
	assert.Equal(t, []string{"wolf", "solo"}, posts[0].AllTags())
}

func TestSearchPostsClampsLimit(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		_, _ = w.Write([]byte(`{"posts":[]}`))
	})

	_, err := client.SearchPosts(context.Background(), "wolf", 100000, 0)
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "limit=320")
	assert.Contains(t, gotQuery, "page=1")
}

func TestGetPostSendsBasicAuth(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "tester", user)
		assert.Equal(t, "key123", pass)

		_, _ = w.Write([]byte(`{"post":{"id":42,"rating":"e"}}`))
	})

	post, err := client.GetPost(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), post.ID)
	assert.Equal(t, "e", post.Rating)
}

func TestAPIErrorFromStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"SessionLoader::AuthenticationFailure"}`))
	})

	_, err := client.SearchPosts(context.Background(), "wolf", 10, 1)
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Contains(t, apiErr.Message, "AuthenticationFailure")
}

func TestSearchTagsAcceptsEmptyObjectResponse(t *testing.T) {
	// The board answers {"tags":[]} instead of [] when nothing matches.
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"tags":[]}`))
	})

	tags, err := client.SearchTags(context.Background(), "zzz*", 10)
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestSearchTagsBareArray(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.RawQuery, "count")
		_, _ = w.Write([]byte(`[
			{"id":1,"name":"wolf","post_count":250000,"category":5},
			{"id":2,"name":"wolfgirl","post_count":300,"category":0}
		]`))
	})

	tags, err := client.SearchTags(context.Background(), "wolf*", 10)
	require.NoError(t, err)
	require.Len(t, tags, 2)
	assert.Equal(t, "wolf", tags[0].Name)
	assert.Equal(t, int64(250000), tags[0].PostCount)
}

func TestAddFavoriteRequiresAuth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("unauthenticated client must not hit the network")
	}))
	t.Cleanup(server.Close)

	anon := New(server.URL, "", "", "boorugram-test/1.0", 1000, slog.Default())

	err := anon.AddFavorite(context.Background(), 42)
	assert.ErrorIs(t, err, ErrAuthRequired)
}

func TestAddFavoritePostsPostID(t *testing.T) {
	var gotMethod, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotQuery = r.URL.RawQuery
		w.WriteHeader(http.StatusCreated)
	})

	err := client.AddFavorite(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Contains(t, gotQuery, "post_id=42")
}

func TestSearchPostSets(t *testing.T) {
	var gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery

		_, _ = w.Write([]byte(`{"post_sets":[
			{"id":7,"name":"Wolf comics","shortname":"wolf_comics",
			 "is_public":true,"post_ids":[1,2,3],"post_count":3}
		]}`))
	})

	sets, err := client.SearchPostSets(context.Background(), "wolf", 10)
	require.NoError(t, err)
	require.Len(t, sets, 1)

	assert.Equal(t, "/post_sets.json", gotPath)
	assert.Contains(t, gotQuery, "name%5D=wolf")
	assert.Equal(t, "wolf_comics", sets[0].Shortname)
	assert.Equal(t, []int64{1, 2, 3}, sets[0].PostIDs)
}

func TestGetUser(t *testing.T) {
	var gotPath string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path

		_, _ = w.Write([]byte(`{"id":99,"name":"somewolf","level_string":"Member","post_upload_count":12}`))
	})

	user, err := client.GetUser(context.Background(), "somewolf")
	require.NoError(t, err)

	assert.Equal(t, "/users/somewolf.json", gotPath)
	assert.Equal(t, int64(99), user.ID)
	assert.Equal(t, "Member", user.LevelString)
	assert.Equal(t, 12, user.PostUploadCount)
}

func TestGetUserRejectsEmptyName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("empty user name must not hit the network")
	}))
	t.Cleanup(server.Close)

	client := New(server.URL, "", "", "boorugram-test/1.0", 1000, slog.Default())

	_, err := client.GetUser(context.Background(), "  ")
	require.Error(t, err)
}

func TestPostNotes(t *testing.T) {
	var gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery

		_, _ = w.Write([]byte(`[
			{"id":1,"post_id":42,"x":10,"y":20,"width":100,"height":30,
			 "body":"translated text","is_active":true}
		]`))
	})

	notes, err := client.PostNotes(context.Background(), 42)
	require.NoError(t, err)
	require.Len(t, notes, 1)

	assert.Contains(t, gotQuery, "post_id%5D=42")
	assert.Equal(t, "translated text", notes[0].Body)
	assert.True(t, notes[0].IsActive)
}

func TestTagAliases(t *testing.T) {
	var gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery

		_, _ = w.Write([]byte(`{"tag_aliases":[
			{"id":5,"antecedent_name":"wolfess","consequent_name":"wolf","status":"active"}
		]}`))
	})

	aliases, err := client.TagAliases(context.Background(), "wolfess", 10)
	require.NoError(t, err)
	require.Len(t, aliases, 1)

	assert.Equal(t, "/tag_aliases.json", gotPath)
	assert.Contains(t, gotQuery, "antecedent_name%5D=wolfess")
	assert.Equal(t, "wolf", aliases[0].ConsequentName)
}

func TestGetWikiPageMissing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"wiki_pages":[]}`))
	})

	page, err := client.GetWikiPage(context.Background(), "no such page")
	require.NoError(t, err)
	assert.Nil(t, page)
}
