package handler_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHandleFeed(t *testing.T) {
	t.Run("empty feed is an empty array, not null", func(t *testing.T) {
		api := newTestAPI(t)

		rr := api.do(http.MethodGet, "/api/feed", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "[]\n", rr.Body.String())
	})

	t.Run("includes posts without likes at count zero", func(t *testing.T) {
		api := newTestAPI(t)
		cookie := api.signup("alice", "correct horse")
		api.createPost(cookie, "Quiet post", "nobody liked this")

		rr := api.do(http.MethodGet, "/api/feed", "")
		assert.Equal(t, http.StatusOK, rr.Code)

		var feed []postBody
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&feed))
		if assert.Len(t, feed, 1) {
			assert.Equal(t, "Quiet post", feed[0].Title)
			assert.Equal(t, "alice", feed[0].AuthorUsername)
			assert.Equal(t, int64(0), feed[0].LikeCount)
			assert.False(t, feed[0].ViewerHasLiked)
		}
	})

	t.Run("newest posts come first", func(t *testing.T) {
		api := newTestAPI(t)
		cookie := api.signup("alice", "correct horse")
		first := api.createPost(cookie, "older", "one")
		second := api.createPost(cookie, "newer", "two")

		rr := api.do(http.MethodGet, "/api/feed", "")

		var feed []postBody
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&feed))
		if assert.Len(t, feed, 2) {
			assert.Equal(t, second, feed[0].ID)
			assert.Equal(t, first, feed[1].ID)
		}
	})

	t.Run("annotates the viewer's likes only", func(t *testing.T) {
		api := newTestAPI(t)
		alice := api.signup("alice", "correct horse")
		bob := api.signup("bob", "another pass")

		liked := api.createPost(alice, "liked by alice", "x")
		other := api.createPost(alice, "liked by bob", "y")

		api.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/like", liked), "", alice)
		api.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/like", other), "", bob)

		rr := api.do(http.MethodGet, "/api/feed", "", alice)

		var feed []postBody
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&feed))

		byID := make(map[int64]postBody, len(feed))
		for _, e := range feed {
			byID[e.ID] = e
		}

		assert.True(t, byID[liked].ViewerHasLiked)
		assert.Equal(t, int64(1), byID[liked].LikeCount)

		// Bob's like counts toward the total but is not alice's.
		assert.False(t, byID[other].ViewerHasLiked)
		assert.Equal(t, int64(1), byID[other].LikeCount)
	})

	t.Run("anonymous viewers never see liked state", func(t *testing.T) {
		api := newTestAPI(t)
		cookie := api.signup("alice", "correct horse")
		id := api.createPost(cookie, "popular", "z")
		api.do(http.MethodPost, fmt.Sprintf("/api/posts/%d/like", id), "", cookie)

		rr := api.do(http.MethodGet, "/api/feed", "")

		var feed []postBody
		assert.NoError(t, json.NewDecoder(rr.Body).Decode(&feed))
		if assert.Len(t, feed, 1) {
			assert.Equal(t, int64(1), feed[0].LikeCount)
			assert.False(t, feed[0].ViewerHasLiked)
		}
	})
}
