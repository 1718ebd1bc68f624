package scraper

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"studyquest-server/internal/ai"
	"studyquest-server/internal/mocks"
	"studyquest-server/internal/models"
	"studyquest-server/internal/themes"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSource struct {
	posts map[string][]Post
	errs  map[string]error
}

func (f *fakeSource) Hot(_ context.Context, subreddit string, _ int) ([]Post, error) {
	if err := f.errs[subreddit]; err != nil {
		return nil, err
	}
	return f.posts[subreddit], nil
}

func classifierReply(sentiment string, keywords ...string) string {
	kw, _ := json.Marshal(keywords)
	return fmt.Sprintf(`{"sentiment":%q,"keywords":%s,"reason":"because"}`, sentiment, kw)
}

func promptFor(title string) interface{} {
	return mock.MatchedBy(func(prompt string) bool { return strings.Contains(prompt, title) })
}

func TestParseClassification(t *testing.T) {
	t.Run("Wrapped in prose", func(t *testing.T) {
		c, err := parseClassification("Sure! Here you go:\n" + classifierReply("Positive", " Co-op ", "", "EXAMS") + "\nHope it helps")
		require.NoError(t, err)
		assert.Equal(t, models.SentimentPositive, c.Sentiment)
		assert.Equal(t, []string{"co-op", "exams"}, c.Keywords)
		assert.Equal(t, "because", c.Reason)
	})

	t.Run("Unknown sentiment is neutral", func(t *testing.T) {
		c, err := parseClassification(classifierReply("mixed", "x"))
		require.NoError(t, err)
		assert.Equal(t, models.SentimentNeutral, c.Sentiment)
	})

	t.Run("No object", func(t *testing.T) {
		_, err := parseClassification("I cannot help with that")
		assert.Error(t, err)
	})

	t.Run("Broken JSON", func(t *testing.T) {
		_, err := parseClassification(`{"sentiment": "positive", "keywords": [}`)
		assert.Error(t, err)
	})
}

func TestClassifier_Classify(t *testing.T) {
	client := mocks.NewMockAIClient(t)
	c := NewClassifier(client, zap.NewNop())

	long := strings.Repeat("ж", 1500)
	client.On("GenerateText", mock.Anything, "scraper", "", mock.MatchedBy(func(prompt string) bool {
		return strings.HasPrefix(prompt, "Analyze this university-related post,:\n\n") &&
			strings.Contains(prompt, strings.Repeat("ж", 1000)) &&
			!strings.Contains(prompt, strings.Repeat("ж", 1001)) &&
			strings.Contains(prompt, `"sentiment": "positive" or "negative"`)
	}), mock.MatchedBy(func(p ai.GenerationParams) bool {
		return p.JSONMode && p.Temperature != nil && *p.Temperature == 0.2
	})).Return(classifierReply("negative", "Midterms"), ai.UsageInfo{}, nil).Once()

	got := c.Classify(context.Background(), long)
	assert.Equal(t, models.SentimentNegative, got.Sentiment)
	assert.Equal(t, []string{"midterms"}, got.Keywords)

	client.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", ai.UsageInfo{}, ai.ErrAIGenerationFailed).Once()
	assert.Equal(t, Neutral(), c.Classify(context.Background(), "anything"))
}

func TestScraper_Refresh(t *testing.T) {
	ctx := context.Background()

	t.Run("Aggregates keywords and writes artifacts", func(t *testing.T) {
		dir := t.TempDir()
		source := &fakeSource{
			posts: map[string][]Post{
				"uwaterloo": {
					{Title: "Got my co-op offer", URL: "https://r/1", Score: 10},
					{Title: "Goose attacked me", SelfText: "again", URL: "https://r/2", Score: 3},
					{Title: "Meh", URL: "https://r/3"},
				},
				"mcgill": {
					{Title: "Poutine after finals", URL: "https://r/4", Score: 7},
					{Title: "Library is great", URL: "https://r/5", Score: 1},
				},
			},
		}
		client := mocks.NewMockAIClient(t)
		client.On("GenerateText", mock.Anything, "scraper", "", promptFor("co-op offer"), mock.Anything).
			Return(classifierReply("positive", "Co-op", "Offer"), ai.UsageInfo{}, nil)
		client.On("GenerateText", mock.Anything, "scraper", "", promptFor("Goose attacked me again"), mock.Anything).
			Return(classifierReply("negative", "Geese"), ai.UsageInfo{}, nil)
		client.On("GenerateText", mock.Anything, "scraper", "", promptFor("Meh"), mock.Anything).
			Return("not json", ai.UsageInfo{}, nil)
		client.On("GenerateText", mock.Anything, "scraper", "", promptFor("Poutine"), mock.Anything).
			Return(classifierReply("positive", "poutine"), ai.UsageInfo{}, nil)
		client.On("GenerateText", mock.Anything, "scraper", "", promptFor("Library"), mock.Anything).
			Return(classifierReply("positive", "library", "poutine"), ai.UsageInfo{}, nil)

		store := themes.NewFileStore(dir, zap.NewNop())
		s := New(source, NewClassifier(client, zap.NewNop()), store, dir, []string{"uwaterloo", "mcgill"}, 5, zap.NewNop())

		res, err := s.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Positive)
		assert.Equal(t, 1, res.Negative)
		assert.Equal(t, "Collected 2 positive and 1 negative themes", res.Message())
		assert.Empty(t, res.Failed)

		saved := store.Load(ctx)
		assert.Equal(t, []string{"co-op", "offer"}, saved.Keywords(models.SentimentPositive, "uwaterloo"))
		assert.Equal(t, []string{"geese"}, saved.Keywords(models.SentimentNegative, "uwaterloo"))
		assert.Equal(t, []string{"poutine", "library", "poutine"}, saved.Keywords(models.SentimentPositive, "mcgill"))

		raw, err := os.ReadFile(filepath.Join(dir, PostsFileName))
		require.NoError(t, err)
		var archive models.PostArchive
		require.NoError(t, json.Unmarshal(raw, &archive))
		require.Len(t, archive["uwaterloo"][models.SentimentPositive], 1)
		post := archive["uwaterloo"][models.SentimentPositive][0]
		assert.Equal(t, "Got my co-op offer", post.Text)
		assert.Equal(t, "https://r/1", post.URL)
		assert.Equal(t, 10, post.Score)
		assert.Equal(t, "because", post.Reason)
		assert.Len(t, archive["uwaterloo"][models.SentimentNegative], 1)
		assert.Empty(t, archive["mcgill"][models.SentimentNegative])
	})

	t.Run("Failed subreddit is skipped", func(t *testing.T) {
		dir := t.TempDir()
		source := &fakeSource{
			posts: map[string][]Post{"UBC": {{Title: "Rain again"}}},
			errs:  map[string]error{"UofT": errors.New("status 503")},
		}
		client := mocks.NewMockAIClient(t)
		client.On("GenerateText", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(classifierReply("negative", "rain"), ai.UsageInfo{}, nil)

		s := New(source, NewClassifier(client, zap.NewNop()), themes.NewFileStore(dir, zap.NewNop()), dir, []string{"UofT", "UBC"}, 1, zap.NewNop())
		res, err := s.Refresh(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"UofT"}, res.Failed)
		assert.Equal(t, 0, res.Positive)
		assert.Equal(t, 1, res.Negative)
	})

	t.Run("All subreddits failed", func(t *testing.T) {
		dir := t.TempDir()
		source := &fakeSource{errs: map[string]error{"UofT": errors.New("down"), "UBC": errors.New("down")}}
		client := mocks.NewMockAIClient(t)

		s := New(source, NewClassifier(client, zap.NewNop()), themes.NewFileStore(dir, zap.NewNop()), dir, []string{"UofT", "UBC"}, 1, zap.NewNop())
		_, err := s.Refresh(ctx)
		assert.ErrorIs(t, err, models.ErrScrapeFailed)

		_, statErr := os.Stat(filepath.Join(dir, themes.FileName))
		assert.True(t, os.IsNotExist(statErr), "themes must not be overwritten")
	})

	t.Run("Defaults", func(t *testing.T) {
		s := New(&fakeSource{}, nil, nil, t.TempDir(), nil, 0, zap.NewNop())
		assert.Equal(t, DefaultSubreddits, s.subreddits)
		assert.Equal(t, 50, s.limit)
	})
}

const listingJSON = `{"data":{"children":[
 {"data":{"title":"Welcome thread","selftext":"","url":"https://x/0","score":1,"stickied":true}},
 {"data":{"title":"Exam tips","selftext":"sleep","url":"https://x/1","score":42,"stickied":false}}
]}}`

func TestRedditClient_Hot(t *testing.T) {
	t.Run("Anonymous listing", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/r/uwaterloo/hot.json", r.URL.Path)
			assert.Equal(t, "7", r.URL.Query().Get("limit"))
			assert.Equal(t, "UniStoryScraper/2.0", r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(listingJSON))
		}))
		defer srv.Close()

		c := NewRedditClient(RedditConfig{UserAgent: "UniStoryScraper/2.0", BaseURL: srv.URL}, zap.NewNop())
		posts, err := c.Hot(context.Background(), "uwaterloo", 7)
		require.NoError(t, err)
		require.Len(t, posts, 1)
		assert.Equal(t, Post{Title: "Exam tips", SelfText: "sleep", URL: "https://x/1", Score: 42}, posts[0])
	})

	t.Run("App-only OAuth", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("/api/v1/access_token", func(w http.ResponseWriter, r *http.Request) {
			id, secret, ok := r.BasicAuth()
			assert.True(t, ok)
			assert.Equal(t, "id", id)
			assert.Equal(t, "secret", secret)
			assert.Equal(t, "UniStoryScraper/2.0", r.Header.Get("User-Agent"))
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"bearer","expires_in":3600}`))
		})
		mux.HandleFunc("/r/mcgill/hot", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(listingJSON))
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		c := NewRedditClient(RedditConfig{
			ClientID:     "id",
			ClientSecret: "secret",
			UserAgent:    "UniStoryScraper/2.0",
			BaseURL:      srv.URL,
			TokenURL:     srv.URL + "/api/v1/access_token",
		}, zap.NewNop())
		posts, err := c.Hot(context.Background(), "mcgill", 3)
		require.NoError(t, err)
		assert.Len(t, posts, 1)
	})

	t.Run("Error status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "too many requests", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		c := NewRedditClient(RedditConfig{UserAgent: "test", BaseURL: srv.URL}, zap.NewNop())
		_, err := c.Hot(context.Background(), "UBC", 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 429")
	})
}
