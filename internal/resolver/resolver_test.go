package resolver

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/fakuz/Streamtom3u/internal/source"
)

const testFallbackURL = "https://example.com/fallback/fallback.m3u8"

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	return log
}

// fakeStrategy is a scripted strategy for chain tests.
type fakeStrategy struct {
	name   string
	stream *Stream
	err    error
	calls  int
}

func (f *fakeStrategy) Name() string {
	return f.name
}

func (f *fakeStrategy) Resolve(ctx context.Context, entry source.Entry, attempt Attempt) (*Stream, error) {
	f.calls++

	if f.err != nil {
		return nil, f.err
	}

	return f.stream, nil
}

func TestChain_FirstStrategyWins(t *testing.T) {
	first := &fakeStrategy{name: "first", stream: &Stream{MediaURL: "https://cdn.example.com/live.m3u8", Title: "Extracted Title"}}
	second := &fakeStrategy{name: "second", stream: &Stream{MediaURL: "https://other.example.com/live.m3u8"}}

	chain := NewChain(testLogger(), Options{
		Strategies:  []Strategy{first, second},
		FallbackURL: testFallbackURL,
	})

	stream := chain.Resolve(context.Background(), source.Entry{URL: "https://example.com/watch"})

	require.Equal(t, "https://cdn.example.com/live.m3u8", stream.MediaURL)
	require.Equal(t, "Extracted Title", stream.Title)
	require.False(t, stream.Fallback)
	require.Equal(t, 1, first.calls)
	require.Zero(t, second.calls)
}

func TestChain_FailureTriesNextStrategy(t *testing.T) {
	failing := &fakeStrategy{name: "failing", err: errors.New("boom")}
	working := &fakeStrategy{name: "working", stream: &Stream{MediaURL: "https://cdn.example.com/live.m3u8"}}

	chain := NewChain(testLogger(), Options{
		Strategies:  []Strategy{failing, working},
		FallbackURL: testFallbackURL,
	})

	stream := chain.Resolve(context.Background(), source.Entry{URL: "https://example.com/watch"})

	require.Equal(t, "https://cdn.example.com/live.m3u8", stream.MediaURL)
	require.Equal(t, 1, failing.calls)
	require.Equal(t, 1, working.calls)
}

func TestChain_NotApplicableSkipped(t *testing.T) {
	skipped := &fakeStrategy{name: "skipped", err: ErrNotApplicable}
	working := &fakeStrategy{name: "working", stream: &Stream{MediaURL: "https://cdn.example.com/live.m3u8"}}

	chain := NewChain(testLogger(), Options{
		Strategies:  []Strategy{skipped, working},
		FallbackURL: testFallbackURL,
	})

	stream := chain.Resolve(context.Background(), source.Entry{URL: "rtmp://example.com/stream"})

	require.Equal(t, "https://cdn.example.com/live.m3u8", stream.MediaURL)
}

func TestChain_TotalFailureUsesFallback(t *testing.T) {
	failing := &fakeStrategy{name: "failing", err: errors.New("boom")}

	chain := NewChain(testLogger(), Options{
		Strategies:  []Strategy{failing},
		FallbackURL: testFallbackURL,
		Attempts:    3,
	})

	stream := chain.Resolve(context.Background(), source.Entry{URL: "https://example.com/watch", Name: "My Channel"})

	require.Equal(t, testFallbackURL, stream.MediaURL)
	require.NotEmpty(t, stream.MediaURL)
	require.True(t, stream.Fallback)
	require.Equal(t, "My Channel", stream.Title)
	require.Equal(t, 3, failing.calls)
}

func TestChain_FallbackTitleDefaultsToStream(t *testing.T) {
	chain := NewChain(testLogger(), Options{
		Strategies:  []Strategy{&fakeStrategy{name: "failing", err: errors.New("boom")}},
		FallbackURL: testFallbackURL,
		Attempts:    1,
	})

	stream := chain.Resolve(context.Background(), source.Entry{URL: "https://example.com/watch"})

	require.Equal(t, "Stream", stream.Title)
}

func TestChain_SourceNameOverridesExtractedTitle(t *testing.T) {
	strategy := &fakeStrategy{name: "ok", stream: &Stream{MediaURL: "https://cdn.example.com/live.m3u8", Title: "Extracted"}}

	chain := NewChain(testLogger(), Options{
		Strategies:  []Strategy{strategy},
		FallbackURL: testFallbackURL,
	})

	stream := chain.Resolve(context.Background(), source.Entry{URL: "https://example.com/watch", Name: "Configured Name"})

	require.Equal(t, "Configured Name", stream.Title)
}

func TestChain_EmptyMediaURLTreatedAsFailure(t *testing.T) {
	empty := &fakeStrategy{name: "empty", stream: &Stream{MediaURL: ""}}
	working := &fakeStrategy{name: "working", stream: &Stream{MediaURL: "https://cdn.example.com/live.m3u8"}}

	chain := NewChain(testLogger(), Options{
		Strategies:  []Strategy{empty, working},
		FallbackURL: testFallbackURL,
	})

	stream := chain.Resolve(context.Background(), source.Entry{URL: "https://example.com/watch"})

	require.Equal(t, "https://cdn.example.com/live.m3u8", stream.MediaURL)
}

func TestChain_PerStrategyTimeout(t *testing.T) {
	slow := &slowStrategy{}
	working := &fakeStrategy{name: "working", stream: &Stream{MediaURL: "https://cdn.example.com/live.m3u8"}}

	chain := NewChain(testLogger(), Options{
		Strategies:  []Strategy{slow, working},
		FallbackURL: testFallbackURL,
		Attempts:    1,
		Timeout:     20 * time.Millisecond,
	})

	start := time.Now()
	stream := chain.Resolve(context.Background(), source.Entry{URL: "https://example.com/watch"})

	require.Less(t, time.Since(start), 2*time.Second)
	require.Equal(t, "https://cdn.example.com/live.m3u8", stream.MediaURL)
}

// slowStrategy blocks until its context is cancelled.
type slowStrategy struct{}

func (s *slowStrategy) Name() string {
	return "slow"
}

func (s *slowStrategy) Resolve(ctx context.Context, entry source.Entry, attempt Attempt) (*Stream, error) {
	<-ctx.Done()

	return nil, ctx.Err()
}

func TestParseYTDLPOutput(t *testing.T) {
	tests := []struct {
		name     string
		output   string
		expected *Stream
		wantErr  bool
	}{
		{
			name:   "full output",
			output: "Live Show\nhttps://img.example.com/thumb.jpg\nhttps://cdn.example.com/live.m3u8\n",
			expected: &Stream{
				Title:        "Live Show",
				ThumbnailURL: "https://img.example.com/thumb.jpg",
				MediaURL:     "https://cdn.example.com/live.m3u8",
			},
		},
		{
			name:   "NA thumbnail",
			output: "Live Show\nNA\nhttps://cdn.example.com/live.m3u8\n",
			expected: &Stream{
				Title:    "Live Show",
				MediaURL: "https://cdn.example.com/live.m3u8",
			},
		},
		{
			name:   "multiple media URLs keeps first",
			output: "Show\nNA\nhttps://cdn.example.com/video.m3u8\nhttps://cdn.example.com/audio.m3u8\n",
			expected: &Stream{
				Title:    "Show",
				MediaURL: "https://cdn.example.com/video.m3u8",
			},
		},
		{
			name:    "too few lines",
			output:  "Just A Title\n",
			wantErr: true,
		},
		{
			name:    "empty output",
			output:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stream, err := parseYTDLPOutput(tt.output)

			if tt.wantErr {
				require.Error(t, err)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tt.expected, stream)
		})
	}
}

func TestYTDLP_FormatSelector(t *testing.T) {
	y := NewYTDLP(testLogger(), "", 1080, "")
	require.Equal(t, "bestvideo[height<=1080]+bestaudio/best", y.FormatSelector())

	y = NewYTDLP(testLogger(), "", 720, "")
	require.Equal(t, "bestvideo[height<=720]+bestaudio/best", y.FormatSelector())
}
