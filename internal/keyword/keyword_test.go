package keyword

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestMatch_Substring(t *testing.T) {
	keywords := []string{"torrent", "dmca", "free movie"}

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"exact word", "torrent", []string{"torrent"}},
		{"in sentence", "new torrent dropped", []string{"torrent"}},
		{"case insensitive", "TORRENT here", []string{"torrent"}},
		{"mixed case", "ToRrEnT", []string{"torrent"}},
		{"substring within word", "torrents available", []string{"torrent"}},
		{"phrase contiguous", "get this free movie now", []string{"free movie"}},
		{"clean message", "hello world", nil},
		{"empty text", "", nil},
		{"multiple hits ordered", "dmca takedown for torrent", []string{"torrent", "dmca"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.input, keywords)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Match(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMatch_PhraseWithGaps(t *testing.T) {
	keywords := []string{"download movie", "watch free", "illegal download"}

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"contiguous", "download movie here", []string{"download movie"}},
		{"gap between words", "Download the latest movie for free here", []string{"download movie"}},
		{"punctuation between words", "download, then movie!", []string{"download movie"}},
		{"wrong order no match", "this movie is a download", nil},
		{"inflected words no match", "downloads of movies", nil},
		{"watch free with gap", "watch everything for free", []string{"watch free"}},
		{"clean", "hello how are you today", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(tt.input, keywords)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Match(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestMatch_DuplicatesSuppressed(t *testing.T) {
	keywords := []string{"torrent", "Torrent", "torrent "}
	got := Match("torrent torrent torrent", keywords)
	if len(got) != 1 {
		t.Fatalf("Match returned %v, want a single entry", got)
	}
}

func TestMatch_EmptyKeywordSkipped(t *testing.T) {
	keywords := []string{"", "   ", "torrent"}
	got := Match("a torrent", keywords)
	if !reflect.DeepEqual(got, []string{"torrent"}) {
		t.Errorf("Match = %v, want [torrent]", got)
	}
}

func TestEffectiveSet(t *testing.T) {
	custom := []string{"camrip", "telesync"}
	if got := EffectiveSet(custom); !reflect.DeepEqual(got, custom) {
		t.Errorf("EffectiveSet(custom) = %v, want %v", got, custom)
	}

	// An empty operator set reverts to defaults; it never disables filtering.
	if got := EffectiveSet(nil); !reflect.DeepEqual(got, DefaultKeywords) {
		t.Errorf("EffectiveSet(nil) = %v, want defaults", got)
	}
	if got := EffectiveSet([]string{}); !reflect.DeepEqual(got, DefaultKeywords) {
		t.Errorf("EffectiveSet([]) = %v, want defaults", got)
	}
}

func TestMatch_DefaultList(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"grab the pirated copy", true},
		{"fresh dvdrip out now", true},
		{"Download the latest movie for free here", true},
		{"hello, how are you today?", false},
		{"let's discuss the film's plot", false},
	}

	for _, tt := range tests {
		got := Match(tt.input, EffectiveSet(nil))
		if (len(got) > 0) != tt.want {
			t.Errorf("Match(%q, defaults) = %v, want match=%v", tt.input, got, tt.want)
		}
	}
}

// fakeProvider is an in-memory Provider for cache tests.
type fakeProvider struct {
	mu    sync.Mutex
	texts []string
	err   error
	calls int
}

func (f *fakeProvider) ActiveTexts(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]string, len(f.texts))
	copy(out, f.texts)
	return out, nil
}

func (f *fakeProvider) set(texts []string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = texts
	f.err = err
}

func TestCache_RefreshAndSnapshot(t *testing.T) {
	provider := &fakeProvider{texts: []string{"camrip", "screener"}}
	cache := NewCache(provider)

	if got := cache.Snapshot(); len(got) != 0 {
		t.Fatalf("fresh cache snapshot = %v, want empty", got)
	}

	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if got := cache.Snapshot(); !reflect.DeepEqual(got, []string{"camrip", "screener"}) {
		t.Errorf("Snapshot = %v, want [camrip screener]", got)
	}
}

func TestCache_FailedRefreshKeepsPrevious(t *testing.T) {
	provider := &fakeProvider{texts: []string{"camrip"}}
	cache := NewCache(provider)

	if err := cache.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh: %v", err)
	}

	provider.set(nil, errors.New("db down"))
	if err := cache.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh with failing provider returned nil error")
	}
	if got := cache.Snapshot(); !reflect.DeepEqual(got, []string{"camrip"}) {
		t.Errorf("Snapshot after failed refresh = %v, want previous [camrip]", got)
	}
}

func TestCache_RunRefreshesPeriodically(t *testing.T) {
	provider := &fakeProvider{texts: []string{"camrip"}}
	cache := NewCache(provider)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		cache.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for len(cache.Snapshot()) == 0 {
		select {
		case <-deadline:
			t.Fatal("cache never refreshed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
