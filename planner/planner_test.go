package planner

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/siddarth24/joblo/llm"
)

var testBlacklist = []string{
	"cookie", "settings", "privacy", "consent", "dismiss",
	"view job", "viewjob", "get started", "reviews",
}

func TestParseCandidates_Bullets(t *testing.T) {
	response := "* Read More\n• See More —\n- Expand Details ->"
	got := ParseCandidates(response)
	want := []string{"Read More", "See More", "Expand Details"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseCandidates = %v, want %v", got, want)
	}
}

func TestParseCandidates_Sentinel(t *testing.T) {
	if got := ParseCandidates("No button found"); got != nil {
		t.Errorf("sentinel response should yield no candidates, got %v", got)
	}
}

func TestParseCandidates_VocabFallback(t *testing.T) {
	response := "The page seems to contain a control.\nRead More\nThat is all."
	got := ParseCandidates(response)
	want := []string{"Read More"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ParseCandidates = %v, want %v", got, want)
	}
}

func TestParseCandidates_NoMatch(t *testing.T) {
	if got := ParseCandidates("nothing useful in this response"); got != nil {
		t.Errorf("expected no candidates, got %v", got)
	}
}

func TestFilterBlacklist(t *testing.T) {
	tests := []struct {
		name       string
		candidates []string
		want       []string
	}{
		{
			name:       "blacklisted term dropped",
			candidates: []string{"Read More", "See More", "Get Started"},
			want:       []string{"Read More", "See More"},
		},
		{
			name:       "case mix still dropped",
			candidates: []string{"Accept COOKIES", "cOoKiE Preferences", "Show More"},
			want:       []string{"Show More"},
		},
		{
			name:       "substring match drops",
			candidates: []string{"Manage privacy options", "View Full Description"},
			want:       []string{"View Full Description"},
		},
		{
			name:       "all blacklisted",
			candidates: []string{"Dismiss", "Settings"},
			want:       nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterBlacklist(tt.candidates, testBlacklist)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("FilterBlacklist = %v, want %v", got, tt.want)
			}
		})
	}
}

// fakeLLM returns an httptest server that answers every chat completion
// with the given content.
func fakeLLM(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"content": content}},
			},
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestProposeLabel_FirstSurvivorWins(t *testing.T) {
	srv := fakeLLM(t, "- Read More\n- See More\n- Get Started")
	defer srv.Close()

	p := New(llm.NewClient(srv.Client()), testBlacklist)
	label, ok := p.ProposeLabel(context.Background(), "some page text", llm.Params{
		APIKey:  "test-key",
		Model:   "test-model",
		BaseURL: srv.URL,
	})
	if !ok {
		t.Fatal("expected a label")
	}
	if label != "Read More" {
		t.Errorf("label = %q, want %q", label, "Read More")
	}
}

func TestProposeLabel_SentinelResponse(t *testing.T) {
	srv := fakeLLM(t, "no button found")
	defer srv.Close()

	p := New(llm.NewClient(srv.Client()), testBlacklist)
	if _, ok := p.ProposeLabel(context.Background(), "text", llm.Params{
		APIKey: "k", Model: "m", BaseURL: srv.URL,
	}); ok {
		t.Error("sentinel response should not produce a label")
	}
}

func TestProposeLabel_LLMFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"quota exceeded"}}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	p := New(llm.NewClient(srv.Client()), testBlacklist)
	if _, ok := p.ProposeLabel(context.Background(), "text", llm.Params{
		APIKey: "k", Model: "m", BaseURL: srv.URL,
	}); ok {
		t.Error("LLM failure should be treated as no candidate")
	}
}
