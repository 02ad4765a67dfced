package llm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"clipforge/internal/config"
	"clipforge/internal/services"
)

func testClient(serverURL string) *Client {
	return NewClient(config.LLM{
		APIKey:  "test-key",
		BaseURL: serverURL,
		Model:   "test-model",
	})
}

func TestCompleteJSONReturnsContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("missing auth header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":"{\"ok\":true}"}}]}`))
	}))
	defer server.Close()

	got, err := testClient(server.URL).CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON: %v", err)
	}
	if got != `{"ok":true}` {
		t.Fatalf("unexpected content: %q", got)
	}
}

func TestCompleteJSONRequiresPrompts(t *testing.T) {
	client := testClient("http://localhost:0")
	if _, err := client.CompleteJSON(context.Background(), "", "user"); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty system prompt, got %v", err)
	}
	if _, err := client.CompleteJSON(context.Background(), "system", ""); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for empty user prompt, got %v", err)
	}
}

func TestCompleteJSONClassifiesServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := testClient(server.URL).CompleteJSON(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected error")
	}
	if !services.IsTransient(err) {
		t.Fatalf("HTTP 503 must classify as transient, got %v", err)
	}
}

func TestCompleteJSONTreatsEmptyContentAsTransient(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"content":""},"finish_reason":"length"}]}`))
	}))
	defer server.Close()

	_, err := testClient(server.URL).CompleteJSON(context.Background(), "system", "user")
	if !services.IsTransient(err) {
		t.Fatalf("empty completion must classify as transient, got %v", err)
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Script string `json:"script"`
	}

	cases := []struct {
		name    string
		content string
		want    string
		wantErr bool
	}{
		{name: "plain", content: `{"script":"hello"}`, want: "hello"},
		{name: "fenced", content: "```json\n{\"script\":\"fenced\"}\n```", want: "fenced"},
		{name: "prose wrapped", content: `Here you go: {"script":"wrapped"} enjoy!`, want: "wrapped"},
		{name: "empty", content: "", wantErr: true},
		{name: "not json", content: "I cannot help with that.", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got payload
			err := DecodeJSON(tc.content, &got)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeJSON: %v", err)
			}
			if got.Script != tc.want {
				t.Fatalf("got %q, want %q", got.Script, tc.want)
			}
		})
	}
}
