package imagegen

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"clipforge/internal/config"
	"clipforge/internal/services"
)

func TestGenerateDecodesInlineImage(t *testing.T) {
	pngBytes := []byte{0x89, 'P', 'N', 'G'}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "img-key" {
			t.Errorf("missing api key header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[
			{"text":"here is your image"},
			{"inlineData":{"data":"` + base64.StdEncoding.EncodeToString(pngBytes) + `"}}
		]}}]}`))
	}))
	defer server.Close()

	client := NewClient(config.ImageGen{APIKey: "img-key", BaseURL: server.URL, Model: "test-model"})
	got, err := client.Generate(context.Background(), "a rocket on the pad")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if string(got) != string(pngBytes) {
		t.Fatalf("unexpected image bytes: %v", got)
	}
}

func TestGenerateFailsWithoutImagePart(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"sorry, text only"}]}}]}`))
	}))
	defer server.Close()

	client := NewClient(config.ImageGen{APIKey: "img-key", BaseURL: server.URL})
	_, err := client.Generate(context.Background(), "prompt")
	if !services.IsTransient(err) {
		t.Fatalf("missing image must classify transient, got %v", err)
	}
}

func TestGenerateRequiresKeyAndPrompt(t *testing.T) {
	client := NewClient(config.ImageGen{BaseURL: "http://localhost:0"})
	if _, err := client.Generate(context.Background(), "prompt"); err == nil {
		t.Fatal("expected error without api key")
	}

	client = NewClient(config.ImageGen{APIKey: "k", BaseURL: "http://localhost:0"})
	if _, err := client.Generate(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty prompt")
	}
}
