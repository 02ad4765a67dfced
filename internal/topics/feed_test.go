package topics

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

const rssSample = `<?xml version="1.0"?>
<rss version="2.0">
  <channel>
    <title>Example News</title>
    <item>
      <title>First headline</title>
      <link>https://example.com/1</link>
      <description>Lead story of the day</description>
    </item>
    <item>
      <title>Second headline</title>
      <link>https://example.com/2</link>
    </item>
  </channel>
</rss>`

const atomSample = `<?xml version="1.0"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Example Atom</title>
  <entry>
    <title>Atom headline</title>
    <link href="https://example.com/atom/1"/>
    <summary>Atom summary</summary>
  </entry>
</feed>`

func TestParseFeedItemsRSS(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rssSample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	items := parseFeedItems(doc)
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}
	if items[0].title != "First headline" {
		t.Fatalf("unexpected title: %q", items[0].title)
	}
	if items[0].summary != "Lead story of the day" {
		t.Fatalf("unexpected summary: %q", items[0].summary)
	}
	if items[0].link != "https://example.com/1" {
		t.Fatalf("unexpected link: %q", items[0].link)
	}
}

func TestParseFeedItemsAtom(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(atomSample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	items := parseFeedItems(doc)
	if len(items) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(items))
	}
	if items[0].title != "Atom headline" {
		t.Fatalf("unexpected title: %q", items[0].title)
	}
	if items[0].link != "https://example.com/atom/1" {
		t.Fatalf("unexpected link: %q", items[0].link)
	}
}

func TestPositionScore(t *testing.T) {
	if got := positionScore(0, 4); got != 1.0 {
		t.Fatalf("first item should score 1.0, got %v", got)
	}
	if got := positionScore(3, 4); got != 0.25 {
		t.Fatalf("last item should score 0.25, got %v", got)
	}
	if got := positionScore(0, 1); got != 1.0 {
		t.Fatalf("single-item feed should score 1.0, got %v", got)
	}
}

func TestParseTraffic(t *testing.T) {
	cases := map[string]float64{
		"2,000,000+": 2000000,
		"500+":       500,
		"":           1,
		"n/a":        1,
	}
	for raw, want := range cases {
		if got := parseTraffic(raw); got != want {
			t.Fatalf("parseTraffic(%q) = %v, want %v", raw, got, want)
		}
	}
}
