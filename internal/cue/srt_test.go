package cue

import (
	"strings"
	"testing"
	"time"
)

const sampleSRT = `1
00:00:05,345 --> 00:00:48,514
TACTICAL.

2
00:01:06,282 --> 00:01:07,992
VISUAL.

3
00:06:13,330 --> 00:06:15,833
TACTICAL,
STAND BY ON TORPEDOES.
`

func TestParseSRT(t *testing.T) {
	doc, err := ParseSRT([]byte(sampleSRT))
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(doc.Cues) != 3 {
		t.Fatalf("expected 3 cues, got %d", len(doc.Cues))
	}
	if doc.Format != FormatSRT {
		t.Fatalf("unexpected format %q", doc.Format)
	}

	first := doc.Cues[0]
	if first.Index != 1 {
		t.Errorf("cue 0 index = %d, want 1", first.Index)
	}
	want := 5*time.Second + 345*time.Millisecond
	if first.Start != want {
		t.Errorf("cue 0 start = %s, want %s", first.Start, want)
	}
	if first.Text != "TACTICAL." {
		t.Errorf("cue 0 text = %q", first.Text)
	}

	if doc.Cues[2].Text != "TACTICAL,\nSTAND BY ON TORPEDOES." {
		t.Errorf("cue 2 text = %q", doc.Cues[2].Text)
	}
}

func TestParseSRTToleratesCRLFAndBOM(t *testing.T) {
	content := "\uFEFF1\r\n00:00:01,000 --> 00:00:02,000\r\nHello\r\n"
	doc, err := ParseSRT([]byte(content))
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(doc.Cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(doc.Cues))
	}
	if doc.Cues[0].Text != "Hello" {
		t.Errorf("text = %q", doc.Cues[0].Text)
	}
}

func TestParseSRTPeriodSeparator(t *testing.T) {
	content := "1\n00:00:01.500 --> 00:00:02.750\nHi\n"
	doc, err := ParseSRT([]byte(content))
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if doc.Cues[0].Start != 1500*time.Millisecond {
		t.Errorf("start = %s", doc.Cues[0].Start)
	}
	if doc.Cues[0].End != 2750*time.Millisecond {
		t.Errorf("end = %s", doc.Cues[0].End)
	}
}

func TestParseSRTEmpty(t *testing.T) {
	doc, err := ParseSRT(nil)
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(doc.Cues) != 0 {
		t.Fatalf("expected empty document, got %d cues", len(doc.Cues))
	}
}

func TestParseSRTRejectsMalformedBlocks(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"garbage index", "one\n00:00:01,000 --> 00:00:02,000\nHi\n"},
		{"missing arrow", "1\n00:00:01,000 00:00:02,000\nHi\n"},
		{"bad timestamp", "1\n00:xx:01,000 --> 00:00:02,000\nHi\n"},
		{"lone line", "stray\n"},
	}
	for _, tc := range cases {
		if _, err := ParseSRT([]byte(tc.content)); err == nil {
			t.Errorf("%s: expected parse error", tc.name)
		}
	}
}

func TestSRTRoundTrip(t *testing.T) {
	doc, err := ParseSRT([]byte(sampleSRT))
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	again, err := ParseSRT(RenderSRT(doc))
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if len(again.Cues) != len(doc.Cues) {
		t.Fatalf("cue count changed: %d != %d", len(again.Cues), len(doc.Cues))
	}
	for i := range doc.Cues {
		if again.Cues[i].Start != doc.Cues[i].Start || again.Cues[i].End != doc.Cues[i].End {
			t.Errorf("cue %d timing changed", i)
		}
		if again.Cues[i].Text != doc.Cues[i].Text {
			t.Errorf("cue %d text changed: %q != %q", i, again.Cues[i].Text, doc.Cues[i].Text)
		}
	}
}

func TestRenderSRTRenumbers(t *testing.T) {
	doc := NewTextDocument(FormatSRT, []Cue{
		{Index: 7, Start: time.Second, End: 2 * time.Second, Text: "a"},
		{Index: 9, Start: 3 * time.Second, End: 4 * time.Second, Text: "b"},
	})
	out := string(RenderSRT(doc))
	if !strings.HasPrefix(out, "1\n") {
		t.Fatalf("expected renumbered first cue, got %q", out)
	}
	if !strings.Contains(out, "\n\n2\n") {
		t.Fatalf("expected renumbered second cue, got %q", out)
	}
}

func TestRenderSRTDualPositionsSecondary(t *testing.T) {
	doc := &Document{
		Format: FormatSRT,
		Kind:   KindText,
		Dual:   true,
		Cues: []Cue{
			{Start: time.Second, End: 2 * time.Second, Text: "bottom", Channel: ChannelPrimary},
			{Start: time.Second + 500*time.Millisecond, End: 2 * time.Second, Text: "top", Channel: ChannelSecondary},
		},
	}
	out := string(RenderSRT(doc))
	if !strings.Contains(out, `{\an8}top`) {
		t.Fatalf("expected positioning prefix on secondary cue, got %q", out)
	}
	if strings.Contains(out, `{\an8}bottom`) {
		t.Fatalf("primary cue must not gain a prefix, got %q", out)
	}
}

func TestRenderSRTDualKeepsExistingOverride(t *testing.T) {
	doc := &Document{
		Format: FormatSRT,
		Kind:   KindText,
		Dual:   true,
		Cues: []Cue{
			{Start: time.Second, End: 2 * time.Second, Text: `{\an5}middle`, Channel: ChannelSecondary},
		},
	}
	out := string(RenderSRT(doc))
	if strings.Contains(out, `{\an8}{\an5}`) {
		t.Fatalf("must not stack override tags, got %q", out)
	}
}

func TestParseTimestampShortFraction(t *testing.T) {
	got, err := parseTimestamp("00:00:01,5", ",")
	if err != nil {
		t.Fatalf("parseTimestamp: %v", err)
	}
	if got != 1500*time.Millisecond {
		t.Errorf("got %s, want 1.5s", got)
	}
}

func TestFormatTimestampLongRuntime(t *testing.T) {
	d := 27*time.Hour + 4*time.Minute + 5*time.Second + 32*time.Millisecond
	if got := formatSRTTimestamp(d); got != "27:04:05,032" {
		t.Errorf("got %q", got)
	}
}
