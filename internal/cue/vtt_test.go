package cue

import (
	"strings"
	"testing"
	"time"
)

const sampleVTT = `WEBVTT

1
00:00:01.000 --> 00:00:02.500
First line

NOTE internal comment
skipped entirely

00:00:03.000 --> 00:00:04.000 align:start
Second line
continues here
`

func TestParseVTT(t *testing.T) {
	doc, err := ParseVTT([]byte(sampleVTT))
	if err != nil {
		t.Fatalf("ParseVTT: %v", err)
	}
	if doc.Format != FormatVTT {
		t.Fatalf("unexpected format %q", doc.Format)
	}
	if len(doc.Cues) != 2 {
		t.Fatalf("expected 2 cues, got %d", len(doc.Cues))
	}
	if doc.Cues[0].Start != time.Second || doc.Cues[0].End != 2500*time.Millisecond {
		t.Errorf("cue 0 timing = %s --> %s", doc.Cues[0].Start, doc.Cues[0].End)
	}
	if doc.Cues[1].Index != 2 {
		t.Errorf("cue without identifier should get sequence index, got %d", doc.Cues[1].Index)
	}
	if doc.Cues[1].End != 4*time.Second {
		t.Errorf("cue settings must not leak into end timestamp, got %s", doc.Cues[1].End)
	}
	if doc.Cues[1].Text != "Second line\ncontinues here" {
		t.Errorf("cue 1 text = %q", doc.Cues[1].Text)
	}
}

func TestParseVTTShortClockForm(t *testing.T) {
	content := "WEBVTT\n\n00:01.000 --> 00:02.000\nhi\n"
	doc, err := ParseVTT([]byte(content))
	if err != nil {
		t.Fatalf("ParseVTT: %v", err)
	}
	if doc.Cues[0].Start != time.Second {
		t.Errorf("start = %s, want 1s", doc.Cues[0].Start)
	}
}

func TestParseVTTRequiresHeader(t *testing.T) {
	content := "1\n00:00:01.000 --> 00:00:02.000\nhi\n"
	if _, err := ParseVTT([]byte(content)); err == nil {
		t.Fatal("expected header error")
	}
}

func TestVTTRoundTrip(t *testing.T) {
	doc, err := ParseVTT([]byte(sampleVTT))
	if err != nil {
		t.Fatalf("ParseVTT: %v", err)
	}
	again, err := ParseVTT(RenderVTT(doc))
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
			t.Errorf("cue %d text changed", i)
		}
	}
}

func TestRenderVTTDualUsesLineSetting(t *testing.T) {
	doc := &Document{
		Format: FormatVTT,
		Kind:   KindText,
		Dual:   true,
		Cues: []Cue{
			{Start: time.Second, End: 2 * time.Second, Text: "bottom", Channel: ChannelPrimary},
			{Start: time.Second, End: 2 * time.Second, Text: "top", Channel: ChannelSecondary},
		},
	}
	out := string(RenderVTT(doc))
	if !strings.Contains(out, "--> 00:00:02.000 line:0\ntop") {
		t.Fatalf("expected line setting on secondary cue, got %q", out)
	}
	if strings.Contains(out, `{\an8}`) {
		t.Fatalf("vtt output must not carry ass override tags, got %q", out)
	}
}
