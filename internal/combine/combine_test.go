package combine_test

import (
	"errors"
	"testing"
	"time"

	"subbub/internal/combine"
	"subbub/internal/cue"
)

func doc(cues ...cue.Cue) *cue.Document {
	return cue.NewTextDocument(cue.FormatSRT, cues)
}

func TestDocumentsInterleavesByStartTime(t *testing.T) {
	primary := doc(
		cue.Cue{Index: 1, Start: 1 * time.Second, End: 2 * time.Second, Text: "p1"},
		cue.Cue{Index: 2, Start: 5 * time.Second, End: 6 * time.Second, Text: "p2"},
	)
	secondary := doc(
		cue.Cue{Index: 1, Start: 3 * time.Second, End: 4 * time.Second, Text: "s1"},
		cue.Cue{Index: 2, Start: 7 * time.Second, End: 8 * time.Second, Text: "s2"},
	)

	dual, err := combine.Documents(primary, secondary)
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if !dual.Dual {
		t.Fatal("expected dual document")
	}
	if len(dual.Cues) != 4 {
		t.Fatalf("expected 4 cues, got %d", len(dual.Cues))
	}

	wantText := []string{"p1", "s1", "p2", "s2"}
	wantChannel := []cue.Channel{cue.ChannelPrimary, cue.ChannelSecondary, cue.ChannelPrimary, cue.ChannelSecondary}
	for i, c := range dual.Cues {
		if c.Text != wantText[i] {
			t.Errorf("cue %d text = %q, want %q", i, c.Text, wantText[i])
		}
		if c.Channel != wantChannel[i] {
			t.Errorf("cue %d channel = %q, want %q", i, c.Channel, wantChannel[i])
		}
		if c.Index != i+1 {
			t.Errorf("cue %d index = %d, want %d", i, c.Index, i+1)
		}
	}
}

func TestDocumentsPrimaryWinsTies(t *testing.T) {
	primary := doc(cue.Cue{Index: 1, Start: time.Second, End: 2 * time.Second, Text: "p"})
	secondary := doc(cue.Cue{Index: 1, Start: time.Second, End: 3 * time.Second, Text: "s"})

	dual, err := combine.Documents(primary, secondary)
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if dual.Cues[0].Channel != cue.ChannelPrimary {
		t.Fatalf("expected primary first on tie, got %q", dual.Cues[0].Channel)
	}
}

func TestDocumentsPreservesTimingAndText(t *testing.T) {
	primary := doc(cue.Cue{Index: 1, Start: 1500 * time.Millisecond, End: 2750 * time.Millisecond, Text: "exact\nlines"})
	secondary := doc(cue.Cue{Index: 1, Start: 9 * time.Second, End: 10 * time.Second, Text: "other"})

	dual, err := combine.Documents(primary, secondary)
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if dual.Cues[0].Start != 1500*time.Millisecond || dual.Cues[0].End != 2750*time.Millisecond {
		t.Fatalf("timing changed: %+v", dual.Cues[0])
	}
	if dual.Cues[0].Text != "exact\nlines" {
		t.Fatalf("text changed: %q", dual.Cues[0].Text)
	}
}

func TestDocumentsRejectsDualInput(t *testing.T) {
	plain := doc(cue.Cue{Index: 1, Start: time.Second, End: 2 * time.Second, Text: "x"})
	already, err := combine.Documents(plain, doc())
	if err != nil {
		t.Fatalf("setup combine: %v", err)
	}

	if _, err := combine.Documents(already, plain); !errors.Is(err, cue.ErrChannelConflict) {
		t.Fatalf("expected channel conflict, got %v", err)
	}
	if _, err := combine.Documents(plain, already); !errors.Is(err, cue.ErrChannelConflict) {
		t.Fatalf("expected channel conflict, got %v", err)
	}
}

func TestDocumentsRejectsImageInput(t *testing.T) {
	plain := doc(cue.Cue{Index: 1, Start: time.Second, End: 2 * time.Second, Text: "x"})
	image := cue.NewImageDocument("/tmp/track.mks")
	if _, err := combine.Documents(plain, image); !errors.Is(err, cue.ErrImageDocument) {
		t.Fatalf("expected image error, got %v", err)
	}
}

func TestDocumentsEmptySides(t *testing.T) {
	primary := doc(cue.Cue{Index: 1, Start: time.Second, End: 2 * time.Second, Text: "only"})
	dual, err := combine.Documents(primary, doc())
	if err != nil {
		t.Fatalf("Documents: %v", err)
	}
	if len(dual.Cues) != 1 {
		t.Fatalf("expected 1 cue, got %d", len(dual.Cues))
	}
	if dual.Cues[0].Channel != cue.ChannelPrimary {
		t.Fatalf("unexpected channel %q", dual.Cues[0].Channel)
	}
}
