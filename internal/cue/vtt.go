package cue

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseVTT decodes WebVTT data into a document. NOTE, STYLE, and REGION
// blocks are skipped; cue identifiers are optional and non-numeric ones are
// replaced by sequence numbers.
func ParseVTT(data []byte) (*Document, error) {
	content := normalizeInput(data)
	doc := NewTextDocument(FormatVTT, nil)
	if content == "" {
		return nil, fmt.Errorf("vtt: missing WEBVTT header")
	}

	blocks := strings.Split(content, "\n\n")
	header := strings.TrimSpace(blocks[0])
	if header != "WEBVTT" && !strings.HasPrefix(header, "WEBVTT ") && !strings.HasPrefix(header, "WEBVTT\n") && !strings.HasPrefix(header, "WEBVTT-") {
		return nil, fmt.Errorf("vtt: missing WEBVTT header")
	}
	// The header block can carry metadata lines; cues begin at the next block.
	blocks = blocks[1:]

	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		if strings.HasPrefix(block, "NOTE") || strings.HasPrefix(block, "STYLE") || strings.HasPrefix(block, "REGION") {
			continue
		}

		lines := strings.Split(block, "\n")
		timingLine := 0
		if !strings.Contains(lines[0], "-->") {
			timingLine = 1
		}
		if timingLine >= len(lines) || !strings.Contains(lines[timingLine], "-->") {
			return nil, fmt.Errorf("vtt block %d: missing timing line", len(doc.Cues)+1)
		}

		index := len(doc.Cues) + 1
		if timingLine == 1 {
			if parsed, err := strconv.Atoi(strings.TrimSpace(lines[0])); err == nil {
				index = parsed
			}
		}

		start, end, err := parseTimingLine(lines[timingLine], ".")
		if err != nil {
			return nil, fmt.Errorf("vtt block %d: %w", len(doc.Cues)+1, err)
		}

		doc.Cues = append(doc.Cues, Cue{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(lines[timingLine+1:], "\n"),
		})
	}

	return doc, nil
}

// RenderVTT serializes a document as WebVTT. In dual documents, secondary
// cues are pinned to the top of the frame with a line cue setting instead of
// the ASS override tag SRT output uses.
func RenderVTT(d *Document) []byte {
	var sb strings.Builder
	sb.WriteString("WEBVTT\n")
	for i, c := range d.Cues {
		sb.WriteString("\n")
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString("\n")
		sb.WriteString(formatTimestamp(c.Start, "."))
		sb.WriteString(" --> ")
		sb.WriteString(formatTimestamp(c.End, "."))
		if d.Dual && c.Channel == ChannelSecondary {
			sb.WriteString(" line:0")
		}
		sb.WriteString("\n")
		sb.WriteString(strings.TrimPrefix(c.Text, secondaryPrefix))
		sb.WriteString("\n")
	}
	return []byte(sb.String())
}
