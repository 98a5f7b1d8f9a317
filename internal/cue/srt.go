package cue

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// secondaryPrefix positions a cue at the top of the screen so dual-subtitle
// tracks never stack on top of each other. Players honor the ASS override tag
// inside SRT text.
const secondaryPrefix = `{\an8}`

// ParseSRT decodes SubRip data into a document. Block structure must be
// intact; a block with an unreadable index or timing line is a parse error,
// not a skip.
func ParseSRT(data []byte) (*Document, error) {
	content := normalizeInput(data)
	doc := NewTextDocument(FormatSRT, nil)
	if content == "" {
		return doc, nil
	}

	blocks := strings.Split(content, "\n\n")
	for _, block := range blocks {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}

		lines := strings.Split(block, "\n")
		if len(lines) < 2 {
			return nil, fmt.Errorf("srt block %d: missing timing line", len(doc.Cues)+1)
		}

		index, err := strconv.Atoi(strings.TrimSpace(lines[0]))
		if err != nil {
			return nil, fmt.Errorf("srt block %d: invalid index %q", len(doc.Cues)+1, lines[0])
		}

		start, end, err := parseTimingLine(lines[1], ",")
		if err != nil {
			return nil, fmt.Errorf("srt block %d: %w", len(doc.Cues)+1, err)
		}

		doc.Cues = append(doc.Cues, Cue{
			Index: index,
			Start: start,
			End:   end,
			Text:  strings.Join(lines[2:], "\n"),
		})
	}

	return doc, nil
}

// RenderSRT serializes a document as SubRip text. Cues are renumbered in
// document order. In dual documents, secondary-channel cues gain a top-of-
// screen positioning prefix unless the text already carries one.
func RenderSRT(d *Document) []byte {
	var sb strings.Builder
	for i, c := range d.Cues {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(strconv.Itoa(i + 1))
		sb.WriteString("\n")
		sb.WriteString(formatSRTTimestamp(c.Start))
		sb.WriteString(" --> ")
		sb.WriteString(formatSRTTimestamp(c.End))
		sb.WriteString("\n")
		sb.WriteString(renderText(d, c))
		sb.WriteString("\n")
	}
	return []byte(sb.String())
}

func renderText(d *Document, c Cue) string {
	if d.Dual && c.Channel == ChannelSecondary && !strings.HasPrefix(c.Text, `{\an`) {
		return secondaryPrefix + c.Text
	}
	return c.Text
}

// normalizeInput strips a UTF-8 BOM and canonicalizes line endings.
func normalizeInput(data []byte) string {
	content := string(data)
	content = strings.TrimPrefix(content, "\uFEFF")
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.TrimSpace(content)
}

func parseTimingLine(line, msSeparator string) (time.Duration, time.Duration, error) {
	parts := strings.Split(line, "-->")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid timing line %q", line)
	}
	start, err := parseTimestamp(parts[0], msSeparator)
	if err != nil {
		return 0, 0, err
	}
	// Cue settings may trail the end timestamp in WebVTT.
	endText := strings.TrimSpace(parts[1])
	if idx := strings.IndexAny(endText, " \t"); idx >= 0 {
		endText = endText[:idx]
	}
	end, err := parseTimestamp(endText, msSeparator)
	if err != nil {
		return 0, 0, err
	}
	return start, end, nil
}

// parseTimestamp reads HH:MM:SS,mmm (SRT) or [HH:]MM:SS.mmm (WebVTT). The
// separators are interchangeable on input; files in the wild mix them.
func parseTimestamp(value, msSeparator string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, fmt.Errorf("empty timestamp")
	}
	normalized := value
	if msSeparator == "," {
		normalized = strings.ReplaceAll(normalized, ".", ",")
	} else {
		normalized = strings.ReplaceAll(normalized, ",", ".")
	}
	timeParts := strings.Split(normalized, msSeparator)
	if len(timeParts) != 2 {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	hms := strings.Split(timeParts[0], ":")
	var hours, minutes, seconds int
	var errH, errM, errS error
	switch len(hms) {
	case 3:
		hours, errH = strconv.Atoi(hms[0])
		minutes, errM = strconv.Atoi(hms[1])
		seconds, errS = strconv.Atoi(hms[2])
	case 2:
		minutes, errM = strconv.Atoi(hms[0])
		seconds, errS = strconv.Atoi(hms[1])
	default:
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	millis, errMS := parseMillis(timeParts[1])
	if errH != nil || errM != nil || errS != nil || errMS != nil {
		return 0, fmt.Errorf("invalid timestamp %q", value)
	}
	if hours < 0 || minutes < 0 || seconds < 0 {
		return 0, fmt.Errorf("negative timestamp %q", value)
	}
	total := time.Duration(hours)*time.Hour +
		time.Duration(minutes)*time.Minute +
		time.Duration(seconds)*time.Second +
		time.Duration(millis)*time.Millisecond
	return total, nil
}

// parseMillis scales short fraction fields so "5" reads as 500ms, not 5ms.
func parseMillis(field string) (int, error) {
	field = strings.TrimSpace(field)
	if field == "" || len(field) > 3 {
		return 0, fmt.Errorf("invalid milliseconds %q", field)
	}
	value, err := strconv.Atoi(field)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("invalid milliseconds %q", field)
	}
	for i := len(field); i < 3; i++ {
		value *= 10
	}
	return value, nil
}

func formatSRTTimestamp(d time.Duration) string {
	return formatTimestamp(d, ",")
}

func formatTimestamp(d time.Duration, msSeparator string) string {
	if d < 0 {
		d = 0
	}
	total := d.Milliseconds()
	millis := total % 1000
	seconds := (total / 1000) % 60
	minutes := (total / 60000) % 60
	hours := total / 3600000
	return fmt.Sprintf("%02d:%02d:%02d%s%03d", hours, minutes, seconds, msSeparator, millis)
}
