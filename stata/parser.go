package stata

import (
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/justapithecus/stax/iox"
	"github.com/justapithecus/stax/types"
)

// endOfDoFileMarker is the completion marker Stata writes when a do-file
// finishes, whether or not it failed. Nested do-files write one marker
// each; only the LAST one belongs to the outermost script.
const endOfDoFileMarker = "end of do-file"

// breakMarker precedes the r() code when a script fails via the `error`
// command or Break.
const breakMarker = "--Break--"

// maxMessageLines caps how many body lines are collected as error context.
const maxMessageLines = 3

// Tail window sizes. Logs can be tens of megabytes; only the trailing
// window is ever read, so parse cost is independent of log size.
const (
	wholeFileThreshold = 10 * 1024
	tailWindowBytes    = 5 * 1024
)

// rCodePattern matches a status marker on its own line: `r(123);`.
var rCodePattern = regexp.MustCompile(`^\s*r\((\d+)\);\s*$`)

// Detection is the classification of one interpreter log.
type Detection struct {
	// Complete is true when the final end-of-do-file marker was found.
	// An incomplete log means the subprocess was killed mid-run.
	Complete bool
	// Errors holds classified occurrences, in log order. Empty with
	// Complete=true means the script succeeded.
	Errors []types.ErrorOccurrence
}

// Success reports whether the log represents a clean run.
func (d *Detection) Success() bool {
	return d.Complete && len(d.Errors) == 0
}

// ExitCode returns the exit class for this detection.
// Incomplete logs have no code of their own; the caller maps them from
// the subprocess wait status (signal pass-through).
func (d *Detection) ExitCode() int {
	if len(d.Errors) == 0 {
		return ExitSuccess
	}
	return ExitClassForCode(d.Errors[0].RCode)
}

// ParseLogFile classifies the log at path, reading only a bounded
// trailing window. Files under 10 KiB are read whole (exact line
// numbers); larger files contribute their final 5 KiB and line numbers
// are omitted since the window offset is unknown.
func ParseLogFile(path string) (*Detection, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	window := int64(wholeFileThreshold)
	exact := true
	if info.Size() > wholeFileThreshold {
		window = tailWindowBytes
		exact = false
	}

	data, err := iox.ReadTail(path, window)
	if err != nil {
		return nil, err
	}

	content := string(data)
	if !exact {
		// Drop the first, possibly mid-line, fragment of the window.
		if idx := strings.IndexByte(content, '\n'); idx >= 0 {
			content = content[idx+1:]
		}
	}

	return parseLog(content, exact), nil
}

// ParseLog classifies raw log content with exact line numbers.
func ParseLog(content string) *Detection {
	return parseLog(content, true)
}

// parseLog implements the classification contract:
//
//  1. Locate the LAST end-of-do-file marker (nested do-files write one each).
//  2. Scan the lines AFTER the marker, skipping blanks and --Break--.
//  3. The first `r(N);` match is the terminating error; any other
//     non-empty line ends the scan.
//  4. No marker at all means the log is incomplete (process killed).
//
// `r(N);` text before the marker — display output, captured errors —
// never classifies, which is what makes displayed error-looking text a
// non-event.
func parseLog(content string, exactLines bool) *Detection {
	lines := strings.Split(content, "\n")

	markerIdx := -1
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == endOfDoFileMarker {
			markerIdx = i
			break
		}
	}

	if markerIdx < 0 {
		return &Detection{Complete: false}
	}

	det := &Detection{Complete: true}
	for idx, line := range lines[markerIdx+1:] {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == breakMarker {
			continue
		}

		m := rCodePattern.FindStringSubmatch(trimmed)
		if m == nil {
			// Any other non-empty line means no terminating marker follows.
			break
		}

		rCode, err := strconv.Atoi(m[1])
		if err != nil {
			break
		}

		entry := Describe(rCode)
		occ := types.ErrorOccurrence{
			RCode:    rCode,
			Name:     entry.Name,
			Category: string(entry.Category),
			DocRef:   entry.DocRef,
		}
		if msg, ok := extractErrorMessage(lines, markerIdx, rCode); ok {
			occ.Message = msg
		} else {
			occ.Message = entry.Description
		}
		if exactLines {
			occ.Line = markerIdx + 1 + idx + 1 // 1-indexed
		}

		det.Errors = append(det.Errors, occ)
		break
	}

	return det
}

// extractErrorMessage finds the FIRST `r(N);` occurrence in the log body
// (before the final marker) and collects up to maxMessageLines non-empty,
// non-echo lines immediately preceding it, in original order.
func extractErrorMessage(lines []string, bodyEnd, rCode int) (string, bool) {
	target := "r(" + strconv.Itoa(rCode) + ");"

	bodyIdx := -1
	for i := 0; i < bodyEnd; i++ {
		if strings.TrimSpace(lines[i]) == target {
			bodyIdx = i
			break
		}
	}
	if bodyIdx < 0 {
		return "", false
	}

	var context []string
	for i := bodyIdx - 1; i >= 0; i-- {
		trimmed := strings.TrimSpace(lines[i])
		if trimmed == "" {
			// Stop at the first blank once we have context.
			if len(context) > 0 {
				break
			}
			continue
		}
		if trimmed == breakMarker {
			continue
		}
		if isCommandEcho(trimmed) {
			// The error text sits between the echo and the marker.
			break
		}
		context = append(context, trimmed)
		if len(context) >= maxMessageLines {
			break
		}
	}

	if len(context) == 0 {
		return "", false
	}

	// Restore original order.
	for i, j := 0, len(context)-1; i < j; i, j = i+1, j-1 {
		context[i], context[j] = context[j], context[i]
	}
	return strings.Join(context, "\n"), true
}

// isCommandEcho reports whether a trimmed log line is a command echo:
// `. cmd`, a bare `.`, a `> ` continuation, or a numbered `2. ` line.
func isCommandEcho(trimmed string) bool {
	if strings.HasPrefix(trimmed, ". ") || trimmed == "." {
		return true
	}
	if strings.HasPrefix(trimmed, "> ") {
		return true
	}

	// Numbered continuation: `2. `, `10. end`, `3.`
	i := 0
	for i < len(trimmed) && trimmed[i] >= '0' && trimmed[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(trimmed) || trimmed[i] != '.' {
		return false
	}
	i++
	return i >= len(trimmed) || trimmed[i] == ' '
}
