package api

import (
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"artrack/pkg/logging"
)

// maxLogValueLen drops long attribute values from the condensed log line.
const maxLogValueLen = 20

// key=value or key="value with spaces"
var logRegex = regexp.MustCompile(`([a-zA-Z0-9_\-.]+)=(?:"([^"]*)"|([^ ]+))`)

// handleLatestLog returns the last captured server log line.
func handleLatestLog(w http.ResponseWriter, r *http.Request) {
	line := logging.GlobalLogCapture.GetLastLine()
	writeJSON(w, http.StatusOK, map[string]string{"log": formatLogLine(line)})
}

// formatLogLine condenses a slog text record into "HH:MM:SS msg (k=v, ...)".
// Level is dropped, attributes are sorted and long values are omitted.
func formatLogLine(raw string) string {
	matches := logRegex.FindAllStringSubmatch(raw, -1)
	if len(matches) == 0 {
		return raw
	}

	var msg, clock string
	var params []string

	for _, m := range matches {
		key, val := m[1], m[2]
		if val == "" {
			val = m[3]
		}
		val = strings.TrimSpace(val)

		switch key {
		case "time":
			if t, err := time.Parse(time.RFC3339, val); err == nil {
				clock = t.Format("15:04:05")
			}
		case "level", "source":
		case "msg":
			msg = val
		default:
			if len(val) <= maxLogValueLen {
				params = append(params, fmt.Sprintf("%s=%s", key, val))
			}
		}
	}

	if msg == "" {
		return raw
	}
	sort.Strings(params)

	out := msg
	if clock != "" {
		out = clock + " " + msg
	}
	if len(params) > 0 {
		out = fmt.Sprintf("%s (%s)", out, strings.Join(params, ", "))
	}
	return out
}
