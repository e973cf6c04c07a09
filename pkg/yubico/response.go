package yubico

import (
	"bufio"
	"bytes"
	"errors"
	"strings"
)

// Response is a successful, signature-checked validation answer.
type Response struct {
	Status    Status
	OTP       string
	Nonce     string
	Timestamp string // "t" field, server UTC time
	SyncLevel string // "sl" field, percentage of servers that agreed
	Endpoint  string
}

var errEmptyResponse = errors.New("empty response body")

// parseFields reads the key=value lines of a response body. Values may
// themselves contain '=' (base64 padding), so only the first one splits.
func parseFields(body []byte) (map[string]string, error) {
	fields := make(map[string]string)
	sc := bufio.NewScanner(bytes.NewReader(body))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok || k == "" {
			return nil, errors.New("malformed line " + quoteLine(line))
		}
		fields[k] = v
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errEmptyResponse
	}
	return fields, nil
}

func quoteLine(line string) string {
	if len(line) > 40 {
		line = line[:40] + "..."
	}
	return "\"" + line + "\""
}
