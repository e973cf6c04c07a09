package yubico

import (
	"crypto/hmac"
	"crypto/sha1" // #nosec G505 - HMAC-SHA1 is mandated by the validation protocol
	"encoding/base64"
	"sort"
	"strings"
)

// Sign computes the protocol signature over params: the pairs are sorted by
// key, joined as k=v with '&', and HMAC-SHA1'd with key. Any "h" entry is
// ignored.
func Sign(key []byte, params map[string]string) string {
	mac := hmac.New(sha1.New, key)
	mac.Write([]byte(canonicalize(params)))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature reports whether fields["h"] is a valid signature over the
// remaining fields.
func VerifySignature(key []byte, fields map[string]string) bool {
	got, ok := fields["h"]
	if !ok || got == "" {
		return false
	}
	gotRaw, err := base64.StdEncoding.DecodeString(got)
	if err != nil {
		return false
	}
	wantRaw, _ := base64.StdEncoding.DecodeString(Sign(key, fields))
	return hmac.Equal(gotRaw, wantRaw)
}

func canonicalize(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k == "h" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}
