package signal

import (
	"net/url"
	"regexp"
)

var arnRegion = regexp.MustCompile(`kinesisvideo:([a-z\-0-9]+):`)

// ExtractRegion returns the AWS region embedded in a channel ARN. Presigned
// endpoints carry the ARN percent-encoded in their query, so the unescaped
// form is searched as well.
func ExtractRegion(endpoint string) (string, bool) {
	if m := arnRegion.FindStringSubmatch(endpoint); m != nil {
		return m[1], true
	}
	if unescaped, err := url.QueryUnescape(endpoint); err == nil && unescaped != endpoint {
		if m := arnRegion.FindStringSubmatch(unescaped); m != nil {
			return m[1], true
		}
	}
	return "", false
}
