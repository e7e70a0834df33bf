package providers

import (
	"encoding/base64"
	"strings"

	"ferryhub/internal/domain"
)

// DecodeDocument decodes a base64 ticket document, tolerating a data: URI
// prefix and URL-safe or unpadded encodings.
func DecodeDocument(provider, op, s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if i := strings.Index(s, ","); strings.HasPrefix(s, "data:") && i > 0 {
		s = s[i+1:]
	}
	if s == "" {
		return nil, Errorf(provider, op, domain.KindParse, "empty ticket document")
	}
	for _, enc := range []*base64.Encoding{base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding} {
		if b, err := enc.DecodeString(s); err == nil {
			return b, nil
		}
	}
	return nil, Errorf(provider, op, domain.KindParse, "ticket document is not base64")
}
