package recognition

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/kailas-cloud/idintake/internal/domain"
)

// DecodeImage turns a base64 string or a data URI into raw image bytes.
func DecodeImage(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		_, payload, ok := strings.Cut(s, ",")
		if !ok {
			return nil, fmt.Errorf("%w: data uri without payload", domain.ErrInvalidImage)
		}
		s = payload
	}
	if s == "" {
		return nil, domain.ErrEmptyImage
	}

	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		b, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(s, "="))
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidImage, err)
	}
	if len(b) == 0 {
		return nil, domain.ErrEmptyImage
	}
	return b, nil
}
