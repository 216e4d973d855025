package extractor

import (
	"context"
	"encoding/base64"
)

// Model sends one prompt to a language model and returns its text reply.
// image is PNG bytes in image mode and nil in text mode. Implementations
// wrap failures with ErrTransient or ErrPermanent.
type Model interface {
	Complete(ctx context.Context, system, user string, image []byte) (string, error)
}

func pngDataURI(data []byte) string {
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(data)
}
