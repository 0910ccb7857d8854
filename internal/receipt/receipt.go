// Package receipt validates receipt images and converts them to and from
// the base64 text stored in a ledger.
package receipt

import (
	"encoding/base64"
	"fmt"

	"github.com/gabriel-vasile/mimetype"

	apperrors "expensetracker/internal/errors"
)

// DefaultMaxBytes caps the size of an uploaded receipt.
const DefaultMaxBytes = 5 << 20

var allowed = []string{"image/png", "image/jpeg"}

// Image is a decoded receipt.
type Image struct {
	Data     []byte
	MIMEType string
}

// Encode checks that data is a PNG or JPEG no larger than maxBytes and
// returns its base64 text form. The format is detected from the content,
// never from a file name.
func Encode(data []byte, maxBytes int64) (string, error) {
	if len(data) == 0 {
		return "", apperrors.WithMessage(apperrors.ErrReceiptInvalid, "receipt is empty")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return "", apperrors.WithMessage(apperrors.ErrReceiptInvalid,
			fmt.Sprintf("receipt exceeds %d bytes", maxBytes))
	}
	if _, err := detect(data); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode turns stored text back into an image. Corrupt text or bytes that
// are not a supported image yield ErrReceiptDecodeFailed.
func Decode(stored string) (*Image, error) {
	data, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrReceiptDecodeFailed, err)
	}
	mt, err := detect(data)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrReceiptDecodeFailed, err)
	}
	return &Image{Data: data, MIMEType: mt}, nil
}

func detect(data []byte) (string, error) {
	m := mimetype.Detect(data)
	for _, a := range allowed {
		if m.Is(a) {
			return a, nil
		}
	}
	return "", apperrors.WithMessage(apperrors.ErrReceiptInvalid,
		fmt.Sprintf("receipt must be a PNG or JPEG image, got %s", m.String()))
}
