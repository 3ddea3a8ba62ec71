package usecase

import (
	"fmt"
	"strings"

	"github.com/Nzyazin/invest/internal/core/models"
	"github.com/gabriel-vasile/mimetype"
)

const DefaultProofMaxBytes = 5 << 20

// ValidateProof checks the deposit screenshot: present, at most maxBytes,
// and an image both by declared type and by content.
func ValidateProof(proof *models.Proof, maxBytes int64) error {
	if proof == nil || len(proof.Data) == 0 {
		return ErrProofRequired
	}
	if maxBytes <= 0 {
		maxBytes = DefaultProofMaxBytes
	}
	if int64(len(proof.Data)) > maxBytes {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrProofTooLarge, len(proof.Data), maxBytes)
	}
	if proof.ContentType != "" && !strings.HasPrefix(strings.ToLower(proof.ContentType), "image/") {
		return fmt.Errorf("%w: declared %s", ErrProofNotImage, proof.ContentType)
	}

	detected := mimetype.Detect(proof.Data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return fmt.Errorf("%w: detected %s", ErrProofNotImage, detected.String())
	}
	return nil
}

// NewProof builds a proof from uploaded bytes, filling the content type from
// the data when the client did not send one.
func NewProof(filename, contentType string, data []byte) *models.Proof {
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}
	return &models.Proof{
		Filename:    filename,
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}
}
