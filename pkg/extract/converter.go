// Package extract converts stored essay binaries (PDF, DOCX, plain text)
// into plain text for the grading pipeline.
package extract

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"code.sajari.com/docconv"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

// Converter turns a stored document into plain text using docconv. The
// extension allow-list runs at classification time; here the actual bytes
// decide, so a mislabelled file surfaces as a conversion error.
type Converter struct {
	logger zerolog.Logger
}

// New constructs a document converter.
func New(logger zerolog.Logger) *Converter {
	return &Converter{
		logger: logger.With().Str("component", "text_converter").Logger(),
	}
}

// Convert reads the document and returns its plain-text content. The file
// name only selects the conversion routine; unreadable content returns an
// error regardless of extension.
func (c *Converter) Convert(ctx context.Context, r io.Reader, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read document %s: %w", fileName, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("document %s is empty", fileName)
	}

	mimeType := docconv.MimeTypeByExtension(fileName)
	c.logger.Debug().
		Str("file_name", fileName).
		Str("mime_type", mimeType).
		Str("detected_mime", mimetype.Detect(data).String()).
		Msg("converting document")

	res, err := docconv.Convert(bytes.NewReader(data), mimeType, true)
	if err != nil {
		return "", fmt.Errorf("convert %s: %w", fileName, err)
	}

	return res.Body, nil
}
