package documents

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/JaimeStill/delivery-notes/internal/pdf"
)

// multipartOverhead allows for part headers and boundaries on top of the
// file payload limit.
const multipartOverhead = 1 << 20

// Limits bound multipart uploads.
type Limits struct {
	MaxFileSize  int64
	MaxBatchSize int64
}

// Upload is one file part read from a multipart request.
type Upload struct {
	Filename string
	Data     []byte
}

// ReadUploads streams the multipart body and collects every file part named
// field. A file must begin with %PDF- and stay within MaxFileSize; all files
// together must stay within MaxBatchSize. Reading stops at the first
// violation.
func ReadUploads(w http.ResponseWriter, r *http.Request, field string, limits Limits) ([]Upload, error) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxBatchSize+multipartOverhead)

	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidFile, err)
	}

	var (
		uploads []Upload
		total   int64
	)
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, readError(err)
		}

		if part.FormName() != field || part.FileName() == "" {
			part.Close()
			continue
		}

		upload, err := readPart(part, limits.MaxFileSize)
		part.Close()
		if err != nil {
			return nil, err
		}

		total += int64(len(upload.Data))
		if total > limits.MaxBatchSize {
			return nil, ErrBatchTooLarge
		}
		uploads = append(uploads, upload)
	}

	if len(uploads) == 0 {
		return nil, fmt.Errorf("%w: expected multipart field %q", ErrNoFiles, field)
	}
	return uploads, nil
}

func readPart(part *multipart.Part, maxSize int64) (Upload, error) {
	name := part.FileName()

	head := make([]byte, len(pdf.Header))
	n, err := io.ReadFull(part, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return Upload{}, readError(err)
	}
	if !pdf.IsPDF(head[:n]) {
		return Upload{}, fmt.Errorf("%w: %s", ErrUnsupportedType, name)
	}

	rest, err := io.ReadAll(io.LimitReader(part, maxSize-int64(n)+1))
	if err != nil {
		return Upload{}, readError(err)
	}

	data := append(head[:n], rest...)
	if int64(len(data)) > maxSize {
		return Upload{}, fmt.Errorf("%w: %s", ErrFileTooLarge, name)
	}

	return Upload{Filename: name, Data: data}, nil
}

func readError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return ErrBatchTooLarge
	}
	return fmt.Errorf("%w: %v", ErrInvalidFile, err)
}
