package services

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var ErrFileTooLarge = errors.New("file too large")

// allowedExtensions maps accepted upload extensions to the MIME type the
// document extractor routes on.
var allowedExtensions = map[string]string{
	".pdf":  MIMEPDF,
	".docx": MIMEDocx,
}

type UploadedFile struct {
	Name     string
	MIMEType string
	Data     []byte
}

// UploadReader loads résumé uploads into memory. Nothing is written to disk.
type UploadReader interface {
	ReadUpload(file *multipart.FileHeader) (*UploadedFile, error)
	ReadFile(path string) (*UploadedFile, error)
}

type uploadReader struct {
	maxFileSize int64
}

func NewUploadReader(maxFileSize int64) UploadReader {
	return &uploadReader{maxFileSize: maxFileSize}
}

func (u *uploadReader) ReadUpload(file *multipart.FileHeader) (*UploadedFile, error) {
	if err := u.checkSize(file.Size); err != nil {
		return nil, err
	}

	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	return u.read(file.Filename, src)
}

func (u *uploadReader) ReadFile(path string) (*UploadedFile, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if err := u.checkSize(info.Size()); err != nil {
		return nil, err
	}

	src, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer src.Close()

	return u.read(filepath.Base(path), src)
}

func (u *uploadReader) read(name string, src io.Reader) (*UploadedFile, error) {
	ext := strings.ToLower(filepath.Ext(name))
	mimeType, ok := allowedExtensions[ext]
	if !ok {
		return nil, &DocumentParseError{Reason: fmt.Sprintf("invalid file extension %q", ext), Cause: ErrUnsupportedFileType}
	}

	// One extra byte tells a file at the limit from one past it.
	data, err := io.ReadAll(io.LimitReader(src, u.maxFileSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read uploaded file: %w", err)
	}
	if err := u.checkSize(int64(len(data))); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, &DocumentParseError{Reason: "empty upload", Cause: ErrEmptyDocument}
	}

	if !contentMatches(data, mimeType) {
		detected := mimetype.Detect(data)
		return nil, &DocumentParseError{
			Reason: fmt.Sprintf("%s content detected as %s", ext, detected.String()),
			Cause:  ErrUnsupportedFileType,
		}
	}

	return &UploadedFile{Name: name, MIMEType: mimeType, Data: data}, nil
}

func (u *uploadReader) checkSize(size int64) error {
	if size > u.maxFileSize {
		return &DocumentParseError{
			Reason: fmt.Sprintf("max size is %d bytes", u.maxFileSize),
			Cause:  ErrFileTooLarge,
		}
	}
	return nil
}

// contentMatches sniffs data. A .docx only has to be a zip archive, since
// detection of the Word flavor depends on the order of archive entries.
func contentMatches(data []byte, mimeType string) bool {
	detected := mimetype.Detect(data)
	if mimeType == MIMEDocx {
		return detected.Is(MIMEDocx) || detected.Is("application/zip")
	}
	return detected.Is(mimeType)
}
