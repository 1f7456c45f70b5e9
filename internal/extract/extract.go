// Package extract turns uploaded report files into plain text.
package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
)

const (
	mimePDF      = "application/pdf"
	mimeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	mimeText     = "text/plain"
	mimeMarkdown = "text/markdown"
)

var (
	// ErrUnsupported is returned for file types without an extractor.
	ErrUnsupported = errors.New("unsupported mime type")
	// ErrEmpty is returned when a file yields no text.
	ErrEmpty = errors.New("no text extracted")
)

// TextFromBytes extracts report text from an uploaded payload. The declared
// mime type is refined by file extension and content sniffing.
func TextFromBytes(ctx context.Context, data []byte, mimeType string, fileName string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	normalized := normalizeMimeType(mimeType, fileName, data)

	var (
		text string
		err  error
	)
	switch normalized {
	case mimePDF:
		text, err = extractPDF(data)
	case mimeDOCX:
		text, err = extractDOCX(data)
	case mimeText, mimeMarkdown:
		if !utf8.Valid(data) {
			return "", fmt.Errorf("%w: %s is not valid utf-8", ErrUnsupported, normalized)
		}
		text = string(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupported, normalized)
	}
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", normalized, err)
	}

	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return "", ErrEmpty
	}
	return text, nil
}

func extractPDF(data []byte) (text string, err error) {
	// The pdf reader panics on some malformed inputs.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", rec)
		}
	}()
	pdfReader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func extractDOCX(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var docFile *zip.File
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			docFile = f
			break
		}
	}
	if docFile == nil {
		return "", errors.New("word/document.xml not found")
	}

	rc, err := docFile.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return docxText(rc)
}

// docxText keeps the text runs (w:t) and breaks lines at paragraph and break ends.
func docxText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)
	var buf strings.Builder
	inText := false
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				buf.WriteByte('\t')
			}
		case xml.CharData:
			if inText {
				buf.Write(t)
			}
		case xml.EndElement:
			if t.Name.Local == "t" {
				inText = false
			}
			if (t.Name.Local == "p" || t.Name.Local == "br") && buf.Len() > 0 {
				buf.WriteByte('\n')
			}
		}
	}
	return buf.String(), nil
}

func normalizeMimeType(mimeType string, fileName string, data []byte) string {
	clean := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))

	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		if clean == "" || clean == "application/octet-stream" {
			return mimePDF
		}
	case ".md", ".markdown":
		if clean == "" || clean == mimeText || clean == "application/octet-stream" {
			return mimeMarkdown
		}
	case ".txt":
		if clean == "" || clean == "application/octet-stream" {
			return mimeText
		}
	case ".docx":
		if clean == "" || clean == "application/zip" || clean == "application/octet-stream" {
			if isDOCX(data) {
				return mimeDOCX
			}
		}
	}

	if clean == "" || clean == "application/octet-stream" {
		clean = strings.Split(http.DetectContentType(data), ";")[0]
	}
	if clean == "application/zip" && isDOCX(data) {
		return mimeDOCX
	}
	return clean
}

func isDOCX(data []byte) bool {
	if len(data) == 0 {
		return false
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return false
	}
	for _, f := range zr.File {
		if strings.ReplaceAll(f.Name, "\\", "/") == "word/document.xml" {
			return true
		}
	}
	return false
}
