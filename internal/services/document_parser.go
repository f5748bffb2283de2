package services

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"go.uber.org/zap"
)

const (
	MimePDF  = "application/pdf"
	MimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MimeText = "text/plain"
)

var ErrUnsupportedDocument = errors.New("unsupported document type")

// DocumentTextSource turns an uploaded resume into plain text.
type DocumentTextSource interface {
	ExtractText(filename string, data []byte) (string, error)
}

type documentParser struct {
	logger *zap.Logger
}

func NewDocumentParser(log *zap.Logger) DocumentTextSource {
	if log == nil {
		log = zap.NewNop()
	}
	return &documentParser{logger: log}
}

// MimeTypeFor resolves the document kind from the file extension.
func MimeTypeFor(filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return MimePDF, nil
	case ".docx":
		return MimeDOCX, nil
	case ".txt", ".text", ".md":
		return MimeText, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedDocument, filepath.Ext(filename))
	}
}

// ExtractText implements DocumentTextSource.
func (p *documentParser) ExtractText(filename string, data []byte) (string, error) {
	mime, err := MimeTypeFor(filename)
	if err != nil {
		return "", &DocumentReadError{Filename: filename, Cause: err}
	}

	var text string
	switch mime {
	case MimePDF:
		text, err = p.extractPDFText(data)
	case MimeDOCX:
		text, err = extractDocxText(data)
	default:
		if !utf8.Valid(data) {
			err = errors.New("text file is not valid UTF-8")
		}
		text = string(data)
	}
	if err != nil {
		return "", &DocumentReadError{Filename: filename, Cause: err}
	}

	text = CleanText(text)
	if text == "" {
		return "", &DocumentReadError{Filename: filename, Cause: errors.New("no text content found")}
	}

	p.logger.Debug("document text extracted",
		zap.String("filename", filename),
		zap.String("mime_type", mime),
		zap.Int("length", utf8.RuneCountInString(text)),
	)

	return text, nil
}

func (p *documentParser) extractPDFText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}

	var textBuilder strings.Builder
	totalPage := reader.NumPage()

	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			p.logger.Warn("skipping unreadable PDF page", zap.Int("page", pageIndex), zap.Error(err))
			continue
		}

		textBuilder.WriteString(text)
		textBuilder.WriteString("\n")
	}

	return textBuilder.String(), nil
}

func extractDocxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return wordMLText(doc.Editable().GetContent())
}

// wordMLText collects the w:t runs of a WordprocessingML body, one line per paragraph.
func wordMLText(content string) (string, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))

	var (
		textBuilder strings.Builder
		inText      bool
	)

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to read docx content: %w", err)
		}

		switch el := token.(type) {
		case xml.StartElement:
			switch el.Name.Local {
			case "t":
				inText = true
			case "tab":
				textBuilder.WriteString("\t")
			case "br":
				textBuilder.WriteString("\n")
			}
		case xml.EndElement:
			switch el.Name.Local {
			case "t":
				inText = false
			case "p":
				textBuilder.WriteString("\n")
			}
		case xml.CharData:
			if inText {
				textBuilder.Write(el)
			}
		}
	}

	return textBuilder.String(), nil
}

// CleanText trims every line and drops blank ones.
func CleanText(text string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	var cleanedLines []string

	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleanedLines = append(cleanedLines, line)
		}
	}

	return strings.Join(cleanedLines, "\n")
}
