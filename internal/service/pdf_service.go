package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gen2brain/go-fitz"
	"go.uber.org/zap"
)

// PDFService reads the text layer of a tariff schedule.
// Supported formats: .pdf (via MuPDF), .txt and .md (read as is).
type PDFService struct {
	logger *zap.Logger
}

func NewPDFService(logger *zap.Logger) *PDFService {
	return &PDFService{logger: logger}
}

func (s *PDFService) ExtractText(ctx context.Context, filePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(filePath))

	var text string
	var err error
	switch ext {
	case ".pdf":
		text, err = s.extractTextFromPDF(ctx, filePath)
	case ".txt", ".md":
		var data []byte
		data, err = os.ReadFile(filePath)
		text = string(data)
	default:
		return "", fmt.Errorf("unsupported file format: %s (supported: pdf, txt, md)", ext)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", filePath, err)
	}

	text = strings.TrimSpace(sanitizeUTF8(text))
	if text == "" {
		return "", ErrEmptySource
	}

	s.logger.Info("Source text extracted",
		zap.String("file", filePath),
		zap.String("format", ext),
		zap.Int("text_length", len(text)),
	)
	return text, nil
}

func (s *PDFService) extractTextFromPDF(ctx context.Context, pdfPath string) (string, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF: %w", err)
	}
	defer doc.Close()

	var textBuilder strings.Builder
	for i := 0; i < doc.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}

		pageText, err := doc.Text(i)
		if err != nil {
			s.logger.Warn("Failed to extract text from page",
				zap.Int("page", i+1),
				zap.String("file", pdfPath),
				zap.Error(err),
			)
			continue
		}
		if pageText != "" {
			textBuilder.WriteString(pageText)
			// blank line keeps page breaks as paragraph boundaries
			textBuilder.WriteString("\n\n")
		}
	}

	s.logger.Debug("PDF text extracted using go-fitz",
		zap.String("file", pdfPath),
		zap.Int("pages", doc.NumPage()),
	)
	return textBuilder.String(), nil
}
