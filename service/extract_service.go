package service

import (
	"archive/zip"
	"bufio"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/tieubaoca/docqa-be/types"
)

// ExtractService converts an uploaded file into plain text by declared type.
type ExtractService struct{}

func NewExtractService() *ExtractService {
	return &ExtractService{}
}

// ExtractText reads the file at path and returns its plain text. fileType
// must be one of pdf, docx or txt (case-insensitive). Empty results are the
// caller's concern; the extractor only fails on unreadable input.
func (s *ExtractService) ExtractText(path, fileType string) (string, error) {
	switch strings.ToLower(fileType) {
	case types.FileTypePDF:
		return s.extractPDF(path)
	case types.FileTypeDOCX:
		return s.extractDOCX(path)
	case types.FileTypeTXT:
		return s.extractTXT(path)
	default:
		return "", fmt.Errorf("%w: %s", types.ErrUnsupportedFileType, fileType)
	}
}

// extractPDF extracts each page with pdftotext and joins the pages with
// newlines in document order. Pages that yield no text are skipped.
func (s *ExtractService) extractPDF(path string) (string, error) {
	totalPages, err := getNumPages(path)
	if err != nil {
		return "", err
	}

	var pages []string
	for pageNum := 1; pageNum <= totalPages; pageNum++ {
		text, err := extractPageWithPdftotext(path, pageNum)
		if err != nil {
			continue
		}
		pages = append(pages, cleanText(text))
	}
	return strings.TrimSpace(strings.Join(pages, "\n")), nil
}

// extractPageWithPdftotext extracts text of a single page using the
// pdftotext utility.
func extractPageWithPdftotext(path string, pageNumber int) (string, error) {
	cmd := exec.Command("pdftotext", "-f", strconv.Itoa(pageNumber),
		"-l", strconv.Itoa(pageNumber),
		"-enc", "UTF-8", "-nopgbrk",
		path, "-")
	var txtOut bytes.Buffer
	cmd.Stdout = &txtOut

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("error running pdftotext for page %d: %v", pageNumber, err)
	}
	if trimmed := strings.TrimSpace(txtOut.String()); len(trimmed) > 0 {
		return trimmed, nil
	}
	return "", fmt.Errorf("got nothing at page %d", pageNumber)
}

// getNumPages uses pdfinfo to get the total number of pages in a PDF file
func getNumPages(path string) (int, error) {
	cmd := exec.Command("pdfinfo", path)
	var out bytes.Buffer
	cmd.Stdout = &out

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("error running pdfinfo: %v", err)
	}

	scanner := bufio.NewScanner(&out)
	re := regexp.MustCompile(`Pages:\s+(\d+)`)
	for scanner.Scan() {
		if matches := re.FindStringSubmatch(scanner.Text()); len(matches) == 2 {
			return strconv.Atoi(matches[1])
		}
	}

	return 0, fmt.Errorf("unable to determine page count from pdfinfo")
}

// documentXML mirrors the paragraph structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []docxParagraph `xml:"p"`
	} `xml:"body"`
}

type docxParagraph struct {
	Runs []docxRun `xml:"r"`
}

type docxRun struct {
	Text []docxText `xml:"t"`
}

type docxText struct {
	Content string `xml:",chardata"`
}

// extractDOCX reads the DOCX zip archive and joins paragraph texts from
// word/document.xml with newlines.
func (s *ExtractService) extractDOCX(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read docx file: %v", err)
	}

	reader, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx archive: %v", err)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}
		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open document.xml: %v", err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read document.xml: %v", err)
		}

		var doc documentXML
		if err := xml.Unmarshal(data, &doc); err != nil {
			return "", fmt.Errorf("failed to parse document.xml: %v", err)
		}

		var result strings.Builder
		for i, para := range doc.Body.Paragraphs {
			if i > 0 {
				result.WriteString("\n")
			}
			for _, run := range para.Runs {
				for _, text := range run.Text {
					result.WriteString(text.Content)
				}
			}
		}
		return strings.TrimSpace(result.String()), nil
	}
	return "", fmt.Errorf("no word/document.xml in docx archive")
}

func (s *ExtractService) extractTXT(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read text file: %v", err)
	}
	if !utf8.Valid(content) {
		return "", types.ErrDecode
	}
	return strings.TrimSpace(string(content)), nil
}

func cleanText(text string) string {
	replacements := map[string]string{
		"\u0000": "",   // Null character
		"\ufffd": "",   // Unicode replacement character
		"\u001b": "",   // Escape character
		"\r":     "",   // Carriage return
		"\f":     "\n", // Form feed to newline
	}
	cleaned := text
	for old, new := range replacements {
		cleaned = strings.ReplaceAll(cleaned, old, new)
	}
	return strings.TrimSpace(cleaned)
}
