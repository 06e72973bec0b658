package analysis

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"patentcheck/internal/intake"
	"patentcheck/internal/model"
)

var disablePDFConfigDir sync.Once

// Inspect gathers basic statistics about a document: its size for every
// type, the page count for PDFs and the word count for plain text. A PDF
// that cannot be read is an error.
func Inspect(contentType string, data []byte) (model.DocumentStats, error) {
	stats := model.DocumentStats{
		ContentType: intake.NormalizeType(contentType),
		Bytes:       int64(len(data)),
	}

	switch stats.ContentType {
	case intake.TypePDF:
		pages, err := pdfPageCount(data)
		if err != nil {
			return stats, fmt.Errorf("inspect pdf: %w", err)
		}
		stats.Pages = pages
	case intake.TypeText:
		stats.Words = len(strings.Fields(string(data)))
	}
	return stats, nil
}

func pdfPageCount(data []byte) (int, error) {
	disablePDFConfigDir.Do(api.DisableConfigDir)

	conf := pdfmodel.NewDefaultConfiguration()
	conf.ValidationMode = pdfmodel.ValidationRelaxed
	return api.PageCount(bytes.NewReader(data), conf)
}
