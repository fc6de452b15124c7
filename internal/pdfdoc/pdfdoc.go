// Package pdfdoc is the narrow collaborator interface over the PDF library:
// page count, per-page text extraction, per-page image rendering, and
// combined-PDF construction. The PDF engine itself is explicitly out of
// scope for reimplementation (spec.md §1); this package backs the
// interface with github.com/klippa-app/go-pdfium's WebAssembly runtime so
// the rest of the pipeline has something real to exercise, grounded on
// alde-publify's pkg/converter/pdf.go.
package pdfdoc

import (
	"fmt"
	"image"
	"os"
	"sync"
	"time"

	"github.com/klippa-app/go-pdfium"
	"github.com/klippa-app/go-pdfium/requests"
	"github.com/klippa-app/go-pdfium/webassembly"
)

const instanceTimeout = 30 * time.Second

// Page is one extracted page: its zero-based index and its text (possibly
// empty). Rendered images come from Document.RenderPageImage instead.
type Page struct {
	Index int // zero-based
	Text  string
}

// Document is a narrow read interface over an opened PDF.
type Document interface {
	PageCount() int
	PageText(index int) (string, error)
	RenderPageImage(index int, dpi int) (image.Image, error)
	Close()
}

// pool is process-wide because standing up the WebAssembly PDFium runtime
// is expensive; every opened Document borrows a pooled instance per call
// and returns it immediately, following alde-publify's pattern.
var (
	poolOnce sync.Once
	poolErr  error
	pdfPool  pdfium.Pool
)

func sharedPool() (pdfium.Pool, error) {
	poolOnce.Do(func() {
		pdfPool, poolErr = webassembly.Init(webassembly.Config{
			MinIdle:  1,
			MaxIdle:  2,
			MaxTotal: 4,
		})
	})
	return pdfPool, poolErr
}

type document struct {
	pool      pdfium.Pool
	pdfBytes  []byte
	pageCount int
}

// Open reads path and opens it against the shared PDFium pool, returning its
// page count up front.
func Open(path string) (Document, error) {
	pool, err := sharedPool()
	if err != nil {
		return nil, fmt.Errorf("init pdfium: %w", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	instance, err := pool.GetInstance(instanceTimeout)
	if err != nil {
		return nil, fmt.Errorf("get pdfium instance: %w", err)
	}
	defer instance.Close()

	doc, err := instance.OpenDocument(&requests.OpenDocument{File: &data})
	if err != nil {
		return nil, fmt.Errorf("open pdf document: %w", err)
	}
	defer instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})

	countResp, err := instance.FPDF_GetPageCount(&requests.FPDF_GetPageCount{Document: doc.Document})
	if err != nil {
		return nil, fmt.Errorf("get page count: %w", err)
	}

	return &document{pool: pool, pdfBytes: data, pageCount: countResp.PageCount}, nil
}

func (d *document) PageCount() int { return d.pageCount }

func (d *document) Close() {}

func (d *document) PageText(index int) (string, error) {
	if index < 0 || index >= d.pageCount {
		return "", fmt.Errorf("page index %d out of range (0-%d)", index, d.pageCount-1)
	}

	instance, err := d.pool.GetInstance(instanceTimeout)
	if err != nil {
		return "", fmt.Errorf("get pdfium instance: %w", err)
	}
	defer instance.Close()

	doc, err := instance.OpenDocument(&requests.OpenDocument{File: &d.pdfBytes})
	if err != nil {
		return "", fmt.Errorf("open pdf document: %w", err)
	}
	defer instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})

	resp, err := instance.GetPageText(&requests.GetPageText{
		Page: requests.Page{ByIndex: &requests.PageByIndex{Document: doc.Document, Index: index}},
	})
	if err != nil {
		return "", fmt.Errorf("extract page text: %w", err)
	}
	return resp.Text, nil
}

func (d *document) RenderPageImage(index int, dpi int) (image.Image, error) {
	if index < 0 || index >= d.pageCount {
		return nil, fmt.Errorf("page index %d out of range (0-%d)", index, d.pageCount-1)
	}

	instance, err := d.pool.GetInstance(instanceTimeout)
	if err != nil {
		return nil, fmt.Errorf("get pdfium instance: %w", err)
	}
	defer instance.Close()

	doc, err := instance.OpenDocument(&requests.OpenDocument{File: &d.pdfBytes})
	if err != nil {
		return nil, fmt.Errorf("open pdf document: %w", err)
	}
	defer instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: doc.Document})

	rendered, err := instance.RenderPageInDPI(&requests.RenderPageInDPI{
		Page: requests.Page{ByIndex: &requests.PageByIndex{Document: doc.Document, Index: index}},
		DPI:  dpi,
	})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	defer rendered.Cleanup()

	return rendered.Result.Image, nil
}

// SourcePage names a page to pull into a combined PDF: which source file,
// which zero-based page within it, and its position in the combined output.
type SourcePage struct {
	SourcePath  string
	PageIndex   int
	BatchIndex int
}

// CombinePages writes a new PDF at outputPath whose pages, in ascending
// BatchIndex order, replay the named source pages (spec.md §4.6's
// create_combined_input). A nil/empty pages list is a no-op: no file is
// written.
func CombinePages(pages []SourcePage, outputPath string) error {
	if len(pages) == 0 {
		return nil
	}

	ordered := make([]SourcePage, len(pages))
	copy(ordered, pages)
	sortByBatchIndex(ordered)

	pool, err := sharedPool()
	if err != nil {
		return fmt.Errorf("init pdfium: %w", err)
	}

	instance, err := pool.GetInstance(instanceTimeout)
	if err != nil {
		return fmt.Errorf("get pdfium instance: %w", err)
	}
	defer instance.Close()

	dest, err := instance.FPDF_CreateNewDocument(&requests.FPDF_CreateNewDocument{})
	if err != nil {
		return fmt.Errorf("create combined document: %w", err)
	}
	defer instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: dest.Document})

	sourceCache := make(map[string][]byte)
	for i, p := range ordered {
		data, ok := sourceCache[p.SourcePath]
		if !ok {
			data, err = os.ReadFile(p.SourcePath)
			if err != nil {
				return fmt.Errorf("read source page %d from %s: %w", p.PageIndex, p.SourcePath, err)
			}
			sourceCache[p.SourcePath] = data
		}

		srcDoc, err := instance.OpenDocument(&requests.OpenDocument{File: &data})
		if err != nil {
			return fmt.Errorf("open source %s: %w", p.SourcePath, err)
		}

		_, err = instance.FPDF_ImportPagesByIndex(&requests.FPDF_ImportPagesByIndex{
			Document:       dest.Document,
			FPDF_IMPORTPAGESBYINDEX: requests.FPDF_IMPORTPAGESBYINDEX{
				Document:    srcDoc.Document,
				PageIndices: []int{p.PageIndex},
				Index:       i,
			},
		})
		closeErr := instance.FPDF_CloseDocument(&requests.FPDF_CloseDocument{Document: srcDoc.Document})
		if err != nil {
			return fmt.Errorf("import page %d from %s: %w", p.PageIndex, p.SourcePath, err)
		}
		if closeErr != nil {
			return fmt.Errorf("close source %s: %w", p.SourcePath, closeErr)
		}
	}

	if _, err := instance.FPDF_SaveAsCopy(&requests.FPDF_SaveAsCopy{
		Document: dest.Document,
		FilePath: &outputPath,
	}); err != nil {
		return fmt.Errorf("save combined document: %w", err)
	}

	return nil
}

func sortByBatchIndex(pages []SourcePage) {
	for i := 1; i < len(pages); i++ {
		j := i
		for j > 0 && pages[j-1].BatchIndex > pages[j].BatchIndex {
			pages[j-1], pages[j] = pages[j], pages[j-1]
			j--
		}
	}
}

// CopyFile copies the file at src to dst byte-for-byte. The orchestrator
// uses it to write every successful input to final/ unchanged (spec.md §8:
// "the on-disk PDF is byte-identical to the input").
func CopyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("read %s: %w", src, err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", dst, err)
	}
	return nil
}
