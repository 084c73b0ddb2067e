package ingest_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/fumiama/go-docx"
	"github.com/go-pdf/fpdf"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docent/pkg/vector"
)

func writeFile(dir, name, content string) string {
	path := filepath.Join(dir, name)
	Expect(os.WriteFile(path, []byte(content), 0o600)).To(Succeed())
	return path
}

func writePDF(dir, name, text string) string {
	path := filepath.Join(dir, name)
	doc := fpdf.New("P", "mm", "A4", "")
	doc.AddPage()
	doc.SetFont("Arial", "", 12)
	doc.Cell(40, 10, text)
	Expect(doc.OutputFileAndClose(path)).To(Succeed())
	return path
}

func writeDOCX(dir, name string, paragraphs ...string) string {
	path := filepath.Join(dir, name)
	doc := docx.New().WithDefaultTheme()
	for _, p := range paragraphs {
		doc.AddParagraph().AddText(p)
	}

	f, err := os.Create(path)
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()
	_, err = doc.WriteTo(f)
	Expect(err).NotTo(HaveOccurred())

	GinkgoWriter.Printf("wrote docx fixture %s\n", path)
	return path
}

func writeDOCXTable(dir, name string, rows ...[]string) string {
	path := filepath.Join(dir, name)
	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().AddText("Prices")
	table := doc.AddTable(len(rows), len(rows[0]), 0, nil)
	for i, row := range rows {
		for j, cell := range row {
			table.TableRows[i].TableCells[j].AddParagraph().AddText(cell)
		}
	}

	f, err := os.Create(path)
	Expect(err).NotTo(HaveOccurred())
	defer f.Close()
	_, err = doc.WriteTo(f)
	Expect(err).NotTo(HaveOccurred())
	return path
}

// gatedDriver holds every Add until release is closed and records how many
// Add/DeleteSource pairs were open at once.
type gatedDriver struct {
	vector.Driver
	entered chan struct{}
	release chan struct{}

	mu       sync.Mutex
	inFlight int
	max      int
}

func (g *gatedDriver) Add(ctx context.Context, docs []vector.Document) error {
	g.mu.Lock()
	g.inFlight++
	g.max = max(g.max, g.inFlight)
	g.mu.Unlock()

	g.entered <- struct{}{}
	<-g.release
	return g.Driver.Add(ctx, docs)
}

func (g *gatedDriver) DeleteSource(ctx context.Context, source string, keep ...string) error {
	defer func() {
		g.mu.Lock()
		g.inFlight--
		g.mu.Unlock()
	}()
	return g.Driver.DeleteSource(ctx, source, keep...)
}

func (g *gatedDriver) maxInFlight() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.max
}
