// Package export renders a report snapshot into a paginated plain-text
// clinical document. Rendering is a pure read: nothing feeds back into the
// report state.
package export

import (
	"fmt"
	"strings"

	"github.com/vetreport-server/internal/domain"
)

const (
	// DefaultLinesPerPage is the page height of the rendered document.
	DefaultLinesPerPage = 44

	// wrapWidth is the column at which narrative text wraps.
	wrapWidth = 88
)

// statusLabels are the printed review-state markers.
var statusLabels = map[domain.ReviewStatus]string{
	domain.StatusPending:  "PENDING REVIEW",
	domain.StatusAccepted: "VALIDATED",
	domain.StatusEdited:   "EDITED",
	domain.StatusRejected: "REJECTED",
}

// Generator renders report snapshots.
type Generator struct {
	linesPerPage int
}

// NewGenerator creates a document generator. Page heights below 10 lines
// fall back to the default.
func NewGenerator(linesPerPage int) *Generator {
	if linesPerPage < 10 {
		linesPerPage = DefaultLinesPerPage
	}
	return &Generator{linesPerPage: linesPerPage}
}

// Render implements domain.Exporter: header, diagnosis, findings in report
// order with their review markers and linked image captions, then the image
// index, split into fixed-height pages.
func (g *Generator) Render(report domain.Report) ([]string, error) {
	var lines []string

	lines = append(lines, g.headerLines(report)...)
	lines = append(lines, "")
	lines = append(lines, g.diagnosisLines(report.Diagnosis)...)
	lines = append(lines, "")
	lines = append(lines, g.findingLines(report)...)
	lines = append(lines, g.imageIndexLines(report.Images)...)

	return paginate(lines, g.linesPerPage), nil
}

// headerLines renders the patient block.
func (g *Generator) headerLines(report domain.Report) []string {
	p := report.PatientInfo
	return []string{
		"VETERINARY DIAGNOSTIC REPORT",
		strings.Repeat("=", wrapWidth),
		fmt.Sprintf("Report:        %s", report.ID),
		fmt.Sprintf("Patient:       %s (%s, %s)", p.Name, p.Species, p.Breed),
		fmt.Sprintf("Sex / Age:     %s / %s", p.Sex, p.Age),
		fmt.Sprintf("Tutor:         %s", p.Tutor),
		fmt.Sprintf("Veterinarian:  %s", p.Veterinarian),
		fmt.Sprintf("Study:         %s - %s", p.StudyType, p.Date),
	}
}

// diagnosisLines renders the diagnosis section.
func (g *Generator) diagnosisLines(d domain.Diagnosis) []string {
	lines := []string{
		fmt.Sprintf("DIAGNOSIS  [%s]  (confidence %.0f%%)", statusLabels[d.Status], d.Confidence*100),
		strings.Repeat("-", wrapWidth),
	}
	for _, item := range d.Items {
		lines = append(lines, wrap("  • "+item, wrapWidth)...)
	}
	if d.EditedBy != "" {
		lines = append(lines, fmt.Sprintf("  (edited by %s)", d.EditedBy))
	}
	return lines
}

// findingLines renders every finding in report order.
func (g *Generator) findingLines(report domain.Report) []string {
	lines := []string{
		"FINDINGS",
		strings.Repeat("-", wrapWidth),
	}
	for _, f := range report.Findings {
		lines = append(lines, fmt.Sprintf("%s  [%s]  (confidence %.0f%%)",
			f.Organ, statusLabels[f.Status], f.Confidence*100))
		lines = append(lines, wrap("  "+f.CurrentText, wrapWidth)...)
		if f.IsEdited {
			lines = append(lines, fmt.Sprintf("  (edited by %s)", f.EditedBy))
		}
		if img, ok := report.ImageByID(f.LinkedImageID); ok {
			lines = append(lines, fmt.Sprintf("  Image: %s - %s", img.ID, img.Metadata))
		}
		lines = append(lines, "")
	}
	return lines
}

// imageIndexLines renders the study image index.
func (g *Generator) imageIndexLines(images []domain.StudyImage) []string {
	if len(images) == 0 {
		return nil
	}
	lines := []string{
		"STUDY IMAGES",
		strings.Repeat("-", wrapWidth),
	}
	for _, img := range images {
		lines = append(lines, fmt.Sprintf("  %-8s %-12s %s", img.ID, img.Type, img.Metadata))
	}
	return lines
}

// wrap splits text into lines of at most width columns, breaking on spaces.
// The indentation of the first line is carried to continuations.
func wrap(text string, width int) []string {
	indent := text[:len(text)-len(strings.TrimLeft(text, " "))]
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{""}
	}

	var lines []string
	line := indent + words[0]
	for _, word := range words[1:] {
		if len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = indent + word
			continue
		}
		line += " " + word
	}
	return append(lines, line)
}

// paginate splits lines into fixed-height pages.
func paginate(lines []string, perPage int) []string {
	var pages []string
	for start := 0; start < len(lines); start += perPage {
		end := start + perPage
		if end > len(lines) {
			end = len(lines)
		}
		pages = append(pages, strings.Join(lines[start:end], "\n"))
	}
	if len(pages) == 0 {
		pages = []string{""}
	}
	return pages
}
