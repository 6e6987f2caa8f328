package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vetreport-server/internal/domain"
)

func exportSeed() domain.Report {
	return domain.Report{
		ID: "report-export",
		PatientInfo: domain.PatientInfo{
			Name:         "Pony",
			Species:      "Felino",
			Breed:        "Mestizo",
			Sex:          "Macho",
			Age:          "7 años",
			Tutor:        "Carolina Rodríguez",
			Veterinarian: "Dr. Cardozo",
			StudyType:    "Ecografía abdominal",
			Date:         "13/11/2025",
		},
		Diagnosis: domain.Diagnosis{
			Confidence: 0.95,
			Items:      []string{"Nódulos esplénicos múltiples", "Hernia inguinal"},
			Status:     domain.StatusAccepted,
		},
		Findings: []domain.Finding{
			{
				ID:            "finding-1",
				Organ:         "Hígado",
				Confidence:    0.92,
				OriginalText:  "Parénquima homogéneo.",
				CurrentText:   "Parénquima heterogéneo con nódulos.",
				IsEdited:      true,
				EditedBy:      "Dr. Cardozo",
				Status:        domain.StatusEdited,
				LinkedImageID: "img-1",
			},
			{
				ID:           "finding-2",
				Organ:        "Bazo",
				Confidence:   0.88,
				OriginalText: "De topografía habitual.",
				CurrentText:  "De topografía habitual.",
				Status:       domain.StatusPending,
			},
		},
		Images: []domain.StudyImage{
			{ID: "img-1", URL: "/images/image1.png", Type: domain.ImageUltrasound, Metadata: "Hígado - Vista sagital"},
		},
	}
}

func TestRender_Sections(t *testing.T) {
	gen := NewGenerator(0)

	pages, err := gen.Render(exportSeed())
	require.NoError(t, err)
	require.NotEmpty(t, pages)

	doc := strings.Join(pages, "\n")
	assert.Contains(t, doc, "VETERINARY DIAGNOSTIC REPORT")
	assert.Contains(t, doc, "Patient:       Pony (Felino, Mestizo)")
	assert.Contains(t, doc, "Veterinarian:  Dr. Cardozo")
	assert.Contains(t, doc, "Study:         Ecografía abdominal - 13/11/2025")
	assert.Contains(t, doc, "DIAGNOSIS  [VALIDATED]  (confidence 95%)")
	assert.Contains(t, doc, "• Nódulos esplénicos múltiples")
	assert.Contains(t, doc, "Hígado  [EDITED]  (confidence 92%)")
	assert.Contains(t, doc, "Parénquima heterogéneo con nódulos.")
	assert.Contains(t, doc, "(edited by Dr. Cardozo)")
	assert.Contains(t, doc, "Image: img-1 - Hígado - Vista sagital")
	assert.Contains(t, doc, "Bazo  [PENDING REVIEW]  (confidence 88%)")
	assert.Contains(t, doc, "STUDY IMAGES")
}

func TestRender_CurrentTextNotOriginal(t *testing.T) {
	gen := NewGenerator(0)

	pages, err := gen.Render(exportSeed())
	require.NoError(t, err)

	doc := strings.Join(pages, "\n")
	assert.NotContains(t, doc, "Parénquima homogéneo.", "the first draft must not leak into the document")
}

func TestRender_Pagination(t *testing.T) {
	gen := NewGenerator(10)

	pages, err := gen.Render(exportSeed())
	require.NoError(t, err)
	require.Greater(t, len(pages), 1)

	for i, page := range pages[:len(pages)-1] {
		assert.Len(t, strings.Split(page, "\n"), 10, "page %d", i)
	}
	assert.LessOrEqual(t, len(strings.Split(pages[len(pages)-1], "\n")), 10)
}

func TestRender_NoImages(t *testing.T) {
	gen := NewGenerator(0)
	report := exportSeed()
	report.Images = nil
	report.Findings[0].LinkedImageID = ""

	pages, err := gen.Render(report)
	require.NoError(t, err)

	doc := strings.Join(pages, "\n")
	assert.NotContains(t, doc, "STUDY IMAGES")
}

func TestNewGenerator_TinyPageFallsBack(t *testing.T) {
	gen := NewGenerator(3)
	assert.Equal(t, DefaultLinesPerPage, gen.linesPerPage)
}

func TestWrap(t *testing.T) {
	long := "  " + strings.Repeat("palabra ", 20)
	lines := wrap(long, 40)

	require.Greater(t, len(lines), 1)
	for _, line := range lines {
		assert.LessOrEqual(t, len(line), 40)
		assert.True(t, strings.HasPrefix(line, "  "), "indent carries to continuations: %q", line)
	}
}
