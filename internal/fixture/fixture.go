// Package fixture seeds the session with the demonstration study: a feline
// abdominal ultrasound with an AI diagnosis, eleven per-organ findings and
// four linked images. Narrative texts are the radiologist-style Spanish
// source phrasings the AI drafts arrive in.
package fixture

import (
	"time"

	"github.com/google/uuid"

	"github.com/vetreport-server/internal/domain"
)

// SeedReport builds a fresh session report. The report id is regenerated per
// session; finding and image ids are stable so the UI shell can link them.
func SeedReport() domain.Report {
	return domain.Report{
		ID: uuid.NewString(),
		PatientInfo: domain.PatientInfo{
			Name:         "Pony",
			Species:      "Felino",
			Breed:        "Común Europeo",
			Sex:          "Hembra esterilizada",
			Age:          "10 años",
			Tutor:        "Nieto",
			Veterinarian: "Cardozo Guadalupe",
			StudyType:    "Abdominal",
			Date:         "13/11/2025",
		},
		Diagnosis: domain.Diagnosis{
			Confidence: 0.95,
			Items: []string{
				"Nódulos esplénicos múltiples",
				"Adrenomegalia bilateral con nódulo en glándula adrenal izquierda",
				"Linfadenomegalia gástrica",
				"Hernia inguinal",
			},
			Status: domain.StatusPending,
		},
		Findings: seedFindings(),
		Images:   seedImages(),
	}
}

func seedFindings() []domain.Finding {
	liverText := "Parénquima homogéneo. Textura levemente granular. Contorno liso y regular, " +
		"delineado por una fina cápsula hiperecogénica. La porción caudo ventral no sobrepasa el " +
		"fundus gástrico. Las venas hepáticas se aprecian fácilmente en el parénquima hepático como " +
		"estructuras anecogénicas tubulares. Las venas portales se diferencian de las venas " +
		"sistémicas en el parénquima por sus paredes hiperecogénicas."
	gallbladderText := "Distención media por contenido anecoico, con un volumen de 6.61 cm³. " +
		"Pared fina y lisa. Mide 41.54 mm x 15.70 mm x 19.35 mm."
	spleenOriginal := "De topografía habitual. Espesor de 10.95 mm, conservado, contornos " +
		"regulares y márgenes preservados. Parénquima de ecotextura homogénea de grano fino."
	spleenCurrent := "De topografía habitual. Espesor de 11.05 mm, conservado, contornos " +
		"regulares y márgenes preservados. Parénquima de ecotextura homogénea de grano fino. " +
		"Se observan múltiples lesiones nodulares hipoecoicas, de contornos definidos, que miden " +
		"entre 2.91 mm y 8.69 mm. Arquitectura vascular preservada."
	stomachText := "Distendido, presenta contenido líquido abundante, adecuado peristaltismo y " +
		"paredes de espesor levemente engrosado (4.69 mm en porción evaluada) que conservan " +
		"estratificación mural."
	smallBowelText := "Peristaltismo adecuado en asas delgadas evaluadas con estratificación " +
		"mural preservada, con carga mucosa a gaseosa intra luminal. Duodeno de 4.01 mm, yeyuno " +
		"de espesor mural conservado."
	largeBowelText := "Colon presentó grosor de pared de 0.76 mm en región evaluada, con " +
		"contenido fecal sólido en región descendente. Ciego presenta un espesor mural conservado."
	pancreasText := "Ecoestructura normal. Espesor 6.52 mm por 13.48 mm, normal."
	leftKidneyText := "Tamaño 46.51 mm por 27.53 mm, conservado. Con contornos regulares. " +
		"Corteza de ecotextura homogénea de grano fino. Relación cortico medular conservada. " +
		"Diferenciación cortico medular normal. Pelvis renal conservada."
	rightKidneyText := "Tamaño 45.16 mm por 29.41 mm, conservado. Con contornos regulares. " +
		"Corteza de ecotextura homogénea de grano fino. Relación cortico medular conservada. " +
		"Diferenciación cortico medular normal. Pelvis renal conservada."
	adrenalText := "Adrenal izquierda aumentada de tamaño con nódulo de 8.2 mm. Adrenal derecha " +
		"de tamaño conservado."
	bladderText := "Distendida con contenido anecoico. Paredes finas y lisas. Sin sedimento ni " +
		"masas intraluminales."

	spleenEditedAt, _ := time.Parse("02/01/2006 15:04", "13/11/2025 10:25")

	return []domain.Finding{
		{
			ID:            "finding-1",
			Organ:         "Hígado",
			Confidence:    0.92,
			OriginalText:  liverText,
			CurrentText:   liverText,
			Status:        domain.StatusPending,
			LinkedImageID: "img-1",
		},
		{
			ID:            "finding-2",
			Organ:         "Vesícula Biliar",
			Confidence:    0.67,
			OriginalText:  gallbladderText,
			CurrentText:   gallbladderText,
			Status:        domain.StatusPending,
			LinkedImageID: "img-1",
			AbnormalValues: []domain.AbnormalValue{
				{Text: "6.61 cm³", Value: 6.61, Unit: "cm³", NormalRange: [2]float64{2.0, 5.0}},
			},
		},
		{
			ID:            "finding-3",
			Organ:         "Bazo",
			Confidence:    0.88,
			OriginalText:  spleenOriginal,
			CurrentText:   spleenCurrent,
			IsEdited:      true,
			EditedBy:      "Dr. Cardozo",
			EditedAt:      spleenEditedAt,
			Status:        domain.StatusEdited,
			LinkedImageID: "img-2",
			AbnormalValues: []domain.AbnormalValue{
				{Text: "11.05 mm", Value: 11.05, Unit: "mm", NormalRange: [2]float64{8.0, 10.0}},
				{Text: "2.91 mm", Value: 2.91, Unit: "mm", NormalRange: [2]float64{0, 3.0}},
				{Text: "8.69 mm", Value: 8.69, Unit: "mm", NormalRange: [2]float64{0, 3.0}},
			},
		},
		{
			ID:            "finding-4",
			Organ:         "Estómago",
			Confidence:    0.91,
			OriginalText:  stomachText,
			CurrentText:   stomachText,
			Status:        domain.StatusAccepted,
			LinkedImageID: "img-2",
			AbnormalValues: []domain.AbnormalValue{
				{Text: "4.69 mm", Value: 4.69, Unit: "mm", NormalRange: [2]float64{2.0, 4.0}},
			},
		},
		{
			ID:            "finding-5",
			Organ:         "Intestino Delgado",
			Confidence:    0.85,
			OriginalText:  smallBowelText,
			CurrentText:   smallBowelText,
			Status:        domain.StatusPending,
			LinkedImageID: "img-3",
			AbnormalValues: []domain.AbnormalValue{
				{Text: "4.01 mm", Value: 4.01, Unit: "mm", NormalRange: [2]float64{2.5, 3.5}},
			},
		},
		{
			ID:            "finding-6",
			Organ:         "Intestino Grueso",
			Confidence:    0.89,
			OriginalText:  largeBowelText,
			CurrentText:   largeBowelText,
			Status:        domain.StatusPending,
			LinkedImageID: "img-3",
		},
		{
			ID:            "finding-7",
			Organ:         "Páncreas",
			Confidence:    0.94,
			OriginalText:  pancreasText,
			CurrentText:   pancreasText,
			Status:        domain.StatusAccepted,
			LinkedImageID: "img-2",
		},
		{
			ID:            "finding-8",
			Organ:         "Riñón Izquierdo",
			Confidence:    0.90,
			OriginalText:  leftKidneyText,
			CurrentText:   leftKidneyText,
			Status:        domain.StatusPending,
			LinkedImageID: "img-4",
			AbnormalValues: []domain.AbnormalValue{
				{Text: "46.51 mm", Value: 46.51, Unit: "mm", NormalRange: [2]float64{30.0, 45.0}},
			},
		},
		{
			ID:            "finding-9",
			Organ:         "Riñón Derecho",
			Confidence:    0.91,
			OriginalText:  rightKidneyText,
			CurrentText:   rightKidneyText,
			Status:        domain.StatusPending,
			LinkedImageID: "img-4",
			AbnormalValues: []domain.AbnormalValue{
				{Text: "45.16 mm", Value: 45.16, Unit: "mm", NormalRange: [2]float64{30.0, 45.0}},
				{Text: "29.41 mm", Value: 29.41, Unit: "mm", NormalRange: [2]float64{20.0, 28.0}},
			},
		},
		{
			ID:            "finding-10",
			Organ:         "Glándulas Adrenales",
			Confidence:    0.72,
			OriginalText:  adrenalText,
			CurrentText:   adrenalText,
			Status:        domain.StatusPending,
			LinkedImageID: "img-3",
			AbnormalValues: []domain.AbnormalValue{
				{Text: "8.2 mm", Value: 8.2, Unit: "mm", NormalRange: [2]float64{3.0, 6.0}},
			},
		},
		{
			ID:            "finding-11",
			Organ:         "Vejiga",
			Confidence:    0.96,
			OriginalText:  bladderText,
			CurrentText:   bladderText,
			Status:        domain.StatusAccepted,
			LinkedImageID: "img-4",
		},
	}
}

func seedImages() []domain.StudyImage {
	return []domain.StudyImage{
		{ID: "img-1", URL: "/images/image5.png", Type: domain.ImageUltrasound, Metadata: "Hígado / Vesícula - Vista sagital"},
		{ID: "img-2", URL: "/images/image2.png", Type: domain.ImageUltrasound, Metadata: "Bazo / Estómago - Vista transversal"},
		{ID: "img-3", URL: "/images/image3.png", Type: domain.ImageUltrasound, Metadata: "Intestino / Adrenales - Vista coronal"},
		{ID: "img-4", URL: "/images/image4.png", Type: domain.ImageUltrasound, Metadata: "Riñones / Vejiga - Vista longitudinal"},
	}
}
