// Package invoice renders the clinic's PDF invoices ("devis"): a clinic
// header, the insurance block, one table per care section, and the amount
// left to the patient after the insurance share.
package invoice

import (
	"bytes"
	"fmt"
	"math"
	"time"

	"github.com/go-pdf/fpdf"
)

// Meta is the invoice header block.
type Meta struct {
	Nom         string  `json:"nom"`
	Prenom      string  `json:"prenom"`
	Police      string  `json:"police"`
	Assurance   string  `json:"assurance"`
	EnvoyeA     string  `json:"envoye_a"`
	Pourcentage float64 `json:"pourcentage"` // share covered by the insurance, 0-100
}

// Article is one billed line inside a section.
type Article struct {
	Libelle  string  `json:"libelle"`
	Quantite float64 `json:"quantite"`
	Montant  float64 `json:"montant"`
}

// Section groups articles under a heading (consultations, analyses, ...).
type Section struct {
	Titre    string    `json:"titre"`
	Articles []Article `json:"articles"`
}

var frenchMonths = map[time.Month]string{
	time.January:   "Janvier",
	time.February:  "Février",
	time.March:     "Mars",
	time.April:     "Avril",
	time.May:       "Mai",
	time.June:      "Juin",
	time.July:      "Juillet",
	time.August:    "Août",
	time.September: "Septembre",
	time.October:   "Octobre",
	time.November:  "Novembre",
	time.December:  "Décembre",
}

// PatientShare is the fraction of the gross amount the patient pays, as a
// percentage. An insurance share of 80 leaves 20 to the patient.
func PatientShare(meta Meta) float64 {
	return 100 - meta.Pourcentage
}

// ArticleNet is the rounded net amount the patient owes for one article.
func ArticleNet(a Article, patientShare float64) int {
	return int(math.Round(a.Montant * a.Quantite * patientShare / 100))
}

// SectionNet sums the net amounts of a section's articles.
func SectionNet(s Section, patientShare float64) int {
	total := 0
	for _, a := range s.Articles {
		total += ArticleNet(a, patientShare)
	}
	return total
}

// TotalNet sums the net amounts across all sections.
func TotalNet(sections []Section, patientShare float64) int {
	total := 0
	for _, s := range sections {
		total += SectionNet(s, patientShare)
	}
	return total
}

// Filename builds the download name for an invoice generated now.
func Filename(meta Meta, now time.Time) string {
	return fmt.Sprintf("facture_%s_%s_%s.pdf", meta.Nom, meta.Prenom, now.Format("20060102_150405"))
}

// Render produces the invoice PDF.
func Render(meta Meta, sections []Section, now time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	patientShare := PatientShare(meta)

	pdf.SetHeaderFunc(func() {
		pdf.SetFont("Arial", "B", 16)
		pdf.SetTextColor(6, 182, 212)
		pdf.CellFormat(0, 10, tr("Devis Cabinet RAPHA"), "", 1, "C", false, 0, "")
		pdf.Ln(10)
	})
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Arial", "I", 8)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	// Insurance header
	pdf.SetFont("Arial", "B", 14)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(0, 10, tr("Société d'assurance : "+meta.Assurance), "", 1, "C", false, 0, "")
	moisAnnee := fmt.Sprintf("%s %d", frenchMonths[now.Month()], now.Year())
	pdf.CellFormat(0, 10, tr("Facture du mois de "+moisAnnee), "", 1, "C", false, 0, "")
	if meta.EnvoyeA != "" {
		pdf.CellFormat(0, 10, tr(meta.EnvoyeA), "", 1, "C", false, 0, "")
	}
	pdf.CellFormat(0, 10, tr("doit au cabinet Rapha"), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	pdf.SetFont("Arial", "", 11)
	pdf.CellFormat(95, 10, tr("Nom: "+meta.Nom), "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 10, tr("N° Police: "+meta.Police), "", 1, "L", false, 0, "")
	pdf.CellFormat(95, 10, tr("Prénom: "+meta.Prenom), "", 0, "L", false, 0, "")
	pdf.CellFormat(95, 10, "Date: "+now.Format("02/01/2006"), "", 1, "L", false, 0, "")
	pdf.Ln(5)

	// Section tables
	headers := []string{"Libellé", "Quantité", "Montant unitaire", "% Assurance", "Net à payer"}
	colWidths := []float64{50, 30, 35, 25, 45}

	for _, section := range sections {
		pdf.SetFont("Arial", "B", 12)
		pdf.SetFillColor(6, 182, 212)
		pdf.SetTextColor(255, 255, 255)
		titre := section.Titre
		if titre == "" {
			titre = "Section"
		}
		pdf.CellFormat(0, 10, tr(titre), "1", 1, "C", true, 0, "")

		pdf.SetFont("Arial", "B", 11)
		for i, header := range headers {
			pdf.CellFormat(colWidths[i], 10, tr(header), "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(0, 0, 0)
		for _, article := range section.Articles {
			net := ArticleNet(article, patientShare)
			row := []string{
				article.Libelle,
				fmt.Sprintf("%d", int(article.Quantite)),
				fmt.Sprintf("%d Fcfa", int(article.Montant)),
				fmt.Sprintf("%d%%", int(meta.Pourcentage)),
				fmt.Sprintf("%d Fcfa", net),
			}
			for i, datum := range row {
				pdf.CellFormat(colWidths[i], 10, tr(datum), "1", 0, "L", false, 0, "")
			}
			pdf.Ln(-1)
		}

		pdf.SetFont("Arial", "B", 11)
		pdf.SetTextColor(6, 182, 212)
		var labelWidth float64
		for _, w := range colWidths[:len(colWidths)-1] {
			labelWidth += w
		}
		pdf.CellFormat(labelWidth, 10, tr("Sous-total de la section"), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colWidths[len(colWidths)-1], 10,
			fmt.Sprintf("%d Fcfa", SectionNet(section, patientShare)), "1", 1, "C", false, 0, "")
		pdf.Ln(3)
	}

	pdf.SetFont("Arial", "B", 12)
	pdf.SetTextColor(220, 20, 60)
	pdf.CellFormat(0, 10,
		tr(fmt.Sprintf("MONTANT À PAYER PAR LE PATIENT: %d Fcfa", TotalNet(sections, patientShare))),
		"", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}
