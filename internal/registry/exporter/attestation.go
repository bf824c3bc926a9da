package exporter

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"quorum/internal/registry/models"
)

// renderAttestation produces the human-readable attestation document. Body
// text wraps by measured string width (MultiCell), and the footer's
// "Page N of M" uses the page alias so the total is always correct however
// many pages the content produces.
func renderAttestation(res *models.Resolution, generatedAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	// Pin the embedded metadata date so identical content renders to
	// identical bytes across runs.
	pdf.SetCreationDate(generatedAt.UTC())
	pdf.SetModificationDate(generatedAt.UTC())
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 25)
	pdf.AliasNbPages("")

	pdf.SetFooterFunc(func() {
		pdf.SetY(-18)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 6, fmt.Sprintf("Page %d of {nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 9, "Certificate of Registry Verification", "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 9)
	pdf.SetTextColor(90, 90, 90)
	pdf.MultiCell(0, 4.5,
		"This attestation reports signals derived from the verification registry at the "+
			"time of generation. It is not authoritative and does not itself confer legal "+
			"authority over the underlying governance record.", "", "L", false)
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(4)

	field := func(label, value string) {
		if value == "" {
			value = "-"
		}
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(52, 6, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
		// MultiCell wraps long values (paths, hashes) at the measured width.
		pdf.MultiCell(0, 6, value, "", "L", false)
	}

	section := func(title string) {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, title, "", 1, "L", false, 0, "")
		pdf.SetDrawColor(160, 160, 160)
		x, y := pdf.GetX(), pdf.GetY()
		pageWidth, _ := pdf.GetPageSize()
		pdf.Line(x, y, pageWidth-20, y)
		pdf.Ln(2)
	}

	field("Generated", generatedAt.UTC().Format(time.RFC3339))

	if res.Ledger != nil {
		section("Governance Record")
		field("Ledger ID", res.Ledger.ID.String())
		field("Title", res.Ledger.Title)
		field("Status", string(res.Ledger.Status))
		field("Lane", string(res.Ledger.Lane))
	}

	if res.Entity != nil {
		section("Owning Entity")
		field("Name", res.Entity.Name)
		field("Slug", res.Entity.Slug)
	}

	section("Verification")
	if res.Verified != nil {
		field("Verification level", string(res.Verified.Level))
		field("Archived", fmt.Sprintf("%t", res.Verified.Archived))
		field("Content hash (SHA-256)", res.Verified.FileHash)
		field("Last updated", res.Verified.UpdatedAt.UTC().Format(time.RFC3339))
	} else {
		field("Verification level", string(models.LevelUnverified))
		field("Content hash (SHA-256)", res.Hash)
	}

	section("Storage Pointers")
	if res.Best != nil {
		field("Best artifact source", string(res.Best.Kind))
		field("Best artifact", res.Best.Pointer.Key())
	}
	if res.Public != nil {
		field("Minute book", res.Public.Key())
	}
	if res.Verified != nil && !res.Verified.Pointer.IsZero() {
		field("Verified archive", res.Verified.Pointer.Key())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
