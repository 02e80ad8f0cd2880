package infra

// pdf.go: printable pickup slip for one ticket, rendered with go-pdf/fpdf.
// A7-ish page (74mm × 105mm) so it fits the thermal printers at each punto:
//   - event header
//   - holder, locality and seat
//   - ticket / transaction ids
//   - pickup data once the ticket has been printed
//   - reprint count

import (
	"bytes"
	"fmt"

	"taquilla/internal/model"

	"github.com/go-pdf/fpdf"
)

// GenerateTicketPDF renders the pickup slip for t.
func GenerateTicketPDF(t *model.Ticket) ([]byte, error) {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: 105},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("") // cp1252 for accents

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8
	labelW := contentW * 0.38
	valueW := contentW - labelW

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "B", 7)
		pdf.CellFormat(labelW, 4.5, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 7)
		pdf.CellFormat(valueW, 4.5, tr(truncate(value, 34)), "", 1, "L", false, 0, "")
	}
	separator := func() {
		pdf.Ln(1.5)
		pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
		pdf.Ln(1.5)
	}

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(contentW, 7, tr("Taquilla"), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 5, tr(truncate(t.Localidad, 30)), "", 1, "C", false, 0, "")
	separator()

	// ── Holder ───────────────────────────────────────────────────────────────
	row("Titular:", t.FirstName+" "+t.LastName)
	if t.Cedula != "" {
		row("Cédula:", t.Cedula)
	}
	row("Asiento:", t.Asiento)
	row("Ticket ID:", t.TicketID)
	row("Transacción:", t.TransactionID)

	// ── Pickup ───────────────────────────────────────────────────────────────
	if t.Impreso {
		separator()
		if t.FechaImpresion != nil {
			row("Impreso:", t.FechaImpresion.Format("02/01/2006 15:04"))
		}
		if t.PuntoTrabajo != nil {
			row("Punto:", *t.PuntoTrabajo)
		}
		if t.QuienRetira != nil {
			retira := *t.QuienRetira
			if retira == model.RetiraOtro && t.QuienOtro != nil {
				retira = *t.QuienOtro
				if t.Parentesco != nil {
					retira += " (" + *t.Parentesco + ")"
				}
			}
			row("Retira:", retira)
		}
		if t.Celular != nil {
			row("Celular:", *t.Celular)
		}
	}

	if n := len(t.Reimpresiones); n > 0 {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "I", 7)
		pdf.CellFormat(contentW, 4, tr(fmt.Sprintf("Reimpresión N° %d", n)), "", 1, "C", false, 0, "")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render ticket %s: %w", t.TicketID, err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
