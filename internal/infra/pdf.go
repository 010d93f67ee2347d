package infra

// pdf.go renders thermal-receipt style sale tickets with go-pdf/fpdf:
// store header, sale code and date, item table, total.

import (
	"bytes"
	"fmt"

	"tiendapos/internal/model"

	"github.com/go-pdf/fpdf"
)

// RenderSaleReceipt renders a PDF receipt for sale in memory. Details should
// have Product preloaded; missing products print as "Producto".
func RenderSaleReceipt(sale *model.Sale, storeName string) ([]byte, error) {
	// 74mm wide, height grows with the item count.
	height := 90.0 + 5.0*float64(len(sale.Details))
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 74, Ht: height},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 4)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 8

	// ── Header ───────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(contentW, 7, tr(storeName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 8)
	pdf.CellFormat(contentW, 5, tr("Comprobante de venta"), "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 8)
	pdf.CellFormat(contentW, 5, tr("Venta N° "+sale.Code), "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 7)
	pdf.CellFormat(contentW, 4, sale.CreatedAt.Format("02/01/2006  15:04"), "", 1, "L", false, 0, "")
	if sale.NIT != "" {
		pdf.CellFormat(contentW, 4, tr("NIT/CI: "+sale.NIT), "", 1, "L", false, 0, "")
	}
	if sale.Customer != nil {
		pdf.CellFormat(contentW, 4, tr("Cliente: "+sale.Customer.Name), "", 1, "L", false, 0, "")
	}
	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	// ── Items ────────────────────────────────────────────────────────────────
	col1 := contentW * 0.46
	col2 := contentW * 0.14
	col3 := contentW * 0.12
	col4 := contentW * 0.28

	pdf.SetFont("Helvetica", "B", 7)
	pdf.CellFormat(col1, 5, "Producto", "B", 0, "L", false, 0, "")
	pdf.CellFormat(col2, 5, "Cant", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col3, 5, "Desc", "B", 0, "C", false, 0, "")
	pdf.CellFormat(col4, 5, "Subtotal", "B", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 7)
	for _, d := range sale.Details {
		name := "Producto"
		if d.Product != nil {
			name = d.Product.Name
		}
		if r := []rune(name); len(r) > 20 {
			name = string(r[:19]) + "."
		}
		disc := ""
		if !d.Discount.IsZero() {
			disc = d.Discount.StringFixed(0) + "%"
		}
		pdf.CellFormat(col1, 5, tr(name), "", 0, "L", false, 0, "")
		pdf.CellFormat(col2, 5, fmt.Sprintf("x%d", d.Quantity), "", 0, "C", false, 0, "")
		pdf.CellFormat(col3, 5, disc, "", 0, "C", false, 0, "")
		pdf.CellFormat(col4, 5, d.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	}

	pdf.Ln(2)
	pdf.Line(4, pdf.GetY(), pageW-4, pdf.GetY())
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(col1+col2+col3, 6, "TOTAL:", "", 0, "L", false, 0, "")
	pdf.CellFormat(col4, 6, "Bs "+sale.PaidAmount.StringFixed(2), "", 1, "R", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Helvetica", "I", 7)
	pdf.CellFormat(contentW, 4, tr("¡Gracias por su compra!"), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("pdf: render receipt: %w", err)
	}
	return buf.Bytes(), nil
}
