package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"tiendapos/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ReceiptJobPayload is the job body on QueueReceipt.
type ReceiptJobPayload struct {
	SaleID string `json:"sale_id"`
}

// SaleLoader is satisfied by repository.SaleRepository.
type SaleLoader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.Sale, error)
}

// ReceiptMailer is satisfied by *infra.Mailer.
type ReceiptMailer interface {
	Enabled() bool
	SendReceipt(to, subject, body, filename string, pdf []byte) error
}

// RenderFunc renders a sale receipt; infra.RenderSaleReceipt in production.
type RenderFunc func(sale *model.Sale, storeName string) ([]byte, error)

// ReceiptWorker renders a sale's PDF receipt after commit and emails it to
// the customer, when the sale has one with an email address.
type ReceiptWorker struct {
	sales     SaleLoader
	mailer    ReceiptMailer
	render    RenderFunc
	storeName string
}

func NewReceiptWorker(sales SaleLoader, mailer ReceiptMailer, render RenderFunc, storeName string) *ReceiptWorker {
	return &ReceiptWorker{sales: sales, mailer: mailer, render: render, storeName: storeName}
}

func (w *ReceiptWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ReceiptJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("receipt_worker: invalid payload")
		return nil
	}
	saleID, err := uuid.Parse(payload.SaleID)
	if err != nil {
		log.Error().Str("sale_id", payload.SaleID).Msg("receipt_worker: invalid sale id")
		return nil
	}

	sale, err := w.sales.FindByID(ctx, saleID)
	if err != nil {
		return fmt.Errorf("receipt_worker: load sale %s: %w", saleID, err)
	}
	if sale.Customer == nil || sale.Customer.Email == "" {
		log.Debug().Str("sale_id", sale.ID.String()).Msg("receipt_worker: sale without customer email, skipping")
		return nil
	}
	if !w.mailer.Enabled() {
		log.Warn().Str("sale_id", sale.ID.String()).Msg("receipt_worker: SMTP not configured, receipt not sent")
		return nil
	}

	pdf, err := w.render(sale, w.storeName)
	if err != nil {
		return err
	}
	subject := fmt.Sprintf("%s - Comprobante de venta %s", w.storeName, sale.Code)
	body := fmt.Sprintf("Hola %s,\n\nAdjuntamos el comprobante de su compra por Bs %s.\n\nGracias por su preferencia.",
		sale.Customer.Name, sale.PaidAmount.StringFixed(2))
	if err := w.mailer.SendReceipt(sale.Customer.Email, subject, body, "venta_"+sale.Code+".pdf", pdf); err != nil {
		return fmt.Errorf("receipt_worker: send receipt %s: %w", sale.Code, err)
	}
	log.Info().Str("sale_id", sale.ID.String()).Str("to", sale.Customer.Email).Msg("receipt_worker: receipt sent")
	return nil
}
