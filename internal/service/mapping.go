package service

import (
	"time"

	"tiendapos/internal/dto"
	"tiendapos/internal/model"

	"github.com/google/uuid"
)

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

func userToResponse(u *model.User) dto.UserResponse {
	return dto.UserResponse{
		ID: u.ID.String(), CI: u.CI, Name: u.Name, Phone: u.Phone, Email: u.Email,
		Role: u.Role, IsActive: u.IsActive, EmailVerified: u.EmailVerified,
	}
}

func categoryToResponse(c *model.Category) dto.CategoryResponse {
	return dto.CategoryResponse{ID: c.ID.String(), Name: c.Name, Description: c.Description}
}

func discountToResponse(d *model.Discount) dto.DiscountResponse {
	return dto.DiscountResponse{
		ID:             d.ID.String(),
		Name:           d.Name,
		Percentage:     d.Percentage,
		IsActive:       d.IsActive,
		ExpirationDate: d.ExpirationDate.Format(time.DateOnly),
	}
}

func productToResponse(p *model.Product, now time.Time) dto.ProductResponse {
	r := dto.ProductResponse{
		ID:                p.ID.String(),
		Name:              p.Name,
		Description:       p.Description,
		PhotoURL:          p.PhotoURL,
		Stock:             p.Stock,
		StockMinimum:      p.StockMinimum,
		PurchasePrice:     p.PurchasePrice,
		SalePrice:         p.SalePrice,
		EffectivePrice:    p.EffectivePrice(now).Round(2),
		IsActive:          p.IsActive,
		CategoryID:        p.CategoryID.String(),
		BelowStockMinimum: p.Stock <= p.StockMinimum,
	}
	if p.Category != nil {
		r.CategoryName = p.Category.Name
	}
	if p.Discount != nil {
		d := discountToResponse(p.Discount)
		r.Discount = &d
	}
	return r
}

func productToCatalog(p *model.Product, now time.Time) dto.CatalogProductResponse {
	r := dto.CatalogProductResponse{
		ID:             p.ID.String(),
		Name:           p.Name,
		Description:    p.Description,
		PhotoURL:       p.PhotoURL,
		SalePrice:      p.SalePrice,
		EffectivePrice: p.EffectivePrice(now).Round(2),
		Available:      p.IsActive && p.Stock > 0,
	}
	if p.Category != nil {
		r.Category = p.Category.Name
	}
	return r
}

func movementToResponse(m *model.StockMovement) dto.StockMovementResponse {
	return dto.StockMovementResponse{
		ID: m.ID.String(), Kind: m.Kind, Quantity: m.Quantity,
		StockBefore: m.StockBefore, StockAfter: m.StockAfter, Reason: m.Reason,
		ReferenceID: uuidPtrString(m.ReferenceID), CreatedAt: m.CreatedAt,
	}
}

func purchaseToResponse(p *model.Purchase) *dto.PurchaseResponse {
	r := &dto.PurchaseResponse{
		ID:             p.ID.String(),
		Reason:         p.Reason,
		Code:           p.Code,
		TotalAmount:    p.TotalAmount,
		CashRegisterID: uuidPtrString(p.CashRegisterID),
		CreatedAt:      p.CreatedAt,
		Details:        make([]dto.PurchaseDetailResponse, len(p.Details)),
	}
	for i, d := range p.Details {
		r.Details[i] = dto.PurchaseDetailResponse{
			ID: d.ID.String(), ProductID: d.ProductID.String(),
			Quantity: d.Quantity, Price: d.Price, Subtotal: d.Subtotal,
		}
		if d.Product != nil {
			r.Details[i].ProductName = d.Product.Name
		}
	}
	return r
}

func saleToResponse(s *model.Sale) *dto.SaleResponse {
	r := &dto.SaleResponse{
		ID:             s.ID.String(),
		Code:           s.Code,
		PaidAmount:     s.PaidAmount,
		NIT:            s.NIT,
		CustomerID:     uuidPtrString(s.CustomerID),
		CashRegisterID: uuidPtrString(s.CashRegisterID),
		OrderID:        uuidPtrString(s.OrderID),
		CreatedAt:      s.CreatedAt,
		Details:        make([]dto.SaleDetailResponse, len(s.Details)),
	}
	for i, d := range s.Details {
		r.Details[i] = dto.SaleDetailResponse{
			ID: d.ID.String(), ProductID: d.ProductID.String(), Quantity: d.Quantity,
			Price: d.Price, Discount: d.Discount, Subtotal: d.Subtotal,
		}
		if d.Product != nil {
			r.Details[i].ProductName = d.Product.Name
		}
	}
	return r
}

func registerToResponse(reg *model.CashRegister) *dto.CashRegisterResponse {
	return &dto.CashRegisterResponse{
		ID:             reg.ID.String(),
		UserID:         reg.UserID.String(),
		Opening:        reg.Opening,
		Closing:        reg.Closing,
		InitialBalance: reg.InitialBalance,
		SalesTotal:     reg.SalesTotal,
		PurchasesTotal: reg.PurchasesTotal,
		Total:          reg.Total,
	}
}

var orderStatusDisplay = map[model.OrderStatus]string{
	model.OrderPending:    "Pendiente",
	model.OrderConfirmed:  "Confirmado",
	model.OrderPreparing:  "Preparando",
	model.OrderReady:      "Listo",
	model.OrderDelivering: "En camino",
	model.OrderDelivered:  "Entregado",
	model.OrderCancelled:  "Cancelado",
}

func addressToResponse(a *model.DeliveryAddress) *dto.DeliveryAddressResponse {
	return &dto.DeliveryAddressResponse{
		ID: a.ID.String(), Name: a.Name, AddressLine: a.AddressLine, City: a.City,
		State: a.State, PostalCode: a.PostalCode, Latitude: a.Latitude,
		Longitude: a.Longitude, Notes: a.Notes,
	}
}

func orderToResponse(o *model.Order) *dto.OrderResponse {
	r := &dto.OrderResponse{
		ID:                    o.ID.String(),
		OrderNumber:           o.OrderNumber,
		Status:                string(o.Status),
		StatusDisplay:         orderStatusDisplay[o.Status],
		PaymentMethod:         o.PaymentMethod,
		PaymentStatus:         o.PaymentStatus,
		Subtotal:              o.Subtotal,
		TaxAmount:             o.TaxAmount,
		DeliveryFee:           o.DeliveryFee,
		TotalAmount:           o.TotalAmount,
		DeliveryNotes:         o.DeliveryNotes,
		EstimatedDeliveryTime: o.EstimatedDeliveryTime,
		ActualDeliveryTime:    o.ActualDeliveryTime,
		UserID:                o.UserID.String(),
		SaleID:                uuidPtrString(o.SaleID),
		Items:                 make([]dto.OrderItemResponse, len(o.Items)),
		TotalItems:            o.TotalItems(),
		CreatedAt:             o.CreatedAt,
		UpdatedAt:             o.UpdatedAt,
	}
	if o.DeliveryAddress != nil {
		r.DeliveryAddress = addressToResponse(o.DeliveryAddress)
	}
	for i, it := range o.Items {
		r.Items[i] = dto.OrderItemResponse{
			ID: it.ID.String(), ProductID: it.ProductID.String(), ProductName: it.ProductName,
			ProductDescription: it.ProductDescription, Quantity: it.Quantity,
			UnitPrice: it.UnitPrice, TotalPrice: it.TotalPrice,
		}
	}
	return r
}

func historyToResponse(h *model.OrderStatusHistory) dto.OrderStatusHistoryResponse {
	r := dto.OrderStatusHistoryResponse{
		ID:        h.ID.String(),
		NewStatus: string(h.NewStatus),
		Notes:     h.Notes,
		ChangedBy: uuidPtrString(h.ChangedBy),
		CreatedAt: h.CreatedAt,
	}
	if h.PreviousStatus != nil {
		s := string(*h.PreviousStatus)
		r.PreviousStatus = &s
	}
	return r
}

func paymentToResponse(p *model.PaymentTransaction) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:             p.ID.String(),
		MovementID:     p.MovementID,
		OrderID:        uuidPtrString(p.OrderID),
		Amount:         p.Amount,
		PaymentMethod:  p.PaymentMethod,
		Status:         p.Status,
		QRData:         p.QRCode,
		QRCode:         p.FormattedQR(),
		Validity:       p.QRValidity,
		SenderName:     p.SenderName,
		SenderBank:     p.SenderBank,
		SenderDocument: p.SenderDocument,
		SenderAccount:  p.SenderAccount,
		ExpiresAt:      p.ExpiresAt,
		CompletedAt:    p.CompletedAt,
		CreatedAt:      p.CreatedAt,
	}
}
