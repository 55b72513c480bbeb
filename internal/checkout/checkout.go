// Package checkout turns a session cart into one stored order.
package checkout

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/balkan_kitchen/internal/apperr"
	"github.com/Skotchmaster/balkan_kitchen/internal/cart"
	"github.com/Skotchmaster/balkan_kitchen/internal/logging"
	"github.com/Skotchmaster/balkan_kitchen/internal/models"
)

const DefaultTimeout = 15 * time.Second

// Validation codes, checked in this order.
const (
	CodeMissingName          = "missing_name"
	CodeMissingPhone         = "missing_phone"
	CodeEmptyCart            = "empty_cart"
	CodeInvalidPaymentMethod = "invalid_payment_method"
)

type OrderCreator interface {
	CreateOrder(ctx context.Context, o *models.Order) (*models.Order, error)
}

type Request struct {
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	Notes         string `json:"notes"`
	PaymentMethod string `json:"payment_method"`
}

type Submitter struct {
	Orders  OrderCreator
	Timeout time.Duration
}

// Submit validates req against the cart and sends a single create. Once the
// store accepted the order, the ordered lines leave the cart; lines added
// while the create was in flight stay.
func (s *Submitter) Submit(ctx context.Context, store *cart.Store, req Request) (*models.Order, error) {
	lines := store.Items()
	order, err := buildFromLines(lines, req)
	if err != nil {
		return nil, err
	}

	timeout := s.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	cctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	created, err := s.Orders.CreateOrder(cctx, order)
	if err != nil {
		ce := apperr.Classify(err)
		logging.FromContext(ctx).Warn("checkout_submit_failed",
			"kind", ce.Kind, "code", ce.Code, "items", len(order.Items), "error", err)
		return nil, fmt.Errorf("create order: %w", ce)
	}

	ordered := make([]uuid.UUID, 0, len(lines))
	for _, l := range lines {
		ordered = append(ordered, l.LineID)
	}
	store.RemoveLines(ordered)
	return created, nil
}

// Build validates req and snapshots the cart into a pending order.
func Build(store *cart.Store, req Request) (*models.Order, error) {
	return buildFromLines(store.Items(), req)
}

func buildFromLines(lines []cart.LineItem, req Request) (*models.Order, error) {
	name := strings.TrimSpace(req.CustomerName)
	if name == "" {
		return nil, apperr.Validation(CodeMissingName)
	}
	phone := strings.TrimSpace(req.CustomerPhone)
	if phone == "" {
		return nil, apperr.Validation(CodeMissingPhone)
	}

	if len(lines) == 0 {
		return nil, apperr.Validation(CodeEmptyCart)
	}

	pm, err := models.ParsePaymentMethod(strings.ToLower(strings.TrimSpace(req.PaymentMethod)))
	if err != nil {
		return nil, apperr.Validation(CodeInvalidPaymentMethod)
	}

	// lines and total from one copy
	total := decimal.Zero
	items := make([]models.OrderLine, 0, len(lines))
	for _, l := range lines {
		total = total.Add(l.Subtotal())
		items = append(items, models.OrderLine{
			ID:       l.ItemID,
			Name:     l.Name,
			Price:    l.Price,
			Quantity: l.Quantity,
		})
	}

	var notes *string
	if n := strings.TrimSpace(req.Notes); n != "" {
		notes = &n
	}

	return &models.Order{
		CustomerName:  name,
		CustomerPhone: phone,
		Items:         items,
		TotalAmount:   total,
		Status:        models.StatusPending,
		PaymentMethod: pm,
		Notes:         notes,
	}, nil
}
