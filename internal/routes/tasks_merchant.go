package routes

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/paisaback/paisaback/internal/geo"
	"github.com/paisaback/paisaback/internal/merchant"
	"github.com/paisaback/paisaback/internal/offer"
	"github.com/paisaback/paisaback/internal/txn"
)

func merchantJSON(m merchant.Merchant) fiber.Map {
	return fiber.Map{
		"id":             m.ID,
		"business_name":  m.BusinessName,
		"contact_person": m.ContactPerson,
		"mobile":         m.Mobile,
		"email":          m.Email,
		"category_id":    m.CategoryID,
		"latitude":       m.Location.Lat,
		"longitude":      m.Location.Lng,
		"district":       m.District,
		"state":          m.State,
		"address":        m.Address,
		"qr_code":        m.QRCode,
		"status":         m.Status,
	}
}

func (h *TaskHandler) merchantDashboard(c *fiber.Ctx) error {
	sess := sessionFromCtx(c)
	ctx := c.UserContext()

	m, err := h.deps.Merchants.Get(ctx, sess.MerchantID)
	if err != nil {
		return respondError(c, http.StatusNotFound, "merchant not found")
	}
	bal, err := h.deps.Wallets.Balance(ctx, sess.MerchantID)
	if err != nil {
		h.deps.Logger.Error("wallet balance", "error", err)
		return respondError(c, http.StatusInternalServerError, "could not load dashboard")
	}
	items, err := h.deps.Txns.ListForMerchant(ctx, sess.MerchantID, "")
	if err != nil {
		h.deps.Logger.Error("list transactions", "error", err)
		return respondError(c, http.StatusInternalServerError, "could not load dashboard")
	}

	pending := 0
	for _, item := range items {
		if item.Status == txn.StatusPending {
			pending++
		}
	}
	if len(items) > dashboardTxnLimit {
		items = items[:dashboardTxnLimit]
	}

	return respondOK(c, fiber.Map{
		"profile":             merchantJSON(m),
		"wallet":              fiber.Map{"balance": rupees(bal.AmountPaise), "as_of": bal.AsOf},
		"pending_count":       pending,
		"recent_transactions": txnListJSON(items, "customer_name"),
	})
}

func (h *TaskHandler) merchantProfile(c *fiber.Ctx) error {
	sess := sessionFromCtx(c)
	m, err := h.deps.Merchants.Get(c.UserContext(), sess.MerchantID)
	if err != nil {
		return respondError(c, http.StatusNotFound, "merchant not found")
	}
	return respondOK(c, merchantJSON(m))
}

func (h *TaskHandler) updateMerchantProfile(c *fiber.Ctx) error {
	var req struct {
		BusinessName  string  `json:"business_name"`
		ContactPerson string  `json:"contact_person"`
		Email         string  `json:"email"`
		CategoryID    string  `json:"category_id"`
		Latitude      float64 `json:"latitude"`
		Longitude     float64 `json:"longitude"`
		District      string  `json:"district"`
		State         string  `json:"state"`
		Address       string  `json:"address"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	sess := sessionFromCtx(c)
	m, err := h.deps.Merchants.UpdateProfile(c.UserContext(), sess.MerchantID, merchant.ProfileInput{
		BusinessName:  req.BusinessName,
		ContactPerson: req.ContactPerson,
		Email:         req.Email,
		CategoryID:    req.CategoryID,
		Location:      geo.Point{Lat: req.Latitude, Lng: req.Longitude},
		District:      req.District,
		State:         req.State,
		Address:       req.Address,
	})
	switch {
	case err == nil:
		return respondOK(c, merchantJSON(m))
	case errors.Is(err, merchant.ErrInvalidProfile):
		return respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, merchant.ErrNotFound):
		return respondError(c, http.StatusNotFound, "merchant not found")
	default:
		h.deps.Logger.Error("update merchant profile", "error", err)
		return respondError(c, http.StatusInternalServerError, "could not update profile")
	}
}

func (h *TaskHandler) merchantTransactions(c *fiber.Ctx) error {
	sess := sessionFromCtx(c)
	search := searchQuery(c)

	items, err := h.deps.Txns.ListForMerchant(c.UserContext(), sess.MerchantID, search)
	if err != nil {
		h.deps.Logger.Error("list transactions", "error", err)
		return respondError(c, http.StatusInternalServerError, "could not load transactions")
	}
	return respondOK(c, txnListJSON(items, "customer_name"))
}

// updateTxn applies the merchant's review decision. The full stored
// transaction comes back so clients reconcile against server truth instead
// of patching local state.
func (h *TaskHandler) updateTxn(c *fiber.Ctx) error {
	var req struct {
		TxnID  string `json:"txn_id"`
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	sess := sessionFromCtx(c)
	ctx := c.UserContext()

	var updated txn.Transaction
	var err error
	switch txn.Status(strings.ToUpper(strings.TrimSpace(req.Status))) {
	case txn.StatusConfirmed:
		updated, err = h.deps.Txns.Confirm(ctx, sess.MerchantID, req.TxnID)
	case txn.StatusRejected:
		updated, err = h.deps.Txns.Reject(ctx, sess.MerchantID, req.TxnID)
	default:
		return respondError(c, http.StatusBadRequest, "status must be CONFIRMED or REJECTED")
	}

	switch {
	case err == nil:
		return respondOK(c, txnJSON(updated))
	case errors.Is(err, txn.ErrNotFound):
		return respondError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, txn.ErrNotOwner):
		return respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, txn.ErrTerminalStatus):
		return respondError(c, http.StatusConflict, err.Error())
	default:
		h.deps.Logger.Error("update txn", "error", err)
		return respondError(c, http.StatusInternalServerError, "could not update transaction")
	}
}

func (h *TaskHandler) createOffer(c *fiber.Ctx) error {
	var req struct {
		Title     string  `json:"title"`
		Percent   float64 `json:"percent"`
		ExpiresAt string  `json:"expires_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	var expires time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "expires_at must be RFC3339")
		}
		expires = t
	}

	sess := sessionFromCtx(c)
	o, err := h.deps.Offers.Create(c.UserContext(), offer.CreateInput{
		MerchantID: sess.MerchantID,
		Title:      req.Title,
		Percent:    req.Percent,
		ExpiresAt:  expires,
	})
	switch {
	case err == nil:
		return respondCreated(c, offerJSON(o))
	case errors.Is(err, offer.ErrInvalidOffer):
		return respondError(c, http.StatusBadRequest, err.Error())
	default:
		h.deps.Logger.Error("create offer", "error", err)
		return respondError(c, http.StatusInternalServerError, "could not create offer")
	}
}

func (h *TaskHandler) saveOfferDraft(c *fiber.Ctx) error {
	var req struct {
		Title     string  `json:"title"`
		Percent   float64 `json:"percent"`
		ExpiresAt string  `json:"expires_at"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	draft := offer.Draft{Title: req.Title, Percent: req.Percent}
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			return respondError(c, http.StatusBadRequest, "expires_at must be RFC3339")
		}
		draft.ExpiresAt = t
	}

	sess := sessionFromCtx(c)
	if err := h.deps.Offers.SaveDraft(c.UserContext(), sess.MerchantID, draft); err != nil {
		h.deps.Logger.Error("save draft", "error", err)
		return respondError(c, http.StatusInternalServerError, "could not save draft")
	}
	return respondMsg(c, "draft saved", nil)
}

func (h *TaskHandler) getOfferDraft(c *fiber.Ctx) error {
	sess := sessionFromCtx(c)
	draft, err := h.deps.Offers.LoadDraft(c.UserContext(), sess.MerchantID)
	switch {
	case err == nil:
		return respondOK(c, draft)
	case errors.Is(err, offer.ErrNoDraft):
		return respondError(c, http.StatusNotFound, err.Error())
	default:
		h.deps.Logger.Error("load draft", "error", err)
		return respondError(c, http.StatusInternalServerError, "could not load draft")
	}
}
