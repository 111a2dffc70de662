package routes

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/paisaback/paisaback/internal/account"
	"github.com/paisaback/paisaback/internal/geo"
	"github.com/paisaback/paisaback/internal/merchant"
	"github.com/paisaback/paisaback/internal/txn"
	"github.com/paisaback/paisaback/internal/wallet"
)

const dashboardTxnLimit = 10

func customerJSON(c account.Customer) fiber.Map {
	return fiber.Map{
		"id":      c.ID,
		"mobile":  c.Mobile,
		"name":    c.Name,
		"email":   c.Email,
		"address": c.Address,
	}
}

func (h *TaskHandler) customerDashboard(c *fiber.Ctx) error {
	sess := sessionFromCtx(c)
	ctx := c.UserContext()

	cust, err := h.deps.Customers.Get(ctx, sess.CustomerID)
	if err != nil {
		return respondError(c, http.StatusNotFound, "customer not found")
	}
	bal, err := h.deps.Wallets.Balance(ctx, sess.CustomerID)
	if err != nil {
		h.deps.Logger.Error("wallet balance", "error", err)
		return respondError(c, http.StatusInternalServerError, "could not load dashboard")
	}
	recent, err := h.deps.Txns.ListForCustomer(ctx, sess.CustomerID, "")
	if err != nil {
		h.deps.Logger.Error("list transactions", "error", err)
		return respondError(c, http.StatusInternalServerError, "could not load dashboard")
	}
	if len(recent) > dashboardTxnLimit {
		recent = recent[:dashboardTxnLimit]
	}
	active, err := h.deps.Offers.ListActive(ctx)
	if err != nil {
		h.deps.Logger.Error("list offers", "error", err)
		return respondError(c, http.StatusInternalServerError, "could not load dashboard")
	}

	return respondOK(c, fiber.Map{
		"profile":             customerJSON(cust),
		"wallet":              fiber.Map{"balance": rupees(bal.AmountPaise), "as_of": bal.AsOf},
		"recent_transactions": txnListJSON(recent, "merchant_name"),
		"active_offers":       offersJSON(active),
	})
}

func (h *TaskHandler) customerProfile(c *fiber.Ctx) error {
	sess := sessionFromCtx(c)
	cust, err := h.deps.Customers.Get(c.UserContext(), sess.CustomerID)
	if err != nil {
		return respondError(c, http.StatusNotFound, "customer not found")
	}
	return respondOK(c, customerJSON(cust))
}

func (h *TaskHandler) updateCustomerProfile(c *fiber.Ctx) error {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Address string `json:"address"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	sess := sessionFromCtx(c)
	cust, err := h.deps.Customers.UpdateProfile(c.UserContext(), sess.CustomerID, account.ProfileInput{
		Name:    req.Name,
		Email:   req.Email,
		Address: req.Address,
	})
	switch {
	case err == nil:
		return respondOK(c, customerJSON(cust))
	case errors.Is(err, account.ErrInvalidProfile):
		return respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, account.ErrNotFound):
		return respondError(c, http.StatusNotFound, "customer not found")
	default:
		h.deps.Logger.Error("update profile", "error", err)
		return respondError(c, http.StatusInternalServerError, "could not update profile")
	}
}

// nearbyMerchants resolves merchants around either device coordinates or a
// manually entered "lat,lng" string.
func (h *TaskHandler) nearbyMerchants(c *fiber.Ctx) error {
	var req struct {
		Latitude     *float64 `json:"latitude"`
		Longitude    *float64 `json:"longitude"`
		Location     string   `json:"location"`
		RadiusMeters int      `json:"radius_meters"`
		Search       string   `json:"search"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	var origin geo.Point
	switch {
	case req.Location != "":
		p, err := geo.ParsePoint(req.Location)
		if err != nil {
			return respondError(c, http.StatusBadRequest, err.Error())
		}
		origin = p
	case req.Latitude != nil && req.Longitude != nil:
		origin = geo.Point{Lat: *req.Latitude, Lng: *req.Longitude}
	default:
		return respondError(c, http.StatusBadRequest, "coordinates required")
	}

	result, err := h.deps.Merchants.Nearby(c.UserContext(), merchant.NearbyQuery{
		Origin:       origin,
		RadiusMeters: req.RadiusMeters,
		Search:       req.Search,
	})
	switch {
	case errors.Is(err, geo.ErrInvalidPoint), errors.Is(err, geo.ErrInvalidRadius):
		return respondError(c, http.StatusBadRequest, err.Error())
	case err != nil:
		h.deps.Logger.Error("nearby merchants", "error", err)
		return respondError(c, http.StatusInternalServerError, "could not search merchants")
	}

	data := make([]fiber.Map, 0, len(result))
	for _, nm := range result {
		data = append(data, fiber.Map{
			"id":             nm.ID,
			"business_name":  nm.BusinessName,
			"contact_person": nm.ContactPerson,
			"category_id":    nm.CategoryID,
			"latitude":       nm.Location.Lat,
			"longitude":      nm.Location.Lng,
			"district":       nm.District,
			"state":          nm.State,
			"address":        nm.Address,
			"qr_code":        nm.QRCode,
			"distance_km":    nm.DistanceKm,
		})
	}

	if len(data) == 0 {
		return respondMsg(c, "no merchants found nearby", data)
	}
	return respondOK(c, data)
}

func (h *TaskHandler) addQRTxn(c *fiber.Ctx) error {
	var req struct {
		MerchantID string  `json:"merchant_id"`
		TxnAmount  float64 `json:"txn_amount"`
		ClientTxID string  `json:"client_tx_id"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	sess := sessionFromCtx(c)
	created, err := h.deps.Txns.AddQR(c.UserContext(), txn.AddQRInput{
		CustomerID:  sess.CustomerID,
		MerchantID:  req.MerchantID,
		AmountPaise: paiseFromRupees(req.TxnAmount),
		ClientTxID:  req.ClientTxID,
	})
	switch {
	case err == nil:
		return respondCreated(c, txnJSON(created))
	case errors.Is(err, txn.ErrDuplicateTransaction):
		return respondMsg(c, "transaction already submitted", txnJSON(created))
	case errors.Is(err, txn.ErrInvalidAmount):
		return respondError(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, txn.ErrMerchantSuspended):
		return respondError(c, http.StatusForbidden, err.Error())
	case errors.Is(err, txn.ErrUnknownMerchant), errors.Is(err, txn.ErrUnknownCustomer):
		return respondError(c, http.StatusNotFound, err.Error())
	default:
		h.deps.Logger.Error("add qr txn", "error", err)
		return respondError(c, http.StatusInternalServerError, "could not submit payment")
	}
}

func (h *TaskHandler) customerTransactions(c *fiber.Ctx) error {
	sess := sessionFromCtx(c)
	search := searchQuery(c)

	items, err := h.deps.Txns.ListForCustomer(c.UserContext(), sess.CustomerID, search)
	if err != nil {
		h.deps.Logger.Error("list transactions", "error", err)
		return respondError(c, http.StatusInternalServerError, "could not load transactions")
	}
	return respondOK(c, txnListJSON(items, "merchant_name"))
}

func (h *TaskHandler) listOffers(c *fiber.Ctx) error {
	active, err := h.deps.Offers.ListActive(c.UserContext())
	if err != nil {
		h.deps.Logger.Error("list offers", "error", err)
		return respondError(c, http.StatusInternalServerError, "could not load offers")
	}
	return respondOK(c, offersJSON(active))
}

func (h *TaskHandler) withdraw(c *fiber.Ctx) error {
	var req struct {
		Amount float64 `json:"amount"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, http.StatusBadRequest, "invalid request body")
	}

	sess := sessionFromCtx(c)
	w, err := h.deps.Wallets.Withdraw(c.UserContext(), sess.CustomerID, paiseFromRupees(req.Amount))
	switch {
	case err == nil:
		return respondCreated(c, fiber.Map{
			"withdrawal_id": w.ID,
			"amount":        rupees(w.AmountPaise),
			"status":        w.Status,
			"created_at":    w.CreatedAt,
		})
	case errors.Is(err, wallet.ErrBelowMinimum), errors.Is(err, wallet.ErrInvalidAmount), errors.Is(err, wallet.ErrInsufficientFunds):
		return respondError(c, http.StatusBadRequest, err.Error())
	default:
		h.deps.Logger.Error("withdraw", "error", err)
		return respondError(c, http.StatusInternalServerError, "could not request withdrawal")
	}
}

func searchQuery(c *fiber.Ctx) string {
	if q := c.Query("search"); q != "" {
		return q
	}
	var req struct {
		Search string `json:"search"`
	}
	_ = c.BodyParser(&req)
	return req.Search
}
