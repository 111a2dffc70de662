package routes

import (
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/paisaback/paisaback/internal/account"
	"github.com/paisaback/paisaback/internal/merchant"
	"github.com/paisaback/paisaback/internal/offer"
	"github.com/paisaback/paisaback/internal/otp"
	"github.com/paisaback/paisaback/internal/session"
	"github.com/paisaback/paisaback/internal/txn"
	"github.com/paisaback/paisaback/internal/wallet"
)

const (
	sessionTokenHeader = "X-Session-Token"
	sessionLocal       = "session"
)

// envelope is the wire shape every task response uses.
type envelope struct {
	Status string `json:"status"`
	Msg    string `json:"msg,omitempty"`
	Data   any    `json:"data,omitempty"`
}

// TaskDeps aggregates the services the task handler dispatches into.
type TaskDeps struct {
	Sessions  session.Store
	OTP       *otp.Service
	Customers *account.Service
	Merchants *merchant.Service
	Wallets   *wallet.Service
	Offers    *offer.Service
	Txns      *txn.Service
	Logger    *slog.Logger
}

// TaskHandler serves the single task-keyed endpoint. Every operation the
// mobile clients invoke is a task name; which tasks a session can reach is
// decided by the session kind, not by the handlers themselves.
type TaskHandler struct {
	deps  TaskDeps
	tasks map[string]taskDef
}

type taskDef struct {
	kind    session.Kind // zero value means public
	anyKind bool         // any logged-in session
	handle  fiber.Handler
}

// NewTaskHandler wires the task table.
func NewTaskHandler(deps TaskDeps) *TaskHandler {
	h := &TaskHandler{deps: deps}
	h.tasks = map[string]taskDef{
		// Public login flow.
		"send_otp":          {handle: h.sendOTP(session.KindCustomer)},
		"merchant_send_otp": {handle: h.sendOTP(session.KindMerchant)},
		"login":             {handle: h.login(session.KindCustomer)},
		"merchant_login":    {handle: h.login(session.KindMerchant)},

		// Customer task family.
		"customer_dashboard":      {kind: session.KindCustomer, handle: h.customerDashboard},
		"customer_profile":        {kind: session.KindCustomer, handle: h.customerProfile},
		"update_customer_profile": {kind: session.KindCustomer, handle: h.updateCustomerProfile},
		"near_by_marchent":        {kind: session.KindCustomer, handle: h.nearbyMerchants},
		"add_qr_txn":              {kind: session.KindCustomer, handle: h.addQRTxn},
		"customer_transactions":   {kind: session.KindCustomer, handle: h.customerTransactions},
		"offers":                  {kind: session.KindCustomer, handle: h.listOffers},
		"withdraw":                {kind: session.KindCustomer, handle: h.withdraw},

		// Merchant task family.
		"merchant_dashboard":      {kind: session.KindMerchant, handle: h.merchantDashboard},
		"merchant_profile":        {kind: session.KindMerchant, handle: h.merchantProfile},
		"update_merchant_profile": {kind: session.KindMerchant, handle: h.updateMerchantProfile},
		"merchant_transactions":   {kind: session.KindMerchant, handle: h.merchantTransactions},
		"update_txn":              {kind: session.KindMerchant, handle: h.updateTxn},
		"create_offer":            {kind: session.KindMerchant, handle: h.createOffer},
		"save_offer_draft":        {kind: session.KindMerchant, handle: h.saveOfferDraft},
		"get_offer_draft":         {kind: session.KindMerchant, handle: h.getOfferDraft},

		"logout": {anyKind: true, handle: h.logout},
	}
	return h
}

// Dispatch routes a request by its task query parameter, loading and
// checking the session first for protected tasks.
func (h *TaskHandler) Dispatch(c *fiber.Ctx) error {
	task := c.Query("task")
	def, ok := h.tasks[task]
	if !ok {
		return respondError(c, http.StatusNotFound, "unknown task")
	}

	if def.kind != "" || def.anyKind {
		token := c.Get(sessionTokenHeader)
		if token == "" {
			return respondError(c, http.StatusUnauthorized, "missing session token")
		}
		sess, err := h.deps.Sessions.Load(c.UserContext(), token)
		if errors.Is(err, session.ErrNotFound) {
			return respondError(c, http.StatusUnauthorized, "session expired, login again")
		}
		if err != nil {
			h.deps.Logger.Error("load session", "error", err)
			return respondError(c, http.StatusInternalServerError, "session lookup failed")
		}
		if !def.anyKind && sess.Kind != def.kind {
			return respondError(c, http.StatusForbidden, "task not available for this login type")
		}
		c.Locals(sessionLocal, sess)
	}

	return def.handle(c)
}

func sessionFromCtx(c *fiber.Ctx) session.Session {
	s, _ := c.Locals(sessionLocal).(session.Session)
	return s
}

func respondOK(c *fiber.Ctx, data any) error {
	return c.JSON(envelope{Status: "success", Data: data})
}

func respondMsg(c *fiber.Ctx, msg string, data any) error {
	return c.JSON(envelope{Status: "success", Msg: msg, Data: data})
}

func respondCreated(c *fiber.Ctx, data any) error {
	return c.Status(http.StatusCreated).JSON(envelope{Status: "success", Data: data})
}

func respondError(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(envelope{Status: "error", Msg: msg})
}

// ErrorHandler renders errors escaping the handlers (middleware rejections,
// panics caught by recover) in the same envelope the tasks use.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	return respondError(c, code, err.Error())
}

// sendOTP issues a login code for the given account kind.
func (h *TaskHandler) sendOTP(kind session.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Mobile string `json:"mobile"`
		}
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, http.StatusBadRequest, "invalid request body")
		}

		err := h.deps.OTP.Issue(c.UserContext(), strings.TrimSpace(req.Mobile), kind)
		switch {
		case err == nil:
			return respondMsg(c, "OTP sent", nil)
		case errors.Is(err, otp.ErrInvalidMobile):
			return respondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, otp.ErrResendTooSoon):
			return respondError(c, http.StatusTooManyRequests, err.Error())
		default:
			h.deps.Logger.Error("issue otp", "error", err)
			return respondError(c, http.StatusInternalServerError, "could not send OTP")
		}
	}
}

// login verifies the code, resolves (or creates) the account and mints a session.
func (h *TaskHandler) login(kind session.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			Mobile string `json:"mobile"`
			OTP    string `json:"otp"`
		}
		if err := c.BodyParser(&req); err != nil {
			return respondError(c, http.StatusBadRequest, "invalid request body")
		}

		mobile := strings.TrimSpace(req.Mobile)
		err := h.deps.OTP.Verify(c.UserContext(), mobile, strings.TrimSpace(req.OTP), kind)
		switch {
		case err == nil:
		case errors.Is(err, otp.ErrInvalidMobile):
			return respondError(c, http.StatusBadRequest, err.Error())
		case errors.Is(err, otp.ErrInvalidCode), errors.Is(err, otp.ErrExpired):
			return respondError(c, http.StatusUnauthorized, err.Error())
		case errors.Is(err, otp.ErrTooManyAttempts):
			return respondError(c, http.StatusTooManyRequests, err.Error())
		default:
			h.deps.Logger.Error("verify otp", "error", err)
			return respondError(c, http.StatusInternalServerError, "login failed")
		}

		data := fiber.Map{"mobile": mobile, "login_type": string(kind)}
		var accountID string
		if kind == session.KindMerchant {
			m, err := h.deps.Merchants.EnsureByMobile(c.UserContext(), mobile)
			if err != nil {
				h.deps.Logger.Error("ensure merchant", "error", err)
				return respondError(c, http.StatusInternalServerError, "login failed")
			}
			accountID = m.ID
			data["merchant_id"] = m.ID
		} else {
			cust, err := h.deps.Customers.EnsureByMobile(c.UserContext(), mobile)
			if err != nil {
				h.deps.Logger.Error("ensure customer", "error", err)
				return respondError(c, http.StatusInternalServerError, "login failed")
			}
			accountID = cust.ID
			data["customer_id"] = cust.ID
		}

		sess := session.New(kind, accountID, mobile)
		if err := h.deps.Sessions.Save(c.UserContext(), sess); err != nil {
			h.deps.Logger.Error("save session", "error", err)
			return respondError(c, http.StatusInternalServerError, "login failed")
		}
		data["session_token"] = sess.Token

		return respondOK(c, data)
	}
}

// logout clears this token's session record.
func (h *TaskHandler) logout(c *fiber.Ctx) error {
	token := c.Get(sessionTokenHeader)
	if err := h.deps.Sessions.Clear(c.UserContext(), token); err != nil {
		h.deps.Logger.Error("clear session", "error", err)
		return respondError(c, http.StatusInternalServerError, "logout failed")
	}
	return respondMsg(c, "logged out", nil)
}

func rupees(paise int64) float64 {
	return float64(paise) / 100
}

func paiseFromRupees(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func txnJSON(t txn.Transaction) fiber.Map {
	return fiber.Map{
		"id":              t.ID,
		"customer_id":     t.CustomerID,
		"merchant_id":     t.MerchantID,
		"txn_amount":      rupees(t.AmountPaise),
		"cashback_amount": rupees(t.CashbackPaise),
		"txn_status":      string(t.Status),
		"created_at":      t.CreatedAt,
		"updated_at":      t.UpdatedAt,
	}
}

func txnListJSON(items []txn.ListItem, nameField string) []fiber.Map {
	out := make([]fiber.Map, 0, len(items))
	for _, item := range items {
		m := txnJSON(item.Transaction)
		m[nameField] = item.CounterpartyName
		out = append(out, m)
	}
	return out
}

func offerJSON(o offer.Offer) fiber.Map {
	m := fiber.Map{
		"id":          o.ID,
		"merchant_id": o.MerchantID,
		"title":       o.Title,
		"percent":     o.Percent,
		"active":      o.Active,
		"created_at":  o.CreatedAt,
	}
	if !o.ExpiresAt.IsZero() {
		m["expires_at"] = o.ExpiresAt
	}
	return m
}

func offersJSON(offers []offer.Offer) []fiber.Map {
	out := make([]fiber.Map, 0, len(offers))
	for _, o := range offers {
		out = append(out, offerJSON(o))
	}
	return out
}
