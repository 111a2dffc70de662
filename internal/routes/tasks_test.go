package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/paisaback/paisaback/internal/account"
	"github.com/paisaback/paisaback/internal/logging"
	"github.com/paisaback/paisaback/internal/merchant"
	"github.com/paisaback/paisaback/internal/notification"
	"github.com/paisaback/paisaback/internal/offer"
	"github.com/paisaback/paisaback/internal/otp"
	"github.com/paisaback/paisaback/internal/session"
	"github.com/paisaback/paisaback/internal/txn"
	"github.com/paisaback/paisaback/internal/wallet"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []notification.Message
}

func (n *recordingNotifier) Send(_ context.Context, m notification.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, m)
	return nil
}

var codePattern = regexp.MustCompile(`\b(\d{4})\b`)

// lastCode pulls the most recently delivered login code out of the
// notification stream, the way an SMS recipient would read it.
func (n *recordingNotifier) lastCode(t *testing.T, mobile string) string {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	for i := len(n.messages) - 1; i >= 0; i-- {
		m := n.messages[i]
		if m.Kind != notification.KindOTP || m.Destination != mobile {
			continue
		}
		if match := codePattern.FindStringSubmatch(m.Body); match != nil {
			return match[1]
		}
	}
	t.Fatalf("no login code delivered to %s", mobile)
	return ""
}

type testEnv struct {
	app      *fiber.App
	notifier *recordingNotifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	notifier := &recordingNotifier{}
	customers := account.NewService(account.NewMemoryRepository())
	merchants := merchant.NewService(merchant.NewMemoryRepository())
	wallets := wallet.NewService(wallet.NewMemoryRepository(), 5000, notifier)
	offers := offer.NewService(offer.NewMemoryRepository(), offer.NewMemoryDraftStore(), 2.0)
	otpSvc := otp.NewService(otp.NewMemoryChallengeStore(), notifier, 5*time.Minute, 0, 5)
	txns := txn.NewService(txn.NewMemoryRepository(),
		customerDirectory{svc: customers},
		merchantDirectory{svc: merchants},
		offers, wallets, notifier)

	handler := NewTaskHandler(TaskDeps{
		Sessions:  session.NewMemoryStore(),
		OTP:       otpSvc,
		Customers: customers,
		Merchants: merchants,
		Wallets:   wallets,
		Offers:    offers,
		Txns:      txns,
		Logger:    logging.Discard(),
	})

	app := fiber.New()
	app.All("/api/app", handler.Dispatch)

	return &testEnv{app: app, notifier: notifier}
}

func (e *testEnv) call(t *testing.T, task, token string, body any) (int, envelope) {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/app?task="+task, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("X-Session-Token", token)
	}

	resp, err := e.app.Test(req)
	if err != nil {
		t.Fatalf("task %s: %v", task, err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("task %s: decode envelope: %v", task, err)
	}
	return resp.StatusCode, env
}

// login runs the full OTP handshake for a mobile number and returns the
// session token and account id.
func (e *testEnv) login(t *testing.T, mobile string, kind session.Kind) (token, accountID string) {
	t.Helper()

	sendTask, loginTask, idField := "send_otp", "login", "customer_id"
	if kind == session.KindMerchant {
		sendTask, loginTask, idField = "merchant_send_otp", "merchant_login", "merchant_id"
	}

	status, env := e.call(t, sendTask, "", fiber.Map{"mobile": mobile})
	if status != http.StatusOK || env.Status != "success" {
		t.Fatalf("%s: status=%d envelope=%+v", sendTask, status, env)
	}

	code := e.notifier.lastCode(t, mobile)
	status, env = e.call(t, loginTask, "", fiber.Map{"mobile": mobile, "otp": code})
	if status != http.StatusOK || env.Status != "success" {
		t.Fatalf("%s: status=%d envelope=%+v", loginTask, status, env)
	}

	data, ok := env.Data.(map[string]any)
	if !ok {
		t.Fatalf("%s: unexpected data %T", loginTask, env.Data)
	}
	token, _ = data["session_token"].(string)
	accountID, _ = data[idField].(string)
	if token == "" || accountID == "" {
		t.Fatalf("%s: incomplete login payload %v", loginTask, data)
	}
	if got := data["login_type"]; got != string(kind) {
		t.Fatalf("login_type = %v, want %s", got, kind)
	}
	return token, accountID
}

func TestDispatchUnknownTask(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.call(t, "no_such_task", "", fiber.Map{})
	if status != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", status)
	}
	if resp.Status != "error" || resp.Msg == "" {
		t.Fatalf("envelope = %+v, want error with msg", resp)
	}
}

func TestDispatchRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.call(t, "customer_dashboard", "", fiber.Map{})
	if status != http.StatusUnauthorized || resp.Status != "error" {
		t.Fatalf("missing token: status=%d envelope=%+v", status, resp)
	}

	status, resp = env.call(t, "customer_dashboard", "bogus-token", fiber.Map{})
	if status != http.StatusUnauthorized || resp.Status != "error" {
		t.Fatalf("bogus token: status=%d envelope=%+v", status, resp)
	}
}

func TestDispatchEnforcesSessionKind(t *testing.T) {
	env := newTestEnv(t)
	customerToken, _ := env.login(t, "9876543210", session.KindCustomer)

	status, resp := env.call(t, "merchant_dashboard", customerToken, fiber.Map{})
	if status != http.StatusForbidden || resp.Status != "error" {
		t.Fatalf("customer on merchant task: status=%d envelope=%+v", status, resp)
	}
}

func TestSendOTPRejectsBadMobile(t *testing.T) {
	env := newTestEnv(t)

	for _, mobile := range []string{"", "12345", "98765432101", "98765abc10"} {
		status, resp := env.call(t, "send_otp", "", fiber.Map{"mobile": mobile})
		if status != http.StatusBadRequest || resp.Status != "error" {
			t.Fatalf("mobile %q: status=%d envelope=%+v", mobile, status, resp)
		}
	}
}

func TestLoginRejectsWrongCode(t *testing.T) {
	env := newTestEnv(t)

	status, resp := env.call(t, "send_otp", "", fiber.Map{"mobile": "9876543210"})
	if status != http.StatusOK {
		t.Fatalf("send_otp: status=%d envelope=%+v", status, resp)
	}

	code := env.notifier.lastCode(t, "9876543210")
	wrong := "0000"
	if wrong == code {
		wrong = "0001"
	}
	status, resp = env.call(t, "login", "", fiber.Map{"mobile": "9876543210", "otp": wrong})
	if status != http.StatusUnauthorized || resp.Status != "error" {
		t.Fatalf("wrong code: status=%d envelope=%+v", status, resp)
	}

	// The right code still works after one failed attempt.
	status, _ = env.call(t, "login", "", fiber.Map{"mobile": "9876543210", "otp": code})
	if status != http.StatusOK {
		t.Fatalf("correct code after miss: status=%d", status)
	}
}

func TestLogoutInvalidatesSession(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.login(t, "9876543210", session.KindCustomer)

	status, resp := env.call(t, "logout", token, fiber.Map{})
	if status != http.StatusOK || resp.Status != "success" {
		t.Fatalf("logout: status=%d envelope=%+v", status, resp)
	}

	status, _ = env.call(t, "customer_dashboard", token, fiber.Map{})
	if status != http.StatusUnauthorized {
		t.Fatalf("dashboard after logout: status=%d, want 401", status)
	}
}

func TestWithdrawBelowMinimumRejected(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.login(t, "9876543210", session.KindCustomer)

	status, resp := env.call(t, "withdraw", token, fiber.Map{"amount": 40.0})
	if status != http.StatusBadRequest || resp.Status != "error" {
		t.Fatalf("withdraw 40: status=%d envelope=%+v", status, resp)
	}
}

func TestQRPaymentLifecycle(t *testing.T) {
	env := newTestEnv(t)

	merchantToken, merchantID := env.login(t, "9000000001", session.KindMerchant)
	customerToken, _ := env.login(t, "9000000002", session.KindCustomer)

	// The merchant fills in a profile so discovery has something to show.
	status, resp := env.call(t, "update_merchant_profile", merchantToken, fiber.Map{
		"business_name": "Chai Point",
		"latitude":      12.9716,
		"longitude":     77.5946,
		"district":      "Bengaluru Urban",
		"state":         "Karnataka",
	})
	if status != http.StatusOK || resp.Status != "success" {
		t.Fatalf("update merchant profile: status=%d envelope=%+v", status, resp)
	}

	status, resp = env.call(t, "near_by_marchent", customerToken, fiber.Map{
		"latitude":      12.9716,
		"longitude":     77.5946,
		"radius_meters": 1000,
	})
	if status != http.StatusOK || resp.Status != "success" {
		t.Fatalf("nearby: status=%d envelope=%+v", status, resp)
	}
	nearby, ok := resp.Data.([]any)
	if !ok || len(nearby) != 1 {
		t.Fatalf("nearby data = %v, want one merchant", resp.Data)
	}

	// Customer pays Rs 100 via the merchant QR.
	status, resp = env.call(t, "add_qr_txn", customerToken, fiber.Map{
		"merchant_id":  merchantID,
		"txn_amount":   100.0,
		"client_tx_id": "device-1-txn-1",
	})
	if status != http.StatusCreated || resp.Status != "success" {
		t.Fatalf("add_qr_txn: status=%d envelope=%+v", status, resp)
	}
	created := resp.Data.(map[string]any)
	txnID, _ := created["id"].(string)
	if txnID == "" || created["txn_status"] != string(txn.StatusPending) {
		t.Fatalf("created txn = %v", created)
	}

	// A double-tap with the same client id replays the stored transaction.
	status, resp = env.call(t, "add_qr_txn", customerToken, fiber.Map{
		"merchant_id":  merchantID,
		"txn_amount":   100.0,
		"client_tx_id": "device-1-txn-1",
	})
	if status != http.StatusOK || resp.Status != "success" || resp.Msg == "" {
		t.Fatalf("duplicate add_qr_txn: status=%d envelope=%+v", status, resp)
	}
	if replay := resp.Data.(map[string]any); replay["id"] != txnID {
		t.Fatalf("duplicate returned id %v, want %s", replay["id"], txnID)
	}

	// Merchant reviews and confirms; cashback is 2% of Rs 100.
	status, resp = env.call(t, "update_txn", merchantToken, fiber.Map{
		"txn_id": txnID,
		"status": "CONFIRMED",
	})
	if status != http.StatusOK || resp.Status != "success" {
		t.Fatalf("update_txn: status=%d envelope=%+v", status, resp)
	}
	confirmed := resp.Data.(map[string]any)
	if confirmed["txn_status"] != string(txn.StatusConfirmed) {
		t.Fatalf("txn_status = %v, want CONFIRMED", confirmed["txn_status"])
	}
	if got := confirmed["cashback_amount"].(float64); got != 2.0 {
		t.Fatalf("cashback_amount = %v, want 2.0", got)
	}

	// Confirmed is terminal: a second review attempt conflicts.
	status, resp = env.call(t, "update_txn", merchantToken, fiber.Map{
		"txn_id": txnID,
		"status": "REJECTED",
	})
	if status != http.StatusConflict || resp.Status != "error" {
		t.Fatalf("re-review: status=%d envelope=%+v", status, resp)
	}

	// The cashback landed in the customer wallet.
	status, resp = env.call(t, "customer_dashboard", customerToken, nil)
	if status != http.StatusOK {
		t.Fatalf("dashboard: status=%d envelope=%+v", status, resp)
	}
	dash := resp.Data.(map[string]any)
	walletData := dash["wallet"].(map[string]any)
	if got := walletData["balance"].(float64); got != 2.0 {
		t.Fatalf("customer balance = %v, want 2.0", got)
	}

	// And the merchant wallet holds the payment itself.
	status, resp = env.call(t, "merchant_dashboard", merchantToken, nil)
	if status != http.StatusOK {
		t.Fatalf("merchant dashboard: status=%d envelope=%+v", status, resp)
	}
	mdash := resp.Data.(map[string]any)
	mwallet := mdash["wallet"].(map[string]any)
	if got := mwallet["balance"].(float64); got != 100.0 {
		t.Fatalf("merchant balance = %v, want 100.0", got)
	}
}

func TestOfferDraftRoundTrip(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.login(t, "9000000001", session.KindMerchant)

	status, resp := env.call(t, "get_offer_draft", token, fiber.Map{})
	if status != http.StatusNotFound {
		t.Fatalf("empty draft: status=%d envelope=%+v", status, resp)
	}

	status, resp = env.call(t, "save_offer_draft", token, fiber.Map{
		"title":   "Weekend special",
		"percent": 7.5,
	})
	if status != http.StatusOK || resp.Status != "success" {
		t.Fatalf("save draft: status=%d envelope=%+v", status, resp)
	}

	status, resp = env.call(t, "get_offer_draft", token, fiber.Map{})
	if status != http.StatusOK {
		t.Fatalf("load draft: status=%d envelope=%+v", status, resp)
	}
	draft := resp.Data.(map[string]any)
	if draft["title"] != "Weekend special" || draft["percent"].(float64) != 7.5 {
		t.Fatalf("draft = %v", draft)
	}

	// Publishing the offer clears the draft slot.
	expires := time.Now().Add(48 * time.Hour).Format(time.RFC3339)
	status, resp = env.call(t, "create_offer", token, fiber.Map{
		"title":      "Weekend special",
		"percent":    7.5,
		"expires_at": expires,
	})
	if status != http.StatusCreated || resp.Status != "success" {
		t.Fatalf("create offer: status=%d envelope=%+v", status, resp)
	}

	status, _ = env.call(t, "get_offer_draft", token, fiber.Map{})
	if status != http.StatusNotFound {
		t.Fatalf("draft after publish: status=%d, want 404", status)
	}
}

func TestProfileUpdateValidation(t *testing.T) {
	env := newTestEnv(t)
	token, customerID := env.login(t, "9876543210", session.KindCustomer)

	status, resp := env.call(t, "update_customer_profile", token, fiber.Map{
		"name":  "",
		"email": "asha@example.com",
	})
	if status != http.StatusBadRequest || resp.Status != "error" {
		t.Fatalf("empty name: status=%d envelope=%+v", status, resp)
	}

	status, resp = env.call(t, "update_customer_profile", token, fiber.Map{
		"name":    "Asha",
		"email":   "asha@example.com",
		"address": "MG Road",
	})
	if status != http.StatusOK || resp.Status != "success" {
		t.Fatalf("valid update: status=%d envelope=%+v", status, resp)
	}
	data := resp.Data.(map[string]any)
	if data["id"] != customerID || data["name"] != "Asha" {
		t.Fatalf("profile = %v", data)
	}

	status, resp = env.call(t, "customer_profile", token, nil)
	if status != http.StatusOK {
		t.Fatalf("profile read: status=%d", status)
	}
	if got := resp.Data.(map[string]any)["address"]; got != "MG Road" {
		t.Fatalf("address = %v, want MG Road", got)
	}
}

func TestNearbyEmptyResultCarriesMessage(t *testing.T) {
	env := newTestEnv(t)
	token, _ := env.login(t, "9876543210", session.KindCustomer)

	status, resp := env.call(t, "near_by_marchent", token, fiber.Map{
		"location":      "12.9716,77.5946",
		"radius_meters": 500,
	})
	if status != http.StatusOK || resp.Status != "success" {
		t.Fatalf("nearby: status=%d envelope=%+v", status, resp)
	}
	if resp.Msg == "" {
		t.Fatal("expected a msg explaining the empty result")
	}
}
