package routes

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/paisaback/paisaback/internal/account"
	"github.com/paisaback/paisaback/internal/config"
	"github.com/paisaback/paisaback/internal/merchant"
	"github.com/paisaback/paisaback/internal/middleware"
	"github.com/paisaback/paisaback/internal/notification"
	"github.com/paisaback/paisaback/internal/offer"
	"github.com/paisaback/paisaback/internal/otp"
	"github.com/paisaback/paisaback/internal/session"
	"github.com/paisaback/paisaback/internal/txn"
	"github.com/paisaback/paisaback/internal/wallet"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger
}

// Setup configures middlewares and the task-dispatch API.
func Setup(app *fiber.App, d Deps) error {
	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))
	if d.Cache != nil {
		app.Use(middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	}

	RegisterHealthRoutes(app, d)

	var customerRepo account.Repository
	var merchantRepo merchant.Repository
	var walletRepo wallet.Repository
	var txnRepo txn.Repository
	var offerRepo offer.Repository
	if d.DB != nil {
		customerRepo = account.NewPostgresRepository(d.DB)
		merchantRepo = merchant.NewPostgresRepository(d.DB)
		walletRepo = wallet.NewPostgresRepository(d.DB)
		txnRepo = txn.NewPostgresRepository(d.DB)
		offerRepo = offer.NewPostgresRepository(d.DB)
	} else {
		customerRepo = account.NewMemoryRepository()
		merchantRepo = merchant.NewMemoryRepository()
		walletRepo = wallet.NewMemoryRepository()
		txnRepo = txn.NewMemoryRepository()
		offerRepo = offer.NewMemoryRepository()
	}

	var sessions session.Store
	var challenges otp.ChallengeStore
	var drafts offer.DraftStore
	if d.Cache != nil {
		sessions = session.NewRedisStore(d.Cache, d.Cfg.SessionTTL)
		challenges = otp.NewRedisChallengeStore(d.Cache)
		drafts = offer.NewRedisDraftStore(d.Cache, d.Cfg.IdempotencyTTL)
	} else {
		sessions = session.NewMemoryStore()
		challenges = otp.NewMemoryChallengeStore()
		drafts = offer.NewMemoryDraftStore()
	}

	notifier := notification.NewLoggerNotifier(d.Logger)

	customerSvc := account.NewService(customerRepo)
	merchantSvc := merchant.NewService(merchantRepo)
	walletSvc := wallet.NewService(walletRepo, d.Cfg.MinWithdrawPaise, notifier)
	offerSvc := offer.NewService(offerRepo, drafts, d.Cfg.DefaultCashbackPercent)
	otpSvc := otp.NewService(challenges, notifier, d.Cfg.OTPTTL, d.Cfg.OTPResendCooldown, d.Cfg.OTPMaxAttempts)
	txnSvc := txn.NewService(txnRepo,
		customerDirectory{svc: customerSvc},
		merchantDirectory{svc: merchantSvc},
		offerSvc, walletSvc, notifier)

	handler := NewTaskHandler(TaskDeps{
		Sessions:  sessions,
		OTP:       otpSvc,
		Customers: customerSvc,
		Merchants: merchantSvc,
		Wallets:   walletSvc,
		Offers:    offerSvc,
		Txns:      txnSvc,
		Logger:    d.Logger,
	})

	rateLimiter := middleware.OTPRateLimit(d.Cache, d.Cfg.OTPRateLimitPerMin)
	app.All("/api/app", rateLimiter, handler.Dispatch)

	return nil
}
