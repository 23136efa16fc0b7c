package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sakif/venturehub/internal/config"
	"github.com/sakif/venturehub/internal/identity/keycloak"
	"github.com/sakif/venturehub/internal/mail"
	"github.com/sakif/venturehub/internal/mail/smtp"
	"github.com/sakif/venturehub/internal/metrics"
	"github.com/sakif/venturehub/internal/payment/paystack"
	"github.com/sakif/venturehub/internal/repository/mongodb"
	sqliteRepo "github.com/sakif/venturehub/internal/repository/sqlite"
	"github.com/sakif/venturehub/internal/service"
	"github.com/sakif/venturehub/internal/storage/s3"
)

// Backend holds the connections and services behind the HTTP layer. The
// server and venturectl both build one.
type Backend struct {
	Mongo      *mongodb.Store
	Ledger     *sqliteRepo.DB
	Dispatcher *mail.Dispatcher
	Metrics    *metrics.Metrics

	Auth          *service.AuthService
	Applications  *service.ApplicationService
	Marketplace   *service.MarketplaceService
	Bookings      *service.BookingService
	Subscriptions *service.SubscriptionService
	Payments      *service.PaymentService
	Contact       *service.ContactService
	Careers       *service.CareerService
	Operator      *service.Operator
}

// OpenBackend connects to MongoDB, the reminder ledger and object storage,
// starts the mail dispatcher and assembles the services. m may be nil.
func OpenBackend(ctx context.Context, cfg *config.Config, m *metrics.Metrics, logger *slog.Logger) (*Backend, error) {
	if m == nil {
		m = metrics.New()
	}

	store, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database, cfg.Mongo.Timeout)
	if err != nil {
		return nil, fmt.Errorf("opening mongodb: %w", err)
	}

	ledger, err := sqliteRepo.New(cfg.Reminders.LedgerPath)
	if err != nil {
		_ = store.Close(context.Background())
		return nil, fmt.Errorf("opening reminder ledger: %w", err)
	}

	files, err := s3.New(ctx, s3.Config{
		Endpoint:  cfg.Storage.Endpoint,
		AccessKey: cfg.Storage.AccessKey,
		SecretKey: cfg.Storage.SecretKey,
		Bucket:    cfg.Storage.Bucket,
		Region:    cfg.Storage.Region,
		UseTLS:    cfg.Storage.UseTLS,
		PublicURL: cfg.Storage.PublicURL,
	})
	if err != nil {
		ledger.Close()
		_ = store.Close(context.Background())
		return nil, fmt.Errorf("opening object storage: %w", err)
	}

	renderer, err := mail.NewRenderer()
	if err != nil {
		ledger.Close()
		_ = store.Close(context.Background())
		return nil, fmt.Errorf("loading mail templates: %w", err)
	}

	var sender mail.Sender = mail.LogSender{Logger: logger}
	if cfg.Mail.Host != "" {
		sender = smtp.New(smtp.Config{
			Host:       cfg.Mail.Host,
			Port:       cfg.Mail.Port,
			Username:   cfg.Mail.Username,
			Password:   cfg.Mail.Password,
			From:       cfg.Mail.From,
			FromName:   cfg.Mail.FromName,
			RequireTLS: !cfg.Mail.Opportunistic,
		})
	} else {
		logger.Warn("MAIL_HOST not set, mail is logged instead of sent")
	}
	dispatcher := mail.NewDispatcher(renderer, sender, m, mail.DispatcherConfig{
		Workers:   cfg.Mail.Workers,
		QueueSize: cfg.Mail.QueueSize,
	}, logger)
	dispatcher.Start()

	notifier := mail.NewNotifier(dispatcher, mail.NotifierConfig{
		Admin:   cfg.Mail.Admin,
		AdminCC: cfg.Mail.AdminCCList(),
		Contact: cfg.Mail.Contact,
		BaseURL: cfg.Server.BaseURL,
	})

	idp := keycloak.New(keycloak.Config{
		URL:              cfg.Keycloak.URL,
		Realm:            cfg.Keycloak.Realm,
		ClientID:         cfg.Keycloak.ClientID,
		ClientSecret:     cfg.Keycloak.ClientSecret,
		AdminRealm:       cfg.Keycloak.AdminRealm,
		AdminUser:        cfg.Keycloak.AdminUser,
		AdminPassword:    cfg.Keycloak.AdminPassword,
		ResetRedirectURI: cfg.Server.BaseURL + "/login",
	}, logger)

	gateway := paystack.New(paystack.Config{
		BaseURL:   cfg.Paystack.BaseURL,
		SecretKey: cfg.Paystack.SecretKey,
		Currency:  cfg.Paystack.Currency,
		Timeout:   cfg.Paystack.Timeout,
	})
	checkout := service.NewCheckout(gateway, store.Payments(), m, cfg.Server.BaseURL, cfg.Paystack.Currency, logger)

	b := &Backend{
		Mongo:      store,
		Ledger:     ledger,
		Dispatcher: dispatcher,
		Metrics:    m,
	}

	b.Subscriptions = service.NewSubscriptionService(
		store.Applications(), store.Listings(), store.Subscriptions(), ledger,
		checkout, notifier,
		service.SubscriptionConfig{
			InvestorPrice: cfg.Prices.InvestorRenewal,
			ListingPrice:  cfg.Prices.ListingRenewal,
			LeadDays:      cfg.Reminders.LeadDays,
		},
		logger,
	)
	b.Auth = service.NewAuthService(idp, store.Users(), notifier, b.Subscriptions, logger)
	b.Applications = service.NewApplicationService(
		store.Applications(), store.KYC(), store.Profiles(), files, notifier, logger,
	)
	b.Marketplace = service.NewMarketplaceService(
		store.Listings(), store.Applications(), store.KYC(), store.Profiles(), store.Subscriptions(),
		files, idp, checkout, notifier, logger,
	)
	b.Bookings = service.NewBookingService(store.Spaces(), store.Advisory(), idp, checkout, notifier, logger)
	b.Payments = service.NewPaymentService(checkout, logger)
	b.Contact = service.NewContactService(notifier, logger)
	b.Careers = service.NewCareerService(store.Jobs(), logger)
	b.Operator = service.NewOperator(b.Marketplace, b.Applications, b.Subscriptions)

	return b, nil
}

// Close drains the mail queue, then closes the ledger and MongoDB.
func (b *Backend) Close(ctx context.Context) error {
	b.Dispatcher.Stop()
	var errs []error
	if err := b.Ledger.Close(); err != nil {
		errs = append(errs, fmt.Errorf("closing reminder ledger: %w", err))
	}
	if err := b.Mongo.Close(ctx); err != nil {
		errs = append(errs, fmt.Errorf("closing mongodb: %w", err))
	}
	return errors.Join(errs...)
}
