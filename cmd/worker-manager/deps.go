package main

import (
	"context"
	"slices"
	"time"

	"go.uber.org/zap"

	awsc "prospect-composer/internal/common/aws"
	"prospect-composer/internal/common/camunda"
	"prospect-composer/internal/common/config"
	"prospect-composer/internal/common/database"
	xhttp "prospect-composer/internal/common/http"
	"prospect-composer/internal/common/logger"
	"prospect-composer/internal/common/zoho"
	"prospect-composer/internal/leads"
	"prospect-composer/internal/notify"
	"prospect-composer/internal/pdf"
	"prospect-composer/internal/prospect"
	"prospect-composer/internal/sequences"
	"prospect-composer/internal/templates"
	"prospect-composer/pkg/registry"
)

// deps are the connections the worker manager owns and closes.
type deps struct {
	zeebe *camunda.Client
	pg    *database.PostgresClient
	redis *database.RedisClient
	es    *database.ElasticsearchClient
}

func connect(ctx context.Context, cfg *config.Config, log *zap.Logger) (*deps, error) {
	d := &deps{}

	err := retryWithBackoff(ctx, func() error {
		var err error
		d.zeebe, err = camunda.NewClient(cfg.Camunda.BrokerAddress, config.GetDuration(cfg.Camunda.RequestTimeout))
		return err
	}, 10, 2*time.Second, log, "Zeebe client initialization")
	if err != nil {
		return nil, err
	}
	log.Info("Zeebe client connected successfully")

	err = retryWithBackoff(ctx, func() error {
		var err error
		if d.pg, err = database.NewPostgres(cfg.Database.Postgres); err != nil {
			return err
		}
		return d.pg.Ping(ctx)
	}, 15, 2*time.Second, log, "PostgreSQL connection")
	if err != nil {
		d.Close()
		return nil, err
	}
	if err := d.pg.Migrate(ctx, migrations()); err != nil {
		d.Close()
		return nil, err
	}
	log.Info("PostgreSQL connected successfully")

	d.redis = database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(ctx, func() error {
		return d.redis.Ping(ctx)
	}, 10, 2*time.Second, log, "Redis connection")
	if err != nil {
		d.Close()
		return nil, err
	}
	log.Info("Redis connected successfully")

	if cfg.PDF.ContentSource == pdf.SourceElasticsearch {
		err = retryWithBackoff(ctx, func() error {
			var err error
			if d.es, err = database.NewElasticsearch(cfg.Database.Elasticsearch); err != nil {
				return err
			}
			return d.es.Ping(ctx)
		}, 15, 2*time.Second, log, "Elasticsearch connection")
		if err != nil {
			d.Close()
			return nil, err
		}
		log.Info("Elasticsearch connected successfully")
	}

	return d, nil
}

// migrations creates leads before the sequence table that references it.
func migrations() []string {
	return slices.Concat(leads.Migrations, sequences.Migrations)
}

// checks are the readiness checks, one per open connection.
func (d *deps) checks() map[string]func(context.Context) error {
	c := map[string]func(context.Context) error{}
	if d.zeebe != nil {
		c["zeebe"] = d.zeebe.HealthCheck
	}
	if d.pg != nil {
		c["postgres"] = d.pg.Ping
	}
	if d.redis != nil {
		c["redis"] = d.redis.Ping
	}
	if d.es != nil {
		c["elasticsearch"] = d.es.Ping
	}
	return c
}

func (d *deps) Close() {
	if d.zeebe != nil {
		_ = d.zeebe.Close()
	}
	if d.pg != nil {
		_ = d.pg.Close()
	}
	if d.redis != nil {
		_ = d.redis.Close()
	}
}

// services are the domain objects the task handlers run against.
type services struct {
	pages     *prospect.Service
	leads     *leads.Service
	notifier  *notify.Notifier
	sequences *sequences.Service
	guides    *pdf.Runner
	validator *registry.Validator
}

func newServices(ctx context.Context, cfg *config.Config, d *deps, log logger.Logger) (*services, error) {
	activities, err := registry.Default()
	if err != nil {
		return nil, err
	}
	validator, err := registry.NewValidator(activities)
	if err != nil {
		return nil, err
	}

	tmpl, err := templates.NewRegistry(templates.WithFallback(cfg.Templates.FallbackIndustry))
	if err != nil {
		return nil, err
	}
	source, err := prospect.LoadFileSource(cfg.Prospects.SourcePath)
	if err != nil {
		return nil, err
	}
	pages := prospect.NewService(source, prospect.NewBuilder(tmpl), log)

	opts := []leads.ServiceOption{
		leads.WithCache(leads.NewCache(d.redis.Client, time.Duration(cfg.Database.Redis.CacheTTL)*time.Second)),
	}
	if cfg.Integrations.Zoho.Enabled {
		httpClient := xhttp.NewClient(10*time.Second, xhttp.WithRetries(2, 500*time.Millisecond))
		opts = append(opts, leads.WithCRM(zoho.NewCRMClient(cfg.Integrations.Zoho.BaseURL, cfg.Integrations.Zoho.AuthToken, httpClient)))
	}
	leadSvc := leads.NewService(leads.NewPostgresStore(d.pg.GetDB()), log, opts...)

	channels, err := newAWSChannels(ctx, cfg)
	if err != nil {
		return nil, err
	}
	notifier := newNotifier(cfg, channels, log)

	seqs, err := newSequences(cfg, d, leadSvc, channels.email, log)
	if err != nil {
		return nil, err
	}

	guides, err := newGuideRunner(cfg, d, log)
	if err != nil {
		return nil, err
	}

	return &services{
		pages:     pages,
		leads:     leadSvc,
		notifier:  notifier,
		sequences: seqs,
		guides:    guides,
		validator: validator,
	}, nil
}

// awsChannels holds the outbound AWS clients. A channel is nil when its
// service is disabled.
type awsChannels struct {
	email     notify.EmailSender
	publisher notify.Publisher
}

func newAWSChannels(ctx context.Context, cfg *config.Config) (awsChannels, error) {
	aws := cfg.Integrations.AWS
	var ch awsChannels
	if !aws.SES.Enabled && !aws.SNS.Enabled {
		return ch, nil
	}
	awsCfg, err := awsc.LoadConfig(ctx, aws.Region)
	if err != nil {
		return ch, err
	}
	if aws.SES.Enabled {
		ch.email = awsc.NewSESClient(awsCfg, aws.SES.FromEmail)
	}
	if aws.SNS.Enabled {
		ch.publisher = awsc.NewSNSClient(awsCfg)
	}
	return ch, nil
}

func newNotifier(cfg *config.Config, ch awsChannels, log logger.Logger) *notify.Notifier {
	return notify.New(notify.Config{
		SiteURL:       cfg.Notifications.SiteURL,
		SalesEmail:    cfg.Notifications.SalesEmail,
		SalesTopicARN: cfg.Notifications.SalesTopicARN,
	}, ch.email, ch.publisher, log)
}

// newSequences sends through SES when it is enabled. Without it sequence
// sends fail with sequences.ErrEmailDisabled and stay due.
func newSequences(cfg *config.Config, d *deps, leadSvc *leads.Service, email notify.EmailSender, log logger.Logger) (*sequences.Service, error) {
	var sender sequences.EmailSender
	if email != nil {
		sender = email
	}
	mailer, err := sequences.NewMailer(sequences.MailerConfig{
		SiteURL:     cfg.Notifications.SiteURL,
		CalendarURL: cfg.Notifications.CalendarURL,
	}, sender)
	if err != nil {
		return nil, err
	}
	return sequences.NewService(sequences.NewPostgresStore(d.pg.GetDB()), leadSvc, mailer, log), nil
}

func newGuideRunner(cfg *config.Config, d *deps, log logger.Logger) (*pdf.Runner, error) {
	catalog, err := pdf.DefaultCatalog()
	if err != nil {
		return nil, err
	}
	var docs pdf.DocumentStore
	if d.es != nil {
		docs = d.es
	}
	store, err := pdf.NewContentStore(cfg.PDF.ContentSource, cfg.PDF.ContentDir, docs, cfg.PDF.ContentIndex)
	if err != nil {
		return nil, err
	}
	renderer := pdf.NewRodRenderer(pdf.RodConfig{
		Bin:        cfg.PDF.BrowserBin,
		Headless:   cfg.PDF.Headless,
		Timeout:    config.GetDuration(cfg.PDF.RenderTimeout),
		IdleWait:   config.GetDuration(cfg.PDF.IdleWait),
		FooterText: cfg.PDF.FooterText,
	})
	return pdf.NewRunner(catalog, store, renderer, cfg.PDF.OutputDir, log), nil
}
