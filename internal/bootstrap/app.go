package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"loanmvp/internal/assistant"
	googleauth "loanmvp/internal/auth"
	"loanmvp/internal/borrowers"
	"loanmvp/internal/credit"
	"loanmvp/internal/crm"
	"loanmvp/internal/documents"
	"loanmvp/internal/insights"
	"loanmvp/internal/llm"
	openai "loanmvp/internal/llm/openai"
	"loanmvp/internal/loans"
	"loanmvp/internal/notifications"
	"loanmvp/internal/notifications/sendgrid"
	"loanmvp/internal/notifications/twilio"
	"loanmvp/internal/officers"
	"loanmvp/internal/properties"
	"loanmvp/internal/queue"
	"loanmvp/internal/quotes"
	"loanmvp/internal/realtime"
	"loanmvp/internal/shared/auth"
	"loanmvp/internal/shared/config"
	"loanmvp/internal/shared/server"
	"loanmvp/internal/shared/storage/db"
	"loanmvp/internal/shared/storage/object"
	localstore "loanmvp/internal/shared/storage/object/local"
	s3store "loanmvp/internal/shared/storage/object/s3"
	"loanmvp/internal/subscriptions"
	"loanmvp/internal/uploads"
	"loanmvp/internal/users"
)

// App holds shared dependencies for the API and the worker.
type App struct {
	Config config.Config
	Router *gin.Engine
	DB     *sql.DB
	Store  object.ObjectStore
	Queue  queue.Client
	Hub    *realtime.Hub
	LLM    llm.Client
	Memory assistant.Memory

	SMS   notifications.SMSSender
	Email notifications.EmailSender

	Notifier             *notifications.Notifier
	UsersService         *users.Service
	BorrowersService     *borrowers.Service
	CreditService        *credit.Service
	PropertiesService    *properties.Service
	LoansService         *loans.Service
	DocumentsService     *documents.Service
	QuotesService        *quotes.Service
	CRMService           *crm.Service
	InsightsService      *insights.Service
	SubscriptionsService *subscriptions.Service
	OfficersService      *officers.Service
	NotificationsService *notifications.Service
	AssistantService     *assistant.Service
}

type repos struct {
	users         users.Repo
	borrowers     borrowers.Repo
	credit        credit.Repo
	properties    properties.Repo
	loans         loans.Repo
	documents     documents.Repo
	quotes        quotes.Repo
	lenderQuotes  quotes.LenderRepo
	leads         crm.LeadRepo
	notes         crm.NoteRepo
	messages      crm.MessageRepo
	tasks         crm.TaskRepo
	events        insights.EventRepo
	insights      insights.InsightRepo
	subscriptions subscriptions.Repo
	officers      officers.Repo
	notifications notifications.Repo
	chatHistory   assistant.HistoryRepo
}

// Build prepares shared dependencies and the HTTP router using the server pool profile.
func Build(cfg config.Config) (*App, error) {
	return BuildWithPool(cfg, db.DefaultServerOptions())
}

// BuildWithPool is Build with explicit database pool defaults; DB_* env vars still override them.
func BuildWithPool(cfg config.Config, pool db.Options) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg, pool)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	queueClient, err := buildQueue(ctx, cfg)
	if err != nil {
		return nil, err
	}

	llmClient, err := buildLLM(cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Queue:  queueClient,
		Hub:    realtime.NewHub(cfg.CORSAllowOrigin),
		LLM:    llmClient,
		Memory: buildMemory(cfg),
	}
	if err := buildSenders(app); err != nil {
		return nil, err
	}

	r := buildRepos(sqlDB)
	buildServices(app, r)

	// Direct-to-bucket uploads only exist when documents live in S3.
	var uploadsHandler server.RouteRegistrar
	if st, ok := app.Store.(*s3store.Store); ok {
		uploadsHandler = uploads.NewHandler(st, app.LoansService, app.DocumentsService, cfg.MaxUploadBytes)
	}

	var dbCheck func(context.Context) error
	if app.DB != nil {
		dbCheck = func(ctx context.Context) error { return db.Check(ctx, app.DB, 2*time.Second) }
	}

	borrowerAccess := app.BorrowersService.RequireAccess("id")
	app.Router = server.NewRouter(server.RouterDeps{
		Config:        cfg,
		DBCheck:       dbCheck,
		Socket:        app.Hub.Handler(),
		GoogleAuth:    googleauth.NewGoogleService(app.UsersService, cfg.GoogleClientID, cfg.GoogleClientSecret, cfg.GoogleRedirectURL, cfg.UIRedirectURL),
		Users:         users.NewHandler(app.UsersService),
		Borrowers:     borrowers.NewHandler(app.BorrowersService),
		Credit:        credit.NewHandler(app.CreditService, borrowerAccess),
		Properties:    properties.NewHandler(app.PropertiesService),
		Loans:         loans.NewHandler(app.LoansService),
		Documents:     documents.NewHandler(app.DocumentsService, app.LoansService, cfg.MaxUploadBytes),
		Uploads:       uploadsHandler,
		Quotes:        quotes.NewHandler(app.QuotesService),
		CRM:           crm.NewHandler(app.CRMService),
		Insights:      insights.NewHandler(app.InsightsService, borrowerAccess),
		Subscriptions: subscriptions.NewHandler(app.SubscriptionsService, borrowerAccess),
		Officers:      officers.NewHandler(app.OfficersService),
		Notifications: notifications.NewHandler(app.NotificationsService, app.BorrowersService),
		Assistant:     assistant.NewHandler(app.AssistantService),
	})

	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config, pool db.Options) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, db.OptionsFromEnv(pool))
	if err != nil {
		if cfg.IsDevLike() {
			log.Printf("bootstrap: database connect failed; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		if strings.TrimSpace(cfg.S3Bucket) == "" {
			return nil, fmt.Errorf("OBJECT_STORE=s3 requires S3_BUCKET")
		}
		store, err := s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildQueue(ctx context.Context, cfg config.Config) (queue.Client, error) {
	if strings.TrimSpace(cfg.NotifyQueueURL) == "" {
		return nil, nil
	}
	client, err := queue.NewSQSClient(ctx, cfg.AWSRegion, cfg.NotifyQueueURL)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func buildLLM(cfg config.Config) (llm.Client, error) {
	if cfg.LLMProvider != "openai" || strings.TrimSpace(cfg.OpenAIAPIKey) == "" {
		log.Printf("bootstrap: no LLM key configured; AI chat will return errors")
		return llm.PlaceholderClient{}, nil
	}
	client, err := openai.NewClient(cfg.OpenAIAPIKey, cfg.LLMModel, cfg.OpenAITimeout)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func buildMemory(cfg config.Config) assistant.Memory {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return assistant.NewLocalMemory()
	}
	mem, err := assistant.NewRedisMemory(cfg.RedisURL, cfg.ChatMemoryTTL)
	if err != nil {
		log.Printf("bootstrap: redis unavailable; using in-process chat memory: %v", err)
		return assistant.NewLocalMemory()
	}
	return mem
}

func buildSenders(app *App) error {
	cfg := app.Config
	if cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" {
		sms, err := twilio.NewClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioPhoneNumber)
		if err != nil {
			return err
		}
		app.SMS = sms
	}
	if cfg.SendGridAPIKey != "" {
		email, err := sendgrid.NewClient(cfg.SendGridAPIKey, cfg.SendGridFromEmail)
		if err != nil {
			return err
		}
		app.Email = email
	}
	return nil
}

func buildRepos(sqlDB *sql.DB) repos {
	if sqlDB == nil {
		return repos{
			users:         users.NewMemoryRepo(),
			borrowers:     borrowers.NewMemoryRepo(),
			credit:        credit.NewMemoryRepo(),
			properties:    properties.NewMemoryRepo(),
			loans:         loans.NewMemoryRepo(),
			documents:     documents.NewMemoryRepo(),
			quotes:        quotes.NewMemoryRepo(),
			lenderQuotes:  quotes.NewMemoryLenderRepo(),
			leads:         crm.NewMemoryLeadRepo(),
			notes:         crm.NewMemoryNoteRepo(),
			messages:      crm.NewMemoryMessageRepo(),
			tasks:         crm.NewMemoryTaskRepo(),
			events:        insights.NewMemoryEventRepo(),
			insights:      insights.NewMemoryInsightRepo(),
			subscriptions: subscriptions.NewMemoryRepo(),
			officers:      officers.NewMemoryRepo(),
			notifications: notifications.NewMemoryRepo(),
			chatHistory:   assistant.NewMemoryHistoryRepo(),
		}
	}
	return repos{
		users:         &users.PGRepo{DB: sqlDB},
		borrowers:     &borrowers.PGRepo{DB: sqlDB},
		credit:        &credit.PGRepo{DB: sqlDB},
		properties:    &properties.PGRepo{DB: sqlDB},
		loans:         &loans.PGRepo{DB: sqlDB},
		documents:     &documents.PGRepo{DB: sqlDB},
		quotes:        &quotes.PGRepo{DB: sqlDB},
		lenderQuotes:  &quotes.PGLenderRepo{DB: sqlDB},
		leads:         &crm.PGLeadRepo{DB: sqlDB},
		notes:         &crm.PGNoteRepo{DB: sqlDB},
		messages:      &crm.PGMessageRepo{DB: sqlDB},
		tasks:         &crm.PGTaskRepo{DB: sqlDB},
		events:        &insights.PGEventRepo{DB: sqlDB},
		insights:      &insights.PGInsightRepo{DB: sqlDB},
		subscriptions: &subscriptions.PGRepo{DB: sqlDB},
		officers:      &officers.PGRepo{DB: sqlDB},
		notifications: &notifications.PGRepo{DB: sqlDB},
		chatHistory:   &assistant.PGHistoryRepo{DB: sqlDB},
	}
}

func buildServices(app *App, r repos) {
	app.Notifier = &notifications.Notifier{
		Repo:      r.notifications,
		Publisher: app.Hub,
		SMS:       app.SMS,
		Email:     app.Email,
		Queue:     app.Queue,
	}

	app.UsersService = users.NewService(r.users)
	app.BorrowersService = &borrowers.Service{Repo: r.borrowers}
	app.CreditService = &credit.Service{Repo: r.credit, Borrowers: r.borrowers}
	app.PropertiesService = &properties.Service{Repo: r.properties}
	app.LoansService = &loans.Service{
		Repo:      r.loans,
		Borrowers: r.borrowers,
		Credit:    r.credit,
		Notifier:  app.Notifier,
	}
	app.DocumentsService = &documents.Service{
		Store:    app.Store,
		Repo:     r.documents,
		Loans:    r.loans,
		Provider: app.Config.ObjectStoreType,
	}
	app.LoansService.Documents = app.DocumentsService
	app.QuotesService = &quotes.Service{
		Repo:      r.quotes,
		Lenders:   r.lenderQuotes,
		Loans:     app.LoansService,
		Borrowers: r.borrowers,
		Credit:    r.credit,
		Notifier:  app.Notifier,
	}
	app.CRMService = &crm.Service{
		Leads:     r.leads,
		Notes:     r.notes,
		Messages:  r.messages,
		Tasks:     r.tasks,
		Borrowers: app.BorrowersService,
		Publisher: app.Hub,
	}
	app.InsightsService = &insights.Service{Events: r.events, Insights: r.insights, Borrowers: r.borrowers}
	app.SubscriptionsService = &subscriptions.Service{Repo: r.subscriptions, Borrowers: r.borrowers}
	app.OfficersService = &officers.Service{
		Repo:          r.officers,
		Loans:         r.loans,
		Borrowers:     r.borrowers,
		Credit:        r.credit,
		Leads:         r.leads,
		Tasks:         r.tasks,
		Notifications: r.notifications,
	}
	app.NotificationsService = &notifications.Service{Repo: r.notifications}
	app.Hub.LoanAccess = func(ctx context.Context, p auth.Principal, loanID string) error {
		_, err := app.LoansService.Authorize(ctx, p, loanID)
		return err
	}
	app.AssistantService = &assistant.Service{
		LLM:          app.LLM,
		Memory:       app.Memory,
		History:      r.chatHistory,
		Borrowers:    r.borrowers,
		Entitlements: app.SubscriptionsService,
	}
}

// Close releases the database and Redis connections.
func (a *App) Close() error {
	if a == nil {
		return nil
	}
	if closer, ok := a.Memory.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if a.DB != nil {
		return a.DB.Close()
	}
	return nil
}
