package bootstrap

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"knowledge-governance/internal/ai"
	"knowledge-governance/internal/app"
	"knowledge-governance/internal/cache"
	"knowledge-governance/internal/config"
	"knowledge-governance/internal/keepalive"
	"knowledge-governance/internal/lock"
	mysqlClient "knowledge-governance/internal/platform/mysql"
	rabbitmqClient "knowledge-governance/internal/platform/rabbitmq"
	redisClient "knowledge-governance/internal/platform/redis"
	"knowledge-governance/internal/repository"
	"knowledge-governance/internal/taxonomy"
	"knowledge-governance/internal/worker"
)

type App struct {
	Config   *config.Config
	Logger   *zap.Logger
	Taxonomy *taxonomy.Taxonomy

	MySQL  *gorm.DB
	Redis  *redis.Client
	MQConn *amqp.Connection

	Lifecycle     *app.LifecycleService
	GoldenAnswers *app.GoldenAnswerService
	Approvals     *app.ApprovalService
	Auth          *app.AuthService
	Keepalive     *keepalive.Scheduler
	Notebooks     *ai.NotebookClient

	StatusWorker      *worker.StatusChangeWorker
	MaintenanceWorker *worker.MaintenanceWorker

	StartedAt time.Time
}

type stores struct {
	docs      app.DocumentStore
	checks    app.PIICheckStore
	answers   app.GoldenAnswerStore
	decisions app.ApprovalDecisionStore
	users     app.UserStore
	sessions  keepalive.Store
}

// New wires the service from cfg and starts its background workers.
// Redis and RabbitMQ are optional; without them locking and status
// notification stay in process.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	tx, err := taxonomy.Load(cfg.Governance.TaxonomyFile)
	if err != nil {
		return fmt.Errorf("load taxonomy failed: %w", err)
	}
	a.Taxonomy = tx

	st, err := a.openStores(ctx)
	if err != nil {
		return err
	}

	var (
		locker  app.Locker = lock.NewLocalLocker()
		citable app.CitableCache
	)
	if cfg.Redis.Enabled {
		a.Redis, err = redisClient.New(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		locker = lock.NewRedisLocker(a.Redis,
			time.Duration(cfg.Redis.LockTTLSeconds)*time.Second,
			time.Duration(cfg.Redis.LockWaitMillis)*time.Millisecond,
			a.Logger)
		citable = cache.NewCitableCache(a.Redis, time.Duration(cfg.Redis.CitableTTLSeconds)*time.Second)
	}

	validator := app.NewMetadataValidator(tx, cfg.Governance.RequiredFields)
	a.Lifecycle = app.NewLifecycleService(st.docs, st.checks, st.decisions, validator, tx, locker, nil, citable,
		app.LifecyclePolicy{
			SupersededSuffix:    cfg.Governance.SupersededSuffix,
			DeprecatedRetention: cfg.DeprecatedRetention(),
		}, a.Logger)
	a.GoldenAnswers = app.NewGoldenAnswerService(st.answers, st.decisions, a.Lifecycle, tx, locker,
		app.GoldenAnswerPolicy{
			ReviewCadence:   cfg.ReviewCadence(),
			NotebookMinimum: cfg.Governance.GoldenAnswerMinimum,
		}, a.Logger)
	a.Approvals = app.NewApprovalService(a.Lifecycle, a.GoldenAnswers, st.decisions, a.Logger)
	a.Auth = app.NewAuthService(st.users, tx, cfg.Auth.JWTSecret, time.Duration(cfg.Auth.JWTExpireMinute)*time.Minute)

	if cfg.RabbitMQ.Enabled {
		a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.StatusChangeQueue)
		if err != nil {
			return err
		}
		a.Lifecycle.SetNotifier(rabbitmqClient.NewStatusPublisher(a.MQConn, cfg.RabbitMQ.StatusChangeQueue))
		a.StatusWorker = worker.NewStatusChangeWorker(a.MQConn, a.GoldenAnswers, cfg.RabbitMQ.StatusChangeQueue, a.Logger)
		if err := a.StatusWorker.Start(ctx); err != nil {
			return fmt.Errorf("start status change worker failed: %w", err)
		}
	} else {
		a.Lifecycle.SetNotifier(app.NewDirectNotifier(a.GoldenAnswers))
	}

	a.MaintenanceWorker = worker.NewMaintenanceWorker(a.Lifecycle, a.GoldenAnswers,
		time.Duration(cfg.Governance.SweepIntervalSeconds)*time.Second, a.Logger)
	a.MaintenanceWorker.Start(ctx)

	a.initKeepalive(st.sessions)
	if cfg.Keepalive.Enabled {
		if err := a.Keepalive.Start(ctx); err != nil {
			return fmt.Errorf("start keepalive failed: %w", err)
		}
	}
	return nil
}

func (a *App) openStores(ctx context.Context) (stores, error) {
	cfg := a.Config
	if cfg.Storage.Driver == config.StorageMemory {
		a.Logger.Warn("using in-memory storage, data is lost on restart")
		return stores{
			docs:      repository.NewMemoryDocumentRepository(),
			checks:    repository.NewMemoryPIICheckRepository(),
			answers:   repository.NewMemoryGoldenAnswerRepository(),
			decisions: repository.NewMemoryApprovalDecisionRepository(),
			users:     repository.NewMemoryUserRepository(),
			sessions:  repository.NewMemoryAISessionRepository(),
		}, nil
	}

	db, err := mysqlClient.New(ctx, cfg.MySQLDSN(), a.Logger)
	if err != nil {
		return stores{}, err
	}
	a.MySQL = db
	if cfg.MySQL.AutoMigrate {
		if err := mysqlClient.Migrate(ctx, db); err != nil {
			return stores{}, err
		}
	}
	return stores{
		docs:      repository.NewDocumentRepository(db),
		checks:    repository.NewPIICheckRepository(db),
		answers:   repository.NewGoldenAnswerRepository(db),
		decisions: repository.NewApprovalDecisionRepository(db),
		users:     repository.NewUserRepository(db),
		sessions:  repository.NewAISessionRepository(db),
	}, nil
}

func (a *App) initKeepalive(store keepalive.Store) {
	cfg := a.Config
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.OAuth.ClientID,
		ClientSecret: cfg.OAuth.ClientSecret,
		Endpoint:     oauth2.Endpoint{TokenURL: cfg.OAuth.TokenURL},
		Scopes:       cfg.OAuth.Scopes,
	}
	// The refresher probes with the token it just obtained, so its client needs no token source.
	refresher := keepalive.NewOAuth2Refresher(oauthConfig, ai.NewNotebookClient(cfg.Notebook.BaseURL, nil))

	a.Keepalive = keepalive.NewScheduler(keepalive.Config{
		Interval:            time.Duration(cfg.Keepalive.IntervalMinutes) * time.Minute,
		RefreshBeforeExpiry: time.Duration(cfg.Keepalive.RefreshBeforeExpirySecond) * time.Second,
		RefreshTimeout:      time.Duration(cfg.Keepalive.RefreshTimeoutSeconds) * time.Second,
		MaxRetries:          cfg.Keepalive.MaxRetries,
		BackoffBase:         time.Duration(cfg.Keepalive.BackoffBaseMillis) * time.Millisecond,
		BackoffMax:          time.Duration(cfg.Keepalive.BackoffMaxMillis) * time.Millisecond,
		WaitTimeout:         time.Duration(cfg.Keepalive.WaitTimeoutMillis) * time.Millisecond,
	}, refresher, store, a.Logger)
	a.Notebooks = ai.NewNotebookClient(cfg.Notebook.BaseURL, a.Keepalive)
}

func (a *App) Close() error {
	var closeErr error
	if a.Keepalive != nil {
		a.Keepalive.Close()
	}
	if a.MaintenanceWorker != nil {
		a.MaintenanceWorker.Close()
	}
	if a.StatusWorker != nil {
		a.StatusWorker.Close()
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.MySQL != nil {
		sqlDB, err := a.MySQL.DB()
		if err == nil {
			if err := sqlDB.Close(); err != nil {
				closeErr = err
			}
		}
	}
	return closeErr
}
