package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"confbid/adapters/database"
	redisAdapter "confbid/adapters/redis"
	"confbid/adapters/rest"
	"confbid/adapters/sse"
	"confbid/bidding"
	"confbid/metrics"
)

const serviceName = "confbid"

type ServerImpl struct {
	db          *gorm.DB
	bids        *database.Store
	reconciler  *bidding.Reconciler
	redisClient *redis.Client
	producer    redisAdapter.IProducer[bidding.BidChanged]
	sseManager  sse.IConnectionManager[bidding.BidChanged]
	htmlChecker *bluemonday.Policy
	logger      *slog.Logger

	config ServerConfig
}

func NewServer(config ServerConfig) (*ServerImpl, error) {
	const op = "NewServer"

	// 初始化資料庫連線
	var db *gorm.DB
	if config.DB.Enabled() {
		dsn := fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable&search_path=%s", config.DB.User, config.DB.Password, config.DB.Host, config.DB.Port, config.DB.Database, config.DB.Schema)
		gormConfig := &gorm.Config{TranslateError: true}
		if config.DB.Schema != "" {
			gormConfig.NamingStrategy = schema.NamingStrategy{
				TablePrefix: config.DB.Schema + ".",
			}
		}
		var err error
		db, err = gorm.Open(postgres.Open(dsn), gormConfig)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to connect to database, err=%w", op, err)
		}
	}

	// 初始化Redis連線
	var redisClient *redis.Client
	if config.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     config.Redis.Addr,
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		})
	}

	return NewServerWithClients(config, db, redisClient)
}

// NewServerWithClients 使用已建立的連線組裝服務，db 與 redisClient 都可以是 nil
func NewServerWithClients(config ServerConfig, db *gorm.DB, redisClient *redis.Client) (*ServerImpl, error) {
	const op = "NewServerWithClients"
	logger := slog.Default()
	impl := &ServerImpl{
		db:          db,
		redisClient: redisClient,
		htmlChecker: bluemonday.StrictPolicy(),
		logger:      logger.With(slog.String("caller", "ServerImpl")),
		config:      config,
	}

	// 初始化本機儲存端
	if db != nil {
		store, err := database.NewStore(db, database.WithStoreLogger(logger))
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create database store, err=%w", op, err)
		}
		if err := store.AutoMigrate(); err != nil {
			return nil, fmt.Errorf("[%s] Fail to migrate database, err=%w", op, err)
		}
		impl.bids = store
	}

	// 決定 Reconciler 使用的儲存端，有設定遠端時優先使用遠端
	var (
		store     bidding.IStore
		storeKind string
	)
	switch {
	case config.Store.URL != "":
		client, err := rest.NewClient(
			config.Store.URL,
			rest.WithClientLogger(logger),
			rest.WithClientToken(config.Store.Token),
			rest.WithClientTimeout(config.Store.Timeout),
		)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create rest client, err=%w", op, err)
		}
		store, storeKind = client, "rest"
	case impl.bids != nil:
		store, storeKind = impl.bids, "database"
	default:
		return nil, fmt.Errorf("[%s] Either database or remote store must be configured", op)
	}

	reconcilerOpts := []bidding.ReconcilerOption{bidding.WithReconcilerLogger(logger)}
	sseOpts := []sse.Option[bidding.BidChanged]{sse.WithLogger[bidding.BidChanged](logger)}
	if redisClient != nil {
		// 初始化 (reviewer, article) 鎖
		lockOpts := []redisAdapter.AutoRenewMutexOption{}
		if config.Redis.LockExpiry > 0 {
			lockOpts = append(lockOpts, redisAdapter.WithAutoRenewMutexExpiry(config.Redis.LockExpiry))
		}
		locker, err := redisAdapter.NewPairLocker(
			redisClient,
			redisAdapter.WithPairLockerPrefix(config.Redis.KeyPrefix),
			redisAdapter.WithPairLockerLogger(logger),
			redisAdapter.WithPairLockerMutexOptions(lockOpts...),
		)
		if err != nil {
			return nil, fmt.Errorf("[%s] Fail to create pair locker, err=%w", op, err)
		}
		reconcilerOpts = append(reconcilerOpts, bidding.WithReconcilerLocker(locker))

		// 事件經由 Redis stream 轉送給所有實例的 SSE 訂閱者
		if config.Redis.StreamKeys.BidEvents != "" {
			producer, err := redisAdapter.NewProducer[bidding.BidChanged](
				redisClient,
				config.Redis.StreamKeys.BidEvents,
				redisAdapter.WithProducerLogger[bidding.BidChanged](logger),
			)
			if err != nil {
				return nil, fmt.Errorf("[%s] Fail to create producer, err=%w", op, err)
			}
			consumer, err := redisAdapter.NewConsumer(
				redisClient,
				config.Redis.StreamKeys.BidEvents,
				redisAdapter.WithConsumerLogger[sse.PublishRequest[bidding.BidChanged]](logger),
				redisAdapter.WithConsumerParseFunc(func(m map[string]any) (sse.PublishRequest[bidding.BidChanged], error) {
					event, err := redisAdapter.DefaultParseFromMessage[bidding.BidChanged](m)
					if err != nil {
						return sse.PublishRequest[bidding.BidChanged]{}, fmt.Errorf("fail to parse message to bidding.BidChanged, err=%w", err)
					}
					return sse.PublishRequest[bidding.BidChanged]{
						Channel: strconv.FormatUint(event.Reviewer, 10),
						Message: event,
					}, nil
				}),
			)
			if err != nil {
				return nil, fmt.Errorf("[%s] Fail to create consumer, err=%w", op, err)
			}
			impl.producer = producer
			sseOpts = append(sseOpts, sse.WithSubscriber[bidding.BidChanged](consumer))
		}
	}

	// 初始化SSE管理器
	sseManager, err := sse.NewConnectionManager(sseOpts...)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create sse connection manager, err=%w", op, err)
	}
	impl.sseManager = sseManager
	if impl.producer != nil {
		reconcilerOpts = append(reconcilerOpts, bidding.WithReconcilerPublisher(impl.producer))
	} else {
		// 沒有 Redis 時只通知本實例的訂閱者
		reconcilerOpts = append(reconcilerOpts, bidding.WithReconcilerPublisher(localPublisher{manager: sseManager}))
	}

	reconciler, err := bidding.NewReconciler(store, reconcilerOpts...)
	if err != nil {
		return nil, fmt.Errorf("[%s] Fail to create reconciler, err=%w", op, err)
	}
	impl.reconciler = reconciler

	metrics.Init(serviceName, config.Version, storeKind)
	impl.logger.Info("Server initialized", slog.String("store", storeKind), slog.Bool("redis", redisClient != nil))
	return impl, nil
}

func (impl *ServerImpl) Start() {
	// 啟動sse connection manager
	impl.sseManager.Start()
	// 啟動producer
	if impl.producer != nil {
		impl.producer.Start()
	}
}

func (impl *ServerImpl) Close() {
	// 關閉sse connection manager
	impl.sseManager.Done()
	// 關閉producer
	if impl.producer != nil {
		impl.producer.Close()
	}
	// 關閉Redis連線
	if impl.redisClient != nil {
		if err := impl.redisClient.Close(); err != nil {
			impl.logger.Warn("Fail to close redis client", slog.Any("error", err))
		}
	}
	// 關閉資料庫連線
	if impl.db != nil {
		if sqlDB, err := impl.db.DB(); err == nil {
			sqlDB.Close()
		}
	}
}

// localPublisher 直接把事件交給本實例的 SSE 訂閱者
type localPublisher struct {
	manager sse.IConnectionManager[bidding.BidChanged]
}

func (p localPublisher) Publish(event bidding.BidChanged) error {
	return p.manager.Publish(strconv.FormatUint(event.Reviewer, 10), event)
}

// Ping 檢查相依服務是否可用
func (impl *ServerImpl) Ping(ctx context.Context) error {
	var errs []error
	if impl.db != nil {
		sqlDB, err := impl.db.DB()
		if err == nil {
			err = sqlDB.PingContext(ctx)
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("database: %w", err))
		}
	}
	if impl.redisClient != nil {
		if err := impl.redisClient.Ping(ctx).Err(); err != nil {
			errs = append(errs, fmt.Errorf("redis: %w", err))
		}
	}
	return errors.Join(errs...)
}
