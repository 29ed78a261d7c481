package bootstrap

import (
	"context"
	"fmt"

	"network_server/adapter/out/graph"
	"network_server/adapter/out/messaging"
	"network_server/adapter/out/mongodb"
	"network_server/adapter/out/persistence"
	"network_server/config"
	"network_server/core/service/activity"
	"network_server/core/service/badge"
	"network_server/core/service/community"
	"network_server/core/service/connection"
	"network_server/core/service/notification"
	"network_server/core/service/recommendation"
	"network_server/core/service/reputation"
	"network_server/infra/database"
	"network_server/pkg/cache"
	"network_server/pkg/logger"
	"network_server/pkg/snowflake"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type Dependencies struct {
	Config  *config.Config
	DB      *pgxpool.Pool
	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client
	Neo4j   neo4j.DriverWithContext

	IDs      *snowflake.Generator
	Producer *messaging.RedisProducer

	// Stores
	ProfileRepo     *persistence.ProfileAdapter
	JobRepo         *persistence.JobAdapter
	ConnectionGraph *graph.ConnectionAdapter
	ReputationRepo  *mongodb.ReputationAdapter
	BadgeRepo       *mongodb.BadgeAdapter
	PostRepo        *mongodb.PostAdapter
	DismissalRepo   *mongodb.DismissalAdapter
	ActivityRepo    *mongodb.ActivityAdapter
	InteractionRepo *mongodb.InteractionAdapter
	MilestoneRepo   *mongodb.MilestoneAdapter

	// Services
	RecommendationService *recommendation.Service
	ConnectionService     *connection.Service
	ReputationEngine      *reputation.Engine
	BadgeEvaluator        *badge.Evaluator
	CommunityService      *community.Service
	ActivityAggregator    *activity.Aggregator
	NotificationService   *notification.Service
}

// NewDependencies connects every backing store, ensures their indexes and
// wires the services. The returned cleanup closes connections in reverse
// order.
func NewDependencies(ctx context.Context, cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	if err := requireURLs(cfg); err != nil {
		return nil, nil, err
	}

	// PostgreSQL: pgx pool for jobs, sqlx for profiles
	pgCfg := database.DefaultPostgresConfig()
	db, err := database.NewPostgres(ctx, cfg.DatabaseURL, pgCfg)
	if err != nil {
		return fail(fmt.Errorf("connect postgres: %w", err))
	}
	deps.DB = db
	cleanups = append(cleanups, db.Close)

	sqlDB, err := database.NewSQLX(ctx, cfg.DatabaseURL, pgCfg)
	if err != nil {
		return fail(fmt.Errorf("connect postgres (sqlx): %w", err))
	}
	deps.SQLDB = sqlDB
	cleanups = append(cleanups, func() { sqlDB.Close() })
	logger.Info("PostgreSQL connected")

	// Redis
	rdb, err := database.NewRedis(ctx, cfg.RedisURL, nil)
	if err != nil {
		return fail(fmt.Errorf("connect redis: %w", err))
	}
	deps.Redis = rdb
	cleanups = append(cleanups, func() { rdb.Close() })
	logger.Info("Redis connected")

	// MongoDB
	mongoClient, err := mongodb.NewClient(ctx, cfg.MongoDBURL)
	if err != nil {
		return fail(err)
	}
	deps.MongoDB = mongoClient
	cleanups = append(cleanups, func() { mongoClient.Disconnect(context.Background()) })
	logger.Info("MongoDB connected")

	// Neo4j
	driver, err := graph.NewDriver(ctx, cfg.Neo4jURL, cfg.Neo4jUsername, cfg.Neo4jPassword)
	if err != nil {
		return fail(err)
	}
	deps.Neo4j = driver
	cleanups = append(cleanups, func() { driver.Close(context.Background()) })
	logger.Info("Neo4j connected")

	ids, err := snowflake.NewGenerator(cfg.SnowflakeNode)
	if err != nil {
		return fail(err)
	}
	deps.IDs = ids

	// Stores
	mdb := mongoClient.Database(cfg.MongoDBName)
	deps.ProfileRepo = persistence.NewProfileAdapter(sqlDB)
	deps.JobRepo = persistence.NewJobAdapter(db)
	deps.ConnectionGraph = graph.NewConnectionAdapter(driver, cfg.Neo4jDatabase)
	deps.ReputationRepo = mongodb.NewReputationAdapter(mdb)
	deps.BadgeRepo = mongodb.NewBadgeAdapter(mdb)
	deps.PostRepo = mongodb.NewPostAdapter(mdb)
	deps.DismissalRepo = mongodb.NewDismissalAdapter(mdb)
	deps.ActivityRepo = mongodb.NewActivityAdapter(mdb)
	deps.InteractionRepo = mongodb.NewInteractionAdapter(mdb)
	deps.MilestoneRepo = mongodb.NewMilestoneAdapter(mdb)
	deps.Producer = messaging.NewRedisProducer(rdb)

	if err := mongodb.EnsureIndexes(ctx,
		deps.ReputationRepo,
		deps.BadgeRepo,
		deps.PostRepo,
		deps.DismissalRepo,
		deps.ActivityRepo,
		deps.InteractionRepo,
		deps.MilestoneRepo,
	); err != nil {
		return fail(fmt.Errorf("ensure mongo indexes: %w", err))
	}
	if err := deps.ConnectionGraph.EnsureIndexes(ctx); err != nil {
		return fail(fmt.Errorf("ensure graph indexes: %w", err))
	}

	// Services
	deps.RecommendationService = recommendation.NewService(
		deps.ProfileRepo,
		deps.ConnectionGraph,
		deps.DismissalRepo,
		cache.NewRedisCache(rdb, "network:"),
		recommendation.Config{
			Limit:        cfg.RecommendationLimit,
			PoolSize:     cfg.CandidatePoolSize,
			CacheTTL:     cfg.RecommendationCacheTTL,
			DismissalTTL: cfg.DismissalTTL,
		},
	)
	deps.ConnectionService = connection.NewService(
		deps.ConnectionGraph,
		deps.ProfileRepo,
		deps.InteractionRepo,
		deps.Producer,
		deps.Producer,
		deps.RecommendationService,
		ids,
	)
	deps.ReputationEngine = reputation.NewEngine(deps.ReputationRepo, ids)
	deps.BadgeEvaluator = badge.NewEvaluator(deps.ReputationRepo, deps.BadgeRepo)
	deps.CommunityService = community.NewService(deps.PostRepo, deps.MilestoneRepo, deps.Producer, ids)
	deps.NotificationService = notification.NewService(deps.Producer)
	deps.ActivityAggregator = activity.NewAggregator(
		deps.ProfileRepo,
		activity.NewJobMatcher(deps.JobRepo),
		deps.RecommendationService,
		activity.NewCommunityRecommender(deps.PostRepo),
		deps.ActivityRepo,
		activity.Config{
			JobLimit:       cfg.FeedJobLimit,
			CommunityLimit: cfg.FeedCommunityLimit,
			Timeout:        cfg.FeedTimeout,
		},
	)

	return deps, cleanup, nil
}

func requireURLs(cfg *config.Config) error {
	required := map[string]string{
		"DATABASE_URL": cfg.DatabaseURL,
		"REDIS_URL":    cfg.RedisURL,
		"MONGODB_URL":  cfg.MongoDBURL,
		"NEO4J_URL":    cfg.Neo4jURL,
	}
	for name, value := range required {
		if value == "" {
			return fmt.Errorf("%s is required", name)
		}
	}
	return nil
}
