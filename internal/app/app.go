package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"time"

	"bookshelf/internal/auth"
	"bookshelf/internal/cache"
	"bookshelf/internal/catalog"
	"bookshelf/internal/config"
	"bookshelf/internal/resource"
	"bookshelf/internal/service"
	"bookshelf/internal/throttle"
	"bookshelf/migrations"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pkg/errors"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
)

type App struct {
	cfg    config.Config
	db     *pgxpool.Pool
	redis  *redis.Client
	router *gin.Engine
}

// Deps is everything the HTTP layer is built from.
type Deps struct {
	Books    *resource.Pipeline
	Heroes   *resource.Pipeline
	Users    *resource.Pipeline
	Posts    *resource.Pipeline
	Tags     *resource.Pipeline
	Tokens   *auth.Tokens
	Sessions *auth.Store
	Throttle *throttle.Throttler
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	a := &App{cfg: cfg}

	stores := catalog.MemoryStores()
	if cfg.Storage.Driver == config.StoragePostgres {
		db, err := newPostgres(ctx, cfg.PG)
		if err != nil {
			return nil, err
		}
		a.db = db
		if err := runMigrations(cfg.PG.DSN); err != nil {
			a.db.Close()
			return nil, err
		}
		stores = catalog.PostgresStores(db)
	}

	if cfg.Redis.Enabled() {
		rdb, err := newRedis(ctx, cfg.Redis)
		if err != nil {
			a.closeDB()
			return nil, err
		}
		a.redis = rdb
	}

	deps, err := a.wire(stores)
	if err != nil {
		_ = a.Close(ctx)
		return nil, err
	}

	if cfg.Auth.AdminUsername != "" {
		users := service.NewUserService(deps.Users)
		if _, err := users.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			_ = a.Close(ctx)
			return nil, errors.Wrap(err, "seed admin")
		}
	}

	a.router = newRouter(cfg, deps)
	return a, nil
}

// wire builds pipelines over stores. Reads of books and heroes go through
// a cache: Redis when configured, in-process for postgres without Redis.
func (a *App) wire(stores catalog.Stores) (Deps, error) {
	var backend cache.Backend
	switch {
	case a.redis != nil:
		backend = cache.NewRedis(a.redis, a.cfg.Redis.DefaultTTL.Duration())
	case a.db != nil:
		backend = cache.NewLRU(a.cfg.Redis.CacheSize, a.cfg.Redis.DefaultTTL.Duration())
	}

	books, heroes := stores.Books, stores.Heroes
	if backend != nil {
		// schemas below are only used for Restore, which needs no stores
		heroes = cache.NewStore(stores.Heroes, catalog.HeroSchema(nil), backend)
		books = cache.NewStore(stores.Books, catalog.BookSchema(nil), backend, catalog.Heroes)
	}

	pager := resource.WithPaginator(resource.Paginator{
		PageSize:    a.cfg.Pagination.PageSize,
		MaxPageSize: a.cfg.Pagination.MaxPageSize,
	})

	anon, err := throttle.ParseRate(a.cfg.Throttle.AnonRate)
	if err != nil {
		return Deps{}, errors.Wrap(err, "anon rate")
	}
	user, err := throttle.ParseRate(a.cfg.Throttle.UserRate)
	if err != nil {
		return Deps{}, errors.Wrap(err, "user rate")
	}

	secret := a.cfg.Auth.JWTSecret
	if secret == "" {
		secret = randomSecret()
		slog.Warn("AUTH_JWT_SECRET not set, using a random secret; tokens will not survive restarts")
	}

	deps := Deps{
		Books:    resource.New(catalog.BookSchema(heroes), books, pager, resource.WithPolicy(auth.IsAuthenticatedOrReadOnly{})),
		Heroes:   resource.New(catalog.HeroSchema(books), heroes, pager, resource.WithPolicy(auth.IsAuthenticatedOrReadOnly{})),
		Users:    resource.New(catalog.UserSchema(stores.Posts), stores.Users, pager, resource.WithPolicy(auth.UserAccountPolicy{})),
		Posts:    resource.New(catalog.PostSchema(stores.Tags), stores.Posts, pager, resource.WithPolicy(auth.IsOwnerOrReadOnly{Field: "author"})),
		Tags:     resource.New(catalog.TagSchema(stores.Posts), stores.Tags, pager, resource.WithPolicy(auth.IsAuthenticatedOrReadOnly{})),
		Tokens:   auth.NewTokens(secret, a.cfg.Auth.TokenTTL.Duration(), "bookshelf"),
		Throttle: throttle.New(throttle.Config{Anon: anon, User: user, CacheSize: a.cfg.Throttle.CacheSize}),
	}
	if a.redis != nil {
		deps.Sessions = auth.NewStore(a.redis, a.cfg.Auth.SessionTTL.Duration())
	}
	return deps, nil
}

func (a *App) Router() *gin.Engine {
	return a.router
}

func (a *App) Close(ctx context.Context) error {
	_ = ctx
	if a.redis != nil {
		_ = a.redis.Close()
	}
	a.closeDB()
	return nil
}

func (a *App) closeDB() {
	if a.db != nil {
		a.db.Close()
	}
}

func newPostgres(ctx context.Context, pg config.PGConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(pg.DSN)
	if err != nil {
		return nil, errors.Wrap(err, "pg parse config")
	}
	cfg.MaxConns = pg.MaxConns
	cfg.MinConns = 2
	cfg.MaxConnIdleTime = 5 * time.Minute
	cfg.MaxConnLifetime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, errors.Wrap(err, "pg connect")
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, errors.Wrap(err, "pg ping")
	}

	return pool, nil
}

func newRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, errors.Wrap(err, "redis ping")
	}

	return rdb, nil
}

func runMigrations(dsn string) error {
	db, err := goose.OpenDBWithDriver("pgx", dsn)
	if err != nil {
		return errors.Wrap(err, "goose open db")
	}
	defer db.Close()

	goose.SetBaseFS(migrations.FS)
	defer goose.SetBaseFS(nil)

	if err := goose.Up(db, "."); err != nil {
		return errors.Wrap(err, "goose up")
	}
	return nil
}

func newRouter(cfg config.Config, deps Deps) *gin.Engine {
	if !cfg.App.IsDev() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS", "HEAD"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "Cookie"},
		ExposeHeaders:    []string{"Content-Length", "Content-Type", "Location", "Retry-After"},
		AllowCredentials: len(cfg.HTTP.Origins()) > 0,
		MaxAge:           12 * time.Hour,
	}
	if origins := cfg.HTTP.Origins(); len(origins) > 0 {
		corsCfg.AllowOrigins = origins
	} else {
		corsCfg.AllowAllOrigins = true
	}
	r.Use(cors.New(corsCfg))

	Setup(r, cfg, deps)
	return r
}

func randomSecret() string {
	b := make([]byte, 32)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
