package container

import (
	"cloud.google.com/go/storage"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/spotit-app/spotit-api/config"
	"github.com/spotit-app/spotit-api/internal/infrastructure/gcstore"
	"github.com/spotit-app/spotit-api/internal/infrastructure/validator"
	"github.com/spotit-app/spotit-api/pkg/helpers"
	"github.com/spotit-app/spotit-api/pkg/queue"
)

// app-level container to share constructed components across packages
// Router can auto-wire modules from these singletons.

var (
	cfg         *config.Config
	logger      *logrus.Logger
	pgPool      *pgxpool.Pool
	redisClient *redis.Client
	gcsClient   *storage.Client
	pictures    *gcstore.Store

	jwtManager *helpers.JWTManager

	validatorClient *validator.Client
	rabbitPub       *queue.Publisher
	esClient        *elasticsearch.Client
)

func SetConfig(c *config.Config)   { cfg = c }
func GetConfig() *config.Config    { return cfg }
func SetLogger(l *logrus.Logger)   { logger = l }
func GetLogger() *logrus.Logger    { return logger }
func SetPGPool(p *pgxpool.Pool)    { pgPool = p }
func GetPGPool() *pgxpool.Pool     { return pgPool }
func SetRedis(r *redis.Client)     { redisClient = r }
func GetRedis() *redis.Client      { return redisClient }
func SetGCS(s *storage.Client)     { gcsClient = s }
func GetGCS() *storage.Client      { return gcsClient }
func SetPictures(s *gcstore.Store) { pictures = s }
func GetPictures() *gcstore.Store  { return pictures }
func SetJWT(m *helpers.JWTManager) { jwtManager = m }
func GetJWT() *helpers.JWTManager {
	if jwtManager != nil {
		return jwtManager
	}
	return helpers.DefaultJWT()
}

func SetValidator(c *validator.Client) { validatorClient = c }
func GetValidator() *validator.Client  { return validatorClient }
func SetRabbitPub(p *queue.Publisher)  { rabbitPub = p }
func GetRabbitPub() *queue.Publisher   { return rabbitPub }
func SetES(c *elasticsearch.Client)    { esClient = c }
func GetES() *elasticsearch.Client     { return esClient }
