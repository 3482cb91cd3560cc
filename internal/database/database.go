package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/gocql/gocql"
	_ "github.com/lib/pq"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/redis/go-redis/v9"
)

// --- Variables Globales ---
var (
	Postgres *sql.DB
	Redis    *redis.Client
	Elastic  *elasticsearch.Client
	MinIO    *minio.Client

	auditSession *gocql.Session
	auditMu      sync.Mutex
)

// ConnectDatabases initialise toutes les connexions au démarrage.
// Postgres et Redis sont obligatoires (source de vérité + cache/verrous) ;
// ScyllaDB, Elasticsearch et MinIO sont optionnels en dev local.
func ConnectDatabases() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	connectPostgres(ctx)
	connectRedis(ctx)
	connectScylla()
	connectElastic()
	connectMinIO(ctx)

	log.Println("✅ Toutes les bases de données sont connectées")
}

// =============================================
// POSTGRESQL (commandes, véhicules, utilisateurs)
// =============================================
func connectPostgres(ctx context.Context) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			envOr("POSTGRES_HOST", "localhost"),
			envOr("POSTGRES_PORT", "5432"),
			envOr("POSTGRES_USER", "autostore"),
			os.Getenv("POSTGRES_PASSWORD"),
			envOr("POSTGRES_DB", "autostore"),
			envOr("POSTGRES_SSLMODE", "disable"),
		)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		log.Fatal("❌ Erreur ouverture PostgreSQL:", err)
	}

	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		log.Fatal("❌ Erreur connexion PostgreSQL:", err)
	}

	Postgres = db
	log.Println("✅ Connecté à PostgreSQL")
}

// =============================================
// REDIS (cache + verrous distribués)
// =============================================
func connectRedis(ctx context.Context) {
	Redis = redis.NewClient(&redis.Options{
		Addr:         envOr("REDIS_HOST", "localhost:6379"),
		Password:     os.Getenv("REDIS_PASSWORD"),
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 5,
	})

	if err := Redis.Ping(ctx).Err(); err != nil {
		log.Fatal("❌ Erreur connexion Redis:", err)
	}
	log.Println("✅ Connecté à Redis")
}

// =============================================
// SCYLLA DB (journal d'audit uniquement)
// =============================================
func connectScylla() {
	hosts := os.Getenv("SCYLLA_HOSTS")
	keyspace := os.Getenv("SCYLLA_KS_AUDIT_KEYSPACE")
	if hosts == "" || keyspace == "" {
		log.Println("⚠️ ScyllaDB non configuré : journal d'audit désactivé")
		return
	}

	cluster := gocql.NewCluster(strings.Split(hosts, ",")...)
	cluster.Keyspace = keyspace
	cluster.Consistency = gocql.Quorum
	cluster.Timeout = 5 * time.Second
	cluster.NumConns = 4
	cluster.ReconnectInterval = 1 * time.Second
	if user := os.Getenv("SCYLLA_KS_AUDIT_ROLE"); user != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: user,
			Password: os.Getenv("SCYLLA_KS_AUDIT_PASSWORD"),
		}
	}
	cluster.PoolConfig.HostSelectionPolicy = gocql.TokenAwareHostPolicy(gocql.RoundRobinHostPolicy())

	session, err := cluster.CreateSession()
	if err != nil {
		log.Println("⚠️ Erreur connexion ScyllaDB (audit désactivé):", err)
		return
	}

	auditMu.Lock()
	auditSession = session
	auditMu.Unlock()
	log.Printf("✅ Connecté à ScyllaDB (keyspace '%s')", keyspace)
}

// GetAuditSession retourne la session du keyspace audit, ou nil si désactivé.
func GetAuditSession() *gocql.Session {
	auditMu.Lock()
	defer auditMu.Unlock()
	return auditSession
}

// =============================================
// ELASTICSEARCH (recherche véhicules)
// =============================================
func connectElastic() {
	url := os.Getenv("ELASTIC_URL")
	if url == "" {
		log.Println("⚠️ Elasticsearch non configuré : recherche désactivée")
		return
	}

	cfg := elasticsearch.Config{
		Addresses: []string{url},
		Username:  os.Getenv("ELASTIC_USER"),
		Password:  os.Getenv("ELASTIC_PASSWORD"),
	}

	client, err := elasticsearch.NewClient(cfg)
	if err != nil {
		log.Println("⚠️ Erreur création client Elasticsearch:", err)
		return
	}

	res, err := client.Info()
	if err != nil {
		log.Println("⚠️ Erreur connexion Elasticsearch:", err)
		return
	}
	defer res.Body.Close()

	Elastic = client
	log.Println("✅ Connecté à Elasticsearch")
}

// =============================================
// MINIO (photos véhicules)
// =============================================
func connectMinIO(ctx context.Context) {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		log.Println("⚠️ MinIO non configuré : upload d'images désactivé")
		return
	}

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(os.Getenv("MINIO_ACCESS_KEY"), os.Getenv("MINIO_SECRET_KEY"), ""),
		Secure: os.Getenv("MINIO_USE_SSL") == "true",
	})
	if err != nil {
		log.Println("⚠️ Erreur connexion MinIO:", err)
		return
	}

	bucketName := envOr("MINIO_BUCKET", "vehicles")
	exists, err := client.BucketExists(ctx, bucketName)
	if err != nil {
		log.Println("⚠️ Erreur vérification bucket MinIO:", err)
		return
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{}); err != nil {
			log.Println("⚠️ Erreur création bucket MinIO:", err)
			return
		}
		log.Println("🪣 Bucket créé :", bucketName)
	} else {
		log.Println("🪣 Bucket MinIO déjà présent :", bucketName)
	}

	MinIO = client
	log.Println("✅ Connecté à MinIO :", endpoint)
}

// CloseDatabases ferme proprement toutes les connexions.
func CloseDatabases() {
	if Postgres != nil {
		Postgres.Close()
	}
	if Redis != nil {
		Redis.Close()
	}
	auditMu.Lock()
	if auditSession != nil {
		auditSession.Close()
		log.Println("🔌 Session ScyllaDB fermée")
	}
	auditMu.Unlock()
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
