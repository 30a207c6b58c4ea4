package db

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"liyu1981.xyz/iot-gateway-service/pkg/common"
	"liyu1981.xyz/iot-gateway-service/pkg/models"
)

type DB struct {
	Conn *gorm.DB
}

var (
	instance *DB
	once     sync.Once
)

// GetInstance returns the process wide connection, opening and migrating it
// on first use.
func GetInstance(dialector gorm.Dialector) *DB {
	once.Do(func() {
		var err error
		instance, err = NewInstance(dialector, true)
		if err != nil {
			log.Fatal("Failed to open database: ", err)
		}
	})
	return instance
}

// NewInstance opens a connection that is not shared with GetInstance.
func NewInstance(dialector gorm.Dialector, migrate bool) (*DB, error) {
	logger := common.GetLogger()

	conn, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	logger.Info("Connected to database with dialector", zap.String("dialector", dialector.Name()))

	if dialector.Name() == "sqlite" {
		if err := conn.Exec("PRAGMA foreign_keys = ON").Error; err != nil {
			return nil, fmt.Errorf("failed to enable sqlite foreign key support: %w", err)
		}
		if err := conn.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
			return nil, fmt.Errorf("failed to set sqlite journal mode: %w", err)
		}
	}

	if migrate {
		if err := conn.AutoMigrate(models.AllTables()...); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
		logger.Info("Database migration completed")
	}

	return &DB{Conn: conn}, nil
}

// Open builds the dialector named by the configuration and opens it.
func Open(cfg *common.Config) (*DB, error) {
	var dialector gorm.Dialector
	switch cfg.DBType {
	case "postgres":
		dialector = UsePostgresDialector(cfg.DBDSN)
	case "memory":
		dialector = UseMemorySqliteDialector()
	default:
		dialector = UseSqliteDialector(cfg.DBPath)
	}
	return NewInstance(dialector, cfg.DBAutoMigrate)
}

// The _fk flag turns on foreign keys for every pooled sqlite connection, not
// only the one that ran the PRAGMA.

func UseSqliteDialector(dbPath string) gorm.Dialector {
	if dbPath == "" {
		dbPath = "gateway.db"
	}
	return sqlite.Open("file:" + dbPath + "?_fk=1")
}

func UseMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open("file::memory:?cache=shared&_fk=1")
}

// UseIsolatedMemorySqliteDialector gives every caller its own in-memory
// database. Tests use it so fixtures never leak between test cases.
func UseIsolatedMemorySqliteDialector() gorm.Dialector {
	return sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared&_fk=1", uuid.NewString()))
}

func UsePostgresDialector(dsn string) gorm.Dialector {
	return postgres.New(postgres.Config{
		DriverName: "postgres",
		DSN:        dsn,
	})
}
