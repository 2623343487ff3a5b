package router

import (
	"fmt"

	filestore "family-health-records/internal/adapters/storage/file"
	mem "family-health-records/internal/adapters/storage/memory"
	pg "family-health-records/internal/adapters/storage/postgres"
	"family-health-records/internal/config"
	"family-health-records/internal/domain/families"
	"family-health-records/internal/domain/records"
	"family-health-records/internal/domain/sharegrants"

	"github.com/jmoiron/sqlx"
)

// Stores agrupa los repos de cada módulo; los nil se completan in-memory.
type Stores struct {
	Families    families.Repository
	Records     records.Repository
	ShareGrants sharegrants.Repository
}

func MemoryStores() Stores {
	return Stores{
		Families:    mem.NewFamiliesRepo(),
		Records:     mem.NewRecordsRepo(),
		ShareGrants: mem.NewShareGrantsRepo(),
	}
}

func PostgresStores(db *sqlx.DB) Stores {
	return Stores{
		Families:    pg.NewFamiliesRepo(db),
		Records:     pg.NewRecordsRepo(db),
		ShareGrants: pg.NewShareGrantsRepo(db),
	}
}

// FileStores persiste solo los grants en YAML; familias y registros quedan in-memory.
func FileStores(path string) (Stores, error) {
	grants, err := filestore.NewShareGrantsStore(filestore.WithPath(path))
	if err != nil {
		return Stores{}, err
	}
	s := MemoryStores()
	s.ShareGrants = grants
	return s, nil
}

// OpenStores elige el driver según config. El closer libera la conexión (si hay).
func OpenStores(cfg config.StorageConfig) (Stores, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Driver {
	case config.DriverPostgres:
		if cfg.Migrate {
			if err := pg.Migrate(cfg.DSN); err != nil {
				return Stores{}, noop, err
			}
		}
		db, err := pg.Open(cfg.DSN)
		if err != nil {
			return Stores{}, noop, fmt.Errorf("open postgres: %w", err)
		}
		return PostgresStores(db), db.Close, nil
	case config.DriverFile:
		s, err := FileStores(cfg.FilePath)
		if err != nil {
			return Stores{}, noop, err
		}
		return s, noop, nil
	case config.DriverMemory, "":
		return MemoryStores(), noop, nil
	default:
		return Stores{}, noop, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

func (s Stores) withDefaults() Stores {
	if s.Families == nil {
		s.Families = mem.NewFamiliesRepo()
	}
	if s.Records == nil {
		s.Records = mem.NewRecordsRepo()
	}
	if s.ShareGrants == nil {
		s.ShareGrants = mem.NewShareGrantsRepo()
	}
	return s
}
