package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"fdchain/core/events"
	"fdchain/core/types"
)

const (
	defaultLimit = 100
	maxLimit     = 1000
)

// accountKeys lists, in priority order, the attributes that name the account
// an event belongs to.
var accountKeys = []string{"depositor", "user", "to", "treasury"}

// Open connects to the configured database. Supported drivers are "sqlite"
// and "postgres".
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "sqlite":
		dialector = sqlite.Open(dsn)
	case "postgres":
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("indexer: unsupported driver %q", driver)
	}
	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("indexer: open %s: %w", driver, err)
	}
	return db, nil
}

// Event is an indexed event returned by queries.
type Event struct {
	Seq       uint64       `json:"seq"`
	Event     *types.Event `json:"event"`
	IndexedAt time.Time    `json:"indexedAt"`
}

// Filter narrows a query. Zero values match everything.
type Filter struct {
	Account    string
	Type       string
	FromHeight uint64
	Limit      int
}

// Indexer persists committed events. It implements events.Emitter so the
// runtime can deliver to it directly.
type Indexer struct {
	db     *gorm.DB
	logger *slog.Logger
	now    func() time.Time

	mu  sync.Mutex
	seq uint64
}

// New migrates the schema and resumes the sequence from the stored events.
func New(db *gorm.DB, logger *slog.Logger) (*Indexer, error) {
	if db == nil {
		return nil, errors.New("indexer: database required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("indexer: migrate: %w", err)
	}
	var last struct{ Max uint64 }
	if err := db.Model(&EventRecord{}).Select("COALESCE(MAX(seq), 0) AS max").Scan(&last).Error; err != nil {
		return nil, fmt.Errorf("indexer: load sequence: %w", err)
	}
	return &Indexer{
		db:     db,
		logger: logger.With("component", "indexer"),
		now:    time.Now,
		seq:    last.Max,
	}, nil
}

// Emit implements events.Emitter. Storage failures are logged since emitters
// cannot reject committed events.
func (i *Indexer) Emit(evt events.Event) {
	if i == nil || evt == nil {
		return
	}
	if err := i.Record(context.Background(), evt.Event()); err != nil {
		i.logger.Error("index event failed", slog.String("type", evt.EventType()), slog.Any("error", err))
	}
}

// Record stores a single event.
func (i *Indexer) Record(ctx context.Context, evt *types.Event) error {
	if evt == nil {
		return nil
	}
	attrs := evt.Attributes
	if attrs == nil {
		attrs = map[string]string{}
	}
	encoded, err := json.Marshal(attrs)
	if err != nil {
		return fmt.Errorf("indexer: encode attributes: %w", err)
	}

	i.mu.Lock()
	defer i.mu.Unlock()
	record := EventRecord{
		ID:         uuid.New(),
		Seq:        i.seq + 1,
		Type:       evt.Type,
		Height:     evt.Height,
		Account:    accountOf(evt),
		Attributes: string(encoded),
		CreatedAt:  i.now().UTC(),
	}
	if err := i.db.WithContext(ctx).Create(&record).Error; err != nil {
		return fmt.Errorf("indexer: insert: %w", err)
	}
	i.seq = record.Seq
	return nil
}

// Query returns matching events in commit order.
func (i *Indexer) Query(ctx context.Context, filter Filter) ([]Event, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	query := i.filtered(ctx, filter)
	var records []EventRecord
	if err := query.Order("seq ASC").Limit(limit).Find(&records).Error; err != nil {
		return nil, fmt.Errorf("indexer: query: %w", err)
	}
	out := make([]Event, 0, len(records))
	for _, record := range records {
		attrs := map[string]string{}
		if err := json.Unmarshal([]byte(record.Attributes), &attrs); err != nil {
			return nil, fmt.Errorf("indexer: decode event %d: %w", record.Seq, err)
		}
		out = append(out, Event{
			Seq:       record.Seq,
			Event:     &types.Event{Type: record.Type, Height: record.Height, Attributes: attrs},
			IndexedAt: record.CreatedAt,
		})
	}
	return out, nil
}

func (i *Indexer) filtered(ctx context.Context, filter Filter) *gorm.DB {
	query := i.db.WithContext(ctx).Model(&EventRecord{})
	if account := strings.TrimSpace(filter.Account); account != "" {
		query = query.Where("account = ?", account)
	}
	if typ := strings.TrimSpace(filter.Type); typ != "" {
		query = query.Where("type = ?", typ)
	}
	if filter.FromHeight > 0 {
		query = query.Where("height >= ?", filter.FromHeight)
	}
	return query
}

// Close releases the underlying connection pool.
func (i *Indexer) Close() error {
	sqlDB, err := i.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func accountOf(evt *types.Event) string {
	for _, key := range accountKeys {
		if value := evt.Attr(key); value != "" {
			return value
		}
	}
	return ""
}
