package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/dmitrijs2005/restaurant/internal/common"
	"github.com/dmitrijs2005/restaurant/internal/logging"
	"github.com/dmitrijs2005/restaurant/internal/rpc"
	"github.com/dmitrijs2005/restaurant/internal/server/changefeed"
	"github.com/dmitrijs2005/restaurant/internal/server/models"
	"github.com/dmitrijs2005/restaurant/internal/server/repositories/repomanager"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// DataService reads and writes the restaurant collections. Every successful
// write is announced on the change feed so that open Watch streams re-list.
type DataService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	feed        changefeed.Feed
	validate    *validator.Validate
	logger      logging.Logger
}

func NewDataService(db *sql.DB, m repomanager.RepositoryManager, feed changefeed.Feed, l logging.Logger) *DataService {
	return &DataService{
		db:          db,
		repomanager: m,
		feed:        feed,
		validate:    validator.New(),
		logger:      l.With("module", "data"),
	}
}

// UpsertUser writes the profile of account uid and returns uid.
func (s *DataService) UpsertUser(ctx context.Context, uid string, profile models.User) (string, error) {
	profile.ID = uid
	if profile.Email != nil && *profile.Email == "" {
		profile.Email = nil
	}
	if err := s.check(profile); err != nil {
		return "", err
	}
	if err := s.repomanager.Users(s.db).Upsert(ctx, &profile); err != nil {
		return "", fmt.Errorf("error upserting user: %w", err)
	}
	s.changed(ctx, rpc.CollectionUsers)
	return uid, nil
}

// Create inserts record into collection under a new id, ignoring any id the
// record carries.
func (s *DataService) Create(ctx context.Context, collection string, record json.RawMessage) (string, error) {
	return s.write(ctx, collection, record, false)
}

// Upsert writes record under its own id, which must be set.
func (s *DataService) Upsert(ctx context.Context, collection string, record json.RawMessage) (string, error) {
	return s.write(ctx, collection, record, true)
}

func (s *DataService) write(ctx context.Context, collection string, record json.RawMessage, upsert bool) (string, error) {
	if err := s.checkWritable(collection); err != nil {
		return "", err
	}

	var (
		id  string
		err error
	)
	switch collection {
	case rpc.CollectionCustomers:
		id, err = writeRecord(s, record, upsert, func(c *models.Customer) *string { return &c.ID }, func(c *models.Customer) error {
			repo := s.repomanager.Customers(s.db)
			if upsert {
				return repo.Upsert(ctx, c)
			}
			return repo.Create(ctx, c)
		})
	case rpc.CollectionRecipes:
		id, err = writeRecord(s, record, upsert, func(r *models.Recipe) *string { return &r.ID }, func(r *models.Recipe) error {
			repo := s.repomanager.Recipes(s.db)
			if upsert {
				return repo.Upsert(ctx, r)
			}
			return repo.Create(ctx, r)
		})
	}
	if err != nil {
		return "", err
	}

	s.changed(ctx, collection)
	return id, nil
}

// writeRecord decodes and validates a record, settles its id and hands it
// to store.
func writeRecord[T any](s *DataService, raw json.RawMessage, upsert bool, key func(*T) *string, store func(*T) error) (string, error) {
	var rec T
	if err := json.Unmarshal(raw, &rec); err != nil {
		return "", fmt.Errorf("%w: malformed record: %v", common.ErrorValidation, err)
	}
	if err := s.check(rec); err != nil {
		return "", err
	}

	id := key(&rec)
	switch {
	case !upsert:
		*id = uuid.NewString()
	case *id == "":
		return "", fmt.Errorf("%w: id is required", common.ErrorValidation)
	}

	if err := store(&rec); err != nil {
		return "", fmt.Errorf("error writing record: %w", err)
	}
	return *id, nil
}

// List returns the full collection as a slice of its model type.
func (s *DataService) List(ctx context.Context, collection string) (any, error) {
	var (
		items any
		err   error
	)
	switch collection {
	case rpc.CollectionCustomers:
		items, err = s.repomanager.Customers(s.db).List(ctx)
	case rpc.CollectionRecipes:
		items, err = s.repomanager.Recipes(s.db).List(ctx)
	case rpc.CollectionUsers:
		items, err = s.repomanager.Users(s.db).List(ctx)
	case rpc.CollectionOrders:
		items, err = s.repomanager.Orders(s.db).List(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	if err != nil {
		return nil, fmt.Errorf("error listing %s: %w", collection, err)
	}
	return items, nil
}

// Subscribe returns a subscription notified after each write to
// collection. The caller must Close it.
func (s *DataService) Subscribe(collection string) (*changefeed.Subscription, error) {
	if !known(collection) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	return s.feed.Subscribe(collection), nil
}

func (s *DataService) checkWritable(collection string) error {
	if !known(collection) {
		return fmt.Errorf("%w: %q", ErrUnknownCollection, collection)
	}
	if !rpc.Writable(collection) {
		return fmt.Errorf("%w: %q", ErrReadOnlyOperation, collection)
	}
	return nil
}

func (s *DataService) check(v any) error {
	if err := s.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s %s", common.ErrorValidation, verrs[0].Field(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", common.ErrorValidation, err)
	}
	return nil
}

// changed announces a write. A failed announcement does not fail the write;
// watchers catch up on the next change.
func (s *DataService) changed(ctx context.Context, collection string) {
	if err := s.feed.Publish(ctx, collection); err != nil {
		s.logger.Warn(ctx, "failed to publish change", "collection", collection, "error", err)
	}
}

func known(collection string) bool {
	return slices.Contains(rpc.Collections, collection)
}
