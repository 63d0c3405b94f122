package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/dukerupert/grocer/internal/config"
	"github.com/dukerupert/grocer/internal/model"
)

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// GroceryStore is the persistence gateway for grocery lists and items. A
// store returned to a WithTx callback runs every statement on that
// transaction.
type GroceryStore struct {
	db   *sql.DB
	q    querier
	sq   squirrel.StatementBuilderType
	inTx bool
}

func NewGroceryStore(db *sql.DB, driver string) *GroceryStore {
	var format squirrel.PlaceholderFormat = squirrel.Question
	if driver == config.DriverPostgres {
		format = squirrel.Dollar
	}
	return &GroceryStore{
		db: db,
		q:  db,
		sq: squirrel.StatementBuilder.PlaceholderFormat(format),
	}
}

// WithTx runs fn inside a transaction, committing when fn returns nil and
// rolling back otherwise. Calls on a store that is already transactional
// join the outer transaction.
func (s *GroceryStore) WithTx(ctx context.Context, fn func(tx *GroceryStore) error) (err error) {
	if s.inTx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(&GroceryStore{db: s.db, q: tx, sq: s.sq, inTx: true}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// --- List methods ---

func scanList(scanner interface{ Scan(...any) error }) (*model.GroceryList, error) {
	var l model.GroceryList
	var stores, description sql.NullString
	var listDate sql.NullTime

	err := scanner.Scan(
		&l.ID, &l.Name, &stores, &description, &l.Owner,
		&listDate, &l.IsClosed, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	l.Stores = nullString(stores)
	l.Description = nullString(description)
	if listDate.Valid {
		l.ListDate = &listDate.Time
	}
	return &l, nil
}

const listCols = `id, name, stores, description, owner, list_date, is_closed, created_at, updated_at`

func (s *GroceryStore) GetList(ctx context.Context, id int64) (*model.GroceryList, error) {
	query, args, err := s.sq.Select(listCols).From("grocery_lists").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get list: %w", err)
	}

	l, err := scanList(s.q.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	return l, nil
}

// ListsByOwner returns the owner's lists, most recently updated first.
// Closed lists are skipped unless includeClosed is set. A limit <= 0 means
// no limit.
func (s *GroceryStore) ListsByOwner(ctx context.Context, owner string, offset, limit int, includeClosed bool) ([]model.GroceryList, error) {
	q := s.sq.Select(listCols).From("grocery_lists").Where(squirrel.Eq{"owner": owner})
	if !includeClosed {
		q = q.Where(squirrel.Eq{"is_closed": false})
	}
	q = paginate(q.OrderBy("updated_at DESC", "id DESC"), offset, limit)

	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list lists: %w", err)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	defer rows.Close()

	var lists []model.GroceryList
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}

// CreateList inserts a list whose name has already been resolved.
func (s *GroceryStore) CreateList(ctx context.Context, l model.GroceryList) (*model.GroceryList, error) {
	query, args, err := s.sq.Insert("grocery_lists").
		Columns("name", "stores", "description", "owner", "list_date", "is_closed", "created_at", "updated_at").
		Values(l.Name, l.Stores, l.Description, l.Owner, l.ListDate, l.IsClosed, l.CreatedAt, l.UpdatedAt).
		Suffix("RETURNING " + listCols).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert list: %w", err)
	}

	created, err := scanList(s.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("insert list: %w", err)
	}
	return created, nil
}

// UpdateList applies the present fields of patch and stamps updated_at.
// It returns nil when the list does not exist.
func (s *GroceryStore) UpdateList(ctx context.Context, id int64, patch model.ListPatch, now time.Time) (*model.GroceryList, error) {
	cols := patch.Columns()
	cols["updated_at"] = now

	query, args, err := s.sq.Update("grocery_lists").
		SetMap(cols).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + listCols).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update list: %w", err)
	}

	l, err := scanList(s.q.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update list: %w", err)
	}
	return l, nil
}

// DeleteList removes the list and its items in one transaction and reports
// how many items went with it.
func (s *GroceryStore) DeleteList(ctx context.Context, id int64) (int64, error) {
	var removed int64
	err := s.WithTx(ctx, func(tx *GroceryStore) error {
		query, args, err := tx.sq.Delete("grocery_items").Where(squirrel.Eq{"grocery_list_id": id}).ToSql()
		if err != nil {
			return fmt.Errorf("build delete list items: %w", err)
		}
		result, err := tx.q.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("delete list items: %w", err)
		}
		if removed, err = result.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}

		query, args, err = tx.sq.Delete("grocery_lists").Where(squirrel.Eq{"id": id}).ToSql()
		if err != nil {
			return fmt.Errorf("build delete list: %w", err)
		}
		if _, err := tx.q.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("delete list: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return removed, nil
}

// --- Item methods ---

func scanItem(scanner interface{ Scan(...any) error }) (*model.GroceryItem, error) {
	var item model.GroceryItem
	var unit, category, store, notes sql.NullString

	err := scanner.Scan(
		&item.ID, &item.GroceryListID, &item.Name, &item.Quantity, &unit,
		&category, &store, &notes, &item.Purchased, &item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Unit = nullString(unit)
	item.Category = nullString(category)
	item.Store = nullString(store)
	item.Notes = nullString(notes)
	return &item, nil
}

const itemCols = `id, grocery_list_id, name, quantity, unit, category, store, notes, purchased, created_at, updated_at`

func (s *GroceryStore) GetItem(ctx context.Context, id int64) (*model.GroceryItem, error) {
	query, args, err := s.sq.Select(itemCols).From("grocery_items").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get item: %w", err)
	}

	item, err := scanItem(s.q.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ItemsByList returns a list's items, unpurchased first and oldest first
// within each group. A limit <= 0 means no limit.
func (s *GroceryStore) ItemsByList(ctx context.Context, listID int64, offset, limit int) ([]model.GroceryItem, error) {
	q := s.sq.Select(itemCols).From("grocery_items").
		Where(squirrel.Eq{"grocery_list_id": listID}).
		OrderBy("purchased ASC", "created_at ASC", "id ASC")
	return s.queryItems(ctx, paginate(q, offset, limit))
}

// ItemsByIDs returns the items that exist among ids, ordered by id.
func (s *GroceryStore) ItemsByIDs(ctx context.Context, ids []int64) ([]model.GroceryItem, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	q := s.sq.Select(itemCols).From("grocery_items").
		Where(squirrel.Eq{"id": ids}).
		OrderBy("id ASC")
	return s.queryItems(ctx, q)
}

func (s *GroceryStore) queryItems(ctx context.Context, q squirrel.SelectBuilder) ([]model.GroceryItem, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list items: %w", err)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.GroceryItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *GroceryStore) CreateItem(ctx context.Context, item model.GroceryItem) (*model.GroceryItem, error) {
	query, args, err := s.sq.Insert("grocery_items").
		Columns("grocery_list_id", "name", "quantity", "unit", "category", "store", "notes", "purchased", "created_at", "updated_at").
		Values(item.GroceryListID, item.Name, item.Quantity, item.Unit, item.Category, item.Store, item.Notes, item.Purchased, item.CreatedAt, item.UpdatedAt).
		Suffix("RETURNING " + itemCols).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build insert item: %w", err)
	}

	created, err := scanItem(s.q.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return created, nil
}

// UpdateItem applies the present fields of patch and stamps updated_at.
// It returns nil when the item does not exist.
func (s *GroceryStore) UpdateItem(ctx context.Context, id int64, patch model.ItemPatch, now time.Time) (*model.GroceryItem, error) {
	cols := patch.Columns()
	cols["updated_at"] = now

	query, args, err := s.sq.Update("grocery_items").
		SetMap(cols).
		Where(squirrel.Eq{"id": id}).
		Suffix("RETURNING " + itemCols).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build update item: %w", err)
	}

	item, err := scanItem(s.q.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("update item: %w", err)
	}
	return item, nil
}

func (s *GroceryStore) DeleteItem(ctx context.Context, id int64) error {
	query, args, err := s.sq.Delete("grocery_items").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete item: %w", err)
	}
	if _, err := s.q.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

// ReassignItems moves every item in ids to listID and clears its purchased
// flag, in one transaction.
func (s *GroceryStore) ReassignItems(ctx context.Context, ids []int64, listID int64, now time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	var moved int64
	err := s.WithTx(ctx, func(tx *GroceryStore) error {
		query, args, err := tx.sq.Update("grocery_items").
			Set("grocery_list_id", listID).
			Set("purchased", false).
			Set("updated_at", now).
			Where(squirrel.Eq{"id": ids}).
			ToSql()
		if err != nil {
			return fmt.Errorf("build reassign items: %w", err)
		}
		result, err := tx.q.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("reassign items: %w", err)
		}
		if moved, err = result.RowsAffected(); err != nil {
			return fmt.Errorf("rows affected: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return moved, nil
}

// --- Store name methods ---

// PopularStores returns the most used non-empty item store names across all
// lists, most frequent first and alphabetical among equals.
func (s *GroceryStore) PopularStores(ctx context.Context, limit int) ([]string, error) {
	query, args, err := s.sq.Select("store", "COUNT(*) AS uses").
		From("grocery_items").
		Where(squirrel.NotEq{"store": nil}).
		Where(squirrel.NotEq{"store": ""}).
		GroupBy("store").
		OrderBy("uses DESC", "store ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build popular stores: %w", err)
	}

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("popular stores: %w", err)
	}
	defer rows.Close()

	var stores []string
	for rows.Next() {
		var name string
		var uses int64
		if err := rows.Scan(&name, &uses); err != nil {
			return nil, fmt.Errorf("scan store: %w", err)
		}
		stores = append(stores, name)
	}
	return stores, rows.Err()
}

func paginate(q squirrel.SelectBuilder, offset, limit int) squirrel.SelectBuilder {
	switch {
	case limit > 0:
		q = q.Limit(uint64(limit))
	case offset > 0:
		// SQLite rejects OFFSET without LIMIT.
		q = q.Limit(math.MaxInt64)
	}
	if offset > 0 {
		q = q.Offset(uint64(offset))
	}
	return q
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}
