package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/yukikurage/collab-task-api/internal/constants"
	"github.com/yukikurage/collab-task-api/internal/database"
	apierrors "github.com/yukikurage/collab-task-api/internal/errors"
	"github.com/yukikurage/collab-task-api/internal/models"
	"github.com/yukikurage/collab-task-api/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Fields maps API field names to column names. Only listed fields may be
// used for filtering, sorting and selection.
type Fields map[string]string

// QueryOptions controls relation preloading and field selection.
type QueryOptions struct {
	Preload []string
	Select  []string
}

// ListOptions holds filtering, sorting and pagination for GetAll.
type ListOptions struct {
	QueryOptions
	// Filter is an equality filter keyed by API field name.
	Filter map[string]any
	// Scopes narrow the query further, e.g. to the projects an actor can see.
	Scopes []func(*gorm.DB) *gorm.DB
	// Sort is a comma separated field list; a leading '-' sorts descending.
	Sort   string
	Params utils.PaginationParams
}

// Page is one slice of a GetAll result.
type Page[T any] struct {
	Items      []T
	Pagination utils.Pagination
}

// Hook runs inside the write transaction of the owning operation.
type Hook[T any] func(tx *gorm.DB, doc *T) error

type CreateOptions[T any] struct {
	Preload   []string
	Transform func(doc *T) error
	// AfterCreate propagates the insert to related documents.
	AfterCreate Hook[T]
}

type UpdateOptions[T any] struct {
	Preload []string
	// Transform applies the incoming changes to the loaded document.
	Transform   func(existing *T) error
	AfterUpdate Hook[T]
}

type DeleteOptions[T any] struct {
	// OnDelete runs before the document is removed.
	OnDelete Hook[T]
}

// Resource implements the canonical get/list/create/update/delete
// operations for one document type. It never touches other tables itself;
// cross-document effects are supplied through hooks.
type Resource[T any] struct {
	db     *gorm.DB
	name   string
	fields Fields
}

// NewResource creates a Resource for T. name is used in error messages.
func NewResource[T any](db *gorm.DB, name string, fields Fields) *Resource[T] {
	return &Resource[T]{db: db, name: name, fields: fields}
}

// GetOne finds a document by id.
func (r *Resource[T]) GetOne(ctx context.Context, id string, opts QueryOptions) (*T, error) {
	if err := r.checkID(id); err != nil {
		return nil, err
	}

	query := preload(r.db.WithContext(ctx), opts.Preload)
	if cols := r.columns(opts.Select); len(cols) > 0 {
		query = query.Select(cols)
	}

	var doc T
	if err := query.Where("id = ?", id).First(&doc).Error; err != nil {
		return nil, r.wrap("find", err)
	}
	return &doc, nil
}

// GetAll returns one page of documents matching opts. The total is counted
// with the same filter and scopes as the page query.
func (r *Resource[T]) GetAll(ctx context.Context, opts ListOptions) (*Page[T], error) {
	params := opts.Params
	if params.Limit == 0 {
		params = utils.NewPaginationParams(constants.MinPageSize, constants.DefaultPageSize)
	}

	where, err := r.filter(opts.Filter)
	if err != nil {
		return nil, err
	}
	order, err := r.order(opts.Sort)
	if err != nil {
		return nil, err
	}

	filtered := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(new(T))
		if len(where) > 0 {
			query = query.Where(where)
		}
		return query.Scopes(opts.Scopes...)
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, r.wrap("count", err)
	}

	query := preload(filtered(), opts.Preload)
	if cols := r.columns(opts.Select); len(cols) > 0 {
		query = query.Select(cols)
	}

	items := make([]T, 0, params.Limit)
	if err := query.Clauses(order).Scopes(database.Paginate(params)).Find(&items).Error; err != nil {
		return nil, r.wrap("list", err)
	}

	return &Page[T]{
		Items:      items,
		Pagination: utils.NewPagination(params, total),
	}, nil
}

// CreateOne inserts doc after applying the optional transform.
func (r *Resource[T]) CreateOne(ctx context.Context, doc *T, opts CreateOptions[T]) (*T, error) {
	if opts.Transform != nil {
		if err := opts.Transform(doc); err != nil {
			return nil, err
		}
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(doc).Error; err != nil {
			return err
		}
		if opts.AfterCreate != nil {
			return opts.AfterCreate(tx, doc)
		}
		return nil
	})
	if err != nil {
		return nil, r.wrap("create", err)
	}

	return r.reload(ctx, doc, opts.Preload)
}

// UpdateOne loads the document, applies the transform and saves it with the
// same schema validation as CreateOne.
func (r *Resource[T]) UpdateOne(ctx context.Context, id string, opts UpdateOptions[T]) (*T, error) {
	if err := r.checkID(id); err != nil {
		return nil, err
	}

	var doc T
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&doc).Error; err != nil {
			return err
		}
		if opts.Transform != nil {
			if err := opts.Transform(&doc); err != nil {
				return err
			}
		}
		if err := tx.Omit(clause.Associations).Save(&doc).Error; err != nil {
			return err
		}
		if opts.AfterUpdate != nil {
			return opts.AfterUpdate(tx, &doc)
		}
		return nil
	})
	if err != nil {
		return nil, r.wrap("update", err)
	}

	return r.reload(ctx, &doc, opts.Preload)
}

// DeleteOne runs the OnDelete hook and removes the document in one
// transaction. The removed document is returned.
func (r *Resource[T]) DeleteOne(ctx context.Context, id string, opts DeleteOptions[T]) (*T, error) {
	if err := r.checkID(id); err != nil {
		return nil, err
	}

	var doc T
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&doc).Error; err != nil {
			return err
		}
		if opts.OnDelete != nil {
			if err := opts.OnDelete(tx, &doc); err != nil {
				return err
			}
		}
		return tx.Delete(&doc).Error
	})
	if err != nil {
		return nil, r.wrap("delete", err)
	}

	return &doc, nil
}

func (r *Resource[T]) reload(ctx context.Context, doc *T, relations []string) (*T, error) {
	if len(relations) == 0 {
		return doc, nil
	}
	if err := preload(r.db.WithContext(ctx), relations).First(doc).Error; err != nil {
		return nil, r.wrap("reload", err)
	}
	return doc, nil
}

func (r *Resource[T]) checkID(id string) error {
	if !models.IsValidID(id) {
		return apierrors.Validation(fmt.Sprintf("Invalid %s id", strings.ToLower(r.name)),
			apierrors.FieldError{Field: "id", Message: "ID must be a valid document id"})
	}
	return nil
}

func (r *Resource[T]) columns(selected []string) []string {
	if len(selected) == 0 {
		return nil
	}
	cols := []string{"id"}
	for _, field := range selected {
		if col, ok := r.fields[field]; ok && col != "id" {
			cols = append(cols, col)
		}
	}
	return cols
}

func (r *Resource[T]) filter(filter map[string]any) (map[string]any, error) {
	where := make(map[string]any, len(filter))
	for field, value := range filter {
		col, ok := r.fields[field]
		if !ok {
			return nil, apierrors.Validation(fmt.Sprintf("Cannot filter by %q", field))
		}
		where[col] = value
	}
	return where, nil
}

func (r *Resource[T]) order(sort string) (clause.OrderBy, error) {
	var columns []clause.OrderByColumn
	for _, field := range strings.Split(sort, ",") {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		desc := strings.HasPrefix(field, "-")
		field = strings.TrimPrefix(field, "-")

		col, ok := r.fields[field]
		if !ok {
			return clause.OrderBy{}, apierrors.Validation(fmt.Sprintf("Cannot sort by %q", field))
		}
		columns = append(columns, clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: desc})
	}

	if len(columns) == 0 {
		columns = append(columns, clause.OrderByColumn{Column: clause.Column{Name: "created_at"}, Desc: true})
	}
	// ids are time ordered, which keeps equal timestamps stable
	columns = append(columns, clause.OrderByColumn{Column: clause.Column{Name: "id"}, Desc: true})

	return clause.OrderBy{Columns: columns}, nil
}

func (r *Resource[T]) wrap(op string, err error) error {
	var apiErr *apierrors.APIError
	switch {
	case errors.As(err, &apiErr):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apierrors.NotFound(r.name)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &apierrors.APIError{Kind: apierrors.KindDuplicate, Message: r.name + " already exists", Err: err}
	default:
		return fmt.Errorf("%s %s: %w", op, strings.ToLower(r.name), err)
	}
}

func preload(db *gorm.DB, relations []string) *gorm.DB {
	for _, p := range relations {
		db = db.Preload(p)
	}
	return db
}
