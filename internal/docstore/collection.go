package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Sort describes the ordering of a paginated read.
type Sort struct {
	Field string
	Desc  bool
}

// Collection stores one kind of document. Each document is a JSON blob in a
// two-column table keyed by the document id; everything except id-equality
// lookups is evaluated over the decoded documents.
type Collection struct {
	db    *gorm.DB
	table string
}

type row struct {
	ID  string         `gorm:"primaryKey;column:id"`
	Doc datatypes.JSON `gorm:"column:doc"`
}

// Open returns the collection stored in the given table, creating the
// table if needed.
func Open(db *gorm.DB, table string) (*Collection, error) {
	c := &Collection{db: db, table: table}
	if err := db.Table(table).AutoMigrate(&row{}); err != nil {
		return nil, fmt.Errorf("failed to migrate collection %s: %w", table, err)
	}
	return c, nil
}

// Add inserts documents. Each document must carry a non-empty "id" field.
func (c *Collection) Add(ctx context.Context, docs ...interface{}) error {
	if len(docs) == 0 {
		return nil
	}
	rows := make([]row, 0, len(docs))
	for _, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		var idHolder struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(data, &idHolder); err != nil || idHolder.ID == "" {
			return fmt.Errorf("document has no id")
		}
		rows = append(rows, row{ID: idHolder.ID, Doc: datatypes.JSON(data)})
	}
	if err := c.db.WithContext(ctx).Table(c.table).Create(&rows).Error; err != nil {
		return fmt.Errorf("failed to insert documents: %w", err)
	}
	return nil
}

// GetOne fetches the first document matching the filter into dest.
// Returns false with a nil error when nothing matches.
func (c *Collection) GetOne(ctx context.Context, f Filter, projection []string, dest interface{}) (bool, error) {
	doc, _, err := c.findOne(ctx, c.db, f)
	if err != nil {
		return false, err
	}
	if doc == nil {
		return false, nil
	}
	if len(projection) > 0 {
		doc = project(doc, projection)
	}
	return true, decodeInto(doc, dest)
}

// GetAll fetches every matching document into dest (a pointer to a slice).
// No ordering is guaranteed; display ordering is the caller's concern.
func (c *Collection) GetAll(ctx context.Context, f Filter, projection []string, dest interface{}) error {
	docs, err := c.findAll(ctx, f)
	if err != nil {
		return err
	}
	if len(projection) > 0 {
		for i, doc := range docs {
			docs[i] = project(doc, projection)
		}
	}
	return decodeSliceInto(docs, dest)
}

// Get fetches a sorted page of matching documents into dest and reports the
// total match count. Page numbering starts at 1; limit <= 0 disables
// pagination.
func (c *Collection) Get(ctx context.Context, f Filter, s Sort, limit, page int, dest interface{}) (int64, error) {
	docs, err := c.findAll(ctx, f)
	if err != nil {
		return 0, err
	}
	total := int64(len(docs))

	if s.Field != "" {
		sort.SliceStable(docs, func(i, j int) bool {
			a, aok := lookup(docs[i], s.Field)
			b, bok := lookup(docs[j], s.Field)
			// Documents missing the sort field go last.
			if !aok {
				return false
			}
			if !bok {
				return true
			}
			cmp, ok := compareValues(a, b)
			if !ok {
				return false
			}
			if s.Desc {
				return cmp > 0
			}
			return cmp < 0
		})
	}

	if limit > 0 {
		if page < 1 {
			page = 1
		}
		start := (page - 1) * limit
		if start > len(docs) {
			start = len(docs)
		}
		end := start + limit
		if end > len(docs) {
			end = len(docs)
		}
		docs = docs[start:end]
	}

	return total, decodeSliceInto(docs, dest)
}

// UpdateOne applies a read-modify-write to the first matching document
// inside a transaction. Returns false with a nil error when nothing matches.
func (c *Collection) UpdateOne(ctx context.Context, f Filter, apply func(doc map[string]interface{}) (map[string]interface{}, error)) (bool, error) {
	updated := false
	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		doc, id, err := c.findOne(ctx, tx, f)
		if err != nil {
			return err
		}
		if doc == nil {
			return nil
		}
		next, err := apply(doc)
		if err != nil {
			return err
		}
		if next == nil {
			// Guard declined the update; zero rows affected.
			return nil
		}
		data, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to encode document: %w", err)
		}
		res := tx.Table(c.table).Where("id = ?", id).Update("doc", datatypes.JSON(data))
		if res.Error != nil {
			return fmt.Errorf("failed to update document: %w", res.Error)
		}
		updated = res.RowsAffected > 0
		return nil
	})
	return updated, err
}

// Remove deletes every matching document and returns the number removed.
func (c *Collection) Remove(ctx context.Context, f Filter) (int64, error) {
	if ids, ok := idConstraint(f); ok {
		res := c.db.WithContext(ctx).Table(c.table).Where("id IN ?", ids).Delete(&row{})
		if res.Error != nil {
			return 0, fmt.Errorf("failed to remove documents: %w", res.Error)
		}
		return res.RowsAffected, nil
	}

	docs, err := c.findAll(ctx, f)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, nil
	}
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		if id, ok := doc["id"].(string); ok {
			ids = append(ids, id)
		}
	}
	res := c.db.WithContext(ctx).Table(c.table).Where("id IN ?", ids).Delete(&row{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to remove documents: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CreateIndexes creates expression indexes over the given document fields.
// Index shape differs per dialect; only top-level fields are supported.
func (c *Collection) CreateIndexes(ctx context.Context, fields ...string) error {
	for _, field := range fields {
		name := fmt.Sprintf("idx_%s_%s", c.table, strings.ReplaceAll(field, ".", "_"))
		var stmt string
		switch c.db.Dialector.Name() {
		case "postgres":
			stmt = fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s ((doc->>'%s'))", name, c.table, field)
		default:
			stmt = fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s ON %s (json_extract(doc, '$.%s'))", name, c.table, field)
		}
		if err := c.db.WithContext(ctx).Exec(stmt).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", name, err)
		}
	}
	return nil
}

// DropIndex drops an index previously created over a document field.
func (c *Collection) DropIndex(ctx context.Context, field string) error {
	name := fmt.Sprintf("idx_%s_%s", c.table, strings.ReplaceAll(field, ".", "_"))
	if err := c.db.WithContext(ctx).Exec(fmt.Sprintf("DROP INDEX IF EXISTS %s", name)).Error; err != nil {
		return fmt.Errorf("failed to drop index %s: %w", name, err)
	}
	return nil
}

func (c *Collection) findOne(ctx context.Context, tx *gorm.DB, f Filter) (map[string]interface{}, string, error) {
	if ids, ok := idConstraint(f); ok {
		var rows []row
		if err := tx.WithContext(ctx).Table(c.table).Where("id IN ?", ids).Limit(1).Find(&rows).Error; err != nil {
			return nil, "", fmt.Errorf("failed to read document: %w", err)
		}
		if len(rows) == 0 {
			return nil, "", nil
		}
		doc, err := decodeRow(rows[0])
		return doc, rows[0].ID, err
	}

	var rows []row
	if err := tx.WithContext(ctx).Table(c.table).Find(&rows).Error; err != nil {
		return nil, "", fmt.Errorf("failed to scan collection: %w", err)
	}
	for _, r := range rows {
		doc, err := decodeRow(r)
		if err != nil {
			return nil, "", err
		}
		if f.Match(doc) {
			return doc, r.ID, nil
		}
	}
	return nil, "", nil
}

func (c *Collection) findAll(ctx context.Context, f Filter) ([]map[string]interface{}, error) {
	var rows []row
	tx := c.db.WithContext(ctx).Table(c.table)
	if ids, ok := idConstraint(f); ok {
		tx = tx.Where("id IN ?", ids)
	}
	if err := tx.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to scan collection: %w", err)
	}
	matches := make([]map[string]interface{}, 0, len(rows))
	for _, r := range rows {
		doc, err := decodeRow(r)
		if err != nil {
			return nil, err
		}
		if f.Match(doc) {
			matches = append(matches, doc)
		}
	}
	return matches, nil
}

func decodeRow(r row) (map[string]interface{}, error) {
	var doc map[string]interface{}
	if err := json.Unmarshal(r.Doc, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", r.ID, err)
	}
	return doc, nil
}

func decodeInto(doc map[string]interface{}, dest interface{}) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

func decodeSliceInto(docs []map[string]interface{}, dest interface{}) error {
	data, err := json.Marshal(docs)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// project prunes a document to the requested dotted paths. The id field is
// always kept so callers can address what they read back.
func project(doc map[string]interface{}, fields []string) map[string]interface{} {
	out := map[string]interface{}{}
	if id, ok := doc["id"]; ok {
		out["id"] = id
	}
	for _, field := range fields {
		copyPath(doc, out, strings.Split(field, "."))
	}
	return out
}

func copyPath(src, dst map[string]interface{}, parts []string) {
	if len(parts) == 0 {
		return
	}
	v, ok := src[parts[0]]
	if !ok {
		return
	}
	if len(parts) == 1 {
		dst[parts[0]] = v
		return
	}
	srcChild, ok := v.(map[string]interface{})
	if !ok {
		return
	}
	dstChild, ok := dst[parts[0]].(map[string]interface{})
	if !ok {
		dstChild = map[string]interface{}{}
		dst[parts[0]] = dstChild
	}
	copyPath(srcChild, dstChild, parts[1:])
}
