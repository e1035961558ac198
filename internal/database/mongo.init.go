package database

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"soug_elwahah/internal/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EnsureCollections tạo các collection còn thiếu trong database
func EnsureCollections(ctx context.Context, db *mongo.Database, names []string) error {
	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to list collections: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, n := range existing {
		have[n] = true
	}

	for _, name := range names {
		if name == "" || have[name] {
			continue
		}
		logger.GetAppLogger().Infof("Collection %s chưa tồn tại, tạo mới.", name)
		if err := db.CreateCollection(ctx, name); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
	}
	logger.GetAppLogger().Infof("Database and collections are ensured in database: %s", db.Name())
	return nil
}

// IndexSpec mô tả một index đọc từ struct tag `index`
type IndexSpec struct {
	Name   string
	Keys   bson.D
	Unique bool
	Sparse bool
	TTL    *int32
}

// Options chuyển IndexSpec thành options của driver
func (s IndexSpec) Options() *options.IndexOptions {
	opts := options.Index().SetName(s.Name)
	if s.Unique {
		opts.SetUnique(true)
	}
	if s.Sparse {
		opts.SetSparse(true)
	}
	if s.TTL != nil {
		opts.SetExpireAfterSeconds(*s.TTL)
	}
	return opts
}

// parseIndexTag tách tag "unique,sparse;compound:order_status" thành các cấu hình key → value
func parseIndexTag(tag string) []map[string]string {
	var result []map[string]string
	for _, part := range strings.Split(tag, ";") {
		entry := map[string]string{}
		for _, sub := range strings.Split(part, ",") {
			kv := strings.SplitN(strings.TrimSpace(sub), ":", 2)
			if len(kv) == 2 {
				entry[kv[0]] = kv[1]
			} else if kv[0] != "" {
				entry[kv[0]] = ""
			}
		}
		result = append(result, entry)
	}
	return result
}

func bsonFieldName(field reflect.StructField) string {
	name := strings.Split(field.Tag.Get("bson"), ",")[0]
	if name == "-" {
		return ""
	}
	return name
}

func parseOrder(v string) int {
	if v == "-1" {
		return -1
	}
	return 1
}

// IndexSpecsFor đọc tag `index` của model và trả về danh sách index cần có.
//
// Cú pháp tag:
//   - single:1 | single:-1
//   - unique | unique,sparse
//   - ttl:<seconds>
//   - compound:<name>[,order:-1] (tên chứa "_unique" → unique)
func IndexSpecsFor(model interface{}) ([]IndexSpec, error) {
	t := reflect.TypeOf(model)
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}

	var specs []IndexSpec
	compound := map[string]*IndexSpec{}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		tag, ok := field.Tag.Lookup("index")
		if !ok {
			continue
		}
		name := bsonFieldName(field)
		if name == "" {
			continue
		}

		for _, cfg := range parseIndexTag(tag) {
			_, sparse := cfg["sparse"]

			if order, ok := cfg["single"]; ok {
				specs = append(specs, IndexSpec{Name: name + "_single", Keys: bson.D{{Key: name, Value: parseOrder(order)}}})
			}
			if _, ok := cfg["unique"]; ok {
				specs = append(specs, IndexSpec{Name: name + "_unique", Keys: bson.D{{Key: name, Value: 1}}, Unique: true, Sparse: sparse})
			}
			if v, ok := cfg["ttl"]; ok {
				ttl, err := strconv.Atoi(v)
				if err != nil {
					return nil, fmt.Errorf("TTL không hợp lệ trên field %s: %w", name, err)
				}
				ttl32 := int32(ttl)
				specs = append(specs, IndexSpec{Name: name + "_ttl", Keys: bson.D{{Key: name, Value: 1}}, TTL: &ttl32})
			}
			if group, ok := cfg["compound"]; ok {
				spec, exists := compound[group]
				if !exists {
					spec = &IndexSpec{Name: group, Unique: strings.Contains(group, "_unique")}
					compound[group] = spec
				}
				spec.Keys = append(spec.Keys, bson.E{Key: name, Value: parseOrder(cfg["order"])})
				spec.Sparse = spec.Sparse || sparse
			}
		}
	}

	groups := make([]string, 0, len(compound))
	for g := range compound {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	for _, g := range groups {
		specs = append(specs, *compound[g])
	}
	return specs, nil
}

// CreateIndexes tạo (hoặc thay thế nếu khác cấu hình) các index khai báo trên model
func CreateIndexes(ctx context.Context, coll *mongo.Collection, model interface{}) error {
	specs, err := IndexSpecsFor(model)
	if err != nil {
		return err
	}

	cursor, err := coll.Indexes().List(ctx)
	if err != nil {
		return fmt.Errorf("không thể lấy danh sách index: %w", err)
	}
	existing := map[string]bson.M{}
	for cursor.Next(ctx) {
		var info bson.M
		if err := cursor.Decode(&info); err != nil {
			_ = cursor.Close(ctx)
			return fmt.Errorf("không thể giải mã thông tin index: %w", err)
		}
		if name, ok := info["name"].(string); ok {
			existing[name] = info
		}
	}
	_ = cursor.Close(ctx)

	log := logger.WithModule("database").WithField("collection", coll.Name())
	for _, spec := range specs {
		if info, ok := existing[spec.Name]; ok {
			if sameIndex(info, spec) {
				continue
			}
			if _, err := coll.Indexes().DropOne(ctx, spec.Name); err != nil {
				return fmt.Errorf("không thể xóa index %s: %w", spec.Name, err)
			}
			log.Infof("Đã xóa index cũ: %s", spec.Name)
		}
		if _, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: spec.Keys, Options: spec.Options()}); err != nil {
			return fmt.Errorf("không thể tạo index %s: %w", spec.Name, err)
		}
		log.Infof("Đã tạo index: %s", spec.Name)
	}
	return nil
}

func sameIndex(info bson.M, spec IndexSpec) bool {
	keys, ok := info["key"].(bson.M)
	if !ok || len(keys) != len(spec.Keys) {
		return false
	}
	for _, k := range spec.Keys {
		v, ok := keys[k.Key]
		if !ok || toInt(v) != k.Value {
			return false
		}
	}
	unique, _ := info["unique"].(bool)
	if unique != spec.Unique {
		return false
	}
	if spec.TTL != nil {
		ttl, ok := info["expireAfterSeconds"].(int32)
		if !ok || ttl != *spec.TTL {
			return false
		}
	}
	return true
}

func toInt(v interface{}) interface{} {
	switch n := v.(type) {
	case int32:
		return int(n)
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return v
}
