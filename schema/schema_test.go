package schema

import (
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type User struct {
	ID        string    `db:"id;primary;generator:uuid"`
	FirstName string    `db:"first_name"`
	Email     string
	AccountID int64     `db:"account_id;fk:accounts.id"`
	CreatedAt time.Time `db:"created_at;readonly"`
	Secret    string    `db:"-"`
	internal  int
}

type BlogPost struct {
	ID    int64
	Title string
}

type Membership struct {
	TenantID int64 `db:"tenant_id;primary;fk:tenants.id"`
	UserID   int64 `db:"user_id;primary;fk:users.id"`
}

type Legacy struct {
	Code string `db:"code;primary"`
}

func (Legacy) TableName() string { return "archive.legacy_items" }

func TestIntrospect(t *testing.T) {
	tests := []struct {
		name        string
		inputType   reflect.Type
		wantTable   string
		wantSchema  string
		wantColumns []string
		wantPK      []string
	}{
		{
			name:        "TaggedStruct",
			inputType:   reflect.TypeOf(User{}),
			wantTable:   "users",
			wantColumns: []string{"id", "first_name", "email", "account_id", "created_at"},
			wantPK:      []string{"id"},
		},
		{
			name:        "PointerToUntaggedStruct",
			inputType:   reflect.TypeOf(&BlogPost{}),
			wantTable:   "blog_posts",
			wantColumns: []string{"id", "title"},
			wantPK:      []string{"id"},
		},
		{
			name:        "CompositeKey",
			inputType:   reflect.TypeOf(Membership{}),
			wantTable:   "memberships",
			wantColumns: []string{"tenant_id", "user_id"},
			wantPK:      []string{"tenant_id", "user_id"},
		},
		{
			name:        "CustomTableName",
			inputType:   reflect.TypeOf(Legacy{}),
			wantTable:   "legacy_items",
			wantSchema:  "archive",
			wantColumns: []string{"code"},
			wantPK:      []string{"code"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := Introspect(tt.inputType)
			require.NoError(t, err)
			assert.Equal(t, tt.wantTable, meta.Table)
			assert.Equal(t, tt.wantSchema, meta.Schema)
			assert.Equal(t, tt.wantColumns, meta.Columns())
			assert.Equal(t, tt.wantPK, meta.PrimaryKey)
		})
	}

	_, err := Introspect(reflect.TypeOf(42))
	assert.ErrorIs(t, err, ErrNotStruct)
}

func TestIntrospectIsCached(t *testing.T) {
	a, err := Of[User]()
	require.NoError(t, err)
	b, err := Introspect(reflect.TypeOf(&User{}))
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestForeignKeys(t *testing.T) {
	meta, err := Of[Membership]()
	require.NoError(t, err)

	fk, err := meta.ForeignKeyTo("users")
	require.NoError(t, err)
	assert.Equal(t, ForeignKey{Columns: []string{"user_id"}, RefTable: "users", RefColumns: []string{"id"}}, fk)

	_, err = meta.ForeignKeyTo("orders")
	assert.ErrorIs(t, err, ErrNoForeignKey)
}

func TestValuesAndPrimaryKey(t *testing.T) {
	meta, err := Of[User]()
	require.NoError(t, err)

	u := &User{ID: "u1", FirstName: "Ada", Email: "ada@example.com", AccountID: 3}
	values, err := meta.Values(u)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"id":         "u1",
		"first_name": "Ada",
		"email":      "ada@example.com",
		"account_id": int64(3),
	}, values)

	pk, err := meta.PrimaryKeyValues(*u)
	require.NoError(t, err)
	assert.Equal(t, []any{"u1"}, pk)

	_, err = meta.Values(u, "missing")
	assert.ErrorIs(t, err, ErrUnknownColumn)

	_, err = meta.Values(&BlogPost{})
	assert.ErrorIs(t, err, ErrNotStruct)
}

func TestGenerate(t *testing.T) {
	meta, err := Of[User]()
	require.NoError(t, err)

	u := &User{}
	require.NoError(t, meta.Generate(u))
	_, err = uuid.Parse(u.ID)
	assert.NoError(t, err)

	kept := &User{ID: "fixed"}
	require.NoError(t, meta.Generate(kept))
	assert.Equal(t, "fixed", kept.ID)

	assert.ErrorIs(t, meta.Generate(User{}), ErrNotAddressable)
}

func TestScanTargets(t *testing.T) {
	meta, err := Of[User]()
	require.NoError(t, err)

	u := &User{}
	targets, err := meta.ScanTargets(u, []string{"first_name", "unknown", "account_id"})
	require.NoError(t, err)
	require.Len(t, targets, 3)

	*(targets[0].(*string)) = "Grace"
	*(targets[2].(*int64)) = 9
	assert.Equal(t, "Grace", u.FirstName)
	assert.Equal(t, int64(9), u.AccountID)
}

func TestNewEntityMeta(t *testing.T) {
	meta := NewEntityMeta("public", "orders", []string{"id", "user_id", "total"}, []string{"id"},
		ForeignKey{Columns: []string{"user_id"}, RefTable: "users", RefColumns: []string{"id"}})

	assert.Equal(t, "public.orders(id,user_id,total)pk(id)", meta.Identity())
	assert.Equal(t, "self", meta.Ref().Alias)
	assert.True(t, meta.ColumnMap["id"].Primary)

	other := NewEntityMeta("public", "orders", []string{"id", "total"}, []string{"id"})
	assert.NotEqual(t, meta.Identity(), other.Identity())

	_, err := meta.Values(struct{}{})
	assert.ErrorIs(t, err, ErrNotStruct)
}

func TestRegistry(t *testing.T) {
	var evicted []reflect.Type
	r, err := New(
		WithNamingStrategy(NewSnakeCaseStrategy(false)),
		WithTagName("sql"),
		WithCacheSize(1),
		WithEvictionCallback(func(t reflect.Type, _ *EntityMeta) { evicted = append(evicted, t) }),
	)
	require.NoError(t, err)

	type Tagged struct {
		Key string `sql:"k;primary"`
	}
	meta, err := r.Introspect(reflect.TypeOf(Tagged{}))
	require.NoError(t, err)
	assert.Equal(t, "tagged", meta.Table)
	assert.Equal(t, []string{"k"}, meta.PrimaryKey)

	_, err = r.Introspect(reflect.TypeOf(BlogPost{}))
	require.NoError(t, err)
	assert.Equal(t, 1, r.Len())
	assert.Equal(t, []reflect.Type{reflect.TypeOf(Tagged{})}, evicted)
}

func TestTagParser(t *testing.T) {
	p := NewTagParser("db", DefaultNamingStrategy())

	tests := []struct {
		name    string
		tag     reflect.StructTag
		want    ParsedTag
		wantErr bool
	}{
		{"NoTag", ``, ParsedTag{ColumnName: "user_id"}, false},
		{"Simple", `db:"uid"`, ParsedTag{ColumnName: "uid"}, false},
		{"Skip", `db:"-"`, ParsedTag{Skip: true}, false},
		{"FlagsOnly", `db:"primary;readonly"`, ParsedTag{ColumnName: "user_id", Primary: true, ReadOnly: true}, false},
		{"Explicit", `db:"column:u;fk:users.id"`, ParsedTag{ColumnName: "u", ForeignKey: "users.id"}, false},
		{"Generator", `db:"id;gen:ulid"`, ParsedTag{ColumnName: "id", Generator: "ulid"}, false},
		{"BadForeignKey", `db:"fk:users"`, ParsedTag{}, true},
		{"BadGenerator", `db:"generator:snowflake"`, ParsedTag{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := p.ParseTag("UserID", tt.tag)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestNaming(t *testing.T) {
	tests := []struct {
		in, column, table string
	}{
		{"FirstName", "first_name", "first_names"},
		{"HTTPServer", "http_server", "http_servers"},
		{"BlogPost", "blog_post", "blog_posts"},
		{"Category", "category", "categories"},
		{"Person", "person", "people"},
	}

	s := DefaultNamingStrategy()
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.column, s.ColumnName(tt.in))
			assert.Equal(t, tt.table, s.TableName(tt.in))
		})
	}
}
