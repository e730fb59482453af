package account

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"

	"github.com/zx06/xacct/internal/errors"
	"github.com/zx06/xacct/internal/kv"
	xlog "github.com/zx06/xacct/internal/log"
)

// seqIDs 生成 id-1, id-2, ...
func seqIDs() IDGenerator {
	n := 0
	return IDGeneratorFunc(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
}

// flakyStore 包装 Memory，可让 Get/Set 失败。
type flakyStore struct {
	*kv.Memory
	failGet bool
	failSet bool
	sets    int
}

func (s *flakyStore) Get(ctx context.Context, key string) (string, bool, error) {
	if s.failGet {
		return "", false, stderrors.New("read refused")
	}
	return s.Memory.Get(ctx, key)
}

func (s *flakyStore) Set(ctx context.Context, key, value string) error {
	if s.failSet {
		return stderrors.New("quota exceeded")
	}
	s.sets++
	return s.Memory.Set(ctx, key, value)
}

func newLoaded(t *testing.T, store kv.Store, opts ...Option) *Repository {
	t.Helper()
	opts = append([]Option{WithIDGenerator(seqIDs())}, opts...)
	r := NewRepository(store, opts...)
	if xe := r.Load(context.Background()); xe != nil {
		t.Fatalf("Load failed: %v", xe)
	}
	return r
}

// assertSnapshot 校验 store 中的快照等于内存列表的序列化结果。
func assertSnapshot(t *testing.T, r *Repository, store kv.Store) {
	t.Helper()
	want, err := Encode(r.List())
	if err != nil {
		t.Fatal(err)
	}
	got, found, err := store.Get(context.Background(), r.Key())
	if err != nil || !found {
		t.Fatalf("snapshot missing: found=%v err=%v", found, err)
	}
	if got != want {
		t.Fatalf("snapshot mismatch:\n got  %s\n want %s", got, want)
	}
}

func TestLoad_EmptyStore(t *testing.T) {
	r := newLoaded(t, kv.NewMemory())
	if got := r.List(); len(got) != 0 || got == nil {
		t.Fatalf("expected empty non-nil list, got %#v", got)
	}
}

func TestLoad_BlankValue(t *testing.T) {
	for _, raw := range []string{"", "   ", "null"} {
		store := kv.NewMemory()
		_ = store.Set(context.Background(), DefaultKey, raw)
		r := newLoaded(t, store)
		if len(r.List()) != 0 {
			t.Errorf("value %q: expected empty list", raw)
		}
	}
}

func TestLoad_ExistingSnapshot(t *testing.T) {
	store := kv.NewMemory()
	raw := `[{"id":"a","labels":[{"text":"x"}],"type":"LOCAL","login":"u1","password":"p1"},` +
		`{"id":"b","labels":[],"type":"LDAP","login":"u2","password":null}]`
	_ = store.Set(context.Background(), DefaultKey, raw)

	r := newLoaded(t, store)
	list := r.List()
	if len(list) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(list))
	}
	if list[0].ID != "a" || list[0].Login != "u1" || list[0].PasswordValue() != "p1" {
		t.Errorf("unexpected first account: %+v", list[0])
	}
	if list[1].Type != TypeLDAP || list[1].Password != nil {
		t.Errorf("unexpected second account: %+v", list[1])
	}
}

func TestLoad_CorruptJSON(t *testing.T) {
	store := kv.NewMemory()
	_ = store.Set(context.Background(), DefaultKey, "{not json")
	r := NewRepository(store)
	xe := r.Load(context.Background())
	if xe == nil || xe.Code != errors.CodeStoreCorrupt {
		t.Fatalf("expected XACCT_STORE_CORRUPT, got %v", xe)
	}
}

func TestLoad_ReadFailure(t *testing.T) {
	store := &flakyStore{Memory: kv.NewMemory(), failGet: true}
	r := NewRepository(store)
	xe := r.Load(context.Background())
	if xe == nil || xe.Code != errors.CodeStoreReadFailed {
		t.Fatalf("expected XACCT_STORE_READ_FAILED, got %v", xe)
	}
}

func TestLoad_NormalizesLDAPPassword(t *testing.T) {
	store := kv.NewMemory()
	raw := `[{"id":"a","labels":[],"type":"LDAP","login":"u","password":"leftover"}]`
	_ = store.Set(context.Background(), DefaultKey, raw)

	var logs bytes.Buffer
	r := newLoaded(t, store, WithLogger(xlog.New(&logs)))
	acc, _ := r.Get("a")
	if acc.Password != nil {
		t.Fatalf("expected nil password after load, got %q", *acc.Password)
	}
	if !strings.Contains(logs.String(), "level=WARN") {
		t.Errorf("expected WARN log, got %q", logs.String())
	}

	// 只修正内存，不在 Load 时写回。
	stored, _, _ := store.Get(context.Background(), DefaultKey)
	if stored != raw {
		t.Errorf("Load should not rewrite store, got %s", stored)
	}
}

func TestLoad_NormalizeDisabled(t *testing.T) {
	store := kv.NewMemory()
	raw := `[{"id":"a","labels":[],"type":"LDAP","login":"u","password":"leftover"}]`
	_ = store.Set(context.Background(), DefaultKey, raw)

	r := newLoaded(t, store, WithNormalizeOnLoad(false))
	acc, _ := r.Get("a")
	if acc.PasswordValue() != "leftover" {
		t.Fatalf("expected password kept, got %v", acc.Password)
	}
}

func TestOperations_RequireLoad(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(kv.NewMemory())

	if _, xe := r.Create(ctx); xe == nil || xe.Code != errors.CodeStoreNotLoaded {
		t.Errorf("Create: expected XACCT_STORE_NOT_LOADED, got %v", xe)
	}
	if _, xe := r.Update(ctx, &Account{ID: "x"}); xe == nil || xe.Code != errors.CodeStoreNotLoaded {
		t.Errorf("Update: expected XACCT_STORE_NOT_LOADED, got %v", xe)
	}
	if _, xe := r.Delete(ctx, "x"); xe == nil || xe.Code != errors.CodeStoreNotLoaded {
		t.Errorf("Delete: expected XACCT_STORE_NOT_LOADED, got %v", xe)
	}
}

func TestCreate_Defaults(t *testing.T) {
	store := kv.NewMemory()
	r := newLoaded(t, store)

	acc, xe := r.Create(context.Background())
	if xe != nil {
		t.Fatalf("Create failed: %v", xe)
	}
	if acc.ID != "id-1" {
		t.Errorf("id = %q, want id-1", acc.ID)
	}
	if acc.Type != TypeLocal {
		t.Errorf("type = %q, want LOCAL", acc.Type)
	}
	if acc.Login != "" || acc.Password == nil || *acc.Password != "" {
		t.Errorf("expected empty login and empty (non-null) password, got %+v", acc)
	}
	if acc.Labels == nil || len(acc.Labels) != 0 {
		t.Errorf("expected empty labels, got %#v", acc.Labels)
	}

	stored, _, _ := store.Get(context.Background(), DefaultKey)
	want := `[{"id":"id-1","labels":[],"type":"LOCAL","login":"","password":""}]`
	if stored != want {
		t.Errorf("stored = %s, want %s", stored, want)
	}
}

func TestCreate_AppendsWithUniqueIDs(t *testing.T) {
	ctx := context.Background()
	r := NewRepository(kv.NewMemory()) // 默认 UUID 生成器
	if xe := r.Load(ctx); xe != nil {
		t.Fatal(xe)
	}

	seen := map[string]bool{}
	var order []string
	for i := 0; i < 50; i++ {
		acc, xe := r.Create(ctx)
		if xe != nil {
			t.Fatalf("Create failed: %v", xe)
		}
		if seen[acc.ID] {
			t.Fatalf("duplicate id %s", acc.ID)
		}
		seen[acc.ID] = true
		order = append(order, acc.ID)
	}
	for i, a := range r.List() {
		if a.ID != order[i] {
			t.Fatalf("position %d: got %s want %s", i, a.ID, order[i])
		}
	}
}

func TestUpdate_ReplacesInPlace(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	r := newLoaded(t, store)
	for i := 0; i < 3; i++ {
		if _, xe := r.Create(ctx); xe != nil {
			t.Fatal(xe)
		}
	}

	upd := Account{ID: "id-2", Labels: ParseLabels("x; y"), Type: TypeLocal, Login: "bob", Password: StringPtr("hunter2")}
	ok, xe := r.Update(ctx, &upd)
	if xe != nil || !ok {
		t.Fatalf("Update = %v, %v", ok, xe)
	}

	list := r.List()
	if list[1].Login != "bob" || list[1].PasswordValue() != "hunter2" || len(list[1].Labels) != 2 {
		t.Errorf("unexpected updated entry: %+v", list[1])
	}
	if list[0].ID != "id-1" || list[2].ID != "id-3" {
		t.Errorf("order changed: %v", list)
	}
	assertSnapshot(t, r, store)

	// 存储的是拷贝：调用方后续修改不影响 repository。
	upd.Login = "mallory"
	if got, _ := r.Get("id-2"); got.Login != "bob" {
		t.Errorf("repository aliased caller object, login=%q", got.Login)
	}
}

func TestUpdate_LDAPClearsPassword(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	r := newLoaded(t, store)
	acc, _ := r.Create(ctx)

	for _, pw := range []*string{StringPtr("secret"), StringPtr(""), nil} {
		in := acc
		in.Type = TypeLDAP
		in.Login = "ldap-user"
		in.Password = pw
		ok, xe := r.Update(ctx, &in)
		if xe != nil || !ok {
			t.Fatalf("Update = %v, %v", ok, xe)
		}
		if in.Password != nil {
			t.Errorf("caller's password should be cleared, got %q", *in.Password)
		}
		got, _ := r.Get(acc.ID)
		if got.Password != nil {
			t.Errorf("stored password should be null, got %q", *got.Password)
		}
	}
	stored, _, _ := store.Get(ctx, DefaultKey)
	if !strings.Contains(stored, `"password":null`) {
		t.Errorf("expected null password in snapshot, got %s", stored)
	}
}

func TestUpdate_MissingIDIsNoop(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Memory: kv.NewMemory()}
	r := newLoaded(t, store)
	_, _ = r.Create(ctx)
	before := r.List()
	setsBefore := store.sets

	in := Account{ID: "nope", Type: TypeLDAP, Password: StringPtr("pw")}
	ok, xe := r.Update(ctx, &in)
	if xe != nil {
		t.Fatalf("unexpected error: %v", xe)
	}
	if ok {
		t.Fatal("expected ok=false for missing id")
	}
	if store.sets != setsBefore {
		t.Error("missing id should not write to store")
	}
	if in.Password == nil {
		t.Error("missing id should not touch the caller's object")
	}
	after := r.List()
	if len(after) != len(before) || after[0].ID != before[0].ID {
		t.Errorf("list changed: %v -> %v", before, after)
	}
}

func TestUpdate_Nil(t *testing.T) {
	r := newLoaded(t, kv.NewMemory())
	if _, xe := r.Update(context.Background(), nil); xe == nil {
		t.Fatal("expected error for nil account")
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Memory: kv.NewMemory()}
	r := newLoaded(t, store)
	for i := 0; i < 3; i++ {
		_, _ = r.Create(ctx)
	}

	n, xe := r.Delete(ctx, "id-2")
	if xe != nil || n != 1 {
		t.Fatalf("Delete = %d, %v", n, xe)
	}
	list := r.List()
	if len(list) != 2 || list[0].ID != "id-1" || list[1].ID != "id-3" {
		t.Errorf("unexpected list after delete: %v", list)
	}
	assertSnapshot(t, r, store)

	// 不存在的 id：列表不变，但仍然写回。
	setsBefore := store.sets
	n, xe = r.Delete(ctx, "id-2")
	if xe != nil || n != 0 {
		t.Fatalf("Delete missing = %d, %v", n, xe)
	}
	if len(r.List()) != 2 {
		t.Error("delete of missing id changed the list")
	}
	if store.sets != setsBefore+1 {
		t.Errorf("expected a persist on missing delete, sets %d -> %d", setsBefore, store.sets)
	}
	assertSnapshot(t, r, store)
}

func TestDelete_RemovesAllDuplicates(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	raw := `[{"id":"dup","labels":[],"type":"LOCAL","login":"a","password":""},` +
		`{"id":"keep","labels":[],"type":"LOCAL","login":"b","password":""},` +
		`{"id":"dup","labels":[],"type":"LOCAL","login":"c","password":""}]`
	_ = store.Set(ctx, DefaultKey, raw)
	r := newLoaded(t, store)

	n, xe := r.Delete(ctx, "dup")
	if xe != nil || n != 2 {
		t.Fatalf("Delete = %d, %v", n, xe)
	}
	if list := r.List(); len(list) != 1 || list[0].ID != "keep" {
		t.Errorf("unexpected list: %v", list)
	}
}

func TestPersistFailure_LeavesMemoryUnchanged(t *testing.T) {
	ctx := context.Background()
	store := &flakyStore{Memory: kv.NewMemory()}
	r := newLoaded(t, store)
	acc, _ := r.Create(ctx)

	store.failSet = true

	if _, xe := r.Create(ctx); xe == nil || xe.Code != errors.CodeStoreWriteFailed {
		t.Errorf("Create: expected XACCT_STORE_WRITE_FAILED, got %v", xe)
	}
	upd := acc
	upd.Login = "changed"
	if _, xe := r.Update(ctx, &upd); xe == nil || xe.Code != errors.CodeStoreWriteFailed {
		t.Errorf("Update: expected XACCT_STORE_WRITE_FAILED, got %v", xe)
	}
	if _, xe := r.Delete(ctx, acc.ID); xe == nil || xe.Code != errors.CodeStoreWriteFailed {
		t.Errorf("Delete: expected XACCT_STORE_WRITE_FAILED, got %v", xe)
	}

	list := r.List()
	if len(list) != 1 || list[0].Login != "" {
		t.Fatalf("memory changed despite failed writes: %v", list)
	}
	store.failSet = false
	assertSnapshot(t, r, store)
}

func TestSnapshotMatchesMemoryAcrossOperations(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	r := newLoaded(t, store, WithKey("custom"))
	if r.Key() != "custom" {
		t.Fatalf("key = %q", r.Key())
	}

	steps := []func(){
		func() { _, _ = r.Create(ctx) },
		func() { _, _ = r.Create(ctx) },
		func() {
			a, _ := r.Get("id-1")
			a.Labels = ParseLabels("ops; <prod> & co")
			a.Login = "root"
			_, _ = r.Update(ctx, &a)
		},
		func() {
			a, _ := r.Get("id-2")
			a.Type = TypeLDAP
			_, _ = r.Update(ctx, &a)
		},
		func() { _, _ = r.Delete(ctx, "id-1") },
		func() { _, _ = r.Delete(ctx, "missing") },
		func() { _, _ = r.Create(ctx) },
	}
	for i, step := range steps {
		step()
		t.Run(fmt.Sprintf("step%d", i), func(t *testing.T) {
			assertSnapshot(t, r, store)
		})
	}

	// 重新加载得到相同的列表。
	r2 := newLoaded(t, store, WithKey("custom"))
	a, _ := Encode(r.List())
	b, _ := Encode(r2.List())
	if a != b {
		t.Errorf("reload mismatch:\n%s\n%s", a, b)
	}
}

func TestEncode_NoHTMLEscape(t *testing.T) {
	got, err := Encode([]Account{{ID: "1", Labels: []Label{{Text: "<a&b>"}}, Type: TypeLocal}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(got, "<a&b>") {
		t.Errorf("expected raw characters, got %s", got)
	}
	if empty, _ := Encode(nil); empty != "[]" {
		t.Errorf("Encode(nil) = %q, want []", empty)
	}
}
