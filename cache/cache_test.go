package cache

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/datamodel-lang/go-datamodel/dml"
	"github.com/datamodel-lang/go-datamodel/schema"
)

func modelNamed(name string) *dml.Datamodel {
	return &dml.Datamodel{Models: []*dml.Model{{Name: name}}}
}

func TestNewCache(t *testing.T) {
	c := New(100)
	if c.Size() != 0 {
		t.Error("New cache should be empty")
	}
}

func TestCachePutGet(t *testing.T) {
	c := New(100)

	source := "model User { id Int @id }"
	dm := modelNamed("User")

	c.Put(source, Entry{Datamodel: dm})

	entry, ok := c.Get(source)
	if !ok {
		t.Fatal("Should retrieve stored entry")
	}
	if entry.Datamodel != dm {
		t.Error("Should retrieve same datamodel")
	}

	// Different source should miss
	if _, ok := c.Get("model Other { id Int @id }"); ok {
		t.Error("Different source should miss")
	}
}

func TestCacheKeepsDiagnostics(t *testing.T) {
	c := New(100)

	source := "model User {"
	wantErr := errors.New("unexpected end of input")
	c.Put(source, Entry{Err: wantErr})

	entry, ok := c.Get(source)
	if !ok {
		t.Fatal("Should retrieve stored entry")
	}
	if !errors.Is(entry.Err, wantErr) {
		t.Errorf("Expected stored error, got %v", entry.Err)
	}
	if entry.Datamodel != nil {
		t.Error("Failed compile should carry no datamodel")
	}
}

func TestCacheEviction(t *testing.T) {
	c := New(2)

	// Add 3 entries to trigger eviction
	for i := 0; i < 3; i++ {
		source := fmt.Sprintf("model M%d { id Int @id }", i)
		c.Put(source, Entry{Datamodel: modelNamed(fmt.Sprintf("M%d", i))})
	}

	if c.Size() > 2 {
		t.Errorf("Cache size should be <= 2, got %d", c.Size())
	}
	if c.Stats().Evictions == 0 {
		t.Error("Expected at least one eviction")
	}
}

func TestCacheUnbounded(t *testing.T) {
	c := New(0)

	for i := 0; i < 100; i++ {
		c.Put(fmt.Sprintf("model M%d { id Int @id }", i), Entry{})
	}

	if c.Size() != 100 {
		t.Errorf("Expected 100 entries, got %d", c.Size())
	}
	if c.Stats().Evictions != 0 {
		t.Error("Unbounded cache should not evict")
	}
}

func TestCacheGetOrCompute(t *testing.T) {
	c := New(100)

	computeCount := 0
	dm := modelNamed("X")
	compute := func() (*dml.Datamodel, error) {
		computeCount++
		return dm, nil
	}

	source := "model X { id Int @id }"

	// First call should compute
	dm1, err := c.GetOrCompute(source, compute)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if computeCount != 1 {
		t.Error("Should compute on first call")
	}

	// Second call should use cache
	dm2, err := c.GetOrCompute(source, compute)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if computeCount != 1 {
		t.Error("Should not compute on second call")
	}

	if dm1 != dm2 {
		t.Error("Should return same datamodel")
	}
}

func TestCacheGetOrComputeKeepsErrors(t *testing.T) {
	c := New(100)

	computeCount := 0
	wantErr := errors.New("broken schema")
	compute := func() (*dml.Datamodel, error) {
		computeCount++
		return nil, wantErr
	}

	source := "model Broken {"

	if _, err := c.GetOrCompute(source, compute); !errors.Is(err, wantErr) {
		t.Errorf("Expected compute error, got %v", err)
	}
	if _, err := c.GetOrCompute(source, compute); !errors.Is(err, wantErr) {
		t.Errorf("Expected cached error, got %v", err)
	}
	if computeCount != 1 {
		t.Error("Failed compile should not run again")
	}
}

func TestCacheStats(t *testing.T) {
	c := New(100)

	source := "model User { id Int @id }"
	c.Put(source, Entry{Datamodel: modelNamed("User")})

	// Hit
	c.Get(source)
	// Miss
	c.Get("model Other { id Int @id }")

	stats := c.Stats()
	if stats.Hits != 1 {
		t.Errorf("Expected 1 hit, got %d", stats.Hits)
	}
	if stats.Misses != 1 {
		t.Errorf("Expected 1 miss, got %d", stats.Misses)
	}
	if stats.HitRate != 0.5 {
		t.Errorf("Expected 0.5 hit rate, got %f", stats.HitRate)
	}
	if stats.MaxSize != 100 {
		t.Errorf("Expected maxSize 100, got %d", stats.MaxSize)
	}
}

func TestCacheClear(t *testing.T) {
	c := New(100)
	c.Put("model A { id Int @id }", Entry{Datamodel: modelNamed("A")})
	c.Put("model B { id Int @id }", Entry{Datamodel: modelNamed("B")})

	c.Clear()

	if c.Size() != 0 {
		t.Error("Cache should be empty after clear")
	}
}

func TestCompiler(t *testing.T) {
	compiler := NewCompiler(100)

	source := `model User {
  id   Int    @id @default(autoincrement())
  name String
}
`

	// First compile
	dm1, err := compiler.Compile(source)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if dm1 == nil {
		t.Fatal("Should return datamodel")
	}
	if len(dm1.Models) != 1 || dm1.Models[0].Name != "User" {
		t.Error("Compiled datamodel should hold model User")
	}

	// Second compile should hit cache
	dm2, err := compiler.Compile(source)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if dm1 != dm2 {
		t.Error("Second call should return cached datamodel")
	}

	// Check cache stats
	stats := compiler.Cache().Stats()
	if stats.Hits != 1 {
		t.Errorf("Expected 1 hit, got %d", stats.Hits)
	}
}

func TestCompilerWithOptions(t *testing.T) {
	lookup := func(name string) (string, bool) {
		if name == "DEFAULT_NAME" {
			return "anonymous", true
		}
		return "", false
	}

	compiler := NewCompiler(100).WithOptions(schema.WithEnvLookup(lookup))

	source := `model User {
  id   Int    @id
  name String @default(env("DEFAULT_NAME"))
}
`

	dm, err := compiler.Compile(source)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	field := dm.Models[0].FindField("name")
	if field == nil {
		t.Fatal("Field name should exist")
	}
	def, ok := field.DefaultValue.(dml.SingleDefault)
	if !ok {
		t.Fatalf("Expected literal default, got %T", field.DefaultValue)
	}
	if def.Value != dml.StringValue("anonymous") {
		t.Errorf("Expected resolved env default, got %v", def.Value)
	}
}

func TestCompilerKeepsDiagnostics(t *testing.T) {
	compiler := NewCompiler(100)

	source := "model User { id Int @id @id }"

	_, err1 := compiler.Compile(source)
	if err1 == nil {
		t.Fatal("Duplicate attribute should fail validation")
	}

	_, err2 := compiler.Compile(source)
	if err2 == nil {
		t.Fatal("Cached outcome should keep the failure")
	}

	stats := compiler.Cache().Stats()
	if stats.Hits != 1 {
		t.Errorf("Expected second compile to hit cache, got %d hits", stats.Hits)
	}
}

func TestCompilerRender(t *testing.T) {
	compiler := NewCompiler(100)

	source := `model User {
  id Int @id
}

model Post {
  id     Int  @id
  author User @relation(fields: [authorId], references: [id])
  authorId Int
}
`

	rendered, err := compiler.Render(source)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(rendered, "model User") || !strings.Contains(rendered, "model Post") {
		t.Errorf("Rendered output missing models:\n%s", rendered)
	}

	// Render reuses the compiled datamodel
	if _, err := compiler.Render(source); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if stats := compiler.Cache().Stats(); stats.Hits != 1 {
		t.Errorf("Expected second render to hit cache, got %d hits", stats.Hits)
	}
}

func TestCompilerClearCache(t *testing.T) {
	compiler := NewCompiler(100)

	if _, err := compiler.Compile("model A { id Int @id }"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	compiler.ClearCache()

	if compiler.Cache().Size() != 0 {
		t.Error("Cache should be empty")
	}
}

func TestFormatCache(t *testing.T) {
	c := NewFormatCache(100)

	source := "model  User{id Int @id}"
	formatted := "model User {\n  id Int @id\n}\n"

	// Put and get
	c.Put(source, formatted)
	got, ok := c.Get(source)
	if !ok {
		t.Error("Should find cached formatting")
	}
	if got != formatted {
		t.Errorf("Expected %q, got %q", formatted, got)
	}

	// Miss
	if _, ok := c.Get("model Other {}"); ok {
		t.Error("Should miss for unknown source")
	}
}

func TestFormatCacheGetOrCompute(t *testing.T) {
	c := NewFormatCache(100)

	computeCount := 0
	compute := func() string {
		computeCount++
		return "model A {\n}\n"
	}

	source := "model  A  {}"

	// First call computes
	f1 := c.GetOrCompute(source, compute)
	if computeCount != 1 {
		t.Error("Should compute first time")
	}

	// Second call uses cache
	f2 := c.GetOrCompute(source, compute)
	if computeCount != 1 {
		t.Error("Should not compute second time")
	}
	if f1 != f2 {
		t.Error("Should return same formatting")
	}
}

func TestFormatCacheEviction(t *testing.T) {
	c := NewFormatCache(2)

	c.Put("a", "a2")
	c.Put("b", "b2")
	c.Put("c", "c2")

	if c.Size() > 2 {
		t.Errorf("Size should be <= 2, got %d", c.Size())
	}
}

func TestFormatCacheHitRate(t *testing.T) {
	c := NewFormatCache(100)

	source := "model A { id Int @id }"
	c.Put(source, source)

	c.Get(source) // Hit
	c.Get(source) // Hit
	c.Get("model B { id Int @id }") // Miss

	rate := c.HitRate()
	expected := 2.0 / 3.0
	if rate < expected-0.01 || rate > expected+0.01 {
		t.Errorf("Expected hit rate ~0.67, got %f", rate)
	}
}

func TestSourceKeyDiffers(t *testing.T) {
	// Whitespace changes the key; the cache never normalises input.
	k1 := sourceKey("model A { id Int @id }")
	k2 := sourceKey("model A {  id Int @id }")

	if k1 == k2 {
		t.Error("Different source texts should have different keys")
	}
	if k1 != sourceKey("model A { id Int @id }") {
		t.Error("Same source text should hash identically")
	}
}
