package store

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/confer-dev/confer/value"
)

func TestBasicRoundTrip(t *testing.T) {
	s, err := ParseString("[App]\nname=\"demo\"\n")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}

	name, err := s.GetString("App", "name")
	if err != nil {
		t.Fatalf("GetString: %v", err)
	}
	if name != "demo" {
		t.Fatalf("got %q", name)
	}

	s.SetInt64("App", "port", 8080)

	out, err := s.Serialize()
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	if !strings.Contains(out, `name = 'demo'`) || !strings.Contains(out, "port = 8080") {
		t.Fatalf("serialized output missing expected fields: %s", out)
	}
}

func TestSectionLifecycle(t *testing.T) {
	s := New()
	s.AddSection("x")
	if !s.SectionExists("x") {
		t.Fatal("expected section to exist after AddSection")
	}
	s.RemoveSection("x")
	if s.SectionExists("x") {
		t.Fatal("expected section to be gone after RemoveSection")
	}
	// Idempotent regardless of prior state.
	s.RemoveSection("x")
	s.AddSection("x")
	s.AddSection("x")
}

func TestMissingKeyIsMissingKeyErr(t *testing.T) {
	s := New()
	_, err := s.GetString("App", "name")
	if !IsMissingKey(err) {
		t.Fatalf("expected MissingKeyErr, got %v", err)
	}
}

func TestTypeMismatch(t *testing.T) {
	s := New()
	s.SetString("App", "name", "demo")
	_, err := s.GetInt64("App", "name")
	if !IsTypeMismatch(err) {
		t.Fatalf("expected TypeMismatchErr, got %v", err)
	}
}

func TestDatetimeFallbackOnArray(t *testing.T) {
	s, err := ParseString("[Build]\ntimes = [\"2024-01-01T00:00:00Z\",\"2024-06-01T12:34:56Z\"]\n")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	got, err := s.GetDatetimeArray("Build", "times")
	if err != nil {
		t.Fatalf("GetDatetimeArray: %v", err)
	}
	want := []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 6, 1, 12, 34, 56, 0, time.UTC),
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Fatalf("element %d: got %v want %v", i, got[i], want[i])
		}
	}
}

func TestDatetimeFallbackRejectsGarbage(t *testing.T) {
	s, err := ParseString("[Build]\nbuild_time = \"not-a-date\"\n")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	_, err = s.GetDatetime("Build", "build_time")
	if !IsValueParse(err) {
		t.Fatalf("expected ValueParseErr, got %v", err)
	}
}

func TestBareTopLevelKeyIsNotASection(t *testing.T) {
	s, err := ParseString("x = 1\n[App]\nname=\"demo\"\n")
	if err != nil {
		t.Fatalf("ParseString: %v", err)
	}
	if s.SectionExists("x") {
		t.Fatal("a bare top-level key should not become a section")
	}
	name, err := s.GetString("App", "name")
	if err != nil || name != "demo" {
		t.Fatalf("name=%q err=%v", name, err)
	}
}

func TestDestructiveLoadReplacesMapping(t *testing.T) {
	s, err := ParseString("[A]\nx=1\n[B]\ny=2\n")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.LoadString("[C]\nz=3\n"); err != nil {
		t.Fatalf("LoadString: %v", err)
	}
	if s.SectionExists("A") || s.SectionExists("B") {
		t.Fatal("expected destructive load to remove prior sections")
	}
	if !s.SectionExists("C") {
		t.Fatal("expected new section to be present")
	}
}

func TestGetSectionIsADeepClone(t *testing.T) {
	s := New()
	s.SetStringArray("App", "tags", []string{"a", "b"})

	sec, ok := s.GetSection("App")
	if !ok {
		t.Fatal("expected section to exist")
	}
	tags, _ := sec["tags"].AsStringArray()
	tags[0] = "mutated"

	fresh, _ := s.GetSection("App")
	freshTags, _ := fresh["tags"].AsStringArray()
	if freshTags[0] != "a" {
		t.Fatalf("mutating snapshot affected store: %v", freshTags)
	}
}

func TestRoundTripThroughFile(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.toml"

	s := New()
	s.SetString("App", "name", "demo")
	s.SetInt64("App", "port", 8080)
	if err := s.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	loaded, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	name, err := loaded.GetString("App", "name")
	if err != nil || name != "demo" {
		t.Fatalf("name=%q err=%v", name, err)
	}
}

func TestReconcileSectionAtomicToConcurrentReader(t *testing.T) {
	s := New()
	s.SetString("App", "a", "old")
	s.SetString("App", "b", "old")

	started := make(chan struct{})
	release := make(chan struct{})
	read := make(chan Section, 1)

	go func() {
		s.ReconcileSection("App", func(cur Section) Section {
			close(started)
			<-release // hold the write acquisition across both key updates
			next := cur.Clone()
			next["a"] = value.NewString("new")
			next["b"] = value.NewString("new")
			return next
		})
	}()

	<-started
	go func() {
		sec, _ := s.GetSection("App") // blocks until ReconcileSection's fn returns
		read <- sec
	}()
	time.Sleep(20 * time.Millisecond) // let the reader block on the still-held write acquisition
	close(release)

	sec := <-read
	a, _ := sec["a"].AsString()
	b, _ := sec["b"].AsString()
	if a != b {
		t.Fatalf("reader observed a torn section: a=%q b=%q", a, b)
	}
}

func TestReconcileSectionLeavesSectionUntouchedWhenFnDeclinesToChange(t *testing.T) {
	s := New()
	s.SetString("App", "a", "old")

	s.ReconcileSection("App", func(cur Section) Section {
		return cur // simulates an fn that detects a failure and aborts
	})

	got, err := s.GetString("App", "a")
	if err != nil || got != "old" {
		t.Fatalf("got=%q err=%v, want unchanged value", got, err)
	}
}

func TestReadFileAsync(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/config.toml"
	s := New()
	s.SetString("App", "name", "demo")
	if err := s.WriteFile(path); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	res := <-ReadFileAsync(ctx, path)
	if res.Err != nil {
		t.Fatalf("ReadFileAsync: %v", res.Err)
	}
	name, err := res.Store.GetString("App", "name")
	if err != nil || name != "demo" {
		t.Fatalf("name=%q err=%v", name, err)
	}
}
