package confer

import (
	"math"
	"testing"

	"github.com/confer-dev/confer/log"
	"github.com/confer-dev/confer/store"
)

type ServerConfig struct {
	Host     string   `confer:"default=localhost"`
	Port     int32    `confer:"rename=port_number,default=8080"`
	Debug    bool     `confer:"rename=debug_enabled"`
	MaxConns *int64   `confer:"rename=max_conns"`
	Tags     []string `confer:"default=[a,b,c]"`
	Scratch  string   `confer:"ignore"`
}

func TestConstructAppliesDefaultsOnMissingKeys(t *testing.T) {
	s := store.New()
	s.SetBool("Server", "debug_enabled", true)

	b := Bind[ServerConfig](WithSection("Server"))
	h, err := Construct(s, b)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}

	rec := h.View()
	if rec.Host != "localhost" {
		t.Fatalf("Host = %q, want default", rec.Host)
	}
	if rec.Port != 8080 {
		t.Fatalf("Port = %d, want default 8080", rec.Port)
	}
	if len(rec.Tags) != 3 || rec.Tags[0] != "a" {
		t.Fatalf("Tags = %v, want default [a b c]", rec.Tags)
	}
	if rec.MaxConns != nil {
		t.Fatalf("MaxConns = %v, want nil (absent optional)", rec.MaxConns)
	}
}

func TestConstructMissingRequiredField(t *testing.T) {
	s := store.New() // Debug has no default, no init, and is absent
	b := Bind[ServerConfig](WithSection("Server2"))

	_, err := Construct(s, b)
	if !store.IsMissingKey(err) {
		t.Fatalf("expected the store's own MissingKeyErr, got %v", err)
	}
	serr, ok := err.(*store.Error)
	if !ok {
		t.Fatalf("expected *store.Error, got %T", err)
	}
	if serr.Section != "Server2" || serr.Key != "debug_enabled" {
		t.Fatalf("unexpected section/key on propagated error: %+v", serr)
	}
}

func TestSavePrunesUnknownKeysAfterAllWritesSucceed(t *testing.T) {
	s := store.New()
	s.SetString("Server3", "Host", "h1")
	s.SetInt64("Server3", "port_number", 9090)
	s.SetBool("Server3", "debug_enabled", true)
	s.SetStringArray("Server3", "Tags", []string{"x", "y"})
	s.SetInt64("Server3", "legacy_key", 1) // not bound by any field

	b := Bind[ServerConfig](WithSection("Server3"))
	h, err := Construct(s, b)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}

	h.Write(func(rec *ServerConfig) { rec.Host = "h2" })

	if err := Save(h, s, b); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if s.SectionExists("Server3") {
		keys := s.ListKeys("Server3")
		for _, k := range keys {
			if k == "legacy_key" {
				t.Fatalf("expected legacy_key to be pruned, keys=%v", keys)
			}
		}
	}

	got, err := s.GetString("Server3", "Host")
	if err != nil || got != "h2" {
		t.Fatalf("Host after save = %q, err=%v", got, err)
	}
}

func TestSaveClearsKeyForNilOptionalField(t *testing.T) {
	s := store.New()
	s.SetString("Server4", "Host", "h1")
	s.SetInt64("Server4", "port_number", 80)
	s.SetBool("Server4", "debug_enabled", false)
	s.SetStringArray("Server4", "Tags", []string{"a"})
	s.SetInt64("Server4", "max_conns", 5)

	b := Bind[ServerConfig](WithSection("Server4"))
	h, err := Construct(s, b)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if h.View().MaxConns == nil {
		t.Fatal("expected MaxConns to be populated from store")
	}

	h.Write(func(rec *ServerConfig) { rec.MaxConns = nil })
	if err := Save(h, s, b); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if _, ok := s.GetRaw("Server4", "max_conns"); ok {
		t.Fatal("expected max_conns key to be removed after clearing the optional field")
	}
}

func TestLoadRefreshesHandleFromStore(t *testing.T) {
	s := store.New()
	s.SetString("Server5", "Host", "h1")
	s.SetInt64("Server5", "port_number", 80)
	s.SetBool("Server5", "debug_enabled", false)
	s.SetStringArray("Server5", "Tags", []string{"a"})

	b := Bind[ServerConfig](WithSection("Server5"))
	h, err := Construct(s, b)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}

	s.SetString("Server5", "Host", "h2")
	if err := Load(h, s, b); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if h.View().Host != "h2" {
		t.Fatalf("Host after Load = %q, want h2", h.View().Host)
	}
}

type BoundsConfig struct {
	Narrow uint8 `confer:"default=1"`
}

func TestConstructRejectsOutOfRangeStoredInt(t *testing.T) {
	s := store.New()
	s.SetInt64("Bounds", "Narrow", 256)

	b := Bind[BoundsConfig](WithSection("Bounds"))
	_, err := Construct(s, b)
	if err == nil {
		t.Fatal("expected an out-of-range error for uint8 field holding 256")
	}
}

type InitConfig struct {
	InstanceID string
}

func TestConstructUsesRegisteredInit(t *testing.T) {
	s := store.New() // InstanceID absent
	b := Bind[InitConfig](
		WithSection("Init"),
		WithInit("InstanceID", func() string { return "generated-id" }),
	)

	h, err := Construct(s, b)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if h.View().InstanceID != "generated-id" {
		t.Fatalf("InstanceID = %q, want generated-id", h.View().InstanceID)
	}
}

type WideConfig struct {
	Big uint64
}

func TestSaveRejectsUnsignedOverflowAndLeavesSectionUntouched(t *testing.T) {
	s := store.New()
	s.SetInt64("Wide", "Big", 41) // pre-existing value the failed save must not disturb

	b := Bind[WideConfig](WithSection("Wide"))
	h := NewHandle(WideConfig{Big: math.MaxUint64})

	err := Save(h, s, b)
	if err == nil {
		t.Fatal("expected an error for a uint64 value exceeding int64's positive range")
	}
	if !store.IsValueParse(err) {
		t.Fatalf("expected ValueParseErr, got %v", err)
	}

	got, gerr := s.GetInt64("Wide", "Big")
	if gerr != nil || got != 41 {
		t.Fatalf("got=%d err=%v, want the pre-save value of 41 untouched", got, gerr)
	}
}

func TestBindWithLoggerDoesNotPanic(t *testing.T) {
	s := store.New()
	b := Bind[ServerConfig](WithSection("Server6"), WithLogger(log.NewNoOp()))
	s.SetString("Server6", "Host", "h")
	s.SetInt64("Server6", "port_number", 1)
	s.SetBool("Server6", "debug_enabled", true)
	s.SetStringArray("Server6", "Tags", []string{"a"})

	h, err := Construct(s, b)
	if err != nil {
		t.Fatalf("Construct: %v", err)
	}
	if err := Save(h, s, b); err != nil {
		t.Fatalf("Save: %v", err)
	}
}
