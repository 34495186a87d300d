package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestStringFields(t *testing.T) {
	fields := StringFields(
		StringField{Key: "  provider  ", Value: "  gateway  "},
		StringField{Key: "ignored", Value: "   "},
		StringField{Key: "   ", Value: "empty key"},
	)

	if len(fields) != 1 {
		t.Fatalf("expected 1 field, got %d", len(fields))
	}

	if fields[0].Key != "provider" || fields[0].String != "gateway" {
		t.Fatalf("unexpected provider field: %+v", fields[0])
	}

	if empty := StringFields(); len(empty) != 0 {
		t.Fatalf("expected empty fields, got %d", len(empty))
	}
}

func TestWithFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithFields(zap.New(core), zap.String("foo", "bar")).Info("test log")

	entries := observed.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].ContextMap()["foo"] != "bar" {
		t.Fatalf("expected field to be bar, got %v", entries[0].ContextMap()["foo"])
	}

	fallback := WithFields(nil, zap.String("baz", "qux"))
	if fallback == nil {
		t.Fatalf("expected fallback logger when nil provided")
	}
	fallback.Info("another log")
}

func TestWithCommonFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	WithCommonFields(zap.New(core), " gateway ", "command-a").Info("test log")

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldProvider] != "gateway" {
		t.Fatalf("expected provider field to be gateway, got %v", ctx[FieldProvider])
	}
	if ctx[FieldModel] != "command-a" {
		t.Fatalf("expected model field to be command-a, got %v", ctx[FieldModel])
	}

	if len(CommonFields("", "")) != 0 {
		t.Fatalf("expected empty fields")
	}
}

func TestAnalysisFields(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)

	zap.New(core).Info("analysis", AnalysisFields("rm:abc_def", 73, true)...)

	ctx := observed.All()[0].ContextMap()
	if ctx[FieldCacheKey] != "rm:abc_def" {
		t.Fatalf("unexpected cache key %v", ctx[FieldCacheKey])
	}
	if ctx[FieldScore] != int64(73) {
		t.Fatalf("unexpected score %v (%T)", ctx[FieldScore], ctx[FieldScore])
	}
	if ctx[FieldForced] != true {
		t.Fatalf("expected forced flag")
	}

	if got := AnalysisFields("", 1, false); len(got) != 2 {
		t.Fatalf("expected empty cache key to be skipped, got %d fields", len(got))
	}
}

func TestNewWithOptions(t *testing.T) {
	for _, opts := range []Options{{}, {JSON: true, Debug: true}} {
		l, err := NewWithOptions(opts)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got := l.Core().Enabled(zapcore.DebugLevel); got != opts.Debug {
			t.Fatalf("debug enabled = %v, want %v", got, opts.Debug)
		}
	}
}
