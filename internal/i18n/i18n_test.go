package i18n

import (
	"context"
	"testing"
)

func initLang(t *testing.T, lang string) context.Context {
	t.Helper()
	if err := Init(lang); err != nil {
		t.Fatalf("Init(%q): %v", lang, err)
	}
	loc := NewLocalizer(lang)
	return WithLocalizer(context.Background(), loc)
}

func TestTranslateEnglish(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "AppTitle")
	if got != "SPI Exam" {
		t.Errorf("T(AppTitle) = %q, want 'SPI Exam'", got)
	}

	got = T(ctx, "SetNotFound")
	if got != "Unknown question set." {
		t.Errorf("T(SetNotFound) = %q", got)
	}
}

func TestTranslateJapanese(t *testing.T) {
	ctx := initLang(t, "ja")

	got := T(ctx, "AppTitle")
	if got != "SPI模擬試験" {
		t.Errorf("T(AppTitle) = %q, want 'SPI模擬試験'", got)
	}

	got = T(ctx, "SetNotFound")
	if got != "無効な問題セットです。" {
		t.Errorf("T(SetNotFound) = %q", got)
	}
}

func TestPluralTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got1 := Tp(ctx, "QuestionsAvailable", 1)
	if got1 != "1 question available." {
		t.Errorf("Tp(QuestionsAvailable, 1) = %q", got1)
	}

	got5 := Tp(ctx, "QuestionsAvailable", 5)
	if got5 != "5 questions available." {
		t.Errorf("Tp(QuestionsAvailable, 5) = %q", got5)
	}
}

func TestTemplateDataTranslation(t *testing.T) {
	ctx := initLang(t, "en")

	got := Td(ctx, "ResultSummary", map[string]any{"Score": 3, "Total": 3})
	if got != "You answered 3 of 3 questions correctly." {
		t.Errorf("Td(ResultSummary) = %q", got)
	}
}

func TestMissingKey(t *testing.T) {
	ctx := initLang(t, "en")

	got := T(ctx, "NonExistentKey")
	if got != "NonExistentKey" {
		t.Errorf("T(NonExistentKey) = %q, want 'NonExistentKey'", got)
	}
}

func TestFallbackToDefault(t *testing.T) {
	if err := Init("en"); err != nil {
		t.Fatalf("Init: %v", err)
	}
	// An unknown preferred language falls back through the chain.
	loc := NewLocalizer("fr", "en")
	ctx := WithLocalizer(context.Background(), loc)

	got := T(ctx, "AppTitle")
	if got != "SPI Exam" {
		t.Errorf("T(AppTitle) with fr preference = %q, want English fallback", got)
	}
}
