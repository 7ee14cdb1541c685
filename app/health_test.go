package app_test

import (
	"context"
	"testing"
	"time"

	"github.com/artpar/schemawire/adapters/clock"
	"github.com/artpar/schemawire/app"
)

func TestHealthService_Check(t *testing.T) {
	clk := clock.NewFake(testTime)
	svc := app.NewHealthService(clk, "1.2.3", "eu-central-1")

	got, err := svc.Check(context.Background())
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}

	if got.Status != "ok" {
		t.Errorf("Status = %s, want ok", got.Status)
	}
	if !got.CheckedAt.Equal(testTime) {
		t.Errorf("CheckedAt = %v, want %v", got.CheckedAt, testTime)
	}
	if got.Version != "1.2.3" {
		t.Errorf("Version = %s, want 1.2.3", got.Version)
	}
	if got.Region != "eu-central-1" {
		t.Errorf("Region = %s, want eu-central-1", got.Region)
	}
}

func TestHealthService_Check_TracksClock(t *testing.T) {
	clk := clock.NewFake(testTime)
	svc := app.NewHealthService(clk, "dev", "")

	clk.Advance(90 * time.Second)

	got, err := svc.Check(context.Background())
	if err != nil {
		t.Fatalf("Check error: %v", err)
	}
	if want := testTime.Add(90 * time.Second); !got.CheckedAt.Equal(want) {
		t.Errorf("CheckedAt = %v, want %v", got.CheckedAt, want)
	}
	if got.Region != "" {
		t.Errorf("Region = %q, want empty", got.Region)
	}
}
