package service

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/polaris-lending/loan-origination/internal/extract"
	"github.com/polaris-lending/loan-origination/internal/model"
	"github.com/polaris-lending/loan-origination/internal/offermart"
	"github.com/polaris-lending/loan-origination/internal/orchestrator"
	"github.com/polaris-lending/loan-origination/internal/sanction"
	"github.com/polaris-lending/loan-origination/internal/underwriting"
	"github.com/polaris-lending/loan-origination/pkg/logger"
)

func newTestService(t *testing.T) *ConversationService {
	t.Helper()
	log := &logger.Logger{Logger: zap.NewNop()}
	orch := orchestrator.New(
		offermart.NewStore(offermart.SeedProfiles()),
		extract.NewHeuristicExtractor(),
		sanction.NewLetterGenerator(),
		underwriting.NewEngine(underwriting.DefaultConfig()),
		log,
	)
	// A nil publisher discards events; the service never branches on it.
	return NewConversationService(orch, nil, 6, log)
}

func TestConversationLifecycle(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	conv, err := svc.Create(ctx, "tenant-a", "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if conv.State.Stage != model.StageIntro {
		t.Fatalf("new conversation stage = %s, want INTRO", conv.State.Stage)
	}

	resp, err := svc.ProcessMessage(ctx, "tenant-a", conv.ID, "Hi")
	if err != nil {
		t.Fatalf("ProcessMessage: %v", err)
	}
	if !strings.Contains(resp.Reply, "mobile number") {
		t.Fatalf("expected greeting, got %q", resp.Reply)
	}
	if resp.State.Stage != model.StageNeedDiscovery {
		t.Fatalf("stage = %s, want NEED_DISCOVERY", resp.State.Stage)
	}

	got, err := svc.Get(ctx, "tenant-a", conv.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.State.Messages) != 2 {
		t.Fatalf("message count = %d, want 2", len(got.State.Messages))
	}

	if err := svc.Delete(ctx, "tenant-a", conv.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(ctx, "tenant-a", conv.ID); err == nil {
		t.Fatal("deleted conversation should not resolve")
	}
}

func TestConversationTenantIsolation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	conv, err := svc.Create(ctx, "tenant-a", "user-1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(ctx, "tenant-b", conv.ID); err == nil {
		t.Fatal("another tenant must not resolve the conversation")
	}
	if _, err := svc.ProcessMessage(ctx, "tenant-b", conv.ID, "Hi"); err == nil {
		t.Fatal("another tenant must not process a turn")
	}
}

func TestListPaginates(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, "tenant-a", "user-1"); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	resp, err := svc.List(ctx, "tenant-a", 2, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if resp.Total != 3 || len(resp.Conversations) != 2 || !resp.HasMore {
		t.Fatalf("unexpected page: total=%d len=%d hasMore=%v", resp.Total, len(resp.Conversations), resp.HasMore)
	}

	resp, err = svc.List(ctx, "tenant-a", 2, 2)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(resp.Conversations) != 1 || resp.HasMore {
		t.Fatalf("unexpected last page: len=%d hasMore=%v", len(resp.Conversations), resp.HasMore)
	}
}
