package testutil

import (
	"context"
	"time"

	"quorum/pkg/domain"
	"quorum/pkg/requestcontext"

	"github.com/google/uuid"
)

// TestActorID is a stable actor identity for tests.
var TestActorID = domain.ActorID(uuid.MustParse("8a6e0804-2bd0-4672-b79d-d97027f9071a"))

// TestRequestID is a stable request id for tests.
const TestRequestID = "test-request-id"

// TestTime is a fixed clock reading used where tests need deterministic
// timestamps.
var TestTime = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// Context returns a context carrying a stable actor, request id, and time.
func Context() context.Context {
	ctx := context.Background()
	ctx = requestcontext.WithActorID(ctx, TestActorID)
	ctx = requestcontext.WithRequestID(ctx, TestRequestID)
	ctx = requestcontext.WithTime(ctx, TestTime)
	return ctx
}

// ContextWithActor returns a context carrying the given actor.
func ContextWithActor(actorID domain.ActorID) context.Context {
	ctx := requestcontext.WithActorID(context.Background(), actorID)
	return requestcontext.WithRequestID(ctx, TestRequestID)
}
