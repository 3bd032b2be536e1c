package grpc

import (
	"context"

	"github.com/dmitrijs2005/vaultkeeper/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

func (s *GRPCServer) ResolveSession(ctx context.Context, in *wrapperspb.StringValue) (*structpb.Struct, error) {
	sc := services.SessionContext{Secret: in.GetValue()}
	if !sc.Authenticated() {
		sc = services.SessionFromContext(ctx)
	}

	acc, err := s.sessions.Resolve(ctx, sc)
	if err != nil {
		s.logger.Debug(ctx, "session not resolved", "err", err)
		return nil, status.Error(codes.Unauthenticated, "no session")
	}

	ent := s.sessions.Entitlements(ctx, acc)

	out, err := structpb.NewStruct(map[string]any{
		"id":               acc.ID,
		"email":            acc.Email,
		"full_name":        acc.FullName,
		"avatar_url":       acc.AvatarURL,
		"account_id":       acc.AccountID,
		"is_demo":          ent.Demo,
		"max_vault_bytes":  ent.MaxVaultBytes,
		"used_vault_bytes": ent.UsedVaultBytes,
		"can_share":        ent.CanShare,
	})
	if err != nil {
		s.logger.Error(ctx, "encoding account", "err", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	return out, nil
}
