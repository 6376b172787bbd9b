package service

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"

	"github.com/identity-platform/auth-service/internal/core/domain"
)

func adminIdentity() domain.Identity {
	return domain.Identity{UserID: "id-root", Username: "root", Email: "root@example.com", Role: domain.RoleAdmin}
}

func seedUser(repo *stubUserRepo, username string, role domain.Role) {
	repo.users[username] = &domain.User{
		ID:       "id-" + username,
		Username: username,
		Email:    username + "@example.com",
		Role:     role,
	}
}

func TestAdminService_ChangeRole_Success(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(repo, "alice", domain.RoleUser)
	seedUser(repo, "root", domain.RoleAdmin)
	svc := NewAdminService(repo, zerolog.Nop())

	msg, err := svc.ChangeRole(context.Background(), adminIdentity(), "alice", domain.RoleManager, "promotion")
	if err != nil {
		t.Fatalf("change role: %v", err)
	}
	if msg != "User 'alice' role successfully changed from USER to MANAGER" {
		t.Errorf("unexpected message: %q", msg)
	}
	if repo.users["alice"].Role != domain.RoleManager {
		t.Errorf("role not persisted: %s", repo.users["alice"].Role)
	}
}

func TestAdminService_ChangeRole_TargetNotFound(t *testing.T) {
	repo := newStubUserRepo()
	svc := NewAdminService(repo, zerolog.Nop())

	_, err := svc.ChangeRole(context.Background(), adminIdentity(), "ghost", domain.RoleManager, "")
	var nf *domain.NotFoundError
	if !errors.As(err, &nf) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if nf.Field != "username" || nf.Value != "ghost" {
		t.Errorf("unexpected not-found details: %+v", nf)
	}
}

func TestAdminService_ChangeRole_SelfChangeRejected(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(repo, "root", domain.RoleAdmin)
	svc := NewAdminService(repo, zerolog.Nop())

	_, err := svc.ChangeRole(context.Background(), adminIdentity(), "root", domain.RoleUser, "")
	if !errors.Is(err, domain.ErrInvalidRoleOperation) {
		t.Fatalf("expected ErrInvalidRoleOperation, got %v", err)
	}
	if repo.users["root"].Role != domain.RoleAdmin {
		t.Error("self-change mutated the record")
	}
}

func TestAdminService_ChangeRole_SameRoleIsNoop(t *testing.T) {
	repo := newStubUserRepo()
	seedUser(repo, "alice", domain.RoleModerator)
	svc := NewAdminService(repo, zerolog.Nop())

	msg, err := svc.ChangeRole(context.Background(), adminIdentity(), "alice", domain.RoleModerator, "")
	if err != nil {
		t.Fatalf("no-op change: %v", err)
	}
	if msg != "User 'alice' already has the role MODERATOR. No changes made." {
		t.Errorf("unexpected message: %q", msg)
	}
	if repo.updateRoleCalls != 0 {
		t.Errorf("no-op change hit the store %d times", repo.updateRoleCalls)
	}
}
