package grpc

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/sehati-health/sehati/internal/common"
	pb "github.com/sehati-health/sehati/internal/proto"
	"github.com/sehati-health/sehati/internal/server/models"
	"github.com/sehati-health/sehati/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// maxTTLSeconds is the largest ttl that still fits in a time.Duration.
const maxTTLSeconds = int64(math.MaxInt64 / time.Second)

func (s *GRPCServer) Ping(ctx context.Context, req *pb.PingRequest) (*pb.PingResponse, error) {
	return &pb.PingResponse{Status: "OK"}, nil
}

func (s *GRPCServer) Register(ctx context.Context, req *pb.RegisterRequest) (*pb.RegisterResponse, error) {
	s.logger.Info(ctx, "Registration request", "wallet", req.WalletAddress, "role", req.Role)

	r := services.Registration{
		WalletAddress: req.WalletAddress,
		DisplayName:   req.DisplayName,
		Role:          req.Role,
		Gender:        req.Gender,
		Phone:         req.Phone,
		Hospital:      req.Hospital,
		PublicKey:     req.PublicKey,
	}
	if req.DateOfBirth != "" {
		dob, err := time.Parse(time.DateOnly, req.DateOfBirth)
		if err != nil {
			return nil, status.Error(codes.InvalidArgument, common.UserMessage(common.ErrValidation))
		}
		r.DateOfBirth = &dob
	}

	user, err := s.users.Register(ctx, r)
	if err != nil {
		s.logger.Warn(ctx, "Registration failed", "wallet", req.WalletAddress, "error", err)
		return nil, toStatus(err)
	}

	return &pb.RegisterResponse{UserID: user.ID}, nil
}

func (s *GRPCServer) Login(ctx context.Context, req *pb.LoginRequest) (*pb.LoginResponse, error) {
	tokens, err := s.users.Login(ctx, req.WalletAddress, req.SignedAt, req.Signature)
	if err != nil {
		if errors.Is(err, common.ErrUnauthorized) {
			return nil, status.Error(codes.Unauthenticated, common.UserMessage(err))
		}
		return nil, toStatus(err)
	}
	return &pb.LoginResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *pb.RefreshTokenRequest) (*pb.RefreshTokenResponse, error) {
	tokens, err := s.users.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.RefreshTokenResponse{AccessToken: tokens.AccessToken, RefreshToken: tokens.RefreshToken}, nil
}

func (s *GRPCServer) Logout(ctx context.Context, req *pb.LogoutRequest) (*pb.LogoutResponse, error) {
	c, err := requireRole(ctx, "")
	if err != nil {
		return nil, err
	}
	if err := s.users.Logout(ctx, c.UserID); err != nil {
		return nil, toStatus(err)
	}
	return &pb.LogoutResponse{}, nil
}

func (s *GRPCServer) CreateGrant(ctx context.Context, req *pb.CreateGrantRequest) (*pb.CreateGrantResponse, error) {
	c, err := requireRole(ctx, common.RolePatient)
	if err != nil {
		return nil, err
	}

	if req.TTLSeconds > maxTTLSeconds {
		return nil, toStatus(fmt.Errorf("%w: ttl of %d seconds is out of range", common.ErrValidation, req.TTLSeconds))
	}
	ttl := s.defaultGrantTTL
	if req.TTLSeconds != 0 {
		ttl = time.Duration(req.TTLSeconds) * time.Second
	}

	g, err := s.grants.CreateGrant(ctx, c.UserID, req.EncryptionKey, ttl)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.CreateGrantResponse{Grant: grantToPB(g, true, true)}, nil
}

func (s *GRPCServer) ValidateGrant(ctx context.Context, req *pb.ValidateGrantRequest) (*pb.ValidateGrantResponse, error) {
	key, patientID, err := s.grants.ValidateGrant(ctx, req.Token)
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.ValidateGrantResponse{PatientID: patientID, EncryptionKey: key}, nil
}

func (s *GRPCServer) RevokeGrant(ctx context.Context, req *pb.RevokeGrantRequest) (*pb.RevokeGrantResponse, error) {
	c, err := requireRole(ctx, common.RolePatient)
	if err != nil {
		return nil, err
	}
	if err := s.grants.RevokeGrant(ctx, c.UserID, req.Token); err != nil {
		return nil, toStatus(err)
	}
	return &pb.RevokeGrantResponse{}, nil
}

func (s *GRPCServer) ListGrants(ctx context.Context, req *pb.ListGrantsRequest) (*pb.ListGrantsResponse, error) {
	c, err := requireRole(ctx, common.RolePatient)
	if err != nil {
		return nil, err
	}
	list, err := s.grants.ListGrants(ctx, c.UserID)
	if err != nil {
		return nil, toStatus(err)
	}
	resp := &pb.ListGrantsResponse{Grants: make([]*pb.Grant, 0, len(list))}
	for _, gs := range list {
		resp.Grants = append(resp.Grants, grantToPB(gs.Grant, gs.Active, false))
	}
	return resp, nil
}

func (s *GRPCServer) AddRecord(ctx context.Context, req *pb.AddRecordRequest) (*pb.AddRecordResponse, error) {
	c, err := requireRole(ctx, common.RoleDoctor)
	if err != nil {
		return nil, err
	}

	added, err := s.records.AddRecord(ctx, req.Token, services.NewRecord{
		DoctorID:       c.UserID,
		Hospital:       req.Hospital,
		RecordType:     req.RecordType,
		Title:          req.Title,
		Content:        req.Content,
		TxHash:         req.TxHash,
		WithAttachment: req.WithAttachment,
	})
	if err != nil {
		return nil, toStatus(err)
	}
	return &pb.AddRecordResponse{Record: recordToPB(added.Record), UploadURL: added.UploadURL}, nil
}

func (s *GRPCServer) ViewRecords(ctx context.Context, req *pb.ViewRecordsRequest) (*pb.ViewRecordsResponse, error) {
	c, err := requireRole(ctx, "")
	if err != nil {
		return nil, err
	}

	viewed, err := s.records.ViewRecords(ctx, c.UserID, req.Token, req.RecordIDs)
	if err != nil {
		return nil, toStatus(err)
	}

	resp := &pb.ViewRecordsResponse{Records: make([]*pb.ViewedRecord, 0, len(viewed))}
	for _, v := range viewed {
		resp.Records = append(resp.Records, &pb.ViewedRecord{
			Record:        recordToPB(v.Record),
			Content:       v.Content,
			AttachmentURL: v.AttachmentURL,
		})
	}
	return resp, nil
}

// ListAudit returns the caller's own trail: rows they acted in or were the
// subject of.
func (s *GRPCServer) ListAudit(ctx context.Context, req *pb.ListAuditRequest) (*pb.ListAuditResponse, error) {
	c, err := requireRole(ctx, "")
	if err != nil {
		return nil, err
	}

	resp := &pb.ListAuditResponse{}
	for row, err := range s.audit.ListFor(ctx, c.UserID) {
		if err != nil {
			return nil, toStatus(err)
		}
		resp.Entries = append(resp.Entries, auditToPB(row))
	}
	return resp, nil
}

// grantToPB leaves the bearer token out unless withToken is set, which only
// the CreateGrant response does.
func grantToPB(g *models.AccessGrant, active, withToken bool) *pb.Grant {
	out := &pb.Grant{
		ID:        g.ID,
		PatientID: g.PatientID,
		ExpiresAt: g.ExpiresAt,
		Active:    active,
		CreatedAt: g.CreatedAt,
	}
	if withToken {
		out.Token = g.Token
	}
	return out
}

func recordToPB(r *models.MedicalRecord) *pb.Record {
	return &pb.Record{
		ID:          r.ID,
		PatientID:   r.PatientID,
		DoctorID:    r.DoctorID,
		Hospital:    r.Hospital,
		RecordType:  r.RecordType,
		Title:       r.Title,
		ContentHash: r.ContentHash,
		TxHash:      r.TxHash,
		CreatedAt:   r.CreatedAt,
	}
}

func auditToPB(a *models.AuditLog) *pb.AuditEntry {
	return &pb.AuditEntry{
		ID:         a.ID,
		Seq:        a.Seq,
		ActorID:    a.ActorID,
		TargetID:   a.TargetID,
		Action:     string(a.Action),
		EntityType: string(a.EntityType),
		Metadata:   a.Metadata,
		TxHash:     a.TxHash,
		CreatedAt:  a.CreatedAt,
	}
}
