package grpc

import (
	"context"
	"iter"
	"time"

	"github.com/sehati-health/sehati/internal/logging"
	"github.com/sehati-health/sehati/internal/server/auth"
	"github.com/sehati-health/sehati/internal/server/models"
	"github.com/sehati-health/sehati/internal/server/services"
)

type fakeUsers struct {
	regIn   services.Registration
	regResp *models.User
	regErr  error

	loginResp *services.TokenPair
	loginErr  error

	refreshResp *services.TokenPair
	refreshErr  error

	loggedOut string
}

func (f *fakeUsers) Register(_ context.Context, r services.Registration) (*models.User, error) {
	f.regIn = r
	return f.regResp, f.regErr
}
func (f *fakeUsers) Login(context.Context, string, int64, string) (*services.TokenPair, error) {
	return f.loginResp, f.loginErr
}
func (f *fakeUsers) RefreshToken(context.Context, string) (*services.TokenPair, error) {
	return f.refreshResp, f.refreshErr
}
func (f *fakeUsers) Logout(_ context.Context, userID string) error {
	f.loggedOut = userID
	return nil
}

type fakeGrants struct {
	createdFor string
	createdTTL time.Duration
	createErr  error

	key, patient string
	validateErr  error

	revokedBy string
	revokeErr error

	list []services.GrantStatus
}

func (f *fakeGrants) CreateGrant(_ context.Context, patientID, key string, ttl time.Duration) (*models.AccessGrant, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.createdFor, f.createdTTL = patientID, ttl
	return &models.AccessGrant{ID: "g1", PatientID: patientID, Token: "tok", EncryptionKey: key, IsActive: true}, nil
}
func (f *fakeGrants) ValidateGrant(context.Context, string) (string, string, error) {
	return f.key, f.patient, f.validateErr
}
func (f *fakeGrants) RevokeGrant(_ context.Context, patientID, _ string) error {
	f.revokedBy = patientID
	return f.revokeErr
}
func (f *fakeGrants) ListGrants(context.Context, string) ([]services.GrantStatus, error) {
	return f.list, nil
}

type fakeRecords struct {
	addIn    services.NewRecord
	addErr   error
	viewer   string
	viewResp []*services.ViewedRecord
	viewErr  error
}

func (f *fakeRecords) AddRecord(_ context.Context, _ string, in services.NewRecord) (*services.AddedRecord, error) {
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.addIn = in
	return &services.AddedRecord{Record: &models.MedicalRecord{ID: "r1", DoctorID: in.DoctorID, Title: in.Title}}, nil
}
func (f *fakeRecords) ViewRecords(_ context.Context, viewerID, _ string, _ []string) ([]*services.ViewedRecord, error) {
	f.viewer = viewerID
	return f.viewResp, f.viewErr
}

type fakeAudit struct {
	rows []*models.AuditLog
	err  error
}

func (f *fakeAudit) ListFor(_ context.Context, id string) iter.Seq2[*models.AuditLog, error] {
	return func(yield func(*models.AuditLog, error) bool) {
		for _, r := range f.rows {
			if r.ActorID == id || r.TargetID == id {
				if !yield(r, nil) {
					return
				}
			}
		}
		if f.err != nil {
			yield(nil, f.err)
		}
	}
}

type fakes struct {
	users   *fakeUsers
	grants  *fakeGrants
	records *fakeRecords
	audit   *fakeAudit
}

func newServer() (*GRPCServer, *fakes) {
	f := &fakes{&fakeUsers{}, &fakeGrants{}, &fakeRecords{}, &fakeAudit{}}
	s := NewGRPCServer("127.0.0.1:0", logging.Nop{},
		Services{Users: f.users, Grants: f.grants, Records: f.records, Audit: f.audit},
		nil, "k", time.Hour)
	return s, f
}

func asUser(id, role string) context.Context {
	return context.WithValue(context.Background(), claimsKey, &auth.Claims{UserID: id, Role: role})
}
