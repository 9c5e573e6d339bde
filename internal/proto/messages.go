// Package proto holds the wire messages and gRPC service description of
// sehati.v1.Sehati. Messages travel as JSON; see Codec.
package proto

import "time"

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}

type RegisterRequest struct {
	WalletAddress string `json:"walletAddress"`
	DisplayName   string `json:"displayName"`
	Role          string `json:"role"`
	// DateOfBirth is YYYY-MM-DD or empty.
	DateOfBirth string `json:"dateOfBirth,omitempty"`
	Gender      string `json:"gender,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Hospital    string `json:"hospital,omitempty"`
	PublicKey   string `json:"publicKey"`
}

type RegisterResponse struct {
	UserID string `json:"userId"`
}

type LoginRequest struct {
	WalletAddress string `json:"walletAddress"`
	SignedAt      int64  `json:"signedAt"`
	Signature     string `json:"signature"`
}

type LoginResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

// Grant never carries the encryption key. Token is set only in a
// CreateGrantResponse.
type Grant struct {
	ID        string    `json:"id"`
	PatientID string    `json:"patientId"`
	Token     string    `json:"token,omitempty"`
	ExpiresAt time.Time `json:"expiresAt"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateGrantRequest struct {
	EncryptionKey string `json:"encryptionKey"`
	TTLSeconds    int64  `json:"ttlSeconds"`
}

type CreateGrantResponse struct {
	Grant *Grant `json:"grant"`
}

type ValidateGrantRequest struct {
	Token string `json:"token"`
}

type ValidateGrantResponse struct {
	PatientID     string `json:"patientId"`
	EncryptionKey string `json:"encryptionKey"`
}

type RevokeGrantRequest struct {
	Token string `json:"token"`
}

type RevokeGrantResponse struct{}

type ListGrantsRequest struct{}

type ListGrantsResponse struct {
	Grants []*Grant `json:"grants"`
}

type Record struct {
	ID          string    `json:"id"`
	PatientID   string    `json:"patientId"`
	DoctorID    string    `json:"doctorId"`
	Hospital    string    `json:"hospital,omitempty"`
	RecordType  string    `json:"recordType"`
	Title       string    `json:"title"`
	ContentHash string    `json:"contentHash"`
	TxHash      string    `json:"txHash,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

type AddRecordRequest struct {
	Token          string `json:"token"`
	Hospital       string `json:"hospital,omitempty"`
	RecordType     string `json:"recordType"`
	Title          string `json:"title"`
	Content        []byte `json:"content"`
	TxHash         string `json:"txHash,omitempty"`
	WithAttachment bool   `json:"withAttachment,omitempty"`
}

type AddRecordResponse struct {
	Record    *Record `json:"record"`
	UploadURL string  `json:"uploadUrl,omitempty"`
}

type ViewRecordsRequest struct {
	Token     string   `json:"token"`
	RecordIDs []string `json:"recordIds,omitempty"`
}

type ViewedRecord struct {
	Record        *Record `json:"record"`
	Content       []byte  `json:"content"`
	AttachmentURL string  `json:"attachmentUrl,omitempty"`
}

type ViewRecordsResponse struct {
	Records []*ViewedRecord `json:"records"`
}

type AuditEntry struct {
	ID         string    `json:"id"`
	Seq        int64     `json:"seq"`
	ActorID    string    `json:"actorId"`
	TargetID   string    `json:"targetId,omitempty"`
	Action     string    `json:"action"`
	EntityType string    `json:"entityType"`
	Metadata   string    `json:"metadata,omitempty"`
	TxHash     string    `json:"txHash,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ListAuditRequest struct{}

type ListAuditResponse struct {
	Entries []*AuditEntry `json:"entries"`
}
