package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/sehati-health/sehati/internal/client/client"
	"github.com/sehati-health/sehati/internal/filex"
	"github.com/sehati-health/sehati/internal/netx"
	pb "github.com/sehati-health/sehati/internal/proto"
)

type NewRecord struct {
	Token      string
	Hospital   string
	RecordType string
	Title      string
	Content    []byte
	TxHash     string
	Attachment []byte
}

type ViewedRecord struct {
	Record  *pb.Record
	Content []byte
	// AttachmentPath is set when an attachment was downloaded.
	AttachmentPath string
}

type RecordService struct {
	client   client.Client
	upload   func(ctx context.Context, url string, body []byte) error
	download func(ctx context.Context, url string) ([]byte, error)
}

func NewRecordService(c client.Client) *RecordService {
	return &RecordService{
		client:   c,
		upload:   netx.UploadToPresignedURL,
		download: netx.DownloadFromPresignedURL,
	}
}

// Add stores a record under the grant in r.Token. An attachment is uploaded
// straight to object storage through the presigned URL the server returns.
func (s *RecordService) Add(ctx context.Context, r NewRecord) (*pb.Record, error) {
	resp, err := s.client.AddRecord(ctx, &pb.AddRecordRequest{
		Token:          r.Token,
		Hospital:       r.Hospital,
		RecordType:     r.RecordType,
		Title:          r.Title,
		Content:        r.Content,
		TxHash:         r.TxHash,
		WithAttachment: len(r.Attachment) > 0,
	})
	if err != nil {
		return nil, fmt.Errorf("add record: %w", err)
	}

	if len(r.Attachment) > 0 {
		if resp.UploadURL == "" {
			return resp.Record, fmt.Errorf("record %s saved but the server has no attachment storage", resp.Record.ID)
		}
		if err := s.upload(ctx, resp.UploadURL, r.Attachment); err != nil {
			return resp.Record, fmt.Errorf("record %s saved but attachment upload failed: %w", resp.Record.ID, err)
		}
	}
	return resp.Record, nil
}

// View decrypts the named records (all when ids is empty). Attachments are
// saved into downloadDir when it is not empty.
func (s *RecordService) View(ctx context.Context, token string, ids []string, downloadDir string) ([]*ViewedRecord, error) {
	viewed, err := s.client.ViewRecords(ctx, token, ids)
	if err != nil {
		return nil, fmt.Errorf("view records: %w", err)
	}

	out := make([]*ViewedRecord, 0, len(viewed))
	for _, v := range viewed {
		vr := &ViewedRecord{Record: v.Record, Content: v.Content}
		if v.AttachmentURL != "" && downloadDir != "" {
			body, err := s.download(ctx, v.AttachmentURL)
			if err != nil {
				return nil, fmt.Errorf("download attachment of %s: %w", v.Record.ID, err)
			}
			path := filepath.Join(downloadDir, v.Record.ID+".bin")
			if err := filex.WritePrivate(path, body); err != nil {
				return nil, err
			}
			vr.AttachmentPath = path
		}
		out = append(out, vr)
	}
	return out, nil
}

func (s *RecordService) Audit(ctx context.Context) ([]*pb.AuditEntry, error) {
	return s.client.ListAudit(ctx)
}
