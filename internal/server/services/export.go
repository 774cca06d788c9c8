package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/eventportal/internal/common"
	"github.com/dmitrijs2005/eventportal/internal/netx"
	"github.com/dmitrijs2005/eventportal/internal/server/auth"
	sc "github.com/dmitrijs2005/eventportal/internal/server/config"
	"github.com/dmitrijs2005/eventportal/internal/server/models"
	"github.com/dmitrijs2005/eventportal/internal/server/repositories/repomanager"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const exportURLValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	uploadToPresignedURL = netx.UploadToS3PresignedURL
)

// ExportService writes the roster to object storage and hands back a
// short-lived download link.
type ExportService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	httpClient  *http.Client
}

func NewExportService(db *sql.DB, m repomanager.RepositoryManager, cfg *sc.Config) *ExportService {
	return &ExportService{
		db:          db,
		repomanager: m,
		config:      cfg,
		httpClient:  &http.Client{Timeout: 30 * time.Second},
	}
}

func exportKey(now time.Time) string {
	return fmt.Sprintf("exports/%d/%02d/%02d/%v.csv", now.Year(), now.Month(), now.Day(), uuid.New())
}

var rosterHeader = []string{"id", "name", "section", "email", "roll_number", "phone_number",
	"need_system", "role", "status", "github_link", "created_at"}

// WriteRosterCSV renders users as CSV. Password hashes are never included.
func WriteRosterCSV(users []*models.User) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(rosterHeader); err != nil {
		return nil, err
	}
	for _, u := range users {
		rec := []string{u.ID, u.Name, u.Section, u.Email, u.RollNumber, u.PhoneNumber,
			strconv.FormatBool(u.NeedSystem), string(u.Role), string(u.Status), u.GithubLink,
			u.CreatedAt.UTC().Format(time.RFC3339)}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()

	return buf.Bytes(), w.Error()
}

func (s *ExportService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.config.S3BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return newS3PresignClient(client), nil
}

// ExportUsers uploads the full roster and returns a presigned GET URL.
func (s *ExportService) ExportUsers(ctx context.Context, p auth.Principal) (string, error) {
	if !p.IsAdmin() {
		return "", common.ErrForbidden
	}
	if s.config.S3Bucket == "" {
		return "", common.ErrStorageNotAvailable
	}

	users, err := s.repomanager.Users(s.db).List(ctx)
	if err != nil {
		return "", internalErr(err)
	}

	body, err := WriteRosterCSV(users)
	if err != nil {
		return "", internalErr(err)
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", internalErr(err)
	}

	bucket := s.config.S3Bucket
	key := exportKey(time.Now().UTC())
	contentType := "text/csv"

	put, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		ContentType: &contentType,
	}, s3.WithPresignExpires(exportURLValidity))
	if err != nil {
		return "", internalErr(err)
	}

	if err := uploadToPresignedURL(ctx, s.httpClient, put.URL, contentType, body); err != nil {
		return "", internalErr(err)
	}

	get, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(exportURLValidity))
	if err != nil {
		return "", internalErr(err)
	}

	return get.URL, nil
}
