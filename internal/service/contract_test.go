package service

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weibaohui/contracthub/internal/eventbus"
	"github.com/weibaohui/contracthub/internal/model"
	"github.com/weibaohui/contracthub/internal/pkg/database"
	"github.com/weibaohui/contracthub/internal/pkg/schema"
	"github.com/weibaohui/contracthub/internal/pkg/storage"
	"github.com/weibaohui/contracthub/internal/repository"
	"github.com/xuri/excelize/v2"
)

var testPDF = []byte("%PDF-1.4\n1 0 obj\n<<>>\nendobj\ntrailer\n<<>>\n%%EOF\n")

var testPNG = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R', 1, 2, 3, 4}

type testEnv struct {
	contracts   ContractService
	attachments AttachmentService
	repo        repository.ContractRepository
	store       *storage.Store
	bus         *eventbus.ContractEventBus
	uploadDir   string
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open("sqlite", fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()), 0)
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	uploadDir := t.TempDir()
	store, err := storage.NewStore(uploadDir, 5*1024*1024)
	require.NoError(t, err)

	columns := schema.Inspect(context.Background(), db, "contracts")
	repo := repository.NewContractRepository(db, columns)
	bus := eventbus.NewContractEventBus()
	auth := NewAuthService(newMockUserRepo(), "secret", time.Hour)
	return &testEnv{
		contracts:   NewContractService(repo, store, bus, auth),
		attachments: NewAttachmentService(repository.NewAttachmentRepository(db), repo, store),
		repo:        repo,
		store:       store,
		bus:         bus,
		uploadDir:   uploadDir,
	}
}

// conflictRepo 只实现编号生成和创建相关方法
type conflictRepo struct {
	repository.ContractRepository
	ids       []string
	nextCalls int
	taken     map[string]bool
	created   []string
}

func (r *conflictRepo) NextID(ctx context.Context, year int) string {
	id := r.ids[r.nextCalls%len(r.ids)]
	r.nextCalls++
	return id
}

func (r *conflictRepo) Create(ctx context.Context, id string, fields map[string]any) error {
	if r.taken[id] {
		return fmt.Errorf("contract %s: %w", id, repository.ErrDuplicateID)
	}
	r.taken[id] = true
	r.created = append(r.created, id)
	return nil
}

func (r *conflictRepo) Get(ctx context.Context, id string) (*model.Contract, error) {
	return &model.Contract{ID: id, Status: model.ContractStatusPending}, nil
}

func TestCreateRetriesGeneratedIDOnConflict(t *testing.T) {
	repo := &conflictRepo{
		ids:   []string{"CN-2024-1", "CN-2024-1", "CN-2024-2"},
		taken: map[string]bool{"CN-2024-1": true},
	}
	svc := NewContractService(repo, nil, nil, nil)

	contract, err := svc.Create(context.Background(), map[string]any{}, "sara")
	require.NoError(t, err)
	assert.Equal(t, "CN-2024-2", contract.ID)
	assert.Equal(t, 3, repo.nextCalls)
}

func TestCreateGivesUpAfterMaxAttempts(t *testing.T) {
	repo := &conflictRepo{ids: []string{"CN-2024-1"}, taken: map[string]bool{"CN-2024-1": true}}
	svc := NewContractService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), map[string]any{}, "sara")
	assert.True(t, errors.Is(err, repository.ErrDuplicateID))
	assert.Equal(t, maxIDAttempts, repo.nextCalls)
}

func TestCreateSuppliedDuplicateIsNotRetried(t *testing.T) {
	repo := &conflictRepo{ids: []string{"CN-2024-9"}, taken: map[string]bool{"CN-2024-1": true}}
	svc := NewContractService(repo, nil, nil, nil)

	_, err := svc.Create(context.Background(), map[string]any{"id": "CN-2024-1"}, "sara")
	assert.True(t, errors.Is(err, repository.ErrDuplicateID))
	assert.Equal(t, 0, repo.nextCalls)

	_, err = svc.Create(context.Background(), map[string]any{"id": 12}, "sara")
	assert.True(t, errors.Is(err, ErrInvalidPayload))
}

func TestCreateGeneratesSequentialIDs(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()
	year := time.Now().Year()

	_, err := env.contracts.Create(ctx, map[string]any{"id": fmt.Sprintf("CN-%d-41", year)}, "sara")
	require.NoError(t, err)

	c, err := env.contracts.Create(ctx, map[string]any{"service_name": "Cleaning"}, "sara")
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("CN-%d-42", year), c.ID)
	assert.Equal(t, model.ContractStatusPending, c.Status)
}

func TestUpdateReportsNoChanges(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	c, err := env.contracts.Create(ctx, map[string]any{"manager": "sara"}, "sara")
	require.NoError(t, err)

	_, err = env.contracts.Update(ctx, c.ID, map[string]any{"id": "other"}, "sara")
	assert.True(t, errors.Is(err, ErrNoChanges))

	updated, err := env.contracts.Update(ctx, c.ID, map[string]any{"total_price": 99.5}, "sara")
	require.NoError(t, err)
	assert.Equal(t, "99.5", updated.TotalPrice.Decimal.String())

	_, err = env.contracts.Update(ctx, "CN-1999-1", map[string]any{"manager": "x"}, "sara")
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	_, err = env.contracts.Update(ctx, c.ID, map[string]any{"from_date": "not a date"}, "sara")
	assert.True(t, errors.Is(err, ErrInvalidPayload))
}

func TestSignStoresPDFAndActivates(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	var signed []eventbus.ContractEvent
	env.bus.Subscribe(eventbus.ContractEventSigned, func(ctx context.Context, e eventbus.ContractEvent) error {
		signed = append(signed, e)
		return nil
	})

	c, err := env.contracts.Create(ctx, map[string]any{"manager": "sara", "client_email": "c@example.com"}, "sara")
	require.NoError(t, err)

	_, err = env.contracts.Sign(ctx, c.ID, []byte("not a pdf"), "signer")
	assert.True(t, errors.Is(err, ErrUnsupportedFile))
	_, err = env.contracts.Sign(ctx, c.ID, nil, "signer")
	assert.True(t, errors.Is(err, ErrInvalidPayload))

	_, err = env.contracts.SignedFile(ctx, c.ID)
	assert.True(t, errors.Is(err, repository.ErrNotFound))

	name, err := env.contracts.Sign(ctx, c.ID, testPDF, "signer")
	require.NoError(t, err)
	assert.Equal(t, "signed_"+c.ID+".pdf", name)

	got, err := env.contracts.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ContractStatusActive, got.Status)
	assert.Equal(t, model.SignMethodElectronic, *got.SignMethod)

	path, err := env.contracts.SignedFile(ctx, c.ID)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, testPDF, data)
	assert.FileExists(t, filepath.Join(env.uploadDir, "contracts", c.ID, name))

	require.Len(t, signed, 1)
	assert.Equal(t, "sara", signed[0].Manager)

	_, err = env.contracts.Sign(ctx, "CN-1999-1", testPDF, "signer")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
}

func TestDeleteRemovesRowsAndDirectory(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	c, err := env.contracts.Create(ctx, map[string]any{}, "admin")
	require.NoError(t, err)

	saved, err := env.attachments.Save(ctx, c.ID, []AttachmentInput{
		{FieldName: "photo", FieldType: model.FieldTypeImage, FileData: "data:image/png;base64," + base64.StdEncoding.EncodeToString(testPNG)},
	})
	require.NoError(t, err)
	require.Len(t, saved, 1)
	dir := filepath.Join(env.uploadDir, "contracts", c.ID)
	assert.DirExists(t, dir)

	require.NoError(t, env.contracts.Delete(ctx, c.ID, "admin"))

	_, err = env.contracts.Get(ctx, c.ID)
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	list, err := env.attachments.List(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))

	assert.True(t, errors.Is(env.contracts.Delete(ctx, c.ID, "admin"), repository.ErrNotFound))
}

func TestExportCSVAndXLSX(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	_, err := env.contracts.Create(ctx, map[string]any{"id": "CN-2024-1", "client_id": "client-1", "service_name": "Waste", "total_price": "1500"}, "sara")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, env.contracts.ExportCSV(ctx, &buf))
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, exportHeaders, records[0])
	assert.Equal(t, []string{"CN-2024-1", "client-1", "Waste", "1500.00", "pending"}, records[1][:5])
	assert.NotEmpty(t, records[1][5])

	buf.Reset()
	require.NoError(t, env.contracts.ExportXLSX(ctx, &buf))
	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Contracts")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "CN-2024-1", rows[1][0])
}

func TestSigningLinkRoundTrip(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	c, err := env.contracts.Create(ctx, map[string]any{"client_email": "c@example.com"}, "sara")
	require.NoError(t, err)

	link, err := env.contracts.SigningLink(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "/sign/"+c.ID+"/"+link.Token, link.URL)

	auth := NewAuthService(newMockUserRepo(), "secret", time.Hour)
	principal, err := auth.Authenticate(SchemeSigner, link.Token)
	require.NoError(t, err)
	assert.Equal(t, c.ID, principal.ContractID)
	assert.Equal(t, "c@example.com", principal.Email)
}

func TestCreateRejectsUnsafeSuppliedIDs(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	for _, id := range []string{".", "..", "../etc", "a/b", "-lead", "has space"} {
		_, err := env.contracts.Create(ctx, map[string]any{"id": id}, "admin")
		assert.ErrorIs(t, err, ErrInvalidPayload, id)
	}

	c, err := env.contracts.Create(ctx, map[string]any{"id": "CN-2024-77"}, "admin")
	require.NoError(t, err)
	assert.Equal(t, "CN-2024-77", c.ID)
}

func TestDeleteOfLegacyDotIDKeepsOtherContracts(t *testing.T) {
	env := setupEnv(t)
	ctx := context.Background()

	c, err := env.contracts.Create(ctx, map[string]any{}, "admin")
	require.NoError(t, err)
	_, err = env.attachments.Save(ctx, c.ID, []AttachmentInput{
		{FieldName: "photo", FieldType: model.FieldTypeImage, FileData: base64.StdEncoding.EncodeToString(testPNG)},
	})
	require.NoError(t, err)

	// 历史数据中可能存在不安全的编号，直接写库
	for _, id := range []string{".", ".."} {
		require.NoError(t, env.repo.Create(ctx, id, map[string]any{}))
		require.NoError(t, env.contracts.Delete(ctx, id, "admin"))
	}

	assert.DirExists(t, filepath.Join(env.uploadDir, "contracts", c.ID))
	list, err := env.attachments.List(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
