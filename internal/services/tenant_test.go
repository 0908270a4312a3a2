package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niagahub/niagabot/internal/models"
	"github.com/niagahub/niagabot/internal/utils"
)

type fakeTenantRepo struct {
	rows map[string]*models.Tenant
}

func newFakeTenantRepo() *fakeTenantRepo {
	return &fakeTenantRepo{rows: map[string]*models.Tenant{}}
}

func (f *fakeTenantRepo) GetByID(_ context.Context, tenantID string) (*models.Tenant, error) {
	if t, ok := f.rows[tenantID]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, utils.ErrNotFound
}

func (f *fakeTenantRepo) Upsert(_ context.Context, t *models.Tenant) error {
	if existing, ok := f.rows[t.TenantID]; ok && t.APIKeyHash == "" {
		t.APIKeyHash = existing.APIKeyHash
	}
	cp := *t
	f.rows[t.TenantID] = &cp
	return nil
}

func (f *fakeTenantRepo) Delete(_ context.Context, tenantID string) error {
	delete(f.rows, tenantID)
	return nil
}

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *memCache) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func (c *memCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memCache) SetNX(_ context.Context, key, val string, _ time.Duration) (bool, error) {
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = []byte(val)
	return true, nil
}

func TestUpsertSettingsIssuesKeyOnce(t *testing.T) {
	svc := NewTenantService(newFakeTenantRepo(), newMemCache())

	_, key, err := svc.UpsertSettings(context.Background(), testSettings())
	require.NoError(t, err)
	assert.NotEmpty(t, key, "first create must return the plaintext key")

	_, key2, err := svc.UpsertSettings(context.Background(), testSettings())
	require.NoError(t, err)
	assert.Empty(t, key2, "subsequent upserts must not re-issue the key")
}

func TestVerifyAPIKey(t *testing.T) {
	svc := NewTenantService(newFakeTenantRepo(), newMemCache())

	_, key, err := svc.UpsertSettings(context.Background(), testSettings())
	require.NoError(t, err)

	require.NoError(t, svc.VerifyAPIKey(context.Background(), "t1", key))

	err = svc.VerifyAPIKey(context.Background(), "t1", "nk_wrong")
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))

	err = svc.VerifyAPIKey(context.Background(), "unknown", key)
	assert.True(t, utils.IsCode(err, utils.CodeUnauthorized))
}

func TestGetSettingsRoundTrip(t *testing.T) {
	svc := NewTenantService(newFakeTenantRepo(), newMemCache())

	in := testSettings()
	in.Timezone = "Asia/Jakarta"
	_, _, err := svc.UpsertSettings(context.Background(), in)
	require.NoError(t, err)

	out, err := svc.GetSettings(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, in.Sop, out.Sop)
	assert.Equal(t, in.Persona, out.Persona)
	assert.Equal(t, "Asia/Jakarta", out.Timezone)
}

func TestGetSettingsCacheHit(t *testing.T) {
	repo := newFakeTenantRepo()
	c := newMemCache()
	svc := NewTenantService(repo, c)

	_, _, err := svc.UpsertSettings(context.Background(), testSettings())
	require.NoError(t, err)

	_, err = svc.GetSettings(context.Background(), "t1")
	require.NoError(t, err)

	// second read is served from cache even if the row disappears
	delete(repo.rows, "t1")
	out, err := svc.GetSettings(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", out.TenantID)
}

func TestGetSettingsNotFound(t *testing.T) {
	svc := NewTenantService(newFakeTenantRepo(), newMemCache())

	_, err := svc.GetSettings(context.Background(), "nope")
	assert.True(t, utils.IsCode(err, utils.CodeNotFound))
}

func TestUpsertSettingsRejectsBadSop(t *testing.T) {
	svc := NewTenantService(newFakeTenantRepo(), newMemCache())

	bad := testSettings()
	bad.Sop.Steps = []models.SopStep{
		{Name: "a", Order: 2},
		{Name: "b", Order: 1},
	}
	_, _, err := svc.UpsertSettings(context.Background(), bad)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))

	bad.Sop.Steps = []models.SopStep{{Name: "", Order: 1}}
	_, _, err = svc.UpsertSettings(context.Background(), bad)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}

func TestUpsertSettingsDefaultsPersona(t *testing.T) {
	svc := NewTenantService(newFakeTenantRepo(), newMemCache())

	in := models.TenantSettings{TenantID: "t2"}
	out, _, err := svc.UpsertSettings(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPersona(), out.Persona)
}
