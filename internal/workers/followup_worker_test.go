package workers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/niagahub/niagabot/internal/models"
)

type fakeFollowUpRepo struct {
	due      []models.FollowUp
	claimErr error

	claimed []string
	sent    []string
	failed  map[string]string
}

func newFakeFollowUpRepo(due ...models.FollowUp) *fakeFollowUpRepo {
	return &fakeFollowUpRepo{due: due, failed: map[string]string{}}
}

func (f *fakeFollowUpRepo) Insert(_ context.Context, _ *models.FollowUp) error { return nil }

func (f *fakeFollowUpRepo) ListPending(_ context.Context, _ string, _ int) ([]models.FollowUp, error) {
	return nil, nil
}

func (f *fakeFollowUpRepo) ClaimDue(_ context.Context, _, _ time.Time, limit int) ([]models.FollowUp, error) {
	if f.claimErr != nil {
		return nil, f.claimErr
	}
	batch := f.due
	if len(batch) > limit {
		batch = batch[:limit]
	}
	out := make([]models.FollowUp, len(batch))
	for i := range batch {
		out[i] = batch[i]
		out[i].Status = models.FollowUpDispatching
		f.claimed = append(f.claimed, batch[i].ID)
	}
	return out, nil
}

func (f *fakeFollowUpRepo) MarkSent(_ context.Context, id string, _ time.Time) error {
	f.sent = append(f.sent, id)
	return nil
}

func (f *fakeFollowUpRepo) MarkFailed(_ context.Context, id string, lastError string) error {
	f.failed[id] = lastError
	return nil
}

type memLocker struct {
	data map[string]string
}

func newMemLocker() *memLocker { return &memLocker{data: map[string]string{}} }

func (c *memLocker) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	v, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal([]byte(v), dst)
}

func (c *memLocker) SetJSON(_ context.Context, key string, val any, _ time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return err
	}
	c.data[key] = string(b)
	return nil
}

func (c *memLocker) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

func (c *memLocker) SetNX(_ context.Context, key, val string, _ time.Duration) (bool, error) {
	if _, ok := c.data[key]; ok {
		return false, nil
	}
	c.data[key] = val
	return true, nil
}

type recordingDispatcher struct {
	dispatched []string
	statuses   []string
	failIDs    map[string]bool
}

func (d *recordingDispatcher) Dispatch(_ context.Context, f *models.FollowUp) error {
	if d.failIDs[f.ID] {
		return errors.New("channel rejected message")
	}
	d.dispatched = append(d.dispatched, f.ID)
	d.statuses = append(d.statuses, f.Status)
	return nil
}

func dueItem(id string) models.FollowUp {
	return models.FollowUp{
		ID:          id,
		TenantID:    "t1",
		UserID:      "u1",
		Channel:     "web",
		Status:      models.FollowUpPending,
		ScheduledAt: time.Now().Add(-time.Minute),
	}
}

func newTestWorker(repo *fakeFollowUpRepo, locker *memLocker, d Dispatcher) *FollowUpWorker {
	return &FollowUpWorker{
		Followups:    repo,
		Locker:       locker,
		Dispatcher:   d,
		Logger:       logrus.New(),
		PollInterval: time.Second,
		BatchSize:    10,
		LeaseTTL:     time.Minute,
	}
}

func TestTickDispatchesDueItems(t *testing.T) {
	repo := newFakeFollowUpRepo(dueItem("f1"), dueItem("f2"))
	d := &recordingDispatcher{}
	w := newTestWorker(repo, newMemLocker(), d)

	w.Tick(context.Background())

	assert.Equal(t, []string{"f1", "f2"}, repo.claimed, "items must be claimed before dispatch")
	assert.Equal(t, []string{"f1", "f2"}, d.dispatched)
	assert.Equal(t, []string{"f1", "f2"}, repo.sent)
	assert.Empty(t, repo.failed)
}

func TestTickClaimsBeforeDispatch(t *testing.T) {
	repo := newFakeFollowUpRepo(dueItem("f1"))
	d := &recordingDispatcher{}
	w := newTestWorker(repo, newMemLocker(), d)

	w.Tick(context.Background())

	require.Len(t, repo.claimed, 1)
	require.Equal(t, []string{models.FollowUpDispatching}, d.statuses,
		"dispatcher must only ever see rows already claimed")
	assert.Equal(t, []string{"f1"}, repo.sent)
}

func TestTickSkipsLeasedItems(t *testing.T) {
	repo := newFakeFollowUpRepo(dueItem("f1"), dueItem("f2"))
	locker := newMemLocker()
	_, err := locker.SetNX(context.Background(), "followup:lease:f1", "1", time.Minute)
	require.NoError(t, err)

	d := &recordingDispatcher{}
	w := newTestWorker(repo, locker, d)

	w.Tick(context.Background())

	assert.Equal(t, []string{"f2"}, d.dispatched, "leased item must not be double-dispatched")
	assert.Equal(t, []string{"f2"}, repo.sent)
}

func TestTickIsolatesDispatchFailures(t *testing.T) {
	repo := newFakeFollowUpRepo(dueItem("f1"), dueItem("f2"), dueItem("f3"))
	d := &recordingDispatcher{failIDs: map[string]bool{"f2": true}}
	w := newTestWorker(repo, newMemLocker(), d)

	w.Tick(context.Background())

	assert.Equal(t, []string{"f1", "f3"}, repo.sent)
	assert.Contains(t, repo.failed, "f2")
	assert.Equal(t, "channel rejected message", repo.failed["f2"])
}

func TestTickClaimFailureIsQuiet(t *testing.T) {
	repo := newFakeFollowUpRepo()
	repo.claimErr = errors.New("pg down")
	d := &recordingDispatcher{}
	w := newTestWorker(repo, newMemLocker(), d)

	w.Tick(context.Background())

	assert.Empty(t, d.dispatched)
	assert.Empty(t, repo.sent)
}

func TestStartRequiresDependencies(t *testing.T) {
	w := &FollowUpWorker{}
	assert.Error(t, w.Start(context.Background()))
}
