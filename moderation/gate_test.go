package moderation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/hanek/models"
)

// fakeBanStore, Gate testleri için in-memory BanStore.
type fakeBanStore struct {
	mu     sync.Mutex
	states map[string]models.BanState

	readErr  error
	writeErr error
	reads    int
	writes   int
}

func newFakeBanStore() *fakeBanStore {
	return &fakeBanStore{states: make(map[string]models.BanState)}
}

func (s *fakeBanStore) ReadBanState(_ context.Context, userID string) (models.BanState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.reads++
	if s.readErr != nil {
		return models.BanState{}, s.readErr
	}
	return s.states[userID], nil
}

func (s *fakeBanStore) WriteBanState(_ context.Context, userID string, state models.BanState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writes++
	if s.writeErr != nil {
		return s.writeErr
	}
	s.states[userID] = state
	return nil
}

func (s *fakeBanStore) state(userID string) models.BanState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.states[userID]
}

func (s *fakeBanStore) readCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reads
}

func TestCheckBan_CacheMissReadsStoreOnce(t *testing.T) {
	store := newFakeBanStore()
	store.states["u1"] = models.BanState{Warnings: 3, Blocked: true}

	gate := NewGate(store, 3, time.Hour)

	banned, err := gate.CheckBan(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, banned)

	// İkinci çağrı cache'ten gelir — store'a tekrar gidilmez.
	banned, err = gate.CheckBan(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, banned)
	assert.Equal(t, 1, store.readCount())
}

func TestCheckBan_StoreErrorPropagates(t *testing.T) {
	store := newFakeBanStore()
	store.readErr = errors.New("db unavailable")

	gate := NewGate(store, 3, time.Hour)

	_, err := gate.CheckBan(context.Background(), "u1")
	require.Error(t, err)

	// Hata cache'lenmez — store düzelince sonraki çağrı çalışır.
	store.mu.Lock()
	store.readErr = nil
	store.mu.Unlock()

	banned, err := gate.CheckBan(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, banned)
}

func TestRecordViolation_BansExactlyAtThreshold(t *testing.T) {
	store := newFakeBanStore()
	gate := NewGate(store, 3, time.Hour)
	ctx := context.Background()

	count, banned := gate.RecordViolation(ctx, "u1")
	assert.Equal(t, 1, count)
	assert.False(t, banned)

	count, banned = gate.RecordViolation(ctx, "u1")
	assert.Equal(t, 2, count)
	assert.False(t, banned)

	count, banned = gate.RecordViolation(ctx, "u1")
	assert.Equal(t, 3, count)
	assert.True(t, banned)

	// Ban anında cache otoriterdir — store okuması olmadan banlı görünür.
	isBanned, err := gate.CheckBan(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, isBanned)
	assert.Equal(t, 0, store.readCount())
}

func TestRecordViolation_ExpiredCounterStartsFresh(t *testing.T) {
	store := newFakeBanStore()
	gate := NewGate(store, 3, 30*time.Millisecond)
	ctx := context.Background()

	gate.RecordViolation(ctx, "u1")
	gate.RecordViolation(ctx, "u1")
	assert.Equal(t, 2, gate.Count("u1"))

	time.Sleep(50 * time.Millisecond)

	// Süresi dolan sayaç sıfırdan başlar — ihlal 3. değil 1. sayılır.
	count, banned := gate.RecordViolation(ctx, "u1")
	assert.Equal(t, 1, count)
	assert.False(t, banned)
}

func TestRecordViolation_ExpiryNotRefreshedByLaterViolations(t *testing.T) {
	store := newFakeBanStore()
	gate := NewGate(store, 10, 100*time.Millisecond)
	ctx := context.Background()

	gate.RecordViolation(ctx, "u1")
	time.Sleep(50 * time.Millisecond)

	// Bu ihlal expiry'yi UZATMAZ — süre ilk ihlalde bir kez kurulur.
	gate.RecordViolation(ctx, "u1")
	time.Sleep(80 * time.Millisecond)

	assert.Equal(t, 0, gate.Count("u1"))
}

func TestRecordViolation_ConcurrentBansExactlyOnce(t *testing.T) {
	store := newFakeBanStore()
	gate := NewGate(store, 3, time.Hour)

	const goroutines = 10

	var wg sync.WaitGroup
	results := make(chan bool, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, banned := gate.RecordViolation(context.Background(), "u1")
			results <- banned
		}()
	}
	wg.Wait()
	close(results)

	bannedCount := 0
	for banned := range results {
		if banned {
			bannedCount++
		}
	}

	// Artır-ve-karşılaştır atomiktir: tam olarak bir çağrı threshold'u görür.
	assert.Equal(t, 1, bannedCount)
}

func TestBanIsStickyAcrossWarningReset(t *testing.T) {
	store := newFakeBanStore()
	gate := NewGate(store, 2, time.Hour)
	ctx := context.Background()

	gate.RecordViolation(ctx, "u1")
	_, banned := gate.RecordViolation(ctx, "u1")
	require.True(t, banned)

	// Warning sayacı sıfırlansa da ban flag'i bağımsızdır.
	gate.Reset("u1")
	assert.Equal(t, 0, gate.Count("u1"))

	isBanned, err := gate.CheckBan(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, isBanned)
}

func TestBanSyncsToStore(t *testing.T) {
	store := newFakeBanStore()
	gate := NewGate(store, 2, time.Hour)
	ctx := context.Background()

	gate.RecordViolation(ctx, "u1")
	gate.RecordViolation(ctx, "u1")

	// Sync asenkron çalışır — store'a yansımasını bekle.
	require.Eventually(t, func() bool {
		return store.state("u1").Blocked
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, 2, store.state("u1").Warnings)
}

func TestUnban_StoreFailureLeavesCacheIntact(t *testing.T) {
	store := newFakeBanStore()
	store.states["u1"] = models.BanState{Warnings: 3, Blocked: true}

	gate := NewGate(store, 3, time.Hour)
	ctx := context.Background()

	banned, err := gate.CheckBan(ctx, "u1")
	require.NoError(t, err)
	require.True(t, banned)

	store.mu.Lock()
	store.writeErr = errors.New("db unavailable")
	store.mu.Unlock()

	require.Error(t, gate.Unban(ctx, "u1"))

	// Yarım unban olmaz — cache hâlâ banlı.
	banned, err = gate.CheckBan(ctx, "u1")
	require.NoError(t, err)
	assert.True(t, banned)
}

func TestUnban_ClearsCacheAndStore(t *testing.T) {
	store := newFakeBanStore()
	store.states["u1"] = models.BanState{Warnings: 3, Blocked: true}

	gate := NewGate(store, 3, time.Hour)
	ctx := context.Background()

	_, err := gate.CheckBan(ctx, "u1")
	require.NoError(t, err)

	require.NoError(t, gate.Unban(ctx, "u1"))

	banned, err := gate.CheckBan(ctx, "u1")
	require.NoError(t, err)
	assert.False(t, banned)
	assert.False(t, store.state("u1").Blocked)
}
