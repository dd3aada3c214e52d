package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/adbridge/mocks"
	"go.uber.org/mock/gomock"
)

const (
	testSecret      = "s3cret"
	testLoadTimeout = 100 * time.Millisecond
	testShowTimeout = 100 * time.Millisecond
)

func newTestSlot(t *testing.T) (*Interstitial, *mocks.MockSDK, *mocks.MockHandle) {
	ctrl := gomock.NewController(t)
	adSDK := mocks.NewMockSDK(ctrl)
	handle := mocks.NewMockHandle(ctrl)
	adSDK.EXPECT().NewInterstitial(gomock.Any()).Return(handle).AnyTimes()

	return NewInterstitial(adSDK, testLoadTimeout, testShowTimeout), adSDK, handle
}

// blockUntil returns a channel that unblocks SDK calls when the test ends.
func blockUntil(t *testing.T) chan struct{} {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	return release
}

func TestInterstitial_LoadThenShowThenShowAgain(t *testing.T) {
	slot, _, handle := newTestSlot(t)
	ctx := context.Background()

	handle.EXPECT().Load(gomock.Any()).Return(nil).Times(1)
	handle.EXPECT().Show(gomock.Any()).Return(nil).Times(1)

	require.True(t, slot.Load(ctx, "unit-A"))
	require.Equal(t, Loaded, slot.State())
	require.Equal(t, "unit-A", slot.ResourceRef())

	require.True(t, slot.Show(ctx))
	require.Equal(t, Unloaded, slot.State())

	// inventory was consumed, no second SDK show
	require.False(t, slot.Show(ctx))
}

func TestInterstitial_LoadWhenLoadedSkipsSDK(t *testing.T) {
	slot, _, handle := newTestSlot(t)
	ctx := context.Background()

	handle.EXPECT().Load(gomock.Any()).Return(nil).Times(1)

	require.True(t, slot.Load(ctx, "unit-A"))
	require.True(t, slot.Load(ctx, "unit-A"))
	require.Equal(t, Loaded, slot.State())
}

func TestInterstitial_ConcurrentLoadsShareOneAttempt(t *testing.T) {
	slot, _, handle := newTestSlot(t)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	handle.EXPECT().Load(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}).Times(1)

	const callers = 10
	results := make(chan bool, callers)

	go func() { results <- slot.Load(ctx, "unit-A") }()
	<-started
	require.Equal(t, Loading, slot.State())

	var wg sync.WaitGroup
	for i := 1; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- slot.Load(ctx, "unit-A")
		}()
	}

	// let the joiners attach before the load completes
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.True(t, <-results)
	}
	require.Equal(t, Loaded, slot.State())
}

func TestInterstitial_ConcurrentLoadsShareFailure(t *testing.T) {
	slot, _, handle := newTestSlot(t)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	handle.EXPECT().Load(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		close(started)
		<-release
		return errors.New("no fill")
	}).Times(1)

	results := make(chan bool, 3)
	go func() { results <- slot.Load(ctx, "unit-A") }()
	<-started
	go func() { results <- slot.Load(ctx, "unit-A") }()
	go func() { results <- slot.Load(ctx, "unit-A") }()

	time.Sleep(20 * time.Millisecond)
	close(release)

	for i := 0; i < 3; i++ {
		require.False(t, <-results)
	}
	require.Equal(t, Unloaded, slot.State())
}

func TestInterstitial_LoadTimeout(t *testing.T) {
	slot, _, handle := newTestSlot(t)
	release := blockUntil(t)

	handle.EXPECT().Load(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		<-release
		return nil
	}).Times(1)

	start := time.Now()
	require.False(t, slot.Load(context.Background(), "unit-A"))
	elapsed := time.Since(start)

	require.GreaterOrEqual(t, elapsed, testLoadTimeout)
	require.Less(t, elapsed, testLoadTimeout+200*time.Millisecond)
	require.Equal(t, Unloaded, slot.State())
}

func TestInterstitial_LateLoadSuccessIsIgnored(t *testing.T) {
	slot, _, handle := newTestSlot(t)

	release := make(chan struct{})
	finished := make(chan struct{})
	handle.EXPECT().Load(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		defer close(finished)
		<-release
		return nil
	}).Times(1)

	require.False(t, slot.Load(context.Background(), "unit-A"))

	close(release)
	<-finished
	time.Sleep(10 * time.Millisecond)

	require.Equal(t, Unloaded, slot.State())
}

func TestInterstitial_LoadFailure(t *testing.T) {
	slot, _, handle := newTestSlot(t)
	handle.EXPECT().Load(gomock.Any()).Return(errors.New("no fill")).Times(1)

	require.False(t, slot.Load(context.Background(), "unit-A"))
	require.Equal(t, Unloaded, slot.State())
}

func TestInterstitial_LoadPanicIsFailure(t *testing.T) {
	slot, _, handle := newTestSlot(t)
	handle.EXPECT().Load(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		panic("sdk bug")
	}).Times(1)

	require.False(t, slot.Load(context.Background(), "unit-A"))
	require.Equal(t, Unloaded, slot.State())
}

func TestInterstitial_EmptyResourceRef(t *testing.T) {
	slot, _, _ := newTestSlot(t)

	require.False(t, slot.Load(context.Background(), ""))
	require.Equal(t, Unloaded, slot.State())
}

func TestInterstitial_ShowRequiresLoaded(t *testing.T) {
	slot, _, _ := newTestSlot(t)

	// no Show expectation: gomock fails on any SDK show
	require.False(t, slot.Show(context.Background()))
	require.Equal(t, Unloaded, slot.State())
}

func TestInterstitial_ShowFailureStillConsumes(t *testing.T) {
	slot, _, handle := newTestSlot(t)
	ctx := context.Background()

	handle.EXPECT().Load(gomock.Any()).Return(nil).Times(1)
	handle.EXPECT().Show(gomock.Any()).Return(errors.New("activity gone")).Times(1)

	require.True(t, slot.Load(ctx, "unit-A"))
	require.False(t, slot.Show(ctx))
	require.Equal(t, Unloaded, slot.State())
	require.False(t, slot.Show(ctx))
}

func TestInterstitial_ShowTimeout(t *testing.T) {
	slot, _, handle := newTestSlot(t)
	release := blockUntil(t)
	ctx := context.Background()

	handle.EXPECT().Load(gomock.Any()).Return(nil).Times(1)
	handle.EXPECT().Show(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		<-release
		return nil
	}).Times(1)

	require.True(t, slot.Load(ctx, "unit-A"))
	require.False(t, slot.Show(ctx))
	require.Equal(t, Unloaded, slot.State())
}

func TestInterstitial_RebindResetsState(t *testing.T) {
	ctrl := gomock.NewController(t)
	adSDK := mocks.NewMockSDK(ctrl)
	handleA := mocks.NewMockHandle(ctrl)
	handleB := mocks.NewMockHandle(ctrl)

	adSDK.EXPECT().NewInterstitial("unit-A").Return(handleA).Times(1)
	adSDK.EXPECT().NewInterstitial("unit-B").Return(handleB).Times(1)
	handleA.EXPECT().Load(gomock.Any()).Return(nil).Times(1)
	handleB.EXPECT().Load(gomock.Any()).Return(nil).Times(1)

	slot := NewInterstitial(adSDK, testLoadTimeout, testShowTimeout)
	ctx := context.Background()

	require.True(t, slot.Load(ctx, "unit-A"))
	slot.Ensure("unit-A")
	require.Equal(t, Loaded, slot.State(), "ensure with the same ref is idempotent")

	slot.Ensure("unit-B")
	require.Equal(t, Unloaded, slot.State())
	require.Equal(t, "unit-B", slot.ResourceRef())

	require.True(t, slot.Load(ctx, "unit-B"))
}

func TestInterstitial_RebindDuringLoadDetachesAttempt(t *testing.T) {
	ctrl := gomock.NewController(t)
	adSDK := mocks.NewMockSDK(ctrl)
	handleA := mocks.NewMockHandle(ctrl)
	handleB := mocks.NewMockHandle(ctrl)

	adSDK.EXPECT().NewInterstitial("unit-A").Return(handleA).Times(1)
	adSDK.EXPECT().NewInterstitial("unit-B").Return(handleB).Times(1)

	started := make(chan struct{})
	release := make(chan struct{})
	handleA.EXPECT().Load(gomock.Any()).DoAndReturn(func(ctx context.Context) error {
		close(started)
		<-release
		return nil
	}).Times(1)

	slot := NewInterstitial(adSDK, time.Second, testShowTimeout)
	ctx := context.Background()

	result := make(chan bool, 1)
	go func() { result <- slot.Load(ctx, "unit-A") }()
	<-started

	slot.Ensure("unit-B")
	close(release)

	// the original caller still gets its outcome, the new binding is untouched
	require.True(t, <-result)
	require.Equal(t, Unloaded, slot.State())
	require.Equal(t, "unit-B", slot.ResourceRef())
}
