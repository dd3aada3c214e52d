package executor

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/adbridge/core/dto"
	"github.com/vadiminshakov/adbridge/core/envelope"
	"github.com/vadiminshakov/adbridge/mocks"
	"go.uber.org/mock/gomock"
)

func expectReply(t *testing.T, endpoint *mocks.MockEndpoint, ok bool) *gomock.Call {
	return endpoint.EXPECT().Post(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, payload []byte) error {
		resp, valid := envelope.DecodeResponse(payload, testSecret)
		require.True(t, valid)
		require.Equal(t, ok, resp.OK)
		return nil
	})
}

func TestGuard_FirstRespondWins(t *testing.T) {
	ctrl := gomock.NewController(t)
	endpoint := mocks.NewMockEndpoint(ctrl)
	expectReply(t, endpoint, true).Times(1)

	g := newGuard(endpoint, testSecret, dto.CommandLoad, nil)
	g.arm(time.Hour)

	require.True(t, g.Respond(true))
	require.False(t, g.Respond(false))
	require.False(t, g.Respond(true))
	require.True(t, g.Done())
}

func TestGuard_ConcurrentRespondSendsOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	endpoint := mocks.NewMockEndpoint(ctrl)
	endpoint.EXPECT().Post(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	g := newGuard(endpoint, testSecret, dto.CommandShow, nil)
	g.arm(time.Hour)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(ok bool) {
			defer wg.Done()
			if g.Respond(ok) {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}(i%2 == 0)
	}
	wg.Wait()

	require.Equal(t, 1, winners)
}

func TestGuard_DeadlineRepliesFailureOnce(t *testing.T) {
	ctrl := gomock.NewController(t)
	endpoint := mocks.NewMockEndpoint(ctrl)

	var sent []byte
	endpoint.EXPECT().Post(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, payload []byte) error {
		sent = payload
		return nil
	}).Times(1)

	reasons := make(chan dto.Reason, 2)
	g := newGuard(endpoint, testSecret, dto.CommandLoad, func(resp *dto.Response, reason dto.Reason) {
		reasons <- reason
	})
	g.arm(30 * time.Millisecond)

	select {
	case reason := <-reasons:
		require.Equal(t, dto.ReasonGuardDeadline, reason)
	case <-time.After(time.Second):
		t.Fatal("guard deadline did not fire")
	}

	resp, valid := envelope.DecodeResponse(sent, testSecret)
	require.True(t, valid)
	require.False(t, resp.OK)
	require.Equal(t, dto.CommandLoad, resp.Command)

	// a late real answer is ignored
	require.False(t, g.Respond(true))
	require.Empty(t, reasons)
}

func TestGuard_RespondStopsDeadline(t *testing.T) {
	ctrl := gomock.NewController(t)
	endpoint := mocks.NewMockEndpoint(ctrl)
	expectReply(t, endpoint, true).Times(1)

	g := newGuard(endpoint, testSecret, dto.CommandLoad, nil)
	g.arm(20 * time.Millisecond)
	require.True(t, g.Respond(true))

	// outlive the deadline; gomock fails on a second Post
	time.Sleep(60 * time.Millisecond)
}

func TestGuard_PostFailureIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	endpoint := mocks.NewMockEndpoint(ctrl)
	endpoint.EXPECT().Post(gomock.Any(), gomock.Any()).Return(errors.New("channel gone")).Times(1)

	g := newGuard(endpoint, testSecret, dto.CommandLoad, nil)
	g.arm(time.Hour)

	require.True(t, g.Respond(true))
	require.False(t, g.Respond(true), "a failed post still completes the guard")
}

func TestGuard_PostPanicIsSwallowed(t *testing.T) {
	ctrl := gomock.NewController(t)
	endpoint := mocks.NewMockEndpoint(ctrl)
	endpoint.EXPECT().Post(gomock.Any(), gomock.Any()).DoAndReturn(func(ctx context.Context, payload []byte) error {
		panic("transport exploded")
	}).Times(1)

	g := newGuard(endpoint, testSecret, dto.CommandShow, nil)
	g.arm(time.Hour)

	require.NotPanics(t, func() { g.Respond(false) })
}

func TestGuard_NilTarget(t *testing.T) {
	g := newGuard(nil, testSecret, dto.CommandShow, nil)
	g.arm(time.Hour)
	require.True(t, g.Respond(true))
}
