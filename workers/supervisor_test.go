package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"beruang/mocks"
)

func TestSupervisorRestartOnPanic(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	var calls atomic.Int32
	worker := mocks.NewMockWorker(ctrl)
	worker.EXPECT().
		Run(gomock.Any()).
		DoAndReturn(func(context.Context) error {
			calls.Add(1)
			panic("boom")
		}).
		AnyTimes()

	sup := NewSupervisor(slog.New(slog.DiscardHandler))

	ctx, cancel := context.WithTimeout(t.Context(), time.Second)
	defer cancel()
	sup.Add(worker).Run(ctx)

	require.GreaterOrEqual(calls.Load(), int32(2))
}

func TestSupervisorStopOnSuccess(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	worker := mocks.NewMockWorker(ctrl)
	worker.EXPECT().Run(gomock.Any()).Return(nil).Times(1)

	sup := NewSupervisor(slog.New(slog.DiscardHandler))

	done := make(chan struct{})
	go func() {
		sup.Add(worker).Run(t.Context())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail("supervisor did not stop after worker success")
	}
}

func TestSupervisorRestartOnError(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	var calls atomic.Int32
	worker := mocks.NewMockWorker(ctrl)
	worker.EXPECT().
		Run(gomock.Any()).
		DoAndReturn(func(context.Context) error {
			if calls.Add(1) == 1 {
				return fmt.Errorf("transient failure")
			}
			return nil
		}).
		Times(2)

	sup := NewSupervisor(slog.New(slog.DiscardHandler))

	done := make(chan struct{})
	go func() {
		sup.Add(worker).Run(t.Context())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail("supervisor did not recover from worker error")
	}
	require.Equal(int32(2), calls.Load())
}

func TestSupervisorStop(t *testing.T) {
	require := require.New(t)
	ctrl := gomock.NewController(t)

	worker := mocks.NewMockWorker(ctrl)
	worker.EXPECT().
		Run(gomock.Any()).
		DoAndReturn(func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}).
		Times(1)

	sup := NewSupervisor(slog.New(slog.DiscardHandler))

	done := make(chan struct{})
	go func() {
		sup.Add(worker).Run(t.Context())
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	sup.Stop()

	select {
	case <-done:
	case <-time.After(time.Second):
		require.Fail("supervisor did not stop all workers")
	}
}
