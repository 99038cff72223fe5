package pending

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestReadyAndFail(t *testing.T) {
	v := Ready(42)
	require.False(t, v.Deferred())
	got, err := v.Await()
	require.NoError(t, err)
	require.Equal(t, 42, got)

	boom := errors.New("boom")
	f := Fail[int](boom)
	require.False(t, f.Deferred())
	_, err = f.Await()
	require.ErrorIs(t, err, boom)
}

func TestGoSettles(t *testing.T) {
	release := make(chan struct{})
	v := Go(func() (string, error) {
		<-release
		return "late", nil
	})
	require.True(t, v.Deferred())
	select {
	case <-v.done:
		t.Fatal("value settled before its goroutine returned")
	default:
	}
	close(release)
	got, err := v.Await()
	require.NoError(t, err)
	require.Equal(t, "late", got)
	require.True(t, v.Deferred(), "a deferred value stays deferred after settling")
}

func TestGoRecoversPanic(t *testing.T) {
	v := Go(func() (int, error) {
		panic("kaboom")
	})
	_, err := v.Await()
	var pe *PanicError
	require.ErrorAs(t, err, &pe)
	require.Equal(t, "kaboom", pe.Error())
	require.NotEmpty(t, pe.Stack)
}

func TestThenStaysSynchronous(t *testing.T) {
	calls := 0
	v := Then(Ready(2), func(n int) *Value[int] {
		calls++
		return Ready(n * 10)
	})
	require.Equal(t, 1, calls, "continuation must run before Then returns")
	require.False(t, v.Deferred())
	got, _ := v.Await()
	require.Equal(t, 20, got)
}

func TestThenSkipsOnFailure(t *testing.T) {
	boom := errors.New("boom")
	called := false
	v := Then(Fail[int](boom), func(int) *Value[int] {
		called = true
		return Ready(0)
	})
	_, err := v.Await()
	require.ErrorIs(t, err, boom)
	require.False(t, called)
}

func TestHandleSeesErrors(t *testing.T) {
	boom := errors.New("boom")
	v := Handle(Go(func() (int, error) { return 0, boom }), func(_ int, err error) *Value[string] {
		if err != nil {
			return Ready("recovered: " + err.Error())
		}
		return Ready("ok")
	})
	require.True(t, v.Deferred())
	got, err := v.Await()
	require.NoError(t, err)
	require.Equal(t, "recovered: boom", got)
}

func TestAllKeepsIndexOrder(t *testing.T) {
	slow := Go(func() (int, error) {
		time.Sleep(20 * time.Millisecond)
		return 1, nil
	})
	fast := Go(func() (int, error) { return 2, nil })
	v := All([]*Value[int]{slow, fast, Ready(3)})
	require.True(t, v.Deferred())
	got, err := v.Await()
	require.NoError(t, err)
	require.Equal(t, []int{1, 2, 3}, got)
}

func TestAllSynchronous(t *testing.T) {
	v := All([]*Value[int]{Ready(1), Ready(2)})
	require.False(t, v.Deferred())
	got, _ := v.Await()
	require.Equal(t, []int{1, 2}, got)

	empty := All[int](nil)
	require.False(t, empty.Deferred())
	got, err := empty.Await()
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestAllWaitsForEverySibling(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	finished := make(chan struct{})
	v := All([]*Value[int]{
		Go(func() (int, error) {
			time.Sleep(10 * time.Millisecond)
			return 0, second
		}),
		Fail[int](first),
		Go(func() (int, error) {
			time.Sleep(30 * time.Millisecond)
			close(finished)
			return 3, nil
		}),
	})
	_, err := v.Await()
	require.ErrorIs(t, err, second, "the lowest failing index wins")
	select {
	case <-finished:
	default:
		t.Fatal("All settled before every element settled")
	}
}
