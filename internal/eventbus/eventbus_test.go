package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type ping struct{ N int }
type pong struct{}

func TestPublishSubscribe(t *testing.T) {
	Use(New())
	defer Use(nil)

	var got []int
	unsubscribe := Subscribe(func(ctx context.Context, e ping) { got = append(got, e.N) })
	require.True(t, Has[ping]())
	require.False(t, Has[pong]())

	Publish(context.Background(), ping{N: 1})
	Publish(context.Background(), pong{})
	unsubscribe()
	Publish(context.Background(), ping{N: 2})

	require.Equal(t, []int{1}, got)
	require.False(t, Has[ping]())
}

// Handlers built from the same function literal must unsubscribe
// independently.
func TestUnsubscribeIdentity(t *testing.T) {
	Use(New())
	defer Use(nil)

	counts := make([]int, 2)
	var unsubs []func()
	for i := range counts {
		unsubs = append(unsubs, Subscribe(func(ctx context.Context, e ping) { counts[i]++ }))
	}

	unsubs[1]()
	unsubs[1]()
	Publish(context.Background(), ping{})

	require.Equal(t, []int{1, 0}, counts)
}

func TestDisabled(t *testing.T) {
	Use(nil)
	called := false
	unsubscribe := Subscribe(func(ctx context.Context, e ping) { called = true })
	defer unsubscribe()

	Publish(context.Background(), ping{})
	require.False(t, called)
	require.False(t, Has[ping]())
}
