package desim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestBlockingQueue_BoundedSendBlocksUntilReceiverDrains is concrete
// scenario 5 from spec §8: capacity-2 queue, three senders at t=0, one
// receiver at t=5 taking 1 item.
func TestBlockingQueue_BoundedSendBlocksUntilReceiverDrains(t *testing.T) {
	m := New()
	q := m.NewBlockingQueue("bq", 2)

	var sentAt [3]float64
	for i := 0; i < 3; i++ {
		i := i
		_, proc := m.NewEntity("sender", func(p *Process) error {
			require.NoError(t, p.Send(q, i))
			sentAt[i] = m.Now()
			return nil
		})
		require.NoError(t, m.Activate(proc, 0))
	}

	var received []any
	_, receiver := m.NewEntity("receiver", func(p *Process) error {
		items, err := p.WaitForItems(q, AtLeast(1))
		if err != nil {
			return err
		}
		received = items
		return nil
	})
	require.NoError(t, m.Activate(receiver, 5))

	require.NoError(t, m.Run())

	require.Equal(t, float64(0), sentAt[0])
	require.Equal(t, float64(0), sentAt[1])
	require.Equal(t, float64(5), sentAt[2], "third send must block until the receiver drains a slot")
	require.Equal(t, []any{0}, received)
	require.Equal(t, 2, q.Len(), "item 1 stays buffered and the freed slot admits the blocked third send")
}
