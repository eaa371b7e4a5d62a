package desim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBatchQueue_ReleasesAllMembersOnceSizeIsReached(t *testing.T) {
	m := New()
	bq := m.NewBatchQueue("batch", 3)

	var resumedAt [3]float64
	for i := 0; i < 3; i++ {
		i := i
		_, proc := m.NewEntity("member", func(p *Process) error {
			require.NoError(t, p.JoinBatch(bq))
			resumedAt[i] = m.Now()
			return nil
		})
		require.NoError(t, m.Activate(proc, float64(i)))
	}

	require.NoError(t, m.Run())

	for i, at := range resumedAt {
		require.Equal(t, float64(2), at, "member %d must resume once the third join fills the batch", i)
	}
	require.Equal(t, 0, bq.Len())
}
