package desim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestGenerator_SingleServerQueue is concrete scenario 1 from spec §8:
// capacity-1 resource, three entities arriving at t=0,1,2, each seizing,
// delaying 3, releasing.
func TestGenerator_SingleServerQueue(t *testing.T) {
	m := New()
	r := m.NewResource("server", 1)

	var seizedAt, releasedAt [3]float64
	_, err := m.NewGenerator("customer", 0, 1, 3, func(n int) func(p *Process) error {
		return func(p *Process) error {
			alloc, err := p.Seize(r, 1)
			if err != nil {
				return err
			}
			seizedAt[n] = m.Now()
			if err := p.Delay(3); err != nil {
				return err
			}
			releasedAt[n] = m.Now()
			return m.Release(alloc)
		}
	})
	require.NoError(t, err)

	require.NoError(t, m.Run())

	require.Equal(t, [3]float64{0, 3, 6}, seizedAt)
	require.Equal(t, [3]float64{3, 6, 9}, releasedAt)
	require.Equal(t, 0, r.Busy())
}
