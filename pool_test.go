package desim

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResourcePool_SeizePicksFirstEligibleMember(t *testing.T) {
	m := New()
	r1 := m.NewResource("r1", 1)
	r2 := m.NewResource("r2", 1)
	pool := m.NewResourcePool("pool", []*Resource{r1, r2}, FirstAvailable, nil)

	var got *Resource
	_, proc := m.NewEntity("e", func(p *Process) error {
		pa, err := p.SeizeFromPool(pool, 1)
		if err != nil {
			return err
		}
		parts := pa.Allocations()
		require.Len(t, parts, 1)
		got = parts[0].Resource()
		return nil
	})
	require.NoError(t, m.Activate(proc, 0))
	require.NoError(t, m.Run())

	require.Same(t, r1, got)
}

func TestResourcePool_QueuedRequestRetriesAfterMemberReleases(t *testing.T) {
	m := New()
	r1 := m.NewResource("r1", 1)
	pool := m.NewResourcePool("pool", []*Resource{r1}, FirstAvailable, nil)

	_, holder := m.NewEntity("holder", func(p *Process) error {
		pa, err := p.SeizeFromPool(pool, 1)
		if err != nil {
			return err
		}
		require.NoError(t, p.Delay(10))
		return m.ReleasePool(pa)
	})

	var grantedAt float64 = -1
	_, waiter := m.NewEntity("waiter", func(p *Process) error {
		_, err := p.SeizeFromPool(pool, 1)
		grantedAt = m.Now()
		return err
	})

	require.NoError(t, m.Activate(holder, 0))
	require.NoError(t, m.Activate(waiter, 0))
	require.NoError(t, m.Run())

	require.Equal(t, float64(10), grantedAt)
}

// TestResourcePool_SeizeSpansMultipleMembersWhenNoSingleOneSuffices covers
// the alloc_rule decomposition spec §4.7 describes: a SpanningSubset
// selection combined with GreedyFill splits one request across two members
// that individually can't satisfy it alone.
func TestResourcePool_SeizeSpansMultipleMembersWhenNoSingleOneSuffices(t *testing.T) {
	m := New()
	r1 := m.NewResource("r1", 2)
	r2 := m.NewResource("r2", 2)
	pool := m.NewResourcePool("pool", []*Resource{r1, r2}, SpanningSubset, GreedyFill)

	var total int
	var byResource map[*Resource]int
	_, proc := m.NewEntity("e", func(p *Process) error {
		pa, err := p.SeizeFromPool(pool, 3)
		if err != nil {
			return err
		}
		total = pa.Amount()
		byResource = make(map[*Resource]int)
		for _, a := range pa.Allocations() {
			byResource[a.Resource()] = a.Amount()
		}
		return nil
	})
	require.NoError(t, m.Activate(proc, 0))
	require.NoError(t, m.Run())

	require.Equal(t, 3, total)
	require.Equal(t, 2, byResource[r1])
	require.Equal(t, 1, byResource[r2])
}
