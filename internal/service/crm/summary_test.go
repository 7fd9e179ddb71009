package crm

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/crmsync/internal/domain"
)

func TestSummarize(t *testing.T) {
	aggs := []domain.CustomerAggregate{
		{CustomerKey: "a", TotalMinor: 600_00, Tier: domain.TierChampion, State: domain.StateActive},
		{CustomerKey: "b", TotalMinor: 300_00, Tier: domain.TierPromising, State: domain.StateActive},
		{CustomerKey: "c", TotalMinor: 100_00, Tier: domain.TierNew, State: domain.StateDormant},
	}

	s := Summarize(aggs)

	require.Equal(t, 3, s.TotalCustomers)
	require.Equal(t, int64(1_000_00), s.RevenueMinor)
	require.Equal(t, int64(333_33), s.AvgTicketMinor)
	require.Equal(t, 1, s.ByTier[domain.TierChampion])
	require.Equal(t, 1, s.ByTier[domain.TierPromising])
	require.Equal(t, 1, s.ByTier[domain.TierNew])
	require.Equal(t, 2, s.ByState[domain.StateActive])
	require.Equal(t, 1, s.ByState[domain.StateDormant])
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)

	require.Zero(t, s.TotalCustomers)
	require.Zero(t, s.RevenueMinor)
	require.Zero(t, s.AvgTicketMinor)
	require.Empty(t, s.ByTier)
	require.Empty(t, s.ByState)
}
