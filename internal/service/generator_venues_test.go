package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func venueProblem() *problemInstance {
	return &problemInstance{
		PinnedVenues:      map[string]string{"PINNED": "SEM-HALL"},
		DefaultLabs:       []string{"LAB-1", "LAB-2"},
		DefaultClassrooms: []string{"CR-101", "CR-102", "CR-103"},
		GlobalOccupancy: map[gridKey]map[string]bool{
			{"Monday", 1}: {"CR-101": true},
		},
	}
}

func TestVenueAllocatorPinnedWins(t *testing.T) {
	alloc := newVenueAllocator(venueProblem(), nil)

	v := alloc.Assign("Monday", 1, "PINNED", false, 0)
	require.NotNil(t, v)
	assert.Equal(t, "SEM-HALL", *v)
}

func TestVenueAllocatorSkipsGloballyOccupied(t *testing.T) {
	alloc := newVenueAllocator(venueProblem(), nil)

	// CR-101 is booked by another department at Monday P1.
	v := alloc.Assign("Monday", 1, "C1", false, 0)
	require.NotNil(t, v)
	assert.Equal(t, "CR-102", *v)
}

func TestVenueAllocatorRotatesAndTracksCurrentRun(t *testing.T) {
	alloc := newVenueAllocator(venueProblem(), nil)

	first := alloc.Assign("Tuesday", 2, "C1", false, 0)
	require.NotNil(t, first)
	assert.Equal(t, "CR-101", *first)

	// Same cell again: the first pick is taken by this run now.
	second := alloc.Assign("Tuesday", 2, "C2", false, 1)
	require.NotNil(t, second)
	assert.NotEqual(t, *first, *second)

	third := alloc.Assign("Tuesday", 2, "C3", false, 2)
	require.NotNil(t, third)
	assert.NotContains(t, []string{*first, *second}, *third)
}

func TestVenueAllocatorOvercommitsWhenPoolExhausted(t *testing.T) {
	p := venueProblem()
	p.DefaultClassrooms = []string{"CR-101"}
	alloc := newVenueAllocator(p, nil)

	first := alloc.Assign("Friday", 3, "C1", false, 0)
	require.NotNil(t, first)
	assert.Equal(t, "CR-101", *first)

	// Degraded mode: the pool entry is reused rather than failing the run.
	second := alloc.Assign("Friday", 3, "C2", false, 1)
	require.NotNil(t, second)
	assert.Equal(t, "CR-101", *second)
}

func TestVenueAllocatorNilWithoutPool(t *testing.T) {
	p := venueProblem()
	p.DefaultLabs = nil
	alloc := newVenueAllocator(p, nil)

	assert.Nil(t, alloc.Assign("Monday", 1, "C1", true, 0))
}

func TestVenueAllocatorLabKind(t *testing.T) {
	alloc := newVenueAllocator(venueProblem(), nil)

	v := alloc.Assign("Monday", 3, "C1", true, 0)
	require.NotNil(t, v)
	assert.Equal(t, "LAB-1", *v)
}
