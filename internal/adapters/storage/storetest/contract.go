// Package storetest holds the behaviour every ports.Store implementation must share.
package storetest

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randomtoy/cyberdamus-go/internal/domain"
	"github.com/randomtoy/cyberdamus-go/internal/ports"
)

// Identity returns an identity filled with b.
func Identity(b byte) domain.Identity {
	var id domain.Identity
	for i := range id {
		id[i] = b
	}
	return id
}

// Oracle returns a valid oracle configuration for tests.
func Oracle() domain.OracleState {
	return domain.OracleState{
		Authority:        Identity(0xA0),
		Treasury:         Identity(0xB0),
		Fee:              10_000_000,
		ArtworkVersion:   1,
		ArtworkUpdatedAt: 1_700_000_000,
	}
}

// FullLibrary returns one non-empty artwork entry per card.
func FullLibrary() []string {
	svgs := make([]string, domain.PoolSize)
	for i := range svgs {
		svgs[i] = "<svg id='" + domain.CardName(domain.CardID(i)) + "'/>"
	}
	return svgs
}

// Run exercises newStore against the shared contract.
func Run(t *testing.T, newStore func(t *testing.T) ports.Store) {
	t.Run("uninitialized", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.OracleState(ctx)
		assert.ErrorIs(t, err, domain.ErrNotInitialized)

		_, err = s.PutArtwork(ctx, 0, []string{"<svg/>"}, 1)
		assert.ErrorIs(t, err, domain.ErrNotInitialized)

		err = s.WithinUnitOfWork(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
			_, err := uow.AllocateSequence(ctx)
			return err
		})
		assert.ErrorIs(t, err, domain.ErrNotInitialized)
	})

	t.Run("initialize once", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.InitializeOracle(ctx, Oracle()))
		assert.ErrorIs(t, s.InitializeOracle(ctx, Oracle()), domain.ErrAlreadyInitialized)

		st, err := s.OracleState(ctx)
		require.NoError(t, err)
		assert.Equal(t, Oracle().Authority, st.Authority)
		assert.Equal(t, Oracle().Treasury, st.Treasury)
		assert.Equal(t, uint64(10_000_000), st.Fee)
		assert.Equal(t, uint64(0), st.FortuneCounter)
		assert.False(t, st.ArtworkComplete)
	})

	t.Run("artwork library", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.InitializeOracle(ctx, Oracle()))
		lib := FullLibrary()

		n, err := s.PutArtwork(ctx, 0, lib[:10], 100)
		require.NoError(t, err)
		assert.Equal(t, 10, n)
		full, err := s.IsFullyPopulated(ctx)
		require.NoError(t, err)
		assert.False(t, full)

		_, err = s.PutArtwork(ctx, 75, lib[:5], 100)
		assert.ErrorIs(t, err, domain.ErrInvalidCardID)

		for start := 10; start < domain.PoolSize; start += 10 {
			end := min(start+10, domain.PoolSize)
			n, err = s.PutArtwork(ctx, start, lib[start:end], 200)
			require.NoError(t, err)
		}
		assert.Equal(t, domain.PoolSize, n)

		count, err := s.ArtworkCount(ctx)
		require.NoError(t, err)
		assert.Equal(t, domain.PoolSize, count)

		st, err := s.OracleState(ctx)
		require.NoError(t, err)
		assert.True(t, st.ArtworkComplete)
		assert.Equal(t, int64(200), st.ArtworkUpdatedAt)

		svg, err := s.GetArtwork(ctx, 36)
		require.NoError(t, err)
		assert.Equal(t, lib[36], svg)

		_, err = s.GetArtwork(ctx, domain.PoolSize)
		assert.ErrorIs(t, err, domain.ErrInvalidCardID)
	})

	t.Run("unit of work commits", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.InitializeOracle(ctx, Oracle()))
		id := Identity(1)

		var seqs []uint64
		for range 2 {
			err := s.WithinUnitOfWork(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
				seq, err := uow.AllocateSequence(ctx)
				if err != nil {
					return err
				}
				seqs = append(seqs, seq)

				usage, err := uow.LoadUsage(ctx, id)
				if err != nil {
					return err
				}
				usage.Commit(1000)
				if err := uow.SaveUsage(ctx, usage); err != nil {
					return err
				}
				f := domain.Draw(domain.DrawRequest{Identity: id, Now: 1000, Round: 7, Sequence: seq})
				if err := uow.SaveFortune(ctx, f); err != nil {
					return err
				}
				return uow.RecordFee(ctx, ports.FeeTransfer{
					FortuneID: seq, Payer: id, Treasury: Oracle().Treasury, Amount: 10_000_000, Timestamp: 1000,
				})
			})
			require.NoError(t, err)
		}
		assert.Equal(t, []uint64{0, 1}, seqs)

		st, err := s.OracleState(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), st.FortuneCounter)

		usage, err := s.GetUsage(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, uint64(2), usage.TotalDraws)
		assert.Equal(t, uint32(2), usage.DailyCount)
		assert.Equal(t, int64(1000), usage.LastDrawTimestamp)

		f, err := s.GetFortune(ctx, 1)
		require.NoError(t, err)
		want := domain.Draw(domain.DrawRequest{Identity: id, Now: 1000, Round: 7, Sequence: 1})
		assert.Equal(t, want, f)
	})

	t.Run("unit of work rolls back", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.InitializeOracle(ctx, Oracle()))
		id := Identity(2)
		boom := errors.New("boom")

		err := s.WithinUnitOfWork(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
			if _, err := uow.AllocateSequence(ctx); err != nil {
				return err
			}
			usage, err := uow.LoadUsage(ctx, id)
			if err != nil {
				return err
			}
			usage.Commit(50)
			if err := uow.SaveUsage(ctx, usage); err != nil {
				return err
			}
			return boom
		})
		assert.ErrorIs(t, err, boom)

		st, err := s.OracleState(ctx)
		require.NoError(t, err)
		assert.Equal(t, uint64(0), st.FortuneCounter)

		usage, err := s.GetUsage(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, domain.NewUsageRecord(id), usage)
	})

	t.Run("fortune lookups", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.InitializeOracle(ctx, Oracle()))
		alice, bob := Identity(3), Identity(4)

		err := s.WithinUnitOfWork(ctx, func(ctx context.Context, uow ports.UnitOfWork) error {
			for i, owner := range []domain.Identity{alice, bob, alice, alice} {
				f := domain.Draw(domain.DrawRequest{Identity: owner, Now: int64(i), Sequence: uint64(i)})
				if err := uow.SaveFortune(ctx, f); err != nil {
					return err
				}
			}
			return nil
		})
		require.NoError(t, err)

		list, err := s.ListFortunes(ctx, alice, 2)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, uint64(3), list[0].ID)
		assert.Equal(t, uint64(2), list[1].ID)

		all, err := s.ListFortunes(ctx, alice, 0)
		require.NoError(t, err)
		assert.Len(t, all, 3)

		_, err = s.GetFortune(ctx, 99)
		assert.ErrorIs(t, err, domain.ErrFortuneNotFound)
	})
}
