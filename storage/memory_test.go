package storage

import (
	"errors"
	"fmt"
	"testing"

	"github.com/chainledge/tickpoints/ledger"
	"github.com/chainledge/tickpoints/models"
)

func TestMemoryUpdateCommits(t *testing.T) {
	store := NewMemory()

	err := store.Update(func(tx ledger.Tx) error {
		if err := tx.PutUserRecord(&models.UserRecord{Principal: "alice", TotalPoints: 5}); err != nil {
			return err
		}
		// Staged writes are visible to reads within the same transaction.
		rec, err := tx.UserRecord("alice")
		if err != nil {
			return err
		}
		if rec == nil || rec.TotalPoints != 5 {
			t.Errorf("staged record not visible: %+v", rec)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	err = store.View(func(tx ledger.Tx) error {
		rec, err := tx.UserRecord("alice")
		if err != nil {
			return err
		}
		if rec == nil || rec.TotalPoints != 5 {
			t.Errorf("committed record not visible: %+v", rec)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}
}

func TestMemoryUpdateRollsBackOnError(t *testing.T) {
	store := NewMemory()
	boom := errors.New("boom")

	err := store.Update(func(tx ledger.Tx) error {
		_ = tx.PutUserRecord(&models.UserRecord{Principal: "alice", TotalPoints: 5})
		_ = tx.PutGlobalStats(&models.GlobalStats{TotalCheckins: 1})
		_ = tx.AppendCheckin(&models.CheckinRecord{ID: "x", Principal: "alice", Tick: 1})
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update error = %v, want boom", err)
	}

	_ = store.View(func(tx ledger.Tx) error {
		if rec, _ := tx.UserRecord("alice"); rec != nil {
			t.Errorf("record leaked from failed transaction: %+v", rec)
		}
		if stats, _ := tx.GlobalStats(); stats != nil {
			t.Errorf("stats leaked from failed transaction: %+v", stats)
		}
		if rows, _ := tx.RecentCheckins("alice", 10); len(rows) != 0 {
			t.Errorf("history leaked from failed transaction: %+v", rows)
		}
		return nil
	})
}

func TestMemoryViewIsReadOnly(t *testing.T) {
	store := NewMemory()

	_ = store.View(func(tx ledger.Tx) error {
		if err := tx.PutUserRecord(&models.UserRecord{Principal: "alice"}); !errors.Is(err, ErrReadOnlyTx) {
			t.Errorf("PutUserRecord: got %v, want ErrReadOnlyTx", err)
		}
		if err := tx.PutGlobalConfig(&models.GlobalConfig{PointsPerCheckin: 1}); !errors.Is(err, ErrReadOnlyTx) {
			t.Errorf("PutGlobalConfig: got %v, want ErrReadOnlyTx", err)
		}
		if err := tx.AppendCheckin(&models.CheckinRecord{ID: "x"}); !errors.Is(err, ErrReadOnlyTx) {
			t.Errorf("AppendCheckin: got %v, want ErrReadOnlyTx", err)
		}
		return nil
	})
}

func TestMemoryMutationsDoNotAlias(t *testing.T) {
	store := NewMemory()

	_ = store.Update(func(tx ledger.Tx) error {
		return tx.PutUserRecord(&models.UserRecord{Principal: "alice", TotalPoints: 1})
	})

	// Mutating a record handed out by the store must not change stored state
	// without a Put.
	_ = store.View(func(tx ledger.Tx) error {
		rec, _ := tx.UserRecord("alice")
		rec.TotalPoints = 999
		return nil
	})
	_ = store.View(func(tx ledger.Tx) error {
		rec, _ := tx.UserRecord("alice")
		if rec.TotalPoints != 1 {
			t.Errorf("store state aliased: %+v", rec)
		}
		return nil
	})
}

func TestMemoryRecentCheckinsOrderAndLimit(t *testing.T) {
	store := NewMemory()

	_ = store.Update(func(tx ledger.Tx) error {
		for _, tick := range []uint64{10, 30, 20} {
			_ = tx.AppendCheckin(&models.CheckinRecord{ID: ids(tick), Principal: "alice", Tick: tick})
		}
		_ = tx.AppendCheckin(&models.CheckinRecord{ID: "other", Principal: "bob", Tick: 99})
		return nil
	})

	_ = store.View(func(tx ledger.Tx) error {
		rows, err := tx.RecentCheckins("alice", 2)
		if err != nil {
			t.Fatalf("RecentCheckins: %v", err)
		}
		if len(rows) != 2 {
			t.Fatalf("rows = %d, want 2", len(rows))
		}
		if rows[0].Tick != 30 || rows[1].Tick != 20 {
			t.Errorf("unexpected order: %d, %d", rows[0].Tick, rows[1].Tick)
		}
		return nil
	})
}

func ids(tick uint64) string {
	return fmt.Sprintf("rec-%d", tick)
}
